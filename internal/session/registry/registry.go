// Package registry holds the in-memory state of every tenant session.
package registry

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/Peixotim/sales-bot/internal/session/domain"
)

type entry struct {
	mu      sync.Mutex
	session domain.TenantSession
	removed bool
}

// Registry maps tenant ids to sessions. The map lock is held only for lookup, insert and
// delete; each session has its own lock, so tenants never block one another.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	gen     atomic.Uint64
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// lock returns the tenant's entry with its mutex held, or nil when absent and create is false.
func (r *Registry) lock(tenantID string, create bool) *entry {
	for {
		r.mu.RLock()
		e := r.entries[tenantID]
		r.mu.RUnlock()
		if e == nil {
			if !create {
				return nil
			}
			r.mu.Lock()
			e = r.entries[tenantID]
			if e == nil {
				e = &entry{session: domain.TenantSession{TenantID: tenantID, Status: domain.StatusDisconnected}}
				r.entries[tenantID] = e
			}
			r.mu.Unlock()
		}
		e.mu.Lock()
		if !e.removed {
			return e
		}
		e.mu.Unlock()
	}
}

// Upsert installs handle as the tenant's live connection and returns the generation assigned
// to it together with the handle it replaced (nil if none). Generations are unique for the
// lifetime of the registry, so events tagged with an old generation can be told apart even
// after the tenant was removed and re-added.
func (r *Registry) Upsert(tenantID string, handle domain.Handle) (uint64, domain.Handle) {
	e := r.lock(tenantID, true)
	defer e.mu.Unlock()
	prev := e.session.Handle
	e.session.Handle = handle
	e.session.Generation = r.gen.Add(1)
	return e.session.Generation, prev
}

// Get returns a copy of the tenant's session.
func (r *Registry) Get(tenantID string) (domain.TenantSession, bool) {
	e := r.lock(tenantID, false)
	if e == nil {
		return domain.TenantSession{}, false
	}
	defer e.mu.Unlock()
	return e.session, true
}

// Generation returns the generation of the tenant's current handle, or 0 when absent.
func (r *Registry) Generation(tenantID string) uint64 {
	s, ok := r.Get(tenantID)
	if !ok {
		return 0
	}
	return s.Generation
}

// SetStatus sets the tenant's status unconditionally and returns the previous one.
func (r *Registry) SetStatus(tenantID string, status domain.Status) domain.Status {
	e := r.lock(tenantID, true)
	defer e.mu.Unlock()
	prev := e.session.Status
	e.session.Status = status
	return prev
}

// SetPairingCode stores the outstanding pairing code; an empty code clears it.
func (r *Registry) SetPairingCode(tenantID, code string) {
	e := r.lock(tenantID, true)
	defer e.mu.Unlock()
	e.session.PairingCode = code
}

// Update runs fn on the tenant's session while holding its lock, but only when the session's
// current generation is gen. It reports whether fn ran.
func (r *Registry) Update(tenantID string, gen uint64, fn func(s *domain.TenantSession)) bool {
	e := r.lock(tenantID, false)
	if e == nil {
		return false
	}
	defer e.mu.Unlock()
	if e.session.Generation != gen {
		return false
	}
	fn(&e.session)
	return true
}

// Apply runs fn on the tenant's session while holding its lock, creating a DISCONNECTED
// session first when the tenant is unknown.
func (r *Registry) Apply(tenantID string, fn func(s *domain.TenantSession)) {
	e := r.lock(tenantID, true)
	defer e.mu.Unlock()
	fn(&e.session)
}

// Remove deletes the tenant's session and returns what was removed.
func (r *Registry) Remove(tenantID string) (domain.TenantSession, bool) {
	r.mu.Lock()
	e := r.entries[tenantID]
	delete(r.entries, tenantID)
	r.mu.Unlock()
	if e == nil {
		return domain.TenantSession{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removed = true
	return e.session, true
}

// List returns a snapshot of every session ordered by tenant id.
func (r *Registry) List() []domain.TenantSession {
	r.mu.RLock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	out := make([]domain.TenantSession, 0, len(ids))
	for _, id := range ids {
		if s, ok := r.Get(id); ok {
			out = append(out, s)
		}
	}
	return out
}

package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/Peixotim/sales-bot/internal/session/domain"
)

type fakeHandle struct {
	id     string
	closed bool
}

func (h *fakeHandle) OwnID() string { return h.id }
func (h *fakeHandle) Close()        { h.closed = true }

func TestRegistry_UpsertReturnsPrevious(t *testing.T) {
	r := New()
	h1 := &fakeHandle{id: "a"}
	h2 := &fakeHandle{id: "b"}

	gen1, prev := r.Upsert("T1", h1)
	if prev != nil {
		t.Errorf("first Upsert prev = %v, want nil", prev)
	}
	gen2, prev := r.Upsert("T1", h2)
	if prev != h1 {
		t.Errorf("second Upsert prev = %v, want h1", prev)
	}
	if gen2 <= gen1 {
		t.Errorf("generation did not advance: %d then %d", gen1, gen2)
	}
	s, ok := r.Get("T1")
	if !ok || s.Handle != h2 || s.Generation != gen2 {
		t.Errorf("Get = %+v, %v", s, ok)
	}
}

func TestRegistry_GetMissing(t *testing.T) {
	r := New()
	if _, ok := r.Get("nope"); ok {
		t.Error("Get should report false for unknown tenant")
	}
	if g := r.Generation("nope"); g != 0 {
		t.Errorf("Generation = %d, want 0", g)
	}
}

func TestRegistry_StatusAndPairingCode(t *testing.T) {
	r := New()
	if prev := r.SetStatus("T1", domain.StatusConnecting); prev != domain.StatusDisconnected {
		t.Errorf("prev = %q, want DISCONNECTED for a new tenant", prev)
	}
	r.SetPairingCode("T1", "ABC123")
	s, _ := r.Get("T1")
	if s.Status != domain.StatusConnecting || s.PairingCode != "ABC123" {
		t.Errorf("session = %+v", s)
	}
	r.SetPairingCode("T1", "")
	s, _ = r.Get("T1")
	if s.PairingCode != "" {
		t.Errorf("PairingCode = %q, want cleared", s.PairingCode)
	}
}

func TestRegistry_UpdateGenerationGuard(t *testing.T) {
	r := New()
	old, _ := r.Upsert("T1", &fakeHandle{})
	cur, _ := r.Upsert("T1", &fakeHandle{})

	if r.Update("T1", old, func(s *domain.TenantSession) { s.Status = domain.StatusConnected }) {
		t.Error("Update with stale generation should not run")
	}
	if !r.Update("T1", cur, func(s *domain.TenantSession) { s.Status = domain.StatusConnected }) {
		t.Error("Update with current generation should run")
	}
	s, _ := r.Get("T1")
	if s.Status != domain.StatusConnected {
		t.Errorf("Status = %q, want CONNECTED", s.Status)
	}
}

func TestRegistry_ApplyCreatesDisconnected(t *testing.T) {
	r := New()
	var seen domain.Status
	r.Apply("T9", func(s *domain.TenantSession) {
		seen = s.Status
		s.Status = domain.StatusConnecting
	})
	if seen != domain.StatusDisconnected {
		t.Errorf("new session status = %q, want DISCONNECTED", seen)
	}
	s, ok := r.Get("T9")
	if !ok || s.Status != domain.StatusConnecting {
		t.Errorf("Get = %+v, %v", s, ok)
	}
}

func TestRegistry_RemoveThenReAddGetsNewGeneration(t *testing.T) {
	r := New()
	gen1, _ := r.Upsert("T1", &fakeHandle{})
	removed, ok := r.Remove("T1")
	if !ok || removed.Generation != gen1 {
		t.Fatalf("Remove = %+v, %v", removed, ok)
	}
	if _, ok := r.Get("T1"); ok {
		t.Error("Get after Remove should report false")
	}
	if r.Update("T1", gen1, func(*domain.TenantSession) {}) {
		t.Error("Update on removed tenant should not run")
	}
	gen2, prev := r.Upsert("T1", &fakeHandle{})
	if prev != nil {
		t.Error("Upsert after Remove should have no previous handle")
	}
	if gen2 == gen1 {
		t.Error("generation reused after Remove")
	}
}

func TestRegistry_List(t *testing.T) {
	r := New()
	r.SetStatus("T2", domain.StatusConnecting)
	r.SetStatus("T1", domain.StatusConnecting)
	list := r.List()
	if len(list) != 2 || list[0].TenantID != "T1" || list[1].TenantID != "T2" {
		t.Errorf("List = %+v", list)
	}
}

func TestRegistry_ConcurrentTenants(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("T%d", i%5)
			r.Upsert(id, &fakeHandle{})
			r.SetStatus(id, domain.StatusConnecting)
			r.SetPairingCode(id, "code")
			if i%7 == 0 {
				r.Remove(id)
			}
		}(i)
	}
	wg.Wait()
	for _, s := range r.List() {
		if s.TenantID == "" {
			t.Error("List returned a session without tenant id")
		}
	}
}

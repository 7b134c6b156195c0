// Package authmaterial persists each tenant's identity credential and signal keys so a
// connection can resume without pairing again.
package authmaterial

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Peixotim/sales-bot/internal/authmaterial/domain"
	"github.com/Peixotim/sales-bot/internal/authmaterial/repository"
	"github.com/Peixotim/sales-bot/internal/protocol"
)

const (
	defaultTimeout = 10 * time.Second
	writeParallel  = 8
)

// ErrInvalidTenant is returned when the tenant id is empty.
var ErrInvalidTenant = errors.New("authmaterial: tenant id is required")

// Codec converts one key category between its in-memory form and stored bytes.
type Codec struct {
	Encode func(v any) ([]byte, error)
	Decode func(b []byte) (any, error)
}

// RawCodec stores values as-is; values must be []byte.
var RawCodec = Codec{
	Encode: func(v any) ([]byte, error) {
		b, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("authmaterial: value is %T, want []byte", v)
		}
		return b, nil
	},
	Decode: func(b []byte) (any, error) { return b, nil },
}

// IdentityInitializer produces a fresh identity credential for a tenant that has none.
type IdentityInitializer func(tenantID string) ([]byte, error)

// RandomIdentity returns 32 random bytes. The protocol library replaces it once pairing completes.
func RandomIdentity(string) ([]byte, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Store reads and writes auth material through a Repository with a bounded timeout per call.
type Store struct {
	repo     repository.Repository
	timeout  time.Duration
	logger   *slog.Logger
	initF    IdentityInitializer
	mu       sync.RWMutex
	codecs   map[string]Codec
	fallback Codec
}

// NewStore returns a Store. timeout <= 0 means 10s; a nil logger means slog.Default().
// The app-state-sync-key category is registered with its protobuf codec.
func NewStore(repo repository.Repository, timeout time.Duration, logger *slog.Logger) *Store {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		repo:     repo,
		timeout:  timeout,
		logger:   logger,
		initF:    RandomIdentity,
		codecs:   make(map[string]Codec),
		fallback: RawCodec,
	}
	s.RegisterCodec(CategoryAppStateSyncKey, AppStateSyncKeyCodec)
	return s
}

// RegisterCodec sets the codec used for category. Categories without one use RawCodec.
func (s *Store) RegisterCodec(category string, c Codec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codecs[category] = c
}

// SetIdentityInitializer replaces the function used to create a fresh identity in Load.
func (s *Store) SetIdentityInitializer(f IdentityInitializer) {
	if f != nil {
		s.initF = f
	}
}

func (s *Store) codec(category string) Codec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.codecs[category]; ok {
		return c
	}
	return s.fallback
}

func keyName(category, id string) string {
	return category + "-" + id
}

// Load returns the tenant's credentials. When no identity is stored a fresh one is
// initialized and Fresh is set; not-found is never an error.
func (s *Store) Load(ctx context.Context, tenantID string) (*protocol.Credentials, error) {
	if tenantID == "" {
		return nil, ErrInvalidTenant
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	rec, err := s.repo.Get(ctx, tenantID, repository.CredsKey)
	if err != nil {
		return nil, fmt.Errorf("load creds: %w", err)
	}
	creds := &protocol.Credentials{TenantID: tenantID, Keys: s.Keys(tenantID)}
	if rec != nil && len(rec.Value) > 0 {
		creds.Identity = rec.Value
		return creds, nil
	}
	identity, err := s.initF(tenantID)
	if err != nil {
		return nil, fmt.Errorf("init creds: %w", err)
	}
	creds.Identity = identity
	creds.Fresh = true
	return creds, nil
}

// SaveCreds persists the identity credential.
func (s *Store) SaveCreds(ctx context.Context, tenantID string, identity []byte) error {
	if tenantID == "" {
		return ErrInvalidTenant
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err := s.repo.Put(ctx, &domain.Record{
		TenantID:  tenantID,
		KeyName:   repository.CredsKey,
		Value:     identity,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("save creds: %w", err)
	}
	return nil
}

// GetKeys returns the decoded keys of category among ids. Missing ids are omitted, and so is
// any id whose stored value fails to decode (logged with its key name).
func (s *Store) GetKeys(ctx context.Context, tenantID, category string, ids []string) (map[string]any, error) {
	if tenantID == "" {
		return nil, ErrInvalidTenant
	}
	out := make(map[string]any, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = keyName(category, id)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	recs, err := s.repo.GetMany(ctx, tenantID, names)
	if err != nil {
		return nil, fmt.Errorf("get keys %s: %w", category, err)
	}
	c := s.codec(category)
	prefix := category + "-"
	for _, rec := range recs {
		v, err := c.Decode(rec.Value)
		if err != nil {
			s.logger.Warn("authmaterial: skipping undecodable key",
				"tenant_id", tenantID, "key", rec.KeyName, "error", err)
			continue
		}
		out[strings.TrimPrefix(rec.KeyName, prefix)] = v
	}
	return out, nil
}

// SetKeys writes data (category -> id -> value). A nil value deletes the key. Each key is
// written independently; failures are logged and returned joined, and the remaining keys are
// still written.
func (s *Store) SetKeys(ctx context.Context, tenantID string, data map[string]map[string]any) error {
	if tenantID == "" {
		return ErrInvalidTenant
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		mu   sync.Mutex
		errs []error
	)
	fail := func(name string, err error) {
		s.logger.Warn("authmaterial: key write failed", "tenant_id", tenantID, "key", name, "error", err)
		mu.Lock()
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
		mu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(writeParallel)
	now := time.Now().UTC()
	for category, values := range data {
		c := s.codec(category)
		for id, v := range values {
			name := keyName(category, id)
			if v == nil {
				g.Go(func() error {
					if err := s.repo.Delete(ctx, tenantID, name); err != nil {
						fail(name, err)
					}
					return nil
				})
				continue
			}
			b, err := c.Encode(v)
			if err != nil {
				fail(name, err)
				continue
			}
			g.Go(func() error {
				if err := s.repo.Put(ctx, &domain.Record{TenantID: tenantID, KeyName: name, Value: b, UpdatedAt: now}); err != nil {
					fail(name, err)
				}
				return nil
			})
		}
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Clear removes every stored record of the tenant.
func (s *Store) Clear(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return ErrInvalidTenant
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.repo.DeleteAll(ctx, tenantID); err != nil {
		return fmt.Errorf("clear auth material: %w", err)
	}
	return nil
}

// Tenants returns the tenants that have a stored identity credential.
func (s *Store) Tenants(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.repo.ListTenants(ctx)
}

// Keys returns the tenant-scoped key store handed to the protocol library.
func (s *Store) Keys(tenantID string) protocol.KeyStore {
	return &tenantKeys{store: s, tenantID: tenantID}
}

type tenantKeys struct {
	store    *Store
	tenantID string
}

func (k *tenantKeys) Get(ctx context.Context, category string, ids []string) (map[string]any, error) {
	return k.store.GetKeys(ctx, k.tenantID, category, ids)
}

func (k *tenantKeys) Set(ctx context.Context, data map[string]map[string]any) error {
	return k.store.SetKeys(ctx, k.tenantID, data)
}

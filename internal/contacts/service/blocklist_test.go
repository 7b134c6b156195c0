package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Peixotim/sales-bot/internal/contacts/domain"
)

type memBlockRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.BlockedContact
	err  error
}

func newMemBlockRepo() *memBlockRepo {
	return &memBlockRepo{rows: make(map[string]*domain.BlockedContact)}
}

func (m *memBlockRepo) List(ctx context.Context) ([]*domain.BlockedContact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.BlockedContact
	for _, c := range m.rows {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memBlockRepo) Get(ctx context.Context, jid string) (*domain.BlockedContact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.rows[jid], nil
}

func (m *memBlockRepo) Create(ctx context.Context, c *domain.BlockedContact) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[c.JID]; ok {
		return false, nil
	}
	m.rows[c.JID] = c
	return true, nil
}

func (m *memBlockRepo) Delete(ctx context.Context, jid string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[jid]
	delete(m.rows, jid)
	return ok, nil
}

type recordingAudit struct {
	actions []string
}

func (r *recordingAudit) LogEvent(ctx context.Context, tenantID, action, resource, metadata string) {
	r.actions = append(r.actions, action)
}

func TestBlocklistService_BlockDefaultsName(t *testing.T) {
	aud := &recordingAudit{}
	svc := NewBlocklistService(newMemBlockRepo(), aud, "55")
	c, err := svc.Block(context.Background(), "5511999999999", "  ")
	if err != nil {
		t.Fatalf("Block: %v", err)
	}
	if c.Name != domain.DefaultName {
		t.Errorf("Name = %q, want %q", c.Name, domain.DefaultName)
	}
	if c.JID != "551199999999@s.whatsapp.net" {
		t.Errorf("JID = %q", c.JID)
	}
	if len(aud.actions) != 1 {
		t.Errorf("audit actions = %v", aud.actions)
	}
}

func TestBlocklistService_BlockDuplicate(t *testing.T) {
	svc := NewBlocklistService(newMemBlockRepo(), nil, "55")
	ctx := context.Background()
	if _, err := svc.Block(ctx, "551199999999", "Ana"); err != nil {
		t.Fatalf("Block: %v", err)
	}
	// Same contact spelled with the extra nine.
	if _, err := svc.Block(ctx, "5511999999999", "Ana"); !errors.Is(err, domain.ErrAlreadyBlocked) {
		t.Errorf("err = %v, want ErrAlreadyBlocked", err)
	}
}

func TestBlocklistService_UnblockAndGet(t *testing.T) {
	svc := NewBlocklistService(newMemBlockRepo(), nil, "55")
	ctx := context.Background()
	if err := svc.Unblock(ctx, "551199999999"); !errors.Is(err, domain.ErrNotBlocked) {
		t.Errorf("Unblock missing err = %v, want ErrNotBlocked", err)
	}
	if _, err := svc.Get(ctx, "551199999999"); !errors.Is(err, domain.ErrNotBlocked) {
		t.Errorf("Get missing err = %v, want ErrNotBlocked", err)
	}
	_, _ = svc.Block(ctx, "551199999999", "Ana")
	got, err := svc.Get(ctx, "551199999999@s.whatsapp.net")
	if err != nil || got.Name != "Ana" {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	if err := svc.Unblock(ctx, "5511999999999"); err != nil {
		t.Errorf("Unblock: %v", err)
	}
}

func TestBlocklistService_IsBlocked(t *testing.T) {
	svc := NewBlocklistService(newMemBlockRepo(), nil, "55")
	ctx := context.Background()
	_, _ = svc.Block(ctx, "551199999999", "")

	tests := []struct {
		sender string
		want   bool
	}{
		{"551199999999@s.whatsapp.net", true},
		{"551199999999:7@s.whatsapp.net", true},
		{"551188888888@s.whatsapp.net", false},
	}
	for _, tt := range tests {
		got, err := svc.IsBlocked(ctx, tt.sender)
		if err != nil {
			t.Fatalf("IsBlocked(%q): %v", tt.sender, err)
		}
		if got != tt.want {
			t.Errorf("IsBlocked(%q) = %v, want %v", tt.sender, got, tt.want)
		}
	}
}

func TestBlocklistService_ListEmptyAndOrder(t *testing.T) {
	svc := NewBlocklistService(newMemBlockRepo(), nil, "55")
	ctx := context.Background()
	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("List = %v, want empty non-nil slice", list)
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.nowF = func() time.Time { return base }
	_, _ = svc.Block(ctx, "551111111111", "first")
	svc.nowF = func() time.Time { return base.Add(time.Hour) }
	_, _ = svc.Block(ctx, "551122222222", "second")
	list, _ = svc.List(ctx)
	if len(list) != 2 || list[0].Name != "second" {
		t.Errorf("List order = %+v", list)
	}
}

func TestBlocklistService_RepoError(t *testing.T) {
	repo := newMemBlockRepo()
	repo.err = errors.New("db down")
	svc := NewBlocklistService(repo, nil, "55")
	if _, err := svc.IsBlocked(context.Background(), "551199999999"); err == nil {
		t.Error("IsBlocked should surface repository errors")
	}
}

func TestBlocklistService_InvalidNumber(t *testing.T) {
	svc := NewBlocklistService(newMemBlockRepo(), nil, "55")
	if _, err := svc.Block(context.Background(), "abc", ""); !errors.Is(err, domain.ErrInvalidNumber) {
		t.Errorf("err = %v, want ErrInvalidNumber", err)
	}
}

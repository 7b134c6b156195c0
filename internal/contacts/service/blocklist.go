// Package service implements the blocklist consulted by the inbound pipeline and managed by
// administrators.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Peixotim/sales-bot/internal/audit"
	"github.com/Peixotim/sales-bot/internal/contacts/domain"
	"github.com/Peixotim/sales-bot/internal/contacts/repository"
)

// BlocklistService normalizes identifiers and guards the blocklist repository.
type BlocklistService struct {
	repo        repository.Repository
	auditLogger audit.AuditLogger
	countryCode string
	nowF        func() time.Time
}

// NewBlocklistService returns a BlocklistService. countryCode selects the number normalization
// rules (e.g. "55"); auditLogger may be nil.
func NewBlocklistService(repo repository.Repository, auditLogger audit.AuditLogger, countryCode string) *BlocklistService {
	return &BlocklistService{
		repo:        repo,
		auditLogger: auditLogger,
		countryCode: countryCode,
		nowF:        func() time.Time { return time.Now().UTC() },
	}
}

// Normalize returns the canonical JID for raw.
func (s *BlocklistService) Normalize(raw string) (string, error) {
	return domain.NormalizeJID(raw, s.countryCode)
}

// List returns every blocked contact, newest first. An empty blocklist is an empty slice.
func (s *BlocklistService) List(ctx context.Context) ([]*domain.BlockedContact, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list blocked contacts: %w", err)
	}
	if list == nil {
		list = []*domain.BlockedContact{}
	}
	return list, nil
}

// Get returns the blocked contact for number, or ErrNotBlocked.
func (s *BlocklistService) Get(ctx context.Context, number string) (*domain.BlockedContact, error) {
	jid, err := s.Normalize(number)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.Get(ctx, jid)
	if err != nil {
		return nil, fmt.Errorf("get blocked contact: %w", err)
	}
	if c == nil {
		return nil, domain.ErrNotBlocked
	}
	return c, nil
}

// Block adds number to the blocklist. An empty name defaults to DefaultName.
// Returns ErrAlreadyBlocked when the normalized number is already present.
func (s *BlocklistService) Block(ctx context.Context, number, name string) (*domain.BlockedContact, error) {
	jid, err := s.Normalize(number)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = domain.DefaultName
	}
	c := &domain.BlockedContact{JID: jid, Name: name, CreatedAt: s.nowF()}
	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("block contact: %w", err)
	}
	if !created {
		return nil, domain.ErrAlreadyBlocked
	}
	s.audit(ctx, audit.ActionContactBlocked, jid, name)
	return c, nil
}

// Unblock removes number from the blocklist. Returns ErrNotBlocked when absent.
func (s *BlocklistService) Unblock(ctx context.Context, number string) error {
	jid, err := s.Normalize(number)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, jid)
	if err != nil {
		return fmt.Errorf("unblock contact: %w", err)
	}
	if !deleted {
		return domain.ErrNotBlocked
	}
	s.audit(ctx, audit.ActionContactUnblocked, jid, "")
	return nil
}

// IsBlocked reports whether the sender is on the blocklist. sender may carry a device tag.
func (s *BlocklistService) IsBlocked(ctx context.Context, sender string) (bool, error) {
	jid, err := s.Normalize(sender)
	if err != nil {
		return false, err
	}
	c, err := s.repo.Get(ctx, jid)
	if err != nil {
		return false, fmt.Errorf("check blocklist: %w", err)
	}
	return c != nil, nil
}

func (s *BlocklistService) audit(ctx context.Context, action, jid, name string) {
	if s.auditLogger == nil {
		return
	}
	meta, _ := json.Marshal(map[string]string{"jid": jid, "name": name})
	s.auditLogger.LogEvent(ctx, "", action, "contact", string(meta))
}

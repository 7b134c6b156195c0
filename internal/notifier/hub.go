// Package notifier pushes session status and pairing code changes to realtime subscribers.
package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Peixotim/sales-bot/internal/security"
)

// Event names pushed to subscribers.
const (
	EventPairingCode = "pairing-code"
	EventStatus      = "status"
)

const (
	defaultQueueSize = 16
	writeTimeout     = 10 * time.Second
)

// ErrUnauthorized is returned when a subscriber's token is invalid or names another tenant.
var ErrUnauthorized = errors.New("notifier: unauthorized")

// Message is one pushed event.
type Message struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Transport delivers messages to one client connection. Send is only called from the
// subscription's writer goroutine.
type Transport interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// Hub tracks subscriptions per tenant.
type Hub struct {
	validator security.AccessValidator
	logger    *slog.Logger
	queueSize int

	mu   sync.RWMutex
	subs map[string]map[string]*Subscription
}

// NewHub returns a hub that authenticates subscribers with validator.
func NewHub(validator security.AccessValidator, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		validator: validator,
		logger:    logger,
		queueSize: defaultQueueSize,
		subs:      make(map[string]map[string]*Subscription),
	}
}

// Subscribe verifies token and attaches t to tenantID. An empty tenantID subscribes to the
// token's own tenant. On failure t is closed and ErrUnauthorized returned.
func (h *Hub) Subscribe(tenantID, token string, t Transport) (*Subscription, error) {
	subject, err := h.validator.ValidateAccess(token)
	if err != nil || (tenantID != "" && subject != tenantID) {
		_ = t.Close()
		return nil, ErrUnauthorized
	}
	return h.Attach(subject, t), nil
}

// Attach registers t for a tenant that was already authenticated (e.g. by a gRPC interceptor).
func (h *Hub) Attach(tenantID string, t Transport) *Subscription {
	s := &Subscription{
		id:        uuid.NewString(),
		tenantID:  tenantID,
		transport: t,
		queue:     make(chan Message, h.queueSize),
		closing:   make(chan struct{}),
		done:      make(chan struct{}),
		hub:       h,
	}
	h.mu.Lock()
	if h.subs[tenantID] == nil {
		h.subs[tenantID] = make(map[string]*Subscription)
	}
	h.subs[tenantID][s.id] = s
	h.mu.Unlock()
	h.logger.Debug("notifier: subscribed", "tenant_id", tenantID, "subscription", s.id)
	go s.writeLoop()
	return s
}

// Publish queues the event for every subscriber of tenantID without blocking. Subscribers
// whose queue is full miss the event.
func (h *Hub) Publish(tenantID, event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("notifier: payload not encodable", "tenant_id", tenantID, "event", event, "error", err)
		return
	}
	msg := Message{Event: event, Payload: raw}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.subs[tenantID] {
		select {
		case s.queue <- msg:
		default:
			h.logger.Debug("notifier: subscriber queue full, dropping", "tenant_id", tenantID, "subscription", s.id, "event", event)
		}
	}
}

// Count returns the number of live subscriptions of tenantID.
func (h *Hub) Count(tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[tenantID])
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.RLock()
	var all []*Subscription
	for _, m := range h.subs {
		for _, s := range m {
			all = append(all, s)
		}
	}
	h.mu.RUnlock()
	for _, s := range all {
		s.Close()
	}
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.subs[s.tenantID]; m != nil {
		delete(m, s.id)
		if len(m) == 0 {
			delete(h.subs, s.tenantID)
		}
	}
}

// Subscription is one attached transport.
type Subscription struct {
	id        string
	tenantID  string
	transport Transport
	queue     chan Message
	closeOnce sync.Once
	closing   chan struct{}
	done      chan struct{}
	hub       *Hub
}

// ID returns the subscription id.
func (s *Subscription) ID() string { return s.id }

// TenantID returns the tenant the subscription belongs to.
func (s *Subscription) TenantID() string { return s.tenantID }

// Done is closed once the subscription has ended and its transport is closed.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Close ends the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() { close(s.closing) })
}

func (s *Subscription) writeLoop() {
	defer close(s.done)
	defer func() { _ = s.transport.Close() }()
	defer s.hub.remove(s)
	for {
		select {
		case <-s.closing:
			return
		case msg := <-s.queue:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := s.transport.Send(ctx, msg)
			cancel()
			if err != nil {
				s.hub.logger.Debug("notifier: send failed, dropping subscriber", "tenant_id", s.tenantID, "subscription", s.id, "error", err)
				return
			}
		}
	}
}

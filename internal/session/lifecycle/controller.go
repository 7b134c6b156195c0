// Package lifecycle opens, watches, reconnects and tears down each tenant's connection to the
// messaging network.
package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Peixotim/sales-bot/internal/audit"
	"github.com/Peixotim/sales-bot/internal/ingest"
	"github.com/Peixotim/sales-bot/internal/notifier"
	"github.com/Peixotim/sales-bot/internal/protocol"
	"github.com/Peixotim/sales-bot/internal/session/domain"
	"github.com/Peixotim/sales-bot/internal/session/registry"
	"github.com/Peixotim/sales-bot/internal/telemetry"
)

const (
	source = "lifecycle"

	defaultReconnectDelay = 3 * time.Second
	defaultStoreTimeout   = 10 * time.Second
	defaultConnectTimeout = 30 * time.Second
	restoreParallel       = 8
	eventBuffer           = 64
)

// Pairing responses.
const (
	StatusInitializing = "INITIALIZING"

	MessageInitializing = "Iniciando bot, tente novamente em 3 segundos..."
	MessageCodeReady    = "QR Code pronto"
	MessageAwaitingCode = "Aguardando geração do QR Code..."
	MessageLoggedOut    = "Sessão encerrada e credenciais removidas."

	resourceSession = "session"
)

var (
	// ErrInvalidTenant is returned when the tenant id is empty.
	ErrInvalidTenant = errors.New("lifecycle: tenant id is required")
	// ErrShutdown is returned by Connect after Shutdown.
	ErrShutdown = errors.New("lifecycle: controller is shut down")
)

// Store is the credential storage the controller needs.
type Store interface {
	Load(ctx context.Context, tenantID string) (*protocol.Credentials, error)
	SaveCreds(ctx context.Context, tenantID string, identity []byte) error
	Clear(ctx context.Context, tenantID string) error
	Tenants(ctx context.Context) ([]string, error)
}

// Notifier receives status and pairing code changes.
type Notifier interface {
	Publish(tenantID, event string, payload any)
}

// MessageSink receives inbound messages of current connections.
type MessageSink interface {
	Enqueue(ctx context.Context, tenantID string, conn ingest.Conn, msg *protocol.Message)
}

// Timer is a pending reconnect.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc is the default.
type AfterFunc func(d time.Duration, f func()) Timer

// Config holds timings. Zero values take the defaults (3s, 10s, 30s).
type Config struct {
	ReconnectDelay time.Duration
	StoreTimeout   time.Duration
	ConnectTimeout time.Duration
}

// Deps are the collaborators of a Controller. Notifier, Messages, Audit, Emitter and AfterFunc
// may be nil.
type Deps struct {
	Registry  *registry.Registry
	Store     Store
	Factory   protocol.Factory
	Notifier  Notifier
	Messages  MessageSink
	Audit     audit.AuditLogger
	Emitter   telemetry.EventEmitter
	AfterFunc AfterFunc
}

// PairingState answers a pairing code request.
type PairingState struct {
	Status  string
	Code    string
	Message string
}

// Controller drives one connection per tenant. Each connection's events are handled in order
// on a goroutine of its own; events of a superseded connection are ignored.
type Controller struct {
	deps   Deps
	cfg    Config
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	tenantLocks map[string]*sync.Mutex
	pending     map[string]*reconnect
	closed      bool
}

type reconnect struct {
	timer Timer
}

// New returns a Controller.
func New(deps Deps, cfg Config, logger *slog.Logger) *Controller {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = defaultStoreTimeout
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if deps.AfterFunc == nil {
		deps.AfterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		deps:        deps,
		cfg:         cfg,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		tenantLocks: make(map[string]*sync.Mutex),
		pending:     make(map[string]*reconnect),
	}
}

func (c *Controller) tenantLock(tenantID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.tenantLocks[tenantID]
	if !ok {
		l = &sync.Mutex{}
		c.tenantLocks[tenantID] = l
	}
	return l
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Connect opens a new connection for the tenant, closing any live one first. Failures to load
// credentials or open the connection leave the tenant DISCONNECTED with a reconnect scheduled.
func (c *Controller) Connect(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return ErrInvalidTenant
	}
	if c.isClosed() {
		return ErrShutdown
	}
	l := c.tenantLock(tenantID)
	l.Lock()
	defer l.Unlock()
	return c.connect(ctx, tenantID)
}

// connect runs with the tenant lock held.
func (c *Controller) connect(ctx context.Context, tenantID string) error {
	ctx = context.WithoutCancel(ctx)
	log := c.logger.With("tenant_id", tenantID)

	c.cancelReconnect(tenantID)
	if s, ok := c.deps.Registry.Get(tenantID); ok && s.Handle != nil {
		if c.transition(tenantID, 0, domain.StatusDisconnected, nil) {
			c.publishStatus(tenantID, domain.StatusDisconnected)
		}
		s.Handle.Close()
	}
	if !c.transition(tenantID, 0, domain.StatusConnecting, nil) {
		return fmt.Errorf("lifecycle: tenant %s cannot start connecting", tenantID)
	}
	c.publishStatus(tenantID, domain.StatusConnecting)

	loadCtx, cancel := context.WithTimeout(ctx, c.cfg.StoreTimeout)
	creds, err := c.deps.Store.Load(loadCtx, tenantID)
	cancel()
	if err != nil {
		return c.connectFailed(tenantID, 0, fmt.Errorf("load credentials: %w", err))
	}
	conn, err := c.deps.Factory.NewConn(tenantID, creds)
	if err != nil {
		return c.connectFailed(tenantID, 0, fmt.Errorf("new connection: %w", err))
	}

	cn := &connection{tenantID: tenantID, conn: conn, events: make(chan any, eventBuffer), done: make(chan struct{})}
	gen, prev := c.deps.Registry.Upsert(tenantID, cn)
	if prev != nil {
		prev.Close()
	}
	cn.gen = gen
	conn.AddEventHandler(c.translate(cn))
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cn.Close()
		return ErrShutdown
	}
	c.wg.Add(1)
	c.mu.Unlock()
	go c.run(cn)

	connectCtx, cancelConnect := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancelConnect()
	if err := conn.Connect(connectCtx); err != nil {
		cn.Close()
		return c.connectFailed(tenantID, gen, fmt.Errorf("open connection: %w", err))
	}
	log.Info("lifecycle: connecting", "generation", gen, "fresh_credentials", creds.Fresh)
	return nil
}

func (c *Controller) connectFailed(tenantID string, gen uint64, err error) error {
	c.logger.Warn("lifecycle: connect failed", "tenant_id", tenantID, "error", err)
	if c.transition(tenantID, gen, domain.StatusDisconnected, nil) {
		c.publishStatus(tenantID, domain.StatusDisconnected)
	}
	c.scheduleReconnect(tenantID)
	return err
}

// transition moves the tenant to next when the status graph allows it. gen 0 applies to
// whatever session is current; otherwise the session must still carry generation gen.
// fn runs under the session lock after the status changed.
func (c *Controller) transition(tenantID string, gen uint64, next domain.Status, fn func(s *domain.TenantSession)) bool {
	var (
		prev    domain.Status
		applied bool
	)
	update := func(s *domain.TenantSession) {
		prev = s.Status
		if !prev.CanTransition(next) {
			return
		}
		s.Status = next
		if next != domain.StatusAwaitingPairing {
			s.PairingCode = ""
		}
		if fn != nil {
			fn(s)
		}
		applied = true
	}
	if gen == 0 {
		c.deps.Registry.Apply(tenantID, update)
	} else if !c.deps.Registry.Update(tenantID, gen, update) {
		return false
	}
	if !applied && prev != next {
		c.logger.Warn("lifecycle: refusing status transition", "tenant_id", tenantID, "from", prev, "to", next)
	}
	return applied
}

// Status returns the tenant's status and, when connected, the paired account id.
func (c *Controller) Status(tenantID string) (domain.Status, string) {
	s, ok := c.deps.Registry.Get(tenantID)
	if !ok {
		return domain.StatusDisconnected, ""
	}
	own := ""
	if s.Status == domain.StatusConnected && s.Handle != nil {
		own = s.Handle.OwnID()
	}
	return s.Status, own
}

// PairingCode returns the outstanding pairing code. A DISCONNECTED tenant is connected first
// and told to retry shortly.
func (c *Controller) PairingCode(ctx context.Context, tenantID string) (PairingState, error) {
	if tenantID == "" {
		return PairingState{}, ErrInvalidTenant
	}
	s, ok := c.deps.Registry.Get(tenantID)
	if !ok || s.Status == domain.StatusDisconnected {
		if err := c.Connect(ctx, tenantID); err != nil {
			if errors.Is(err, ErrShutdown) {
				return PairingState{}, err
			}
			c.logger.Warn("lifecycle: connect for pairing failed", "tenant_id", tenantID, "error", err)
		}
		return PairingState{Status: StatusInitializing, Message: MessageInitializing}, nil
	}
	st := PairingState{Status: s.Status.String(), Code: s.PairingCode, Message: MessageAwaitingCode}
	if s.PairingCode != "" {
		st.Message = MessageCodeReady
	}
	return st, nil
}

// Logout closes the tenant's connection and removes every stored credential, so the next
// connect must pair again.
func (c *Controller) Logout(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return ErrInvalidTenant
	}
	err := c.purge(ctx, tenantID, 0, audit.ActionSessionPurged, "manual")
	c.publishStatus(tenantID, domain.StatusDisconnected)
	c.emit(ctx, tenantID, telemetry.EventSessionLoggedOut, map[string]string{"reason": "manual"})
	return err
}

// purge removes the tenant from the registry and clears its credentials. With gen != 0 it is
// skipped when a newer connection has taken over meanwhile.
func (c *Controller) purge(ctx context.Context, tenantID string, gen uint64, action, reason string) error {
	l := c.tenantLock(tenantID)
	l.Lock()
	defer l.Unlock()
	if gen != 0 && c.deps.Registry.Generation(tenantID) != gen {
		c.logger.Info("lifecycle: purge skipped, connection superseded", "tenant_id", tenantID, "generation", gen)
		return nil
	}
	c.cancelReconnect(tenantID)
	if s, ok := c.deps.Registry.Remove(tenantID); ok && s.Handle != nil {
		s.Handle.Close()
	}
	clearCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.StoreTimeout)
	defer cancel()
	err := c.deps.Store.Clear(clearCtx, tenantID)
	if err != nil {
		c.logger.Error("lifecycle: clearing credentials failed", "tenant_id", tenantID, "error", err)
		err = fmt.Errorf("clear credentials: %w", err)
	}
	if c.deps.Audit != nil {
		meta, _ := json.Marshal(map[string]string{"reason": reason})
		c.deps.Audit.LogEvent(ctx, tenantID, action, resourceSession, string(meta))
	}
	return err
}

// Restore connects every tenant that has stored credentials.
func (c *Controller) Restore(ctx context.Context) error {
	listCtx, cancel := context.WithTimeout(ctx, c.cfg.StoreTimeout)
	tenants, err := c.deps.Store.Tenants(listCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}
	var g errgroup.Group
	g.SetLimit(restoreParallel)
	for _, id := range tenants {
		g.Go(func() error {
			if err := c.Connect(ctx, id); err != nil {
				c.logger.Warn("lifecycle: restore failed", "tenant_id", id, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	c.logger.Info("lifecycle: sessions restored", "count", len(tenants))
	return nil
}

// Shutdown stops pending reconnects, closes every connection and waits for the connection
// goroutines. Stored credentials are kept for the next Restore.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for id, r := range c.pending {
		r.timer.Stop()
		delete(c.pending, id)
	}
	c.mu.Unlock()

	for _, s := range c.deps.Registry.List() {
		if s.Handle != nil {
			s.Handle.Close()
		}
	}
	c.wg.Wait()
	c.cancel()
}

func (c *Controller) scheduleReconnect(tenantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if _, ok := c.pending[tenantID]; ok {
		return
	}
	r := &reconnect{}
	c.pending[tenantID] = r
	r.timer = c.deps.AfterFunc(c.cfg.ReconnectDelay, func() { c.fireReconnect(tenantID, r) })
	c.logger.Info("lifecycle: reconnect scheduled", "tenant_id", tenantID, "delay", c.cfg.ReconnectDelay)
	c.emit(c.ctx, tenantID, telemetry.EventReconnectScheduled, map[string]string{"delay": c.cfg.ReconnectDelay.String()})
}

// fireReconnect claims the pending slot under the tenant lock, so a purge or a manual connect
// that ran first leaves nothing to claim.
func (c *Controller) fireReconnect(tenantID string, r *reconnect) {
	l := c.tenantLock(tenantID)
	l.Lock()
	defer l.Unlock()
	if !c.claimReconnect(tenantID, r) {
		return
	}
	if err := c.connect(c.ctx, tenantID); err != nil {
		c.logger.Warn("lifecycle: reconnect failed", "tenant_id", tenantID, "error", err)
	}
}

func (c *Controller) claimReconnect(tenantID string, r *reconnect) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.pending[tenantID] != r {
		return false
	}
	delete(c.pending, tenantID)
	return true
}

func (c *Controller) cancelReconnect(tenantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.pending[tenantID]; ok {
		if r.timer != nil {
			r.timer.Stop()
		}
		delete(c.pending, tenantID)
	}
}

func (c *Controller) hasPendingReconnect(tenantID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[tenantID]
	return ok
}

func (c *Controller) publishStatus(tenantID string, status domain.Status) {
	if c.deps.Notifier != nil {
		c.deps.Notifier.Publish(tenantID, notifier.EventStatus, map[string]string{"status": status.String()})
	}
	c.emit(c.ctx, tenantID, telemetry.EventSessionStatus, map[string]string{"status": status.String()})
}

func (c *Controller) emit(ctx context.Context, tenantID, eventType string, meta any) {
	telemetry.EmitAsync(c.deps.Emitter, ctx, telemetry.NewEvent(tenantID, eventType, source, meta))
}

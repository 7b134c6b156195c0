// Package ws serves the realtime notification channel over WebSocket.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Peixotim/sales-bot/internal/notifier"
	"github.com/Peixotim/sales-bot/internal/server/interceptors"
)

// Config tunes keepalive and limits. Zero values use the defaults below.
type Config struct {
	PingInterval    time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxMessageBytes int64
	// CheckOrigin overrides the upgrader's origin check. Nil accepts every origin.
	CheckOrigin func(r *http.Request) bool
}

const (
	defaultPingInterval    = 20 * time.Second
	defaultReadTimeout     = 60 * time.Second
	defaultWriteTimeout    = 5 * time.Second
	defaultMaxMessageBytes = 4 << 10
)

func (c Config) withDefaults() Config {
	if c.PingInterval <= 0 {
		c.PingInterval = defaultPingInterval
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.MaxMessageBytes <= 0 {
		c.MaxMessageBytes = defaultMaxMessageBytes
	}
	if c.CheckOrigin == nil {
		c.CheckOrigin = func(*http.Request) bool { return true }
	}
	return c
}

// Handler upgrades GET requests and attaches the connection to the hub. The token comes from
// the Authorization header or the token query parameter; tenantId is optional and must match
// the token subject when present.
type Handler struct {
	hub      *notifier.Hub
	cfg      Config
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewHandler returns a Handler.
func NewHandler(hub *notifier.Hub, cfg Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Handler{
		hub:      hub,
		cfg:      cfg,
		logger:   logger,
		upgrader: websocket.Upgrader{CheckOrigin: cfg.CheckOrigin},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := interceptors.BearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	tenantID := r.URL.Query().Get("tenantId")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Debug("ws: upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(h.cfg.MaxMessageBytes)

	t := &transport{conn: conn, writeTimeout: h.cfg.WriteTimeout}
	t.closeCode.Store(websocket.ClosePolicyViolation)
	sub, err := h.hub.Subscribe(tenantID, token, t)
	if err != nil {
		h.logger.Info("ws: subscription rejected", "tenant_id", tenantID, "remote", r.RemoteAddr)
		return
	}
	t.closeCode.Store(websocket.CloseNormalClosure)
	h.logger.Debug("ws: client connected", "tenant_id", sub.TenantID(), "subscription", sub.ID())

	go h.keepalive(conn, sub)
	h.readLoop(conn)
	sub.Close()
	<-sub.Done()
	h.logger.Debug("ws: client disconnected", "tenant_id", sub.TenantID(), "subscription", sub.ID())
}

// readLoop discards client frames until the connection fails or goes quiet past ReadTimeout.
func (h *Handler) readLoop(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	}
}

func (h *Handler) keepalive(conn *websocket.Conn, sub *notifier.Subscription) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-sub.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(h.cfg.WriteTimeout)); err != nil {
				sub.Close()
				return
			}
		}
	}
}

// transport adapts a websocket.Conn to notifier.Transport. WriteControl may run concurrently
// with Send; data frames are only written from the subscription's writer goroutine.
type transport struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	closeCode    atomic.Int64
	closeOnce    sync.Once
}

func (t *transport) Send(ctx context.Context, msg notifier.Message) error {
	deadline := time.Now().Add(t.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return t.conn.WriteJSON(msg)
}

func (t *transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		code := int(t.closeCode.Load())
		text := ""
		if code == websocket.ClosePolicyViolation {
			text = "unauthorized"
		}
		_ = t.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(t.writeTimeout))
		err = t.conn.Close()
	})
	return err
}

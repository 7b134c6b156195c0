package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/Peixotim/sales-bot/internal/audit"
	"github.com/Peixotim/sales-bot/internal/notifier"
	"github.com/Peixotim/sales-bot/internal/protocol"
	"github.com/Peixotim/sales-bot/internal/session/domain"
	"github.com/Peixotim/sales-bot/internal/telemetry"
)

// Events crossing from the protocol library's goroutines to the connection goroutine.
type (
	pairingCodeEvent struct{ code string }
	establishedEvent struct{}
	closedEvent      struct {
		reason int
		err    error
	}
	credsEvent struct {
		identity []byte
		ack      chan struct{}
	}
	inboundEvent struct{ msg *protocol.Message }
)

// connection is the registry handle of one protocol connection.
type connection struct {
	tenantID string
	gen      uint64
	conn     protocol.Conn
	events   chan any
	done     chan struct{}
	once     sync.Once
}

func (cn *connection) OwnID() string { return cn.conn.OwnID() }

// Close stops event delivery and disconnects. Safe to call more than once.
func (cn *connection) Close() {
	cn.once.Do(func() {
		close(cn.done)
		cn.conn.Disconnect()
	})
}

func (cn *connection) deliver(e any) bool {
	select {
	case cn.events <- e:
		return true
	case <-cn.done:
		return false
	}
}

// translate returns the raw handler registered on the protocol connection.
func (c *Controller) translate(cn *connection) func(evt any) {
	return func(evt any) {
		switch e := evt.(type) {
		case *protocol.QRCode:
			cn.deliver(pairingCodeEvent{code: e.Code})
		case *protocol.Connected:
			cn.deliver(establishedEvent{})
		case *protocol.Closed:
			cn.deliver(closedEvent{reason: e.Reason, err: e.Err})
		case *protocol.CredsUpdated:
			// The identity is stored before the handler returns.
			ack := make(chan struct{})
			if !cn.deliver(credsEvent{identity: e.Identity, ack: ack}) {
				return
			}
			t := time.NewTimer(c.cfg.StoreTimeout)
			defer t.Stop()
			select {
			case <-ack:
			case <-cn.done:
			case <-t.C:
				c.logger.Warn("lifecycle: credentials save still pending", "tenant_id", cn.tenantID)
			}
		case *protocol.Message:
			cn.deliver(inboundEvent{msg: e})
		}
	}
}

func (c *Controller) run(cn *connection) {
	defer c.wg.Done()
	defer cn.Close()
	for {
		select {
		case <-cn.done:
			return
		case e := <-cn.events:
			if c.handle(cn, e) {
				return
			}
		}
	}
}

// handle processes one event and reports whether the connection is over.
func (c *Controller) handle(cn *connection, e any) bool {
	switch e := e.(type) {
	case pairingCodeEvent:
		c.onPairingCode(cn, e.code)
	case establishedEvent:
		c.onEstablished(cn)
	case closedEvent:
		c.onClosed(cn, e)
		return true
	case credsEvent:
		c.onCreds(cn, e)
	case inboundEvent:
		if c.deps.Messages != nil && c.deps.Registry.Generation(cn.tenantID) == cn.gen {
			c.deps.Messages.Enqueue(c.ctx, cn.tenantID, cn.conn, e.msg)
		}
	}
	return false
}

func (c *Controller) onPairingCode(cn *connection, code string) {
	ok := c.transition(cn.tenantID, cn.gen, domain.StatusAwaitingPairing, func(s *domain.TenantSession) {
		s.PairingCode = code
	})
	if !ok {
		return
	}
	c.logger.Info("lifecycle: pairing code ready", "tenant_id", cn.tenantID)
	if c.deps.Notifier != nil {
		c.deps.Notifier.Publish(cn.tenantID, notifier.EventPairingCode, map[string]string{"qrCode": code})
	}
	c.publishStatus(cn.tenantID, domain.StatusAwaitingPairing)
}

func (c *Controller) onEstablished(cn *connection) {
	if !c.transition(cn.tenantID, cn.gen, domain.StatusConnected, nil) {
		return
	}
	c.logger.Info("lifecycle: connected", "tenant_id", cn.tenantID, "own_id", cn.conn.OwnID())
	c.publishStatus(cn.tenantID, domain.StatusConnected)
}

func (c *Controller) onClosed(cn *connection, e closedEvent) {
	if !c.transition(cn.tenantID, cn.gen, domain.StatusDisconnected, nil) {
		return
	}
	c.publishStatus(cn.tenantID, domain.StatusDisconnected)
	log := c.logger.With("tenant_id", cn.tenantID, "reason", e.reason)
	if e.reason == protocol.ReasonLoggedOut {
		log.Warn("lifecycle: logged out by the network, purging credentials")
		_ = c.purge(c.ctx, cn.tenantID, cn.gen, audit.ActionSessionLoggedOut, "logged_out")
		c.emit(c.ctx, cn.tenantID, telemetry.EventSessionLoggedOut, map[string]any{"reason": e.reason})
		return
	}
	if e.err != nil {
		log = log.With("error", e.err)
	}
	log.Warn("lifecycle: connection lost, reconnecting")
	c.scheduleReconnect(cn.tenantID)
}

func (c *Controller) onCreds(cn *connection, e credsEvent) {
	defer close(e.ack)
	if c.deps.Registry.Generation(cn.tenantID) != cn.gen {
		return
	}
	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.StoreTimeout)
	defer cancel()
	if err := c.deps.Store.SaveCreds(ctx, cn.tenantID, e.identity); err != nil {
		c.logger.Error("lifecycle: saving credentials failed", "tenant_id", cn.tenantID, "error", err)
	}
}

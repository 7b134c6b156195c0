// Package ingest processes inbound chat messages: filtering, blocklist, audio staging,
// the conversation collaborator, paced replies.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	contactsdomain "github.com/Peixotim/sales-bot/internal/contacts/domain"
	"github.com/Peixotim/sales-bot/internal/ingest/media"
	"github.com/Peixotim/sales-bot/internal/policy/engine"
	"github.com/Peixotim/sales-bot/internal/protocol"
	"github.com/Peixotim/sales-bot/internal/telemetry"
)

// Apologies sent when the collaborator fails.
const (
	ApologyText  = "Tive um problema aqui agora, mas já estou verificando pra você 👀"
	ApologyAudio = "Tive dificuldade para ouvir seu áudio 😕 pode me escrever?"
)

const telemetrySource = "ingest"

// ConversationKey identifies one conversation: a tenant talking to one contact.
type ConversationKey struct {
	TenantID string
	// Contact is the user part of the sender JID (digits only, e.g. 551199999999).
	Contact string
}

// String renders the key as "<tenant>:<contact>".
func (k ConversationKey) String() string {
	return k.TenantID + ":" + k.Contact
}

// Collaborator produces the reply for a conversation. It owns the conversation history.
type Collaborator interface {
	ReplyText(ctx context.Context, key ConversationKey, text string) (string, error)
	ReplyAudio(ctx context.Context, key ConversationKey, file media.File) (string, error)
}

// Blocklist reports whether a sender is muted. sender is a JID without device tag.
type Blocklist interface {
	IsBlocked(ctx context.Context, sender string) (bool, error)
}

// Conn is the part of a protocol connection the pipeline uses.
type Conn interface {
	OwnID() string
	SendText(ctx context.Context, to, text string, quoted *protocol.MessageKey) error
	SendPresence(ctx context.Context, to string, presence protocol.Presence) error
	Download(ctx context.Context, msg *protocol.Message) ([]byte, error)
}

// Config tunes timeouts and pacing. Zero durations take the defaults.
type Config struct {
	ReplyTimeout  time.Duration
	MediaTimeout  time.Duration
	SendTimeout   time.Duration
	TypingEnabled bool
	Pacer         Pacer
}

// Deps are the pipeline collaborators. Policy and Emitter are optional.
type Deps struct {
	Blocklist    Blocklist
	Collaborator Collaborator
	Stager       *media.Stager
	Policy       engine.Evaluator
	Emitter      telemetry.EventEmitter
}

// Pipeline handles inbound messages. Messages from one sender of one tenant are processed in
// arrival order on that sender's lane; different senders and tenants run concurrently.
type Pipeline struct {
	deps   Deps
	cfg    Config
	logger *slog.Logger

	mu    sync.Mutex
	lanes map[string]*lane
	wg    sync.WaitGroup
}

type job struct {
	ctx      context.Context
	tenantID string
	conn     Conn
	msg      *protocol.Message
}

type lane struct {
	jobs []job
}

// New returns a pipeline.
func New(deps Deps, cfg Config, logger *slog.Logger) *Pipeline {
	if cfg.ReplyTimeout <= 0 {
		cfg.ReplyTimeout = 60 * time.Second
	}
	if cfg.MediaTimeout <= 0 {
		cfg.MediaTimeout = 30 * time.Second
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{deps: deps, cfg: cfg, logger: logger, lanes: make(map[string]*lane)}
}

// NormalizeSender strips the device tag from a JID ("5511...:12@s.whatsapp.net" -> "5511...@s.whatsapp.net").
func NormalizeSender(jid string) string {
	user, server, found := strings.Cut(strings.TrimSpace(jid), "@")
	if i := strings.IndexByte(user, ':'); i >= 0 {
		user = user[:i]
	}
	if !found {
		return user
	}
	return user + "@" + server
}

// Enqueue schedules msg on its sender's lane and returns immediately.
func (p *Pipeline) Enqueue(ctx context.Context, tenantID string, conn Conn, msg *protocol.Message) {
	if msg == nil {
		return
	}
	key := tenantID + "|" + NormalizeSender(msg.Key.RemoteJID)
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.lanes[key]
	if !ok {
		l = &lane{}
		p.lanes[key] = l
		p.wg.Add(1)
		go p.runLane(key, l)
	}
	l.jobs = append(l.jobs, job{ctx: ctx, tenantID: tenantID, conn: conn, msg: msg})
}

func (p *Pipeline) runLane(key string, l *lane) {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		if len(l.jobs) == 0 {
			delete(p.lanes, key)
			p.mu.Unlock()
			return
		}
		j := l.jobs[0]
		l.jobs = l.jobs[1:]
		p.mu.Unlock()
		p.OnInboundMessage(j.ctx, j.tenantID, j.conn, j.msg)
	}
}

// Wait blocks until every lane has drained.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// OnInboundMessage processes one message synchronously. Errors and panics are logged and
// never propagate to the caller.
func (p *Pipeline) OnInboundMessage(ctx context.Context, tenantID string, conn Conn, msg *protocol.Message) {
	if msg == nil {
		return
	}
	log := p.logger.With("tenant_id", tenantID, "message_id", msg.Key.ID)
	defer func() {
		if r := recover(); r != nil {
			log.Error("ingest: panic while processing message", "panic", r)
			p.emit(ctx, tenantID, telemetry.EventMessageFailed, map[string]string{"message_id": msg.Key.ID, "error": fmt.Sprint(r)})
		}
	}()
	if err := p.process(ctx, tenantID, conn, msg, log); err != nil {
		log.Error("ingest: message processing failed", "error", err)
		p.emit(ctx, tenantID, telemetry.EventMessageFailed, map[string]string{"message_id": msg.Key.ID, "error": err.Error()})
	}
}

func (p *Pipeline) process(ctx context.Context, tenantID string, conn Conn, msg *protocol.Message, log *slog.Logger) error {
	if msg.Key.FromMe || !msg.HasContent() {
		return nil
	}
	sender := NormalizeSender(msg.Key.RemoteJID)
	if sender == "" {
		return nil
	}
	if own := conn.OwnID(); own != "" && contactsdomain.UserPart(own) == contactsdomain.UserPart(sender) {
		return nil
	}
	kind := "text"
	if msg.Text == "" {
		kind = "audio"
	}
	if p.deps.Policy != nil {
		d := p.deps.Policy.EvaluateInbound(ctx, engine.InboundInput{TenantID: tenantID, Sender: sender, Kind: kind})
		if !d.Allow {
			log.Debug("ingest: dropped by inbound policy", "sender", sender, "reasons", d.Reasons)
			return nil
		}
	}
	blocked, err := p.deps.Blocklist.IsBlocked(ctx, sender)
	if errors.Is(err, contactsdomain.ErrInvalidNumber) {
		log.Debug("ingest: sender is not a phone number, dropping", "sender", sender)
		return nil
	}
	if err != nil {
		return fmt.Errorf("blocklist: %w", err)
	}
	if blocked {
		log.Info("ingest: sender is blocked, dropping", "sender", sender)
		p.emit(ctx, tenantID, telemetry.EventMessageBlocked, map[string]string{"sender": sender})
		return nil
	}

	key := ConversationKey{TenantID: tenantID, Contact: contactsdomain.UserPart(sender)}
	log = log.With("conversation", key.String(), "kind", kind)
	var reply string
	var quoted *protocol.MessageKey
	if kind == "text" {
		reply = p.replyText(ctx, conn, sender, key, msg.Text, log)
	} else {
		if reply, err = p.replyAudio(ctx, conn, sender, key, msg, log); err != nil {
			return err
		}
		quoted = &msg.Key
	}
	if err := p.send(ctx, conn, sender, reply, quoted, log); err != nil {
		return err
	}
	log.Info("ingest: reply sent")
	p.emit(ctx, tenantID, telemetry.EventMessageReplied, map[string]string{"contact": key.Contact, "kind": kind})
	return nil
}

func (p *Pipeline) replyText(ctx context.Context, conn Conn, to string, key ConversationKey, text string, log *slog.Logger) string {
	p.presence(ctx, conn, to, protocol.PresenceComposing, log)
	rctx, cancel := context.WithTimeout(ctx, p.cfg.ReplyTimeout)
	defer cancel()
	reply, err := p.deps.Collaborator.ReplyText(rctx, key, text)
	if err != nil || reply == "" {
		log.Error("ingest: collaborator failed", "error", err)
		return ApologyText
	}
	return reply
}

// replyAudio stages the audio for the collaborator and removes it before returning on every path.
func (p *Pipeline) replyAudio(ctx context.Context, conn Conn, to string, key ConversationKey, msg *protocol.Message, log *slog.Logger) (string, error) {
	dctx, cancel := context.WithTimeout(ctx, p.cfg.MediaTimeout)
	data, err := conn.Download(dctx, msg)
	cancel()
	if err != nil {
		return "", fmt.Errorf("download audio: %w", err)
	}
	staged, err := p.deps.Stager.Stage(key.TenantID, msg.Key.ID, msg.Audio.MimeType, data)
	if err != nil {
		return "", fmt.Errorf("stage audio: %w", err)
	}
	defer func() {
		if err := staged.Release(); err != nil {
			log.Error("ingest: failed to remove staged audio", "path", staged.Path, "error", err)
		}
	}()

	p.presence(ctx, conn, to, protocol.PresenceComposing, log)
	rctx, cancel := context.WithTimeout(ctx, p.cfg.ReplyTimeout)
	defer cancel()
	reply, err := p.deps.Collaborator.ReplyAudio(rctx, key, staged.File)
	if err != nil || reply == "" {
		log.Error("ingest: collaborator failed", "error", err)
		return ApologyAudio, nil
	}
	return reply, nil
}

// send paces the reply, then sends it. Pacing is skipped when typing is disabled.
func (p *Pipeline) send(ctx context.Context, conn Conn, to, reply string, quoted *protocol.MessageKey, log *slog.Logger) error {
	if p.cfg.TypingEnabled {
		if err := p.cfg.Pacer.Wait(ctx, reply); err != nil {
			return fmt.Errorf("pacing: %w", err)
		}
		p.presence(ctx, conn, to, protocol.PresencePaused, log)
	}
	sctx, cancel := context.WithTimeout(ctx, p.cfg.SendTimeout)
	defer cancel()
	if err := conn.SendText(sctx, to, reply, quoted); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

func (p *Pipeline) presence(ctx context.Context, conn Conn, to string, pr protocol.Presence, log *slog.Logger) {
	if !p.cfg.TypingEnabled {
		return
	}
	sctx, cancel := context.WithTimeout(ctx, p.cfg.SendTimeout)
	defer cancel()
	if err := conn.SendPresence(sctx, to, pr); err != nil {
		log.Debug("ingest: presence update failed", "presence", pr, "error", err)
	}
}

func (p *Pipeline) emit(ctx context.Context, tenantID, eventType string, meta any) {
	if p.deps.Emitter == nil {
		return
	}
	telemetry.EmitAsync(p.deps.Emitter, ctx, telemetry.NewEvent(tenantID, eventType, telemetrySource, meta))
}

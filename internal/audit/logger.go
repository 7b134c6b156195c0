package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Peixotim/sales-bot/internal/audit/domain"
	auditrepo "github.com/Peixotim/sales-bot/internal/audit/repository"
)

// SentinelTenantID is the tenant_id used for events that belong to no tenant (e.g. blocklist changes).
const SentinelTenantID = "_system"

// ActorSystem is recorded when the event was caused by the service itself.
const ActorSystem = "system"

// Audited actions.
const (
	ActionContactBlocked   = "contact_blocked"
	ActionContactUnblocked = "contact_unblocked"
	ActionSessionLoggedOut = "session_logged_out"
	ActionSessionPurged    = "session_purged"
)

// IPExtractor returns the client IP from the request context (e.g. gRPC metadata or peer).
type IPExtractor func(context.Context) string

// ActorExtractor returns the authenticated subject from the request context, or "".
type ActorExtractor func(context.Context) string

// AuditLogger writes a single audit event. LogEvent is best-effort: failures are logged and
// do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, tenantID, action, resource, metadata string)
}

// Logger implements AuditLogger using the audit repository.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
	actorF      ActorExtractor
	log         *slog.Logger
}

// NewLogger returns an AuditLogger that persists to repo. ipExtractor and actorF may be nil;
// then IP is recorded as "unknown" and the actor as "system".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor, actorF ActorExtractor, log *slog.Logger) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{repo: repo, ipExtractor: ipExtractor, actorF: actorF, log: log}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, tenantID, action, resource, metadata string) {
	if l == nil || l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		ip = l.ipExtractor(ctx)
	}
	actor := ""
	if l.actorF != nil {
		actor = l.actorF(ctx)
	}
	if actor == "" {
		actor = ActorSystem
	}
	if tenantID == "" {
		tenantID = SentinelTenantID
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Actor:     actor,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		l.log.Warn("audit: failed to log event", "action", action, "resource", resource, "error", err)
	}
}

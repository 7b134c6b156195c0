// Package conversation produces replies with Gemini and keeps the text history of each
// conversation between a tenant and a contact.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Peixotim/sales-bot/internal/conversation/domain"
	"github.com/Peixotim/sales-bot/internal/conversation/repository"
	"github.com/Peixotim/sales-bot/internal/ingest"
	"github.com/Peixotim/sales-bot/internal/ingest/media"
)

const (
	// DefaultRetention is how long an idle conversation keeps its history.
	DefaultRetention = 7 * 24 * time.Hour
	// AudioMarker is the text part sent alongside audio and stored in its place.
	AudioMarker = "(Áudio do usuário)"
	// AudioMimeType is the MIME type audio is sent with.
	AudioMimeType = "audio/ogg"
)

var (
	// ErrEmptyReply is returned when the model produced no text.
	ErrEmptyReply = errors.New("conversation: empty reply")
	// ErrNoGenerator is returned by the reply methods when no model is configured.
	ErrNoGenerator = errors.New("conversation: no model configured")
	// ErrInvalidKey is returned when the tenant or contact is missing.
	ErrInvalidKey = errors.New("conversation: tenant and contact are required")
)

// Config holds assistant settings.
type Config struct {
	SystemPrompt string
	// Retention <= 0 means DefaultRetention.
	Retention time.Duration
}

// Assistant implements ingest.Collaborator on top of a Generator and stores the history.
type Assistant struct {
	gen    Generator
	repo   repository.Repository
	cfg    Config
	logger *slog.Logger
	nowF   func() time.Time
}

var _ ingest.Collaborator = (*Assistant)(nil)

// NewAssistant returns an Assistant. An empty SystemPrompt means DefaultSystemPrompt. gen may
// be nil, in which case only the history reads work.
func NewAssistant(gen Generator, repo repository.Repository, cfg Config, logger *slog.Logger) *Assistant {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{gen: gen, repo: repo, cfg: cfg, logger: logger, nowF: time.Now}
}

// ReplyText answers a text message.
func (a *Assistant) ReplyText(ctx context.Context, key ingest.ConversationKey, text string) (string, error) {
	return a.reply(ctx, key, []Part{{Text: text}}, text, false)
}

// ReplyAudio answers a voice note. The audio is sent inline; the history keeps only the marker.
func (a *Assistant) ReplyAudio(ctx context.Context, key ingest.ConversationKey, file media.File) (string, error) {
	if a.gen == nil {
		return "", ErrNoGenerator
	}
	data, err := file.ReadAll()
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	parts := []Part{{Data: data, MimeType: AudioMimeType}, {Text: AudioMarker}}
	return a.reply(ctx, key, parts, AudioMarker, true)
}

func (a *Assistant) reply(ctx context.Context, key ingest.ConversationKey, input []Part, userText string, audio bool) (string, error) {
	if key.TenantID == "" || key.Contact == "" {
		return "", ErrInvalidKey
	}
	if a.gen == nil {
		return "", ErrNoGenerator
	}
	chatID := key.String()
	turns, err := a.history(ctx, chatID)
	if err != nil {
		return "", err
	}
	out, err := a.gen.Generate(ctx, Request{
		SystemPrompt: renderPrompt(a.cfg.SystemPrompt, audio),
		History:      turns,
		Input:        input,
	})
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", ErrEmptyReply
	}
	turns = append(turns,
		domain.Turn{Role: domain.RoleUser, Text: userText},
		domain.Turn{Role: domain.RoleModel, Text: out},
	)
	// The reply is still delivered when the history cannot be stored.
	err = a.repo.Save(ctx, &domain.Chat{
		ChatID:    chatID,
		TenantID:  key.TenantID,
		Contact:   key.Contact,
		Turns:     turns,
		UpdatedAt: a.nowF().UTC(),
	})
	if err != nil {
		a.logger.Error("conversation: saving history failed", "chat_id", chatID, "error", err)
	}
	return out, nil
}

// history returns the stored turns, dropping and deleting history past retention.
func (a *Assistant) history(ctx context.Context, chatID string) ([]domain.Turn, error) {
	c, err := a.repo.Get(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if c == nil {
		return nil, nil
	}
	if a.nowF().Sub(c.UpdatedAt) > a.cfg.Retention {
		if err := a.repo.Delete(ctx, chatID); err != nil {
			a.logger.Warn("conversation: deleting expired history failed", "chat_id", chatID, "error", err)
		}
		return nil, nil
	}
	return textTurns(c.Turns), nil
}

func textTurns(in []domain.Turn) []domain.Turn {
	out := make([]domain.Turn, 0, len(in))
	for _, t := range in {
		if t.Text != "" {
			out = append(out, t)
		}
	}
	return out
}

// ListChats returns the tenant's conversations, most recent first.
func (a *Assistant) ListChats(ctx context.Context, tenantID string) ([]*domain.Chat, error) {
	if tenantID == "" {
		return nil, ErrInvalidKey
	}
	chats, err := a.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return chats, nil
}

// History returns the stored conversation for key. A missing or expired conversation
// yields an empty chat, not an error.
func (a *Assistant) History(ctx context.Context, key ingest.ConversationKey) (*domain.Chat, error) {
	if key.TenantID == "" || key.Contact == "" {
		return nil, ErrInvalidKey
	}
	chatID := key.String()
	turns, err := a.history(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return &domain.Chat{ChatID: chatID, TenantID: key.TenantID, Contact: key.Contact, Turns: turns}, nil
}

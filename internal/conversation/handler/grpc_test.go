package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	conversationv1 "github.com/Peixotim/sales-bot/api/conversation/v1"
	"github.com/Peixotim/sales-bot/internal/conversation/domain"
	"github.com/Peixotim/sales-bot/internal/ingest"
	"github.com/Peixotim/sales-bot/internal/server/interceptors"
)

type mockHistory struct {
	chats  []*domain.Chat
	err    error
	gotKey ingest.ConversationKey
	gotTID string
}

func (m *mockHistory) ListChats(ctx context.Context, tenantID string) ([]*domain.Chat, error) {
	m.gotTID = tenantID
	return m.chats, m.err
}

func (m *mockHistory) History(ctx context.Context, key ingest.ConversationKey) (*domain.Chat, error) {
	m.gotKey = key
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Chat{ChatID: key.String(), Turns: []domain.Turn{
		{Role: domain.RoleUser, Text: "oi"},
		{Role: domain.RoleModel, Text: "olá"},
	}}, nil
}

func newTestServer(h History) *Server {
	return NewServer(h, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestListChats(t *testing.T) {
	now := time.Now().UTC()
	m := &mockHistory{chats: []*domain.Chat{{ChatID: "T1:5511", Contact: "5511", UpdatedAt: now}}}
	srv := newTestServer(m)

	if _, err := srv.ListChats(context.Background(), &conversationv1.ListChatsRequest{}); status.Code(err) != codes.Unauthenticated {
		t.Errorf("no tenant code = %v, want Unauthenticated", status.Code(err))
	}

	ctx := interceptors.WithTenant(context.Background(), "T1")
	resp, err := srv.ListChats(ctx, &conversationv1.ListChatsRequest{})
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if m.gotTID != "T1" {
		t.Errorf("tenant = %q", m.gotTID)
	}
	if len(resp.Chats) != 1 || resp.Chats[0].ChatID != "T1:5511" || !resp.Chats[0].UpdatedAt.Equal(now) {
		t.Errorf("chats = %+v", resp.Chats)
	}

	m.err = errors.New("db down")
	if _, err := srv.ListChats(ctx, &conversationv1.ListChatsRequest{}); status.Code(err) != codes.Internal {
		t.Errorf("code = %v, want Internal", status.Code(err))
	}
}

func TestGetHistory(t *testing.T) {
	tests := []struct {
		name    string
		contact string
		want    string
		code    codes.Code
	}{
		{"digits", "551199999999", "551199999999", codes.OK},
		{"jid with device", "551199999999:3@s.whatsapp.net", "551199999999", codes.OK},
		{"formatted", "+55 (11) 9999-9999", "551199999999", codes.OK},
		{"empty", "", "", codes.InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockHistory{}
			srv := newTestServer(m)
			ctx := interceptors.WithTenant(context.Background(), "T1")
			resp, err := srv.GetHistory(ctx, &conversationv1.GetHistoryRequest{Contact: tt.contact})
			if status.Code(err) != tt.code {
				t.Fatalf("code = %v, want %v", status.Code(err), tt.code)
			}
			if tt.code != codes.OK {
				return
			}
			if m.gotKey.TenantID != "T1" || m.gotKey.Contact != tt.want {
				t.Errorf("key = %+v", m.gotKey)
			}
			if resp.ChatID != "T1:"+tt.want || len(resp.Turns) != 2 || resp.Turns[1].Role != domain.RoleModel {
				t.Errorf("resp = %+v", resp)
			}
		})
	}
}

func TestNilHistory(t *testing.T) {
	srv := newTestServer(nil)
	ctx := interceptors.WithTenant(context.Background(), "T1")
	if _, err := srv.ListChats(ctx, &conversationv1.ListChatsRequest{}); status.Code(err) != codes.Unimplemented {
		t.Errorf("ListChats code = %v", status.Code(err))
	}
	if _, err := srv.GetHistory(ctx, &conversationv1.GetHistoryRequest{Contact: "1"}); status.Code(err) != codes.Unimplemented {
		t.Errorf("GetHistory code = %v", status.Code(err))
	}
}

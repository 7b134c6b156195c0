package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type fakeValidator map[string]string

func (f fakeValidator) ValidateAccess(token string) (string, error) {
	if t, ok := f[token]; ok {
		return t, nil
	}
	return "", errors.New("invalid")
}

type chanTransport struct {
	msgs    chan Message
	mu      sync.Mutex
	closed  bool
	sendErr error
	block   chan struct{}
}

func newChanTransport() *chanTransport { return &chanTransport{msgs: make(chan Message, 64)} }

func (c *chanTransport) Send(ctx context.Context, m Message) error {
	if c.block != nil {
		<-c.block
	}
	if c.sendErr != nil {
		return c.sendErr
	}
	c.msgs <- m
	return nil
}

func (c *chanTransport) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *chanTransport) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func newHub() *Hub {
	return NewHub(fakeValidator{"tok-t1": "T1", "tok-t2": "T2"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func recv(t *testing.T, c *chanTransport) Message {
	t.Helper()
	select {
	case m := <-c.msgs:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
		return Message{}
	}
}

func TestHub_SubscribeRejects(t *testing.T) {
	h := newHub()
	tests := []struct {
		name, tenant, token string
	}{
		{"invalid token", "T1", "bogus"},
		{"other tenant", "T1", "tok-t2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newChanTransport()
			if _, err := h.Subscribe(tt.tenant, tt.token, tr); !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("err = %v, want ErrUnauthorized", err)
			}
			if !tr.isClosed() {
				t.Error("rejected transport should be closed")
			}
		})
	}
	if h.Count("T1") != 0 {
		t.Error("no subscription should be registered")
	}
}

func TestHub_PublishToTenantOnly(t *testing.T) {
	h := newHub()
	t1, t2 := newChanTransport(), newChanTransport()
	s1, err := h.Subscribe("T1", "tok-t1", t1)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer s1.Close()
	s2, err := h.Subscribe("", "tok-t2", t2)
	if err != nil {
		t.Fatalf("Subscribe own tenant: %v", err)
	}
	defer s2.Close()
	if s2.TenantID() != "T2" {
		t.Errorf("TenantID = %q", s2.TenantID())
	}

	h.Publish("T1", EventPairingCode, map[string]string{"qrCode": "ABC123"})
	h.Publish("T1", EventStatus, map[string]string{"status": "QR_CODE_READY"})

	m := recv(t, t1)
	if m.Event != EventPairingCode {
		t.Errorf("first event = %q", m.Event)
	}
	var payload map[string]string
	_ = json.Unmarshal(m.Payload, &payload)
	if payload["qrCode"] != "ABC123" {
		t.Errorf("payload = %s", m.Payload)
	}
	if m := recv(t, t1); m.Event != EventStatus {
		t.Errorf("second event = %q", m.Event)
	}
	select {
	case m := <-t2.msgs:
		t.Errorf("T2 received %+v", m)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_PublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	h := newHub()
	tr := newChanTransport()
	tr.block = make(chan struct{})
	s, _ := h.Subscribe("T1", "tok-t1", tr)

	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultQueueSize*4; i++ {
			h.Publish("T1", EventStatus, i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
	close(tr.block)
	s.Close()
	<-s.Done()
}

func TestHub_SendFailureRemovesSubscriber(t *testing.T) {
	h := newHub()
	tr := newChanTransport()
	tr.sendErr = errors.New("broken pipe")
	s, _ := h.Subscribe("T1", "tok-t1", tr)
	h.Publish("T1", EventStatus, "x")
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription should end after a send failure")
	}
	if h.Count("T1") != 0 || !tr.isClosed() {
		t.Errorf("count = %d closed = %v", h.Count("T1"), tr.isClosed())
	}
}

func TestHub_Close(t *testing.T) {
	h := newHub()
	tr := newChanTransport()
	s := h.Attach("T1", tr)
	h.Close()
	<-s.Done()
	if !tr.isClosed() || h.Count("T1") != 0 {
		t.Error("Close should end all subscriptions")
	}
	s.Close()
}

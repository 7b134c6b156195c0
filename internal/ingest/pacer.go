package ingest

import (
	"context"
	"time"
	"unicode/utf8"
)

// Pacer holds a reply for a delay proportional to its length so automated replies feel typed.
type Pacer struct {
	PerChar time.Duration
	Max     time.Duration
}

// DefaultPacer waits 50ms per character, at most 5s.
var DefaultPacer = Pacer{PerChar: 50 * time.Millisecond, Max: 5 * time.Second}

// Delay returns min(len(reply)*PerChar, Max), counting characters rather than bytes.
func (p Pacer) Delay(reply string) time.Duration {
	d := time.Duration(utf8.RuneCountInString(reply)) * p.PerChar
	if p.Max > 0 && d > p.Max {
		return p.Max
	}
	return d
}

// Wait blocks for Delay(reply) or until ctx is done, whichever comes first.
func (p Pacer) Wait(ctx context.Context, reply string) error {
	d := p.Delay(reply)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

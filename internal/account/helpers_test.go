package account

import (
	"context"
	"errors"
	"sync"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// sequenceCodes hands out codes in order and repeats the last one.
type sequenceCodes struct {
	mu    sync.Mutex
	codes []string
	next  int
}

func newSequenceCodes(codes ...string) *sequenceCodes {
	return &sequenceCodes{codes: codes}
}

func (g *sequenceCodes) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.codes) == 0 {
		return "", errors.New("no codes configured")
	}
	idx := g.next
	if idx >= len(g.codes) {
		idx = len(g.codes) - 1
	}
	g.next++
	return g.codes[idx], nil
}

type delivery struct {
	Email string
	Code  string
}

type recordingNotifier struct {
	mu         sync.Mutex
	deliveries []delivery
	err        error
}

func (n *recordingNotifier) DeliverVerificationCode(_ context.Context, email, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deliveries = append(n.deliveries, delivery{Email: email, Code: code})
	return n.err
}

func (n *recordingNotifier) Deliveries() []delivery {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]delivery, len(n.deliveries))
	copy(out, n.deliveries)
	return out
}

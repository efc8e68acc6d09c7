// Package tapper turns a stream of tap timestamps into a tempo estimate.
package tapper

import (
	"sync"
	"time"
)

const (
	DefaultWindow   = 8
	DefaultResetGap = 2 * time.Second
)

type Option func(*Tapper)

// WithWindow sets how many trailing taps feed the estimate.
func WithWindow(n int) Option {
	return func(t *Tapper) {
		if n >= 2 {
			t.window = n
		}
	}
}

// WithResetGap sets the silence after which a tap starts a new session.
func WithResetGap(d time.Duration) Option {
	return func(t *Tapper) {
		if d > 0 {
			t.resetGap = d
		}
	}
}

type Tapper struct {
	mu       sync.Mutex
	taps     []time.Time
	window   int
	resetGap time.Duration
}

func New(opts ...Option) *Tapper {
	t := &Tapper{window: DefaultWindow, resetGap: DefaultResetGap}
	for _, opt := range opts {
		opt(t)
	}
	t.taps = make([]time.Time, 0, t.window)
	return t
}

// Tap records now and returns the estimate for the current session.
func (t *Tapper) Tap(now time.Time) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n := len(t.taps); n > 0 && now.Sub(t.taps[n-1]) > t.resetGap {
		t.taps = t.taps[:0]
	}
	if len(t.taps) == t.window {
		copy(t.taps, t.taps[1:])
		t.taps = t.taps[:t.window-1]
	}
	t.taps = append(t.taps, now)
	return t.estimate()
}

// BPM returns the current estimate. ok is false until the session holds two taps.
func (t *Tapper) BPM() (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.estimate()
}

// Taps returns the number of taps in the current session.
func (t *Tapper) Taps() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.taps)
}

func (t *Tapper) Reset() {
	t.mu.Lock()
	t.taps = t.taps[:0]
	t.mu.Unlock()
}

func (t *Tapper) estimate() (float64, bool) {
	n := len(t.taps)
	if n < 2 {
		return 0, false
	}
	var total time.Duration
	for i := 1; i < n; i++ {
		// out of order taps count as simultaneous
		if d := t.taps[i].Sub(t.taps[i-1]); d > 0 {
			total += d
		}
	}
	if total <= 0 {
		return 0, false
	}
	avgMs := float64(total) / float64(n-1) / float64(time.Millisecond)
	return 60000 / avgMs, true
}

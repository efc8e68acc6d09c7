// Package metronome is the entry point the UI shell drives: it owns the tempo,
// time signature and play flag, validates what the user supplies, and re-arms
// the beat scheduler whenever one of them changes.
package metronome

import (
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dimfu/metro/internal/beat"
	"github.com/dimfu/metro/internal/config"
	"github.com/dimfu/metro/internal/meter"
	"github.com/dimfu/metro/internal/tapper"
	"github.com/dimfu/metro/internal/transport"
)

// TempoRange accepts tempos strictly between Min and Max.
type TempoRange struct {
	Min, Max float64
}

func (r TempoRange) Valid(bpm float64) bool {
	return !math.IsNaN(bpm) && bpm > r.Min && bpm < r.Max
}

// Unlocker gates audible output on the platform's gesture requirement.
type Unlocker interface {
	Unlocked() bool
	HandleGesture(kind string)
}

type State struct {
	BPM            float64
	SignatureIndex int
	Playing        bool
}

func (s State) Signature() meter.TimeSignature { return meter.At(s.SignatureIndex) }

// Event is a scheduled beat as seen by the UI.
type Event struct {
	beat.Beat
	// Audible is false while output is still locked.
	Audible bool
}

type Option func(*Engine)

func WithRange(r TempoRange) Option { return func(e *Engine) { e.valid = r } }

func WithTapper(t *tapper.Tapper) Option { return func(e *Engine) { e.tapper = t } }

func WithUnlocker(u Unlocker) Option { return func(e *Engine) { e.unlock = u } }

func WithLogger(l logrus.FieldLogger) Option { return func(e *Engine) { e.log = l } }

// WithState sets the initial state. Playing is ignored; call SetPlaying.
func WithState(s State) Option {
	return func(e *Engine) {
		e.state.BPM = s.BPM
		e.state.SignatureIndex = meter.Normalize(s.SignatureIndex)
	}
}

type Engine struct {
	mu     sync.Mutex
	state  State
	valid  TempoRange
	tapper *tapper.Tapper
	unlock Unlocker
	sched  *beat.Scheduler
	log    logrus.FieldLogger

	eventMu sync.Mutex
	events  chan Event
}

func New(clock beat.Clock, downbeat, offbeat beat.SamplePlayer, opts ...Option) *Engine {
	e := &Engine{
		state: State{BPM: 120},
		valid: TempoRange{Min: config.MinTempo, Max: config.MaxTempo},
		log:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tapper == nil {
		e.tapper = tapper.New()
	}
	if !e.valid.Valid(e.state.BPM) {
		e.state.BPM = 120
	}
	e.log = e.log.WithField("component", "metronome")
	e.sched = beat.New(clock, e.gated(downbeat), e.gated(offbeat), e.publish, e.log)
	return e
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Handle exposes the live schedule registration.
func (e *Engine) Handle() transport.Handle { return e.sched.Handle() }

// SetBPM applies v when the validator accepts it. Rejected values leave the
// state untouched.
func (e *Engine) SetBPM(v float64) bool {
	if !e.valid.Valid(v) {
		e.log.WithField("bpm", v).Debug("tempo rejected")
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if v == e.state.BPM {
		return true
	}
	e.state.BPM = v
	e.rearm()
	return true
}

func (e *Engine) SetTimeSignatureIndex(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setSignature(meter.Normalize(index))
}

// NextTimeSignature cycles to the following table entry and returns its index.
func (e *Engine) NextTimeSignature() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setSignature(meter.Advance(e.state.SignatureIndex))
	return e.state.SignatureIndex
}

func (e *Engine) SetPlaying(playing bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if playing == e.state.Playing {
		return
	}
	e.state.Playing = playing
	e.sched.Apply(e.config())
	e.log.WithFields(logrus.Fields{
		"playing":   playing,
		"bpm":       e.state.BPM,
		"signature": e.state.Signature().String(),
	}).Info("playback")
}

func (e *Engine) Toggle() bool {
	playing := !e.State().Playing
	e.SetPlaying(playing)
	return playing
}

// TapTempo feeds now to the estimator and forwards the estimate to SetBPM.
// ok is false when there is no estimate yet or the estimate was rejected.
func (e *Engine) TapTempo(now time.Time) (bpm float64, ok bool) {
	bpm, ok = e.tapper.Tap(now)
	if !ok {
		return 0, false
	}
	return bpm, e.SetBPM(bpm)
}

// Gesture reports a user activation to the unlock coordinator.
func (e *Engine) Gesture(kind string) {
	if e.unlock != nil {
		e.unlock.HandleGesture(kind)
	}
}

func (e *Engine) Audible() bool {
	return e.unlock == nil || e.unlock.Unlocked()
}

// Watch returns a channel of scheduled beats. The channel is buffered and
// beats are dropped when it is full. Only the latest Watch channel receives.
func (e *Engine) Watch() <-chan Event {
	ch := make(chan Event, 16)
	e.eventMu.Lock()
	e.events = ch
	e.eventMu.Unlock()
	return ch
}

// Close stops playback and closes the Watch channel.
func (e *Engine) Close() {
	e.SetPlaying(false)
	e.sched.Stop()

	e.eventMu.Lock()
	defer e.eventMu.Unlock()
	if e.events != nil {
		close(e.events)
		e.events = nil
	}
}

func (e *Engine) setSignature(index int) {
	if index == e.state.SignatureIndex {
		return
	}
	e.state.SignatureIndex = index
	e.log.WithField("signature", e.state.Signature().String()).Debug("time signature")
	e.rearm()
}

// rearm restarts the schedule with the current state. Callers hold e.mu.
func (e *Engine) rearm() {
	if e.state.Playing {
		e.sched.Apply(e.config())
	}
}

func (e *Engine) config() beat.Config {
	return beat.Config{
		BPM:       e.state.BPM,
		Signature: e.state.Signature(),
		Playing:   e.state.Playing,
	}
}

// publish runs on the audio goroutine.
func (e *Engine) publish(b beat.Beat) {
	ev := Event{Beat: b, Audible: e.Audible()}
	e.eventMu.Lock()
	defer e.eventMu.Unlock()
	if e.events == nil {
		return
	}
	select {
	case e.events <- ev:
	default:
	}
}

func (e *Engine) gated(p beat.SamplePlayer) beat.SamplePlayer {
	return gatedPlayer{p: p, e: e}
}

type gatedPlayer struct {
	p beat.SamplePlayer
	e *Engine
}

func (g gatedPlayer) PlayAt(when transport.Time) {
	if g.e.Audible() {
		g.p.PlayAt(when)
	}
}

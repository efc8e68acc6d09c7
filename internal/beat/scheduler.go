// Package beat arms the recurring click on the audio clock and decides which
// clicks are downbeats.
package beat

import (
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dimfu/metro/internal/meter"
	"github.com/dimfu/metro/internal/transport"
)

// Clock is the part of the transport the scheduler drives.
type Clock interface {
	Set(bpm float64, sig meter.TimeSignature)
	Start()
	Stop()
	ScheduleRepeat(fn transport.Callback, interval float64) transport.Handle
	Clear(h transport.Handle)
	TicksAtTime(when transport.Time) float64
}

// SamplePlayer plays a sample at an exact timeline position.
type SamplePlayer interface {
	PlayAt(when transport.Time)
}

type Config struct {
	BPM       float64
	Signature meter.TimeSignature
	Playing   bool
}

// Beat describes one trigger as scheduled on the timeline.
type Beat struct {
	When      transport.Time
	Index     int64 // beat-unit notes since the transport started
	Accent    bool
	Signature meter.TimeSignature
}

type Scheduler struct {
	mu       sync.Mutex
	clock    Clock
	downbeat SamplePlayer
	offbeat  SamplePlayer
	onBeat   func(Beat)
	handle   transport.Handle
	log      logrus.FieldLogger
}

// New returns a stopped scheduler. onBeat runs on the audio goroutine and must
// not block; it may be nil.
func New(clock Clock, downbeat, offbeat SamplePlayer, onBeat func(Beat), log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		clock:    clock,
		downbeat: downbeat,
		offbeat:  offbeat,
		onBeat:   onBeat,
		log:      log.WithField("component", "beat"),
	}
}

// Apply halts the current schedule and, when cfg.Playing, arms a new one.
// The old handle is always cleared before the new one exists.
func (s *Scheduler) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.halt()
	s.clock.Set(cfg.BPM, cfg.Signature)
	if !cfg.Playing {
		return
	}

	interval := transport.NoteTicks(cfg.Signature.NoteValue)
	s.handle = s.clock.ScheduleRepeat(s.trigger(cfg.Signature, interval), interval)
	s.clock.Start()
	s.log.WithFields(logrus.Fields{
		"handle":    s.handle.String(),
		"bpm":       cfg.BPM,
		"signature": cfg.Signature.String(),
	}).Debug("armed")
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halt()
}

// Handle returns the live registration, or transport.NoHandle when stopped.
func (s *Scheduler) Handle() transport.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}

func (s *Scheduler) halt() {
	s.clock.Stop()
	if !s.handle.IsZero() {
		s.clock.Clear(s.handle)
		s.log.WithField("handle", s.handle.String()).Debug("cleared")
		s.handle = transport.NoHandle
	}
}

// trigger derives the beat index from the scheduled time of each firing, so
// a late or skipped callback can never shift the accent.
func (s *Scheduler) trigger(sig meter.TimeSignature, interval float64) transport.Callback {
	beats := int64(sig.Beats)
	return func(when transport.Time) {
		idx := int64(math.Round(s.clock.TicksAtTime(when) / interval))
		b := Beat{When: when, Index: idx, Accent: idx%beats == 0, Signature: sig}
		if b.Accent {
			s.downbeat.PlayAt(when)
		} else {
			s.offbeat.PlayAt(when)
		}
		if s.onBeat != nil {
			s.onBeat(b)
		}
	}
}

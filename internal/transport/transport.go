// Package transport is the audio clock the metronome schedules against.
//
// A Transport is a beep.Streamer: the speaker pulls frames from it on the
// audio goroutine, and every pull advances the timeline, fires the repeat
// callbacks that fall inside the pulled range, and mixes the voices those
// callbacks scheduled. Time is counted in sample frames, so a callback and the
// voice it schedules agree on the exact frame of a beat regardless of how late
// the speaker asked for the buffer.
package transport

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/google/uuid"

	"github.com/dimfu/metro/internal/meter"
)

// PPQ is the tick resolution of a quarter note.
const PPQ = 192

// Time is a position on the transport timeline in sample frames.
type Time int64

func (t Time) Duration(sr beep.SampleRate) time.Duration {
	return sr.D(int(t))
}

// Handle identifies one repeat registration.
type Handle uuid.UUID

var NoHandle Handle

func (h Handle) String() string { return uuid.UUID(h).String() }
func (h Handle) IsZero() bool   { return h == NoHandle }

// Callback receives the frame the event was scheduled for, not the frame the
// audio goroutine happened to be at.
type Callback func(when Time)

// NoteTicks returns the tick length of one 1/noteValue note.
func NoteTicks(noteValue int) float64 {
	return PPQ * 4 / float64(noteValue)
}

type repeat struct {
	fn       Callback
	interval float64
}

type dueEvent struct {
	fn   Callback
	when Time
}

type Transport struct {
	sr beep.SampleRate

	// dispatchMu is held for the whole of Stream and by every control
	// method, so a cleared handle can never fire after Clear returns.
	dispatchMu sync.Mutex

	mu       sync.Mutex
	bpm      float64
	sig      meter.TimeSignature
	running  bool
	pos      Time
	basePos  Time
	baseTick float64
	repeats  map[Handle]*repeat
	order    []Handle
	voices   []*voice
}

var _ beep.Streamer = (*Transport)(nil)

func New(sr beep.SampleRate) *Transport {
	return &Transport{
		sr:      sr,
		bpm:     120,
		sig:     meter.Signatures[0],
		repeats: map[Handle]*repeat{},
	}
}

func (t *Transport) SampleRate() beep.SampleRate { return t.sr }

// Set changes tempo and meter. Ticks stay continuous across a tempo change.
func (t *Transport) Set(bpm float64, sig meter.TimeSignature) {
	t.dispatchMu.Lock()
	defer t.dispatchMu.Unlock()
	t.mu.Lock()
	defer t.mu.Unlock()

	if bpm > 0 && !math.IsInf(bpm, 0) && bpm != t.bpm {
		t.baseTick = t.ticksAt(t.pos)
		t.basePos = t.pos
		t.bpm = bpm
	}
	if sig.Valid() {
		t.sig = sig
	}
}

func (t *Transport) BPM() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bpm
}

func (t *Transport) Start() {
	t.dispatchMu.Lock()
	defer t.dispatchMu.Unlock()
	t.mu.Lock()
	t.running = true
	t.mu.Unlock()
}

// Stop halts the clock, rewinds it to zero and drops every voice that has
// not finished playing.
func (t *Transport) Stop() {
	t.dispatchMu.Lock()
	defer t.dispatchMu.Unlock()
	t.mu.Lock()
	t.running = false
	t.pos, t.basePos, t.baseTick = 0, 0, 0
	t.voices = nil
	t.mu.Unlock()
}

func (t *Transport) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// ScheduleRepeat registers fn to fire every interval ticks starting at tick zero.
func (t *Transport) ScheduleRepeat(fn Callback, interval float64) Handle {
	t.dispatchMu.Lock()
	defer t.dispatchMu.Unlock()
	t.mu.Lock()
	defer t.mu.Unlock()

	h := Handle(uuid.New())
	t.repeats[h] = &repeat{fn: fn, interval: interval}
	t.order = append(t.order, h)
	return h
}

// Clear removes a registration. Clearing an unknown or zero handle is a no-op.
func (t *Transport) Clear(h Handle) {
	t.dispatchMu.Lock()
	defer t.dispatchMu.Unlock()
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.repeats[h]; !ok {
		return
	}
	delete(t.repeats, h)
	for i, o := range t.order {
		if o == h {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Active returns the number of live registrations.
func (t *Transport) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.repeats)
}

// Now returns the next frame to be rendered.
func (t *Transport) Now() Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pos
}

func (t *Transport) TicksAtTime(when Time) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticksAt(when)
}

// Position returns the 1-based bar and beat at when.
func (t *Transport) Position(when Time) (bar, beat int) {
	t.mu.Lock()
	ticks := t.ticksAt(when)
	sig := t.sig
	t.mu.Unlock()

	idx := int64(math.Floor(ticks/NoteTicks(sig.NoteValue) + 1e-9))
	if idx < 0 {
		idx = 0
	}
	beats := int64(sig.Beats)
	return int(idx/beats) + 1, int(idx%beats) + 1
}

func (t *Transport) Stream(samples [][2]float64) (int, bool) {
	t.dispatchMu.Lock()
	defer t.dispatchMu.Unlock()

	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		for i := range samples {
			samples[i] = [2]float64{}
		}
		return len(samples), true
	}
	from, to := t.pos, t.pos+Time(len(samples))
	due := t.collect(from, to)
	t.mu.Unlock()

	for _, ev := range due {
		ev.fn(ev.when)
	}

	t.mu.Lock()
	t.mix(samples, from)
	t.pos = to
	t.mu.Unlock()
	return len(samples), true
}

func (t *Transport) Err() error { return nil }

func (t *Transport) ticksAt(pos Time) float64 {
	return t.baseTick + float64(pos-t.basePos)*t.bpm*PPQ/(60*float64(t.sr))
}

// frameAt is the first frame at or after tick.
func (t *Transport) frameAt(tick float64) Time {
	frames := (tick - t.baseTick) * 60 * float64(t.sr) / (t.bpm * PPQ)
	return t.basePos + Time(math.Ceil(frames-1e-6))
}

// collect returns the occurrences that land in [from, to). Each occurrence is
// derived from its absolute tick, so contiguous ranges partition the
// timeline without a per-registration cursor.
func (t *Transport) collect(from, to Time) []dueEvent {
	if t.bpm <= 0 {
		return nil
	}
	var due []dueEvent
	for _, h := range t.order {
		r := t.repeats[h]
		if r.interval <= 0 {
			continue
		}
		k := int64(math.Ceil(t.ticksAt(from)/r.interval)) - 1
		if k < 0 {
			k = 0
		}
		for k > 0 && t.frameAt(float64(k-1)*r.interval) >= from {
			k--
		}
		for t.frameAt(float64(k)*r.interval) < from {
			k++
		}
		for {
			when := t.frameAt(float64(k) * r.interval)
			if when >= to {
				break
			}
			due = append(due, dueEvent{fn: r.fn, when: when})
			k++
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].when < due[j].when })
	return due
}

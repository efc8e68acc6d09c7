package beat

import (
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimfu/metro/internal/meter"
	"github.com/dimfu/metro/internal/transport"
)

const sr = beep.SampleRate(44100)

type recorder struct{ at []transport.Time }

func (r *recorder) PlayAt(when transport.Time) { r.at = append(r.at, when) }

type rig struct {
	tr    *transport.Transport
	down  *recorder
	off   *recorder
	beats []Beat
	s     *Scheduler
}

func newRig() *rig {
	r := &rig{tr: transport.New(sr), down: &recorder{}, off: &recorder{}}
	log, _ := test.NewNullLogger()
	r.s = New(r.tr, r.down, r.off, func(b Beat) { r.beats = append(r.beats, b) }, log)
	return r
}

func (r *rig) run(d time.Duration) {
	buf := make([][2]float64, 512)
	for n := sr.N(d); n > 0; n -= len(buf) {
		if n < len(buf) {
			buf = buf[:n]
		}
		r.tr.Stream(buf)
	}
}

func accents(beats []Beat) []bool {
	out := make([]bool, len(beats))
	for i, b := range beats {
		out[i] = b.Accent
	}
	return out
}

func TestScenario120In44(t *testing.T) {
	r := newRig()
	r.s.Apply(Config{BPM: 120, Signature: meter.Signatures[0], Playing: true})
	r.run(4*time.Second + time.Millisecond)

	require.Len(t, r.beats, 9)
	assert.Equal(t, []bool{true, false, false, false, true, false, false, false, true}, accents(r.beats))
	for i := 1; i < len(r.beats); i++ {
		gap := (r.beats[i].When - r.beats[i-1].When).Duration(sr)
		assert.Equal(t, 500*time.Millisecond, gap)
	}
	assert.Len(t, r.down.at, 3)
	assert.Len(t, r.off.at, 6)
	assert.Equal(t, r.beats[4].When, r.down.at[1])
}

func TestScenario90In34(t *testing.T) {
	r := newRig()
	r.s.Apply(Config{BPM: 90, Signature: meter.Signatures[1], Playing: true})
	r.run(6 * time.Second)

	require.Len(t, r.beats, 9)
	for i, b := range r.beats {
		assert.Equal(t, i%3 == 0, b.Accent, "beat %d", i)
		if i > 0 {
			gap := (b.When - r.beats[i-1].When).Duration(sr)
			assert.InDelta(t, 666.7, float64(gap)/float64(time.Millisecond), 0.1)
		}
	}
}

func TestAccentOncePerMeasureForEveryTableEntry(t *testing.T) {
	for idx, sig := range meter.Signatures {
		for _, bpm := range []float64{40, 97.5, 120, 233} {
			r := newRig()
			r.s.Apply(Config{BPM: bpm, Signature: sig, Playing: true})
			r.run(20 * time.Second)

			require.NotEmpty(t, r.beats)
			assert.True(t, r.beats[0].Accent, "first trigger of %s at %v", sig, bpm)
			for i, b := range r.beats {
				assert.Equal(t, int64(i), b.Index)
				assert.Equal(t, i%sig.Beats == 0, b.Accent, "sig %d beat %d", idx, i)
			}
		}
	}
}

func TestSubdivisionFollowsNoteValue(t *testing.T) {
	r := newRig()
	r.s.Apply(Config{BPM: 120, Signature: meter.TimeSignature{Beats: 6, NoteValue: 8}, Playing: true})
	r.run(time.Second)
	require.Len(t, r.beats, 4)
	assert.Equal(t, 250*time.Millisecond, (r.beats[1].When - r.beats[0].When).Duration(sr))
}

func TestRestartBeginsOnDownbeat(t *testing.T) {
	r := newRig()
	cfg := Config{BPM: 120, Signature: meter.Signatures[0], Playing: true}
	r.s.Apply(cfg)
	r.run(1200 * time.Millisecond)

	r.beats = nil
	cfg.BPM = 150
	r.s.Apply(cfg)
	r.run(10 * time.Millisecond)
	require.Len(t, r.beats, 1)
	assert.True(t, r.beats[0].Accent)
	assert.Equal(t, transport.Time(0), r.beats[0].When)
}

func TestReArmKeepsExactlyOneHandle(t *testing.T) {
	r := newRig()
	cfg := Config{BPM: 100, Signature: meter.Signatures[0], Playing: true}
	r.s.Apply(cfg)
	seen := map[transport.Handle]bool{r.s.Handle(): true}

	for bpm := 101.0; bpm < 120; bpm++ {
		cfg.BPM = bpm
		r.s.Apply(cfg)
		assert.Equal(t, 1, r.tr.Active())
		assert.False(t, seen[r.s.Handle()], "handles are not reused")
		seen[r.s.Handle()] = true
		r.run(30 * time.Millisecond)
	}
	cfg.Signature = meter.Signatures[3]
	r.s.Apply(cfg)
	assert.Equal(t, 1, r.tr.Active())
}

func TestPauseHalts(t *testing.T) {
	r := newRig()
	r.s.Apply(Config{BPM: 120, Signature: meter.Signatures[0], Playing: true})
	r.run(600 * time.Millisecond)
	require.Len(t, r.beats, 2)

	r.s.Apply(Config{BPM: 120, Signature: meter.Signatures[0], Playing: false})
	assert.True(t, r.s.Handle().IsZero())
	assert.Equal(t, 0, r.tr.Active())
	assert.False(t, r.tr.Running())
	r.run(2 * time.Second)
	assert.Len(t, r.beats, 2)

	r.s.Apply(Config{BPM: 120, Signature: meter.Signatures[0], Playing: true})
	r.s.Stop()
	assert.Equal(t, 0, r.tr.Active())
}

func TestAccentComesFromScheduledTime(t *testing.T) {
	r := newRig()
	sig := meter.Signatures[1]
	r.tr.Set(120, sig)
	fire := r.s.trigger(sig, transport.NoteTicks(sig.NoteValue))

	// out of order and with gaps, as a stalled callback would deliver them
	for _, beat := range []int{4, 3, 0, 7, 6} {
		fire(transport.Time(beat * 22050))
	}
	assert.Equal(t, []bool{false, true, true, false, true}, accents(r.beats))
	assert.Equal(t, int64(7), r.beats[3].Index)
}

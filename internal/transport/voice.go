package transport

import (
	"time"
)

const (
	DefaultFadeIn  = 5 * time.Millisecond
	DefaultFadeOut = 12 * time.Millisecond
	DefaultLength  = 100 * time.Millisecond
)

// Player starts a Sample on the transport timeline. Each PlayAt creates an
// independent voice, so overlapping clicks never cut each other off.
type Player struct {
	t      *Transport
	sample *Sample

	FadeIn  time.Duration
	FadeOut time.Duration
	Length  time.Duration
	Gain    float64
}

func (t *Transport) NewPlayer(s *Sample) *Player {
	return &Player{
		t:       t,
		sample:  s,
		FadeIn:  DefaultFadeIn,
		FadeOut: DefaultFadeOut,
		Length:  DefaultLength,
		Gain:    1,
	}
}

// PlayAt starts the sample at when and stops it Length later, ramping in over
// FadeIn and out over FadeOut. It is safe to call from a repeat callback.
// Voices requested while the transport is stopped are dropped.
func (p *Player) PlayAt(when Time) {
	sr := p.t.sr
	v := &voice{
		frames:  p.sample.frames,
		start:   when,
		stop:    when + Time(sr.N(p.Length)),
		fadeIn:  sr.N(p.FadeIn),
		fadeOut: sr.N(p.FadeOut),
		gain:    p.Gain,
	}

	p.t.mu.Lock()
	defer p.t.mu.Unlock()
	if !p.t.running {
		return
	}
	p.t.voices = append(p.t.voices, v)
}

type voice struct {
	frames      [][2]float64
	start, stop Time
	fadeIn      int
	fadeOut     int
	gain        float64
}

func (v *voice) end() Time {
	if e := v.start + Time(len(v.frames)); e < v.stop {
		return e
	}
	return v.stop
}

func (v *voice) envelope(f Time) float64 {
	g := 1.0
	if v.fadeIn > 0 {
		if in := float64(f-v.start) / float64(v.fadeIn); in < g {
			g = in
		}
	}
	if v.fadeOut > 0 {
		if out := float64(v.stop-f) / float64(v.fadeOut); out < g {
			g = out
		}
	}
	return g
}

func (v *voice) render(dst [][2]float64, from Time) {
	end := v.end()
	for i := range dst {
		f := from + Time(i)
		if f < v.start {
			continue
		}
		if f >= end {
			return
		}
		g := v.gain * v.envelope(f)
		frame := v.frames[f-v.start]
		dst[i][0] += frame[0] * g
		dst[i][1] += frame[1] * g
	}
}

// mix renders every voice overlapping [from, from+len(dst)) into dst and
// drops the ones that have finished. Callers hold t.mu.
func (t *Transport) mix(dst [][2]float64, from Time) {
	for i := range dst {
		dst[i] = [2]float64{}
	}
	to := from + Time(len(dst))
	kept := t.voices[:0]
	for _, v := range t.voices {
		v.render(dst, from)
		if v.end() > to {
			kept = append(kept, v)
		}
	}
	for i := len(kept); i < len(t.voices); i++ {
		t.voices[i] = nil
	}
	t.voices = kept

	for i := range dst {
		dst[i][0] = clip(dst[i][0])
		dst[i][1] = clip(dst[i][1])
	}
}

func clip(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}

// Package unlock satisfies the "audio needs a user gesture" rule of touch
// browsers before the first real beat is played.
//
// Two outputs are unlocked independently: a looping media element playing a
// silent wav, and a synthesis context playing a one-frame silent buffer. Each
// channel moves blocked -> pending on a gesture, then to allowed or back to
// blocked depending on the host's answer. Once both are allowed the gesture
// listeners are removed and never registered again.
package unlock

import (
	"sync"

	"github.com/sirupsen/logrus"
)

type Coordinator struct {
	p   Platform
	log logrus.FieldLogger

	mu     sync.Mutex
	active bool
	states [2]State
	cancel func()
	src    string
	media  MediaElement
	synth  SynthContext

	inflight sync.WaitGroup
}

// New registers gesture listeners when the platform needs unlocking. On any
// other platform the coordinator is inert and Unlocked reports true.
func New(p Platform, log logrus.FieldLogger) *Coordinator {
	c := &Coordinator{p: p, log: log.WithField("component", "unlock")}
	if !p.TouchCapable() || !p.SynthAvailable() {
		return c
	}

	src, err := SilentDataURI(p.SampleRate())
	if err != nil {
		c.log.WithError(err).Debug("no silent payload, unlock disabled")
		return c
	}
	c.src = src
	c.active = true
	c.cancel = p.Listen(ActivationEvents, c.HandleGesture)
	return c
}

func (c *Coordinator) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Unlocked reports whether real output may be used.
func (c *Coordinator) Unlocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.active || (c.states[Media] == Allowed && c.states[Synth] == Allowed)
}

func (c *Coordinator) State(ch Channel) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[ch]
}

// HandleGesture starts an attempt on every blocked channel. It never waits
// for the attempt.
func (c *Coordinator) HandleGesture(kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}

	for _, ch := range []Channel{Media, Synth} {
		if c.states[ch] != Blocked {
			continue
		}
		c.states[ch] = Next(c.states[ch], Gesture)
		c.log.WithFields(logrus.Fields{"channel": ch, "gesture": kind}).Debug("pending")

		c.inflight.Add(1)
		switch ch {
		case Media:
			go c.unlockMedia()
		case Synth:
			go c.unlockSynth()
		}
	}
}

func (c *Coordinator) unlockMedia() {
	defer c.inflight.Done()

	el, err := c.p.NewMediaElement(c.src)
	if err == nil {
		if err = el.Play(); err != nil {
			el.Teardown()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.settle(Media, Failed)
		c.log.WithError(err).Debug("media unlock failed")
		return
	}
	c.media = el
	c.settle(Media, Succeeded)
}

func (c *Coordinator) unlockSynth() {
	defer c.inflight.Done()

	ctx, err := c.p.NewSynthContext()
	ok := false
	if err == nil {
		if err = ctx.StartSilence(); err == nil {
			ok = ctx.Running()
		}
		if !ok {
			ctx.Close()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !ok {
		c.settle(Synth, Failed)
		c.log.WithError(err).Debug("synth unlock failed")
		return
	}
	c.synth = ctx
	c.settle(Synth, Succeeded)
}

// settle applies ev and drops the listeners once both channels are allowed.
// Callers hold c.mu.
func (c *Coordinator) settle(ch Channel, ev Event) {
	c.states[ch] = Next(c.states[ch], ev)
	if c.states[Media] != Allowed || c.states[Synth] != Allowed {
		return
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
		c.log.Info("audio unlocked")
	}
}

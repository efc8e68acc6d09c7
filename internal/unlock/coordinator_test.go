package unlock

import (
	"encoding/base64"
	"encoding/binary"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlatform struct {
	mu        sync.Mutex
	touch     bool
	synth     bool
	listens   int
	cancels   int
	handler   func(string)
	kinds     []string
	mediaFail int // number of upcoming media attempts that fail
	synthFail int
	media     []*fakeMedia
	contexts  []*fakeSynth
	lastSrc   string
}

type fakeMedia struct{ tornDown bool }

func (m *fakeMedia) Play() error { return nil }
func (m *fakeMedia) Teardown()   { m.tornDown = true }

type failingMedia struct{ *fakeMedia }

func (failingMedia) Play() error { return errors.New("NotAllowedError") }

type fakeSynth struct {
	running bool
	started bool
	closed  bool
}

func (s *fakeSynth) StartSilence() error { s.started = true; return nil }
func (s *fakeSynth) Running() bool       { return s.running }
func (s *fakeSynth) Close()              { s.closed = true }

func (p *fakePlatform) TouchCapable() bool   { return p.touch }
func (p *fakePlatform) SynthAvailable() bool { return p.synth }
func (p *fakePlatform) SampleRate() int      { return 44100 }

func (p *fakePlatform) Listen(kinds []string, fn func(string)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listens++
	p.kinds = kinds
	p.handler = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.cancels++
		p.handler = nil
	}
}

// fire dispatches a gesture the way a window listener would.
func (p *fakePlatform) fire(kind string) {
	p.mu.Lock()
	h := p.handler
	p.mu.Unlock()
	if h != nil {
		h(kind)
	}
}

func (p *fakePlatform) NewMediaElement(src string) (MediaElement, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastSrc = src
	m := &fakeMedia{}
	p.media = append(p.media, m)
	if p.mediaFail > 0 {
		p.mediaFail--
		return failingMedia{m}, nil
	}
	return m, nil
}

func (p *fakePlatform) NewSynthContext() (SynthContext, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := &fakeSynth{running: true}
	if p.synthFail > 0 {
		p.synthFail--
		s.running = false
	}
	p.contexts = append(p.contexts, s)
	return s, nil
}

func newCoordinator(p *fakePlatform) *Coordinator {
	log, _ := test.NewNullLogger()
	return New(p, log)
}

func TestNextTransitions(t *testing.T) {
	assert.Equal(t, Pending, Next(Blocked, Gesture))
	assert.Equal(t, Allowed, Next(Pending, Succeeded))
	assert.Equal(t, Blocked, Next(Pending, Failed))

	assert.Equal(t, Blocked, Next(Blocked, Succeeded))
	assert.Equal(t, Pending, Next(Pending, Gesture))
	for _, ev := range []Event{Gesture, Succeeded, Failed} {
		assert.Equal(t, Allowed, Next(Allowed, ev))
	}
}

func TestInertWithoutTouchOrSynth(t *testing.T) {
	for _, p := range []*fakePlatform{{touch: false, synth: true}, {touch: true, synth: false}} {
		c := newCoordinator(p)
		assert.False(t, c.Active())
		assert.True(t, c.Unlocked())
		assert.Equal(t, 0, p.listens)

		c.HandleGesture("click")
		c.inflight.Wait()
		assert.Equal(t, Blocked, c.State(Media))
		assert.Empty(t, p.media)
	}
}

func TestHostPlatformIsInert(t *testing.T) {
	log, _ := test.NewNullLogger()
	c := New(Host(), log)
	assert.False(t, c.Active())
	assert.True(t, c.Unlocked())
}

func TestSubscribesToActivationEvents(t *testing.T) {
	p := &fakePlatform{touch: true, synth: true}
	c := newCoordinator(p)
	assert.True(t, c.Active())
	assert.False(t, c.Unlocked())
	assert.Equal(t, 1, p.listens)
	assert.Equal(t, ActivationEvents, p.kinds)
	assert.Equal(t, Blocked, c.State(Media))
	assert.Equal(t, Blocked, c.State(Synth))
}

func TestGestureUnlocksBothAndRemovesListeners(t *testing.T) {
	p := &fakePlatform{touch: true, synth: true}
	c := newCoordinator(p)

	p.fire("touchend")
	c.inflight.Wait()

	assert.Equal(t, Allowed, c.State(Media))
	assert.Equal(t, Allowed, c.State(Synth))
	assert.True(t, c.Unlocked())
	assert.Equal(t, 1, p.cancels)
	assert.True(t, strings.HasPrefix(p.lastSrc, "data:audio/wav;base64,"))
	require.Len(t, p.contexts, 1)
	assert.True(t, p.contexts[0].started)
	assert.False(t, p.contexts[0].closed)
}

func TestIdempotentAfterUnlock(t *testing.T) {
	p := &fakePlatform{touch: true, synth: true}
	c := newCoordinator(p)
	p.fire("click")
	c.inflight.Wait()

	for _, kind := range ActivationEvents {
		p.fire(kind)
		c.HandleGesture(kind)
	}
	c.inflight.Wait()

	assert.Len(t, p.media, 1)
	assert.Len(t, p.contexts, 1)
	assert.Equal(t, 1, p.listens)
	assert.Equal(t, 1, p.cancels)
	assert.Equal(t, Allowed, c.State(Media))
	assert.Equal(t, Allowed, c.State(Synth))
}

func TestFailedChannelRetriesOnNextGesture(t *testing.T) {
	p := &fakePlatform{touch: true, synth: true, mediaFail: 1, synthFail: 2}
	c := newCoordinator(p)

	p.fire("click")
	c.inflight.Wait()
	assert.Equal(t, Blocked, c.State(Media))
	assert.Equal(t, Blocked, c.State(Synth))
	assert.True(t, p.media[0].tornDown)
	assert.True(t, p.contexts[0].closed)
	assert.False(t, c.Unlocked())

	p.fire("keydown")
	c.inflight.Wait()
	assert.Equal(t, Allowed, c.State(Media))
	assert.Equal(t, Blocked, c.State(Synth))
	assert.Equal(t, 0, p.cancels, "listeners stay until both channels are allowed")

	p.fire("keyup")
	c.inflight.Wait()
	assert.Len(t, p.media, 2, "allowed channel is not retried")
	assert.Len(t, p.contexts, 3)
	assert.True(t, c.Unlocked())
	assert.Equal(t, 1, p.cancels)
}

func TestSilentWAV(t *testing.T) {
	b, err := SilentWAV(22050)
	require.NoError(t, err)
	require.Len(t, b, 44+silentFrames)
	assert.Equal(t, "RIFF", string(b[0:4]))
	assert.Equal(t, "WAVE", string(b[8:12]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(b[22:24]), "mono")
	assert.Equal(t, uint32(22050), binary.LittleEndian.Uint32(b[24:28]))
	assert.Equal(t, uint32(22050), binary.LittleEndian.Uint32(b[28:32]), "byte rate")
	assert.Equal(t, uint16(8), binary.LittleEndian.Uint16(b[34:36]))

	uri, err := SilentDataURI(22050)
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:audio/wav;base64,"))
	require.NoError(t, err)
	assert.Equal(t, b, raw)

	_, err = SilentWAV(0)
	assert.Error(t, err)
}

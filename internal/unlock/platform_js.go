//go:build js && wasm

package unlock

import (
	"syscall/js"

	"github.com/pkg/errors"
)

type browser struct {
	window js.Value
	ctor   js.Value
	rate   int
}

// Host returns the browser platform; the synthesis constructor is the
// webkit-prefixed one that only touch Safari still exposes.
func Host() Platform {
	w := js.Global()
	return &browser{window: w, ctor: w.Get("webkitAudioContext")}
}

func (b *browser) TouchCapable() bool {
	nav := b.window.Get("navigator")
	return nav.Truthy() && nav.Get("maxTouchPoints").Int() > 0
}

func (b *browser) SynthAvailable() bool { return b.ctor.Truthy() }

func (b *browser) SampleRate() int {
	if b.rate == 0 && b.SynthAvailable() {
		ctx := b.ctor.New()
		b.rate = ctx.Get("sampleRate").Int()
		ctx.Call("close")
	}
	return b.rate
}

func (b *browser) Listen(kinds []string, fn func(kind string)) func() {
	opts := map[string]interface{}{"capture": true, "passive": true}
	handler := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		kind := ""
		if len(args) > 0 {
			kind = args[0].Get("type").String()
		}
		fn(kind)
		return nil
	})
	for _, k := range kinds {
		b.window.Call("addEventListener", k, handler, opts)
	}
	return func() {
		for _, k := range kinds {
			b.window.Call("removeEventListener", k, handler, opts)
		}
		handler.Release()
	}
}

func (b *browser) NewMediaElement(src string) (MediaElement, error) {
	doc := b.window.Get("document")
	if !doc.Truthy() {
		return nil, errors.New("no document")
	}
	el := doc.Call("createElement", "audio")
	el.Call("setAttribute", "x-webkit-airplay", "deny")
	el.Set("preload", "auto")
	el.Set("loop", true)
	el.Set("src", src)
	el.Call("load")
	return &mediaElement{el: el}, nil
}

func (b *browser) NewSynthContext() (SynthContext, error) {
	if !b.SynthAvailable() {
		return nil, errors.New("no synthesis context")
	}
	return &synthContext{ctx: b.ctor.New()}, nil
}

type mediaElement struct{ el js.Value }

func (m *mediaElement) Play() error {
	result := make(chan error, 1)
	onOK := js.FuncOf(func(js.Value, []js.Value) interface{} {
		result <- nil
		return nil
	})
	onErr := js.FuncOf(func(_ js.Value, args []js.Value) interface{} {
		msg := "play rejected"
		if len(args) > 0 && args[0].Truthy() {
			msg = args[0].Call("toString").String()
		}
		result <- errors.New(msg)
		return nil
	})
	defer onOK.Release()
	defer onErr.Release()

	m.el.Call("play").Call("then", onOK, onErr)
	return <-result
}

func (m *mediaElement) Teardown() {
	m.el.Call("pause")
	m.el.Call("removeAttribute", "src")
	m.el.Call("load")
}

type synthContext struct {
	ctx    js.Value
	source js.Value
}

func (s *synthContext) StartSilence() error {
	s.source = s.ctx.Call("createBufferSource")
	s.source.Set("buffer", s.ctx.Call("createBuffer", 1, 1, 22050))
	s.source.Call("connect", s.ctx.Get("destination"))
	s.source.Call("start")
	return nil
}

func (s *synthContext) Running() bool {
	return s.ctx.Get("state").String() == "running"
}

func (s *synthContext) Close() {
	if s.source.Truthy() {
		s.source.Call("disconnect", s.ctx.Get("destination"))
	}
	s.ctx.Call("close")
}

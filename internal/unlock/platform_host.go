//go:build !(js && wasm)

package unlock

import "github.com/pkg/errors"

var errNoBrowser = errors.New("no browser audio on this platform")

// hostPlatform covers native builds, where output needs no gesture.
type hostPlatform struct{}

func Host() Platform { return hostPlatform{} }

func (hostPlatform) TouchCapable() bool   { return false }
func (hostPlatform) SynthAvailable() bool { return false }
func (hostPlatform) SampleRate() int      { return 0 }

func (hostPlatform) Listen([]string, func(string)) func() { return func() {} }

func (hostPlatform) NewMediaElement(string) (MediaElement, error) { return nil, errNoBrowser }
func (hostPlatform) NewSynthContext() (SynthContext, error)      { return nil, errNoBrowser }

package unlock

// ActivationEvents are the gestures browsers accept as user activation.
var ActivationEvents = []string{
	"auxclick",
	"click",
	"contextmenu",
	"dblclick",
	"keydown",
	"keyup",
	"mousedown",
	"mouseup",
	"touchend",
}

// Platform is the host surface the coordinator needs.
type Platform interface {
	TouchCapable() bool
	// SynthAvailable reports whether the vendor synthesis context the
	// workaround relies on exists.
	SynthAvailable() bool
	SampleRate() int
	// Listen subscribes fn to every kind and returns the unsubscribe func.
	Listen(kinds []string, fn func(kind string)) (cancel func())
	NewMediaElement(src string) (MediaElement, error)
	NewSynthContext() (SynthContext, error)
}

// MediaElement is a looping audio element.
type MediaElement interface {
	// Play blocks until the host accepts or rejects playback.
	Play() error
	// Teardown pauses the element and releases its source.
	Teardown()
}

type SynthContext interface {
	// StartSilence connects a one-frame silent buffer to the destination and starts it.
	StartSilence() error
	Running() bool
	// Close disconnects the buffer and closes the context.
	Close()
}

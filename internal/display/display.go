// Package display draws the status line of an interactive session.
package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gosuri/uilive"

	"github.com/dimfu/metro/internal/meter"
)

const Help = "space play/stop  t tap  s signature  up/down tempo  q quit"

// Frame is everything one status line shows. Beat is the zero-based position
// inside the bar, or -1 when no beat has sounded yet.
type Frame struct {
	BPM       float64
	Signature meter.TimeSignature
	Beat      int
	Playing   bool
	Audible   bool
}

// Render formats f as two lines: the status and the key help.
func Render(f Frame) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%6.1f bpm  %-5s  [%s]  %s", f.BPM, f.Signature, cursor(f), status(f))
	b.WriteString("\n")
	b.WriteString(Help)
	b.WriteString("\n")
	return b.String()
}

func cursor(f Frame) string {
	marks := make([]string, f.Signature.Beats)
	for i := range marks {
		switch {
		case f.Playing && i == f.Beat && i == 0:
			marks[i] = "X"
		case f.Playing && i == f.Beat:
			marks[i] = "x"
		default:
			marks[i] = "."
		}
	}
	return strings.Join(marks, " ")
}

func status(f Frame) string {
	s := "stopped"
	if f.Playing {
		s = "playing"
	}
	if !f.Audible {
		s += " (muted)"
	}
	return s
}

// Screen redraws a Frame in place.
type Screen struct {
	mu sync.Mutex
	w  *uilive.Writer
}

func NewScreen(out io.Writer) *Screen {
	w := uilive.New()
	w.Out = out
	return &Screen{w: w}
}

func (s *Screen) Draw(f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, Render(f)); err != nil {
		return err
	}
	return s.w.Flush()
}

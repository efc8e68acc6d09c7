package main

import (
	"io"
	"os"

	"github.com/eiannone/keyboard"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dimfu/metro/internal/display"
	"github.com/dimfu/metro/internal/metronome"
)

func newLogger(level string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log, nil
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// lookupAction maps a key press to what the session should do with it.
func lookupAction(ch rune, key keyboard.Key) action {
	if ch != 0 {
		return runeBindings[ch]
	}
	return keyBindings[key]
}

func frameFor(s metronome.State, beat int, audible bool) display.Frame {
	return display.Frame{
		BPM:       s.BPM,
		Signature: s.Signature(),
		Beat:      beat,
		Playing:   s.Playing,
		Audible:   audible,
	}
}

package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dimfu/metro/internal/display"
	"github.com/dimfu/metro/internal/metronome"
	"github.com/dimfu/metro/internal/tapper"
	"github.com/dimfu/metro/internal/transport"
	"github.com/dimfu/metro/internal/unlock"
)

type rootOptions struct {
	Tempo       float64
	Timesig     string
	Preset      string
	ConfigPath  string
	PresetsPath string
	LogLevel    string
	Downbeat    string
	Offbeat     string
}

func main() {
	if err := newRootCommand(&rootOptions{}).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "A sample-accurate terminal metronome",
		Long: `Play a metronome click with an accented downbeat.

Keys: space play/stop, t tap tempo, s next time signature,
up/down change tempo, q or Esc quit.

Example:
  metro --tempo 90 --timesig 3/4
  metro --preset waltz`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := resolveSettings(cmd, opts)
			if err != nil {
				return err
			}
			return runSession(st)
		},
	}

	cmd.Flags().Float64Var(&opts.Tempo, "tempo", 120, "the speed at which a passage of this metronome should be played")
	cmd.Flags().StringVar(&opts.Timesig, "timesig", defaultTimesig, "indicate how many beats are in each measure")
	cmd.Flags().StringVarP(&opts.Preset, "preset", "p", "", "start from a saved preset")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "info", "log level (debug|info|warn|error)")
	cmd.Flags().StringVar(&opts.Downbeat, "downbeat", "", "wav file for the accented click")
	cmd.Flags().StringVar(&opts.Offbeat, "offbeat", "", "wav file for the other clicks")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.PresetsPath, "presets", "", "presets file (default $HOME/.metro.json)")

	cmd.AddCommand(newPresetCommand(opts))
	return cmd
}

func runSession(st settings) error {
	log, err := newLogger(st.Config.LogLevel, os.Stderr)
	if err != nil {
		return err
	}

	audio := st.Config.Audio
	sr := beep.SampleRate(audio.SampleRate)
	tr := transport.New(sr)
	down, off, err := NewAudioPlayers(tr, audio)
	if err != nil {
		return err
	}

	if err := speaker.Init(sr, sr.N(audio.Buffer)); err != nil {
		return errors.Wrap(err, "error while initializing speaker")
	}
	speaker.Play(tr)
	defer speaker.Clear()

	eng := metronome.New(tr, down, off,
		metronome.WithLogger(log),
		metronome.WithRange(metronome.TempoRange{Min: st.Config.Tempo.Min, Max: st.Config.Tempo.Max}),
		metronome.WithTapper(tapper.New(
			tapper.WithWindow(st.Config.Tap.Window),
			tapper.WithResetGap(st.Config.Tap.ResetGap),
		)),
		metronome.WithUnlocker(unlock.New(unlock.Host(), log)),
		metronome.WithState(metronome.State{BPM: st.Tempo, SignatureIndex: st.Signature}),
	)
	defer eng.Close()

	keys, err := keyboard.GetKeys(keyBuffer)
	if err != nil {
		return errors.Wrap(err, "open keyboard")
	}
	defer keyboard.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	s := newSession(eng, tr, log)
	if isTerminal(os.Stdout) {
		s.screen = display.NewScreen(os.Stdout)
	}

	beats := eng.Watch()
	eng.SetPlaying(true)
	s.redraw()

	for {
		select {
		case ev := <-keys:
			if ev.Err != nil {
				return errors.Wrap(ev.Err, "read keyboard")
			}
			if s.press(lookupAction(ev.Rune, ev.Key), time.Now()) {
				return nil
			}
		case b, ok := <-beats:
			if !ok {
				return nil
			}
			s.onBeat(b)
		case <-sig:
			return nil
		}
	}
}

// session ties key presses and scheduled beats to what the user sees.
type session struct {
	eng    *metronome.Engine
	tr     *transport.Transport
	log    logrus.FieldLogger
	screen *display.Screen
	beat   int
}

func newSession(eng *metronome.Engine, tr *transport.Transport, log logrus.FieldLogger) *session {
	return &session{eng: eng, tr: tr, log: log, beat: -1}
}

// press applies a and reports whether the session should end.
func (s *session) press(a action, now time.Time) bool {
	s.eng.Gesture(gestureKind)

	st := s.eng.State()
	switch a {
	case actionQuit:
		return true
	case actionToggle:
		s.beat = -1
		s.eng.Toggle()
	case actionTap:
		if bpm, ok := s.eng.TapTempo(now); ok {
			s.log.WithField("bpm", bpm).Debug("tap tempo")
		}
	case actionNextSignature:
		s.beat = -1
		s.eng.NextTimeSignature()
	case actionTempoUp:
		s.eng.SetBPM(st.BPM + tempoStep)
	case actionTempoDown:
		s.eng.SetBPM(st.BPM - tempoStep)
	default:
		return false
	}
	s.redraw()
	return false
}

func (s *session) onBeat(ev metronome.Event) {
	bar, beat := s.tr.Position(ev.When)
	s.beat = beat - 1
	if s.screen == nil {
		s.log.WithFields(logrus.Fields{
			"bar":    bar,
			"beat":   beat,
			"accent": ev.Accent,
			"muted":  !ev.Audible,
		}).Info("beat")
		return
	}
	s.redraw()
}

func (s *session) redraw() {
	if s.screen == nil {
		return
	}
	if err := s.screen.Draw(frameFor(s.eng.State(), s.beat, s.eng.Audible())); err != nil {
		s.log.WithError(err).Debug("draw")
	}
}

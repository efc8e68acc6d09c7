package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dimfu/metro/internal/config"
	"github.com/dimfu/metro/internal/meter"
	"github.com/dimfu/metro/internal/metronome"
	"github.com/dimfu/metro/internal/preset"
)

// settings is what a session starts with after the config file, the preset
// and the flags have been merged.
type settings struct {
	Config    config.Config
	Tempo     float64
	Signature int
}

func resolveSettings(cmd *cobra.Command, opts *rootOptions) (settings, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return settings{}, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = opts.LogLevel
	}
	if cmd.Flags().Changed("downbeat") {
		cfg.Audio.DownbeatSample = opts.Downbeat
	}
	if cmd.Flags().Changed("offbeat") {
		cfg.Audio.OffbeatSample = opts.Offbeat
	}

	tempo, timesig := cfg.Tempo.Default, defaultTimesig
	if opts.Preset != "" {
		m, err := openPresets(opts.PresetsPath)
		if err != nil {
			return settings{}, err
		}
		p, err := m.Get(opts.Preset)
		if err != nil {
			return settings{}, err
		}
		tempo, timesig = p.Tempo, p.Timesig
	}
	if cmd.Flags().Changed("tempo") {
		tempo = opts.Tempo
	}
	if cmd.Flags().Changed("timesig") {
		timesig = opts.Timesig
	}

	valid := metronome.TempoRange{Min: cfg.Tempo.Min, Max: cfg.Tempo.Max}
	if !valid.Valid(tempo) {
		return settings{}, errors.Errorf("tempo is not valid make sure its above %v and below %v", valid.Min, valid.Max)
	}
	index, err := meter.Parse(timesig)
	if err != nil {
		return settings{}, err
	}
	return settings{Config: cfg, Tempo: tempo, Signature: index}, nil
}

func openPresets(path string) (*preset.Manager, error) {
	if path == "" {
		var err error
		if path, err = preset.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return preset.Open(path)
}

func newPresetCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage saved tempo and time signature presets",
	}
	cmd.AddCommand(newPresetAddCommand(opts), newPresetRemoveCommand(opts), newPresetListCommand(opts))
	return cmd
}

func newPresetAddCommand(opts *rootOptions) *cobra.Command {
	var tempo float64
	var timesig string

	cmd := &cobra.Command{
		Use:          "add <key>",
		Short:        "Save a preset",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !(metronome.TempoRange{Min: config.MinTempo, Max: config.MaxTempo}).Valid(tempo) {
				return errors.Errorf("tempo is not valid make sure its above %v and below %v", config.MinTempo, config.MaxTempo)
			}
			if _, err := meter.Parse(timesig); err != nil {
				return err
			}
			m, err := openPresets(opts.PresetsPath)
			if err != nil {
				return err
			}
			if err := m.Add(preset.Preset{Key: args[0], Tempo: tempo, Timesig: timesig}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%v bpm, %s)\n", args[0], tempo, timesig)
			return nil
		},
	}
	cmd.Flags().Float64Var(&tempo, "tempo", 120, "tempo in quarter notes per minute")
	cmd.Flags().StringVar(&timesig, "timesig", defaultTimesig, "time signature, e.g. 6/8")
	return cmd
}

func newPresetRemoveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "rm <key>",
		Aliases:      []string{"remove"},
		Short:        "Delete a preset",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openPresets(opts.PresetsPath)
			if err != nil {
				return err
			}
			return m.Delete(args[0])
		},
	}
}

func newPresetListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "ls",
		Aliases:      []string{"list"},
		Short:        "List presets",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openPresets(opts.PresetsPath)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tTEMPO\tTIMESIG")
			for _, p := range m.Presets {
				fmt.Fprintf(w, "%s\t%v\t%s\n", p.Key, p.Tempo, p.Timesig)
			}
			return w.Flush()
		},
	}
}

package main

import (
	"github.com/faiface/beep"
	"github.com/pkg/errors"

	"github.com/dimfu/metro/internal/config"
	"github.com/dimfu/metro/internal/transport"
)

// NewAudioPlayers builds the downbeat and offbeat players. A sample path that
// is empty falls back to a synthesized click.
func NewAudioPlayers(tr *transport.Transport, audio config.Audio) (down, off *transport.Player, err error) {
	down, err = newAudioPlayer(tr, audio, audio.DownbeatSample, transport.DownbeatFreq)
	if err != nil {
		return nil, nil, errors.Wrap(err, "downbeat")
	}
	off, err = newAudioPlayer(tr, audio, audio.OffbeatSample, transport.OffbeatFreq)
	if err != nil {
		return nil, nil, errors.Wrap(err, "offbeat")
	}
	return down, off, nil
}

func newAudioPlayer(tr *transport.Transport, audio config.Audio, path string, freq float64) (*transport.Player, error) {
	sample, err := readSample(tr.SampleRate(), audio, path, freq)
	if err != nil {
		return nil, err
	}
	p := tr.NewPlayer(sample)
	p.FadeIn = audio.FadeIn
	p.FadeOut = audio.FadeOut
	p.Length = audio.ClickLength
	return p, nil
}

func readSample(sr beep.SampleRate, audio config.Audio, path string, freq float64) (*transport.Sample, error) {
	if path == "" {
		return transport.Click(sr, freq, audio.ClickLength), nil
	}
	return transport.LoadWAV(path, sr)
}

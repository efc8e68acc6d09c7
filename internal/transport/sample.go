package transport

import (
	"math"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/pkg/errors"
)

const (
	DownbeatFreq = 523.25 // C5
	OffbeatFreq  = 261.63 // C4
)

// Sample is a fully decoded stereo clip.
type Sample struct {
	frames [][2]float64
}

// NewSample drains s. s must be finite.
func NewSample(s beep.Streamer) *Sample {
	var frames [][2]float64
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		frames = append(frames, buf[:n]...)
		if !ok {
			break
		}
	}
	return &Sample{frames: frames}
}

func FromBuffer(b *beep.Buffer) *Sample {
	return NewSample(b.Streamer(0, b.Len()))
}

func (s *Sample) Len() int { return len(s.frames) }

// LoadWAV decodes a wav file and resamples it to sr when needed.
func LoadWAV(path string, sr beep.SampleRate) (*Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading audio file failed")
	}

	streamer, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "error while decoding audio %s", path)
	}
	defer streamer.Close()

	var src beep.Streamer = streamer
	if format.SampleRate != sr {
		src = beep.Resample(4, format.SampleRate, sr, streamer)
	}

	buffer := beep.NewBuffer(beep.Format{SampleRate: sr, NumChannels: 2, Precision: 2})
	buffer.Append(src)
	return FromBuffer(buffer), nil
}

// Click synthesizes a sine click with a 10ms attack and 20ms decay to full
// sustain.
func Click(sr beep.SampleRate, freq float64, length time.Duration) *Sample {
	const attack, decay, sustain = 0.01, 0.02, 1.0

	n := 0
	osc := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			sec := float64(n) / float64(sr)
			env := sustain
			switch {
			case sec < attack:
				env = sec / attack
			case sec < attack+decay:
				env = 1 - (1-sustain)*(sec-attack)/decay
			}
			v := math.Sin(2*math.Pi*freq*sec) * env
			samples[i] = [2]float64{v, v}
			n++
		}
		return len(samples), true
	})
	return NewSample(beep.Take(sr.N(length), osc))
}

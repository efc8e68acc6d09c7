package unlock

import (
	"encoding/base64"
	"io"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/pkg/errors"
)

const silentFrames = 7

// SilentWAV returns a seven frame, 8-bit mono wav at sampleRate.
func SilentWAV(sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, errors.Errorf("invalid sample rate %d", sampleRate)
	}
	format := beep.Format{SampleRate: beep.SampleRate(sampleRate), NumChannels: 1, Precision: 1}
	var ws writeSeeker
	if err := wav.Encode(&ws, beep.Silence(silentFrames), format); err != nil {
		return nil, errors.Wrap(err, "encode silent wav")
	}
	return ws.buf, nil
}

// SilentDataURI wraps SilentWAV in a data URI a media element can load.
func SilentDataURI(sampleRate int) (string, error) {
	b, err := SilentWAV(sampleRate)
	if err != nil {
		return "", err
	}
	return "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(b), nil
}

// writeSeeker is the in-memory io.WriteSeeker wav.Encode needs to patch its header.
type writeSeeker struct {
	buf []byte
	pos int
}

func (w *writeSeeker) Write(p []byte) (int, error) {
	if end := w.pos + len(p); end > len(w.buf) {
		w.buf = append(w.buf, make([]byte, end-len(w.buf))...)
	}
	n := copy(w.buf[w.pos:], p)
	w.pos += n
	return n, nil
}

func (w *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(w.pos) + offset
	case io.SeekEnd:
		abs = int64(len(w.buf)) + offset
	default:
		return 0, errors.New("invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("negative position")
	}
	w.pos = int(abs)
	return abs, nil
}

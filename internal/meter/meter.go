package meter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrMalformed        = errors.New("invalid time signature format")
	ErrUnknownSignature = errors.New("time signature not found")
)

type TimeSignature struct {
	Beats     int // number of beats per measure
	NoteValue int // note that represent that one beat
}

// Signatures is the selectable table, in cycling order.
var Signatures = []TimeSignature{
	{4, 4},
	{3, 4},
	{2, 4},
	{2, 2},
	{3, 8},
	{6, 8},
	{9, 8},
	{12, 8},
	{5, 4},
	{6, 4},
}

func (ts TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", ts.Beats, ts.NoteValue)
}

// Valid reports whether ts has at least one beat and a power-of-two note value.
func (ts TimeSignature) Valid() bool {
	return ts.Beats >= 1 && ts.NoteValue >= 1 && ts.NoteValue&(ts.NoteValue-1) == 0
}

// Advance returns the index following current, wrapping to 0 at the end of the table.
func Advance(current int) int {
	next := current + 1
	if next >= len(Signatures) || next < 0 {
		return 0
	}
	return next
}

// Normalize maps any integer onto a table index.
func Normalize(index int) int {
	n := len(Signatures)
	index %= n
	if index < 0 {
		index += n
	}
	return index
}

// At returns the signature at index after normalizing it.
func At(index int) TimeSignature {
	return Signatures[Normalize(index)]
}

// Index returns the table position of ts, or -1.
func Index(ts TimeSignature) int {
	for i, s := range Signatures {
		if s == ts {
			return i
		}
	}
	return -1
}

// Parse resolves a "beats/note" string to its table index.
func Parse(input string) (int, error) {
	parts := strings.Split(strings.TrimSpace(input), "/")
	if len(parts) != 2 {
		return -1, errors.Wrapf(ErrMalformed, "%q", input)
	}

	beats, err1 := strconv.Atoi(parts[0])
	noteValue, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return -1, errors.Wrapf(ErrMalformed, "invalid number in %q", input)
	}

	idx := Index(TimeSignature{Beats: beats, NoteValue: noteValue})
	if idx < 0 {
		return -1, errors.Wrapf(ErrUnknownSignature, "%q", input)
	}
	return idx, nil
}

package unlock

// State of one output channel.
type State int

const (
	Blocked State = iota
	Pending
	Allowed
)

func (s State) String() string {
	switch s {
	case Blocked:
		return "blocked"
	case Pending:
		return "pending"
	case Allowed:
		return "allowed"
	default:
		return "unknown"
	}
}

type Event int

const (
	Gesture Event = iota
	Succeeded
	Failed
)

// Next is the whole channel state machine. Unlisted pairs leave the state
// unchanged, which makes Allowed terminal.
func Next(s State, ev Event) State {
	switch {
	case s == Blocked && ev == Gesture:
		return Pending
	case s == Pending && ev == Succeeded:
		return Allowed
	case s == Pending && ev == Failed:
		return Blocked
	}
	return s
}

// Channel names the two outputs that have to be unlocked.
type Channel int

const (
	Media Channel = iota
	Synth
)

func (c Channel) String() string {
	if c == Media {
		return "media"
	}
	return "synth"
}

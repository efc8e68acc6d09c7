package main

import "github.com/eiannone/keyboard"

const (
	appName        = "metro"
	defaultTimesig = "4/4"

	// every key press counts as a user activation
	gestureKind = "keydown"

	keyBuffer = 10
	tempoStep = 1.0
)

type action int

const (
	actionNone action = iota
	actionToggle
	actionTap
	actionNextSignature
	actionTempoUp
	actionTempoDown
	actionQuit
)

var runeBindings = map[rune]action{
	' ': actionToggle,
	't': actionTap,
	'T': actionTap,
	's': actionNextSignature,
	'S': actionNextSignature,
	'q': actionQuit,
	'Q': actionQuit,
	'+': actionTempoUp,
	'-': actionTempoDown,
}

var keyBindings = map[keyboard.Key]action{
	keyboard.KeySpace:     actionToggle,
	keyboard.KeyArrowUp:   actionTempoUp,
	keyboard.KeyArrowDown: actionTempoDown,
	keyboard.KeyEsc:       actionQuit,
	keyboard.KeyCtrlC:     actionQuit,
}

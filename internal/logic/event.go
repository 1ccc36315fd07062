package logic

import (
	"fmt"
	"time"
)

// ModeButton is the button index of the rotary encoder push switch.
const ModeButton = -1

// TopButtons is the number of push buttons on top of the box.
const TopButtons = 4

// Kind classifies an input event.
type Kind int

const (
	KindShortPress Kind = iota
	KindHoldExceeded
	KindReleased
	KindRotated
)

func (k Kind) String() string {
	switch k {
	case KindShortPress:
		return "SHORT_PRESS"
	case KindHoldExceeded:
		return "HOLD"
	case KindReleased:
		return "RELEASED"
	case KindRotated:
		return "ROTATED"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ButtonEvent is a classified input event. The input layer decides once
// whether a press was short or held; the machine never measures time.
type ButtonEvent struct {
	Kind   Kind
	Button int           // 0..3 for top buttons, ModeButton for the rotary push
	Delta  int           // rotation steps (KindRotated only)
	Pos    int           // encoder position after rotation (KindRotated only)
	Held   time.Duration // time the button was down when the event fired
	At     time.Time
}

// ShortPress builds a short-press event.
func ShortPress(button int) ButtonEvent {
	return ButtonEvent{Kind: KindShortPress, Button: button}
}

// HoldExceeded builds a hold event.
func HoldExceeded(button int) ButtonEvent {
	return ButtonEvent{Kind: KindHoldExceeded, Button: button}
}

// Released builds a release event.
func Released(button int) ButtonEvent {
	return ButtonEvent{Kind: KindReleased, Button: button}
}

// Rotated builds a rotation event.
func Rotated(delta, pos int) ButtonEvent {
	return ButtonEvent{Kind: KindRotated, Delta: delta, Pos: pos}
}

func (e ButtonEvent) String() string {
	if e.Kind == KindRotated {
		return fmt.Sprintf("%s(%+d -> %d)", e.Kind, e.Delta, e.Pos)
	}
	if e.Button == ModeButton {
		return fmt.Sprintf("%s(mode)", e.Kind)
	}
	return fmt.Sprintf("%s(%d)", e.Kind, e.Button)
}

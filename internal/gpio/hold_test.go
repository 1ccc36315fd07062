package gpio

import (
	"testing"
	"time"

	"github.com/sweeney/judsound-box/internal/logic"
)

type fakeTimer struct {
	fire    func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type holdHarness struct {
	h      *holdTimer
	now    time.Time
	timers []*fakeTimer
	events []logic.ButtonEvent
}

func newHoldHarness(hold time.Duration) *holdHarness {
	hh := &holdHarness{now: time.Date(2026, 1, 1, 7, 0, 0, 0, time.UTC)}
	hh.h = newHoldTimer(hold, func() time.Time { return hh.now }, func(ev logic.ButtonEvent) {
		hh.events = append(hh.events, ev)
	})
	hh.h.afterFunc = func(d time.Duration, f func()) stopper {
		t := &fakeTimer{fire: f}
		hh.timers = append(hh.timers, t)
		return t
	}
	return hh
}

func kinds(events []logic.ButtonEvent) []logic.Kind {
	out := make([]logic.Kind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func sameKinds(got, want []logic.Kind) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestHoldTimerShortPress(t *testing.T) {
	hh := newHoldHarness(2 * time.Second)

	hh.h.Press(1)
	hh.now = hh.now.Add(300 * time.Millisecond)
	hh.h.Release(1)

	want := []logic.Kind{logic.KindShortPress, logic.KindReleased}
	if got := kinds(hh.events); !sameKinds(got, want) {
		t.Fatalf("events: got %v, want %v", got, want)
	}
	if hh.events[0].Button != 1 {
		t.Errorf("button: got %d, want 1", hh.events[0].Button)
	}
	if hh.events[1].Held != 300*time.Millisecond {
		t.Errorf("held: got %v, want 300ms", hh.events[1].Held)
	}
	if !hh.timers[0].stopped {
		t.Error("timer should be stopped on release")
	}
}

func TestHoldTimerHold(t *testing.T) {
	hh := newHoldHarness(2 * time.Second)

	hh.h.Press(logic.ModeButton)
	hh.now = hh.now.Add(2 * time.Second)
	hh.timers[0].fire()

	if got := kinds(hh.events); !sameKinds(got, []logic.Kind{logic.KindHoldExceeded}) {
		t.Fatalf("events after expiry: got %v", got)
	}
	if hh.events[0].Button != logic.ModeButton {
		t.Errorf("button: got %d, want mode", hh.events[0].Button)
	}

	hh.now = hh.now.Add(time.Second)
	hh.h.Release(logic.ModeButton)

	want := []logic.Kind{logic.KindHoldExceeded, logic.KindReleased}
	if got := kinds(hh.events); !sameKinds(got, want) {
		t.Fatalf("events: got %v, want %v", got, want)
	}
	if hh.events[1].Held != 3*time.Second {
		t.Errorf("held: got %v, want 3s", hh.events[1].Held)
	}
}

func TestHoldTimerLateFireAfterRelease(t *testing.T) {
	hh := newHoldHarness(time.Second)

	hh.h.Press(0)
	hh.h.Release(0)
	hh.timers[0].fire()

	want := []logic.Kind{logic.KindShortPress, logic.KindReleased}
	if got := kinds(hh.events); !sameKinds(got, want) {
		t.Errorf("events: got %v, want %v", got, want)
	}
}

func TestHoldTimerIgnoresUnpairedEdges(t *testing.T) {
	hh := newHoldHarness(time.Second)

	hh.h.Release(2)
	hh.h.Press(2)
	hh.h.Press(2)

	if len(hh.events) != 0 {
		t.Errorf("expected no events, got %v", hh.events)
	}
	if len(hh.timers) != 1 {
		t.Errorf("timers armed: got %d, want 1", len(hh.timers))
	}
}

func TestHoldTimerIndependentButtons(t *testing.T) {
	hh := newHoldHarness(time.Second)

	hh.h.Press(0)
	hh.h.Press(3)
	hh.timers[1].fire()
	hh.h.Release(0)
	hh.h.Release(3)

	want := []logic.Kind{logic.KindHoldExceeded, logic.KindShortPress, logic.KindReleased, logic.KindReleased}
	if got := kinds(hh.events); !sameKinds(got, want) {
		t.Fatalf("events: got %v, want %v", got, want)
	}
	if hh.events[0].Button != 3 || hh.events[1].Button != 0 {
		t.Errorf("buttons: got %d then %d, want 3 then 0", hh.events[0].Button, hh.events[1].Button)
	}
}

func TestHoldTimerRealClock(t *testing.T) {
	events := make(chan logic.ButtonEvent, 4)
	h := newHoldTimer(10*time.Millisecond, nil, func(ev logic.ButtonEvent) { events <- ev })

	h.Press(1)
	select {
	case ev := <-events:
		if ev.Kind != logic.KindHoldExceeded {
			t.Errorf("kind: got %v, want HOLD", ev.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("hold never fired")
	}
	h.Release(1)
	if ev := <-events; ev.Kind != logic.KindReleased {
		t.Errorf("kind: got %v, want RELEASED", ev.Kind)
	}
}

package box

import (
	"github.com/sweeney/judsound-box/internal/audio"
	"github.com/sweeney/judsound-box/internal/logic"
)

// HandleEvent resolves one input event against the current mode.
func (b *Box) HandleEvent(ev logic.ButtonEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch ev.Kind {
	case logic.KindReleased:
		b.logger.Debug("button released", "button", ev.Button, "held", ev.Held)
		return
	case logic.KindRotated:
		b.counts.Rotations++
		b.report("volume", b.d.Volume.FromPosition(ev.Pos))
		return
	case logic.KindShortPress:
		b.counts.Presses++
	case logic.KindHoldExceeded:
		b.counts.Holds++
	default:
		b.ignore(ev)
		return
	}

	switch {
	case ev.Button == logic.ModeButton:
		b.modeButton(ev)
	case ev.Button >= 0 && ev.Button < logic.TopButtons:
		b.topButton(ev)
	default:
		b.ignore(ev)
	}
}

func (b *Box) ignore(ev logic.ButtonEvent) {
	b.logger.Debug("event ignored", "event", ev.String(), "mode", b.mode)
}

func (b *Box) modeButton(ev logic.ButtonEvent) {
	if ev.Kind == logic.KindShortPress {
		now := b.d.Now()
		b.report("speak time", b.d.Speaker.SayTime(now.Hour(), now.Minute()))
		return
	}
	b.changeMode(logic.NextInCycle(b.cfg.Cycle, b.mode), true, false)
}

func (b *Box) topButton(ev logic.ButtonEvent) {
	switch b.mode {
	case logic.ModePlaybackNight, logic.ModePlaybackDay:
		b.playback(ev)
	case logic.ModeAlarmMenu:
		b.alarmMenu(ev)
	case logic.ModeAlarmEditing:
		b.alarmEditing(ev)
	case logic.ModeAlarmValidation:
		b.alarmValidation(ev)
	}
}

func (b *Box) playback(ev logic.ButtonEvent) {
	pl := b.playlist(b.mode.Context())
	if ev.Kind == logic.KindHoldExceeded {
		b.logger.Info("stop playlist", "button", ev.Button, "mode", b.mode)
		pl.Stop()
		return
	}
	b.report("play track", pl.Press(ev.Button, b.d.Volume.Music()))
}

func (b *Box) alarmMenu(ev logic.ButtonEvent) {
	if ev.Kind != logic.KindShortPress {
		b.ignore(ev)
		return
	}
	switch ev.Button {
	case 0:
		b.logger.Info("entering alarm setting")
		b.report("reset editor", b.d.Editor.Reset(false))
		b.changeMode(logic.ModeAlarmEditing, true, false)
	case 1:
		b.logger.Info("listing alarms")
		b.report("list alarms", b.d.Store.List())
	case 2:
		b.logger.Info("deleting alarms")
		if err := b.d.Store.DeleteAll(); err != nil {
			b.report("delete alarms", err)
			return
		}
		b.notify(logic.Notice{Type: logic.NoticeAlarmsDeleted})
	case 3:
		b.changeMode(b.fallback, true, false)
	}
}

func (b *Box) alarmEditing(ev logic.ButtonEvent) {
	if ev.Kind == logic.KindShortPress {
		b.report("increment digit", b.d.Editor.Increment(ev.Button))
		return
	}
	ok, err := b.d.Editor.Validate()
	b.report("validate alarm", err)
	d := b.d.Editor.Snapshot()
	if !ok {
		b.notify(logic.Notice{Type: logic.NoticeAlarmRejected, Alarm: &d})
		return
	}
	b.changeMode(logic.ModeAlarmValidation, true, false)
}

func (b *Box) alarmValidation(ev logic.ButtonEvent) {
	if ev.Kind != logic.KindShortPress {
		b.ignore(ev)
		return
	}
	switch ev.Button {
	case 0:
		d := b.d.Editor.Snapshot()
		if _, err := b.d.Store.Insert(d); err != nil {
			b.report("register alarm", err)
			b.report("not set cue", b.d.Speaker.Say(audio.CueAlarmNotSet))
		} else {
			b.counts.AlarmsSet++
			b.notify(logic.Notice{Type: logic.NoticeAlarmSet, Alarm: &d})
		}
		b.changeMode(b.fallback, true, false)
	case 1:
		b.logger.Info("alarm setting restarted")
		b.report("reset editor", b.d.Editor.Reset(false))
		b.changeMode(logic.ModeAlarmEditing, true, false)
	case 2:
		b.report("repeat alarm", b.d.Editor.SpeakTime())
	case 3:
		b.logger.Info("alarm setting abandoned")
		b.changeMode(b.fallback, true, false)
	}
}

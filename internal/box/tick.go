package box

import (
	"errors"
	"time"

	"github.com/sweeney/judsound-box/internal/alarm"
	"github.com/sweeney/judsound-box/internal/logic"
)

// Tick rings the alarms due at now's minute, then follows the day/night
// schedule. It must be called at most once per minute; skipped minutes
// are not caught up.
func (b *Box) Tick(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sweep(now)
	b.autoSwitch(now)
}

func (b *Box) sweep(now time.Time) {
	fired, err := b.d.Store.Sweep(now.Hour(), now.Minute())
	var fe *alarm.FormatError
	if errors.As(err, &fe) {
		b.logger.Error("alarm file unreadable, left untouched", "path", fe.Path, "line", fe.Line, "err", err)
		return
	}
	for i := range fired {
		d := fired[i]
		b.counts.AlarmsFired++
		b.lastFired = &d
		b.lastFiredAt = now
		b.logger.Info("alarm fired", "alarm", d.Clock())
		b.notify(logic.Notice{Type: logic.NoticeAlarmFired, Alarm: &d})
	}
	b.report("sweep alarms", err)
}

// autoSwitch moves an idle playback mode to the context of the hour. It
// never interrupts sound. The alarm modes are left alone and keep their
// stale fallback; the first idle tick after leaving them corrects it.
func (b *Box) autoSwitch(now time.Time) {
	ctx := logic.ContextAt(now.Hour(), b.cfg.DayStart, b.cfg.NightStart)
	target := logic.PlaybackMode(ctx)
	if !b.mode.IsPlayback() || b.mode == target || b.anyPlaying() {
		return
	}
	b.fallback = target
	b.changeMode(target, false, true)
	b.report("volume baseline", b.d.Volume.UseBaseline(ctx))
}

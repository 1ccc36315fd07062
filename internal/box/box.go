// Package box is the mode state machine of the appliance. It resolves
// classified button events against the current mode, drives the editor,
// the alarm store, the volume controller and the players, and runs the
// minute tick that rings alarms and follows the day/night schedule.
package box

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sweeney/judsound-box/internal/alarm"
	"github.com/sweeney/judsound-box/internal/audio"
	"github.com/sweeney/judsound-box/internal/logic"
)

// Playlist is a music output driven by the top buttons.
type Playlist interface {
	Press(index, volume int) error
	Stop()
	IsPlaying() bool
}

// Output reports whether it is producing sound.
type Output interface {
	IsPlaying() bool
}

// Speaker speaks cues and times through the system output.
type Speaker interface {
	alarm.Speaker
	SayAsync(cue audio.Cue) error
}

// Volume is the level state shared by every output.
type Volume interface {
	Music() int
	System() int
	FromPosition(pos int) error
	UseBaseline(ctx logic.Context) error
}

// Notifier receives the notices the box emits. Publish is called with
// the box locked and must not block on the network.
type Notifier interface {
	Publish(n logic.Notice) error
}

// Config holds the behaviour settings of the machine.
type Config struct {
	Cycle         []logic.Mode
	DayStart      int
	NightStart    int
	StartupVolume int
}

// Deps are the collaborators the machine drives.
type Deps struct {
	Night    Playlist
	Day      Playlist
	System   Output
	Volume   Volume
	Speaker  Speaker
	Editor   *alarm.Editor
	Store    *alarm.Store
	Notifier Notifier // optional
	Now      func() time.Time
}

var modeCues = map[logic.Mode]audio.Cue{
	logic.ModePlaybackNight:   audio.CueModeNight,
	logic.ModePlaybackDay:     audio.CueModeDay,
	logic.ModeAlarmMenu:       audio.CueModeAlarm,
	logic.ModeAlarmEditing:    audio.CueModeAlarmSetting,
	logic.ModeAlarmValidation: audio.CueAlarmValidation,
}

// Box is the mode state machine. HandleEvent and Tick are safe to call
// from different goroutines; each runs to completion under one lock.
type Box struct {
	mu     sync.Mutex
	cfg    Config
	d      Deps
	logger *slog.Logger

	mode        logic.Mode
	fallback    logic.Mode
	counts      logic.Counts
	lastFired   *logic.Digits
	lastFiredAt time.Time
}

// New validates cfg and creates a machine. Start must be called before
// events are handled.
func New(cfg Config, d Deps, logger *slog.Logger) (*Box, error) {
	if len(cfg.Cycle) == 0 {
		return nil, errors.New("box: empty mode cycle")
	}
	for _, m := range cfg.Cycle {
		if m.IsSubMode() {
			return nil, fmt.Errorf("box: %s cannot be part of the mode cycle", m)
		}
	}
	if d.Night == nil || d.Day == nil || d.System == nil || d.Volume == nil ||
		d.Speaker == nil || d.Editor == nil || d.Store == nil {
		return nil, errors.New("box: missing dependency")
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Box{cfg: cfg, d: d, logger: logger}, nil
}

// Start picks the initial mode from the time of day, applies its volume
// baselines, plays the start-up jingle and loads the armed alarms.
func (b *Box) Start(now time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.d.Store.Load(); err != nil {
		return fmt.Errorf("load alarms: %w", err)
	}

	ctx := logic.ContextAt(now.Hour(), b.cfg.DayStart, b.cfg.NightStart)
	b.mode = logic.PlaybackMode(ctx)
	b.fallback = b.mode
	if err := b.d.Volume.UseBaseline(ctx); err != nil {
		return fmt.Errorf("apply %s baseline: %w", ctx, err)
	}
	b.report("start jingle", b.d.Speaker.SayAt(audio.CueStart, b.cfg.StartupVolume))
	b.changeMode(b.mode, false, false)

	b.logger.Info("box started", "mode", b.mode, "alarms", len(b.d.Store.All()))
	return nil
}

// Mode returns the current mode.
func (b *Box) Mode() logic.Mode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mode
}

// State returns a point-in-time view for the status surfaces.
func (b *Box) State() logic.State {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := logic.State{
		Mode:         b.mode,
		Fallback:     b.fallback,
		MusicVolume:  b.d.Volume.Music(),
		SystemVolume: b.d.Volume.System(),
		Alarms:       b.d.Store.All(),
		Editing:      b.d.Editor.Snapshot(),
		LastFiredAt:  b.lastFiredAt,
		Counts:       b.counts,
	}
	if b.lastFired != nil {
		d := *b.lastFired
		s.LastFired = &d
	}
	return s
}

// Counts returns the activity counters.
func (b *Box) Counts() logic.Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// changeMode stops both playlists and enters to. Leaving a playback mode
// for the alarm flow records it as the fallback.
func (b *Box) changeMode(to logic.Mode, speak, auto bool) {
	if to == logic.ModeAlarmMenu {
		b.report("reset editor", b.d.Editor.Reset(false))
	}
	if b.mode.IsPlayback() && !to.IsPlayback() {
		b.fallback = b.mode
	}
	b.d.Night.Stop()
	b.d.Day.Stop()

	from := b.mode
	b.mode = to
	if speak {
		b.report("mode cue", b.d.Speaker.SayAsync(modeCues[to]))
	}
	if from == to {
		return
	}
	b.counts.ModeChanges++
	b.logger.Info("mode changed", "from", from, "to", to, "auto", auto)
	b.notify(logic.Notice{Type: logic.NoticeModeChanged, Auto: auto})
}

func (b *Box) notify(n logic.Notice) {
	if b.d.Notifier == nil {
		return
	}
	n.Timestamp = b.d.Now()
	n.Mode = b.mode
	if err := b.d.Notifier.Publish(n); err != nil {
		b.logger.Warn("notice publish failed", "type", n.Type, "err", err)
	}
}

// report logs a failed command. Audio failures abort only that command.
func (b *Box) report(op string, err error) {
	if err == nil {
		return
	}
	var pe *audio.PlaybackError
	if errors.As(err, &pe) {
		b.counts.AudioErrors++
	}
	b.logger.Error(op+" failed", "mode", b.mode, "err", err)
}

func (b *Box) playlist(ctx logic.Context) Playlist {
	if ctx == logic.Day {
		return b.d.Day
	}
	return b.d.Night
}

func (b *Box) anyPlaying() bool {
	return b.d.Night.IsPlaying() || b.d.Day.IsPlaying() || b.d.System.IsPlaying()
}

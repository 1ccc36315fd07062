// Package volume maps the rotary encoder onto output levels and keeps the
// day and night baselines.
package volume

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/sweeney/judsound-box/internal/audio"
	"github.com/sweeney/judsound-box/internal/logic"
)

// ErrBadRange is returned for a non-positive step count or an empty
// level range. Both are configuration faults.
var ErrBadRange = errors.New("invalid volume range")

// LevelFromPosition rescales an encoder position in [-maxPos, maxPos] onto
// [min, max]. The result is truncated and clamped.
func LevelFromPosition(pos, min, max, maxPos int) (int, error) {
	if err := checkRange(min, max, maxPos); err != nil {
		return 0, err
	}
	level := min + (max-min)*(maxPos+pos)/(2*maxPos)
	return clamp(level, min, max), nil
}

// PositionFromLevel is the inverse of LevelFromPosition, rounded to the
// nearest encoder step and clamped to [-maxPos, maxPos].
func PositionFromLevel(level, min, max, maxPos int) (int, error) {
	if err := checkRange(min, max, maxPos); err != nil {
		return 0, err
	}
	pos := float64(level-min)*float64(2*maxPos)/float64(max-min) - float64(maxPos)
	return clamp(int(math.Round(pos)), -maxPos, maxPos), nil
}

func checkRange(min, max, maxPos int) error {
	if maxPos <= 0 {
		return fmt.Errorf("%w: max position %d must be positive", ErrBadRange, maxPos)
	}
	if min >= max {
		return fmt.Errorf("%w: min %d must be below max %d", ErrBadRange, min, max)
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Output is anything whose level the controller drives.
type Output interface {
	SetVolume(level int)
	IsPlaying() bool
}

// Feedback plays the short confirmation tone.
type Feedback interface {
	PlayNamed(cue audio.Cue, volume int, wait bool) error
}

// Positioner is the encoder's stored position, written back on reseed.
type Positioner interface {
	SetPosition(pos int)
}

// SystemOutput is the cue output: driven like the others and used for the
// confirmation tone.
type SystemOutput interface {
	Output
	Feedback
}

// Baseline is the pair of levels swapped in for a day/night context.
type Baseline struct {
	Music  int
	System int
}

// Config holds the bounds and baselines.
type Config struct {
	Min       int
	Max       int
	MaxSteps  int
	Baselines map[logic.Context]Baseline
}

// Controller owns the current music and system levels.
type Controller struct {
	cfg      Config
	music    []Output
	system   Output
	feedback Feedback
	encoder  Positioner
	musicLvl int
	sysLvl   int
	logger   *slog.Logger
}

// NewController validates cfg and creates a controller. system also
// receives the confirmation tone.
func NewController(cfg Config, system SystemOutput, encoder Positioner, logger *slog.Logger, music ...Output) (*Controller, error) {
	if err := checkRange(cfg.Min, cfg.Max, cfg.MaxSteps); err != nil {
		return nil, err
	}
	for _, ctx := range []logic.Context{logic.Day, logic.Night} {
		if _, ok := cfg.Baselines[ctx]; !ok {
			return nil, fmt.Errorf("%w: no %s baseline", ErrBadRange, ctx)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		cfg:      cfg,
		music:    music,
		system:   system,
		feedback: system,
		encoder:  encoder,
		logger:   logger,
	}, nil
}

// Music returns the current music level.
func (c *Controller) Music() int { return c.musicLvl }

// System returns the current system (cue) level.
func (c *Controller) System() int { return c.sysLvl }

// Apply sets every output to level and plays the confirmation tone when
// nothing else is audible.
func (c *Controller) Apply(level int) error {
	level = clamp(level, c.cfg.Min, c.cfg.Max)
	busy := c.anyPlaying()
	c.set(level, level)
	c.logger.Debug("volume applied", "level", level)
	if busy {
		return nil
	}
	return c.feedback.PlayNamed(audio.CueVolume, level, false)
}

// FromPosition applies the level matching an encoder position.
func (c *Controller) FromPosition(pos int) error {
	level, err := LevelFromPosition(pos, c.cfg.Min, c.cfg.Max, c.cfg.MaxSteps)
	if err != nil {
		return err
	}
	return c.Apply(level)
}

// Reseed writes the encoder position matching level back into the input
// device so the next turn continues from there.
func (c *Controller) Reseed(level int) error {
	pos, err := PositionFromLevel(level, c.cfg.Min, c.cfg.Max, c.cfg.MaxSteps)
	if err != nil {
		return err
	}
	if c.encoder != nil {
		c.encoder.SetPosition(pos)
	}
	return nil
}

// UseBaseline swaps in the levels for ctx without the confirmation tone
// and reseeds the encoder from the music level.
func (c *Controller) UseBaseline(ctx logic.Context) error {
	b := c.cfg.Baselines[ctx]
	c.set(clamp(b.Music, c.cfg.Min, c.cfg.Max), clamp(b.System, c.cfg.Min, c.cfg.Max))
	c.logger.Info("volume baseline", "context", ctx, "music", c.musicLvl, "system", c.sysLvl)
	return c.Reseed(c.musicLvl)
}

func (c *Controller) set(music, system int) {
	c.musicLvl = music
	c.sysLvl = system
	for _, o := range c.music {
		o.SetVolume(music)
	}
	c.system.SetVolume(system)
}

func (c *Controller) anyPlaying() bool {
	if c.system.IsPlaying() {
		return true
	}
	for _, o := range c.music {
		if o.IsPlaying() {
			return true
		}
	}
	return false
}

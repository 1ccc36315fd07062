// Package config loads the box configuration from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/sweeney/judsound-box/internal/audio"
	"github.com/sweeney/judsound-box/internal/gpio"
	"github.com/sweeney/judsound-box/internal/logic"
	"github.com/sweeney/judsound-box/internal/volume"
)

const appName = "judsound"

// Config is the complete box configuration, one section per TOML table.
type Config struct {
	Pins     PinsConfig        `koanf:"pins"`
	Rotary   RotaryConfig      `koanf:"rotary"`
	Paths    PathsConfig       `koanf:"paths"`
	Modes    []string          `koanf:"modes"` // mode cycle of the mode button
	Volume   VolumeConfig      `koanf:"volume"`
	Timing   TimingConfig      `koanf:"timing"`
	DayNight DayNightConfig    `koanf:"daynight"`
	Cues     map[string]string `koanf:"cues"` // cue name -> file name in paths.system
	MQTT     MQTTConfig        `koanf:"mqtt"`
	HTTP     HTTPConfig        `koanf:"http"`
	Logging  LoggingConfig     `koanf:"logging"`
}

// PinsConfig holds the BCM offsets of the inputs.
type PinsConfig struct {
	Chip       string `koanf:"chip"`
	Buttons    []int  `koanf:"buttons"` // four top buttons, left to right
	Mode       int    `koanf:"mode"`    // rotary push switch
	CLK        int    `koanf:"clk"`
	DT         int    `koanf:"dt"`
	DebounceMs int    `koanf:"debounce_ms"`
}

// RotaryConfig holds the encoder range.
type RotaryConfig struct {
	MaxSteps int `koanf:"max_steps"` // position range is [-max_steps, max_steps]
}

// PathsConfig holds the asset directories and the alarm file.
type PathsConfig struct {
	MusicNight string `koanf:"music_night"`
	MusicDay   string `koanf:"music_day"`
	System     string `koanf:"system"`
	Alarms     string `koanf:"alarms"`
}

// BaselineConfig is the pair of levels used in one context.
type BaselineConfig struct {
	Music  int `koanf:"music"`
	System int `koanf:"system"`
}

// VolumeConfig holds levels on the 0..100 scale.
type VolumeConfig struct {
	Min         int            `koanf:"min"`
	Max         int            `koanf:"max"`
	Startup     int            `koanf:"startup"`      // start-up jingle
	Alarm       int            `koanf:"alarm"`        // ringing alarms
	HoursOffset int            `koanf:"hours_offset"` // hours are spoken this much louder
	Day         BaselineConfig `koanf:"day"`
	Night       BaselineConfig `koanf:"night"`
}

// TimingConfig holds durations in the units of their key.
type TimingConfig struct {
	HoldMs       int `koanf:"hold_ms"`
	SettleMs     int `koanf:"settle_ms"`
	TickSec      int `koanf:"tick_sec"`
	HeartbeatSec int `koanf:"heartbeat_sec"` // 0 disables
}

// DayNightConfig holds the hours the contexts start at.
type DayNightConfig struct {
	DayStart   int `koanf:"day_start"`
	NightStart int `koanf:"night_start"`
}

// MQTTConfig holds the broker settings. An empty broker disables MQTT.
type MQTTConfig struct {
	Broker   string `koanf:"broker"`
	ClientID string `koanf:"client_id"`
}

// HTTPConfig holds the status server address. Empty disables it.
type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

// LoggingConfig holds the log level (error, warn, info, debug).
type LoggingConfig struct {
	Level string `koanf:"level"`
}

// DefaultModes is the mode cycle used when the file names none.
var DefaultModes = []string{"player_night", "alarm", "player_day"}

// DefaultPath returns $XDG_CONFIG_HOME/judsound/config.toml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

// Default returns the configuration used for keys the file does not set.
// Slices are left empty and filled after loading so a shorter list in the
// file is not merged with the defaults.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Pins: PinsConfig{
			Chip:       "gpiochip0",
			Mode:       gpio.PinMode,
			CLK:        gpio.PinCLK,
			DT:         gpio.PinDT,
			DebounceMs: 100,
		},
		Rotary: RotaryConfig{MaxSteps: 20},
		Paths: PathsConfig{
			MusicNight: filepath.Join(home, "playlist_night"),
			MusicDay:   filepath.Join(home, "playlist_day"),
			System:     filepath.Join(home, "playlist_system"),
			Alarms:     filepath.Join(xdg.DataHome, appName, "alarms"),
		},
		Volume: VolumeConfig{
			Min:         10,
			Max:         100,
			Startup:     50,
			Alarm:       50,
			HoursOffset: 1,
			Day:         BaselineConfig{Music: 50, System: 50},
			Night:       BaselineConfig{Music: 20, System: 30},
		},
		Timing: TimingConfig{
			HoldMs:       2000,
			SettleMs:     200,
			TickSec:      60,
			HeartbeatSec: 900,
		},
		DayNight: DayNightConfig{DayStart: 8, NightStart: 20},
		MQTT:     MQTTConfig{ClientID: "judsound-box"},
		HTTP:     HTTPConfig{Addr: ":80"},
		Logging:  LoggingConfig{Level: "info"},
	}
}

// Load reads path over the defaults and validates the result. An empty
// path means DefaultPath, which may be missing; an explicit path must
// exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	k := koanf.New(".")
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.fill()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) fill() {
	if len(c.Pins.Buttons) == 0 {
		c.Pins.Buttons = append([]int(nil), gpio.DefaultButtons[:]...)
	}
	if len(c.Modes) == 0 {
		c.Modes = append([]string(nil), DefaultModes...)
	}
	c.Paths.MusicNight = expandPath(c.Paths.MusicNight)
	c.Paths.MusicDay = expandPath(c.Paths.MusicDay)
	c.Paths.System = expandPath(c.Paths.System)
	c.Paths.Alarms = expandPath(c.Paths.Alarms)
	c.Logging.Level = strings.ToLower(c.Logging.Level)
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// Validate reports every configuration fault at once.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if len(c.Pins.Buttons) != logic.TopButtons {
		fail("pins.buttons: got %d pins, want %d", len(c.Pins.Buttons), logic.TopButtons)
	}
	if c.Pins.DebounceMs < 0 {
		fail("pins.debounce_ms: must not be negative")
	}
	if c.Rotary.MaxSteps <= 0 {
		fail("rotary.max_steps: must be positive, got %d", c.Rotary.MaxSteps)
	}
	if c.Volume.Min < 0 || c.Volume.Max > 100 || c.Volume.Min >= c.Volume.Max {
		fail("volume: need 0 <= min < max <= 100, got min=%d max=%d", c.Volume.Min, c.Volume.Max)
	}
	if _, err := c.ModeCycle(); err != nil {
		fail("modes: %v", err)
	}
	if !validHour(c.DayNight.DayStart) || !validHour(c.DayNight.NightStart) || c.DayNight.DayStart >= c.DayNight.NightStart {
		fail("daynight: need 0 <= day_start < night_start <= 23, got %d and %d", c.DayNight.DayStart, c.DayNight.NightStart)
	}
	if c.Timing.HoldMs <= 0 || c.Timing.TickSec <= 0 || c.Timing.SettleMs < 0 || c.Timing.HeartbeatSec < 0 {
		fail("timing: hold_ms and tick_sec must be positive, settle_ms and heartbeat_sec not negative")
	}
	for name := range c.Cues {
		if _, err := audio.ParseCue(name); err != nil {
			fail("cues: %v", err)
		}
	}
	if c.Paths.Alarms == "" {
		fail("paths.alarms: must be set")
	}
	switch c.Logging.Level {
	case "error", "warn", "info", "debug":
	default:
		fail("logging.level: unknown level %q", c.Logging.Level)
	}

	return errors.Join(errs...)
}

func validHour(h int) bool { return h >= 0 && h <= 23 }

// ModeCycle parses the configured mode names. Sub-modes and duplicates
// are rejected.
func (c *Config) ModeCycle() ([]logic.Mode, error) {
	if len(c.Modes) == 0 {
		return nil, errors.New("empty mode cycle")
	}
	seen := make(map[logic.Mode]bool)
	cycle := make([]logic.Mode, 0, len(c.Modes))
	for _, name := range c.Modes {
		m, err := logic.ParseMode(name)
		if err != nil {
			return nil, err
		}
		if m.IsSubMode() {
			return nil, fmt.Errorf("%s is not a top-level mode", name)
		}
		if seen[m] {
			return nil, fmt.Errorf("duplicate mode %s", name)
		}
		seen[m] = true
		cycle = append(cycle, m)
	}
	return cycle, nil
}

// GPIO returns the input layer settings.
func (c *Config) GPIO() gpio.Config {
	g := gpio.Config{
		Chip:     c.Pins.Chip,
		Mode:     c.Pins.Mode,
		CLK:      c.Pins.CLK,
		DT:       c.Pins.DT,
		Debounce: time.Duration(c.Pins.DebounceMs) * time.Millisecond,
		Hold:     c.Hold(),
		MaxSteps: c.Rotary.MaxSteps,
	}
	copy(g.Buttons[:], c.Pins.Buttons)
	return g
}

// VolumeSettings returns the volume controller settings.
func (c *Config) VolumeSettings() volume.Config {
	return volume.Config{
		Min:      c.Volume.Min,
		Max:      c.Volume.Max,
		MaxSteps: c.Rotary.MaxSteps,
		Baselines: map[logic.Context]volume.Baseline{
			logic.Day:   {Music: c.Volume.Day.Music, System: c.Volume.Day.System},
			logic.Night: {Music: c.Volume.Night.Music, System: c.Volume.Night.System},
		},
	}
}

// Hold returns the hold threshold.
func (c *Config) Hold() time.Duration {
	return time.Duration(c.Timing.HoldMs) * time.Millisecond
}

// Settle returns the player settle delay.
func (c *Config) Settle() time.Duration {
	return time.Duration(c.Timing.SettleMs) * time.Millisecond
}

// Tick returns the alarm scan interval.
func (c *Config) Tick() time.Duration {
	return time.Duration(c.Timing.TickSec) * time.Second
}

// Heartbeat returns the MQTT heartbeat interval, 0 when disabled.
func (c *Config) Heartbeat() time.Duration {
	return time.Duration(c.Timing.HeartbeatSec) * time.Second
}

// Dump renders the effective configuration as TOML. The tree is read
// back from the koanf tags, so every key Load understands is written.
func (c *Config) Dump() ([]byte, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(c, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("read config struct: %w", err)
	}
	return toml.Parser().Marshal(k.Raw())
}

package audio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

// SampleRate is the rate the shared speaker runs at. Every decoded file is
// resampled to it so music and cues can mix.
const SampleRate beep.SampleRate = 44100

const resampleQuality = 4

var (
	speakerOnce sync.Once
	speakerErr  error
)

func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(SampleRate, SampleRate.N(time.Second/10))
	})
	return speakerErr
}

// BeepDevice plays files through the shared beep speaker. Several devices
// mix on the same speaker, each with its own pause control and volume.
type BeepDevice struct {
	mu       sync.Mutex
	path     string
	streamer beep.StreamSeekCloser
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	level    int
	active   bool
	gen      atomic.Uint64
	finished atomic.Bool
}

// NewBeepDevice creates a device at the given initial level.
func NewBeepDevice(level int) *BeepDevice {
	return &BeepDevice{level: level}
}

// Load stops playback and selects path.
func (d *BeepDevice) Load(path string) error {
	if !isAudioFile(path) {
		return fmt.Errorf("unsupported format: %s", filepath.Ext(path))
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %v", ErrMissingAsset, err)
	}
	d.Stop()
	d.mu.Lock()
	d.path = path
	d.mu.Unlock()
	return nil
}

// Loaded returns the selected file.
func (d *BeepDevice) Loaded() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.path
}

// Play decodes the loaded file and starts it from the beginning.
func (d *BeepDevice) Play() error {
	if err := initSpeaker(); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	d.Stop()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.path == "" {
		return fmt.Errorf("nothing loaded")
	}
	streamer, format, err := decode(d.path)
	if err != nil {
		return err
	}

	var s beep.Streamer = streamer
	if format.SampleRate != SampleRate {
		s = beep.Resample(resampleQuality, format.SampleRate, SampleRate, streamer)
	}
	d.streamer = streamer
	d.ctrl = &beep.Ctrl{Streamer: s}
	d.volume = &effects.Volume{
		Streamer: d.ctrl,
		Base:     2,
		Volume:   levelToVolume(d.level),
		Silent:   d.level <= 0,
	}
	d.active = true
	d.finished.Store(false)

	gen := d.gen.Add(1)
	speaker.Play(beep.Seq(d.volume, beep.Callback(func() {
		if d.gen.Load() == gen {
			d.finished.Store(true)
		}
	})))
	return nil
}

// TogglePause flips the pause state of an active, unfinished stream.
func (d *BeepDevice) TogglePause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active || d.finished.Load() || d.ctrl == nil {
		return
	}
	speaker.Lock()
	d.ctrl.Paused = !d.ctrl.Paused
	speaker.Unlock()
}

// Stop removes the stream from the speaker and releases the decoder.
func (d *BeepDevice) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active {
		return
	}
	d.gen.Add(1)
	speaker.Lock()
	d.ctrl.Streamer = nil
	speaker.Unlock()
	if d.streamer != nil {
		d.streamer.Close()
		d.streamer = nil
	}
	d.ctrl = nil
	d.volume = nil
	d.active = false
}

// IsPlaying reports whether the stream is active, unpaused and unfinished.
func (d *BeepDevice) IsPlaying() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active || d.finished.Load() || d.ctrl == nil {
		return false
	}
	speaker.Lock()
	paused := d.ctrl.Paused
	speaker.Unlock()
	return !paused
}

// SetVolume sets the output level (0..100).
func (d *BeepDevice) SetVolume(level int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.level = level
	if d.volume == nil {
		return
	}
	speaker.Lock()
	d.volume.Volume = levelToVolume(level)
	d.volume.Silent = level <= 0
	speaker.Unlock()
}

func decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("%w: %v", ErrMissingAsset, err)
	}
	var (
		s      beep.StreamSeekCloser
		format beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		s, format, err = mp3.Decode(f)
	case ".wav":
		s, format, err = wav.Decode(f)
	default:
		err = fmt.Errorf("unsupported format: %s", filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return s, format, nil
}

// levelToVolume converts a 0..100 level to beep's base-2 Volume.
// 100 -> 0 (unchanged), 50 -> -1 (half), 25 -> -2, 0 -> -10 (silent).
func levelToVolume(level int) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 100 {
		return 0
	}
	return math.Log2(float64(level) / 100)
}

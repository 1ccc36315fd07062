package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrNoTrack is returned when a button has no track in the playlist.
var ErrNoTrack = errors.New("no such track")

// Timing controls the waits a Player makes around a Device.
type Timing struct {
	// Settle is how long to wait after a pause toggle or play before
	// trusting IsPlaying again.
	Settle time.Duration
	// Poll is the interval used while waiting for a cue to finish.
	Poll time.Duration
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
}

// DefaultTiming matches what slow players need to report state changes.
var DefaultTiming = Timing{Settle: 200 * time.Millisecond, Poll: 200 * time.Millisecond}

// Player drives one Device, either as a music playlist or as the system
// output for cues.
type Player struct {
	name    string
	dev     Device
	tracks  []string
	catalog *Catalog
	timing  Timing
	volume  int
	logger  *slog.Logger
}

// NewPlaylist creates a music player for tracks.
func NewPlaylist(name string, dev Device, tracks []string, timing Timing, logger *slog.Logger) *Player {
	return newPlayer(name, dev, tracks, nil, timing, logger)
}

// NewSystem creates the cue player.
func NewSystem(name string, dev Device, catalog *Catalog, timing Timing, logger *slog.Logger) *Player {
	return newPlayer(name, dev, nil, catalog, timing, logger)
}

func newPlayer(name string, dev Device, tracks []string, catalog *Catalog, timing Timing, logger *slog.Logger) *Player {
	if timing.Sleep == nil {
		timing.Sleep = time.Sleep
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		name:    name,
		dev:     dev,
		tracks:  tracks,
		catalog: catalog,
		timing:  timing,
		logger:  logger.With("output", name),
	}
}

// Name returns the output name used in logs.
func (p *Player) Name() string { return p.name }

// Tracks returns the number of playlist tracks.
func (p *Player) Tracks() int { return len(p.tracks) }

// Volume returns the last level pushed to the device.
func (p *Player) Volume() int { return p.volume }

// PlayNamed plays a cue at volume. With wait it returns only once the cue
// is no longer audible.
func (p *Player) PlayNamed(cue Cue, volume int, wait bool) error {
	if p.catalog == nil {
		return &PlaybackError{Output: p.name, Op: "play", Asset: cue.Name(), Err: ErrMissingAsset}
	}
	path, err := p.catalog.Path(cue)
	if err != nil {
		return &PlaybackError{Output: p.name, Op: "play", Asset: cue.Name(), Err: err}
	}
	p.logger.Debug("play cue", "cue", cue.Name(), "volume", volume, "wait", wait)
	p.SetVolume(volume)
	if err := p.dev.Load(path); err != nil {
		return &PlaybackError{Output: p.name, Op: "load", Asset: path, Err: err}
	}
	if err := p.dev.Play(); err != nil {
		return &PlaybackError{Output: p.name, Op: "play", Asset: path, Err: err}
	}
	if wait {
		p.WaitDone()
	}
	return nil
}

// PlayIndexed starts playlist track index from the beginning.
func (p *Player) PlayIndexed(index, volume int) error {
	path, err := p.track(index)
	if err != nil {
		return err
	}
	p.dev.Stop()
	if err := p.dev.Load(path); err != nil {
		return &PlaybackError{Output: p.name, Op: "load", Asset: path, Err: err}
	}
	if err := p.dev.Play(); err != nil {
		return &PlaybackError{Output: p.name, Op: "play", Asset: path, Err: err}
	}
	p.SetVolume(volume)
	return nil
}

// Press handles a top button in playback mode: start the track, or toggle
// pause when it is already loaded. A finished track looks the same as a
// paused one before the toggle, so if toggling produced no sound from a
// silent state the track is replayed from the beginning.
func (p *Player) Press(index, volume int) error {
	path, err := p.track(index)
	if err != nil {
		return err
	}
	if p.dev.Loaded() != path {
		p.logger.Info("start track", "track", index)
		return p.PlayIndexed(index, volume)
	}

	wasPlaying := p.dev.IsPlaying()
	p.dev.TogglePause()
	p.timing.Sleep(p.timing.Settle)
	if !wasPlaying && !p.dev.IsPlaying() {
		p.logger.Info("replay track from beginning", "track", index)
		p.dev.Stop()
		if err := p.dev.Play(); err != nil {
			return &PlaybackError{Output: p.name, Op: "replay", Asset: path, Err: err}
		}
	} else {
		p.logger.Info("pause or resume track", "track", index, "was_playing", wasPlaying)
	}
	p.SetVolume(volume)
	return nil
}

// PauseOrResume toggles the current media.
func (p *Player) PauseOrResume() {
	p.dev.TogglePause()
}

// Stop halts playback.
func (p *Player) Stop() {
	p.dev.Stop()
}

// IsPlaying reports whether the output is producing sound.
func (p *Player) IsPlaying() bool {
	return p.dev.IsPlaying()
}

// SetVolume pushes level to the device.
func (p *Player) SetVolume(level int) {
	p.volume = level
	p.dev.SetVolume(level)
}

// WaitDone blocks until the device stops producing sound.
func (p *Player) WaitDone() {
	p.timing.Sleep(p.timing.Settle)
	for p.dev.IsPlaying() {
		p.timing.Sleep(p.timing.Poll)
	}
}

func (p *Player) track(index int) (string, error) {
	if index < 0 || index >= len(p.tracks) {
		return "", &PlaybackError{Output: p.name, Op: "select", Err: fmt.Errorf("%w: %d of %d", ErrNoTrack, index, len(p.tracks))}
	}
	return p.tracks[index], nil
}

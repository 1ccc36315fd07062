package alarm

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sweeney/judsound-box/internal/audio"
	"github.com/sweeney/judsound-box/internal/logic"
)

// FormatError reports a malformed line in the alarm file. The file is
// left untouched so no armed alarm is silently lost.
type FormatError struct {
	Path string
	Line int
	Want int
	Got  int
	Err  error
}

func (e *FormatError) Error() string {
	if e.Got != e.Want {
		return fmt.Sprintf("alarm file %s line %d: size mismatch: %d characters instead of %d", e.Path, e.Line, e.Got, e.Want)
	}
	return fmt.Sprintf("alarm file %s line %d: %v", e.Path, e.Line, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Store is the set of armed alarms backed by a plain-text file with one
// HHMM line per alarm, sorted ascending.
type Store struct {
	path       string
	alarms     []logic.Digits
	speaker    Speaker
	ringVolume int
	logger     *slog.Logger
}

// NewStore creates a store for path. Fired alarms ring at ringVolume.
func NewStore(path string, speaker Speaker, ringVolume int, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, speaker: speaker, ringVolume: ringVolume, logger: logger}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// All returns a copy of the alarms as last loaded or written.
func (s *Store) All() []logic.Digits {
	out := make([]logic.Digits, len(s.alarms))
	copy(out, s.alarms)
	return out
}

// Load replaces the in-memory set with the file's content. A missing file
// means no alarms.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.alarms = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("read alarms: %w", err)
	}

	var alarms []logic.Digits
	sc := bufio.NewScanner(bytes.NewReader(data))
	// Any line fits, so an oversize one is reported as a FormatError.
	sc.Buffer(make([]byte, 0, 64), len(data)+1)
	line := 0
	for sc.Scan() {
		line++
		d, n, err := logic.ParseDigits(strings.TrimSpace(sc.Text()))
		if err != nil {
			return &FormatError{Path: s.path, Line: line, Want: logic.DigitCount, Got: n, Err: err}
		}
		alarms = append(alarms, d)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read alarms: %w", err)
	}
	s.alarms = alarms
	return nil
}

// Save sorts the alarms and rewrites the file.
func (s *Store) Save() error {
	sort.Slice(s.alarms, func(i, j int) bool { return s.alarms[i].Less(s.alarms[j]) })

	var buf bytes.Buffer
	for _, d := range s.alarms {
		buf.WriteString(d.String())
		buf.WriteByte('\n')
	}
	return s.write(buf.Bytes())
}

// write replaces the file through a temp file in the same directory.
func (s *Store) write(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("write alarms: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("write alarms: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write alarms: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write alarms: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write alarms: %w", err)
	}
	return nil
}

func (s *Store) contains(d logic.Digits) bool {
	for _, a := range s.alarms {
		if a == d {
			return true
		}
	}
	return false
}

// Insert adds d unless already armed, saves, then announces "set" and the
// time. It reports whether d was new.
func (s *Store) Insert(d logic.Digits) (bool, error) {
	if err := s.Load(); err != nil {
		return false, err
	}
	added := !s.contains(d)
	if added {
		s.alarms = append(s.alarms, d)
	}
	if err := s.Save(); err != nil {
		if added {
			s.alarms = s.alarms[:len(s.alarms)-1]
		}
		return false, err
	}
	s.logger.Info("alarm saved", "alarm", d.Clock(), "new", added, "count", len(s.alarms))

	if err := s.speaker.Say(audio.CueAlarmSet); err != nil {
		return added, err
	}
	return added, s.speaker.SayTime(d.Hour(), d.Minute())
}

// DeleteAll disarms every alarm and truncates the file.
func (s *Store) DeleteAll() error {
	s.alarms = nil
	if err := s.write(nil); err != nil {
		return err
	}
	s.logger.Info("alarms deleted")
	return s.speaker.Say(audio.CueAlarmsDeleted)
}

// List reloads and speaks every alarm, or "none", then the menu reminder.
func (s *Store) List() error {
	if err := s.Load(); err != nil {
		return err
	}
	if len(s.alarms) == 0 {
		if err := s.speaker.Say(audio.CueAlarmNone); err != nil {
			return err
		}
	} else {
		if err := s.speaker.Say(audio.CueAlarmsList); err != nil {
			return err
		}
		for _, d := range s.alarms {
			if err := s.speaker.SayTime(d.Hour(), d.Minute()); err != nil {
				return err
			}
		}
	}
	return s.speaker.Say(audio.CueAlarmValidation)
}

// Sweep fires and removes the alarms due at hour:minute. It must run at
// most once per minute for each alarm to fire exactly once; a skipped
// minute is not caught up. Due alarms ring before the file is rewritten,
// so a failed save never silences them; fired alarms are returned
// together with any save or ring error.
func (s *Store) Sweep(hour, minute int) ([]logic.Digits, error) {
	if err := s.Load(); err != nil {
		return nil, err
	}
	var fired, kept []logic.Digits
	for _, d := range s.alarms {
		if d.Matches(hour, minute) {
			fired = append(fired, d)
		} else {
			kept = append(kept, d)
		}
	}

	var ringErr error
	for _, d := range fired {
		s.logger.Info("alarm ringing", "alarm", d.Clock())
		if err := s.speaker.SayAt(audio.CueRing, s.ringVolume); err != nil && ringErr == nil {
			ringErr = err
		}
	}

	loaded := s.alarms
	s.alarms = kept
	saveErr := s.Save()
	if saveErr != nil {
		s.alarms = loaded
	}
	return fired, errors.Join(saveErr, ringErr)
}

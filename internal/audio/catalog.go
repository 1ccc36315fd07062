package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrMissingAsset is returned when a cue or track file cannot be found.
var ErrMissingAsset = errors.New("missing audio asset")

// Catalog maps every Cue to an asset file in the system sound directory.
type Catalog struct {
	dir   string
	files map[Cue]string
}

// NewCatalog builds the cue catalog for dir. files overrides the default
// file name of a cue by its name. Every cue must resolve to an existing
// file; unknown override keys are rejected.
func NewCatalog(dir string, files map[string]string) (*Catalog, error) {
	c := &Catalog{dir: dir, files: make(map[Cue]string)}
	for _, cue := range AllCues() {
		c.files[cue] = filepath.Join(dir, cue.DefaultFile())
	}
	for name, file := range files {
		cue, err := ParseCue(name)
		if err != nil {
			return nil, fmt.Errorf("cue override: %w", err)
		}
		c.files[cue] = filepath.Join(dir, file)
	}

	var missing []string
	for _, cue := range AllCues() {
		if _, err := os.Stat(c.files[cue]); err != nil {
			missing = append(missing, cue.Name()+"="+filepath.Base(c.files[cue]))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w in %s: %s", ErrMissingAsset, dir, strings.Join(missing, ", "))
	}
	return c, nil
}

// Path returns the asset file for cue.
func (c *Catalog) Path(cue Cue) (string, error) {
	p, ok := c.files[cue]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingAsset, cue.Name())
	}
	return p, nil
}

// ListTracks returns the playable files (mp3, wav) of dir sorted by name.
// Only the first TopButtons entries are reachable from the buttons, the rest
// are still listed so the order stays predictable.
func ListTracks(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	var tracks []string
	for _, e := range entries {
		if e.IsDir() || !isAudioFile(e.Name()) {
			continue
		}
		tracks = append(tracks, filepath.Join(dir, e.Name()))
	}
	return tracks, nil
}

func isAudioFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3", ".wav":
		return true
	}
	return false
}

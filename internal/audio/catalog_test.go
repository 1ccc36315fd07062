package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCueNames(t *testing.T) {
	assert.Equal(t, "start", CueStart.Name())
	assert.Equal(t, "alarm_setting", CueModeAlarmSetting.Name())
	assert.Equal(t, "00", NumberCue(0).Name())
	assert.Equal(t, "59", NumberCue(59).Name())
	assert.True(t, NumberCue(7).IsNumber())
	assert.False(t, CueVolume.IsNumber())
	assert.Len(t, AllCues(), int(namedCueCount)+Numbers)

	for _, c := range AllCues() {
		got, err := ParseCue(c.Name())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseCue("nope")
	assert.Error(t, err)
}

func TestCueDefaultFiles(t *testing.T) {
	assert.Equal(t, "07.mp3", NumberCue(7).DefaultFile())
	assert.Equal(t, "start.wav", CueRing.DefaultFile())
	assert.Equal(t, "alarms_deleted.wav", CueAlarmsDeleted.DefaultFile())
}

func TestNewCatalogMissingAsset(t *testing.T) {
	dir := t.TempDir()
	writeAssets(t, dir, "start.wav")

	_, err := NewCatalog(dir, nil)

	require.ErrorIs(t, err, ErrMissingAsset)
	assert.Contains(t, err.Error(), "volume=volume.wav")
}

func TestNewCatalogOverrides(t *testing.T) {
	dir := t.TempDir()
	writeAssets(t, dir, allDefaultAssets()...)
	writeAssets(t, dir, "bell.mp3")

	cat, err := NewCatalog(dir, map[string]string{"ring": "bell.mp3"})
	require.NoError(t, err)

	p, err := cat.Path(CueRing)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bell.mp3"), p)
}

func TestNewCatalogUnknownOverride(t *testing.T) {
	dir := t.TempDir()
	writeAssets(t, dir, allDefaultAssets()...)

	_, err := NewCatalog(dir, map[string]string{"klaxon": "k.wav"})
	assert.Error(t, err)
}

func TestListTracks(t *testing.T) {
	dir := t.TempDir()
	writeAssets(t, dir, "02-rain.mp3", "01-waves.wav", "cover.jpg", "03-wind.MP3", "notes.txt")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.mp3"), 0o755))

	tracks, err := ListTracks(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "01-waves.wav"),
		filepath.Join(dir, "02-rain.mp3"),
		filepath.Join(dir, "03-wind.MP3"),
	}, tracks)
}

func TestListTracksMissingDir(t *testing.T) {
	_, err := ListTracks(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestLevelToVolume(t *testing.T) {
	assert.Equal(t, -10.0, levelToVolume(0))
	assert.Equal(t, 0.0, levelToVolume(100))
	assert.Equal(t, 0.0, levelToVolume(150))
	assert.InDelta(t, -1.0, levelToVolume(50), 1e-9)
	assert.InDelta(t, -2.0, levelToVolume(25), 1e-9)
}

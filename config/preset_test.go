package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"syncloop/model"
)

const demoPreset = `
name: hues
surface: main
song:
  file: loop.mp3
  beats_per_loop: 32
animation:
  pattern: "frames/%FRAME%.png"
  frames: 16
  beats_per_loop: 16
  sync_offset: -2
`

func TestParsePreset(t *testing.T) {
	l, err := ParsePreset([]byte(demoPreset))
	require.NoError(t, err)
	assert.Equal(t, "hues", l.Name)
	assert.Equal(t, 32, l.Song.BeatsPerLoop)
	assert.Equal(t, 16, l.Animation.Frames)
	assert.Equal(t, -2, l.Animation.SyncOffset)
}

func TestParsePresetRejectsInvalid(t *testing.T) {
	_, err := ParsePreset([]byte("name: x\nsong: {file: a.mp3, beats_per_loop: 4}\nanimation: {pattern: f%FRAME%.png, frames: 0, beats_per_loop: 4}\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidLoop))

	_, err = ParsePreset([]byte("song: [not, a, map]"))
	assert.Error(t, err)
}

func TestSaveAndLoadPreset(t *testing.T) {
	l, err := ParsePreset([]byte(demoPreset))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "hues.yaml")
	require.NoError(t, SavePreset(path, l))

	back, err := LoadPreset(path)
	require.NoError(t, err)
	assert.Equal(t, l, back)
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("SYNCLOOP_TEST_INT", "7")
	t.Setenv("SYNCLOOP_TEST_BAD", "seven")
	t.Setenv("SYNCLOOP_TEST_DUR", "250ms")
	assert.Equal(t, 7, getEnvInt("SYNCLOOP_TEST_INT", 1))
	assert.Equal(t, 1, getEnvInt("SYNCLOOP_TEST_BAD", 1))
	assert.Equal(t, "250ms", getEnvDuration("SYNCLOOP_TEST_DUR", 0).String())
	assert.True(t, getEnvBool("SYNCLOOP_TEST_MISSING", true))

	t.Setenv("SYNCLOOP_TEST_LIST", " https://a.example, ,https://b.example ")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, getEnvList("SYNCLOOP_TEST_LIST"))
	assert.Empty(t, getEnvList("SYNCLOOP_TEST_MISSING"))
}

// Package playback defines the audio player contract and the headless,
// wall-clock driven player.
package playback

import (
	"errors"
	"time"
)

// ErrUnknownLength is returned when a loop's length cannot be determined.
var ErrUnknownLength = errors.New("loop length unknown")

// Track is a decoded, playable song.
type Track interface {
	Length() time.Duration
}

// Player is the audio player collaborator. IsPlaying and LoopProgress are
// read on every display tick and must be cheap.
type Player interface {
	Load(data []byte) (Track, error)
	// Play starts looping t and calls onStarted once audio is running.
	Play(t Track, onStarted func()) error
	IsPlaying() bool
	// LoopProgress is the elapsed fraction of the current loop, in [0,1).
	LoopProgress() float64
	AdjustVolume(delta float64)
	ToggleMute()
}

// LoopFraction maps an ever-increasing playback position onto [0,1) of a
// loop of the given length.
func LoopFraction(position, length time.Duration) float64 {
	if length <= 0 || position < 0 {
		return 0
	}
	f := float64(position%length) / float64(length)
	if f >= 1 {
		return 0
	}
	return f
}

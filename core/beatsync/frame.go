// Package beatsync maps the audio loop clock onto animation frames and
// redraws the display surface when the mapped frame changes.
package beatsync

import (
	"math"

	"syncloop/model"
)

// NoFrame is the last-drawn index before anything has been drawn.
const NoFrame = -1

// FrameIndex returns the frame that belongs to loopProgress, a fraction in
// [0,1) of the current audio loop. The result is always in [0, frames).
//
//	songBeat     = songBeats * loopProgress
//	animProgress = frames / animBeats * songBeat
//	frame        = floorMod(floor(animProgress) + offset, frames)
func FrameIndex(anim model.Animation, songBeatsPerLoop int, loopProgress float64) int {
	songBeat := float64(songBeatsPerLoop) * loopProgress
	animProgress := float64(anim.Frames) / float64(anim.BeatsPerLoop) * songBeat
	frame := int(math.Floor(animProgress)) + anim.SyncOffset
	return FloorMod(frame, anim.Frames)
}

// FloorMod is a modulo whose result takes the sign of n, so negative a wraps
// into [0, n).
func FloorMod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

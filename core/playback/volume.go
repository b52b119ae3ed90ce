package playback

// DefaultVolumeStep is the change applied by one volume key press.
const DefaultVolumeStep = 0.1

// Volume is a level in [0,1] with a mute switch that remembers the level.
type Volume struct {
	level float64
	muted bool
}

// NewVolume returns an unmuted volume at level, clamped.
func NewVolume(level float64) Volume {
	return Volume{level: clamp01(level)}
}

// Adjust moves the level by delta and unmutes.
func (v *Volume) Adjust(delta float64) {
	v.level = clamp01(v.level + delta)
	v.muted = false
}

func (v *Volume) ToggleMute() {
	v.muted = !v.muted
}

func (v Volume) Muted() bool {
	return v.muted
}

func (v Volume) Level() float64 {
	return v.level
}

// Effective is the level to hand to the audio output.
func (v Volume) Effective() float64 {
	if v.muted {
		return 0
	}
	return v.level
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

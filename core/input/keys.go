// Package input maps raw key codes onto playback actions.
package input

// KeyCode is a DOM-style key code, the form remote clients send.
type KeyCode int

const (
	KeyNumpadSubtract KeyCode = 109
	KeyMinus          KeyCode = 189
	KeyMinusLegacy    KeyCode = 173
	KeyNumpadAdd      KeyCode = 107
	KeyEqual          KeyCode = 187
	KeyEqualLegacy    KeyCode = 61
	KeyM              KeyCode = 77
)

// Modifiers are the modifier keys held with a key press.
type Modifiers struct {
	Alt, Ctrl, Meta, Shift bool
}

// Any reports whether any modifier is held.
func (m Modifiers) Any() bool {
	return m.Alt || m.Ctrl || m.Meta || m.Shift
}

// Action is what a recognised key does.
type Action int

const (
	None Action = iota
	VolumeDown
	VolumeUp
	ToggleMute
)

func (a Action) String() string {
	switch a {
	case VolumeDown:
		return "volume-down"
	case VolumeUp:
		return "volume-up"
	case ToggleMute:
		return "toggle-mute"
	}
	return "none"
}

// Resolve maps a key press to an action. Presses carrying a modifier are
// never consumed so host shortcuts keep working; unknown keys pass through.
func Resolve(code KeyCode, mods Modifiers) (Action, bool) {
	if mods.Any() {
		return None, false
	}
	switch code {
	case KeyNumpadSubtract, KeyMinus, KeyMinusLegacy:
		return VolumeDown, true
	case KeyNumpadAdd, KeyEqual, KeyEqualLegacy:
		return VolumeUp, true
	case KeyM:
		return ToggleMute, true
	}
	return None, false
}

// VolumeControl is the slice of the audio player that key actions drive.
type VolumeControl interface {
	AdjustVolume(delta float64)
	ToggleMute()
}

// Apply performs action on vc using step for volume changes.
func Apply(action Action, vc VolumeControl, step float64) {
	switch action {
	case VolumeDown:
		vc.AdjustVolume(-step)
	case VolumeUp:
		vc.AdjustVolume(step)
	case ToggleMute:
		vc.ToggleMute()
	}
}

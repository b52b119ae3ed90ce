package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// FramePlaceholder is replaced by the 1-indexed frame number in Animation.Pattern.
const FramePlaceholder = "%FRAME%"

// ErrInvalidLoop marks a loop description that cannot be played.
var ErrInvalidLoop = errors.New("invalid loop")

// Song describes the looping audio track.
type Song struct {
	File         string  `yaml:"file" json:"file"`
	BeatsPerLoop int     `yaml:"beats_per_loop" json:"beatsPerLoop"`
	LoopSeconds  float64 `yaml:"loop_seconds,omitempty" json:"loopSeconds,omitempty"` // overrides the decoded length when > 0
}

// Animation describes the frame sequence drawn over the song.
type Animation struct {
	Pattern      string `yaml:"pattern" json:"pattern"`
	Frames       int    `yaml:"frames" json:"frames"`
	BeatsPerLoop int    `yaml:"beats_per_loop" json:"beatsPerLoop"`
	SyncOffset   int    `yaml:"sync_offset,omitempty" json:"syncOffset,omitempty"`
}

// Loop is a complete presentation: one song and one animation.
type Loop struct {
	Name      string    `yaml:"name" json:"name"`
	Surface   string    `yaml:"surface,omitempty" json:"surface,omitempty"`
	Song      Song      `yaml:"song" json:"song"`
	Animation Animation `yaml:"animation" json:"animation"`
}

// Validate rejects loops that would fault the frame formula or the preloader.
func (l Loop) Validate() error {
	switch {
	case l.Song.File == "":
		return fmt.Errorf("%w: song file is empty", ErrInvalidLoop)
	case l.Song.BeatsPerLoop <= 0:
		return fmt.Errorf("%w: song beats per loop must be positive, got %d", ErrInvalidLoop, l.Song.BeatsPerLoop)
	case l.Song.LoopSeconds < 0:
		return fmt.Errorf("%w: song loop seconds must not be negative", ErrInvalidLoop)
	case l.Animation.Pattern == "":
		return fmt.Errorf("%w: animation pattern is empty", ErrInvalidLoop)
	case l.Animation.Frames < 1:
		return fmt.Errorf("%w: animation needs at least one frame, got %d", ErrInvalidLoop, l.Animation.Frames)
	case l.Animation.BeatsPerLoop <= 0:
		return fmt.Errorf("%w: animation beats per loop must be positive, got %d", ErrInvalidLoop, l.Animation.BeatsPerLoop)
	case l.Animation.Frames > 1 && !strings.Contains(l.Animation.Pattern, FramePlaceholder):
		return fmt.Errorf("%w: animation pattern %q has no %s placeholder", ErrInvalidLoop, l.Animation.Pattern, FramePlaceholder)
	}
	return nil
}

// ResourceCount is the number of preload slots: every frame plus the song.
func (l Loop) ResourceCount() int {
	return l.Animation.Frames + 1
}

// SurfaceName returns the display surface identifier, falling back to the loop name.
func (l Loop) SurfaceName() string {
	if l.Surface != "" {
		return l.Surface
	}
	if l.Name != "" {
		return l.Name
	}
	return "syncloop"
}

// SongURL resolves the song locator against base.
func (l Loop) SongURL(base string) string {
	return Resolve(base, l.Song.File)
}

// FrameURL resolves the locator of zero-based frame index against base.
// File names are 1-indexed.
func (l Loop) FrameURL(base string, index int) string {
	name := strings.ReplaceAll(l.Animation.Pattern, FramePlaceholder, strconv.Itoa(index+1))
	return Resolve(base, name)
}

// Resolve joins a relative locator onto an asset base. Absolute locators
// (with a scheme or a leading slash) are returned unchanged.
func Resolve(base, ref string) string {
	if ref == "" || IsRemote(ref) || strings.HasPrefix(ref, "/") || base == "" {
		return ref
	}
	if IsRemote(base) {
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
	}
	return filepath.Join(base, filepath.FromSlash(ref))
}

// IsRemote reports whether a locator carries a URL scheme.
func IsRemote(ref string) bool {
	i := strings.Index(ref, "://")
	if i <= 0 {
		return false
	}
	for _, r := range ref[:i] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}

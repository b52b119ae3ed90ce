package model

import "time"

// Preset is a named Loop stored in the preset catalog.
type Preset struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"name"`
	Surface         string    `gorm:"type:varchar(128)" json:"surface"`
	SongFile        string    `gorm:"type:varchar(512);not null" json:"songFile"`
	SongBeats       int       `gorm:"not null" json:"songBeats"`
	SongLoopSeconds float64   `json:"songLoopSeconds"`
	FramePattern    string    `gorm:"type:varchar(512);not null" json:"framePattern"`
	FrameCount      int       `gorm:"not null" json:"frameCount"`
	AnimBeats       int       `gorm:"not null" json:"animBeats"`
	SyncOffset      int       `json:"syncOffset"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// TableName pins the table name used by gorm.
func (Preset) TableName() string {
	return "loop_presets"
}

// Loop converts the row into a playable loop.
func (p *Preset) Loop() Loop {
	return Loop{
		Name:    p.Name,
		Surface: p.Surface,
		Song: Song{
			File:         p.SongFile,
			BeatsPerLoop: p.SongBeats,
			LoopSeconds:  p.SongLoopSeconds,
		},
		Animation: Animation{
			Pattern:      p.FramePattern,
			Frames:       p.FrameCount,
			BeatsPerLoop: p.AnimBeats,
			SyncOffset:   p.SyncOffset,
		},
	}
}

// PresetFromLoop builds a catalog row for l.
func PresetFromLoop(l Loop) *Preset {
	return &Preset{
		Name:            l.Name,
		Surface:         l.Surface,
		SongFile:        l.Song.File,
		SongBeats:       l.Song.BeatsPerLoop,
		SongLoopSeconds: l.Song.LoopSeconds,
		FramePattern:    l.Animation.Pattern,
		FrameCount:      l.Animation.Frames,
		AnimBeats:       l.Animation.BeatsPerLoop,
		SyncOffset:      l.Animation.SyncOffset,
	}
}

package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"syncloop/model"
)

// PresetRepository is the preset catalog.
type PresetRepository interface {
	// Save inserts p, or replaces the preset with the same name.
	Save(ctx context.Context, p *model.Preset) error
	// GetByName returns nil, nil when no preset has that name.
	GetByName(ctx context.Context, name string) (*model.Preset, error)
	List(ctx context.Context) ([]*model.Preset, error)
	// Delete reports whether a preset was removed.
	Delete(ctx context.Context, name string) (bool, error)
}

type gormPresetRepository struct {
	db *gorm.DB
}

// NewGormPresetRepository creates a catalog over db.
func NewGormPresetRepository(db *gorm.DB) PresetRepository {
	return &gormPresetRepository{db: db}
}

func (r *gormPresetRepository) Save(ctx context.Context, p *model.Preset) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"surface", "song_file", "song_beats", "song_loop_seconds",
				"frame_pattern", "frame_count", "anim_beats", "sync_offset", "updated_at",
			}),
		}).
		Create(p).Error
}

func (r *gormPresetRepository) GetByName(ctx context.Context, name string) (*model.Preset, error) {
	var p model.Preset
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *gormPresetRepository) List(ctx context.Context) ([]*model.Preset, error) {
	var presets []*model.Preset
	err := r.db.WithContext(ctx).Order("name ASC").Find(&presets).Error
	return presets, err
}

func (r *gormPresetRepository) Delete(ctx context.Context, name string) (bool, error) {
	res := r.db.WithContext(ctx).Where("name = ?", name).Delete(&model.Preset{})
	return res.RowsAffected > 0, res.Error
}

package storage

import (
	"context"
	"errors"

	"timefilter/internal/models"
)

var ErrNotFound = errors.New("preset not found")

// PresetStore persists named time presets. Save replaces any preset with the same name.
type PresetStore interface {
	List(ctx context.Context) ([]models.TimePreset, error)
	Get(ctx context.Context, name string) (models.TimePreset, error)
	Save(ctx context.Context, preset models.TimePreset) error
	Delete(ctx context.Context, name string) error
	Close()
}

package storage

import (
	"context"
	"fmt"

	"timefilter/internal/config"
)

// Open builds the store selected by cfg.Driver
func Open(ctx context.Context, cfg config.StorageConfig) (PresetStore, error) {
	switch cfg.Driver {
	case config.StorageFile:
		return NewFileStore(cfg.Path)
	case config.StoragePostgres:
		return NewPostgresStore(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

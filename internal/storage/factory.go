package storage

import (
	"Go_Attach/config"
	"context"
	"fmt"
)

// New builds the backend selected by cfg.Kind.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Kind {
	case config.BackendLocal:
		store, err = NewLocalStore(cfg)
	case config.BackendGCS:
		store, err = NewGCSStore(ctx, cfg)
	case config.BackendS3:
		store, err = InitMinio(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s storage: %w", cfg.Kind, err)
	}
	return store, nil
}

// InitStore builds and instruments the backend.
func InitStore(ctx context.Context, cfg config.StorageConfig, observer Observer) (Store, error) {
	store, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return Instrument(store, observer), nil
}

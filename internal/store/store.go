// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package store persists recording configurations. Job state is runtime-only
// and never goes through a store.
package store

import (
	"context"
	"errors"

	"github.com/ManuGH/multirec/internal/config"
)

// ErrNotFound is returned when a configuration ID is unknown.
var ErrNotFound = errors.New("configuration not found")

// ConfigStore is the asset-store abstraction for recording configurations.
type ConfigStore interface {
	Save(ctx context.Context, cfg *config.RecordingConfiguration) error
	Load(ctx context.Context, id string) (*config.RecordingConfiguration, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

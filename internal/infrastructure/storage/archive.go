package storage

import (
	"context"

	"go.uber.org/zap"

	infraconfig "github.com/coltrade/backend/internal/infrastructure/config"
)

// NewExportArchive returns an S3 archive when a bucket is configured and a
// DisabledArchive otherwise.
func NewExportArchive(cfg infraconfig.StorageConfig, logger *zap.Logger) (ExportArchive, error) {
	if !cfg.Enabled() {
		return DisabledArchive{}, nil
	}
	return NewS3ExportArchive(&cfg, WithLogger(logger))
}

// DisabledArchive is used when no bucket is configured
type DisabledArchive struct{}

// Archive does nothing
func (DisabledArchive) Archive(context.Context, string, string, []byte) (*ArchivedObject, error) {
	return nil, nil
}

var _ ExportArchive = DisabledArchive{}

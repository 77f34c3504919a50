// Package export packages generated files for download and keeps an
// archived copy when object storage is configured.
package export

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/coltrade/backend/internal/infrastructure/spreadsheet"
	"github.com/coltrade/backend/internal/infrastructure/storage"
)

// Content types of generated files
const (
	ContentTypeJSON = "application/json"
	ContentTypeXLSX = spreadsheet.ContentTypeXLSX
)

// TimestampLayout is appended to collection export names
const TimestampLayout = "20060102_150405"

// File is a generated download
type File struct {
	Name        string
	ContentType string
	Data        []byte
	// ArchiveURL is a presigned link to the archived copy, empty when
	// archiving is disabled or failed.
	ArchiveURL string
}

// Publisher wraps generated bytes into a File
type Publisher struct {
	archive storage.ExportArchive
	logger  *zap.Logger
}

// NewPublisher creates a publisher. A nil archive disables archiving.
func NewPublisher(archive storage.ExportArchive, logger *zap.Logger) *Publisher {
	if archive == nil {
		archive = storage.DisabledArchive{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{archive: archive, logger: logger}
}

// Publish returns the download. Archive failures are logged and never fail
// the download itself.
func (p *Publisher) Publish(ctx context.Context, name, contentType string, data []byte) *File {
	file := &File{Name: name, ContentType: contentType, Data: data}

	obj, err := p.archive.Archive(ctx, name, contentType, data)
	if err != nil {
		p.logger.Warn("failed to archive export",
			zap.String("file", name),
			zap.Error(err))
		return file
	}
	if obj != nil {
		file.ArchiveURL = obj.URL
	}
	return file
}

// StampedName returns "<stem>_<YYYYmmdd_HHMMSS>.<ext>"
func StampedName(stem, ext string, at time.Time) string {
	return fmt.Sprintf("%s_%s.%s", stem, at.Format(TimestampLayout), ext)
}

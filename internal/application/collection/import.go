package collection

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/coltrade/backend/internal/domain/collection"
	"github.com/coltrade/backend/internal/domain/shared"
	"github.com/coltrade/backend/internal/infrastructure/spreadsheet"
	"github.com/coltrade/backend/internal/infrastructure/telemetry"
)

// Import appends the rows of an uploaded xlsx, csv or json file. Columns
// are matched through the alias table of the collection. Rows missing a
// required field are reported, unique collections skip keys already
// stored or repeated in the file.
func (s *Service) Import(ctx context.Context, name, filename string, data []byte) (*ImportResult, error) {
	schema, err := s.Schema(name)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "collection", "import",
		telemetry.SpanAttrCollection, name,
		telemetry.SpanAttrFile, filename)
	defer span.End()

	if schema.Cooldown {
		if err := s.acquireImport(ctx, schema); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	table, err := spreadsheet.Read(filename, data)
	if err != nil {
		return nil, parseError(err)
	}
	if missing := table.Missing(schema.Aliases, schema.Required()...); len(missing) > 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf(
			"El archivo debe tener las columnas: %s", strings.Join(missing, ", ")))
	}

	rows := table.Canonical(schema.Aliases, schema.Columns()...)
	errs := spreadsheet.NewErrorCollection(100)
	result := &ImportResult{}
	var added []shared.Record

	stored, err := s.repo.Update(ctx, schema.File, func(records []shared.Record) ([]shared.Record, error) {
		seen := make(map[string]struct{})
		if schema.Key == collection.KeyByField {
			for _, r := range records {
				seen[schema.CanonicalKey(r)] = struct{}{}
			}
		}
		for i, row := range rows {
			record, ok := schema.Normalize(row)
			if !ok {
				for _, field := range schema.Missing(row) {
					errs.AddRequiredError(i+2, field)
				}
				continue
			}
			if schema.Key == collection.KeyByField {
				key := schema.CanonicalKey(record)
				if _, dup := seen[key]; dup {
					result.Skipped++
					continue
				}
				seen[key] = struct{}{}
			}
			if schema.Key == collection.KeyByID {
				record[shared.FieldID] = s.newID()
			}
			added = append(added, record)
		}
		return append(records, added...), nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result.Added = len(added)
	result.TotalAfter = len(stored)
	result.Errors = errs.Errors()
	result.ErrorCount = errs.TotalCount()
	result.Truncated = errs.IsTruncated()
	result.MissingKeys = s.missingFor(ctx, schema, added...)

	telemetry.SetAttributes(span,
		telemetry.SpanAttrAdded, result.Added,
		telemetry.SpanAttrSkipped, result.Skipped)
	s.logger.Info("collection imported",
		zap.String("collection", name),
		zap.String("file", filename),
		zap.Int("added", result.Added),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", result.ErrorCount),
		zap.Int("total_after", result.TotalAfter))
	return result, nil
}

// acquireImport starts the cooldown window of the collection. The window
// starts before parsing so a failed upload still counts.
func (s *Service) acquireImport(ctx context.Context, schema collection.Schema) error {
	if s.cooldown == nil || s.config.ImportCooldown <= 0 {
		return nil
	}
	wait, err := s.cooldown.Acquire(ctx, schema.Name, s.config.ImportCooldown)
	if err != nil {
		return fmt.Errorf("import cooldown: %w", err)
	}
	if wait <= 0 {
		return nil
	}
	s.logger.Warn("import rejected by cooldown",
		zap.String("collection", schema.Name),
		zap.Duration("remaining", wait))
	return shared.NewDomainError("RATE_LIMITED", fmt.Sprintf(
		"En proceso de importación, espere %d segundos para volver a importar", int(wait.Seconds())))
}

func parseError(err error) error {
	switch {
	case errors.Is(err, spreadsheet.ErrEmptyFile):
		return shared.NewDomainError("INVALID_INPUT", "El archivo está vacío")
	case errors.Is(err, spreadsheet.ErrUnsupportedFormat):
		return shared.NewDomainError("INVALID_INPUT", "Formato de archivo no soportado")
	default:
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("No se pudo parsear el archivo: %v", err))
	}
}

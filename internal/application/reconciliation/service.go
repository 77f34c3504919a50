// Package reconciliation serves the forecast, filter options and cross
// reference reports over freshly loaded collections.
package reconciliation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/coltrade/backend/internal/application/export"
	"github.com/coltrade/backend/internal/domain/collection"
	"github.com/coltrade/backend/internal/domain/reconciliation"
	"github.com/coltrade/backend/internal/domain/shared"
	"github.com/coltrade/backend/internal/infrastructure/spreadsheet"
	"github.com/coltrade/backend/internal/infrastructure/telemetry"
)

// Cross reference export layout
const (
	CrossExportName  = "cruzado_export.xlsx"
	CrossExportSheet = "Cruzado"
)

// ServiceConfig tunes the reports
type ServiceConfig struct {
	IncludeUncatalogued bool
}

// Service builds reports. Nothing is cached between calls: every request
// reloads the collections and recomputes against the current day.
type Service struct {
	repo    collection.Repository
	exports *export.Publisher
	config  ServiceConfig
	clock   func() time.Time
	logger  *zap.Logger
}

// NewService creates a report service
func NewService(repo collection.Repository, exports *export.Publisher, config ServiceConfig, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		exports: exports,
		config:  config,
		clock:   time.Now,
		logger:  logger,
	}
}

// WithClock replaces the source of "today"
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Forecast returns one page of the reconciled report
func (s *Service) Forecast(ctx context.Context, params reconciliation.FilterParams, page reconciliation.PageRequest) (*reconciliation.Result, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "forecast", "query", telemetry.SpanAttrPage, page.Page)
	defer span.End()

	src, err := s.loadSources(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	forecast := reconciliation.NewForecast(src, s.clock(), reconciliation.ForecastOptions{
		IncludeUncatalogued: s.config.IncludeUncatalogued,
	})
	result := forecast.Query(reconciliation.NewFilter(params), page)
	telemetry.SetAttributes(span, telemetry.SpanAttrRows, result.Total)
	return &result, nil
}

// Options returns the picker values still reachable under the filter
func (s *Service) Options(ctx context.Context, params reconciliation.FilterParams) (*reconciliation.FilterOptions, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "forecast", "options")
	defer span.End()

	src, err := s.loadSources(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	opts := reconciliation.BuildFilterOptions(src, reconciliation.NewFilter(params))
	return &opts, nil
}

// CrossReference returns the merged supplier suggestion table
func (s *Service) CrossReference(ctx context.Context) ([]reconciliation.CrossRow, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cruzar", "build")
	defer span.End()

	src, err := s.loadCrossSources(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	rows := reconciliation.CrossReference(src, s.clock())
	telemetry.SetAttributes(span, telemetry.SpanAttrRows, len(rows))
	return rows, nil
}

// ExportCrossReference renders the cross reference table as a workbook
func (s *Service) ExportCrossReference(ctx context.Context) (*export.File, error) {
	rows, err := s.CrossReference(ctx)
	if err != nil {
		return nil, err
	}
	cells := make([][]any, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, r.Values())
	}
	data, err := spreadsheet.WriteWorkbook(spreadsheet.Sheet{
		Name:    CrossExportSheet,
		Headers: reconciliation.CrossColumns,
		Rows:    cells,
	})
	if err != nil {
		return nil, fmt.Errorf("render cross reference: %w", err)
	}
	return s.exports.Publish(ctx, CrossExportName, export.ContentTypeXLSX, data), nil
}

func (s *Service) loadSources(ctx context.Context) (reconciliation.Sources, error) {
	var src reconciliation.Sources
	targets := []struct {
		name string
		dst  *[]shared.Record
	}{
		{collection.Productos, &src.Productos},
		{collection.Puntos, &src.Puntos},
		{collection.Inventario, &src.Inventario},
		{collection.Transitos, &src.Transitos},
		{collection.Ventas, &src.Ventas},
	}
	for _, t := range targets {
		records, err := s.load(ctx, t.name)
		if err != nil {
			return src, err
		}
		*t.dst = records
	}
	return src, nil
}

func (s *Service) loadCrossSources(ctx context.Context) (reconciliation.CrossSources, error) {
	var src reconciliation.CrossSources
	targets := []struct {
		name string
		dst  *[]shared.Record
	}{
		{collection.Claro, &src.Claro},
		{collection.Coltrade, &src.Coltrade},
		{collection.Productos, &src.Productos},
		{collection.Puntos, &src.Puntos},
		{collection.Inventario, &src.Inventario},
		{collection.Transitos, &src.Transitos},
		{collection.Ventas, &src.Ventas},
	}
	for _, t := range targets {
		records, err := s.load(ctx, t.name)
		if err != nil {
			return src, err
		}
		*t.dst = records
	}
	return src, nil
}

func (s *Service) load(ctx context.Context, name string) ([]shared.Record, error) {
	schema := collection.MustLookup(name)
	records, err := collection.LoadNormalized(ctx, s.repo, schema)
	if err != nil {
		s.logger.Error("failed to load collection",
			zap.String("collection", name),
			zap.String("file", schema.File),
			zap.Error(err))
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return records, nil
}

// Package serial turns an approved suggestion sheet into a serialized
// dispatch workbook.
package serial

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/coltrade/backend/internal/application/export"
	"github.com/coltrade/backend/internal/domain/serial"
	"github.com/coltrade/backend/internal/domain/shared"
	"github.com/coltrade/backend/internal/infrastructure/spreadsheet"
	"github.com/coltrade/backend/internal/infrastructure/telemetry"
)

// Output layout
const (
	OutputName   = "archivo_serializado.xlsx"
	OutputSheet  = "Serializado"
	SummarySheet = "Resumen Seriales"
)

// Output columns
var (
	OutputColumns = []string{
		"No", shared.FieldCentro, shared.FieldPunto, shared.FieldMaterial, shared.FieldProducto,
		shared.FieldMarca, "Fecha Actual", "Serial", shared.FieldSugeridoFinal,
	}
	SummaryColumns = []string{shared.FieldMarca, "Ultimo Serial", "¿Registro?"}
)

var requiredColumns = []string{
	shared.FieldMaterial, shared.FieldProducto, shared.FieldMarca,
	shared.FieldCentro, shared.FieldPunto, shared.FieldSugeridoFinal,
}

// Service serializes suggestion sheets
type Service struct {
	exports *export.Publisher
	clock   func() time.Time
	logger  *zap.Logger
}

// NewService creates a serialization service
func NewService(exports *export.Publisher, logger *zap.Logger) *Service {
	return &Service{exports: exports, clock: time.Now, logger: logger}
}

// WithClock replaces the clock used for Fecha Actual
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Preview lists the brands that will receive serials
func (s *Service) Preview(ctx context.Context, filename string, data []byte) ([]string, error) {
	table, err := readInput(filename, data)
	if err != nil {
		return nil, err
	}
	if len(table.Missing(nil, shared.FieldMarca)) > 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "El archivo no contiene la columna 'Marca'")
	}
	hasSugerido := len(table.Missing(nil, shared.FieldSugeridoFinal)) == 0
	rows := table.Canonical(nil, shared.FieldMarca, shared.FieldSugeridoFinal)
	return serial.PreviewBrands(rows, hasSugerido), nil
}

// Process expands the sheet one row per unit and assigns serials from
// seeds.
func (s *Service) Process(ctx context.Context, filename string, data []byte, seeds serial.Seeds) (*export.File, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "serial", "process", telemetry.SpanAttrFile, filename)
	defer span.End()

	table, err := readInput(filename, data)
	if err != nil {
		return nil, err
	}
	if missing := table.Missing(nil, requiredColumns...); len(missing) > 0 {
		return nil, shared.NewDomainError("INVALID_INPUT",
			"Faltan columnas requeridas: "+strings.Join(missing, ", "))
	}

	groups := serial.GroupsOf(table.Canonical(nil, requiredColumns...))
	res := serial.Expand(groups, seeds, s.clock())

	out, err := render(res)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrRows, len(res.Lines))
	s.logger.Info("sheet serialized",
		zap.String("file", filename),
		zap.Int("groups", len(groups)),
		zap.Int("lines", len(res.Lines)),
		zap.Int("brands", len(res.Summary)))
	return s.exports.Publish(ctx, OutputName, export.ContentTypeXLSX, out), nil
}

func readInput(filename string, data []byte) (*spreadsheet.Table, error) {
	table, err := spreadsheet.Read(filename, data)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("No se pudo leer el archivo: %v", err))
	}
	return table, nil
}

func render(res serial.Result) ([]byte, error) {
	sheet := spreadsheet.Sheet{Name: OutputSheet, Headers: OutputColumns}
	for _, l := range res.Lines {
		if l.Subtotal {
			sheet.Bold = append(sheet.Bold, len(sheet.Rows))
			sheet.Rows = append(sheet.Rows, []any{"", "", serial.CountLabel, l.Units})
			continue
		}
		g := l.Group
		sheet.Rows = append(sheet.Rows, []any{
			l.No, g.Centro, g.Punto, g.Material, g.Producto, g.Marca,
			l.Fecha, l.Serial, shared.Compact(g.Sugerido),
		})
	}

	summary := spreadsheet.Sheet{Name: SummarySheet, Headers: SummaryColumns}
	for _, sm := range res.Summary {
		registro := "No"
		if sm.Registered {
			registro = "Si"
		}
		summary.Rows = append(summary.Rows, []any{sm.Marca, sm.LastSerial, registro})
	}

	data, err := spreadsheet.WriteWorkbook(sheet, summary)
	if err != nil {
		return nil, fmt.Errorf("render serialized sheet: %w", err)
	}
	return data, nil
}

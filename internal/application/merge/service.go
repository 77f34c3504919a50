// Package merge stacks several suggestion workbooks into one sheet with a
// fixed column layout.
package merge

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/coltrade/backend/internal/application/export"
	"github.com/coltrade/backend/internal/domain/reconciliation"
	"github.com/coltrade/backend/internal/domain/shared"
	"github.com/coltrade/backend/internal/infrastructure/spreadsheet"
	"github.com/coltrade/backend/internal/infrastructure/telemetry"
)

// Output layout
const (
	OutputName   = "unido.xlsx"
	OutputSheet  = "Unido"
	PreviewLimit = 200
)

// Columns kept from every input, in output order. Columns absent from an
// input are left blank.
var Columns = []string{
	shared.FieldCentro,
	shared.FieldPunto,
	shared.FieldMaterial,
	shared.FieldProducto,
	shared.FieldMarca,
	reconciliation.ColVentasActuales,
	shared.FieldTransitos,
	shared.FieldInventario,
	reconciliation.ColEnvioInventario,
	shared.FieldSugerido,
}

// Upload is one submitted file
type Upload struct {
	Name string
	Data []byte
}

// Preview is the head of the merged sheet
type Preview struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Service merges uploaded sheets
type Service struct {
	exports *export.Publisher
	logger  *zap.Logger
}

// NewService creates a merge service
func NewService(exports *export.Publisher, logger *zap.Logger) *Service {
	return &Service{exports: exports, logger: logger}
}

// Preview returns the first PreviewLimit merged rows
func (s *Service) Preview(ctx context.Context, uploads []Upload) (*Preview, error) {
	rows, err := concat(uploads)
	if err != nil {
		return nil, err
	}
	if len(rows) > PreviewLimit {
		rows = rows[:PreviewLimit]
	}
	return &Preview{Columns: Columns, Rows: rows}, nil
}

// Merge renders every row of every upload into one workbook
func (s *Service) Merge(ctx context.Context, uploads []Upload) (*export.File, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "merge", "merge")
	defer span.End()

	rows, err := concat(uploads)
	if err != nil {
		return nil, err
	}
	data, err := spreadsheet.WriteWorkbook(spreadsheet.Sheet{Name: OutputSheet, Headers: Columns, Rows: rows})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("render merged sheet: %w", err)
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrRows, len(rows))
	s.logger.Info("sheets merged", zap.Int("files", len(uploads)), zap.Int("rows", len(rows)))
	return s.exports.Publish(ctx, OutputName, export.ContentTypeXLSX, data), nil
}

// exactColumn matches headers by their own name only. Shared aliases would
// map a "Cantidad" column onto both Inventario and Transitos.
func exactColumn(field string) shared.Aliases {
	return shared.Aliases{field}
}

func concat(uploads []Upload) ([][]any, error) {
	if len(uploads) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "No se subieron archivos")
	}
	var rows [][]any
	for _, u := range uploads {
		table, err := spreadsheet.Read(u.Name, u.Data)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("No se pudo leer %s: %v", u.Name, err))
		}
		for _, r := range table.Canonical(exactColumn, Columns...) {
			row := make([]any, len(Columns))
			for i, col := range Columns {
				if i < firstQuantity {
					row[i] = r.Text(col)
					continue
				}
				row[i] = quantity(r.Text(col))
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// firstQuantity is the index in Columns of the first numeric column
const firstQuantity = 5

// quantity writes numeric text as a number so the sheet stays summable.
func quantity(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return shared.Compact(f)
	}
	return s
}

// Package compras keeps the purchase suggestion list: imports accumulate
// suggested quantities per material and buyers approve each line.
package compras

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/coltrade/backend/internal/application/export"
	"github.com/coltrade/backend/internal/domain/collection"
	"github.com/coltrade/backend/internal/domain/shared"
	"github.com/coltrade/backend/internal/infrastructure/spreadsheet"
	"github.com/coltrade/backend/internal/infrastructure/telemetry"
)

// Export layout
const (
	ExportName  = "compras.xlsx"
	ExportSheet = "Compras"
	ColEstado   = "Estado"
)

// Estado labels
const (
	EstadoAprobado   = "Aprobado"
	EstadoNoAprobado = "No aprobado"
)

// ImportResult summarizes a purchase import
type ImportResult struct {
	Added      int `json:"added"`
	Updated    int `json:"updated"`
	TotalAfter int `json:"total_after"`
}

// UpdateInput changes one line. Nil fields are left untouched.
type UpdateInput struct {
	Material    string  `json:"Material" binding:"required,material"`
	Confirmar   *bool   `json:"Confirmar"`
	Observacion *string `json:"Observacion"`
	Producto    *string `json:"Producto"`
	Marca       *string `json:"Marca"`
}

// Service manages the purchase list
type Service struct {
	repo    collection.Repository
	schema  collection.Schema
	exports *export.Publisher
	logger  *zap.Logger
}

// NewService creates a purchase service
func NewService(repo collection.Repository, exports *export.Publisher, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		schema:  collection.MustLookup(collection.Compras),
		exports: exports,
		logger:  logger,
	}
}

// List returns every purchase line
func (s *Service) List(ctx context.Context) ([]shared.Record, error) {
	return collection.LoadNormalized(ctx, s.repo, s.schema)
}

// Import groups the uploaded rows by material summing Sugerido, then adds
// the totals to the stored lines. Blank Producto or Marca are filled from
// the upload; new lines start unconfirmed.
func (s *Service) Import(ctx context.Context, filename string, data []byte) (*ImportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "compras", "import", telemetry.SpanAttrFile, filename)
	defer span.End()

	table, err := spreadsheet.Read(filename, data)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("No se pudo leer el archivo de entrada: %v", err))
	}
	if len(table.Missing(s.schema.Aliases, shared.FieldMaterial)) > 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "El archivo debe contener una columna 'Material'")
	}
	imported, order := groupByMaterial(table.Canonical(s.schema.Aliases,
		shared.FieldMaterial, shared.FieldProducto, shared.FieldMarca, shared.FieldSugerido))

	result := &ImportResult{}
	stored, err := s.repo.Update(ctx, s.schema.File, func(records []shared.Record) ([]shared.Record, error) {
		lines := make([]shared.Record, 0, len(records)+len(order))
		index := make(map[string]int)
		for _, r := range records {
			n, ok := s.schema.Normalize(r)
			if !ok {
				continue
			}
			key := n.Text(shared.FieldMaterial)
			if i, dup := index[key]; dup {
				lines[i] = n
				continue
			}
			index[key] = len(lines)
			lines = append(lines, n)
		}

		for _, material := range order {
			in := imported[material]
			if i, ok := index[material]; ok {
				line := lines[i]
				sum := sugeridoOf(line[shared.FieldSugerido]).Add(in.sugerido)
				line[shared.FieldSugerido] = compactDecimal(sum)
				if line.Text(shared.FieldProducto) == "" {
					line[shared.FieldProducto] = in.producto
				}
				if line.Text(shared.FieldMarca) == "" {
					line[shared.FieldMarca] = in.marca
				}
				result.Updated++
				continue
			}
			index[material] = len(lines)
			lines = append(lines, shared.Record{
				shared.FieldMaterial:    material,
				shared.FieldProducto:    in.producto,
				shared.FieldMarca:       in.marca,
				shared.FieldSugerido:    compactDecimal(in.sugerido),
				shared.FieldConfirmar:   false,
				shared.FieldObservacion: "",
			})
			result.Added++
		}
		return lines, nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	result.TotalAfter = len(stored)

	telemetry.SetAttributes(span, telemetry.SpanAttrAdded, result.Added)
	s.logger.Info("purchases imported",
		zap.String("file", filename),
		zap.Int("added", result.Added),
		zap.Int("updated", result.Updated),
		zap.Int("total_after", result.TotalAfter))
	return result, nil
}

// UpdateItem changes the line of input.Material and returns its canonical
// material
func (s *Service) UpdateItem(ctx context.Context, input UpdateInput) (string, error) {
	material := shared.CanonicalMaterial(input.Material)
	if material == "" {
		return "", shared.NewDomainError("INVALID_INPUT", "Material inválido")
	}

	_, err := s.repo.Update(ctx, s.schema.File, func(records []shared.Record) ([]shared.Record, error) {
		for _, r := range records {
			if s.schema.CanonicalKey(r) != material {
				continue
			}
			if input.Confirmar != nil {
				r[shared.FieldConfirmar] = *input.Confirmar
			}
			if input.Observacion != nil {
				r[shared.FieldObservacion] = *input.Observacion
			}
			if input.Producto != nil && strings.TrimSpace(*input.Producto) != "" {
				r[shared.FieldProducto] = *input.Producto
			}
			if input.Marca != nil && strings.TrimSpace(*input.Marca) != "" {
				r[shared.FieldMarca] = *input.Marca
			}
			return records, nil
		}
		return nil, shared.NewDomainError("NOT_FOUND", "Registro no encontrado para actualizar")
	})
	if err != nil {
		return "", err
	}
	return material, nil
}

// Export renders the list with an Estado column derived from Confirmar
func (s *Service) Export(ctx context.Context) (*export.File, error) {
	lines, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([][]any, 0, len(lines))
	for _, l := range lines {
		estado := EstadoNoAprobado
		if shared.Bool(l[shared.FieldConfirmar]) {
			estado = EstadoAprobado
		}
		rows = append(rows, []any{
			l.Text(shared.FieldMaterial),
			l.Text(shared.FieldProducto),
			l.Text(shared.FieldMarca),
			l[shared.FieldSugerido],
			estado,
			l.Text(shared.FieldObservacion),
		})
	}
	data, err := spreadsheet.WriteWorkbook(spreadsheet.Sheet{
		Name: ExportSheet,
		Headers: []string{
			shared.FieldMaterial, shared.FieldProducto, shared.FieldMarca,
			shared.FieldSugerido, ColEstado, shared.FieldObservacion,
		},
		Rows: rows,
	})
	if err != nil {
		return nil, fmt.Errorf("render purchases: %w", err)
	}
	return s.exports.Publish(ctx, ExportName, export.ContentTypeXLSX, data), nil
}

type importedLine struct {
	producto string
	marca    string
	sugerido decimal.Decimal
}

// groupByMaterial sums Sugerido per canonical material, keeping the first
// Producto and Marca seen. order lists materials in first seen order.
func groupByMaterial(rows []shared.Record) (map[string]*importedLine, []string) {
	lines := make(map[string]*importedLine)
	var order []string
	for _, r := range rows {
		material := shared.CanonicalMaterial(r[shared.FieldMaterial])
		if material == "" {
			continue
		}
		sugerido := sugeridoOf(r[shared.FieldSugerido])
		if line, ok := lines[material]; ok {
			line.sugerido = line.sugerido.Add(sugerido)
			continue
		}
		lines[material] = &importedLine{
			producto: r.Text(shared.FieldProducto),
			marca:    r.Text(shared.FieldMarca),
			sugerido: sugerido,
		}
		order = append(order, material)
	}
	return lines, order
}

// sugeridoOf reads a quantity accepting a decimal comma. Anything else
// unreadable counts as zero.
func sugeridoOf(v any) decimal.Decimal {
	if s, ok := v.(string); ok {
		if d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ".")); err == nil {
			return d
		}
	}
	return decimal.NewFromFloat(shared.Float(v))
}

func compactDecimal(d decimal.Decimal) any {
	return shared.Compact(d.Round(6).InexactFloat64())
}

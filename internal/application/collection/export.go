package collection

import (
	"context"
	"fmt"
	"strings"

	"github.com/coltrade/backend/internal/application/export"
	"github.com/coltrade/backend/internal/domain/shared"
	"github.com/coltrade/backend/internal/infrastructure/jsonstore"
	"github.com/coltrade/backend/internal/infrastructure/spreadsheet"
)

// Export formats
const (
	FormatExcel = "excel"
	FormatJSON  = "json"
)

// Export renders the collection as a workbook, or as JSON when format asks
// for anything other than excel or xlsx. The name carries a timestamp.
func (s *Service) Export(ctx context.Context, name, format string) (*export.File, error) {
	schema, err := s.Schema(name)
	if err != nil {
		return nil, err
	}
	records, err := s.List(ctx, name)
	if err != nil {
		return nil, err
	}
	now := s.clock()

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatExcel, "xlsx":
		data, err := spreadsheet.WriteWorkbook(spreadsheet.Sheet{
			Name:    schema.Sheet,
			Headers: schema.Columns(),
			Rows:    rowsOf(records, schema.Columns()),
		})
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", name, err)
		}
		return s.exports.Publish(ctx, export.StampedName(schema.FileStem(), "xlsx", now), export.ContentTypeXLSX, data), nil
	default:
		data, err := jsonstore.Encode(records)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		return s.exports.Publish(ctx, export.StampedName(schema.FileStem(), "json", now), export.ContentTypeJSON, data), nil
	}
}

// rowsOf lays records out as cells in column order. Absent fields stay nil.
func rowsOf(records []shared.Record, columns []string) [][]any {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		row := make([]any, len(columns))
		for i, c := range columns {
			row[i] = r[c]
		}
		rows = append(rows, row)
	}
	return rows
}

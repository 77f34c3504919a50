package spreadsheet

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ContentTypeXLSX is the media type of generated workbooks
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReadXLSX parses the first sheet of a workbook
func ReadXLSX(data []byte) (*Table, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrMissingHeader
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrMissingHeader
	}

	t := newTable(rows[0], rows[1:])
	if len(t.Headers) == 0 {
		return nil, ErrMissingHeader
	}
	return t, nil
}

// Sheet is one worksheet of a generated workbook
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
	// Bold lists indexes into Rows rendered in bold.
	Bold []int
}

// WriteWorkbook renders sheets into an xlsx file. Header rows are bold.
func WriteWorkbook(sheets ...Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook needs at least one sheet")
	}
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.Name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return nil, fmt.Errorf("add sheet %q: %w", s.Name, err)
		}
		if err := writeSheet(f, s, bold); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, s Sheet, bold int) error {
	header := make([]any, len(s.Headers))
	for i, h := range s.Headers {
		header[i] = h
	}
	if err := setRow(f, s.Name, 1, header, bold); err != nil {
		return err
	}

	boldRows := make(map[int]bool, len(s.Bold))
	for _, i := range s.Bold {
		boldRows[i] = true
	}
	for i, row := range s.Rows {
		style := -1
		if boldRows[i] {
			style = bold
		}
		if err := setRow(f, s.Name, i+2, row, style); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, n int, values []any, style int) error {
	if len(values) == 0 {
		return nil
	}
	start, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, start, &values); err != nil {
		return fmt.Errorf("write row %d of %q: %w", n, sheet, err)
	}
	if style < 0 {
		return nil
	}
	end, err := excelize.CoordinatesToCellName(len(values), n)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, start, end, style)
}

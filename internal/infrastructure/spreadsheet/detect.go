package spreadsheet

import (
	"bytes"
	"path/filepath"
	"sort"
	"strings"

	"github.com/coltrade/backend/internal/domain/shared"
	"github.com/coltrade/backend/internal/infrastructure/jsonstore"
)

// Format is the detected kind of an upload
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

var zipMagic = []byte("PK\x03\x04")

// Detect classifies an upload by its zip signature, then by file extension,
// then by a leading JSON delimiter.
func Detect(filename string, data []byte) (Format, error) {
	if bytes.HasPrefix(data, zipMagic) {
		return FormatXLSX, nil
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".json", ".ndjson":
		return FormatJSON, nil
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return FormatJSON, nil
	}
	return "", ErrUnsupportedFormat
}

// Read parses an upload of any supported format
func Read(filename string, data []byte) (*Table, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}
	format, err := Detect(filename, data)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatXLSX:
		return ReadXLSX(data)
	case FormatCSV:
		return ReadCSV(data)
	default:
		return readJSON(data)
	}
}

func readJSON(data []byte) (*Table, error) {
	records, _ := jsonstore.Decode(data)
	if len(records) == 0 {
		return nil, ErrMissingHeader
	}
	seen := make(map[string]struct{})
	var headers []string
	for _, r := range records {
		keys := make([]string, 0, len(r))
		for k := range r {
			if _, ok := seen[k]; !ok {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			seen[k] = struct{}{}
			headers = append(headers, k)
		}
	}
	rows := make([]shared.Record, len(records))
	copy(rows, records)
	return &Table{Headers: headers, Rows: rows}, nil
}

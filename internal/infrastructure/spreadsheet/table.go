// Package spreadsheet reads uploaded xlsx, csv and json tables and writes
// xlsx workbooks.
package spreadsheet

import (
	"github.com/coltrade/backend/internal/domain/shared"
)

// Table is an uploaded sheet: its header row and one record per data row
// keyed by header text.
type Table struct {
	Headers []string
	Rows    []shared.Record
}

// newTable builds a table from a header row and string cells. Columns with a
// blank header and rows with no value are dropped.
func newTable(header []string, cells [][]string) *Table {
	t := &Table{Headers: make([]string, 0, len(header))}
	cols := make([]int, 0, len(header))
	for i, h := range header {
		h = trimSpaces(h)
		if h == "" {
			continue
		}
		t.Headers = append(t.Headers, h)
		cols = append(cols, i)
	}

	t.Rows = make([]shared.Record, 0, len(cells))
	for _, row := range cells {
		rec := make(shared.Record, len(cols))
		empty := true
		for j, i := range cols {
			v := ""
			if i < len(row) {
				v = trimSpaces(row[i])
			}
			if v != "" {
				empty = false
			}
			rec[t.Headers[j]] = v
		}
		if !empty {
			t.Rows = append(t.Rows, rec)
		}
	}
	return t
}

// Column returns the header matching one of aliases, compared without case
// or accents.
func (t *Table) Column(aliases shared.Aliases) (string, bool) {
	i := aliases.Column(t.Headers)
	if i < 0 {
		return "", false
	}
	return t.Headers[i], true
}

// AliasFunc resolves the accepted spellings of a field.
type AliasFunc func(field string) shared.Aliases

// Canonical rewrites every row so that columns matched through aliases carry
// the canonical field name. Unmatched columns are kept as they are. A nil
// aliases uses the shared alias table.
func (t *Table) Canonical(aliases AliasFunc, fields ...string) []shared.Record {
	if aliases == nil {
		aliases = shared.AliasesFor
	}
	rename := make(map[string]string)
	for _, f := range fields {
		if h, ok := t.Column(aliases(f)); ok {
			rename[h] = f
		}
	}
	out := make([]shared.Record, 0, len(t.Rows))
	for _, r := range t.Rows {
		rec := make(shared.Record, len(r))
		for k, v := range r {
			if _, ok := rename[k]; !ok {
				rec[k] = v
			}
		}
		for h, f := range rename {
			rec[f] = r[h]
		}
		out = append(out, rec)
	}
	return out
}

// Missing lists the fields none of whose aliases appear in the header row.
func (t *Table) Missing(aliases AliasFunc, fields ...string) []string {
	if aliases == nil {
		aliases = shared.AliasesFor
	}
	var missing []string
	for _, f := range fields {
		if _, ok := t.Column(aliases(f)); !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

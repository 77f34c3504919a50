// Package collection declares the record layouts of the collection files and
// how raw input is normalized into them.
package collection

import (
	"strings"

	"github.com/coltrade/backend/internal/domain/shared"
)

// KeyMode selects how single records are addressed.
type KeyMode int

const (
	// KeyByIndex addresses records by their position in the file.
	KeyByIndex KeyMode = iota
	// KeyByField addresses records by a unique natural key.
	KeyByField
	// KeyByID addresses records by a generated uuid stored in "id".
	KeyByID
)

// Kind is the coercion applied to a field during normalization.
type Kind int

const (
	KindText Kind = iota
	KindMaterial
	KindCentro
	KindNumber
	KindDate
	KindBool
)

// Field describes one attribute of a collection.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
}

// Schema describes one collection file.
type Schema struct {
	Name      string
	File      string
	Sheet     string
	Fields    []Field
	Key       KeyMode
	KeyField  string
	Cooldown  bool
	Pending   bool
	Dated     bool
	aliasOver map[string]shared.Aliases
}

// Columns returns the field names in export order.
func (s Schema) Columns() []string {
	cols := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		cols = append(cols, f.Name)
	}
	return cols
}

// Aliases returns the accepted spellings of field within this collection.
func (s Schema) Aliases(field string) shared.Aliases {
	if a, ok := s.aliasOver[field]; ok {
		return a
	}
	return shared.AliasesFor(field)
}

// FileStem is the collection file name without extension.
func (s Schema) FileStem() string {
	return strings.TrimSuffix(s.File, ".json")
}

// Normalize projects raw input onto the schema fields through the alias
// table. It returns false when a required field is empty.
func (s Schema) Normalize(raw shared.Record) (shared.Record, bool) {
	out := make(shared.Record, len(s.Fields)+1)
	for _, f := range s.Fields {
		v, _ := s.Aliases(f.Name).Lookup(raw)
		out[f.Name] = coerce(f.Kind, v)
		if f.Required && isEmpty(out[f.Name]) {
			return nil, false
		}
	}
	if s.Key == KeyByID {
		if id := shared.Text(raw[shared.FieldID]); id != "" {
			out[shared.FieldID] = id
		}
	}
	return out, true
}

// Required lists the required field names.
func (s Schema) Required() []string {
	var out []string
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// Missing lists the required fields of raw that would normalize to an
// empty value.
func (s Schema) Missing(raw shared.Record) []string {
	var out []string
	for _, f := range s.Fields {
		if !f.Required {
			continue
		}
		v, _ := s.Aliases(f.Name).Lookup(raw)
		if isEmpty(coerce(f.Kind, v)) {
			out = append(out, f.Name)
		}
	}
	return out
}

// Merge overlays the fields present in patch onto base and re-normalizes.
func (s Schema) Merge(base, patch shared.Record) (shared.Record, bool) {
	merged := base.Clone()
	for _, f := range s.Fields {
		if v, ok := s.Aliases(f.Name).Lookup(patch); ok {
			merged[f.Name] = v
		}
	}
	out, ok := s.Normalize(merged)
	if !ok {
		return nil, false
	}
	if id, exists := base[shared.FieldID]; exists {
		out[shared.FieldID] = id
	}
	return out, true
}

// KeyOf returns the natural key of a record for KeyByField schemas.
func (s Schema) KeyOf(r shared.Record) string {
	return shared.Text(r[s.KeyField])
}

// CanonicalKey returns the natural key of r in comparable form: materials
// and centros are canonicalized, other keys trimmed.
func (s Schema) CanonicalKey(r shared.Record) string {
	v, _ := s.Aliases(s.KeyField).Lookup(r)
	for _, f := range s.Fields {
		if f.Name != s.KeyField {
			continue
		}
		switch f.Kind {
		case KindMaterial:
			return shared.CanonicalMaterial(v)
		case KindCentro:
			return shared.CanonicalCentro(v)
		}
	}
	return shared.Text(v)
}

func coerce(kind Kind, v any) any {
	switch kind {
	case KindMaterial:
		return shared.CanonicalMaterial(v)
	case KindCentro:
		return shared.Text(v)
	case KindNumber:
		return shared.Compact(shared.Float(v))
	case KindDate:
		return shared.NormalizeDate(v)
	case KindBool:
		return shared.Bool(v)
	default:
		return shared.Text(v)
	}
}

func isEmpty(v any) bool {
	s, ok := v.(string)
	return ok && s == ""
}

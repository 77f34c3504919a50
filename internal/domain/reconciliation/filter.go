package reconciliation

import (
	"strings"

	"github.com/coltrade/backend/internal/domain/shared"
)

// ValueSet is a set of accepted lower case values. An empty set accepts
// everything.
type ValueSet map[string]struct{}

// ParseValueSet splits a comma separated query value into a set, dropping
// blank entries.
func ParseValueSet(raw string) ValueSet {
	set := make(ValueSet)
	for _, part := range strings.Split(raw, ",") {
		if v := strings.ToLower(strings.TrimSpace(part)); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

// Accepts reports whether v equals a member, ignoring case.
func (s ValueSet) Accepts(v string) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[strings.ToLower(strings.TrimSpace(v))]
	return ok
}

// AcceptsSubstring reports whether any member occurs inside v, ignoring case.
func (s ValueSet) AcceptsSubstring(v string) bool {
	if len(s) == 0 {
		return true
	}
	lower := strings.ToLower(v)
	for member := range s {
		if strings.Contains(lower, member) {
			return true
		}
	}
	return false
}

// Filter is the multi-valued row filter of the report.
type Filter struct {
	Centros   ValueSet
	Puntos    ValueSet
	Materials ValueSet
	Productos ValueSet
	Marcas    ValueSet
	Canales   ValueSet
}

// FilterParams carries the raw comma separated query values.
type FilterParams struct {
	Centro   string
	Punto    string
	Material string
	Producto string
	Marca    string
	Canal    string
}

// NewFilter parses the raw query values. Materials are canonicalized so a
// filter of "123.0" selects item "123".
func NewFilter(p FilterParams) Filter {
	materials := make(ValueSet)
	for m := range ParseValueSet(p.Material) {
		materials[strings.ToLower(shared.CanonicalMaterial(m))] = struct{}{}
	}
	return Filter{
		Centros:   ParseValueSet(p.Centro),
		Puntos:    ParseValueSet(p.Punto),
		Materials: materials,
		Productos: ParseValueSet(p.Producto),
		Marcas:    ParseValueSet(p.Marca),
		Canales:   ParseValueSet(p.Canal),
	}
}

// Match applies every filter field to a report row.
func (f Filter) Match(r Row) bool {
	return f.Centros.Accepts(r.Centro) &&
		f.Puntos.Accepts(r.Punto) &&
		f.Materials.Accepts(r.Material) &&
		f.Productos.AcceptsSubstring(r.Producto) &&
		f.Marcas.Accepts(r.Marca) &&
		f.Canales.Accepts(r.Canal)
}

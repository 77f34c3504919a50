// Package serial expands approved shipment suggestions into one numbered
// line per unit and assigns consecutive serials per brand family.
package serial

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/coltrade/backend/internal/domain/shared"
)

// Brands with their own serial sequence. Every other brand shares the
// "otros" sequence.
var Brands = []string{
	"Aiwa", "Amazon", "Belkin", "Pmp", "Haxly", "Sylvania",
	"Roku", "Nintendo", "Redragon", "Spigen", "Motorola",
	"Logitech", "Zte", "Cubitt",
}

// OtherFamily is the sequence key of brands outside Brands
const OtherFamily = "otros"

// CountLabel marks the subtotal line written after each group
const CountLabel = "Recuento de Unidades"

var digitRun = regexp.MustCompile(`\d+`)

// Increment advances the last digit run of s, or appends "1" when s has no
// digits. An empty serial stays empty.
func Increment(s string) string {
	if s == "" {
		return ""
	}
	runs := digitRun.FindAllStringIndex(s, -1)
	if len(runs) == 0 {
		return s + "1"
	}
	last := runs[len(runs)-1]
	n, err := strconv.ParseUint(s[last[0]:last[1]], 10, 64)
	if err != nil {
		return s + "1"
	}
	return s[:last[0]] + strconv.FormatUint(n+1, 10) + s[last[1]:]
}

// FamilyOf returns the lower case brand of Brands contained in marca, or
// OtherFamily.
func FamilyOf(marca string) (string, bool) {
	lower := strings.ToLower(marca)
	for _, b := range Brands {
		if strings.Contains(lower, strings.ToLower(b)) {
			return strings.ToLower(b), true
		}
	}
	return OtherFamily, false
}

// Seeds are the first serials entered per family. Missing or empty seeds
// leave the family unserialized.
type Seeds map[string]string

// NewSeeds reads "serial_<brand>" and "otros_serial" values through get.
// A Haxly seed of 250 is replaced by 201.
func NewSeeds(get func(key string) string) Seeds {
	seeds := make(Seeds, len(Brands)+1)
	for _, b := range Brands {
		key := strings.ToLower(b)
		v := strings.TrimSpace(get("serial_" + key))
		if key == "haxly" && v == "250" {
			v = "201"
		}
		seeds[key] = v
	}
	seeds[OtherFamily] = strings.TrimSpace(get("otros_serial"))
	return seeds
}

// Group is one distinct suggestion line of the input
type Group struct {
	Centro   string
	Punto    string
	Material string
	Producto string
	Marca    string
	Sugerido float64
}

// Line is one unit of the expanded output
type Line struct {
	No       int
	Group    Group
	Fecha    string
	Serial   string
	Subtotal bool
	Units    int
}

// Summary is the last serial given to one brand
type Summary struct {
	Marca      string
	LastSerial string
	Registered bool
}

// Result is the expanded sheet and its per brand summary
type Result struct {
	Lines   []Line
	Summary []Summary
}

// GroupsOf collapses rows into distinct groups, dropping rows whose
// Sugerido Final is empty or zero. Groups are ordered by their fields.
func GroupsOf(rows []shared.Record) []Group {
	seen := make(map[Group]struct{})
	var groups []Group
	for _, r := range rows {
		raw := r.Text(shared.FieldSugeridoFinal)
		if raw == "" {
			continue
		}
		g := Group{
			Centro:   r.Text(shared.FieldCentro),
			Punto:    r.Text(shared.FieldPunto),
			Material: shared.CanonicalMaterial(r[shared.FieldMaterial]),
			Producto: r.Text(shared.FieldProducto),
			Marca:    r.Text(shared.FieldMarca),
			Sugerido: shared.Float(raw),
		}
		if g.Sugerido == 0 {
			continue
		}
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].less(groups[j]) })
	return groups
}

func (g Group) less(o Group) bool {
	switch {
	case g.Centro != o.Centro:
		return g.Centro < o.Centro
	case g.Punto != o.Punto:
		return g.Punto < o.Punto
	case g.Material != o.Material:
		return g.Material < o.Material
	case g.Producto != o.Producto:
		return g.Producto < o.Producto
	case g.Marca != o.Marca:
		return g.Marca < o.Marca
	}
	return g.Sugerido < o.Sugerido
}

// Expand writes int(Sugerido) numbered lines per group followed by a
// subtotal line. Serials continue across groups of the same family.
func Expand(groups []Group, seeds Seeds, today time.Time) Result {
	next := make(map[string]string, len(seeds))
	for k, v := range seeds {
		next[k] = v
	}
	last := make(map[string]string)
	fecha := today.Format(shared.ISODate)

	var res Result
	for _, g := range groups {
		units := int(g.Sugerido)
		family, _ := FamilyOf(g.Marca)
		current := next[family]

		for i := 1; i <= units; i++ {
			line := Line{No: i, Group: g, Fecha: fecha}
			if current != "" {
				line.Serial = current
				last[g.Marca] = current
				current = Increment(current)
			}
			res.Lines = append(res.Lines, line)
		}
		if next[family] != "" {
			next[family] = current
		}
		res.Lines = append(res.Lines, Line{Subtotal: true, Units: max(units, 0)})
	}

	for marca, s := range last {
		_, registered := FamilyOf(marca)
		res.Summary = append(res.Summary, Summary{Marca: marca, LastSerial: s, Registered: registered})
	}
	sort.Slice(res.Summary, func(i, j int) bool { return res.Summary[i].Marca < res.Summary[j].Marca })
	return res
}

// PreviewBrands lists the distinct trimmed brands of rows with a non-zero
// Sugerido Final, in first seen order. Without a Sugerido Final column
// every row counts.
func PreviewBrands(rows []shared.Record, hasSugerido bool) []string {
	seen := make(map[string]struct{})
	brands := []string{}
	for _, r := range rows {
		if hasSugerido {
			raw := r.Text(shared.FieldSugeridoFinal)
			if raw == "" || shared.Float(raw) == 0 {
				continue
			}
		}
		marca := r.Text(shared.FieldMarca)
		if _, dup := seen[marca]; dup {
			continue
		}
		seen[marca] = struct{}{}
		brands = append(brands, marca)
	}
	return brands
}

package reconciliation

import (
	"sort"

	"github.com/coltrade/backend/internal/domain/shared"
)

// FilterOptions are the distinct values offered by each filter picker.
type FilterOptions struct {
	Centros   []string `json:"centros"`
	Puntos    []string `json:"puntos"`
	Materials []string `json:"materials"`
	Productos []string `json:"productos"`
	Marcas    []string `json:"marcas"`
	Canales   []string `json:"canales"`
}

type stringSet map[string]struct{}

func (s stringSet) add(v string) {
	if v != "" {
		s[v] = struct{}{}
	}
}

func (s stringSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// BuildFilterOptions collects the picker values still reachable under
// filter. Points are narrowed by centro, punto and canal; stock and sales
// centros by centro; products by material and, when the product has one,
// by brand.
func BuildFilterOptions(src Sources, filter Filter) FilterOptions {
	centros, puntos, canales := make(stringSet), make(stringSet), make(stringSet)
	materials, productos, marcas := make(stringSet), make(stringSet), make(stringSet)

	for _, p := range src.Puntos {
		centro := shared.CanonicalCentro(p[shared.FieldCentro])
		punto := p.Text(shared.FieldPunto)
		canal := p.Text(shared.FieldCanal)
		if !filter.Centros.Accepts(centro) || !filter.Puntos.Accepts(punto) || !filter.Canales.Accepts(canal) {
			continue
		}
		centros.add(centro)
		puntos.add(punto)
		canales.add(canal)
	}

	for _, records := range [][]shared.Record{src.Inventario, src.Transitos, src.Ventas} {
		for _, r := range records {
			centro := shared.CanonicalCentro(r[shared.FieldCentro])
			if filter.Centros.Accepts(centro) {
				centros.add(centro)
			}
		}
	}

	for _, p := range src.Productos {
		material := shared.CanonicalMaterial(p[shared.FieldMaterial])
		marca := p.Text(shared.FieldMarca)
		if !filter.Materials.Accepts(material) {
			continue
		}
		if marca != "" && !filter.Marcas.Accepts(marca) {
			continue
		}
		materials.add(material)
		productos.add(p.Text(shared.FieldProducto))
		marcas.add(marca)
	}

	return FilterOptions{
		Centros:   centros.sorted(),
		Puntos:    puntos.sorted(),
		Materials: materials.sorted(),
		Productos: productos.sorted(),
		Marcas:    marcas.sorted(),
		Canales:   canales.sorted(),
	}
}

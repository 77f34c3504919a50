package reconciliation

import (
	"time"

	"github.com/coltrade/backend/internal/domain/shared"
)

// CrossSources are the collections merged by the cross-reference table.
type CrossSources struct {
	Claro      []shared.Record
	Coltrade   []shared.Record
	Productos  []shared.Record
	Puntos     []shared.Record
	Inventario []shared.Record
	Transitos  []shared.Record
	Ventas     []shared.Record
}

// Column names of the cross-reference table, in export order.
const (
	ColEnvioInventario = "Envío Inventario 3 meses"
	ColVentasActuales  = "Ventas Actuales"
)

// CrossColumns is the header row of the cross-reference export.
var CrossColumns = []string{
	shared.FieldMaterial,
	shared.FieldProducto,
	shared.FieldMarca,
	shared.FieldCentro,
	shared.FieldPunto,
	shared.FieldSugeridoClaro,
	shared.FieldInventario,
	shared.FieldTransitos,
	ColVentasActuales,
	ColEnvioInventario,
	shared.FieldSugeridoColtrade,
	shared.FieldPromedio3Meses,
	shared.FieldSugeridoFinal,
}

// CrossRow merges both supplier suggestions for one (location, item) key.
type CrossRow struct {
	Material         string  `json:"Material"`
	Producto         string  `json:"Producto"`
	Marca            string  `json:"Marca"`
	Centro           string  `json:"Centro Costos"`
	Punto            string  `json:"Punto de Venta"`
	SugeridoClaro    float64 `json:"Sugerido Claro"`
	Inventario       float64 `json:"Inventario"`
	Transitos        float64 `json:"Transitos"`
	VentasActuales   float64 `json:"Ventas Actuales"`
	EnvioInventario  float64 `json:"Envío Inventario 3 meses"`
	SugeridoColtrade float64 `json:"Sugerido Coltrade"`
	Promedio3Meses   float64 `json:"Promedio 3 Meses"`
	SugeridoFinal    float64 `json:"Sugerido Final"`
}

// Values returns the row cells in CrossColumns order.
func (r CrossRow) Values() []any {
	return []any{
		r.Material, r.Producto, r.Marca, r.Centro, r.Punto,
		shared.Compact(r.SugeridoClaro), shared.Compact(r.Inventario),
		shared.Compact(r.Transitos), shared.Compact(r.VentasActuales),
		shared.Compact(r.EnvioInventario), shared.Compact(r.SugeridoColtrade),
		shared.Compact(r.Promedio3Meses), shared.Compact(r.SugeridoFinal),
	}
}

// CrossReference builds the unified suggestion table. Keys appear in first
// seen order, Claro feed first. Feed rows missing either key part are
// skipped. Inventory and transit keep the last value per key.
func CrossReference(src CrossSources, today time.Time) []CrossRow {
	catalog := BuildCatalog(src.Productos, src.Puntos)
	window := NewSalesWindow(src.Ventas, today)
	inventario := latestIndex(src.Inventario, shared.FieldInventario)
	transitos := latestIndex(src.Transitos, shared.FieldTransitos)

	var order []shared.CompositeKey
	rows := make(map[shared.CompositeKey]*CrossRow)
	row := func(r shared.Record) *CrossRow {
		k := keyOf(r)
		if k.Material == "" || k.Centro == "" {
			return nil
		}
		if existing, ok := rows[k]; ok {
			return existing
		}
		item, _ := catalog.Item(k.Material)
		loc, _ := catalog.Location(k.Centro)
		created := &CrossRow{
			Material:       k.Material,
			Producto:       item.Name,
			Marca:          item.Brand,
			Centro:         k.Centro,
			Punto:          loc.Name,
			Inventario:     inventario[k],
			Transitos:      transitos[k],
			VentasActuales: window.CurrentMonthTotal(k),
		}
		rows[k] = created
		order = append(order, k)
		return created
	}

	for _, r := range src.Claro {
		if cr := row(r); cr != nil {
			cr.SugeridoClaro = r.Float(shared.FieldSugeridoClaro)
		}
	}
	for _, r := range src.Coltrade {
		if cr := row(r); cr != nil {
			cr.SugeridoColtrade = r.Float(shared.FieldSugeridoColtrade)
			cr.Promedio3Meses = r.Float(shared.FieldPromedio3Meses)
		}
	}

	out := make([]CrossRow, 0, len(order))
	for _, k := range order {
		out = append(out, *rows[k])
	}
	return out
}

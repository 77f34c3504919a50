package reconciliation

import (
	"sort"
	"time"

	"github.com/coltrade/backend/internal/domain/shared"
)

// Sources are the normalized collections read by the report.
type Sources struct {
	Productos  []shared.Record
	Puntos     []shared.Record
	Inventario []shared.Record
	Transitos  []shared.Record
	Ventas     []shared.Record
}

// Row is one reconciled (location, item) line of the forecast report.
type Row struct {
	Centro             string   `json:"Centro Costos"`
	Material           string   `json:"Material"`
	Producto           string   `json:"Productos"`
	Marca              string   `json:"Marca"`
	Punto              string   `json:"Punto de Venta"`
	Canal              string   `json:"Canal o Regional"`
	VentasMesActual    int      `json:"Ventas_Mes_Actual"`
	VentasMesPasado    int      `json:"Ventas_Mes_Pasado"`
	Promedio3Meses     float64  `json:"Ventas_Promedio_3_Meses"`
	Mediana            *float64 `json:"Mediana"`
	Inventario         int      `json:"Inventario"`
	Transitos          int      `json:"Transitos"`
	Indicador3Meses    *float64 `json:"Indicador_3_Meses"`
	IndicadorMesPasado *float64 `json:"Indicador_Mes_Pasado"`
	Envio3Meses        float64  `json:"Envio_3_Meses"`
	EnvioPasadas       float64  `json:"Envio_Pasadas"`
}

// Key returns the composite key of the row.
func (r Row) Key() shared.CompositeKey {
	return shared.CompositeKey{Centro: r.Centro, Material: r.Material}
}

// hasActivity reports whether any stock or sales measure is nonzero.
func (r Row) hasActivity() bool {
	return r.Inventario != 0 || r.Transitos != 0 || r.VentasMesActual != 0 ||
		r.VentasMesPasado != 0 || r.Promedio3Meses != 0
}

// ForecastOptions tune candidate selection.
type ForecastOptions struct {
	// IncludeUncatalogued keeps keys whose material is absent from the
	// product catalog.
	IncludeUncatalogued bool
}

// Forecast is the reconciliation join over one snapshot of the collections.
type Forecast struct {
	catalog    *Catalog
	window     *SalesWindow
	inventario StockIndex
	transitos  StockIndex
	candidates []shared.CompositeKey
}

// NewForecast indexes the sources against the reference day. Every
// aggregate is computed from this snapshot only.
func NewForecast(src Sources, today time.Time, opts ForecastOptions) *Forecast {
	f := &Forecast{
		catalog:    BuildCatalog(src.Productos, src.Puntos),
		window:     NewSalesWindow(src.Ventas, today),
		inventario: BuildStockIndex(src.Inventario, shared.FieldInventario),
		transitos:  BuildStockIndex(src.Transitos, shared.FieldTransitos),
	}

	seen := make(map[shared.CompositeKey]struct{})
	for _, records := range [][]shared.Record{src.Inventario, src.Transitos, src.Ventas} {
		for _, r := range records {
			k := keyOf(r)
			if k.Material == "" {
				continue
			}
			if !opts.IncludeUncatalogued && !f.catalog.HasItem(k.Material) {
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			f.candidates = append(f.candidates, k)
		}
	}
	return f
}

// Rows returns every active row accepted by filter, sorted by prior-month
// shipment suggestion descending, then centro and material ascending.
func (f *Forecast) Rows(filter Filter) []Row {
	rows := make([]Row, 0, len(f.candidates))
	for _, k := range f.candidates {
		row := f.build(k)
		if !filter.Match(row) || !row.hasActivity() {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].EnvioPasadas != rows[j].EnvioPasadas {
			return rows[i].EnvioPasadas > rows[j].EnvioPasadas
		}
		return rows[i].Key().Less(rows[j].Key())
	})
	return rows
}

func (f *Forecast) build(k shared.CompositeKey) Row {
	item, _ := f.catalog.Item(k.Material)
	loc, _ := f.catalog.Location(k.Centro)

	totals := f.window.MonthlyTotals(k)
	sum := 0
	for _, t := range totals {
		sum += t
	}
	pasado := totals[0]
	promedio := shared.Round(float64(sum)/float64(len(totals)), 2)
	inv := shared.Int(f.inventario[k])

	row := Row{
		Centro:          k.Centro,
		Material:        k.Material,
		Producto:        item.Name,
		Marca:           item.Brand,
		Punto:           loc.Name,
		Canal:           loc.Channel,
		VentasMesActual: shared.Int(f.window.CurrentMonthTotal(k)),
		VentasMesPasado: pasado,
		Promedio3Meses:  promedio,
		Inventario:      inv,
		Transitos:       shared.Int(f.transitos[k]),
		Envio3Meses:     shared.Round(promedio-float64(inv), 2),
		EnvioPasadas:    shared.Round(float64(pasado-inv), 2),
	}
	if m, ok := f.window.Median(k); ok {
		row.Mediana = ratio(m, 1, 2)
	}
	if promedio != 0 {
		row.Indicador3Meses = ratio(float64(inv), promedio, 4)
	}
	if pasado != 0 {
		row.IndicadorMesPasado = ratio(float64(inv), float64(pasado), 4)
	}
	return row
}

func ratio(num, den float64, places int32) *float64 {
	v := shared.Round(num/den, places)
	return &v
}

// Result is one page of the report.
type Result struct {
	Records    []Row `json:"records"`
	Total      int   `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// Query filters, sorts and paginates the report.
func (f *Forecast) Query(filter Filter, req PageRequest) Result {
	page, info := Paginate(f.Rows(filter), req)
	return Result{
		Records:    page,
		Total:      info.Total,
		Page:       info.Page,
		PageSize:   info.PageSize,
		TotalPages: info.TotalPages,
	}
}

package reconciliation

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coltrade/backend/internal/domain/shared"
)

var june15 = time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

func product(material, name, brand string) shared.Record {
	return shared.Record{shared.FieldMaterial: material, shared.FieldProducto: name, shared.FieldMarca: brand}
}

func point(centro, name, canal string) shared.Record {
	return shared.Record{shared.FieldCentro: centro, shared.FieldPunto: name, shared.FieldCanal: canal}
}

func sale(centro, material, date string, qty float64) shared.Record {
	return shared.Record{
		shared.FieldCentro:   centro,
		shared.FieldMaterial: material,
		shared.FieldFecha:    date,
		shared.FieldCantidad: qty,
	}
}

func stock(centro, material, field string, qty int) shared.Record {
	return shared.Record{shared.FieldCentro: centro, shared.FieldMaterial: material, field: qty}
}

func windowSources() Sources {
	return Sources{
		Productos: []shared.Record{product("100", "Cargador", "Aiwa")},
		Puntos:    []shared.Record{point("C1", "Centro Mayor", "Retail")},
		Ventas: []shared.Record{
			sale("C1", "100", "2025-05-10", 5),
			sale("C1", "100", "2025-04-20", 3),
			sale("C1", "100", "2025-03-01", 7),
			sale("C1", "100", "2025-06-01", 9),
		},
	}
}

func TestForecast_TrailingWindow(t *testing.T) {
	rows := NewForecast(windowSources(), june15, ForecastOptions{}).Rows(Filter{})
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "C1", row.Centro)
	assert.Equal(t, "100", row.Material)
	assert.Equal(t, "Cargador", row.Producto)
	assert.Equal(t, "Aiwa", row.Marca)
	assert.Equal(t, "Centro Mayor", row.Punto)
	assert.Equal(t, "Retail", row.Canal)
	assert.Equal(t, 9, row.VentasMesActual)
	assert.Equal(t, 5, row.VentasMesPasado)
	assert.Equal(t, 5.0, row.Promedio3Meses)
	require.NotNil(t, row.Mediana)
	assert.Equal(t, 6.0, *row.Mediana)
	assert.Equal(t, 5.0, row.Envio3Meses)
	assert.Equal(t, 5.0, row.EnvioPasadas)
	require.NotNil(t, row.Indicador3Meses)
	assert.Equal(t, 0.0, *row.Indicador3Meses)
}

func TestForecast_MonthlyTotals(t *testing.T) {
	w := NewSalesWindow(windowSources().Ventas, june15)
	k := shared.NewCompositeKey("C1", "100")

	assert.Equal(t, []int{5, 3, 7}, w.MonthlyTotals(k))
	assert.Equal(t, 9.0, w.CurrentMonthTotal(k))
	assert.Equal(t, shared.YearMonth{Year: 2025, Month: time.May}, w.Months()[0])
}

func TestForecast_UnparseableDatesExcluded(t *testing.T) {
	src := windowSources()
	src.Ventas = append(src.Ventas, sale("C1", "100", "no es fecha", 1000))

	rows := NewForecast(src, june15, ForecastOptions{}).Rows(Filter{})
	require.Len(t, rows, 1)
	assert.Equal(t, 9, rows[0].VentasMesActual)
	assert.Equal(t, 6.0, *rows[0].Mediana)
}

func TestForecast_CanonicalMaterialsJoin(t *testing.T) {
	src := Sources{
		Productos: []shared.Record{product("123", "Audifonos", "Sony")},
		Inventario: []shared.Record{
			stock("C1", "123.0", shared.FieldInventario, 4),
		},
		Ventas: []shared.Record{
			sale("C1", "1.23E+2", "2025-05-02", 2),
			sale("c1", "123", "2025-05-03", 1),
			sale("C1", "123.0", "2025-06-03", 6),
		},
	}

	rows := NewForecast(src, june15, ForecastOptions{}).Rows(Filter{})
	require.Len(t, rows, 1)
	assert.Equal(t, "123", rows[0].Material)
	assert.Equal(t, "Audifonos", rows[0].Producto)
	assert.Equal(t, 4, rows[0].Inventario)
	assert.Equal(t, 3, rows[0].VentasMesPasado)
	assert.Equal(t, 6, rows[0].VentasMesActual)
}

func TestForecast_ZeroRowsDropped(t *testing.T) {
	src := Sources{
		Productos: []shared.Record{product("1", "A", "X"), product("2", "B", "X")},
		Inventario: []shared.Record{
			stock("C1", "1", shared.FieldInventario, 0),
			stock("C1", "2", shared.FieldInventario, 3),
		},
		Transitos: []shared.Record{stock("C1", "1", shared.FieldTransitos, 0)},
		Ventas:    []shared.Record{sale("C1", "1", "2024-01-01", 8)},
	}

	rows := NewForecast(src, june15, ForecastOptions{}).Rows(Filter{})
	require.Len(t, rows, 1)
	assert.Equal(t, "2", rows[0].Material)
}

func TestForecast_NegativeStockKept(t *testing.T) {
	src := Sources{
		Productos:  []shared.Record{product("100", "A", "X")},
		Inventario: []shared.Record{stock("C1", "100", shared.FieldInventario, -3)},
	}

	rows := NewForecast(src, june15, ForecastOptions{}).Rows(Filter{})
	require.Len(t, rows, 1)
	assert.Equal(t, -3, rows[0].Inventario)
	assert.Equal(t, 3.0, rows[0].EnvioPasadas)
}

func TestForecast_FractionalStockTruncatedAfterSum(t *testing.T) {
	src := Sources{
		Productos: []shared.Record{product("100", "A", "X")},
		Inventario: []shared.Record{
			{shared.FieldCentro: "C1", shared.FieldMaterial: "100", shared.FieldInventario: 0.5},
			{shared.FieldCentro: "C1", shared.FieldMaterial: "100", shared.FieldInventario: 0.6},
		},
	}

	rows := NewForecast(src, june15, ForecastOptions{}).Rows(Filter{})
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Inventario)
}

func TestForecast_NullIndicators(t *testing.T) {
	src := Sources{
		Productos:  []shared.Record{product("1", "A", "X")},
		Inventario: []shared.Record{stock("C1", "1", shared.FieldInventario, 10)},
	}

	rows := NewForecast(src, june15, ForecastOptions{}).Rows(Filter{})
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Indicador3Meses)
	assert.Nil(t, rows[0].IndicadorMesPasado)
	assert.Nil(t, rows[0].Mediana)
	assert.Equal(t, -10.0, rows[0].EnvioPasadas)

	raw, err := json.Marshal(rows[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"Indicador_3_Meses":null`)
	assert.Contains(t, string(raw), `"Centro Costos":"C1"`)
}

func TestForecast_InventorySummedPerKey(t *testing.T) {
	src := Sources{
		Productos: []shared.Record{product("1", "A", "X")},
		Inventario: []shared.Record{
			stock("C1", "1", shared.FieldInventario, 2),
			stock("C1", "1", shared.FieldInventario, 3),
		},
	}

	rows := NewForecast(src, june15, ForecastOptions{}).Rows(Filter{})
	require.Len(t, rows, 1)
	assert.Equal(t, 5, rows[0].Inventario)
}

func TestForecast_UncataloguedItems(t *testing.T) {
	src := Sources{
		Inventario: []shared.Record{stock("C1", "999", shared.FieldInventario, 4)},
	}

	assert.Empty(t, NewForecast(src, june15, ForecastOptions{}).Rows(Filter{}))

	rows := NewForecast(src, june15, ForecastOptions{IncludeUncatalogued: true}).Rows(Filter{})
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].Producto)
	assert.Equal(t, "", rows[0].Punto)
}

func TestForecast_SortTieBreak(t *testing.T) {
	src := Sources{
		Productos: []shared.Record{product("10", "A", "X"), product("20", "B", "X")},
		Inventario: []shared.Record{
			stock("C2", "10", shared.FieldInventario, 1),
			stock("C1", "20", shared.FieldInventario, 1),
			stock("C1", "10", shared.FieldInventario, 1),
			stock("C3", "10", shared.FieldInventario, 0),
		},
		Ventas: []shared.Record{sale("C3", "10", "2025-05-01", 4)},
	}

	rows := NewForecast(src, june15, ForecastOptions{}).Rows(Filter{})
	require.Len(t, rows, 4)

	got := make([]string, 0, len(rows))
	for _, r := range rows {
		got = append(got, r.Centro+"/"+r.Material)
	}
	assert.Equal(t, []string{"C3/10", "C1/10", "C1/20", "C2/10"}, got)
}

func TestForecast_FilterNarrows(t *testing.T) {
	src := Sources{
		Productos: []shared.Record{
			product("1", "Cable USB", "Aiwa"),
			product("2", "Parlante", "Sony"),
		},
		Puntos: []shared.Record{
			point("C1", "Norte", "Retail"),
			point("C2", "Sur", "Mayorista"),
		},
		Inventario: []shared.Record{
			stock("C1", "1", shared.FieldInventario, 1),
			stock("C2", "1", shared.FieldInventario, 1),
			stock("C2", "2", shared.FieldInventario, 1),
		},
	}
	f := NewForecast(src, june15, ForecastOptions{})
	all := f.Rows(Filter{})

	tests := []struct {
		name   string
		params FilterParams
		check  func(Row) bool
		want   int
	}{
		{"centro", FilterParams{Centro: "c2"}, func(r Row) bool { return r.Centro == "C2" }, 2},
		{"marca", FilterParams{Marca: "AIWA"}, func(r Row) bool { return r.Marca == "Aiwa" }, 2},
		{"producto substring", FilterParams{Producto: "usb"}, func(r Row) bool { return r.Producto == "Cable USB" }, 2},
		{"canal", FilterParams{Canal: "retail"}, func(r Row) bool { return r.Canal == "Retail" }, 1},
		{"punto list", FilterParams{Punto: "norte, sur"}, func(Row) bool { return true }, 3},
		{"material variant", FilterParams{Material: "2.0"}, func(r Row) bool { return r.Material == "2" }, 1},
		{"combined", FilterParams{Centro: "C2", Marca: "sony"}, func(r Row) bool { return r.Material == "2" }, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := f.Rows(NewFilter(tt.params))
			assert.Len(t, rows, tt.want)
			assert.LessOrEqual(t, len(rows), len(all))
			for _, r := range rows {
				assert.True(t, tt.check(r), "%+v", r)
			}
		})
	}
}

func TestForecast_PaginationCoversEveryRow(t *testing.T) {
	src := Sources{}
	for i := 0; i < 23; i++ {
		m := fmt.Sprintf("%d", 1000+i)
		src.Productos = append(src.Productos, product(m, "P", "B"))
		src.Inventario = append(src.Inventario, stock("C1", m, shared.FieldInventario, i+1))
	}
	f := NewForecast(src, june15, ForecastOptions{})

	for _, size := range []int{1, 5, 7, 23, 50} {
		first := f.Query(Filter{}, PageRequest{Page: 1, PageSize: size})
		seen := make(map[shared.CompositeKey]bool)
		count := 0
		for p := 1; p <= first.TotalPages; p++ {
			res := f.Query(Filter{}, PageRequest{Page: p, PageSize: size})
			for _, r := range res.Records {
				assert.False(t, seen[r.Key()], "row on two pages")
				seen[r.Key()] = true
				count++
			}
		}
		assert.Equal(t, first.Total, count, "page size %d", size)
	}
}

func TestForecast_Idempotent(t *testing.T) {
	src := windowSources()
	a := NewForecast(src, june15, ForecastOptions{}).Query(Filter{}, PageRequest{Page: 1, PageSize: 10})
	b := NewForecast(src, june15, ForecastOptions{}).Query(Filter{}, PageRequest{Page: 1, PageSize: 10})
	assert.Equal(t, a, b)
}

func TestForecast_QueryClampsPage(t *testing.T) {
	res := NewForecast(windowSources(), june15, ForecastOptions{}).Query(Filter{}, PageRequest{Page: 9, PageSize: 50})
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, res.TotalPages)
	assert.Len(t, res.Records, 1)
}

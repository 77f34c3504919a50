package reconciliation

import (
	"sort"
	"time"

	"github.com/coltrade/backend/internal/domain/shared"
)

// TrailingWindow is the number of full months averaged by the report.
const TrailingWindow = 3

// SalesWindow pre-groups the sales log by composite key and calendar month
// relative to a reference day. Build it once per request.
type SalesWindow struct {
	months  []shared.YearMonth
	current shared.YearMonth
	monthly map[shared.CompositeKey]map[shared.YearMonth]float64
	history map[shared.CompositeKey][]float64
}

// NewSalesWindow groups sales in a single pass. Records whose date does not
// parse are left out of every aggregate.
func NewSalesWindow(sales []shared.Record, today time.Time) *SalesWindow {
	w := &SalesWindow{
		months:  shared.TrailingMonths(today, TrailingWindow),
		current: shared.YearMonthOf(today),
		monthly: make(map[shared.CompositeKey]map[shared.YearMonth]float64),
		history: make(map[shared.CompositeKey][]float64),
	}
	for _, r := range sales {
		k := keyOf(r)
		if k.Material == "" {
			continue
		}
		d, ok := shared.ParseDate(r[shared.FieldFecha])
		if !ok {
			continue
		}
		qty := r.Float(shared.FieldCantidad)
		buckets, ok := w.monthly[k]
		if !ok {
			buckets = make(map[shared.YearMonth]float64)
			w.monthly[k] = buckets
		}
		buckets[shared.YearMonthOf(d)] += qty
		w.history[k] = append(w.history[k], qty)
	}
	return w
}

// Months returns the trailing buckets, most recent first.
func (w *SalesWindow) Months() []shared.YearMonth {
	return w.months
}

// MonthlyTotals returns the truncated sum of each trailing month for k,
// aligned with Months.
func (w *SalesWindow) MonthlyTotals(k shared.CompositeKey) []int {
	out := make([]int, len(w.months))
	buckets := w.monthly[k]
	for i, m := range w.months {
		out[i] = shared.Int(buckets[m])
	}
	return out
}

// CurrentMonthTotal sums the sales of k in the month of the reference day.
func (w *SalesWindow) CurrentMonthTotal(k shared.CompositeKey) float64 {
	return w.monthly[k][w.current]
}

// Median is the median quantity over every dated sale of k.
func (w *SalesWindow) Median(k shared.CompositeKey) (float64, bool) {
	values := w.history[k]
	if len(values) == 0 {
		return 0, false
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], true
	}
	return (sorted[mid-1] + sorted[mid]) / 2, true
}

// Keys lists every key with at least one dated sale.
func (w *SalesWindow) Keys() []shared.CompositeKey {
	keys := make([]shared.CompositeKey, 0, len(w.history))
	for k := range w.history {
		keys = append(keys, k)
	}
	return keys
}

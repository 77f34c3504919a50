package shared

import (
	"strconv"
	"strings"
	"time"
)

// ISODate is the storage layout of normalized sale dates.
const ISODate = "2006-01-02"

var dateLayouts = []string{
	ISODate,
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
	"01/02/2006",
}

// ParseDate reads a calendar date in any of the accepted layouts. A time
// suffix separated by a space or "T" is ignored.
func ParseDate(v any) (time.Time, bool) {
	if t, ok := v.(time.Time); ok {
		if t.IsZero() {
			return time.Time{}, false
		}
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}
	s := Text(v)
	if s == "" {
		return time.Time{}, false
	}
	if i := strings.IndexAny(s, " T"); i > 0 {
		s = s[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate returns the ISO form of v when it parses and the trimmed
// original text otherwise.
func NormalizeDate(v any) string {
	if t, ok := ParseDate(v); ok {
		return t.Format(ISODate)
	}
	return Text(v)
}

// MonthStart truncates t to the first day of its month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// YearMonth identifies a calendar month bucket.
type YearMonth struct {
	Year  int
	Month time.Month
}

// YearMonthOf returns the bucket containing t.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// TrailingMonths returns the n month buckets before the month of today,
// most recent first.
func TrailingMonths(today time.Time, n int) []YearMonth {
	start := MonthStart(today)
	out := make([]YearMonth, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, YearMonthOf(start.AddDate(0, -i, 0)))
	}
	return out
}

var spanishMonths = [...]string{
	"", "Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// SpanishLabel renders the bucket as "Mes - Año".
func (ym YearMonth) SpanishLabel() string {
	return spanishMonths[ym.Month] + " - " + strconv.Itoa(ym.Year)
}

// Before orders buckets chronologically.
func (ym YearMonth) Before(o YearMonth) bool {
	if ym.Year != o.Year {
		return ym.Year < o.Year
	}
	return ym.Month < o.Month
}

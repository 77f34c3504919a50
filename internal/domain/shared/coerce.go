package shared

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Float coerces any collection value to a number. Values that cannot be read
// as a finite number resolve to 0.
func Float(v any) float64 {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case int32:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case decimal.Decimal:
		f = t.InexactFloat64()
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(t)
		if isBlank(s) {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Int coerces a value to an integer, truncating toward zero.
func Int(v any) int {
	return int(math.Trunc(Float(v)))
}

// Text coerces a value to a trimmed string. Missing and NaN values become "".
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return Text(float64(t))
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "True"
		}
		return "False"
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// Bool coerces a value to a boolean; "true", "1", "si" and non-zero numbers are true.
func Bool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "si", "sí", "yes":
			return true
		}
		return false
	default:
		return Float(v) != 0
	}
}

// Compact returns an int when f is integral and f otherwise, so stored
// quantities keep their natural JSON form.
func Compact(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}

// Round rounds the exact binary value of f half to even at the given number
// of decimal places, so 1.015 (stored as 1.01499...) rounds to 1.01.
func Round(f float64, places int32) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return decimal.NewFromFloatWithExponent(f, math.MinInt32).RoundBank(places).InexactFloat64()
}

func isBlank(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "none", "null":
		return true
	}
	return false
}

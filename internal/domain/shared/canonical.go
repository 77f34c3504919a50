package shared

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	floatSuffixRe  = regexp.MustCompile(`^(\d+)\.0+$`)
	scientificRe   = regexp.MustCompile(`^[+-]?\d+([.,]\d+)?[eE][+-]?\d+$`)
	decimalCommaRe = regexp.MustCompile(`^\d+,\d+$`)
	thousandsRe    = regexp.MustCompile(`^\d{1,3}(,\d{3}){2,}$`)
	nonDigitRe     = regexp.MustCompile(`\D`)
	nonAlnumRe     = regexp.MustCompile(`[^A-Za-z0-9]`)
)

// CanonicalMaterial maps an item code to its stable string form. Spreadsheet
// artifacts such as "123.0", "1.23E+2" or "8,40081E+11" collapse to the
// integer text; anything else is returned trimmed.
func CanonicalMaterial(v any) string {
	s := Text(v)
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\u200b", "")
	s = strings.ReplaceAll(s, " ", "")

	if scientificRe.MatchString(s) {
		if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
			return formatCode(f)
		}
	}
	if m := floatSuffixRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if decimalCommaRe.MatchString(s) {
		if f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64); err == nil {
			return formatCode(f)
		}
	}
	if thousandsRe.MatchString(s) {
		return strings.ReplaceAll(s, ",", "")
	}
	return s
}

// CanonicalCentro maps a cost-center code to upper case with inner
// whitespace collapsed.
func CanonicalCentro(v any) string {
	return strings.ToUpper(strings.Join(strings.Fields(Text(v)), " "))
}

// CompositeKey is the (location, item) join key.
type CompositeKey struct {
	Centro   string
	Material string
}

// NewCompositeKey canonicalizes both parts of the key.
func NewCompositeKey(centro, material any) CompositeKey {
	return CompositeKey{Centro: CanonicalCentro(centro), Material: CanonicalMaterial(material)}
}

// Less orders keys by centro then material.
func (k CompositeKey) Less(o CompositeKey) bool {
	if k.Centro != o.Centro {
		return k.Centro < o.Centro
	}
	return k.Material < o.Material
}

// MaterialVariants returns the spellings under which a material may appear
// in another file: trimmed text, canonical form, digits only and digits
// without leading zeros.
func MaterialVariants(v any) map[string]struct{} {
	out := make(map[string]struct{})
	s := Text(v)
	if s == "" {
		return out
	}
	out[s] = struct{}{}
	if c := CanonicalMaterial(s); c != "" {
		out[c] = struct{}{}
	}
	if m := floatSuffixRe.FindStringSubmatch(s); m != nil {
		out[m[1]] = struct{}{}
	} else if digits := nonDigitRe.ReplaceAllString(s, ""); digits != "" {
		out[digits] = struct{}{}
		out[trimZeros(digits)] = struct{}{}
	}
	return out
}

// CentroVariants returns the spellings under which a cost center may appear:
// upper case, alphanumeric only, with and without a leading "C", and the
// bare digits with and without leading zeros.
func CentroVariants(v any) map[string]struct{} {
	out := make(map[string]struct{})
	s := Text(v)
	if s == "" {
		return out
	}
	upper := strings.ToUpper(s)
	out[upper] = struct{}{}
	alnum := nonAlnumRe.ReplaceAllString(upper, "")
	if alnum != "" {
		out[alnum] = struct{}{}
		if strings.HasPrefix(alnum, "C") && len(alnum) > 1 {
			out[alnum[1:]] = struct{}{}
		}
	}
	if digits := nonDigitRe.ReplaceAllString(s, ""); digits != "" {
		out[digits] = struct{}{}
		out[trimZeros(digits)] = struct{}{}
		out["C"+digits] = struct{}{}
	}
	return out
}

// Intersects reports whether any variant is present in set.
func Intersects(variants, set map[string]struct{}) bool {
	for v := range variants {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}

func formatCode(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func trimZeros(digits string) string {
	t := strings.TrimLeft(digits, "0")
	if t == "" {
		return "0"
	}
	return t
}

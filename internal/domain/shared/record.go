package shared

// Record is one loosely typed entry of a collection file.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Text returns the coerced string value of field.
func (r Record) Text(field string) string {
	return Text(r[field])
}

// Float returns the coerced numeric value of field.
func (r Record) Float(field string) float64 {
	return Float(r[field])
}

package form

import (
	"strconv"

	"github.com/certportal/certportal/internal/catalog"
)

// Payload serialises f for the backend. Empty values are omitted entirely
// and numeric fields are sent as numbers.
func Payload(f Form) map[string]any {
	out := make(map[string]any)
	put := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	put("name", f.Name)
	put("phone", f.Phone)
	put("category", f.Category)
	put("batch", f.Batch)
	put("letterType", f.LetterType)
	put("course", f.Course)

	for field, v := range f.Fields {
		if v == "" {
			continue
		}
		spec, ok := catalog.Spec(field)
		if ok && spec.Kind == catalog.KindNumber {
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				out[string(field)] = n
				continue
			}
		}
		out[string(field)] = v
	}
	return out
}

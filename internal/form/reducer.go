package form

import (
	"fmt"
	"sort"
	"strings"

	"github.com/certportal/certportal/internal/catalog"
)

// Reduce applies a to f and returns the resulting form. f is never mutated.
// Selecting the value a selector already holds is a no-op.
func Reduce(cat *catalog.Catalog, f Form, a Action) (Form, Effect, error) {
	switch a.Type {
	case ActionSetCategory:
		return setCategory(cat, f, strings.TrimSpace(a.Value))
	case ActionSetLetterType:
		return setLetterType(cat, f, strings.TrimSpace(a.Value))
	case ActionSetSubtype:
		return setSubtype(cat, f, strings.TrimSpace(a.Value))
	case ActionSetField:
		return setField(f, a.Field, strings.TrimSpace(a.Value))
	case ActionSetRecipient:
		return setRecipient(f, strings.TrimSpace(a.Name), strings.TrimSpace(a.Phone))
	case ActionSetBatch:
		v := strings.TrimSpace(a.Value)
		if v == f.Batch {
			return f, Effect{}, nil
		}
		next := f.Clone()
		next.Batch = v
		return next, Effect{Invalidate: true}, nil
	case ActionReset:
		return Form{Fields: map[catalog.Field]string{}}, Effect{Invalidate: true, Cleared: populated(f)}, nil
	default:
		return f, Effect{}, fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}
}

func setCategory(cat *catalog.Catalog, f Form, v string) (Form, Effect, error) {
	if v == f.Category {
		return f, Effect{}, nil
	}
	if v != "" && !cat.Has(v) {
		return f, Effect{}, fmt.Errorf("%w: %q", ErrUnknownCategory, v)
	}
	next := Form{Category: v, Fields: map[catalog.Field]string{}}
	return next, Effect{Invalidate: true, Cleared: populated(f)}, nil
}

func setLetterType(cat *catalog.Catalog, f Form, v string) (Form, Effect, error) {
	if v == f.LetterType {
		return f, Effect{}, nil
	}
	if f.Category == "" {
		return f, Effect{}, ErrNoCategory
	}
	if v != "" && !cat.HasLetterType(f.Category, v) {
		return f, Effect{}, fmt.Errorf("%w: %q", ErrUnknownLetterType, v)
	}
	next := f.Clone()
	next.LetterType = v
	next.Course = ""
	next.Fields = map[catalog.Field]string{}
	if v != "" && !cat.HasSubtypes(f.Category, v) {
		next.Course = v
	}
	return next, Effect{Invalidate: true, Cleared: populated(f)}, nil
}

func setSubtype(cat *catalog.Catalog, f Form, v string) (Form, Effect, error) {
	if v == f.Course {
		return f, Effect{}, nil
	}
	if f.LetterType == "" {
		return f, Effect{}, ErrNoLetterType
	}
	if v != "" && !cat.ValidSubtype(f.Category, f.LetterType, v) {
		return f, Effect{}, fmt.Errorf("%w: %q", ErrUnknownSubtype, v)
	}
	if v == "" && !cat.HasSubtypes(f.Category, f.LetterType) {
		// Types without subtypes keep course pinned to the type.
		return f, Effect{}, nil
	}
	next := f.Clone()
	next.Course = v
	var cleared []catalog.Field
	for k := range next.Fields {
		if !catalog.TypeWide(k) {
			delete(next.Fields, k)
			cleared = append(cleared, k)
		}
	}
	sortFields(cleared)
	return next, Effect{Invalidate: true, Cleared: cleared}, nil
}

func setField(f Form, field catalog.Field, v string) (Form, Effect, error) {
	if !catalog.Known(field) {
		return f, Effect{}, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if !catalog.Allowed(f.Course)[field] {
		return f, Effect{}, fmt.Errorf("%w: %s", ErrFieldNotApplicable, catalog.Label(field))
	}
	if f.Fields[field] == v {
		return f, Effect{}, nil
	}
	next := f.Clone()
	if v == "" {
		delete(next.Fields, field)
	} else {
		next.Fields[field] = v
	}
	return next, Effect{Invalidate: true}, nil
}

func setRecipient(f Form, name, phone string) (Form, Effect, error) {
	if name == f.Name && phone == f.Phone {
		return f, Effect{}, nil
	}
	next := f.Clone()
	next.Name = name
	next.Phone = phone
	return next, Effect{Invalidate: true}, nil
}

func populated(f Form) []catalog.Field {
	out := make([]catalog.Field, 0, len(f.Fields))
	for k := range f.Fields {
		out = append(out, k)
	}
	sortFields(out)
	return out
}

func sortFields(fs []catalog.Field) {
	sort.Slice(fs, func(i, j int) bool { return fs[i] < fs[j] })
}

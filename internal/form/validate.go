package form

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/certportal/certportal/internal/catalog"
)

// DateLayout is the wire format of every date field.
const DateLayout = "2006-01-02"

// ValidationError is the first failing check of Validate.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate runs the ordered checks and returns the first failure, or nil.
// The order is part of the user-facing contract: the message shown is always
// the earliest failing check.
func Validate(cat *catalog.Catalog, f Form) error {
	if strings.TrimSpace(f.Category) == "" {
		return invalid("category", "Please select a category")
	}
	if strings.TrimSpace(f.Name) == "" {
		return invalid("name", "Please select a recipient")
	}
	if strings.TrimSpace(f.LetterType) == "" {
		return invalid("letterType", "Please select a letter type")
	}
	if cat.HasSubtypes(f.Category, f.LetterType) && f.Course == "" {
		return invalid("course", "Please select a subtype")
	}
	if !cat.ValidSubtype(f.Category, f.LetterType, f.Course) {
		return invalid("course", "Please select a valid subtype")
	}
	if f.Get(catalog.FieldIssueDate) == "" {
		return invalid(string(catalog.FieldIssueDate), "Please select an issue date")
	}

	req := catalog.RequirementFor(f.Course)
	if catalog.Requires(f.Course, catalog.FieldRole) && f.Get(catalog.FieldRole) == "" {
		return invalid(string(catalog.FieldRole), "Please enter the role")
	}
	for _, field := range req.Required {
		if field == catalog.FieldRole {
			continue
		}
		if f.Get(field) == "" {
			return invalid(string(field), "%s is required", catalog.Label(field))
		}
	}

	dates := make(map[catalog.Field]time.Time)
	for _, field := range catalog.Fields() {
		v := f.Get(field)
		spec, _ := catalog.Spec(field)
		if v == "" || spec.Kind != catalog.KindDate {
			continue
		}
		t, err := time.Parse(DateLayout, v)
		if err != nil {
			return invalid(string(field), "%s must be a valid date (YYYY-MM-DD)", spec.Label)
		}
		dates[field] = t
	}
	for _, pair := range req.DatePairs {
		start, okStart := dates[pair.Start]
		end, okEnd := dates[pair.End]
		if !okStart || !okEnd {
			return invalid(string(pair.End), "%s and %s are both required", catalog.Label(pair.Start), catalog.Label(pair.End))
		}
		if end.Before(start) {
			return invalid(string(pair.End), "%s cannot be before %s", catalog.Label(pair.End), catalog.Label(pair.Start))
		}
	}

	for _, field := range catalog.Fields() {
		v := f.Get(field)
		spec, _ := catalog.Spec(field)
		if v == "" || spec.Kind != catalog.KindNumber {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return invalid(string(field), "%s must be a number", spec.Label)
		}
		if spec.HasRange && (n < spec.Min || n > spec.Max) {
			return invalid(string(field), "%s must be between %g and %g", spec.Label, spec.Min, spec.Max)
		}
	}

	for _, field := range catalog.Fields() {
		v := f.Get(field)
		spec, _ := catalog.Spec(field)
		if spec.MaxLength > 0 && utf8.RuneCountInString(v) > spec.MaxLength {
			return invalid(string(field), "%s must be at most %d characters", spec.Label, spec.MaxLength)
		}
	}
	return nil
}

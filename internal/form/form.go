// Package form implements the issuance form as a pure reducer over tagged
// actions. Cascade clearing lives in Reduce so it can be tested without any
// transport attached.
package form

import (
	"errors"

	"github.com/certportal/certportal/internal/catalog"
)

var (
	ErrUnknownAction      = errors.New("unknown form action")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrUnknownLetterType  = errors.New("letter type not offered for category")
	ErrUnknownSubtype     = errors.New("subtype not offered for letter type")
	ErrNoCategory         = errors.New("select a category first")
	ErrNoLetterType       = errors.New("select a letter type first")
	ErrUnknownField       = errors.New("unknown form field")
	ErrFieldNotApplicable = errors.New("field does not apply to the selected subtype")
)

// Form is the full issuance form. Situational values live in Fields keyed
// by catalog field name; an absent key means the field is empty.
type Form struct {
	Category   string                   `json:"category"`
	Batch      string                   `json:"batch,omitempty"`
	Name       string                   `json:"name"`
	Phone      string                   `json:"phone,omitempty"`
	LetterType string                   `json:"letterType"`
	Course     string                   `json:"course"`
	Fields     map[catalog.Field]string `json:"fields"`
}

// Get returns the value of a situational field.
func (f Form) Get(field catalog.Field) string {
	return f.Fields[field]
}

// Clone returns a deep copy of f.
func (f Form) Clone() Form {
	out := f
	out.Fields = make(map[catalog.Field]string, len(f.Fields))
	for k, v := range f.Fields {
		out.Fields[k] = v
	}
	return out
}

// ActionType tags a form action.
type ActionType string

const (
	ActionSetCategory   ActionType = "set_category"
	ActionSetLetterType ActionType = "set_letter_type"
	ActionSetSubtype    ActionType = "set_subtype"
	ActionSetField      ActionType = "set_field"
	ActionSetRecipient  ActionType = "set_recipient"
	ActionSetBatch      ActionType = "set_batch"
	ActionReset         ActionType = "reset"
)

// Action is a single user edit.
type Action struct {
	Type  ActionType    `json:"type"`
	Value string        `json:"value,omitempty"`
	Field catalog.Field `json:"field,omitempty"`
	Name  string        `json:"name,omitempty"`
	Phone string        `json:"phone,omitempty"`
}

func SetCategory(v string) Action   { return Action{Type: ActionSetCategory, Value: v} }
func SetLetterType(v string) Action { return Action{Type: ActionSetLetterType, Value: v} }
func SetSubtype(v string) Action    { return Action{Type: ActionSetSubtype, Value: v} }
func SetBatch(v string) Action      { return Action{Type: ActionSetBatch, Value: v} }
func Reset() Action                 { return Action{Type: ActionReset} }

func SetField(f catalog.Field, v string) Action {
	return Action{Type: ActionSetField, Field: f, Value: v}
}

func SetRecipient(name, phone string) Action {
	return Action{Type: ActionSetRecipient, Name: name, Phone: phone}
}

// Effect reports side effects of a reduction the caller must honour.
type Effect struct {
	// Invalidate is set whenever the form changed. Any cached preview and
	// OTP verification no longer describe the form.
	Invalidate bool
	// Cleared lists situational fields dropped by a cascade.
	Cleared []catalog.Field
}

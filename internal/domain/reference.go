package domain

import "time"

// Person represents a trainee, employee or client contact letters are issued to
type Person struct {
	ID        string     `json:"_id,omitempty"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	Email     string     `json:"email,omitempty"`
	Category  string     `json:"category"`
	Batch     string     `json:"batch,omitempty"`
	Disabled  bool       `json:"disabled,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Batch represents a cohort within a category
type Batch struct {
	ID       string `json:"_id,omitempty"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Category represents a backend-managed category record. The issuable letter
// types per category come from the static catalog, not from this record.
type Category struct {
	ID          string `json:"_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// PeopleFilter narrows a people listing
type PeopleFilter struct {
	Category string
	Batch    string
}

package domain

import "time"

// LetterStatus represents the lifecycle state of an issued letter
type LetterStatus string

const (
	LetterStatusPending  LetterStatus = "pending"
	LetterStatusApproved LetterStatus = "approved"
	LetterStatusRejected LetterStatus = "rejected"
	LetterStatusRevoked  LetterStatus = "revoked"
)

// Valid reports whether s is a known status.
func (s LetterStatus) Valid() bool {
	switch s {
	case LetterStatusPending, LetterStatusApproved, LetterStatusRejected, LetterStatusRevoked:
		return true
	}
	return false
}

// Certificate represents an issued certificate or letter as listed by the backend
type Certificate struct {
	ID         string       `json:"_id"`
	LetterID   string       `json:"letterId,omitempty"`
	Name       string       `json:"name"`
	Category   string       `json:"category"`
	Batch      string       `json:"batch,omitempty"`
	LetterType string       `json:"letterType,omitempty"`
	Course     string       `json:"course,omitempty"`
	IssueDate  string       `json:"issueDate,omitempty"`
	Status     LetterStatus `json:"status,omitempty"`
	CreatedAt  *time.Time   `json:"createdAt,omitempty"`
}

// BulkCertificate is one row of a bulk create request
type BulkCertificate struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Course    string `json:"course"`
	Category  string `json:"category"`
	Batch     string `json:"batch,omitempty"`
	IssueDate string `json:"issueDate"`
}

// BulkFailure describes a row the backend refused
type BulkFailure struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// BulkCreateResponse represents the backend answer to a bulk create
type BulkCreateResponse struct {
	Created []Certificate `json:"created,omitempty"`
	Failed  []BulkFailure `json:"failed,omitempty"`
	Message string        `json:"message,omitempty"`
}

// StatusUpdate represents a letter status change
type StatusUpdate struct {
	Status LetterStatus `json:"status"`
	Note   string       `json:"note,omitempty"`
}

// DownloadFormat selects the rendering of a single-document download
type DownloadFormat string

const (
	FormatPDF DownloadFormat = "pdf"
	FormatJPG DownloadFormat = "jpg"
)

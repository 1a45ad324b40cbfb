package domain

// DocumentStatus represents the review state of an uploaded student document
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusVerified DocumentStatus = "verified"
	DocumentStatusRejected DocumentStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentStatusPending, DocumentStatusVerified, DocumentStatusRejected:
		return true
	}
	return false
}

// StudentDocument represents one uploaded document of a student
type StudentDocument struct {
	Type   string         `json:"type"`
	URL    string         `json:"url,omitempty"`
	Status DocumentStatus `json:"status"`
	Remark string         `json:"remark,omitempty"`
}

// StudentDocuments groups the documents uploaded by one student
type StudentDocuments struct {
	StudentID string            `json:"_id"`
	Name      string            `json:"name"`
	Phone     string            `json:"phone,omitempty"`
	Category  string            `json:"category,omitempty"`
	Documents []StudentDocument `json:"documents"`
}

// DocumentStatusUpdate represents a reviewer decision on a student document
type DocumentStatusUpdate struct {
	Status DocumentStatus `json:"status"`
	Remark string         `json:"remark,omitempty"`
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// IssuanceRecord represents a journal entry for a submitted letter
type IssuanceRecord struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Fingerprint string    `json:"fingerprint" db:"fingerprint"`
	ServerID    string    `json:"server_id,omitempty" db:"server_id"`
	Actor       string    `json:"actor" db:"actor"`
	Channel     string    `json:"channel" db:"channel"`
	Category    string    `json:"category" db:"category"`
	LetterType  string    `json:"letter_type" db:"letter_type"`
	Course      string    `json:"course" db:"course"`
	Recipient   string    `json:"recipient" db:"recipient"`
	SubmittedAt time.Time `json:"submitted_at" db:"submitted_at"`
}

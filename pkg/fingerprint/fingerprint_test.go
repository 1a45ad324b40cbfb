package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sample() Data {
	return Data{
		Name:       "Aarav Sharma",
		Phone:      "+91 98765-43210",
		Category:   "FSD",
		LetterType: "Warning Letter",
		Course:     "Warning for Low Attendance",
		Fields:     map[string]string{"attendancePercent": "45", "issueDate": "2025-01-15"},
	}
}

func TestNormalisationIgnoresFormatting(t *testing.T) {
	h := New("secret")
	a := h.Generate(sample())

	b := sample()
	b.Name = "  aarav   sharma "
	b.Phone = "919876543210"
	b.Fields = map[string]string{"issueDate": "2025-01-15", "attendancePercent": " 45 ", "reason": ""}

	assert.Equal(t, a, h.Generate(b))
}

func TestLevelsDiverge(t *testing.T) {
	h := New("secret")
	a := h.Generate(sample())

	other := sample()
	other.Fields = map[string]string{"attendancePercent": "50", "issueDate": "2025-01-15"}
	b := h.Generate(other)

	assert.Equal(t, a.L0Recipient, b.L0Recipient)
	assert.Equal(t, a.L1Document, b.L1Document)
	assert.NotEqual(t, a.L2Full, b.L2Full)
	assert.Equal(t, a.L2Full, a.Strongest())
}

func TestPartialData(t *testing.T) {
	h := New("secret")
	assert.Equal(t, &Result{}, h.Generate(Data{}))

	r := h.Generate(Data{Name: "Riya"})
	assert.NotEmpty(t, r.L0Recipient)
	assert.Empty(t, r.L1Document)
	assert.Equal(t, r.L0Recipient, r.Strongest())
}

func TestKeyMatters(t *testing.T) {
	assert.NotEqual(t, New("a").Hash("x"), New("b").Hash("x"))
	assert.Len(t, New("a").Hash("x"), 64)
}

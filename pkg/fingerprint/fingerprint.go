// Package fingerprint derives stable HMAC fingerprints of issued documents so
// repeated submissions of the same letter can be spotted.
package fingerprint

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Hasher computes fingerprints with a secret key
type Hasher struct {
	hmacKey []byte
}

// New creates a new Hasher with the given HMAC key
func New(hmacKey string) *Hasher {
	return &Hasher{
		hmacKey: []byte(hmacKey),
	}
}

// Data is the normalisable content of one issued document
type Data struct {
	Name       string
	Phone      string
	Category   string
	LetterType string
	Course     string
	// Fields holds situational values keyed by field name.
	Fields map[string]string
}

// Result holds the fingerprint at each level of detail
type Result struct {
	L0Recipient string `json:"l0_recipient,omitempty"` // name + phone
	L1Document  string `json:"l1_document,omitempty"`  // L0 + category + letter type + subtype
	L2Full      string `json:"l2_full,omitempty"`      // L1 + every situational field
}

var nonDigit = regexp.MustCompile(`[^0-9]`)

var spaces = regexp.MustCompile(`\s+`)

// NormalizePhone keeps digits only
func NormalizePhone(phone string) string {
	return nonDigit.ReplaceAllString(phone, "")
}

// NormalizeText trims, collapses inner whitespace and uppercases
func NormalizeText(s string) string {
	return strings.ToUpper(spaces.ReplaceAllString(strings.TrimSpace(s), " "))
}

// Hash creates an HMAC-SHA256 hash of the given data
func (h *Hasher) Hash(data string) string {
	mac := hmac.New(sha256.New, h.hmacKey)
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// Generate computes every level that d has enough data for
func (h *Hasher) Generate(d Data) *Result {
	res := &Result{}

	name := NormalizeText(d.Name)
	phone := NormalizePhone(d.Phone)
	if name == "" {
		return res
	}

	l0 := fmt.Sprintf("%s|%s", name, phone)
	res.L0Recipient = h.Hash(l0)

	category := NormalizeText(d.Category)
	letterType := NormalizeText(d.LetterType)
	course := NormalizeText(d.Course)
	if category == "" || letterType == "" {
		return res
	}
	l1 := fmt.Sprintf("%s|%s|%s|%s", l0, category, letterType, course)
	res.L1Document = h.Hash(l1)

	keys := make([]string, 0, len(d.Fields))
	for k, v := range d.Fields {
		if strings.TrimSpace(v) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(l1)
	for _, k := range keys {
		fmt.Fprintf(&b, "|%s=%s", k, NormalizeText(d.Fields[k]))
	}
	res.L2Full = h.Hash(b.String())

	return res
}

// Strongest returns the most detailed non-empty fingerprint
func (r *Result) Strongest() string {
	switch {
	case r.L2Full != "":
		return r.L2Full
	case r.L1Document != "":
		return r.L1Document
	default:
		return r.L0Recipient
	}
}

package issuance

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/certportal/certportal/internal/backend"
	"github.com/certportal/certportal/internal/catalog"
	"github.com/certportal/certportal/internal/form"
)

// ErrUnexpectedContent is returned when a preview is neither an image nor a PDF.
var ErrUnexpectedContent = errors.New("preview returned an unexpected content type")

// Renderer is the part of the backend that renders and issues documents.
type Renderer interface {
	Preview(ctx context.Context, ch catalog.Channel, payload map[string]any) (*backend.Document, error)
	Create(ctx context.Context, ch catalog.Channel, payload map[string]any) (*backend.Document, error)
}

// Receipt is the outcome of a successful submit.
type Receipt struct {
	LetterID string            `json:"letterId"`
	Filename string            `json:"filename"`
	Document *backend.Document `json:"-"`
	SavedTo  string            `json:"savedTo,omitempty"`
}

// Executor sends issuance forms to the backend.
type Executor struct {
	cat      *catalog.Catalog
	renderer Renderer
}

// NewExecutor creates a new Executor
func NewExecutor(cat *catalog.Catalog, renderer Renderer) *Executor {
	return &Executor{cat: cat, renderer: renderer}
}

// Preview renders a draft of f.
func (e *Executor) Preview(ctx context.Context, f form.Form) (*backend.Document, error) {
	doc, err := e.renderer.Preview(ctx, e.cat.Channel(f.Category), form.Payload(f))
	if err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}
	if doc.Kind != backend.KindImage && doc.Kind != backend.KindPDF {
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedContent, doc.ContentType)
	}
	return doc, nil
}

// Submit issues f and returns the rendered document with its server ID.
func (e *Executor) Submit(ctx context.Context, f form.Form) (*Receipt, error) {
	doc, err := e.renderer.Create(ctx, e.cat.Channel(f.Category), form.Payload(f))
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	name := doc.Filename
	if name == "" {
		name = DefaultFilename(f, doc)
	}
	return &Receipt{LetterID: doc.ID, Filename: filepath.Base(name), Document: doc}, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DefaultFilename names a document after its recipient and subtype.
func DefaultFilename(f form.Form, doc *backend.Document) string {
	ext := "pdf"
	switch {
	case doc.Kind == backend.KindImage && strings.Contains(doc.ContentType, "png"):
		ext = "png"
	case doc.Kind == backend.KindImage:
		ext = "jpg"
	case doc.Kind == backend.KindZip:
		ext = "zip"
	}
	parts := []string{f.Name, f.Course}
	if doc.ID != "" {
		parts = append(parts, doc.ID)
	}
	base := unsafeName.ReplaceAllString(strings.Join(parts, "_"), "_")
	base = strings.Trim(base, "_")
	if base == "" {
		base = "document"
	}
	return base + "." + ext
}

package issuance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/certportal/certportal/internal/backend"
)

// Saver hands a finished document to its destination. A workflow calls it
// exactly once per successful submit.
type Saver interface {
	Save(ctx context.Context, name string, doc *backend.Document) (string, error)
}

// DirSaver writes documents into a directory.
type DirSaver struct {
	Dir string
}

// Save writes doc to Dir/name and returns the written path.
func (s DirSaver) Save(ctx context.Context, name string, doc *backend.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	path := filepath.Join(s.Dir, filepath.Base(name))
	if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

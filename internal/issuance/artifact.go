package issuance

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/certportal/certportal/internal/backend"
)

// ErrArtifactNotFound is returned for a revoked or unknown handle.
var ErrArtifactNotFound = errors.New("preview artifact not found")

// Artifact is a rendered preview held server-side behind an opaque handle.
type Artifact struct {
	Handle      string               `json:"handle"`
	ContentType string               `json:"contentType"`
	Kind        backend.DocumentKind `json:"kind"`
	Size        int                  `json:"size"`
	CreatedAt   time.Time            `json:"createdAt"`
	Data        []byte               `json:"-"`
}

// ArtifactStore holds preview artifacts until they are revoked.
type ArtifactStore interface {
	Create(doc *backend.Document) (Artifact, error)
	Get(handle string) (Artifact, error)
	Revoke(handle string)
}

// MemoryStore is an in-process ArtifactStore issuing blob:<uuid> handles.
type MemoryStore struct {
	mu      sync.Mutex
	items   map[string]Artifact
	created int
	revoked int
	now     func() time.Time
}

// NewMemoryStore creates a new MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]Artifact),
		now:   time.Now,
	}
}

// Create stores a copy of doc's body under a fresh handle.
func (s *MemoryStore) Create(doc *backend.Document) (Artifact, error) {
	a := Artifact{
		Handle:      "blob:" + uuid.NewString(),
		ContentType: doc.ContentType,
		Kind:        doc.Kind,
		Size:        len(doc.Data),
		CreatedAt:   s.now(),
		Data:        append([]byte(nil), doc.Data...),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[a.Handle] = a
	s.created++
	return a, nil
}

// Get returns the artifact behind handle.
func (s *MemoryStore) Get(handle string) (Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.items[handle]
	if !ok {
		return Artifact{}, ErrArtifactNotFound
	}
	return a, nil
}

// Revoke releases handle. Unknown handles are ignored.
func (s *MemoryStore) Revoke(handle string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[handle]; !ok {
		return
	}
	delete(s.items, handle)
	s.revoked++
}

// Live returns the number of artifacts not yet revoked.
func (s *MemoryStore) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Stats returns how many artifacts were created and revoked so far.
func (s *MemoryStore) Stats() (created, revoked int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.created, s.revoked
}

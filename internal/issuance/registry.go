package issuance

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrWorkflowNotFound = errors.New("workflow not found")
	ErrForbidden        = errors.New("workflow belongs to another session")
)

// Factory builds a fresh workflow.
type Factory func() *Workflow

type entry struct {
	wf      *Workflow
	owner   string
	touched time.Time
}

// Registry tracks the open workflows of every session.
type Registry struct {
	factory Factory
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger

	mu    sync.Mutex
	items map[string]*entry
}

// NewRegistry creates a new Registry. Workflows idle for longer than ttl are
// closed by Sweep.
func NewRegistry(factory Factory, ttl time.Duration, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		factory: factory,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
		items:   make(map[string]*entry),
	}
}

// Create opens a workflow owned by owner and returns its ID.
func (r *Registry) Create(owner string) (string, *Workflow) {
	id := uuid.NewString()
	wf := r.factory()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[id] = &entry{wf: wf, owner: owner, touched: r.now()}
	return id, wf
}

// Get returns the workflow id if owner opened it.
func (r *Registry) Get(id, owner string) (*Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok {
		return nil, ErrWorkflowNotFound
	}
	if e.owner != owner {
		return nil, ErrForbidden
	}
	e.touched = r.now()
	return e.wf, nil
}

// Close drops workflow id and everything it holds.
func (r *Registry) Close(id, owner string) error {
	r.mu.Lock()
	e, ok := r.items[id]
	if !ok {
		r.mu.Unlock()
		return ErrWorkflowNotFound
	}
	if e.owner != owner {
		r.mu.Unlock()
		return ErrForbidden
	}
	delete(r.items, id)
	r.mu.Unlock()

	e.wf.Close()
	return nil
}

// CloseOwner drops every workflow of owner, e.g. on logout.
func (r *Registry) CloseOwner(owner string) int {
	r.mu.Lock()
	var doomed []*Workflow
	for id, e := range r.items {
		if e.owner == owner {
			doomed = append(doomed, e.wf)
			delete(r.items, id)
		}
	}
	r.mu.Unlock()

	for _, wf := range doomed {
		wf.Close()
	}
	return len(doomed)
}

// Sweep closes workflows idle for longer than the ttl.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var doomed []*Workflow
	for id, e := range r.items {
		if e.touched.Before(cutoff) {
			doomed = append(doomed, e.wf)
			delete(r.items, id)
		}
	}
	r.mu.Unlock()

	for _, wf := range doomed {
		wf.Close()
	}
	return len(doomed)
}

// Len returns the number of open workflows.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Info("closed idle workflows", zap.Int("count", n))
			}
		}
	}
}

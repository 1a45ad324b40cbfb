// Package issuance composes the form, the OTP gate and the backend into the
// preview-then-submit workflow for a single document.
package issuance

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/certportal/certportal/internal/catalog"
	"github.com/certportal/certportal/internal/form"
	"github.com/certportal/certportal/internal/otp"
)

var (
	ErrBusy             = errors.New("request already in progress")
	ErrNotVerified      = errors.New("OTP verification required before submitting")
	ErrAlreadySubmitted = errors.New("document already submitted")
	ErrStale            = errors.New("form changed while the request was in flight")
	ErrClosed           = errors.New("workflow closed")
	ErrNoPreview        = errors.New("no preview available")
	ErrPreviewRequired  = errors.New("preview the document before submitting")
)

// SubmitHook is told about every successful submit.
type SubmitHook func(ctx context.Context, f form.Form, r *Receipt)

// Options tunes a Workflow.
type Options struct {
	// AllowResubmit permits submitting again after a success without a new
	// OTP verification.
	AllowResubmit bool
	// ResetOnSuccess clears the form after a successful submit.
	ResetOnSuccess bool
	Saver          Saver
	OnSubmitted    SubmitHook
	Logger         *zap.Logger
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{AllowResubmit: true}
}

// Workflow is one issuance in progress: form, OTP gate and at most one live
// preview artifact. Network calls run without holding the lock.
type Workflow struct {
	cat    *catalog.Catalog
	exec   *Executor
	gate   *otp.Gate
	store  ArtifactStore
	opts   Options
	logger *zap.Logger

	mu          sync.Mutex
	form        form.Form
	preview     *Artifact
	gen         uint64
	previewBusy bool
	submitBusy  bool
	submitted   int
	lastID      string
	closed      bool
}

// NewWorkflow creates a new Workflow with an empty form
func NewWorkflow(cat *catalog.Catalog, exec *Executor, gate *otp.Gate, store ArtifactStore, opts Options) *Workflow {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{
		cat:    cat,
		exec:   exec,
		gate:   gate,
		store:  store,
		opts:   opts,
		logger: logger,
		form:   form.Form{Fields: map[catalog.Field]string{}},
	}
}

// Apply feeds a to the form reducer. Any change drops the preview and the
// OTP verification.
func (w *Workflow) Apply(a form.Action) (form.Effect, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return form.Effect{}, ErrClosed
	}

	next, eff, err := form.Reduce(w.cat, w.form, a)
	if err != nil {
		return eff, err
	}
	w.form = next
	if eff.Invalidate {
		w.invalidateLocked()
	}
	return eff, nil
}

// Form returns a copy of the current form.
func (w *Workflow) Form() form.Form {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form.Clone()
}

// Validate runs the ordered form checks.
func (w *Workflow) Validate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return form.Validate(w.cat, w.form)
}

// RequestOTP sends a code to the recipient once the form validates.
func (w *Workflow) RequestOTP(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	if err := form.Validate(w.cat, w.form); err != nil {
		w.mu.Unlock()
		return err
	}
	phone, name := w.form.Phone, w.form.Name
	w.mu.Unlock()

	return w.gate.Request(ctx, phone, name)
}

// ResendOTP issues a fresh code once the cooldown has run out.
func (w *Workflow) ResendOTP(ctx context.Context) error {
	return w.gate.Resend(ctx)
}

// CancelOTP drops the OTP session. The form is untouched.
func (w *Workflow) CancelOTP() {
	w.gate.Cancel()
}

// SubmitOTP verifies code and, on success, renders the preview.
func (w *Workflow) SubmitOTP(ctx context.Context, code string) (Artifact, error) {
	if err := w.gate.Submit(ctx, code); err != nil {
		return Artifact{}, err
	}
	return w.Preview(ctx)
}

// Preview renders the current form and replaces the live artifact. Results
// of a preview that outlived a form change are discarded.
func (w *Workflow) Preview(ctx context.Context) (Artifact, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return Artifact{}, ErrClosed
	}
	if w.previewBusy {
		w.mu.Unlock()
		return Artifact{}, ErrBusy
	}
	if err := form.Validate(w.cat, w.form); err != nil {
		w.mu.Unlock()
		return Artifact{}, err
	}
	w.previewBusy = true
	gen := w.gen
	f := w.form.Clone()
	w.mu.Unlock()

	doc, err := w.exec.Preview(ctx, f)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.previewBusy = false
	if w.closed {
		return Artifact{}, ErrClosed
	}
	if gen != w.gen {
		return Artifact{}, ErrStale
	}
	if err != nil {
		return Artifact{}, err
	}

	w.revokePreviewLocked()
	a, err := w.store.Create(doc)
	if err != nil {
		return Artifact{}, err
	}
	w.preview = &a
	return a, nil
}

// PreviewArtifact returns the live preview.
func (w *Workflow) PreviewArtifact() (Artifact, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.preview == nil {
		return Artifact{}, ErrNoPreview
	}
	return w.store.Get(w.preview.Handle)
}

// DismissPreview revokes the live preview without touching the OTP gate.
func (w *Workflow) DismissPreview() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.revokePreviewLocked()
}

// Submit issues the document and requires a verified OTP and a live
// preview of the current form. With AllowResubmit the verification
// survives a successful submit.
func (w *Workflow) Submit(ctx context.Context) (*Receipt, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrClosed
	}
	if w.submitBusy {
		w.mu.Unlock()
		return nil, ErrBusy
	}
	if !w.gate.Verified() {
		state := w.gate.Snapshot().State
		w.mu.Unlock()
		if state == otp.StateConsumed {
			return nil, ErrAlreadySubmitted
		}
		return nil, ErrNotVerified
	}
	if w.preview == nil {
		w.mu.Unlock()
		return nil, ErrPreviewRequired
	}
	if err := form.Validate(w.cat, w.form); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	w.submitBusy = true
	f := w.form.Clone()
	w.mu.Unlock()

	receipt, err := w.exec.Submit(ctx, f)

	w.mu.Lock()
	w.submitBusy = false
	if err != nil {
		w.mu.Unlock()
		return nil, err
	}
	if w.closed {
		w.mu.Unlock()
		w.logger.Warn("submit finished after workflow closed",
			zap.String("letter_id", receipt.LetterID),
			zap.String("course", f.Course))
		return nil, ErrClosed
	}
	w.submitted++
	w.lastID = receipt.LetterID
	if !w.opts.AllowResubmit {
		if cerr := w.gate.Consume(); cerr != nil {
			w.logger.Debug("gate already released", zap.Error(cerr))
		}
	}
	if w.opts.ResetOnSuccess {
		w.form = form.Form{Fields: map[catalog.Field]string{}}
		w.invalidateLocked()
	}
	w.mu.Unlock()

	// The backend has issued the document at this point, so it is recorded
	// even when the local copy cannot be written.
	if w.opts.OnSubmitted != nil {
		w.opts.OnSubmitted(ctx, f, receipt)
	}
	if w.opts.Saver != nil {
		path, err := w.opts.Saver.Save(ctx, receipt.Filename, receipt.Document)
		if err != nil {
			return receipt, err
		}
		receipt.SavedTo = path
	}
	w.logger.Info("document issued",
		zap.String("letter_id", receipt.LetterID),
		zap.String("category", f.Category),
		zap.String("course", f.Course))
	return receipt, nil
}

// Close drops all state. In-flight requests finish but are ignored.
func (w *Workflow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	w.gen++
	w.revokePreviewLocked()
	w.gate.Cancel()
}

// View is a read-only summary of a workflow for transports.
type View struct {
	Form            form.Form   `json:"form"`
	OTP             otp.Session `json:"otp"`
	CooldownSeconds int         `json:"cooldownSeconds"`
	Preview         *Artifact   `json:"preview,omitempty"`
	PreviewBusy     bool        `json:"previewBusy"`
	SubmitBusy      bool        `json:"submitBusy"`
	Submitted       int         `json:"submitted"`
	LastLetterID    string      `json:"lastLetterId,omitempty"`
	Closed          bool        `json:"closed"`
}

// View returns the current state.
func (w *Workflow) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	v := View{
		Form:            w.form.Clone(),
		OTP:             w.gate.Snapshot(),
		CooldownSeconds: otp.Seconds(w.gate.CooldownRemaining()),
		PreviewBusy:     w.previewBusy,
		SubmitBusy:      w.submitBusy,
		Submitted:       w.submitted,
		LastLetterID:    w.lastID,
		Closed:          w.closed,
	}
	if w.preview != nil {
		p := *w.preview
		v.Preview = &p
	}
	return v
}

// Gate exposes the OTP gate, for countdown display.
func (w *Workflow) Gate() *otp.Gate {
	return w.gate
}

func (w *Workflow) invalidateLocked() {
	w.gen++
	w.revokePreviewLocked()
	w.gate.Invalidate()
}

func (w *Workflow) revokePreviewLocked() {
	if w.preview == nil {
		return
	}
	w.store.Revoke(w.preview.Handle)
	w.preview = nil
}

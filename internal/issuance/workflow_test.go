package issuance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certportal/certportal/internal/backend"
	"github.com/certportal/certportal/internal/catalog"
	"github.com/certportal/certportal/internal/form"
	"github.com/certportal/certportal/internal/otp"
)

type fakeRenderer struct {
	mu       sync.Mutex
	previews int
	creates  int
	channels []catalog.Channel
	payloads []map[string]any
	err      error
	kind     backend.DocumentKind

	// When set, Preview signals started and waits for release.
	started chan struct{}
	release chan struct{}
}

func (r *fakeRenderer) Preview(ctx context.Context, ch catalog.Channel, payload map[string]any) (*backend.Document, error) {
	r.mu.Lock()
	r.previews++
	n := r.previews
	r.channels = append(r.channels, ch)
	err, kind := r.err, r.kind
	started, release := r.started, r.release
	r.mu.Unlock()

	if started != nil {
		started <- struct{}{}
		<-release
	}
	if err != nil {
		return nil, err
	}
	if kind == "" {
		kind = backend.KindImage
	}
	return &backend.Document{Data: []byte(fmt.Sprintf("preview-%d", n)), ContentType: "image/png", Kind: kind}, nil
}

func (r *fakeRenderer) Create(ctx context.Context, ch catalog.Channel, payload map[string]any) (*backend.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	r.payloads = append(r.payloads, payload)
	if r.err != nil {
		return nil, r.err
	}
	return &backend.Document{
		Data:        []byte("%PDF-1.7"),
		ContentType: "application/pdf",
		Kind:        backend.KindPDF,
		ID:          fmt.Sprintf("FSD-WL-%04d", r.creates),
	}, nil
}

type countingSender struct {
	mu    sync.Mutex
	calls int
}

func (s *countingSender) SendOTP(context.Context, string, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return nil
}

func (s *countingSender) VerifyOTP(context.Context, string, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return nil
}

type countingSaver struct {
	mu    sync.Mutex
	saved []string
}

func (s *countingSaver) Save(_ context.Context, name string, _ *backend.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, name)
	return "/tmp/" + name, nil
}

type failingSaver struct{}

func (failingSaver) Save(context.Context, string, *backend.Document) (string, error) {
	return "", errors.New("disk full")
}

type harness struct {
	wf       *Workflow
	renderer *fakeRenderer
	sender   *countingSender
	store    *MemoryStore
	saver    *countingSaver
}

func newHarness(t *testing.T, dev bool, mutate func(*Options)) *harness {
	t.Helper()
	cat := catalog.Default()
	h := &harness{
		renderer: &fakeRenderer{},
		sender:   &countingSender{},
		store:    NewMemoryStore(),
		saver:    &countingSaver{},
	}
	opts := DefaultOptions()
	opts.Saver = h.saver
	if mutate != nil {
		mutate(&opts)
	}
	gate := otp.NewGate(h.sender, otp.WithDevBypass(dev))
	h.wf = NewWorkflow(cat, NewExecutor(cat, h.renderer), gate, h.store, opts)
	return h
}

func (h *harness) fillLowAttendance(t *testing.T) {
	t.Helper()
	for _, a := range []form.Action{
		form.SetCategory("FSD"),
		form.SetRecipient("Aarav Sharma", "919876543210"),
		form.SetLetterType("Warning Letter"),
		form.SetSubtype("Warning for Low Attendance"),
		form.SetField(catalog.FieldAttendancePercent, "45"),
		form.SetField(catalog.FieldIssueDate, "2025-01-15"),
	} {
		_, err := h.wf.Apply(a)
		require.NoError(t, err)
	}
}

func TestScenarioLowAttendanceEndToEnd(t *testing.T) {
	h := newHarness(t, false, nil)
	h.fillLowAttendance(t)
	require.NoError(t, h.wf.Validate())

	ctx := context.Background()
	require.NoError(t, h.wf.RequestOTP(ctx))

	art, err := h.wf.SubmitOTP(ctx, "123456")
	require.NoError(t, err)
	assert.Equal(t, backend.KindImage, art.Kind)
	assert.Contains(t, art.Handle, "blob:")
	assert.Equal(t, 1, h.renderer.previews)
	assert.Equal(t, []catalog.Channel{catalog.ChannelCode}, h.renderer.channels)

	receipt, err := h.wf.Submit(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.LetterID)
	assert.Len(t, h.saver.saved, 1)
	assert.Equal(t, "/tmp/"+receipt.Filename, receipt.SavedTo)

	payload := h.renderer.payloads[0]
	assert.Equal(t, float64(45), payload["attendancePercent"])
	assert.Equal(t, "Warning for Low Attendance", payload["course"])
}

func TestScenarioDevBypassSkipsNetwork(t *testing.T) {
	h := newHarness(t, true, nil)
	h.fillLowAttendance(t)

	ctx := context.Background()
	require.NoError(t, h.wf.RequestOTP(ctx))
	art, err := h.wf.SubmitOTP(ctx, "000000")
	require.NoError(t, err)

	assert.Zero(t, h.sender.calls)
	assert.True(t, h.wf.Gate().Verified())
	assert.Equal(t, 1, h.renderer.previews)
	assert.NotEmpty(t, art.Handle)
}

func TestRequestOTPBlockedByValidation(t *testing.T) {
	h := newHarness(t, false, nil)
	_, err := h.wf.Apply(form.SetCategory("FSD"))
	require.NoError(t, err)

	err = h.wf.RequestOTP(context.Background())
	var ve *form.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Please select a recipient", ve.Message)
	assert.Zero(t, h.sender.calls)
}

func TestPreviewRevokesPreviousArtifact(t *testing.T) {
	h := newHarness(t, true, nil)
	h.fillLowAttendance(t)

	const n = 5
	var last Artifact
	for i := 0; i < n; i++ {
		a, err := h.wf.Preview(context.Background())
		require.NoError(t, err)
		last = a
	}

	created, revoked := h.store.Stats()
	assert.Equal(t, n, created)
	assert.Equal(t, n-1, revoked)
	assert.Equal(t, 1, h.store.Live())

	live, err := h.wf.PreviewArtifact()
	require.NoError(t, err)
	assert.Equal(t, last.Handle, live.Handle)
	assert.Equal(t, []byte("preview-5"), live.Data)
}

func TestFormEditRevokesVerificationAndPreview(t *testing.T) {
	h := newHarness(t, false, nil)
	h.fillLowAttendance(t)
	ctx := context.Background()
	require.NoError(t, h.wf.RequestOTP(ctx))
	_, err := h.wf.SubmitOTP(ctx, "123456")
	require.NoError(t, err)
	require.True(t, h.wf.Gate().Verified())

	_, err = h.wf.Apply(form.SetField(catalog.FieldIssueDate, "2025-01-16"))
	require.NoError(t, err)

	assert.False(t, h.wf.Gate().Verified())
	assert.Equal(t, 0, h.store.Live())
	_, err = h.wf.PreviewArtifact()
	assert.ErrorIs(t, err, ErrNoPreview)

	_, err = h.wf.Submit(ctx)
	assert.ErrorIs(t, err, ErrNotVerified)
	assert.Zero(t, h.renderer.creates)
}

func TestSubmitRequiresVerification(t *testing.T) {
	h := newHarness(t, false, nil)
	h.fillLowAttendance(t)
	_, err := h.wf.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNotVerified)
}

func TestSubmitRequiresLivePreview(t *testing.T) {
	ctx := context.Background()

	t.Run("preview failed after verification", func(t *testing.T) {
		h := newHarness(t, true, nil)
		h.fillLowAttendance(t)
		require.NoError(t, h.wf.RequestOTP(ctx))

		h.renderer.err = errors.New("render down")
		_, err := h.wf.SubmitOTP(ctx, "123456")
		require.Error(t, err)
		require.True(t, h.wf.Gate().Verified())
		h.renderer.err = nil

		_, err = h.wf.Submit(ctx)
		assert.ErrorIs(t, err, ErrPreviewRequired)
		assert.Zero(t, h.renderer.creates)

		_, err = h.wf.Preview(ctx)
		require.NoError(t, err)
		_, err = h.wf.Submit(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, h.renderer.creates)
	})

	t.Run("preview dismissed", func(t *testing.T) {
		h := newHarness(t, true, nil)
		h.fillLowAttendance(t)
		require.NoError(t, h.wf.RequestOTP(ctx))
		_, err := h.wf.SubmitOTP(ctx, "123456")
		require.NoError(t, err)

		h.wf.DismissPreview()
		_, err = h.wf.Submit(ctx)
		assert.ErrorIs(t, err, ErrPreviewRequired)
		assert.Zero(t, h.renderer.creates)
	})
}

func TestHookRunsWhenSaveFails(t *testing.T) {
	ctx := context.Background()
	var hooked []string
	h := newHarness(t, true, func(o *Options) {
		o.Saver = failingSaver{}
		o.OnSubmitted = func(_ context.Context, _ form.Form, r *Receipt) {
			hooked = append(hooked, r.LetterID)
		}
	})
	h.fillLowAttendance(t)
	require.NoError(t, h.wf.RequestOTP(ctx))
	_, err := h.wf.SubmitOTP(ctx, "123456")
	require.NoError(t, err)

	r, err := h.wf.Submit(ctx)
	require.EqualError(t, err, "disk full")
	require.NotNil(t, r)
	assert.Equal(t, []string{r.LetterID}, hooked)
	assert.Empty(t, r.SavedTo)
}

func TestResubmitPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("allowed by default", func(t *testing.T) {
		h := newHarness(t, true, nil)
		h.fillLowAttendance(t)
		require.NoError(t, h.wf.RequestOTP(ctx))
		_, err := h.wf.SubmitOTP(ctx, "111111")
		require.NoError(t, err)

		first, err := h.wf.Submit(ctx)
		require.NoError(t, err)
		second, err := h.wf.Submit(ctx)
		require.NoError(t, err)
		assert.NotEqual(t, first.LetterID, second.LetterID)
		assert.Equal(t, 2, h.wf.View().Submitted)
	})

	t.Run("guarded", func(t *testing.T) {
		h := newHarness(t, true, func(o *Options) { o.AllowResubmit = false })
		h.fillLowAttendance(t)
		require.NoError(t, h.wf.RequestOTP(ctx))
		_, err := h.wf.SubmitOTP(ctx, "111111")
		require.NoError(t, err)

		_, err = h.wf.Submit(ctx)
		require.NoError(t, err)
		_, err = h.wf.Submit(ctx)
		assert.ErrorIs(t, err, ErrAlreadySubmitted)
		assert.Equal(t, 1, h.renderer.creates)
	})
}

func TestResetOnSuccessAndHook(t *testing.T) {
	ctx := context.Background()
	var hooked []string
	h := newHarness(t, true, func(o *Options) {
		o.ResetOnSuccess = true
		o.OnSubmitted = func(_ context.Context, f form.Form, r *Receipt) {
			hooked = append(hooked, f.Name+"/"+r.LetterID)
		}
	})
	h.fillLowAttendance(t)
	require.NoError(t, h.wf.RequestOTP(ctx))
	_, err := h.wf.SubmitOTP(ctx, "111111")
	require.NoError(t, err)

	r, err := h.wf.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Aarav Sharma/" + r.LetterID}, hooked)
	assert.Empty(t, h.wf.Form().Category)
}

func TestPreviewIsNotReentrant(t *testing.T) {
	h := newHarness(t, true, nil)
	h.fillLowAttendance(t)
	h.renderer.started = make(chan struct{})
	h.renderer.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := h.wf.Preview(context.Background())
		done <- err
	}()
	<-h.renderer.started

	_, err := h.wf.Preview(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	assert.True(t, h.wf.View().PreviewBusy)

	close(h.renderer.release)
	require.NoError(t, <-done)
	assert.False(t, h.wf.View().PreviewBusy)
}

func TestStalePreviewIsDropped(t *testing.T) {
	h := newHarness(t, true, nil)
	h.fillLowAttendance(t)
	h.renderer.started = make(chan struct{})
	h.renderer.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := h.wf.Preview(context.Background())
		done <- err
	}()
	<-h.renderer.started
	_, err := h.wf.Apply(form.SetField(catalog.FieldAttendancePercent, "50"))
	require.NoError(t, err)
	close(h.renderer.release)

	assert.ErrorIs(t, <-done, ErrStale)
	assert.Equal(t, 0, h.store.Live())
}

func TestCloseDropsState(t *testing.T) {
	h := newHarness(t, true, nil)
	h.fillLowAttendance(t)
	require.NoError(t, h.wf.RequestOTP(context.Background()))
	_, err := h.wf.SubmitOTP(context.Background(), "123456")
	require.NoError(t, err)
	require.Equal(t, 1, h.store.Live())

	h.wf.Close()
	assert.Equal(t, 0, h.store.Live())
	assert.Equal(t, otp.StateIdle, h.wf.Gate().Snapshot().State)

	_, err = h.wf.Apply(form.SetBatch("B-1"))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = h.wf.Preview(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCancelOTPKeepsForm(t *testing.T) {
	h := newHarness(t, false, nil)
	h.fillLowAttendance(t)
	require.NoError(t, h.wf.RequestOTP(context.Background()))
	h.wf.CancelOTP()

	assert.Equal(t, otp.StateIdle, h.wf.View().OTP.State)
	assert.Equal(t, "Warning for Low Attendance", h.wf.Form().Course)
}

func TestUnexpectedPreviewContent(t *testing.T) {
	h := newHarness(t, true, nil)
	h.fillLowAttendance(t)
	h.renderer.kind = backend.KindOther
	_, err := h.wf.Preview(context.Background())
	assert.ErrorIs(t, err, ErrUnexpectedContent)
	assert.Equal(t, 0, h.store.Live())
}

func TestRegistryOwnershipAndSweep(t *testing.T) {
	cat := catalog.Default()
	store := NewMemoryStore()
	factory := func() *Workflow {
		return NewWorkflow(cat, NewExecutor(cat, &fakeRenderer{}), otp.NewGate(nil, otp.WithDevBypass(true)), store, DefaultOptions())
	}
	reg := NewRegistry(factory, time.Minute, nil)
	now := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	id, wf := reg.Create("session-a")
	got, err := reg.Get(id, "session-a")
	require.NoError(t, err)
	assert.Same(t, wf, got)

	_, err = reg.Get(id, "session-b")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = reg.Get("missing", "session-a")
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
	assert.ErrorIs(t, reg.Close(id, "session-b"), ErrForbidden)

	other, _ := reg.Create("session-b")
	now = now.Add(30 * time.Second)
	_, err = reg.Get(other, "session-b")
	require.NoError(t, err)

	now = now.Add(45 * time.Second)
	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, 1, reg.Len())
	_, err = reg.Get(id, "session-a")
	assert.ErrorIs(t, err, ErrWorkflowNotFound)

	assert.Equal(t, 1, reg.CloseOwner("session-b"))
	assert.Equal(t, 0, reg.Len())
}

func TestDirSaverWritesOnce(t *testing.T) {
	dir := t.TempDir()
	path, err := DirSaver{Dir: filepath.Join(dir, "out")}.Save(context.Background(), "../escape.pdf", &backend.Document{Data: []byte("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "escape.pdf"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), data)
}

func TestDefaultFilename(t *testing.T) {
	f := form.Form{Name: "Aarav Sharma", Course: "Warning for Low Attendance"}
	assert.Equal(t, "Aarav_Sharma_Warning_for_Low_Attendance_L-1.pdf",
		DefaultFilename(f, &backend.Document{Kind: backend.KindPDF, ID: "L-1"}))
	assert.Equal(t, "document.png",
		DefaultFilename(form.Form{}, &backend.Document{Kind: backend.KindImage, ContentType: "image/png"}))
}

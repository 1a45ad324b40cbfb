package service

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certportal/certportal/internal/catalog"
	"github.com/certportal/certportal/internal/domain"
	"github.com/certportal/certportal/internal/form"
	"github.com/certportal/certportal/internal/issuance"
	"github.com/certportal/certportal/internal/session"
)

type memJournal struct {
	mu   sync.Mutex
	recs []*domain.IssuanceRecord
}

func (m *memJournal) Insert(ctx context.Context, rec *domain.IssuanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return nil
}

func (m *memJournal) CountByFingerprint(ctx context.Context, fp string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.recs {
		if r.Fingerprint == fp {
			n++
		}
	}
	return n, nil
}

func (m *memJournal) ListRecent(ctx context.Context, limit int) ([]*domain.IssuanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]*domain.IssuanceRecord(nil), m.recs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func warningForm() form.Form {
	return form.Form{
		Category:   "FSD",
		Name:       "Aarav Sharma",
		Phone:      "919876543210",
		LetterType: "Warning Letter",
		Course:     "Warning for Low Attendance",
		Fields: map[catalog.Field]string{
			catalog.FieldIssueDate:         "2025-01-15",
			catalog.FieldAttendancePercent: "45",
		},
	}
}

func TestJournalReportsDuplicates(t *testing.T) {
	store := &memJournal{}
	svc := NewJournalService(store, "key", catalog.Default(), nil)
	ctx := context.Background()

	rec, prev, err := svc.Record(ctx, "a1", warningForm(), "L1")
	require.NoError(t, err)
	assert.Zero(t, prev)
	assert.Equal(t, "code", rec.Channel)
	assert.Equal(t, "Aarav Sharma", rec.Recipient)

	_, prev, err = svc.Record(ctx, "a1", warningForm(), "L2")
	require.NoError(t, err)
	assert.Equal(t, 1, prev)

	other := warningForm()
	other.Fields[catalog.FieldAttendancePercent] = "50"
	_, prev, err = svc.Record(ctx, "a1", other, "L3")
	require.NoError(t, err)
	assert.Zero(t, prev)
}

func TestJournalHookUsesActorFromContext(t *testing.T) {
	store := &memJournal{}
	svc := NewJournalService(store, "key", catalog.Default(), nil)

	ctx, cancel := context.WithCancel(session.WithUser(context.Background(), "admin-7"))
	cancel()
	svc.Hook()(ctx, warningForm(), &issuance.Receipt{LetterID: "CL-1"})

	recent, err := svc.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "admin-7", recent[0].Actor)
	assert.Equal(t, "CL-1", recent[0].ServerID)
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/certportal/certportal/internal/catalog"
	"github.com/certportal/certportal/internal/domain"
	"github.com/certportal/certportal/internal/form"
	"github.com/certportal/certportal/internal/issuance"
	"github.com/certportal/certportal/internal/session"
	"github.com/certportal/certportal/pkg/fingerprint"
)

// JournalStore persists issuance records.
type JournalStore interface {
	Insert(ctx context.Context, rec *domain.IssuanceRecord) error
	CountByFingerprint(ctx context.Context, fingerprint string) (int, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.IssuanceRecord, error)
}

// JournalService records every issued letter under a fingerprint of its
// content so repeats can be reported.
type JournalService struct {
	store  JournalStore
	hasher *fingerprint.Hasher
	cat    *catalog.Catalog
	logger *zap.Logger
	now    func() time.Time
}

// NewJournalService creates a new journal service
func NewJournalService(store JournalStore, hmacKey string, cat *catalog.Catalog, logger *zap.Logger) *JournalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JournalService{
		store:  store,
		hasher: fingerprint.New(hmacKey),
		cat:    cat,
		logger: logger,
		now:    time.Now,
	}
}

// Fingerprint computes the fingerprints of f.
func (s *JournalService) Fingerprint(f form.Form) *fingerprint.Result {
	fields := make(map[string]string, len(f.Fields))
	for k, v := range f.Fields {
		fields[string(k)] = v
	}
	return s.hasher.Generate(fingerprint.Data{
		Name:       f.Name,
		Phone:      f.Phone,
		Category:   f.Category,
		LetterType: f.LetterType,
		Course:     f.Course,
		Fields:     fields,
	})
}

// Record journals one submit. It reports how many identical documents had
// been issued before this one.
func (s *JournalService) Record(ctx context.Context, actor string, f form.Form, serverID string) (*domain.IssuanceRecord, int, error) {
	fp := s.Fingerprint(f).Strongest()

	previous, err := s.store.CountByFingerprint(ctx, fp)
	if err != nil {
		return nil, 0, err
	}

	rec := &domain.IssuanceRecord{
		ID:          uuid.New(),
		Fingerprint: fp,
		ServerID:    serverID,
		Actor:       actor,
		Channel:     string(s.cat.Channel(f.Category)),
		Category:    f.Category,
		LetterType:  f.LetterType,
		Course:      f.Course,
		Recipient:   f.Name,
		SubmittedAt: s.now().UTC(),
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		return nil, previous, err
	}

	if previous > 0 {
		s.logger.Warn("duplicate issuance",
			zap.String("fingerprint", fp),
			zap.String("server_id", serverID),
			zap.String("actor", actor),
			zap.Int("previous", previous),
		)
	}
	return rec, previous, nil
}

// Recent returns the latest journal entries.
func (s *JournalService) Recent(ctx context.Context, limit int) ([]*domain.IssuanceRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.store.ListRecent(ctx, limit)
}

// Hook returns a SubmitHook that journals every successful submit. Journal
// failures are logged; the letter has already been issued.
func (s *JournalService) Hook() issuance.SubmitHook {
	return func(ctx context.Context, f form.Form, r *issuance.Receipt) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		actor := session.UserFromContext(ctx)
		if _, _, err := s.Record(ctx, actor, f, r.LetterID); err != nil {
			s.logger.Error("journal issuance", zap.String("letter_id", r.LetterID), zap.Error(err))
		}
	}
}

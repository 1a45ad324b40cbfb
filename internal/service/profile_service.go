package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/certportal/certportal/internal/backend"
	"github.com/certportal/certportal/internal/domain"
)

// ProfileAPI is the backend side of the signed-in admin's profile.
type ProfileAPI interface {
	CurrentAdmin(ctx context.Context) (*domain.Admin, error)
	UpdateCurrentAdmin(ctx context.Context, update domain.ProfileUpdate) (*domain.Admin, error)
}

// ProfileStore is the local profile cache.
type ProfileStore interface {
	FindByAdminID(ctx context.Context, adminID string) (*domain.AdminProfile, error)
	Upsert(ctx context.Context, p *domain.AdminProfile) error
	MarkSynced(ctx context.Context, adminID string, updatedAt, syncedAt time.Time) error
}

// ProfileService keeps an offline-first copy of each admin's own profile.
// Edits land in the cache first and are pushed to the backend with retries.
type ProfileService struct {
	api    ProfileAPI
	store  ProfileStore
	logger *zap.Logger
	group  singleflight.Group
	now    func() time.Time

	// retry window for pushing an edit
	maxElapsed time.Duration
	initial    time.Duration
}

// NewProfileService creates a new profile service
func NewProfileService(api ProfileAPI, store ProfileStore, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{
		api:        api,
		store:      store,
		logger:     logger,
		now:        time.Now,
		maxElapsed: 10 * time.Second,
		initial:    500 * time.Millisecond,
	}
}

// Get returns the cached profile of adminID, fetching it from the backend on
// a cache miss. Concurrent misses share one backend call.
func (s *ProfileService) Get(ctx context.Context, adminID string) (*domain.AdminProfile, error) {
	cached, err := s.store.FindByAdminID(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}

	v, err, _ := s.group.Do(adminID, func() (interface{}, error) {
		admin, err := s.api.CurrentAdmin(ctx)
		if err != nil {
			return nil, err
		}
		now := s.now().UTC().Truncate(time.Microsecond)
		p := &domain.AdminProfile{
			ID:        uuid.New(),
			AdminID:   adminID,
			Name:      admin.Name,
			Email:     admin.Email,
			Phone:     admin.Phone,
			Role:      admin.Role,
			UpdatedAt: now,
			SyncedAt:  &now,
		}
		if err := s.store.Upsert(ctx, p); err != nil {
			return nil, err
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.AdminProfile), nil
}

// Update writes the edit to the cache and then tries to push it. A push
// that keeps failing leaves the profile dirty; it is not reported as an
// error.
func (s *ProfileService) Update(ctx context.Context, adminID string, upd domain.ProfileUpdate) (*domain.AdminProfile, error) {
	upd.Name = strings.TrimSpace(upd.Name)
	upd.Email = strings.TrimSpace(upd.Email)
	upd.Phone = strings.TrimSpace(upd.Phone)
	if upd.Name == "" || upd.Email == "" {
		return nil, ErrInvalidProfile
	}

	p, err := s.store.FindByAdminID(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &domain.AdminProfile{ID: uuid.New(), AdminID: adminID}
	}
	p.Name = upd.Name
	p.Email = upd.Email
	p.Phone = upd.Phone
	p.Dirty = true
	p.UpdatedAt = s.now().UTC().Truncate(time.Microsecond)
	if err := s.store.Upsert(ctx, p); err != nil {
		return nil, err
	}

	s.push(ctx, p)
	return p, nil
}

// SyncPending pushes the cached profile of adminID if it has unsynced edits.
// It reports whether the profile is clean afterwards.
func (s *ProfileService) SyncPending(ctx context.Context, adminID string) (bool, error) {
	p, err := s.store.FindByAdminID(ctx, adminID)
	if err != nil {
		return false, err
	}
	if p == nil || !p.Dirty {
		return true, nil
	}
	s.push(ctx, p)
	return !p.Dirty, nil
}

func (s *ProfileService) push(ctx context.Context, p *domain.AdminProfile) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.initial
	bo.MaxElapsedTime = s.maxElapsed

	upd := domain.ProfileUpdate{Name: p.Name, Email: p.Email, Phone: p.Phone}
	err := backoff.Retry(func() error {
		_, err := s.api.UpdateCurrentAdmin(ctx, upd)
		if err == nil {
			return nil
		}
		var se *backend.ServerError
		if errors.As(err, &se) && se.Status >= http.StatusBadRequest && se.Status < http.StatusInternalServerError {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		s.logger.Warn("profile sync failed; keeping local edit",
			zap.String("admin_id", p.AdminID),
			zap.Error(err),
		)
		return
	}

	synced := s.now().UTC()
	if err := s.store.MarkSynced(ctx, p.AdminID, p.UpdatedAt, synced); err != nil {
		s.logger.Warn("mark profile synced", zap.String("admin_id", p.AdminID), zap.Error(err))
		return
	}
	p.Dirty = false
	p.SyncedAt = &synced
}

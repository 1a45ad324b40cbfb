package service

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certportal/certportal/internal/backend"
	"github.com/certportal/certportal/internal/domain"
)

type memProfiles struct {
	mu    sync.Mutex
	items map[string]domain.AdminProfile
}

func newMemProfiles() *memProfiles {
	return &memProfiles{items: make(map[string]domain.AdminProfile)}
}

func (m *memProfiles) FindByAdminID(ctx context.Context, adminID string) (*domain.AdminProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[adminID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memProfiles) Upsert(ctx context.Context, p *domain.AdminProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[p.AdminID] = *p
	return nil
}

func (m *memProfiles) MarkSynced(ctx context.Context, adminID string, updatedAt, syncedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[adminID]
	if ok && p.UpdatedAt.Equal(updatedAt) {
		p.Dirty = false
		p.SyncedAt = &syncedAt
		m.items[adminID] = p
	}
	return nil
}

type fakeProfileAPI struct {
	fetches atomic.Int32
	updates atomic.Int32
	release chan struct{}

	mu        sync.Mutex
	updateErr error
	last      domain.ProfileUpdate
}

func (f *fakeProfileAPI) CurrentAdmin(ctx context.Context) (*domain.Admin, error) {
	f.fetches.Add(1)
	if f.release != nil {
		<-f.release
	}
	return &domain.Admin{ID: "a1", Name: "Root", Email: "root@example.com", Role: "superadmin"}, nil
}

func (f *fakeProfileAPI) UpdateCurrentAdmin(ctx context.Context, update domain.ProfileUpdate) (*domain.Admin, error) {
	f.updates.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = update
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &domain.Admin{ID: "a1", Name: update.Name, Email: update.Email}, nil
}

func (f *fakeProfileAPI) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateErr = err
}

func newTestProfileService(api ProfileAPI, store ProfileStore) *ProfileService {
	svc := NewProfileService(api, store, nil)
	svc.initial = time.Millisecond
	svc.maxElapsed = 30 * time.Millisecond
	return svc
}

func TestProfileGetIsCacheFirst(t *testing.T) {
	api := &fakeProfileAPI{}
	store := newMemProfiles()
	svc := newTestProfileService(api, store)

	p, err := svc.Get(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "Root", p.Name)
	assert.False(t, p.Dirty)

	_, err = svc.Get(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), api.fetches.Load())
}

func TestProfileMissesShareOneFetch(t *testing.T) {
	api := &fakeProfileAPI{release: make(chan struct{})}
	svc := newTestProfileService(api, newMemProfiles())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := svc.Get(context.Background(), "a1")
			assert.NoError(t, err)
			assert.Equal(t, "root@example.com", p.Email)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(api.release)
	wg.Wait()

	assert.Equal(t, int32(1), api.fetches.Load())
}

func TestProfileUpdateSyncs(t *testing.T) {
	api := &fakeProfileAPI{}
	store := newMemProfiles()
	svc := newTestProfileService(api, store)

	p, err := svc.Update(context.Background(), "a1", domain.ProfileUpdate{Name: " Root Admin ", Email: "root@example.com"})
	require.NoError(t, err)
	assert.False(t, p.Dirty)
	assert.NotNil(t, p.SyncedAt)
	assert.Equal(t, "Root Admin", api.last.Name)

	cached, _ := store.FindByAdminID(context.Background(), "a1")
	assert.False(t, cached.Dirty)
}

func TestProfileUpdateKeepsDirtyOnOutage(t *testing.T) {
	api := &fakeProfileAPI{}
	api.setErr(&backend.ConnectivityError{Op: "update profile", Err: context.DeadlineExceeded})
	store := newMemProfiles()
	svc := newTestProfileService(api, store)

	p, err := svc.Update(context.Background(), "a1", domain.ProfileUpdate{Name: "Root", Email: "root@example.com"})
	require.NoError(t, err)
	assert.True(t, p.Dirty)
	assert.Greater(t, api.updates.Load(), int32(1))

	cached, _ := store.FindByAdminID(context.Background(), "a1")
	assert.True(t, cached.Dirty)

	api.setErr(nil)
	clean, err := svc.SyncPending(context.Background(), "a1")
	require.NoError(t, err)
	assert.True(t, clean)
	cached, _ = store.FindByAdminID(context.Background(), "a1")
	assert.False(t, cached.Dirty)
}

func TestProfileUpdateDoesNotRetryClientErrors(t *testing.T) {
	api := &fakeProfileAPI{}
	api.setErr(&backend.ServerError{Status: http.StatusBadRequest, Message: "Email already in use"})
	svc := newTestProfileService(api, newMemProfiles())

	p, err := svc.Update(context.Background(), "a1", domain.ProfileUpdate{Name: "Root", Email: "dup@example.com"})
	require.NoError(t, err)
	assert.True(t, p.Dirty)
	assert.Equal(t, int32(1), api.updates.Load())
}

func TestProfileUpdateValidates(t *testing.T) {
	svc := newTestProfileService(&fakeProfileAPI{}, newMemProfiles())
	_, err := svc.Update(context.Background(), "a1", domain.ProfileUpdate{Name: " ", Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrInvalidProfile)
}

func TestSyncPendingWithoutCache(t *testing.T) {
	api := &fakeProfileAPI{}
	svc := newTestProfileService(api, newMemProfiles())
	clean, err := svc.SyncPending(context.Background(), "nobody")
	require.NoError(t, err)
	assert.True(t, clean)
	assert.Zero(t, api.updates.Load())
}

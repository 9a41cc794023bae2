package repofake

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tiendreiliass0x/school-management-system/internal/models"
	"github.com/tiendreiliass0x/school-management-system/internal/modules/auth/session"
)

// FakeRepo is an in-memory session.Repo with the same conditional-update
// semantics as the MySQL implementation. Safe for concurrent use.
type FakeRepo struct {
	mu      sync.Mutex
	records map[string]*models.RefreshTokenModel // by id
}

func New() *FakeRepo {
	return &FakeRepo{records: make(map[string]*models.RefreshTokenModel)}
}

// Admit evicts surplus live sessions and inserts under one lock, matching
// the transactional semantics of the MySQL implementation.
func (f *FakeRepo) Admit(_ context.Context, rec *models.RefreshTokenModel, max int, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var active []*models.RefreshTokenModel
	for _, r := range f.records {
		if r.UserID == rec.UserID && !r.Revoked && r.ExpiresAt.After(now) {
			active = append(active, r)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].CreatedAt.Before(active[j].CreatedAt) })
	if surplus := len(active) - max + 1; surplus > 0 {
		for _, old := range active[:surplus] {
			old.Revoked = true
		}
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	cp := *rec
	f.records[rec.ID] = &cp
	return nil
}

func (f *FakeRepo) FindByHash(_ context.Context, hash string) (*models.RefreshTokenModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records {
		if rec.TokenHash == hash {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, session.ErrNotFound
}

func (f *FakeRepo) ListActiveByUser(_ context.Context, userID string, now time.Time) ([]models.RefreshTokenModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RefreshTokenModel
	for _, rec := range f.records {
		if rec.UserID == userID && !rec.Revoked && rec.ExpiresAt.After(now) {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *FakeRepo) TouchIfActive(_ context.Context, id string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok || rec.Revoked || !rec.ExpiresAt.After(now) {
		return false, nil
	}
	rec.LastUsedAt = &now
	return true, nil
}

func (f *FakeRepo) RevokeByID(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok || rec.Revoked {
		return false, nil
	}
	rec.Revoked = true
	return true, nil
}

func (f *FakeRepo) Rotate(_ context.Context, oldID string, now time.Time, next *models.RefreshTokenModel) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.records[oldID]
	if !ok || old.Revoked || !old.ExpiresAt.After(now) {
		return false, nil
	}
	old.Revoked = true
	if next.ID == "" {
		next.ID = uuid.New().String()
	}
	if next.CreatedAt.IsZero() {
		next.CreatedAt = now
	}
	cp := *next
	f.records[next.ID] = &cp
	return true, nil
}

func (f *FakeRepo) RevokeAllByUser(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, rec := range f.records {
		if rec.UserID == userID && !rec.Revoked {
			rec.Revoked = true
			n++
		}
	}
	return n, nil
}

func (f *FakeRepo) RevokeExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, rec := range f.records {
		if !rec.Revoked && !rec.ExpiresAt.After(now) {
			rec.Revoked = true
			n++
		}
	}
	return n, nil
}

// Get returns a snapshot of a stored record, for assertions.
func (f *FakeRepo) Get(id string) (models.RefreshTokenModel, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return models.RefreshTokenModel{}, false
	}
	return *rec, true
}

// All returns every stored record, for assertions.
func (f *FakeRepo) All() []models.RefreshTokenModel {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.RefreshTokenModel, 0, len(f.records))
	for _, rec := range f.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// FakeUserLoader serves users from a map, for tests.
type FakeUserLoader struct {
	mu    sync.Mutex
	users map[string]*models.UserModel
}

func NewUserLoader(users ...*models.UserModel) *FakeUserLoader {
	l := &FakeUserLoader{users: make(map[string]*models.UserModel)}
	for _, u := range users {
		l.users[u.ID] = u
	}
	return l
}

func (l *FakeUserLoader) LoadUser(_ context.Context, id string) (*models.UserModel, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	u, ok := l.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// SetActive toggles a user's active flag.
func (l *FakeUserLoader) SetActive(id string, active bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if u, ok := l.users[id]; ok {
		u.Active = active
	}
}

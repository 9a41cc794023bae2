package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiendreiliass0x/school-management-system/internal/models"
	"github.com/tiendreiliass0x/school-management-system/internal/modules/auth/session"
	"github.com/tiendreiliass0x/school-management-system/internal/modules/auth/session/repofake"
)

func activeUser(id string) *models.UserModel {
	u := &models.UserModel{Email: id + "@school.test", Role: models.RoleStaff, Active: true}
	u.ID = id
	return u
}

func newStore(t *testing.T, opts ...session.Option) (*session.Store, *repofake.FakeRepo, *repofake.FakeUserLoader) {
	t.Helper()
	repo := repofake.New()
	users := repofake.NewUserLoader(activeUser("u-1"), activeUser("u-2"))
	return session.NewStore(repo, users, opts...), repo, users
}

func TestCreateEnforcesSessionCap(t *testing.T) {
	store, repo, _ := newStore(t, session.WithMaxSessions(5))
	ctx := context.Background()

	var created []*models.RefreshTokenModel
	for i := 0; i < 6; i++ {
		raw, rec, err := store.Create(ctx, "u-1", session.Device{IP: "10.0.0.1"})
		require.NoError(t, err)
		require.Len(t, raw, 64) // 256 bits, hex
		assert.Equal(t, session.HashToken(raw), rec.TokenHash)
		created = append(created, rec)
		time.Sleep(time.Millisecond)
	}

	active, err := store.ListActive(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, active, 5)

	// The evicted session is exactly the oldest one.
	oldest, ok := repo.Get(created[0].ID)
	require.True(t, ok)
	assert.True(t, oldest.Revoked)
	for _, rec := range created[1:] {
		got, ok := repo.Get(rec.ID)
		require.True(t, ok)
		assert.False(t, got.Revoked)
	}
}

func TestCreateConcurrentLoginsRespectCap(t *testing.T) {
	store, repo, _ := newStore(t, session.WithMaxSessions(5))
	ctx := context.Background()

	const logins = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < logins; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, _, err := store.Create(ctx, "u-1", session.Device{IP: "10.0.0.1"})
			assert.NoError(t, err)
		}()
	}
	close(start)
	wg.Wait()

	active, err := store.ListActive(ctx, "u-1")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(active), 5)

	// nothing is lost, the surplus is revoked
	var revoked int
	for _, rec := range repo.All() {
		if rec.Revoked {
			revoked++
		}
	}
	assert.Equal(t, logins, len(active)+revoked)
}

func TestVerify(t *testing.T) {
	store, _, _ := newStore(t)
	ctx := context.Background()

	raw, rec, err := store.Create(ctx, "u-1", session.Device{})
	require.NoError(t, err)

	got, user, err := store.Verify(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "u-1", user.ID)
	assert.NotNil(t, got.LastUsedAt)

	_, _, err = store.Verify(ctx, "no-such-token")
	assert.ErrorIs(t, err, session.ErrTokenInvalid)
	_, _, err = store.Verify(ctx, "")
	assert.ErrorIs(t, err, session.ErrTokenInvalid)
}

func TestVerifyRevokedNeverSucceedsAgain(t *testing.T) {
	store, _, _ := newStore(t)
	ctx := context.Background()

	raw, _, err := store.Create(ctx, "u-1", session.Device{})
	require.NoError(t, err)

	revoked, err := store.Revoke(ctx, raw)
	require.NoError(t, err)
	assert.True(t, revoked)

	for i := 0; i < 3; i++ {
		_, _, err = store.Verify(ctx, raw)
		assert.ErrorIs(t, err, session.ErrTokenRevoked)
	}

	// Idempotent: second revoke reports no live record.
	revoked, err = store.Revoke(ctx, raw)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestVerifyInactiveUserRevokesToken(t *testing.T) {
	store, repo, users := newStore(t)
	ctx := context.Background()

	raw, rec, err := store.Create(ctx, "u-1", session.Device{})
	require.NoError(t, err)

	users.SetActive("u-1", false)

	_, _, err = store.Verify(ctx, raw)
	assert.ErrorIs(t, err, session.ErrUserInactive)

	got, ok := repo.Get(rec.ID)
	require.True(t, ok)
	assert.True(t, got.Revoked, "token of a deactivated user must be revoked as a side effect")
}

func TestRotate(t *testing.T) {
	store, repo, _ := newStore(t)
	ctx := context.Background()

	raw, rec, err := store.Create(ctx, "u-1", session.Device{})
	require.NoError(t, err)

	newRaw, next, user, err := store.Rotate(ctx, raw, session.Device{IP: "10.0.0.2"})
	require.NoError(t, err)
	assert.NotEqual(t, raw, newRaw)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, "u-1", next.UserID)

	// Old token is dead, new one verifies.
	_, _, err = store.Verify(ctx, raw)
	assert.ErrorIs(t, err, session.ErrTokenRevoked)
	_, _, err = store.Verify(ctx, newRaw)
	assert.NoError(t, err)

	old, ok := repo.Get(rec.ID)
	require.True(t, ok)
	assert.True(t, old.Revoked)
}

func TestRotateConcurrentSingleWinner(t *testing.T) {
	store, _, _ := newStore(t)
	ctx := context.Background()

	raw, _, err := store.Create(ctx, "u-1", session.Device{})
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, _, errs[i] = store.Rotate(ctx, raw, session.Device{})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		// Losers either failed the conditional rotate or saw the winner's
		// revocation on lookup.
		if !assert.True(t, errors.Is(err, session.ErrTokenInvalid) || errors.Is(err, session.ErrTokenRevoked)) {
			t.Logf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent rotation may succeed")
}

func TestRevokeAll(t *testing.T) {
	store, _, _ := newStore(t)
	ctx := context.Background()

	raws := make([]string, 3)
	for i := range raws {
		raw, _, err := store.Create(ctx, "u-1", session.Device{})
		require.NoError(t, err)
		raws[i] = raw
	}
	otherRaw, _, err := store.Create(ctx, "u-2", session.Device{})
	require.NoError(t, err)

	n, err := store.RevokeAll(ctx, "u-1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	for _, raw := range raws {
		_, _, err := store.Verify(ctx, raw)
		assert.ErrorIs(t, err, session.ErrTokenRevoked)
	}
	// Unrelated user untouched.
	_, _, err = store.Verify(ctx, otherRaw)
	assert.NoError(t, err)
}

func TestSweepExpired(t *testing.T) {
	store, repo, _ := newStore(t, session.WithTTL(time.Millisecond))
	ctx := context.Background()

	_, rec, err := store.Create(ctx, "u-1", session.Device{})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	n, err := store.SweepExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, ok := repo.Get(rec.ID)
	require.True(t, ok)
	assert.True(t, got.Revoked)

	// Nothing left to sweep.
	n, err = store.SweepExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestExpiredTokenDoesNotVerify(t *testing.T) {
	store, _, _ := newStore(t, session.WithTTL(time.Millisecond))
	ctx := context.Background()

	raw, _, err := store.Create(ctx, "u-1", session.Device{})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	_, _, err = store.Verify(ctx, raw)
	assert.ErrorIs(t, err, session.ErrTokenInvalid)
	_, _, _, err = store.Rotate(ctx, raw, session.Device{})
	assert.ErrorIs(t, err, session.ErrTokenInvalid)
}

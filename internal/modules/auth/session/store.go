package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/tiendreiliass0x/school-management-system/internal/models"
)

// DefaultTTL is the refresh-token lifetime when none is configured.
const DefaultTTL = 30 * 24 * time.Hour

// DefaultMaxSessions caps concurrent sessions per user.
const DefaultMaxSessions = 5

var (
	// ErrTokenInvalid covers unknown, expired and malformed refresh tokens.
	// Deliberately indistinguishable from the client's point of view.
	ErrTokenInvalid = errors.New("refresh token invalid or expired")
	// ErrTokenRevoked marks a token that was explicitly revoked.
	ErrTokenRevoked = errors.New("refresh token revoked")
	// ErrUserInactive marks a valid token whose owner was deactivated.
	ErrUserInactive = errors.New("user account inactive")
)

// Device describes the client a session was established from.
type Device struct {
	IP string
	UA string
}

// Store manages the refresh-token session lifecycle: admission with a
// per-user cap, atomic verification, rotation, revocation and sweeping.
type Store struct {
	repo        Repo
	users       UserLoader
	ttl         time.Duration
	maxSessions int
}

// Option configures a Store.
type Option func(*Store)

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithMaxSessions(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

func NewStore(repo Repo, users UserLoader, opts ...Option) *Store {
	s := &Store{
		repo:        repo,
		users:       users,
		ttl:         DefaultTTL,
		maxSessions: DefaultMaxSessions,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured refresh-token lifetime.
func (s *Store) TTL() time.Duration { return s.ttl }

// Create admits a new session for the user. Eviction of the oldest surplus
// sessions and the insert happen in one repo transaction, so concurrent
// logins cannot push the user past maxSessions. Returns the raw secret
// (shown to the client exactly once) and the stored record.
func (s *Store) Create(ctx context.Context, userID string, device Device) (string, *models.RefreshTokenModel, error) {
	raw, err := mintSecret()
	if err != nil {
		return "", nil, err
	}
	now := time.Now()
	rec := &models.RefreshTokenModel{
		UserID:    userID,
		TokenHash: HashToken(raw),
		ExpiresAt: now.Add(s.ttl),
		IP:        device.IP,
		UA:        device.UA,
	}
	if err := s.repo.Admit(ctx, rec, s.maxSessions, now); err != nil {
		return "", nil, fmt.Errorf("admit session: %w", err)
	}
	return raw, rec, nil
}

// Verify checks a raw refresh token and returns its record and owning user.
// The validity decision is the conditional last-used update, so two
// concurrent calls against a token one of them revokes cannot both succeed.
// A token owned by an inactive user is revoked as a side effect.
func (s *Store) Verify(ctx context.Context, raw string) (*models.RefreshTokenModel, *models.UserModel, error) {
	rec, err := s.lookup(ctx, raw)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	ok, err := s.repo.TouchIfActive(ctx, rec.ID, now)
	if err != nil {
		return nil, nil, fmt.Errorf("touch session: %w", err)
	}
	if !ok {
		return nil, nil, ErrTokenInvalid
	}

	user, err := s.requireActiveUser(ctx, rec)
	if err != nil {
		return nil, nil, err
	}
	rec.LastUsedAt = &now
	return rec, user, nil
}

// Rotate exchanges a valid refresh token for a successor: the old record is
// revoked and the new one inserted atomically. Exactly one of any set of
// concurrent rotations on the same token can succeed.
func (s *Store) Rotate(ctx context.Context, raw string, device Device) (string, *models.RefreshTokenModel, *models.UserModel, error) {
	rec, err := s.lookup(ctx, raw)
	if err != nil {
		return "", nil, nil, err
	}

	user, err := s.requireActiveUser(ctx, rec)
	if err != nil {
		return "", nil, nil, err
	}

	newRaw, err := mintSecret()
	if err != nil {
		return "", nil, nil, err
	}
	now := time.Now()
	next := &models.RefreshTokenModel{
		UserID:     rec.UserID,
		TokenHash:  HashToken(newRaw),
		ExpiresAt:  now.Add(s.ttl),
		IP:         device.IP,
		UA:         device.UA,
		LastUsedAt: &now,
	}
	ok, err := s.repo.Rotate(ctx, rec.ID, now, next)
	if err != nil {
		return "", nil, nil, fmt.Errorf("rotate session: %w", err)
	}
	if !ok {
		return "", nil, nil, ErrTokenInvalid
	}
	return newRaw, next, user, nil
}

// Revoke marks the record for the raw token revoked. Idempotent; reports
// whether a live record was revoked by this call.
func (s *Store) Revoke(ctx context.Context, raw string) (bool, error) {
	rec, err := s.repo.FindByHash(ctx, HashToken(raw))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return s.repo.RevokeByID(ctx, rec.ID)
}

// RevokeAll revokes every live session of the user and returns the count.
func (s *Store) RevokeAll(ctx context.Context, userID string) (int64, error) {
	return s.repo.RevokeAllByUser(ctx, userID)
}

// ListActive returns the user's live sessions, oldest first.
func (s *Store) ListActive(ctx context.Context, userID string) ([]models.RefreshTokenModel, error) {
	return s.repo.ListActiveByUser(ctx, userID, time.Now())
}

// SweepExpired flips expired-but-unrevoked records. Garbage collection only:
// Verify and Rotate already reject expired tokens on their own.
func (s *Store) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.RevokeExpired(ctx, time.Now())
}

func (s *Store) lookup(ctx context.Context, raw string) (*models.RefreshTokenModel, error) {
	if raw == "" {
		return nil, ErrTokenInvalid
	}
	rec, err := s.repo.FindByHash(ctx, HashToken(raw))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	if rec.Revoked {
		return nil, ErrTokenRevoked
	}
	if !rec.ExpiresAt.After(time.Now()) {
		return nil, ErrTokenInvalid
	}
	return rec, nil
}

func (s *Store) requireActiveUser(ctx context.Context, rec *models.RefreshTokenModel) (*models.UserModel, error) {
	user, err := s.users.LoadUser(ctx, rec.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil || !user.Active {
		_, _ = s.repo.RevokeByID(ctx, rec.ID)
		return nil, ErrUserInactive
	}
	return user, nil
}

// HashToken returns the hex SHA-256 digest under which a raw secret is
// stored. Raw secrets never touch the database.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// mintSecret produces a 256-bit random secret, hex encoded.
func mintSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("mint secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

package session

import (
	"context"
	"errors"
	"time"

	"github.com/tiendreiliass0x/school-management-system/internal/models"
)

// ErrNotFound is returned when no refresh-token record matches a lookup.
var ErrNotFound = errors.New("refresh token not found")

// Repo is the persistence surface for refresh-token records. The conditional
// operations (Admit, TouchIfActive, RevokeByID, Rotate) must be atomic at the
// storage layer: their result is the authoritative decision, so two
// concurrent callers can never both observe state that only admits one of
// them.
type Repo interface {
	// Admit inserts a new record while holding the user's session count at
	// or below max: surplus live records are revoked oldest-first in the
	// same transaction, so concurrent logins cannot overshoot the cap.
	Admit(ctx context.Context, rec *models.RefreshTokenModel, max int, now time.Time) error

	FindByHash(ctx context.Context, hash string) (*models.RefreshTokenModel, error)

	// ListActiveByUser returns non-revoked, unexpired records ordered by
	// creation time, oldest first.
	ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]models.RefreshTokenModel, error)

	// TouchIfActive updates last_used_at iff the record is still non-revoked
	// and unexpired, reporting whether the conditional update matched.
	TouchIfActive(ctx context.Context, id string, now time.Time) (bool, error)

	// RevokeByID flips the revoked flag iff it is not already set.
	RevokeByID(ctx context.Context, id string) (bool, error)

	// Rotate revokes the old record and inserts its successor in one
	// transaction. Returns false when the old record was already revoked or
	// expired, in which case nothing is inserted.
	Rotate(ctx context.Context, oldID string, now time.Time, next *models.RefreshTokenModel) (bool, error)

	RevokeAllByUser(ctx context.Context, userID string) (int64, error)
	RevokeExpired(ctx context.Context, now time.Time) (int64, error)
}

// UserLoader resolves the owning user during verification.
type UserLoader interface {
	LoadUser(ctx context.Context, id string) (*models.UserModel, error)
}

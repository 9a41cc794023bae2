package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiendreiliass0x/school-management-system/internal/models"
)

func TestSignParseRoundTrip(t *testing.T) {
	s := NewSigner("unit-test-secret", time.Hour)

	token, err := s.Sign("user-1", models.RoleStaff, "school-1")
	require.NoError(t, err)

	claims, err := s.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleStaff, claims.Role)
	assert.Equal(t, "school-1", claims.SchoolID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestParseRejectsExpired(t *testing.T) {
	// a signer with a negative TTL mints already-expired tokens
	s := NewSigner("unit-test-secret", -time.Minute)

	token, err := s.Sign("user-1", models.RoleStaff, "")
	require.NoError(t, err)

	_, err = s.Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	token, err := NewSigner("secret-a", time.Hour).Sign("user-1", models.RoleStaff, "")
	require.NoError(t, err)

	_, err = NewSigner("secret-b", time.Hour).Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	s := NewSigner("unit-test-secret", time.Hour)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := s.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken, token)
	}
}

func TestFailureModesAreIndistinguishable(t *testing.T) {
	s := NewSigner("unit-test-secret", -time.Minute)
	expired, err := s.Sign("user-1", models.RoleStaff, "")
	require.NoError(t, err)

	foreign, err := NewSigner("other-secret", time.Hour).Sign("user-1", models.RoleStaff, "")
	require.NoError(t, err)

	_, errExpired := s.Parse(expired)
	_, errForeign := s.Parse(foreign)
	_, errGarbage := s.Parse("garbage")
	assert.Equal(t, errExpired, errForeign)
	assert.Equal(t, errForeign, errGarbage)
}

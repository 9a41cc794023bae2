package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/tiendreiliass0x/school-management-system/internal/models"
)

const devFallbackSecret = "school-admin-secret-change-me"

// ErrInvalidToken is returned for every verification failure. Signature,
// expiry and malformed-token errors are deliberately indistinguishable so the
// endpoint cannot be used as an oracle.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the access-token payload.
type Claims struct {
	UserID   string      `json:"uid"`
	Role     models.Role `json:"role"`
	SchoolID string      `json:"school,omitempty"`
	jwtlib.RegisteredClaims
}

// Signer mints and verifies HS256 access tokens. The secret is process
// configuration, fixed at startup.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

func NewSigner(secret string, ttl time.Duration) *Signer {
	if secret == "" {
		secret = devFallbackSecret
	}
	return &Signer{secret: []byte(secret), ttl: ttl}
}

// TTL returns the access-token lifetime.
func (s *Signer) TTL() time.Duration { return s.ttl }

// Sign creates a signed access token embedding identity, role and tenant.
func (s *Signer) Sign(userID string, role models.Role, schoolID string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Role:     role,
		SchoolID: schoolID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse validates a token string and returns the claims.
func (s *Signer) Parse(tokenStr string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tiendreiliass0x/school-management-system/internal/models"
	"github.com/tiendreiliass0x/school-management-system/internal/modules/audit"
	"github.com/tiendreiliass0x/school-management-system/internal/modules/auth/access"
	"github.com/tiendreiliass0x/school-management-system/internal/modules/auth/session"
	"github.com/tiendreiliass0x/school-management-system/internal/pkg/jwt"
	"github.com/tiendreiliass0x/school-management-system/internal/pkg/response"
)

const contextKeyIdentity = "auth_identity"

// Guard validates access tokens and enforces role/tenant checks on protected
// routes.
type Guard struct {
	users  session.UserLoader
	signer *jwt.Signer
	audit  *audit.Service
}

func NewGuard(users session.UserLoader, signer *jwt.Signer, auditSvc *audit.Service) *Guard {
	return &Guard{users: users, signer: signer, audit: auditSvc}
}

// Auth enforces bearer-token authentication: verify signature and expiry,
// reload the subject user, reject if missing or inactive, and attach the
// resolved identity to the request context. All failures are a uniform 401.
func (g *Guard) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := g.resolve(c)
		if err != nil {
			g.audit.Record(audit.Event{
				Kind:    models.AuditTokenInvalid,
				IP:      c.ClientIP(),
				UA:      c.Request.UserAgent(),
				Action:  c.Request.Method + " " + c.FullPath(),
				Success: false,
				Err:     err,
			})
			response.Unauthorized(c, "invalid or expired token")
			return
		}
		c.Set(contextKeyIdentity, identity)
		c.Next()
	}
}

// RequireRoles rejects callers whose role is not in the allowed set.
// Must run after Auth.
func (g *Guard) RequireRoles(roles ...models.Role) gin.HandlerFunc {
	action := access.Action{Roles: roles}
	return func(c *gin.Context) {
		identity := CurrentIdentity(c)
		if err := access.Decide(identity, action, access.Target{}); err != nil {
			g.audit.Record(audit.Event{
				Kind:      models.AuditAccessDenied,
				ActorID:   identity.UserID,
				ActorRole: identity.Role,
				SchoolID:  identity.SchoolID,
				IP:        c.ClientIP(),
				UA:        c.Request.UserAgent(),
				Action:    c.Request.Method + " " + c.FullPath(),
				Success:   false,
				Err:       err,
			})
			response.Forbidden(c)
			return
		}
		c.Next()
	}
}

func (g *Guard) resolve(c *gin.Context) (access.Identity, error) {
	token := extractToken(c)
	if token == "" {
		return access.Identity{}, jwt.ErrInvalidToken
	}
	claims, err := g.signer.Parse(token)
	if err != nil {
		return access.Identity{}, err
	}

	// Claims are a snapshot from issuance; role, tenant and liveness come
	// from the current user row.
	user, err := g.users.LoadUser(c.Request.Context(), claims.UserID)
	if err != nil {
		return access.Identity{}, err
	}
	if user == nil || !user.Active {
		return access.Identity{}, jwt.ErrInvalidToken
	}

	identity := access.Identity{UserID: user.ID, Role: user.Role}
	if user.SchoolID != nil {
		identity.SchoolID = *user.SchoolID
	}
	return identity, nil
}

// CurrentIdentity extracts the authenticated identity from context. Returns
// the zero Identity on unauthenticated requests.
func CurrentIdentity(c *gin.Context) access.Identity {
	v, _ := c.Get(contextKeyIdentity)
	identity, _ := v.(access.Identity)
	return identity
}

func extractToken(c *gin.Context) string {
	return NormalizeToken(c.GetHeader("Authorization"))
}

// NormalizeToken trims spaces and strips an optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}

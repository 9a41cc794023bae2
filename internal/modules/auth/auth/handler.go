package auth

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/tiendreiliass0x/school-management-system/internal/middleware"
	"github.com/tiendreiliass0x/school-management-system/internal/modules/auth/session"
	"github.com/tiendreiliass0x/school-management-system/internal/pkg/jwt"
	"github.com/tiendreiliass0x/school-management-system/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the auth endpoints. loginMW and refreshMW are the
// per-endpoint rate limiters; the remaining routes inherit the group limit.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, guard *middleware.Guard, loginMW, refreshMW gin.HandlerFunc) {
	g := rg.Group("/auth")
	g.POST("/login", loginMW, h.login)
	g.POST("/refresh", refreshMW, h.refresh)
	g.POST("/logout", h.logout)
	g.POST("/register", loginMW, h.register)

	authed := g.Group("", guard.Auth())
	authed.GET("/me", h.me)
	authed.GET("/sessions", h.sessions)
	authed.PUT("/change-password", h.changePassword)
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "email and password are required")
		return
	}
	pair, err := h.svc.Login(c.Request.Context(), dto, deviceOf(c))
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Unauthorized(c, ErrInvalidCredentials.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, pair)
}

func (h *Handler) refresh(c *gin.Context) {
	var dto RefreshDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "refreshToken is required")
		return
	}
	pair, err := h.svc.Refresh(c.Request.Context(), dto.RefreshToken, deviceOf(c))
	if err != nil {
		if errors.Is(err, session.ErrTokenInvalid) ||
			errors.Is(err, session.ErrTokenRevoked) ||
			errors.Is(err, session.ErrUserInactive) {
			response.Unauthorized(c, "invalid or expired token")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, pair)
}

func (h *Handler) logout(c *gin.Context) {
	var dto LogoutDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "refreshToken is required")
		return
	}
	revoked, err := h.svc.Logout(c.Request.Context(), dto.RefreshToken, dto.LogoutAll, deviceOf(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"revoked": revoked})
}

func (h *Handler) register(c *gin.Context) {
	var dto RegisterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "email, name and password are required")
		return
	}
	view, err := h.svc.Register(c.Request.Context(), dto, deviceOf(c))
	if err != nil {
		var weak *WeakPasswordError
		switch {
		case errors.Is(err, ErrBootstrapDone):
			response.Forbidden(c)
		case errors.As(err, &weak):
			response.ValidationFailed(c, weak.Error(), weak.Result.Violations)
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Created(c, view)
}

func (h *Handler) me(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	view, err := h.svc.Me(c.Request.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, jwt.ErrInvalidToken) {
			response.Unauthorized(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, view)
}

func (h *Handler) sessions(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	views, err := h.svc.Sessions(c.Request.Context(), id.UserID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, views)
}

func (h *Handler) changePassword(c *gin.Context) {
	var dto ChangePasswordDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "currentPassword and newPassword are required")
		return
	}
	id := middleware.CurrentIdentity(c)
	err := h.svc.ChangePassword(c.Request.Context(), id.UserID, dto, deviceOf(c))
	if err != nil {
		var weak *WeakPasswordError
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			response.Unauthorized(c, ErrInvalidCredentials.Error())
		case errors.As(err, &weak):
			response.ValidationFailed(c, weak.Error(), weak.Result.Violations)
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, gin.H{"message": "password changed"})
}

func deviceOf(c *gin.Context) session.Device {
	return session.Device{
		IP: c.ClientIP(),
		UA: c.Request.UserAgent(),
	}
}

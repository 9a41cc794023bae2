package auth

import (
	"errors"
	"time"

	"github.com/tiendreiliass0x/school-management-system/internal/models"
	"github.com/tiendreiliass0x/school-management-system/internal/modules/auth/password"
)

var (
	// ErrInvalidCredentials covers unknown email, wrong password and
	// inactive accounts alike so the login endpoint cannot be used to
	// probe which addresses exist.
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrBootstrapDone = errors.New("registration is closed")
)

// WeakPasswordError carries the validator result for a rejected password.
type WeakPasswordError struct {
	Result password.Result
}

func (e *WeakPasswordError) Error() string { return "password does not meet policy" }

type LoginDTO struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type LogoutDTO struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
	LogoutAll    bool   `json:"logoutAll"`
}

type ChangePasswordDTO struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

type RegisterDTO struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserView struct {
	ID            string      `json:"id"`
	Email         string      `json:"email"`
	Name          string      `json:"name"`
	Role          models.Role `json:"role"`
	SchoolID      *string     `json:"schoolId,omitempty"`
	Active        bool        `json:"active"`
	LastLoginTime *time.Time  `json:"lastLoginTime,omitempty"`
}

func NewUserView(u *models.UserModel) UserView {
	return UserView{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          u.Role,
		SchoolID:      u.SchoolID,
		Active:        u.Active,
		LastLoginTime: u.LastLoginTime,
	}
}

type TokenPair struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	ExpiresIn    int64    `json:"expiresIn"`
	User         UserView `json:"user"`
}

type SessionView struct {
	ID         string     `json:"id"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	IP         string     `json:"ip"`
	UA         string     `json:"ua"`
}

func NewSessionView(rt *models.RefreshTokenModel) SessionView {
	return SessionView{
		ID:         rt.ID,
		CreatedAt:  rt.CreatedAt,
		ExpiresAt:  rt.ExpiresAt,
		LastUsedAt: rt.LastUsedAt,
		IP:         rt.IP,
		UA:         rt.UA,
	}
}

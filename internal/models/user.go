package models

import "time"

// Role is the closed set of user roles. Every role except the platform admin
// is scoped to exactly one school.
type Role string

const (
	RolePlatformAdmin Role = "platform_admin"
	RoleSchoolAdmin   Role = "school_admin"
	RoleStaff         Role = "staff"
	RoleLearner       Role = "learner"
	RoleGuardian      Role = "guardian"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePlatformAdmin, RoleSchoolAdmin, RoleStaff, RoleLearner, RoleGuardian:
		return true
	}
	return false
}

// UserModel represents an account in the school administration system.
// The CRUD layer owns user creation and profile mutation; the auth core reads
// it to verify credentials and to re-check liveness on protected requests.
type UserModel struct {
	Base
	Email         string     `json:"email"           gorm:"uniqueIndex;not null"`
	Name          string     `json:"name"`
	Password      string     `json:"-"               gorm:"not null"`
	Role          Role       `json:"role"            gorm:"type:varchar(32);index;not null"`
	SchoolID      *string    `json:"school_id"       gorm:"type:char(36);index"`
	Active        bool       `json:"active"          gorm:"not null;default:true"`
	LastLoginTime *time.Time `json:"last_login_time"`
	LastLoginIP   string     `json:"last_login_ip"`
}

func (UserModel) TableName() string { return "users" }

// SchoolModel is the tenant entity. Only the identity fields matter to the
// auth core; the rest of the school record lives in the CRUD layer.
type SchoolModel struct {
	Base
	Name   string `json:"name"   gorm:"not null"`
	Code   string `json:"code"   gorm:"uniqueIndex;not null"`
	Active bool   `json:"active" gorm:"not null;default:true"`
}

func (SchoolModel) TableName() string { return "schools" }

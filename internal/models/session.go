package models

import "time"

// RefreshTokenModel is one login session. The raw secret is returned to the
// client exactly once; only its SHA-256 hash is stored. Records are never
// physically deleted, revocation flips the flag so the audit trail survives.
type RefreshTokenModel struct {
	Base
	UserID     string     `json:"user_id"      gorm:"type:char(36);index;not null"`
	TokenHash  string     `json:"-"            gorm:"type:char(64);uniqueIndex;not null"`
	ExpiresAt  time.Time  `json:"expires_at"   gorm:"index;not null"`
	Revoked    bool       `json:"revoked"      gorm:"index;not null;default:false"`
	IP         string     `json:"ip"`
	UA         string     `json:"ua"           gorm:"type:text"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

func (RefreshTokenModel) TableName() string { return "refresh_tokens" }

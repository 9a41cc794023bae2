package models

// AuditEventKind is the closed taxonomy of security-relevant events.
type AuditEventKind string

const (
	AuditLoginSuccess      AuditEventKind = "login_success"
	AuditLoginFailure      AuditEventKind = "login_failure"
	AuditLogout            AuditEventKind = "logout"
	AuditTokenRefresh      AuditEventKind = "token_refresh"
	AuditTokenInvalid      AuditEventKind = "token_invalid"
	AuditPasswordChange    AuditEventKind = "password_change"
	AuditAccessDenied      AuditEventKind = "access_denied"
	AuditRateLimitExceeded AuditEventKind = "rate_limit_exceeded"
	AuditSuspiciousAction  AuditEventKind = "suspicious_activity"
	AuditDataMutation      AuditEventKind = "data_mutation"
)

// AuditSeverity is the severity tier of an audit event.
type AuditSeverity string

const (
	SeverityLow      AuditSeverity = "low"
	SeverityMedium   AuditSeverity = "medium"
	SeverityHigh     AuditSeverity = "high"
	SeverityCritical AuditSeverity = "critical"
)

// AuditLogModel is an immutable security audit record, append-only.
// It must never contain plaintext credentials or raw token secrets.
type AuditLogModel struct {
	Base
	Kind      AuditEventKind `json:"kind"       gorm:"type:varchar(32);index;not null"`
	Severity  AuditSeverity  `json:"severity"   gorm:"type:varchar(16);index;not null"`
	ActorID   string         `json:"actor_id"   gorm:"type:char(36);index"`
	ActorRole Role           `json:"actor_role" gorm:"type:varchar(32)"`
	SchoolID  string         `json:"school_id"  gorm:"type:char(36);index"`
	IP        string         `json:"ip"`
	UA        string         `json:"ua"         gorm:"type:text"`
	Action    string         `json:"action"`
	Target    string         `json:"target"`
	Detail    map[string]any `json:"detail"     gorm:"type:longtext;serializer:json"`
	Success   bool           `json:"success"`
	Error     string         `json:"error"      gorm:"type:text"`
}

func (AuditLogModel) TableName() string { return "audit_logs" }

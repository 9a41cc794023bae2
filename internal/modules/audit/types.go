package audit

import "github.com/tiendreiliass0x/school-management-system/internal/models"

// Event is the input to the audit sink. Callers pass identifiers and
// already-redacted claims only; plaintext credentials and raw token secrets
// must never reach this type.
type Event struct {
	Kind      models.AuditEventKind
	ActorID   string
	ActorRole models.Role
	SchoolID  string
	IP        string
	UA        string
	Action    string
	Target    string
	Detail    map[string]any
	Success   bool
	Err       error
}

// SeverityFor applies the fixed severity rules of the event taxonomy.
func SeverityFor(kind models.AuditEventKind, success bool) models.AuditSeverity {
	switch kind {
	case models.AuditLoginFailure, models.AuditTokenInvalid, models.AuditAccessDenied:
		return models.SeverityHigh
	case models.AuditSuspiciousAction:
		return models.SeverityCritical
	case models.AuditPasswordChange, models.AuditRateLimitExceeded, models.AuditDataMutation:
		return models.SeverityMedium
	case models.AuditLoginSuccess, models.AuditLogout, models.AuditTokenRefresh:
		if !success {
			return models.SeverityHigh
		}
		return models.SeverityLow
	}
	return models.SeverityMedium
}

// redactedKeys are detail-map keys whose values are always masked before an
// entry is persisted.
var redactedKeys = map[string]struct{}{
	"password":      {},
	"new_password":  {},
	"old_password":  {},
	"token":         {},
	"refresh_token": {},
	"access_token":  {},
	"secret":        {},
	"authorization": {},
}

func redactDetail(detail map[string]any) map[string]any {
	if len(detail) == 0 {
		return nil
	}
	out := make(map[string]any, len(detail))
	for k, v := range detail {
		if _, hit := redactedKeys[k]; hit {
			out[k] = "[redacted]"
			continue
		}
		out[k] = v
	}
	return out
}

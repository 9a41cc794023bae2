package access

import (
	"errors"

	"github.com/tiendreiliass0x/school-management-system/internal/models"
)

// ErrPermissionDenied is returned for every authorization failure. Callers
// map it to a uniform 403 without leaking whether the target exists.
var ErrPermissionDenied = errors.New("permission denied")

// Identity is the resolved caller attached to a request after token
// verification.
type Identity struct {
	UserID   string
	Role     models.Role
	SchoolID string // empty for platform admins
}

// ScopeRule declares how an action is tenant-scoped.
type ScopeRule int

const (
	// ScopeNone has no tenant constraint beyond the role set.
	ScopeNone ScopeRule = iota
	// ScopeSchool restricts the action to the caller's own school.
	// Platform admins may act on any school.
	ScopeSchool
	// ScopeSelfOrSchool additionally allows a caller to act on their own
	// record regardless of school scope (self-service operations).
	ScopeSelfOrSchool
)

// Action declares the role set and tenant-scope rule an operation requires.
// Route handlers declare actions; Decide is the sole evaluator.
type Action struct {
	Name  string
	Roles []models.Role // empty means any authenticated role
	Scope ScopeRule
}

// Target identifies the resource an action is applied to. Zero values mean
// "no specific target".
type Target struct {
	SchoolID string
	UserID   string
}

// Decide is the single permission evaluator. It returns nil when the actor
// may perform the action on the target, ErrPermissionDenied otherwise.
func Decide(actor Identity, action Action, target Target) error {
	if actor.UserID == "" || !actor.Role.Valid() {
		return ErrPermissionDenied
	}

	if len(action.Roles) > 0 && !roleIn(actor.Role, action.Roles) {
		return ErrPermissionDenied
	}

	switch action.Scope {
	case ScopeNone:
		return nil
	case ScopeSchool:
		if actor.Role == models.RolePlatformAdmin {
			return nil
		}
		if target.SchoolID != "" && actor.SchoolID == target.SchoolID {
			return nil
		}
		return ErrPermissionDenied
	case ScopeSelfOrSchool:
		if actor.Role == models.RolePlatformAdmin {
			return nil
		}
		if target.UserID != "" && actor.UserID == target.UserID {
			return nil
		}
		if target.SchoolID != "" && actor.SchoolID == target.SchoolID {
			return nil
		}
		return ErrPermissionDenied
	}
	return ErrPermissionDenied
}

func roleIn(role models.Role, set []models.Role) bool {
	for _, r := range set {
		if r == role {
			return true
		}
	}
	return false
}

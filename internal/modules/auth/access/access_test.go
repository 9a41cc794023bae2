package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tiendreiliass0x/school-management-system/internal/models"
	"github.com/tiendreiliass0x/school-management-system/internal/modules/auth/access"
)

var (
	platformAdmin = access.Identity{UserID: "u-admin", Role: models.RolePlatformAdmin}
	schoolAdmin   = access.Identity{UserID: "u-sa", Role: models.RoleSchoolAdmin, SchoolID: "school-1"}
	staff         = access.Identity{UserID: "u-staff", Role: models.RoleStaff, SchoolID: "school-1"}
	learner       = access.Identity{UserID: "u-learner", Role: models.RoleLearner, SchoolID: "school-1"}
)

func TestDecide(t *testing.T) {
	manageGrades := access.Action{
		Name:  "grades.manage",
		Roles: []models.Role{models.RolePlatformAdmin, models.RoleSchoolAdmin, models.RoleStaff},
		Scope: access.ScopeSchool,
	}
	viewProfile := access.Action{
		Name:  "users.view",
		Scope: access.ScopeSelfOrSchool,
	}
	listAudit := access.Action{
		Name:  "audit.list",
		Roles: []models.Role{models.RolePlatformAdmin},
	}

	tests := []struct {
		name    string
		actor   access.Identity
		action  access.Action
		target  access.Target
		allowed bool
	}{
		{"platform admin crosses tenants", platformAdmin, manageGrades, access.Target{SchoolID: "school-2"}, true},
		{"staff in own school", staff, manageGrades, access.Target{SchoolID: "school-1"}, true},
		{"staff in other school", staff, manageGrades, access.Target{SchoolID: "school-2"}, false},
		{"learner role not in set", learner, manageGrades, access.Target{SchoolID: "school-1"}, false},
		{"learner views self", learner, viewProfile, access.Target{UserID: "u-learner", SchoolID: "school-2"}, true},
		{"learner views classmate", learner, viewProfile, access.Target{UserID: "u-other", SchoolID: "school-1"}, true},
		{"learner views other school", learner, viewProfile, access.Target{UserID: "u-other", SchoolID: "school-2"}, false},
		{"school admin audit denied", schoolAdmin, listAudit, access.Target{}, false},
		{"platform admin audit allowed", platformAdmin, listAudit, access.Target{}, true},
		{"anonymous denied", access.Identity{}, viewProfile, access.Target{}, false},
		{"unknown role denied", access.Identity{UserID: "u-x", Role: "intruder"}, viewProfile, access.Target{UserID: "u-x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := access.Decide(tt.actor, tt.action, tt.target)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, access.ErrPermissionDenied)
			}
		})
	}
}

func TestDecideScopedActionWithoutTarget(t *testing.T) {
	action := access.Action{Name: "grades.manage", Scope: access.ScopeSchool}
	assert.ErrorIs(t, access.Decide(staff, action, access.Target{}), access.ErrPermissionDenied)
	assert.NoError(t, access.Decide(platformAdmin, action, access.Target{}))
}

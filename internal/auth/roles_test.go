package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/impacttracker/impacttracker/internal/model"
)

func TestAdminWildcard(t *testing.T) {
	// The wildcard covers every permission, including ones added later.
	assert.True(t, HasPermission(model.RoleAdmin, PermUpdateOwnProjects))
	assert.True(t, HasPermission(model.RoleAdmin, PermCreateFinancement))
	assert.True(t, HasPermission(model.RoleAdmin, "some_future_permission"))
}

func TestChefProjetPermissions(t *testing.T) {
	assert.True(t, HasPermission(model.RoleChefProjet, PermUpdateOwnProjects))
	assert.True(t, HasPermission(model.RoleChefProjet, PermCreateIndicators))
	assert.True(t, HasPermission(model.RoleChefProjet, PermUploadDocuments))

	assert.False(t, HasPermission(model.RoleChefProjet, PermCreateFinancement))
}

func TestDonateurPermissions(t *testing.T) {
	assert.True(t, HasPermission(model.RoleDonateur, PermReadFundedProjects))
	assert.True(t, HasPermission(model.RoleDonateur, PermCreateFinancement))

	assert.False(t, HasPermission(model.RoleDonateur, PermUploadDocuments))
	assert.False(t, HasPermission(model.RoleDonateur, PermUpdateOwnProjects))
}

func TestUnknownRoleHasNothing(t *testing.T) {
	assert.False(t, HasPermission(model.Role("superuser"), PermReadOwnProjects))
	assert.False(t, HasPermission(model.Role(""), PermReadOwnProjects))
}

func TestPermissionsReturnsCopy(t *testing.T) {
	perms := Permissions(model.RoleDonateur)
	assert.NotEmpty(t, perms)
	perms[0] = "mutated"

	again := Permissions(model.RoleDonateur)
	assert.NotEqual(t, "mutated", again[0], "callers must not be able to mutate the table")
}

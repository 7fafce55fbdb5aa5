package auth

import "github.com/impacttracker/impacttracker/internal/model"

// Permission names are stable string constants checked by handlers before
// any role-scoped query runs. The table below is the single source of truth
// for role capabilities; there are no partial grants.
const (
	PermReadOwnProjects      = "read_own_projects"
	PermUpdateOwnProjects    = "update_own_projects"
	PermCreateIndicators     = "create_indicators"
	PermReadIndicators       = "read_indicators"
	PermUpdateIndicators     = "update_indicators"
	PermReadOwnDocuments     = "read_own_documents"
	PermUploadDocuments      = "upload_documents"
	PermReadFundedProjects   = "read_funded_projects"
	PermReadProjectIndicator = "read_project_indicators"
	PermCreateFinancement    = "create_financement"
	PermReadOwnFinancements  = "read_own_financements"
)

// permWildcard grants every permission. Only admin holds it.
const permWildcard = "*"

var rolePermissions = map[model.Role][]string{
	model.RoleAdmin: {permWildcard},
	model.RoleChefProjet: {
		PermReadOwnProjects, PermUpdateOwnProjects,
		PermCreateIndicators, PermReadIndicators, PermUpdateIndicators,
		PermReadOwnDocuments, PermUploadDocuments,
	},
	model.RoleDonateur: {
		PermReadFundedProjects, PermReadProjectIndicator,
		PermCreateFinancement, PermReadOwnFinancements,
	},
}

// HasPermission reports whether the role holds the named permission. An
// unrecognized role holds nothing; admin's wildcard matches everything.
func HasPermission(role model.Role, perm string) bool {
	for _, p := range rolePermissions[role] {
		if p == permWildcard || p == perm {
			return true
		}
	}
	return false
}

// Permissions returns a copy of the role's permission set. Used by the /me
// endpoint so clients can hide UI affordances the user cannot exercise.
func Permissions(role model.Role) []string {
	perms := rolePermissions[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

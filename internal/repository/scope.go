package repository

import "github.com/impacttracker/impacttracker/internal/model"

// Viewer identifies the requester for row-visibility filtering. Every list
// and single-row read goes through one of the scope builders below; a
// single-row read is "scoped list AND id = ?", so an out-of-scope id reads
// as not found rather than forbidden.
type Viewer struct {
	UserID uint64
	Role   model.Role
}

// denyAll matches no rows. Unrecognized roles land here: deny by default,
// never an error.
const denyAll = "1=0"

// projectScope returns the WHERE fragment restricting `projects p` to rows
// the viewer may see.
//   admin       – unrestricted.
//   chef_projet – projects the viewer leads.
//   donateur    – projects reachable through a financement the viewer authored.
func projectScope(v Viewer) (string, []any) {
	switch v.Role {
	case model.RoleAdmin:
		return "", nil
	case model.RoleChefProjet:
		return "p.chef_projet_id = ?", []any{v.UserID}
	case model.RoleDonateur:
		return "EXISTS (SELECT 1 FROM financements f WHERE f.projet_id = p.id AND f.donateur_id = ?)", []any{v.UserID}
	}
	return denyAll, nil
}

// indicatorScope restricts `indicators i` through the parent project.
func indicatorScope(v Viewer) (string, []any) {
	switch v.Role {
	case model.RoleAdmin:
		return "", nil
	case model.RoleChefProjet:
		return "EXISTS (SELECT 1 FROM projects p WHERE p.id = i.projet_id AND p.chef_projet_id = ?)", []any{v.UserID}
	case model.RoleDonateur:
		return "EXISTS (SELECT 1 FROM financements f WHERE f.projet_id = i.projet_id AND f.donateur_id = ?)", []any{v.UserID}
	}
	return denyAll, nil
}

// financementScope restricts `financements f`. Donateurs see their own
// records; chefs see financements attached to projects they lead.
func financementScope(v Viewer) (string, []any) {
	switch v.Role {
	case model.RoleAdmin:
		return "", nil
	case model.RoleDonateur:
		return "f.donateur_id = ?", []any{v.UserID}
	case model.RoleChefProjet:
		return "EXISTS (SELECT 1 FROM projects p WHERE p.id = f.projet_id AND p.chef_projet_id = ?)", []any{v.UserID}
	}
	return denyAll, nil
}

// documentScope restricts `documents d` through the parent project, same
// shape as indicatorScope.
func documentScope(v Viewer) (string, []any) {
	switch v.Role {
	case model.RoleAdmin:
		return "", nil
	case model.RoleChefProjet:
		return "EXISTS (SELECT 1 FROM projects p WHERE p.id = d.projet_id AND p.chef_projet_id = ?)", []any{v.UserID}
	case model.RoleDonateur:
		return "EXISTS (SELECT 1 FROM financements f WHERE f.projet_id = d.projet_id AND f.donateur_id = ?)", []any{v.UserID}
	}
	return denyAll, nil
}

// appendScope glues a scope fragment onto a query that already ends in a
// WHERE clause.
func appendScope(query, clause string) string {
	if clause == "" {
		return query
	}
	return query + " AND " + clause
}

package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/impacttracker/impacttracker/internal/model"
)

func TestProjectScopePerRole(t *testing.T) {
	clause, args := projectScope(Viewer{UserID: 1, Role: model.RoleAdmin})
	assert.Empty(t, clause, "admin sees everything")
	assert.Empty(t, args)

	clause, args = projectScope(Viewer{UserID: 2, Role: model.RoleChefProjet})
	assert.Equal(t, "p.chef_projet_id = ?", clause)
	assert.Equal(t, []any{uint64(2)}, args)

	clause, args = projectScope(Viewer{UserID: 3, Role: model.RoleDonateur})
	assert.Contains(t, clause, "f.donateur_id = ?")
	assert.Contains(t, clause, "EXISTS")
	assert.Equal(t, []any{uint64(3)}, args)
}

func TestUnknownRoleDeniesAllScopes(t *testing.T) {
	v := Viewer{UserID: 9, Role: model.Role("intern")}

	for name, scope := range map[string]func(Viewer) (string, []any){
		"project":     projectScope,
		"indicator":   indicatorScope,
		"financement": financementScope,
		"document":    documentScope,
	} {
		clause, args := scope(v)
		assert.Equal(t, denyAll, clause, name)
		assert.Empty(t, args, name)
	}
}

func TestChildScopesGoThroughParentProject(t *testing.T) {
	chef := Viewer{UserID: 5, Role: model.RoleChefProjet}

	clause, args := indicatorScope(chef)
	assert.Contains(t, clause, "p.chef_projet_id = ?")
	assert.Contains(t, clause, "i.projet_id")
	assert.Equal(t, []any{uint64(5)}, args)

	clause, args = documentScope(chef)
	assert.Contains(t, clause, "p.chef_projet_id = ?")
	assert.Contains(t, clause, "d.projet_id")
	assert.Equal(t, []any{uint64(5)}, args)
}

func TestFinancementScopeDirectForDonateur(t *testing.T) {
	// A donateur filters on their own column directly, no subquery needed.
	clause, args := financementScope(Viewer{UserID: 8, Role: model.RoleDonateur})
	assert.Equal(t, "f.donateur_id = ?", clause)
	assert.Equal(t, []any{uint64(8)}, args)

	// A chef reaches financements through the projects they lead.
	clause, _ = financementScope(Viewer{UserID: 8, Role: model.RoleChefProjet})
	assert.Contains(t, clause, "p.chef_projet_id = ?")
}

func TestAppendScope(t *testing.T) {
	base := "SELECT 1 FROM projects p WHERE 1=1"
	assert.Equal(t, base, appendScope(base, ""))
	assert.Equal(t, base+" AND p.chef_projet_id = ?", appendScope(base, "p.chef_projet_id = ?"))
}

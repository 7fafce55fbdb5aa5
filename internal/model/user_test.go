package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"admin", "chef_projet", "donateur"} {
		r, ok := ParseRole(valid)
		assert.True(t, ok, valid)
		assert.Equal(t, Role(valid), r)
	}
	for _, invalid := range []string{"", "Admin", "superuser", "chef projet"} {
		_, ok := ParseRole(invalid)
		assert.False(t, ok, invalid)
	}
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, DomainEau.Valid())
	assert.False(t, ProjectDomain("finance").Valid())

	assert.True(t, StatusEnCours.Valid())
	assert.False(t, ProjectStatus("archive").Valid())

	assert.True(t, FinancementRecu.Valid())
	assert.False(t, FinancementStatut("annule").Valid())
}

package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role Role
		cap  Capability
		want bool
	}{
		{RoleAdmin, CanViewAllLeads, true},
		{RoleAdmin, CanAssignLeads, true},
		{RoleAdmin, CanDeleteLeads, true},
		{RoleAdmin, CanRestoreLeads, true},
		{RoleAdmin, CanAddLeads, false},
		{RoleAdmin, CanCallLeads, false},
		{RoleMarketer, CanAddLeads, true},
		{RoleMarketer, CanEditOwnLeadsOnly, true},
		{RoleMarketer, CanAssignLeads, false},
		{RoleMarketer, CanCallLeads, false},
		{RoleMarketer, CanDeleteLeads, false},
		{RoleSales, CanCallLeads, true},
		{RoleSales, CanEditOwnLeadsOnly, true},
		{RoleSales, CanAddLeads, false},
		{RoleSales, CanRestoreLeads, false},
		{Role("owner"), CanViewAllLeads, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.cap), func(t *testing.T) {
			assert.Equal(t, tt.want, HasPermission(tt.role, tt.cap))
		})
	}
}

func TestNewUser(t *testing.T) {
	u, err := NewUser("Ana Souza", "ana@example.com", RoleSales)
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, UserReference{ID: u.ID, Name: "Ana Souza"}, u.Reference())

	_, err = NewUser("Ana Souza", "ana@example.com", Role("guest"))
	assert.Error(t, err)

	_, err = NewUser("", "ana@example.com", RoleSales)
	assert.EqualError(t, err, "name is required")
}

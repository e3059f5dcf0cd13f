package users

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_CanTakePayments(t *testing.T) {
	assert.True(t, RoleAdmin.CanTakePayments())
	assert.True(t, RoleCashier.CanTakePayments())
	assert.False(t, RoleTeacher.CanTakePayments())
	assert.False(t, RoleStudent.CanTakePayments())
}

func TestUser_DisplayName(t *testing.T) {
	assert.Equal(t, "Nimal Perera", (&User{FirstName: "Nimal", LastName: "Perera"}).DisplayName())
	assert.Equal(t, "Nimal", (&User{FirstName: "Nimal"}).DisplayName())
	assert.Equal(t, "@nimal", (&User{Username: "nimal"}).DisplayName())
	assert.Equal(t, "user #4", (&User{ID: 4}).DisplayName())
}

package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riezafm/levelpos-backend/pkg/enums"
)

func TestRoleSetEmptyAllowsEveryone(t *testing.T) {
	var roles RoleSet
	assert.True(t, roles.Allows(enums.UserRoleConsumer))
	assert.True(t, roles.Allows(enums.UserRoleReseller))
	assert.False(t, roles.Contains(enums.UserRoleConsumer))
}

func TestRoleSetRestrictsToMembers(t *testing.T) {
	roles := RoleSet{enums.UserRoleReseller, enums.UserRoleAffiliate}
	assert.True(t, roles.Allows(enums.UserRoleReseller))
	assert.False(t, roles.Allows(enums.UserRoleConsumer))
	assert.True(t, roles.Contains(enums.UserRoleAffiliate))
}

func TestRoleSetRoundTripsThroughJSON(t *testing.T) {
	roles := RoleSet{enums.UserRoleReseller}
	raw, err := json.Marshal(roles)
	require.NoError(t, err)

	var decoded RoleSet
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, roles, decoded)
}

func TestDimensionsIsZero(t *testing.T) {
	assert.True(t, Dimensions{}.IsZero())
	assert.False(t, Dimensions{Length: 10, Width: 5, Height: 2, Unit: "cm"}.IsZero())
}

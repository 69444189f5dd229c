package types

import (
	"github.com/riezafm/levelpos-backend/pkg/enums"
)

// RoleSet is the set of roles a promotion applies to.
// An empty set means the promotion is open to every role.
// Stored as jsonb via the gorm json serializer.
type RoleSet []enums.UserRole

// Allows reports whether the role may use the promotion.
func (s RoleSet) Allows(role enums.UserRole) bool {
	if len(s) == 0 {
		return true
	}
	for _, candidate := range s {
		if candidate == role {
			return true
		}
	}
	return false
}

// Contains reports strict membership, ignoring the empty-set wildcard.
func (s RoleSet) Contains(role enums.UserRole) bool {
	for _, candidate := range s {
		if candidate == role {
			return true
		}
	}
	return false
}

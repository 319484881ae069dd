package services

import "github.com/questhaven/gamevault/internal/models"

// manageTable maps an actor role to the set of roles it may manage.
// All role checks in the user handlers go through this single table so the
// hierarchy cannot drift between endpoints.
var manageTable = map[models.Role][]models.Role{
	models.RoleSuperAdmin: {models.RoleSuperAdmin, models.RoleAdmin, models.RoleUser},
	models.RoleAdmin:      {models.RoleUser},
	models.RoleUser:       {},
}

// CanManage reports whether an actor role may create, modify, or delete an
// account holding the target role. Unknown roles manage nothing.
func CanManage(actor, target models.Role) bool {
	for _, allowed := range manageTable[actor] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ManagedRoles returns the roles an actor may manage. The returned slice
// is a copy; callers may mutate it freely.
func ManagedRoles(actor models.Role) []models.Role {
	allowed := manageTable[actor]
	out := make([]models.Role, len(allowed))
	copy(out, allowed)
	return out
}

// IsBackOffice reports whether a role grants access to the admin area.
func IsBackOffice(role models.Role) bool {
	return role == models.RoleAdmin || role == models.RoleSuperAdmin
}

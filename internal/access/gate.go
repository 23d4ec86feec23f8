package access

import "admitcrm/internal/crm"

// Gate is a declarative guard for a piece of privileged content. Conditions
// are evaluated in a fixed order and the first failing one hides the
// content; a gate with no conditions admits any authenticated user.
type Gate struct {
	RequireAdmin   bool
	RequireManager bool
	// AllowedRoles, when non-empty, is an explicit role allow-list.
	AllowedRoles []crm.Role
	// RequireEdit, together with a non-zero OwnerID, applies the lead edit
	// rule: Admin and Team Lead bypass, everyone else owner-only.
	RequireEdit bool
	OwnerID     int
}

// Allows evaluates the gate for the given user.
func (g Gate) Allows(user *crm.User) bool {
	if user == nil {
		return false
	}
	checker := NewChecker(user)

	if g.RequireAdmin && !checker.IsAdmin() {
		return false
	}
	if g.RequireManager && !checker.IsManager() {
		return false
	}
	if len(g.AllowedRoles) > 0 && !checker.HasRole(g.AllowedRoles...) {
		return false
	}
	if g.RequireEdit && g.OwnerID != 0 {
		if checker.IsAdmin() || checker.IsTeamLead() {
			return true
		}
		return g.OwnerID == user.ID
	}
	return true
}

// Package access derives role-based capability predicates from the current
// session's user. Predicates are pure and synchronous; views consult them
// before rendering privileged controls. Every predicate fails closed when no
// authenticated user is present.
package access

import (
	"slices"

	"admitcrm/internal/crm"
)

// Checker evaluates capability predicates for one user. A nil user means
// unauthenticated.
type Checker struct {
	user *crm.User
}

// NewChecker builds a checker for the given user; pass nil when logged out.
func NewChecker(user *crm.User) Checker {
	return Checker{user: user}
}

// User returns the user the checker was built for.
func (c Checker) User() *crm.User { return c.user }

// IsAdmin reports whether the current user holds the Admin role.
func (c Checker) IsAdmin() bool {
	return c.user != nil && c.user.Role == crm.RoleAdmin
}

// IsTeamLead reports whether the current user holds the Team Lead role.
func (c Checker) IsTeamLead() bool {
	return c.user != nil && c.user.Role == crm.RoleTeamLead
}

// IsManager reports whether the current user holds a managing role: Admin,
// Team Lead, or Digital Manager.
func (c Checker) IsManager() bool {
	return c.HasRole(crm.RoleAdmin, crm.RoleTeamLead, crm.RoleDigitalManager)
}

// HasRole reports whether the current user's role is one of roles.
func (c Checker) HasRole(roles ...crm.Role) bool {
	if c.user == nil {
		return false
	}
	return slices.Contains(roles, c.user.Role)
}

// CanAccessLead reports whether the user may see a lead owned by ownerID.
// Admin and Team Lead always may; Executive and Consultant only their own
// assignments; every other role never.
func (c Checker) CanAccessLead(ownerID int) bool {
	if c.user == nil {
		return false
	}
	switch c.user.Role {
	case crm.RoleAdmin, crm.RoleTeamLead:
		return true
	case crm.RoleExecutive, crm.RoleConsultant:
		return ownerID == c.user.ID
	default:
		return false
	}
}

// CanEditLead reports whether the user may edit a lead owned by ownerID.
// Admin and Team Lead edit everything; everyone else only their own.
func (c Checker) CanEditLead(ownerID int) bool {
	if c.user == nil {
		return false
	}
	if c.user.Role == crm.RoleAdmin || c.user.Role == crm.RoleTeamLead {
		return true
	}
	return ownerID == c.user.ID
}

// CanDeleteLead reports whether the user may delete leads. Admin only.
func (c Checker) CanDeleteLead() bool {
	return c.IsAdmin()
}

// CanAccessApplication applies the parent lead's access rule.
func (c Checker) CanAccessApplication(ownerID int) bool {
	return c.CanAccessLead(ownerID)
}

// CanManageUsers reports whether the user may administer accounts.
func (c Checker) CanManageUsers() bool {
	return c.IsAdmin()
}

// CanManageAutomation reports whether the user may edit workflows.
func (c Checker) CanManageAutomation() bool {
	return c.IsAdmin()
}

// CanManageSettings reports whether the user may edit stages and sources.
func (c Checker) CanManageSettings() bool {
	return c.IsAdmin() || c.IsTeamLead()
}

// CanViewReports reports whether the user may open the reporting pages.
func (c Checker) CanViewReports() bool {
	return c.HasRole(crm.RoleAdmin, crm.RoleTeamLead, crm.RoleDigitalManager)
}

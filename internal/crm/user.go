package crm

// Role is one of the six fixed dashboard roles. The role on the current
// user's profile is the sole authority for capability checks; records carry
// no ACL of their own beyond the assigned_to owner field.
type Role string

const (
	RoleAdmin          Role = "Admin"
	RoleTeamLead       Role = "Team Lead"
	RoleExecutive      Role = "Executive"
	RoleConsultant     Role = "Consultant"
	RolePublisher      Role = "Publisher"
	RoleDigitalManager Role = "Digital Manager"
)

// Roles lists every known role, in the order the dashboard presents them.
var Roles = []Role{
	RoleAdmin,
	RoleTeamLead,
	RoleExecutive,
	RoleConsultant,
	RolePublisher,
	RoleDigitalManager,
}

// User is a dashboard account as returned by the API.
type User struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func (u User) EntityID() int { return u.ID }

package crm

// LeadStatus tracks a lead's lifecycle from inquiry to conversion or loss.
type LeadStatus string

const (
	LeadActive    LeadStatus = "active"
	LeadConverted LeadStatus = "converted"
	LeadLost      LeadStatus = "lost"
	LeadDormant   LeadStatus = "dormant"
)

// Lead is a prospective-student record moving through the pipeline. It is
// conceptually owned by the user it is assigned to.
type Lead struct {
	ID             int        `json:"id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	FullName       string     `json:"full_name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone,omitempty"`
	SourceID       int        `json:"source_id,omitempty"`
	Source         *Source    `json:"source,omitempty"`
	StageID        int        `json:"stage_id,omitempty"`
	Stage          *Stage     `json:"stage,omitempty"`
	AssignedTo     int        `json:"assigned_to,omitempty"`
	AssignedUser   *User      `json:"assigned_user,omitempty"`
	Status         LeadStatus `json:"status"`
	ReInquiryCount int        `json:"re_inquiry_count"`
	LastActivityAt string     `json:"last_activity_at,omitempty"`
	CreatedAt      string     `json:"created_at"`
	UpdatedAt      string     `json:"updated_at"`
	HasApplication bool       `json:"has_application"`
}

func (l Lead) EntityID() int { return l.ID }

// StageType distinguishes lead-pipeline stages from application stages.
type StageType string

const (
	StageLead        StageType = "lead"
	StageApplication StageType = "application"
)

// Stage is an ordered pipeline step a lead occupies.
type Stage struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Type      StageType `json:"type"`
	Order     int       `json:"order"`
	IsActive  bool      `json:"is_active"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

func (s Stage) EntityID() int { return s.ID }

// Source is the origin channel of a lead.
type Source struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func (s Source) EntityID() int { return s.ID }

// LeadKPIs is the aggregate block behind the dashboard headline figures.
type LeadKPIs struct {
	TotalLeads     int     `json:"total_leads"`
	ActiveLeads    int     `json:"active_leads"`
	ConvertedLeads int     `json:"converted_leads"`
	NewThisMonth   int     `json:"new_this_month"`
	ConversionRate float64 `json:"conversion_rate"`
}

// StageCount is one slice of the stage distribution.
type StageCount struct {
	StageID   int    `json:"stage_id"`
	StageName string `json:"stage_name"`
	Count     int    `json:"count"`
}

// SourceCount is one slice of the source distribution.
type SourceCount struct {
	SourceID   int    `json:"source_id"`
	SourceName string `json:"source_name"`
	Category   string `json:"category"`
	Count      int    `json:"count"`
}

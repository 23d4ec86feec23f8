package crm

// Workflow is inert automation configuration: the dashboard edits it, the
// server executes it.
type Workflow struct {
	ID                int              `json:"id"`
	Name              string           `json:"name"`
	Description       string           `json:"description,omitempty"`
	Trigger           string           `json:"trigger"`
	TriggerConditions map[string]any   `json:"trigger_conditions,omitempty"`
	Actions           []WorkflowAction `json:"actions"`
	Active            bool             `json:"active"`
	ExecutionCount    int              `json:"execution_count"`
	LastExecutedAt    string           `json:"last_executed_at,omitempty"`
	CreatedAt         string           `json:"created_at"`
	UpdatedAt         string           `json:"updated_at"`
}

func (w Workflow) EntityID() int { return w.ID }

// WorkflowAction is one step of a workflow. Beyond the type discriminator
// the shape is owned by the server.
type WorkflowAction struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

// SystemStats is the admin-wide rollup from /admin/stats.
type SystemStats struct {
	Users        SystemUserStats        `json:"users"`
	Leads        SystemLeadStats        `json:"leads"`
	Applications SystemApplicationStats `json:"applications"`
	Tasks        SystemTaskStats        `json:"tasks"`
}

type SystemUserStats struct {
	Total  int            `json:"total"`
	Active int            `json:"active"`
	ByRole map[string]int `json:"by_role"`
}

type SystemLeadStats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Converted int `json:"converted"`
}

type SystemApplicationStats struct {
	Total      int `json:"total"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

type SystemTaskStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}

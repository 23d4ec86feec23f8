package crm

type (
	TaskStatus   string
	TaskPriority string
	TaskType     string
)

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"

	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"

	TaskFollowUp           TaskType = "follow_up"
	TaskCall               TaskType = "call"
	TaskEmail              TaskType = "email"
	TaskMeeting            TaskType = "meeting"
	TaskDocumentCollection TaskType = "document_collection"
	TaskFeeReminder        TaskType = "fee_reminder"
	TaskSystem             TaskType = "system"
)

// Task is a follow-up item, optionally linked to a lead. IsOverdue is
// derived server-side and never computed locally.
type Task struct {
	ID              int          `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description,omitempty"`
	TaskType        TaskType     `json:"task_type"`
	DueDate         string       `json:"due_date,omitempty"`
	Status          TaskStatus   `json:"status"`
	Priority        TaskPriority `json:"priority"`
	AssignedTo      int          `json:"assigned_to,omitempty"`
	AssignedUser    *User        `json:"assigned_user,omitempty"`
	LeadID          int          `json:"lead_id,omitempty"`
	Lead            *Lead        `json:"lead,omitempty"`
	CreatedBy       int          `json:"created_by,omitempty"`
	CompletedAt     string       `json:"completed_at,omitempty"`
	CompletedBy     int          `json:"completed_by,omitempty"`
	CompletionNotes string       `json:"completion_notes,omitempty"`
	CreatedAt       string       `json:"created_at"`
	UpdatedAt       string       `json:"updated_at"`
	IsOverdue       bool         `json:"is_overdue"`
}

func (t Task) EntityID() int { return t.ID }

// TaskStats is the aggregate block from /tasks/stats.
type TaskStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Overdue   int `json:"overdue"`
}

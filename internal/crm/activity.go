package crm

import (
	"fmt"
)

// ActivityType enumerates the audit entry kinds written against a lead.
type ActivityType string

const (
	ActivityCall               ActivityType = "call"
	ActivityEmail              ActivityType = "email"
	ActivitySMS                ActivityType = "sms"
	ActivityWhatsApp           ActivityType = "whatsapp"
	ActivityNote               ActivityType = "note"
	ActivitySystem             ActivityType = "system"
	ActivityStageChange        ActivityType = "stage_change"
	ActivityTaskCreated        ActivityType = "task_created"
	ActivityTaskCompleted      ActivityType = "task_completed"
	ActivityDocumentUploaded   ActivityType = "document_uploaded"
	ActivityFeePaid            ActivityType = "fee_paid"
	ActivityApplicationCreated ActivityType = "application_created"
	ActivityMeeting            ActivityType = "meeting"
	ActivityFollowUp           ActivityType = "follow_up"
	ActivityLeadCreated        ActivityType = "lead_created"
	ActivityLeadUpdated        ActivityType = "lead_updated"
)

// Activity is an immutable audit entry linked to a lead; append-only from
// the client's point of view.
type Activity struct {
	ID          int            `json:"id"`
	Type        ActivityType   `json:"type"`
	Description string         `json:"description"`
	LeadID      int            `json:"lead_id"`
	UserID      int            `json:"user_id,omitempty"`
	User        *User          `json:"user,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   string         `json:"created_at"`
}

func (a Activity) EntityID() int { return a.ID }

// ValidateMetadata rejects metadata values the dashboard cannot render.
// The API hands back open maps; only strings, booleans, numbers, and flat
// string-keyed nesting of those are allowed past the boundary.
func ValidateMetadata(meta map[string]any) error {
	for key, value := range meta {
		if err := validateMetadataValue(key, value, 0); err != nil {
			return err
		}
	}
	return nil
}

func validateMetadataValue(key string, value any, depth int) error {
	switch v := value.(type) {
	case nil, string, bool, float64, int, int64:
		return nil
	case map[string]any:
		if depth >= 1 {
			return fmt.Errorf("metadata key %q: nesting deeper than one level", key)
		}
		for k, nested := range v {
			if err := validateMetadataValue(k, nested, depth+1); err != nil {
				return err
			}
		}
		return nil
	case []any:
		for _, item := range v {
			if err := validateMetadataValue(key, item, depth+1); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("metadata key %q: unsupported value type %T", key, value)
	}
}

package crm

// The four sub-status axes of an application move independently; the server
// derives the overall status from them.
type (
	DocumentStatus   string
	FeeStatus        string
	AdmissionStatus  string
	EnrollmentStatus string
	OverallStatus    string
)

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentVerified DocumentStatus = "verified"
	DocumentRejected DocumentStatus = "rejected"
	DocumentInReview DocumentStatus = "in_review"

	FeePending FeeStatus = "pending"
	FeePaid    FeeStatus = "paid"
	FeeWaived  FeeStatus = "waived"
	FeePartial FeeStatus = "partial"

	AdmissionPending     AdmissionStatus = "pending"
	AdmissionApproved    AdmissionStatus = "approved"
	AdmissionRejected    AdmissionStatus = "rejected"
	AdmissionWaitlisted  AdmissionStatus = "waitlisted"
	AdmissionConditional AdmissionStatus = "conditional"

	EnrollmentPending   EnrollmentStatus = "pending"
	EnrollmentConfirmed EnrollmentStatus = "confirmed"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
	EnrollmentDeferred  EnrollmentStatus = "deferred"

	OverallInProgress OverallStatus = "in_progress"
	OverallCompleted  OverallStatus = "completed"
	OverallCancelled  OverallStatus = "cancelled"
	OverallOnHold     OverallStatus = "on_hold"
)

// Application is the record created once a lead converts. One application
// per converted lead; the client relies on the server to enforce that.
type Application struct {
	ID                  int              `json:"id"`
	LeadID              int              `json:"lead_id"`
	Lead                *Lead            `json:"lead,omitempty"`
	DocumentStatus      DocumentStatus   `json:"document_status"`
	DocumentNotes       string           `json:"document_notes,omitempty"`
	DocumentVerifiedAt  string           `json:"document_verified_at,omitempty"`
	FeeStatus           FeeStatus        `json:"fee_status"`
	FeeAmount           float64          `json:"fee_amount,omitempty"`
	FeePaidAt           string           `json:"fee_paid_at,omitempty"`
	AdmissionStatus     AdmissionStatus  `json:"admission_status"`
	AdmissionDecisionAt string           `json:"admission_decision_at,omitempty"`
	AdmissionDecisionBy int              `json:"admission_decision_by,omitempty"`
	EnrollmentStatus    EnrollmentStatus `json:"enrollment_status"`
	EnrollmentDate      string           `json:"enrollment_date,omitempty"`
	OverallStatus       OverallStatus    `json:"overall_status"`
	CreatedAt           string           `json:"created_at"`
	UpdatedAt           string           `json:"updated_at"`
}

func (a Application) EntityID() int { return a.ID }

// ApplicationStats is the aggregate block from /applications/stats.
type ApplicationStats struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	InProgress     int     `json:"in_progress"`
	Cancelled      int     `json:"cancelled"`
	CompletionRate float64 `json:"completion_rate"`
}

// OwnerID returns the id of the user who owns the parent lead, or zero when
// the lead is not embedded. Applications inherit the lead's access rule.
func (a Application) OwnerID() int {
	if a.Lead != nil {
		return a.Lead.AssignedTo
	}
	return 0
}

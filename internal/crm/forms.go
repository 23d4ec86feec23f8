package crm

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in validation errors instead of Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// LoginRequest is the /auth/login request body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r LoginRequest) Validate() error { return validate.Struct(r) }

// LoginResponse is the /auth/login response envelope.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// LeadForm carries lead create/update fields. Zero-valued optional fields
// are omitted from the request body.
type LeadForm struct {
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone,omitempty" validate:"omitempty,min=5"`
	SourceID   int    `json:"source_id,omitempty"`
	StageID    int    `json:"stage_id,omitempty"`
	AssignedTo int    `json:"assigned_to,omitempty"`
}

func (f LeadForm) Validate() error { return validate.Struct(f) }

// TaskForm carries task create/update fields.
type TaskForm struct {
	Title       string       `json:"title" validate:"required"`
	Description string       `json:"description,omitempty"`
	TaskType    TaskType     `json:"task_type" validate:"required,oneof=follow_up call email meeting document_collection fee_reminder system"`
	DueDate     string       `json:"due_date,omitempty"`
	Priority    TaskPriority `json:"priority" validate:"required,oneof=low medium high urgent"`
	AssignedTo  int          `json:"assigned_to,omitempty"`
	LeadID      int          `json:"lead_id,omitempty"`
}

func (f TaskForm) Validate() error { return validate.Struct(f) }

// UserForm carries user create fields for admin user management.
type UserForm struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     Role   `json:"role" validate:"required,oneof=Admin 'Team Lead' Executive Consultant Publisher 'Digital Manager'"`
	IsActive *bool  `json:"is_active,omitempty"`
}

func (f UserForm) Validate() error { return validate.Struct(f) }

// StageForm carries stage create/update fields.
type StageForm struct {
	Name     string    `json:"name" validate:"required"`
	Type     StageType `json:"type" validate:"required,oneof=lead application"`
	Order    int       `json:"order,omitempty"`
	IsActive *bool     `json:"is_active,omitempty"`
}

func (f StageForm) Validate() error { return validate.Struct(f) }

// SourceForm carries source create/update fields.
type SourceForm struct {
	Name     string `json:"name" validate:"required"`
	Category string `json:"category" validate:"required"`
	IsActive *bool  `json:"is_active,omitempty"`
}

func (f SourceForm) Validate() error { return validate.Struct(f) }

// WorkflowForm carries workflow create/update fields. Workflows are stored
// and edited here but executed server-side only.
type WorkflowForm struct {
	Name              string           `json:"name" validate:"required"`
	Description       string           `json:"description,omitempty"`
	Trigger           string           `json:"trigger" validate:"required"`
	TriggerConditions map[string]any   `json:"trigger_conditions,omitempty"`
	Actions           []WorkflowAction `json:"actions_json" validate:"required,min=1"`
	Active            *bool            `json:"active,omitempty"`
}

func (f WorkflowForm) Validate() error { return validate.Struct(f) }

// ApplicationStatusUpdate carries the sub-status axes to change; nil-valued
// axes are left untouched by the server.
type ApplicationStatusUpdate struct {
	DocumentStatus   DocumentStatus   `json:"document_status,omitempty"`
	FeeStatus        FeeStatus        `json:"fee_status,omitempty"`
	AdmissionStatus  AdmissionStatus  `json:"admission_status,omitempty"`
	EnrollmentStatus EnrollmentStatus `json:"enrollment_status,omitempty"`
	OverallStatus    OverallStatus    `json:"overall_status,omitempty"`
	DocumentNotes    string           `json:"document_notes,omitempty"`
}

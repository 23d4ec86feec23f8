package stubapi

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"admitcrm/internal/crm"
	"admitcrm/internal/store"
)

// SeedPassword is the password every seeded account accepts.
const SeedPassword = "admit-demo"

type account struct {
	crm.User
	passwordHash []byte
}

// Dataset is the whole in-memory world behind the stub. All access goes
// through the mutex; handlers never hold references into the slices.
type Dataset struct {
	mu sync.Mutex

	accounts     []account
	leads        []crm.Lead
	stages       []crm.Stage
	sources      []crm.Source
	tasks        []crm.Task
	activities   []crm.Activity
	applications []crm.Application
	workflows    []crm.Workflow

	nextID int
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// NewDataset builds a seeded dataset: one account per role, a small lead
// pipeline and enough surrounding records to light up every dashboard panel.
func NewDataset() (*Dataset, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	d := &Dataset{nextID: 1000}
	ts := now()

	seedUsers := []crm.User{
		{ID: 1, Name: "Asha Verma", Email: "admin@admitcrm.test", Role: crm.RoleAdmin, IsActive: true},
		{ID: 2, Name: "Tomas Lind", Email: "lead@admitcrm.test", Role: crm.RoleTeamLead, IsActive: true},
		{ID: 3, Name: "Mina Osei", Email: "exec@admitcrm.test", Role: crm.RoleExecutive, IsActive: true},
		{ID: 4, Name: "Ravi Pillai", Email: "consultant@admitcrm.test", Role: crm.RoleConsultant, IsActive: true},
		{ID: 5, Name: "Lena Brandt", Email: "publisher@admitcrm.test", Role: crm.RolePublisher, IsActive: true},
		{ID: 6, Name: "Dara Chen", Email: "digital@admitcrm.test", Role: crm.RoleDigitalManager, IsActive: true},
	}
	for _, u := range seedUsers {
		u.CreatedAt = ts
		d.accounts = append(d.accounts, account{User: u, passwordHash: hash})
	}

	d.stages = []crm.Stage{
		{ID: 1, Name: "Inquiry", Type: crm.StageLead, Order: 1, IsActive: true, CreatedAt: ts, UpdatedAt: ts},
		{ID: 2, Name: "Counselling", Type: crm.StageLead, Order: 2, IsActive: true, CreatedAt: ts, UpdatedAt: ts},
		{ID: 3, Name: "Application", Type: crm.StageLead, Order: 3, IsActive: true, CreatedAt: ts, UpdatedAt: ts},
		{ID: 4, Name: "Document Review", Type: crm.StageApplication, Order: 4, IsActive: true, CreatedAt: ts, UpdatedAt: ts},
		{ID: 5, Name: "Enrollment", Type: crm.StageApplication, Order: 5, IsActive: true, CreatedAt: ts, UpdatedAt: ts},
	}
	d.sources = []crm.Source{
		{ID: 1, Name: "Website", Category: "digital", IsActive: true, CreatedAt: ts, UpdatedAt: ts},
		{ID: 2, Name: "Referral", Category: "organic", IsActive: true, CreatedAt: ts, UpdatedAt: ts},
		{ID: 3, Name: "Education Fair", Category: "event", IsActive: true, CreatedAt: ts, UpdatedAt: ts},
	}

	names := []struct {
		first, last string
		stage       int
		assigned    int
		status      crm.LeadStatus
	}{
		{"Noor", "Haddad", 1, 3, crm.LeadActive},
		{"Jonas", "Berg", 2, 3, crm.LeadActive},
		{"Priya", "Nair", 2, 4, crm.LeadActive},
		{"Samuel", "Okafor", 3, 3, crm.LeadConverted},
		{"Ines", "Costa", 1, 4, crm.LeadDormant},
		{"Felix", "Marchand", 3, 3, crm.LeadLost},
	}
	for i, n := range names {
		lead := crm.Lead{
			ID:         i + 1,
			FirstName:  n.first,
			LastName:   n.last,
			FullName:   n.first + " " + n.last,
			Email:      strings.ToLower(n.first) + "@example.com",
			SourceID:   i%len(d.sources) + 1,
			StageID:    n.stage,
			AssignedTo: n.assigned,
			Status:     n.status,
			CreatedAt:  ts,
			UpdatedAt:  ts,
		}
		if n.status == crm.LeadConverted {
			lead.HasApplication = true
		}
		d.leads = append(d.leads, lead)
	}

	d.applications = []crm.Application{{
		ID:               1,
		LeadID:           4,
		DocumentStatus:   crm.DocumentVerified,
		FeeStatus:        crm.FeePending,
		AdmissionStatus:  crm.AdmissionPending,
		EnrollmentStatus: crm.EnrollmentPending,
		OverallStatus:    crm.OverallInProgress,
		CreatedAt:        ts,
		UpdatedAt:        ts,
	}}

	d.tasks = []crm.Task{
		{ID: 1, Title: "Call Noor about documents", TaskType: crm.TaskCall, Status: crm.TaskPending,
			Priority: crm.PriorityHigh, AssignedTo: 3, LeadID: 1, CreatedBy: 2, CreatedAt: ts, UpdatedAt: ts},
		{ID: 2, Title: "Send fee reminder to Samuel", TaskType: crm.TaskFeeReminder, Status: crm.TaskPending,
			Priority: crm.PriorityMedium, AssignedTo: 3, LeadID: 4, CreatedBy: 2, IsOverdue: true, CreatedAt: ts, UpdatedAt: ts},
		{ID: 3, Title: "Archive dormant inquiries", TaskType: crm.TaskSystem, Status: crm.TaskCompleted,
			Priority: crm.PriorityLow, AssignedTo: 2, CreatedBy: 1, CompletedAt: ts, CompletedBy: 2, CreatedAt: ts, UpdatedAt: ts},
	}

	d.activities = []crm.Activity{
		{ID: 1, Type: crm.ActivityLeadCreated, Description: "Lead created", LeadID: 1, UserID: 2, CreatedAt: ts},
		{ID: 2, Type: crm.ActivityStageChange, Description: "Moved to Counselling", LeadID: 2, UserID: 3,
			Metadata: map[string]any{"from": "Inquiry", "to": "Counselling"}, CreatedAt: ts},
		{ID: 3, Type: crm.ActivityApplicationCreated, Description: "Application created", LeadID: 4, UserID: 3, CreatedAt: ts},
	}

	d.workflows = []crm.Workflow{{
		ID:        1,
		Name:      "Welcome email",
		Trigger:   "lead_created",
		Actions:   []crm.WorkflowAction{{Type: "send_email", Params: map[string]any{"template": "welcome"}}},
		Active:    true,
		CreatedAt: ts,
		UpdatedAt: ts,
	}}

	return d, nil
}

func (d *Dataset) newID() int {
	d.nextID++
	return d.nextID
}

// Authenticate checks credentials against the seeded accounts.
func (d *Dataset) Authenticate(email, password string) (crm.User, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, acct := range d.accounts {
		if strings.EqualFold(acct.Email, email) && acct.IsActive {
			if bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(password)) == nil {
				return acct.User, true
			}
			return crm.User{}, false
		}
	}
	return crm.User{}, false
}

func (d *Dataset) UserByID(id int) (crm.User, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, acct := range d.accounts {
		if acct.ID == id {
			return acct.User, true
		}
	}
	return crm.User{}, false
}

func (d *Dataset) Users(role crm.Role, isActive *bool) []crm.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []crm.User{}
	for _, acct := range d.accounts {
		if role != "" && acct.Role != role {
			continue
		}
		if isActive != nil && acct.IsActive != *isActive {
			continue
		}
		out = append(out, acct.User)
	}
	return out
}

func (d *Dataset) Executives() []crm.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []crm.User{}
	for _, acct := range d.accounts {
		if acct.IsActive && (acct.Role == crm.RoleExecutive || acct.Role == crm.RoleConsultant) {
			out = append(out, acct.User)
		}
	}
	return out
}

func (d *Dataset) CreateUser(form crm.UserForm) (crm.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return crm.User{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, acct := range d.accounts {
		if strings.EqualFold(acct.Email, form.Email) {
			return crm.User{}, fmt.Errorf("email %s already registered", form.Email)
		}
	}
	user := crm.User{
		ID:        d.newID(),
		Name:      form.Name,
		Email:     form.Email,
		Role:      form.Role,
		IsActive:  form.IsActive == nil || *form.IsActive,
		CreatedAt: now(),
	}
	d.accounts = append(d.accounts, account{User: user, passwordHash: hash})
	return user, nil
}

// UserPatch mirrors the update body accepted by the user endpoint.
type UserPatch struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Role     crm.Role `json:"role"`
	IsActive *bool    `json:"is_active"`
}

func (d *Dataset) UpdateUser(id int, patch UserPatch) (crm.User, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.accounts {
		if d.accounts[i].ID != id {
			continue
		}
		if patch.Name != "" {
			d.accounts[i].Name = patch.Name
		}
		if patch.Email != "" {
			d.accounts[i].Email = patch.Email
		}
		if patch.Role != "" {
			d.accounts[i].Role = patch.Role
		}
		if patch.IsActive != nil {
			d.accounts[i].IsActive = *patch.IsActive
		}
		return d.accounts[i].User, true
	}
	return crm.User{}, false
}

func (d *Dataset) DeleteUser(id int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.accounts {
		if d.accounts[i].ID == id {
			d.accounts = slices.Delete(d.accounts, i, i+1)
			return true
		}
	}
	return false
}

// LeadQuery mirrors the lead list filters.
type LeadQuery struct {
	Search     string
	StageID    int
	SourceID   int
	AssignedTo int
	Status     crm.LeadStatus
	Page       int
	PerPage    int
}

func (d *Dataset) Leads(q LeadQuery) store.Page[crm.Lead] {
	d.mu.Lock()
	defer d.mu.Unlock()
	matched := []crm.Lead{}
	for _, lead := range d.leads {
		if q.Search != "" && !strings.Contains(strings.ToLower(lead.FullName+" "+lead.Email), strings.ToLower(q.Search)) {
			continue
		}
		if q.StageID != 0 && lead.StageID != q.StageID {
			continue
		}
		if q.SourceID != 0 && lead.SourceID != q.SourceID {
			continue
		}
		if q.AssignedTo != 0 && lead.AssignedTo != q.AssignedTo {
			continue
		}
		if q.Status != "" && lead.Status != q.Status {
			continue
		}
		matched = append(matched, d.decorateLead(lead))
	}
	return paginate(matched, q.Page, q.PerPage)
}

// decorateLead embeds the stage, source and assignee the way the real API
// does. Caller holds the lock.
func (d *Dataset) decorateLead(lead crm.Lead) crm.Lead {
	for i := range d.stages {
		if d.stages[i].ID == lead.StageID {
			stage := d.stages[i]
			lead.Stage = &stage
		}
	}
	for i := range d.sources {
		if d.sources[i].ID == lead.SourceID {
			source := d.sources[i]
			lead.Source = &source
		}
	}
	for i := range d.accounts {
		if d.accounts[i].ID == lead.AssignedTo {
			user := d.accounts[i].User
			lead.AssignedUser = &user
		}
	}
	return lead
}

func (d *Dataset) Lead(id int) (crm.Lead, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, lead := range d.leads {
		if lead.ID == id {
			return d.decorateLead(lead), true
		}
	}
	return crm.Lead{}, false
}

func (d *Dataset) CreateLead(form crm.LeadForm) crm.Lead {
	d.mu.Lock()
	defer d.mu.Unlock()
	ts := now()
	lead := crm.Lead{
		ID:         d.newID(),
		FirstName:  form.FirstName,
		LastName:   form.LastName,
		FullName:   form.FirstName + " " + form.LastName,
		Email:      form.Email,
		Phone:      form.Phone,
		SourceID:   form.SourceID,
		StageID:    form.StageID,
		AssignedTo: form.AssignedTo,
		Status:     crm.LeadActive,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	if lead.StageID == 0 && len(d.stages) > 0 {
		lead.StageID = d.stages[0].ID
	}
	d.leads = append(d.leads, lead)
	d.appendActivity(crm.Activity{
		Type: crm.ActivityLeadCreated, Description: "Lead created", LeadID: lead.ID,
	})
	return d.decorateLead(lead)
}

func (d *Dataset) UpdateLead(id int, form crm.LeadForm) (crm.Lead, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.leads {
		if d.leads[i].ID != id {
			continue
		}
		lead := &d.leads[i]
		lead.FirstName = form.FirstName
		lead.LastName = form.LastName
		lead.FullName = form.FirstName + " " + form.LastName
		lead.Email = form.Email
		lead.Phone = form.Phone
		if form.SourceID != 0 {
			lead.SourceID = form.SourceID
		}
		if form.StageID != 0 {
			lead.StageID = form.StageID
		}
		if form.AssignedTo != 0 {
			lead.AssignedTo = form.AssignedTo
		}
		lead.UpdatedAt = now()
		d.appendActivity(crm.Activity{
			Type: crm.ActivityLeadUpdated, Description: "Lead updated", LeadID: id,
		})
		return d.decorateLead(*lead), true
	}
	return crm.Lead{}, false
}

func (d *Dataset) DeleteLead(id int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.leads {
		if d.leads[i].ID == id {
			d.leads = slices.Delete(d.leads, i, i+1)
			return true
		}
	}
	return false
}

func (d *Dataset) ChangeLeadStage(id, stageID int) (crm.Lead, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.leads {
		if d.leads[i].ID != id {
			continue
		}
		d.leads[i].StageID = stageID
		d.leads[i].UpdatedAt = now()
		d.appendActivity(crm.Activity{
			Type: crm.ActivityStageChange, Description: "Stage changed", LeadID: id,
			Metadata: map[string]any{"stage_id": stageID},
		})
		return d.decorateLead(d.leads[i]), true
	}
	return crm.Lead{}, false
}

// ConvertLead marks the lead converted and opens an application for it.
func (d *Dataset) ConvertLead(id int) (crm.Application, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.leads {
		if d.leads[i].ID != id {
			continue
		}
		if d.leads[i].HasApplication {
			return crm.Application{}, fmt.Errorf("lead %d already has an application", id)
		}
		d.leads[i].Status = crm.LeadConverted
		d.leads[i].HasApplication = true
		d.leads[i].UpdatedAt = now()

		ts := now()
		app := crm.Application{
			ID:               d.newID(),
			LeadID:           id,
			DocumentStatus:   crm.DocumentPending,
			FeeStatus:        crm.FeePending,
			AdmissionStatus:  crm.AdmissionPending,
			EnrollmentStatus: crm.EnrollmentPending,
			OverallStatus:    crm.OverallInProgress,
			CreatedAt:        ts,
			UpdatedAt:        ts,
		}
		d.applications = append(d.applications, app)
		d.appendActivity(crm.Activity{
			Type: crm.ActivityApplicationCreated, Description: "Application created", LeadID: id,
		})
		return app, nil
	}
	return crm.Application{}, fmt.Errorf("lead %d not found", id)
}

func (d *Dataset) LeadKPIs() crm.LeadKPIs {
	d.mu.Lock()
	defer d.mu.Unlock()
	kpis := crm.LeadKPIs{TotalLeads: len(d.leads)}
	for _, lead := range d.leads {
		switch lead.Status {
		case crm.LeadActive:
			kpis.ActiveLeads++
		case crm.LeadConverted:
			kpis.ConvertedLeads++
		}
	}
	if kpis.TotalLeads > 0 {
		kpis.ConversionRate = float64(kpis.ConvertedLeads) / float64(kpis.TotalLeads) * 100
	}
	return kpis
}

func (d *Dataset) StageDistribution() []crm.StageCount {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []crm.StageCount{}
	for _, stage := range d.stages {
		count := 0
		for _, lead := range d.leads {
			if lead.StageID == stage.ID {
				count++
			}
		}
		out = append(out, crm.StageCount{StageID: stage.ID, StageName: stage.Name, Count: count})
	}
	return out
}

func (d *Dataset) SourceDistribution() []crm.SourceCount {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []crm.SourceCount{}
	for _, source := range d.sources {
		count := 0
		for _, lead := range d.leads {
			if lead.SourceID == source.ID {
				count++
			}
		}
		out = append(out, crm.SourceCount{
			SourceID: source.ID, SourceName: source.Name, Category: source.Category, Count: count,
		})
	}
	return out
}

// appendActivity assigns an id and prepends; caller holds the lock.
func (d *Dataset) appendActivity(a crm.Activity) crm.Activity {
	a.ID = d.newID()
	a.CreatedAt = now()
	d.activities = append([]crm.Activity{a}, d.activities...)
	return a
}

func paginate[T any](items []T, page, perPage int) store.Page[T] {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	total := len(items)
	pages := (total + perPage - 1) / perPage
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return store.Page[T]{
		Items:       slices.Clone(items[start:end]),
		Total:       total,
		Pages:       pages,
		CurrentPage: page,
		PerPage:     perPage,
	}
}

package stubapi

import (
	"fmt"
	"slices"

	"admitcrm/internal/crm"
	"admitcrm/internal/store"
)

// TaskQuery mirrors the task list filters.
type TaskQuery struct {
	Status     crm.TaskStatus
	Priority   crm.TaskPriority
	AssignedTo int
	LeadID     int
	Overdue    bool
	Page       int
	PerPage    int
}

func (d *Dataset) Tasks(q TaskQuery) store.Page[crm.Task] {
	d.mu.Lock()
	defer d.mu.Unlock()
	matched := []crm.Task{}
	for _, task := range d.tasks {
		if q.Status != "" && task.Status != q.Status {
			continue
		}
		if q.Priority != "" && task.Priority != q.Priority {
			continue
		}
		if q.AssignedTo != 0 && task.AssignedTo != q.AssignedTo {
			continue
		}
		if q.LeadID != 0 && task.LeadID != q.LeadID {
			continue
		}
		if q.Overdue && !task.IsOverdue {
			continue
		}
		matched = append(matched, task)
	}
	return paginate(matched, q.Page, q.PerPage)
}

func (d *Dataset) Task(id int) (crm.Task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, task := range d.tasks {
		if task.ID == id {
			return task, true
		}
	}
	return crm.Task{}, false
}

func (d *Dataset) CreateTask(form crm.TaskForm, createdBy int) crm.Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	ts := now()
	task := crm.Task{
		ID:          d.newID(),
		Title:       form.Title,
		Description: form.Description,
		TaskType:    form.TaskType,
		DueDate:     form.DueDate,
		Status:      crm.TaskPending,
		Priority:    form.Priority,
		AssignedTo:  form.AssignedTo,
		LeadID:      form.LeadID,
		CreatedBy:   createdBy,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	d.tasks = append(d.tasks, task)
	if task.LeadID != 0 {
		d.appendActivity(crm.Activity{
			Type: crm.ActivityTaskCreated, Description: "Task created: " + task.Title,
			LeadID: task.LeadID, UserID: createdBy,
		})
	}
	return task
}

func (d *Dataset) UpdateTask(id int, form crm.TaskForm) (crm.Task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.tasks {
		if d.tasks[i].ID != id {
			continue
		}
		task := &d.tasks[i]
		task.Title = form.Title
		task.Description = form.Description
		task.TaskType = form.TaskType
		task.DueDate = form.DueDate
		task.Priority = form.Priority
		if form.AssignedTo != 0 {
			task.AssignedTo = form.AssignedTo
		}
		task.UpdatedAt = now()
		return *task, true
	}
	return crm.Task{}, false
}

func (d *Dataset) CompleteTask(id, completedBy int, notes string) (crm.Task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.tasks {
		if d.tasks[i].ID != id {
			continue
		}
		task := &d.tasks[i]
		task.Status = crm.TaskCompleted
		task.CompletedAt = now()
		task.CompletedBy = completedBy
		task.CompletionNotes = notes
		task.IsOverdue = false
		task.UpdatedAt = now()
		if task.LeadID != 0 {
			d.appendActivity(crm.Activity{
				Type: crm.ActivityTaskCompleted, Description: "Task completed: " + task.Title,
				LeadID: task.LeadID, UserID: completedBy,
			})
		}
		return *task, true
	}
	return crm.Task{}, false
}

func (d *Dataset) DeleteTask(id int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.tasks {
		if d.tasks[i].ID == id {
			d.tasks = slices.Delete(d.tasks, i, i+1)
			return true
		}
	}
	return false
}

// PendingTasks returns the open tasks assigned to the given user.
func (d *Dataset) PendingTasks(userID int) []crm.Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []crm.Task{}
	for _, task := range d.tasks {
		if task.AssignedTo == userID && (task.Status == crm.TaskPending || task.Status == crm.TaskInProgress) {
			out = append(out, task)
		}
	}
	return out
}

func (d *Dataset) TaskStats() crm.TaskStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	stats := crm.TaskStats{Total: len(d.tasks)}
	for _, task := range d.tasks {
		switch task.Status {
		case crm.TaskPending, crm.TaskInProgress:
			stats.Pending++
		case crm.TaskCompleted:
			stats.Completed++
		}
		if task.IsOverdue {
			stats.Overdue++
		}
	}
	return stats
}

// ActivityQuery mirrors the activity list filters.
type ActivityQuery struct {
	LeadID  int
	Type    crm.ActivityType
	Page    int
	PerPage int
}

func (d *Dataset) Activities(q ActivityQuery) store.Page[crm.Activity] {
	d.mu.Lock()
	defer d.mu.Unlock()
	matched := []crm.Activity{}
	for _, a := range d.activities {
		if q.LeadID != 0 && a.LeadID != q.LeadID {
			continue
		}
		if q.Type != "" && a.Type != q.Type {
			continue
		}
		matched = append(matched, a)
	}
	if q.PerPage == 0 {
		q.PerPage = 50
	}
	return paginate(matched, q.Page, q.PerPage)
}

func (d *Dataset) LeadActivities(leadID, limit int) []crm.Activity {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []crm.Activity{}
	for _, a := range d.activities {
		if a.LeadID == leadID {
			out = append(out, a)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out
}

func (d *Dataset) RecentActivities(limit int) []crm.Activity {
	d.mu.Lock()
	defer d.mu.Unlock()
	if limit <= 0 || limit > len(d.activities) {
		limit = len(d.activities)
	}
	return slices.Clone(d.activities[:limit])
}

func (d *Dataset) CreateActivity(a crm.Activity) crm.Activity {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.appendActivity(a)
}

// ApplicationQuery mirrors the application list filters.
type ApplicationQuery struct {
	DocumentStatus   crm.DocumentStatus
	FeeStatus        crm.FeeStatus
	AdmissionStatus  crm.AdmissionStatus
	EnrollmentStatus crm.EnrollmentStatus
	OverallStatus    crm.OverallStatus
	Page             int
	PerPage          int
}

func (d *Dataset) Applications(q ApplicationQuery) store.Page[crm.Application] {
	d.mu.Lock()
	defer d.mu.Unlock()
	matched := []crm.Application{}
	for _, app := range d.applications {
		if q.DocumentStatus != "" && app.DocumentStatus != q.DocumentStatus {
			continue
		}
		if q.FeeStatus != "" && app.FeeStatus != q.FeeStatus {
			continue
		}
		if q.AdmissionStatus != "" && app.AdmissionStatus != q.AdmissionStatus {
			continue
		}
		if q.EnrollmentStatus != "" && app.EnrollmentStatus != q.EnrollmentStatus {
			continue
		}
		if q.OverallStatus != "" && app.OverallStatus != q.OverallStatus {
			continue
		}
		matched = append(matched, d.decorateApplication(app))
	}
	return paginate(matched, q.Page, q.PerPage)
}

// decorateApplication embeds the parent lead; caller holds the lock.
func (d *Dataset) decorateApplication(app crm.Application) crm.Application {
	for _, lead := range d.leads {
		if lead.ID == app.LeadID {
			decorated := d.decorateLead(lead)
			app.Lead = &decorated
		}
	}
	return app
}

func (d *Dataset) Application(id int) (crm.Application, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, app := range d.applications {
		if app.ID == id {
			return d.decorateApplication(app), true
		}
	}
	return crm.Application{}, false
}

// UpdateApplicationStatus applies the requested axes and re-derives the
// overall status: every axis settled means completed, any cancellation wins.
func (d *Dataset) UpdateApplicationStatus(id int, update crm.ApplicationStatusUpdate) (crm.Application, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.applications {
		if d.applications[i].ID != id {
			continue
		}
		app := &d.applications[i]
		if update.DocumentStatus != "" {
			app.DocumentStatus = update.DocumentStatus
			if update.DocumentStatus == crm.DocumentVerified {
				app.DocumentVerifiedAt = now()
			}
		}
		if update.DocumentNotes != "" {
			app.DocumentNotes = update.DocumentNotes
		}
		if update.FeeStatus != "" {
			app.FeeStatus = update.FeeStatus
			if update.FeeStatus == crm.FeePaid {
				app.FeePaidAt = now()
			}
		}
		if update.AdmissionStatus != "" {
			app.AdmissionStatus = update.AdmissionStatus
			app.AdmissionDecisionAt = now()
		}
		if update.EnrollmentStatus != "" {
			app.EnrollmentStatus = update.EnrollmentStatus
		}
		app.OverallStatus = deriveOverall(*app)
		app.UpdatedAt = now()
		return d.decorateApplication(*app), true
	}
	return crm.Application{}, false
}

func deriveOverall(app crm.Application) crm.OverallStatus {
	if app.EnrollmentStatus == crm.EnrollmentCancelled || app.AdmissionStatus == crm.AdmissionRejected {
		return crm.OverallCancelled
	}
	settled := app.DocumentStatus == crm.DocumentVerified &&
		(app.FeeStatus == crm.FeePaid || app.FeeStatus == crm.FeeWaived) &&
		app.AdmissionStatus == crm.AdmissionApproved &&
		app.EnrollmentStatus == crm.EnrollmentConfirmed
	if settled {
		return crm.OverallCompleted
	}
	if app.EnrollmentStatus == crm.EnrollmentDeferred {
		return crm.OverallOnHold
	}
	return crm.OverallInProgress
}

func (d *Dataset) DeleteApplication(id int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.applications {
		if d.applications[i].ID == id {
			d.applications = slices.Delete(d.applications, i, i+1)
			return true
		}
	}
	return false
}

func (d *Dataset) ApplicationStats() crm.ApplicationStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	stats := crm.ApplicationStats{Total: len(d.applications)}
	for _, app := range d.applications {
		switch app.OverallStatus {
		case crm.OverallCompleted:
			stats.Completed++
		case crm.OverallCancelled:
			stats.Cancelled++
		default:
			stats.InProgress++
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.Total) * 100
	}
	return stats
}

func (d *Dataset) Stages() []crm.Stage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.stages)
}

func (d *Dataset) CreateStage(form crm.StageForm) crm.Stage {
	d.mu.Lock()
	defer d.mu.Unlock()
	ts := now()
	stage := crm.Stage{
		ID:        d.newID(),
		Name:      form.Name,
		Type:      form.Type,
		Order:     form.Order,
		IsActive:  form.IsActive == nil || *form.IsActive,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	d.stages = append(d.stages, stage)
	return stage
}

func (d *Dataset) UpdateStage(id int, form crm.StageForm) (crm.Stage, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.stages {
		if d.stages[i].ID != id {
			continue
		}
		stage := &d.stages[i]
		stage.Name = form.Name
		stage.Type = form.Type
		if form.Order != 0 {
			stage.Order = form.Order
		}
		if form.IsActive != nil {
			stage.IsActive = *form.IsActive
		}
		stage.UpdatedAt = now()
		return *stage, true
	}
	return crm.Stage{}, false
}

// DeleteStage refuses to drop a stage still referenced by a lead.
func (d *Dataset) DeleteStage(id int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, lead := range d.leads {
		if lead.StageID == id {
			return fmt.Errorf("stage %d still has leads", id)
		}
	}
	for i := range d.stages {
		if d.stages[i].ID == id {
			d.stages = slices.Delete(d.stages, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("stage %d not found", id)
}

func (d *Dataset) Sources() []crm.Source {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.sources)
}

func (d *Dataset) CreateSource(form crm.SourceForm) crm.Source {
	d.mu.Lock()
	defer d.mu.Unlock()
	ts := now()
	source := crm.Source{
		ID:        d.newID(),
		Name:      form.Name,
		Category:  form.Category,
		IsActive:  form.IsActive == nil || *form.IsActive,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	d.sources = append(d.sources, source)
	return source
}

func (d *Dataset) UpdateSource(id int, form crm.SourceForm) (crm.Source, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.sources {
		if d.sources[i].ID != id {
			continue
		}
		source := &d.sources[i]
		source.Name = form.Name
		source.Category = form.Category
		if form.IsActive != nil {
			source.IsActive = *form.IsActive
		}
		source.UpdatedAt = now()
		return *source, true
	}
	return crm.Source{}, false
}

func (d *Dataset) DeleteSource(id int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.sources {
		if d.sources[i].ID == id {
			d.sources = slices.Delete(d.sources, i, i+1)
			return true
		}
	}
	return false
}

func (d *Dataset) Workflows() []crm.Workflow {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.workflows)
}

func (d *Dataset) CreateWorkflow(form crm.WorkflowForm) crm.Workflow {
	d.mu.Lock()
	defer d.mu.Unlock()
	ts := now()
	wf := crm.Workflow{
		ID:                d.newID(),
		Name:              form.Name,
		Description:       form.Description,
		Trigger:           form.Trigger,
		TriggerConditions: form.TriggerConditions,
		Actions:           form.Actions,
		Active:            form.Active == nil || *form.Active,
		CreatedAt:         ts,
		UpdatedAt:         ts,
	}
	d.workflows = append(d.workflows, wf)
	return wf
}

func (d *Dataset) UpdateWorkflow(id int, form crm.WorkflowForm) (crm.Workflow, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.workflows {
		if d.workflows[i].ID != id {
			continue
		}
		wf := &d.workflows[i]
		wf.Name = form.Name
		wf.Description = form.Description
		wf.Trigger = form.Trigger
		wf.TriggerConditions = form.TriggerConditions
		wf.Actions = form.Actions
		if form.Active != nil {
			wf.Active = *form.Active
		}
		wf.UpdatedAt = now()
		return *wf, true
	}
	return crm.Workflow{}, false
}

func (d *Dataset) DeleteWorkflow(id int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.workflows {
		if d.workflows[i].ID == id {
			d.workflows = slices.Delete(d.workflows, i, i+1)
			return true
		}
	}
	return false
}

package tasks

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"admitcrm/internal/crm"
	"admitcrm/internal/gateway"
	"admitcrm/internal/notify"
	"admitcrm/internal/store"
	"admitcrm/pkg/apierror"
)

// Filters narrows the task list query.
type Filters struct {
	Status     crm.TaskStatus
	Priority   crm.TaskPriority
	AssignedTo int
	LeadID     int
	Overdue    bool
	Page       int
	PerPage    int
}

func (f Filters) values() url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Priority != "" {
		q.Set("priority", string(f.Priority))
	}
	if f.AssignedTo != 0 {
		q.Set("assigned_to", strconv.Itoa(f.AssignedTo))
	}
	if f.LeadID != 0 {
		q.Set("lead_id", strconv.Itoa(f.LeadID))
	}
	if f.Overdue {
		q.Set("overdue", "true")
	}
	if f.Page != 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PerPage != 0 {
		q.Set("per_page", strconv.Itoa(f.PerPage))
	}
	return q
}

type Service struct {
	gw     *gateway.Client
	store  *Store
	notify notify.Notifier
}

func NewService(gw *gateway.Client, st *Store, n notify.Notifier) *Service {
	if n == nil {
		n = notify.Discard{}
	}
	return &Service{gw: gw, store: st, notify: n}
}

func (s *Service) Store() *Store { return s.store }

func (s *Service) List(ctx context.Context, f Filters) (store.Page[crm.Task], error) {
	s.store.Dispatch(FetchListStart{})
	var page store.Page[crm.Task]
	if err := s.gw.Get(ctx, "/tasks", f.values(), &page); err != nil {
		msg := apierror.Message(err, "Failed to fetch tasks")
		s.store.Dispatch(FetchListFailure{Message: msg})
		s.notify.Error(msg)
		return store.Page[crm.Task]{}, err
	}
	s.store.Dispatch(FetchListSuccess{Page: page})
	return page, nil
}

func (s *Service) Get(ctx context.Context, id int) (*crm.Task, error) {
	var out struct {
		Task crm.Task `json:"task"`
	}
	if err := s.gw.Get(ctx, fmt.Sprintf("/tasks/%d", id), nil, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to fetch task"))
		return nil, err
	}
	s.store.Dispatch(Select{Task: &out.Task})
	return &out.Task, nil
}

func (s *Service) Create(ctx context.Context, form crm.TaskForm) (*crm.Task, error) {
	if err := form.Validate(); err != nil {
		s.notify.Error(err.Error())
		return nil, err
	}
	var out struct {
		Task crm.Task `json:"task"`
	}
	if err := s.gw.Post(ctx, "/tasks", form, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to create task"))
		return nil, err
	}
	s.notify.Success("Task created successfully")
	return &out.Task, nil
}

func (s *Service) Update(ctx context.Context, id int, form crm.TaskForm) (*crm.Task, error) {
	var out struct {
		Task crm.Task `json:"task"`
	}
	if err := s.gw.Put(ctx, fmt.Sprintf("/tasks/%d", id), form, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to update task"))
		return nil, err
	}
	s.store.Dispatch(Update{Task: out.Task})
	s.notify.Success("Task updated successfully")
	return &out.Task, nil
}

// CompleteTask marks a task completed with optional notes. The completed
// task leaves the pending sub-list atomically with the collection update.
func (s *Service) CompleteTask(ctx context.Context, id int, notes string) (*crm.Task, error) {
	body := map[string]string{}
	if notes != "" {
		body["notes"] = notes
	}
	var out struct {
		Task crm.Task `json:"task"`
	}
	if err := s.gw.Patch(ctx, fmt.Sprintf("/tasks/%d/complete", id), body, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to complete task"))
		return nil, err
	}
	s.store.Dispatch(Complete{Task: out.Task})
	s.notify.Success("Task completed successfully")
	return &out.Task, nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	if err := s.gw.Delete(ctx, fmt.Sprintf("/tasks/%d", id), nil); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to delete task"))
		return err
	}
	s.store.Dispatch(Delete{ID: id})
	s.notify.Success("Task deleted successfully")
	return nil
}

// Pending fetches the caller's open tasks for the dashboard widget.
func (s *Service) Pending(ctx context.Context) ([]crm.Task, error) {
	var out struct {
		Tasks []crm.Task `json:"tasks"`
	}
	if err := s.gw.Get(ctx, "/tasks/pending", nil, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to fetch pending tasks"))
		return nil, err
	}
	s.store.Dispatch(FetchPendingSuccess{Tasks: out.Tasks})
	return out.Tasks, nil
}

func (s *Service) Stats(ctx context.Context) (*crm.TaskStats, error) {
	var out crm.TaskStats
	if err := s.gw.Get(ctx, "/tasks/stats", nil, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to fetch task stats"))
		return nil, err
	}
	s.store.Dispatch(SetStats{Stats: out})
	return &out, nil
}

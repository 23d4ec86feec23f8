// Package admin manages the reference tables (stages, sources), workflow
// configuration and the system-wide stats rollup. All endpoints here are
// admin-gated server-side; the client additionally hides them behind the
// access checker.
package admin

import (
	"context"
	"fmt"

	"admitcrm/internal/crm"
	"admitcrm/internal/gateway"
	"admitcrm/internal/notify"
	"admitcrm/pkg/apierror"
)

type Service struct {
	gw     *gateway.Client
	notify notify.Notifier
}

func NewService(gw *gateway.Client, n notify.Notifier) *Service {
	if n == nil {
		n = notify.Discard{}
	}
	return &Service{gw: gw, notify: n}
}

func (s *Service) Stages(ctx context.Context) ([]crm.Stage, error) {
	var out struct {
		Stages []crm.Stage `json:"stages"`
	}
	if err := s.gw.Get(ctx, "/admin/stages", nil, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to fetch stages"))
		return nil, err
	}
	return out.Stages, nil
}

func (s *Service) CreateStage(ctx context.Context, form crm.StageForm) (*crm.Stage, error) {
	if err := form.Validate(); err != nil {
		s.notify.Error(err.Error())
		return nil, err
	}
	var out struct {
		Stage crm.Stage `json:"stage"`
	}
	if err := s.gw.Post(ctx, "/admin/stages", form, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to create stage"))
		return nil, err
	}
	s.notify.Success("Stage created successfully")
	return &out.Stage, nil
}

func (s *Service) UpdateStage(ctx context.Context, id int, form crm.StageForm) (*crm.Stage, error) {
	var out struct {
		Stage crm.Stage `json:"stage"`
	}
	if err := s.gw.Put(ctx, fmt.Sprintf("/admin/stages/%d", id), form, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to update stage"))
		return nil, err
	}
	s.notify.Success("Stage updated successfully")
	return &out.Stage, nil
}

func (s *Service) DeleteStage(ctx context.Context, id int) error {
	if err := s.gw.Delete(ctx, fmt.Sprintf("/admin/stages/%d", id), nil); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to delete stage"))
		return err
	}
	s.notify.Success("Stage deleted successfully")
	return nil
}

func (s *Service) Sources(ctx context.Context) ([]crm.Source, error) {
	var out struct {
		Sources []crm.Source `json:"sources"`
	}
	if err := s.gw.Get(ctx, "/admin/sources", nil, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to fetch sources"))
		return nil, err
	}
	return out.Sources, nil
}

func (s *Service) CreateSource(ctx context.Context, form crm.SourceForm) (*crm.Source, error) {
	if err := form.Validate(); err != nil {
		s.notify.Error(err.Error())
		return nil, err
	}
	var out struct {
		Source crm.Source `json:"source"`
	}
	if err := s.gw.Post(ctx, "/admin/sources", form, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to create source"))
		return nil, err
	}
	s.notify.Success("Source created successfully")
	return &out.Source, nil
}

func (s *Service) UpdateSource(ctx context.Context, id int, form crm.SourceForm) (*crm.Source, error) {
	var out struct {
		Source crm.Source `json:"source"`
	}
	if err := s.gw.Put(ctx, fmt.Sprintf("/admin/sources/%d", id), form, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to update source"))
		return nil, err
	}
	s.notify.Success("Source updated successfully")
	return &out.Source, nil
}

func (s *Service) DeleteSource(ctx context.Context, id int) error {
	if err := s.gw.Delete(ctx, fmt.Sprintf("/admin/sources/%d", id), nil); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to delete source"))
		return err
	}
	s.notify.Success("Source deleted successfully")
	return nil
}

// Workflows lists the automation configuration. Workflows never execute on
// the client.
func (s *Service) Workflows(ctx context.Context) ([]crm.Workflow, error) {
	var out struct {
		Workflows []crm.Workflow `json:"workflows"`
	}
	if err := s.gw.Get(ctx, "/admin/workflows", nil, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to fetch workflows"))
		return nil, err
	}
	return out.Workflows, nil
}

func (s *Service) CreateWorkflow(ctx context.Context, form crm.WorkflowForm) (*crm.Workflow, error) {
	if err := form.Validate(); err != nil {
		s.notify.Error(err.Error())
		return nil, err
	}
	var out struct {
		Workflow crm.Workflow `json:"workflow"`
	}
	if err := s.gw.Post(ctx, "/admin/workflows", form, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to create workflow"))
		return nil, err
	}
	s.notify.Success("Workflow created successfully")
	return &out.Workflow, nil
}

func (s *Service) UpdateWorkflow(ctx context.Context, id int, form crm.WorkflowForm) (*crm.Workflow, error) {
	var out struct {
		Workflow crm.Workflow `json:"workflow"`
	}
	if err := s.gw.Put(ctx, fmt.Sprintf("/admin/workflows/%d", id), form, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to update workflow"))
		return nil, err
	}
	s.notify.Success("Workflow updated successfully")
	return &out.Workflow, nil
}

func (s *Service) DeleteWorkflow(ctx context.Context, id int) error {
	if err := s.gw.Delete(ctx, fmt.Sprintf("/admin/workflows/%d", id), nil); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to delete workflow"))
		return err
	}
	s.notify.Success("Workflow deleted successfully")
	return nil
}

func (s *Service) SystemStats(ctx context.Context) (*crm.SystemStats, error) {
	var out crm.SystemStats
	if err := s.gw.Get(ctx, "/admin/stats", nil, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to fetch system stats"))
		return nil, err
	}
	return &out, nil
}

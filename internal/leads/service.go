package leads

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

// Filters narrows the lead list query. Zero values are omitted from the
// request.
type Filters struct {
	Search     string
	StageID    int
	SourceID   int
	AssignedTo int
	Status     crm.LeadStatus
	Page       int
	PerPage    int
}

func (f Filters) values() url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.StageID != 0 {
		q.Set("stage_id", strconv.Itoa(f.StageID))
	}
	if f.SourceID != 0 {
		q.Set("source_id", strconv.Itoa(f.SourceID))
	}
	if f.AssignedTo != 0 {
		q.Set("assigned_to", strconv.Itoa(f.AssignedTo))
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Page != 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PerPage != 0 {
		q.Set("per_page", strconv.Itoa(f.PerPage))
	}
	return q
}

// Service drives the lead store against the API. Every mutation dispatches
// the matching store transition so consumers observing the store stay
// consistent without refetching.
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

// Store exposes the backing store for read access.
func (s *Service) Store() *Store { return s.store }

// List fetches a page of leads and replaces the store collection with it.
func (s *Service) List(ctx context.Context, f Filters) (store.Page[crm.Lead], error) {
	s.store.Dispatch(store.FetchListStart[crm.Lead]{})
	var page store.Page[crm.Lead]
	if err := s.gw.Get(ctx, "/leads", f.values(), &page); err != nil {
		msg := apierror.Message(err, "Failed to fetch leads")
		s.store.Dispatch(store.FetchListFailure[crm.Lead]{Message: msg})
		s.notify.Error(msg)
		return store.Page[crm.Lead]{}, err
	}
	s.store.Dispatch(store.FetchListSuccess[crm.Lead]{Page: page})
	return page, nil
}

// Get fetches a single lead and selects it in the store.
func (s *Service) Get(ctx context.Context, id int) (*crm.Lead, error) {
	var out struct {
		Lead crm.Lead `json:"lead"`
	}
	if err := s.gw.Get(ctx, fmt.Sprintf("/leads/%d", id), nil, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to fetch lead"))
		return nil, err
	}
	s.store.Dispatch(store.Select[crm.Lead]{Entity: &out.Lead})
	return &out.Lead, nil
}

func (s *Service) Create(ctx context.Context, form crm.LeadForm) (*crm.Lead, error) {
	if err := form.Validate(); err != nil {
		s.notify.Error(err.Error())
		return nil, err
	}
	var out struct {
		Lead crm.Lead `json:"lead"`
	}
	if err := s.gw.Post(ctx, "/leads", form, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to create lead"))
		return nil, err
	}
	s.notify.Success("Lead created successfully")
	return &out.Lead, nil
}

func (s *Service) Update(ctx context.Context, id int, form crm.LeadForm) (*crm.Lead, error) {
	var out struct {
		Lead crm.Lead `json:"lead"`
	}
	if err := s.gw.Put(ctx, fmt.Sprintf("/leads/%d", id), form, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to update lead"))
		return nil, err
	}
	s.store.Dispatch(store.Update[crm.Lead]{Entity: out.Lead})
	s.notify.Success("Lead updated successfully")
	return &out.Lead, nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	if err := s.gw.Delete(ctx, fmt.Sprintf("/leads/%d", id), nil); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to delete lead"))
		return err
	}
	s.store.Dispatch(store.Delete[crm.Lead]{ID: id})
	s.notify.Success("Lead deleted successfully")
	return nil
}

// ChangeStage moves a lead to a new pipeline stage. The previous stage id
// travels with the request so the server can log the transition.
func (s *Service) ChangeStage(ctx context.Context, id, stageID, oldStageID int) (*crm.Lead, error) {
	body := map[string]int{"stage_id": stageID, "old_stage_id": oldStageID}
	var out struct {
		Lead crm.Lead `json:"lead"`
	}
	if err := s.gw.Patch(ctx, fmt.Sprintf("/leads/%d/stage", id), body, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to change stage"))
		return nil, err
	}
	s.store.Dispatch(store.Update[crm.Lead]{Entity: out.Lead})
	s.notify.Success("Stage changed successfully")
	return &out.Lead, nil
}

// Convert turns a lead into an application. The lead entry in the store is
// marked converted so lists reflect the new state without a refetch.
func (s *Service) Convert(ctx context.Context, id int) (*crm.Application, error) {
	var out struct {
		Application crm.Application `json:"application"`
	}
	if err := s.gw.Post(ctx, fmt.Sprintf("/leads/%d/convert", id), nil, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to convert lead"))
		return nil, err
	}
	for _, lead := range s.store.Snapshot().Items {
		if lead.ID == id {
			lead.Status = crm.LeadConverted
			lead.HasApplication = true
			s.store.Dispatch(store.Update[crm.Lead]{Entity: lead})
			break
		}
	}
	s.notify.Success("Lead converted to application")
	return &out.Application, nil
}

// KPIs fetches the lead headline numbers for the dashboard cards.
func (s *Service) KPIs(ctx context.Context) (*crm.LeadKPIs, error) {
	var out crm.LeadKPIs
	if err := s.gw.Get(ctx, "/leads/kpis", nil, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to fetch lead KPIs"))
		return nil, err
	}
	return &out, nil
}

// StageDistribution returns lead counts per stage.
func (s *Service) StageDistribution(ctx context.Context) ([]crm.StageCount, error) {
	var out struct {
		Distribution []crm.StageCount `json:"distribution"`
	}
	if err := s.gw.Get(ctx, "/leads/stage-distribution", nil, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to fetch stage distribution"))
		return nil, err
	}
	return out.Distribution, nil
}

// SourceDistribution returns lead counts per source.
func (s *Service) SourceDistribution(ctx context.Context) ([]crm.SourceCount, error) {
	var out struct {
		Distribution []crm.SourceCount `json:"distribution"`
	}
	if err := s.gw.Get(ctx, "/leads/source-distribution", nil, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to fetch source distribution"))
		return nil, err
	}
	return out.Distribution, nil
}

// FetchStages loads the stage lookup table into the store.
func (s *Service) FetchStages(ctx context.Context) ([]crm.Stage, error) {
	s.store.stagesStart()
	var out struct {
		Stages []crm.Stage `json:"stages"`
	}
	if err := s.gw.Get(ctx, "/admin/stages", nil, &out); err != nil {
		msg := apierror.Message(err, "Failed to fetch stages")
		s.store.stagesFailure(msg)
		s.notify.Error(msg)
		return nil, err
	}
	s.store.stagesSuccess(out.Stages)
	return out.Stages, nil
}

// FetchSources loads the source lookup table into the store.
func (s *Service) FetchSources(ctx context.Context) ([]crm.Source, error) {
	s.store.sourcesStart()
	var out struct {
		Sources []crm.Source `json:"sources"`
	}
	if err := s.gw.Get(ctx, "/admin/sources", nil, &out); err != nil {
		msg := apierror.Message(err, "Failed to fetch sources")
		s.store.sourcesFailure(msg)
		s.notify.Error(msg)
		return nil, err
	}
	s.store.sourcesSuccess(out.Sources)
	return out.Sources, nil
}

package activities

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

// Filters narrows the activity list query.
type Filters struct {
	LeadID  int
	Type    crm.ActivityType
	Page    int
	PerPage int
}

func (f Filters) values() url.Values {
	q := url.Values{}
	if f.LeadID != 0 {
		q.Set("lead_id", strconv.Itoa(f.LeadID))
	}
	if f.Type != "" {
		q.Set("type", string(f.Type))
	}
	if f.Page != 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PerPage != 0 {
		q.Set("per_page", strconv.Itoa(f.PerPage))
	}
	return q
}

// CreateRequest is the body for logging a manual activity against a lead.
type CreateRequest struct {
	LeadID      int              `json:"lead_id"`
	Type        crm.ActivityType `json:"type"`
	Description string           `json:"description"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
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

func (s *Service) List(ctx context.Context, f Filters) (store.Page[crm.Activity], error) {
	s.store.Dispatch(FetchListStart{})
	var page store.Page[crm.Activity]
	if err := s.gw.Get(ctx, "/activities", f.values(), &page); err != nil {
		msg := apierror.Message(err, "Failed to fetch activities")
		s.store.Dispatch(FetchListFailure{Message: msg})
		s.notify.Error(msg)
		return store.Page[crm.Activity]{}, err
	}
	s.store.Dispatch(FetchListSuccess{Page: page})
	return page, nil
}

// ForLead fetches a lead's timeline, newest first.
func (s *Service) ForLead(ctx context.Context, leadID, limit int) ([]crm.Activity, error) {
	q := url.Values{}
	if limit != 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out struct {
		Activities []crm.Activity `json:"activities"`
	}
	if err := s.gw.Get(ctx, fmt.Sprintf("/activities/lead/%d", leadID), q, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to fetch lead activities"))
		return nil, err
	}
	s.store.Dispatch(FetchForLeadSuccess{LeadID: leadID, Activities: out.Activities})
	return out.Activities, nil
}

// Recent fetches the dashboard activity feed.
func (s *Service) Recent(ctx context.Context, limit int) ([]crm.Activity, error) {
	q := url.Values{}
	if limit != 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out struct {
		Activities []crm.Activity `json:"activities"`
	}
	if err := s.gw.Get(ctx, "/activities/recent", q, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to fetch recent activities"))
		return nil, err
	}
	s.store.Dispatch(FetchRecentSuccess{Activities: out.Activities})
	return out.Activities, nil
}

// Create logs a manual activity. Metadata is validated before the request
// goes out; the created entry is prepended to every loaded list.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*crm.Activity, error) {
	if err := crm.ValidateMetadata(req.Metadata); err != nil {
		s.notify.Error(err.Error())
		return nil, err
	}
	var out struct {
		Activity crm.Activity `json:"activity"`
	}
	if err := s.gw.Post(ctx, "/activities", req, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to log activity"))
		return nil, err
	}
	s.store.Dispatch(Add{Activity: out.Activity})
	s.notify.Success("Activity logged successfully")
	return &out.Activity, nil
}

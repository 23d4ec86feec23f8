// Package applications manages the post-conversion application pipeline:
// the collection store plus the service updating the four independent
// sub-status axes.
package applications

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"admitcrm/internal/crm"
	"admitcrm/internal/gateway"
	"admitcrm/internal/notify"
	"admitcrm/internal/store"
	"admitcrm/pkg/apierror"
)

// Store holds the application collection plus the stats block shown above
// the table.
type Store struct {
	*store.Store[crm.Application]

	mu    sync.Mutex
	stats *crm.ApplicationStats
}

func NewStore() *Store {
	return &Store{Store: store.New[crm.Application](20)}
}

func (s *Store) setStats(stats crm.ApplicationStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = &stats
}

// Stats returns a copy of the last fetched stats block, or nil.
func (s *Store) Stats() *crm.ApplicationStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stats == nil {
		return nil
	}
	stats := *s.stats
	return &stats
}

// Filters narrows the application list query along the sub-status axes.
type Filters struct {
	DocumentStatus   crm.DocumentStatus
	FeeStatus        crm.FeeStatus
	AdmissionStatus  crm.AdmissionStatus
	EnrollmentStatus crm.EnrollmentStatus
	OverallStatus    crm.OverallStatus
	Search           string
	Page             int
	PerPage          int
}

func (f Filters) values() url.Values {
	q := url.Values{}
	if f.DocumentStatus != "" {
		q.Set("document_status", string(f.DocumentStatus))
	}
	if f.FeeStatus != "" {
		q.Set("fee_status", string(f.FeeStatus))
	}
	if f.AdmissionStatus != "" {
		q.Set("admission_status", string(f.AdmissionStatus))
	}
	if f.EnrollmentStatus != "" {
		q.Set("enrollment_status", string(f.EnrollmentStatus))
	}
	if f.OverallStatus != "" {
		q.Set("overall_status", string(f.OverallStatus))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
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

func (s *Service) List(ctx context.Context, f Filters) (store.Page[crm.Application], error) {
	s.store.Dispatch(store.FetchListStart[crm.Application]{})
	var page store.Page[crm.Application]
	if err := s.gw.Get(ctx, "/applications", f.values(), &page); err != nil {
		msg := apierror.Message(err, "Failed to fetch applications")
		s.store.Dispatch(store.FetchListFailure[crm.Application]{Message: msg})
		s.notify.Error(msg)
		return store.Page[crm.Application]{}, err
	}
	s.store.Dispatch(store.FetchListSuccess[crm.Application]{Page: page})
	return page, nil
}

func (s *Service) Get(ctx context.Context, id int) (*crm.Application, error) {
	var out struct {
		Application crm.Application `json:"application"`
	}
	if err := s.gw.Get(ctx, fmt.Sprintf("/applications/%d", id), nil, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to fetch application"))
		return nil, err
	}
	s.store.Dispatch(store.Select[crm.Application]{Entity: &out.Application})
	return &out.Application, nil
}

// UpdateStatus changes any subset of the sub-status axes. The server derives
// the overall status; the response is what lands in the store.
func (s *Service) UpdateStatus(ctx context.Context, id int, update crm.ApplicationStatusUpdate) (*crm.Application, error) {
	var out struct {
		Application crm.Application `json:"application"`
	}
	if err := s.gw.Put(ctx, fmt.Sprintf("/applications/%d/status", id), update, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to update application status"))
		return nil, err
	}
	s.store.Dispatch(store.Update[crm.Application]{Entity: out.Application})
	s.notify.Success("Application status updated")
	return &out.Application, nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	if err := s.gw.Delete(ctx, fmt.Sprintf("/applications/%d", id), nil); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to delete application"))
		return err
	}
	s.store.Dispatch(store.Delete[crm.Application]{ID: id})
	s.notify.Success("Application deleted successfully")
	return nil
}

func (s *Service) Stats(ctx context.Context) (*crm.ApplicationStats, error) {
	var out crm.ApplicationStats
	if err := s.gw.Get(ctx, "/applications/stats", nil, &out); err != nil {
		s.notify.Error(apierror.Message(err, "Failed to fetch application stats"))
		return nil, err
	}
	s.store.setStats(out)
	return &out, nil
}

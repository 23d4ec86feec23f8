// Package activities mirrors the append-only lead audit trail. The store
// keeps three parallel views of the same stream, so additions prepend to all
// of them and nothing is ever edited in place.
package activities

import (
	"slices"
	"sync"

	"admitcrm/internal/crm"
	"admitcrm/internal/store"
)

// recentCap bounds the dashboard's recent-activity feed.
const recentCap = 50

// State is the activity store snapshot: the paginated full list, the
// recent feed capped at recentCap, and per-lead timelines.
type State struct {
	Activities []crm.Activity
	Recent     []crm.Activity
	ByLead     map[int][]crm.Activity
	Pagination store.Pagination
	Loading    bool
	Err        string
}

type Action interface {
	isAction()
}

type FetchListStart struct{}

type FetchListSuccess struct {
	Page store.Page[crm.Activity]
}

type FetchListFailure struct {
	Message string
}

type FetchRecentSuccess struct {
	Activities []crm.Activity
}

type FetchForLeadSuccess struct {
	LeadID     int
	Activities []crm.Activity
}

// Add prepends a freshly created activity to every list it belongs in.
type Add struct {
	Activity crm.Activity
}

type ClearError struct{}

func (FetchListStart) isAction()      {}
func (FetchListSuccess) isAction()    {}
func (FetchListFailure) isAction()    {}
func (FetchRecentSuccess) isAction()  {}
func (FetchForLeadSuccess) isAction() {}
func (Add) isAction()                 {}
func (ClearError) isAction()          {}

func Reduce(s State, a Action) State {
	switch act := a.(type) {
	case FetchListStart:
		s.Loading = true
		s.Err = ""
	case FetchListSuccess:
		s.Loading = false
		s.Activities = slices.Clone(act.Page.Items)
		s.Pagination = store.Pagination{
			Total:       act.Page.Total,
			Pages:       act.Page.Pages,
			CurrentPage: act.Page.CurrentPage,
			PerPage:     act.Page.PerPage,
		}
	case FetchListFailure:
		s.Loading = false
		s.Err = act.Message
	case FetchRecentSuccess:
		s.Recent = capRecent(slices.Clone(act.Activities))
	case FetchForLeadSuccess:
		byLead := cloneByLead(s.ByLead)
		byLead[act.LeadID] = slices.Clone(act.Activities)
		s.ByLead = byLead
	case Add:
		s.Activities = prepend(s.Activities, act.Activity)
		s.Recent = capRecent(prepend(s.Recent, act.Activity))
		if act.Activity.LeadID != 0 {
			byLead := cloneByLead(s.ByLead)
			byLead[act.Activity.LeadID] = prepend(byLead[act.Activity.LeadID], act.Activity)
			s.ByLead = byLead
		}
	case ClearError:
		s.Err = ""
	}
	return s
}

func prepend(list []crm.Activity, a crm.Activity) []crm.Activity {
	out := make([]crm.Activity, 0, len(list)+1)
	out = append(out, a)
	return append(out, list...)
}

func capRecent(list []crm.Activity) []crm.Activity {
	if len(list) > recentCap {
		return list[:recentCap]
	}
	return list
}

func cloneByLead(m map[int][]crm.Activity) map[int][]crm.Activity {
	out := make(map[int][]crm.Activity, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store owns the activity state behind a mutex.
type Store struct {
	mu    sync.Mutex
	state State
}

func NewStore() *Store {
	return &Store{state: State{
		ByLead:     map[int][]crm.Activity{},
		Pagination: store.Pagination{PerPage: 50, CurrentPage: 1},
	}}
}

func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, a)
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.state
	snap.Activities = slices.Clone(s.state.Activities)
	snap.Recent = slices.Clone(s.state.Recent)
	byLead := make(map[int][]crm.Activity, len(s.state.ByLead))
	for k, v := range s.state.ByLead {
		byLead[k] = slices.Clone(v)
	}
	snap.ByLead = byLead
	return snap
}

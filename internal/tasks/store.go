// Package tasks manages the follow-up task collection. Unlike the other
// resource stores it carries a pending sub-list whose membership changes on
// complete, update and delete, so its reducer is written out in full rather
// than built on the shared generic store.
package tasks

import (
	"slices"
	"sync"

	"admitcrm/internal/crm"
	"admitcrm/internal/store"
)

// State is the task store snapshot.
type State struct {
	Tasks      []crm.Task
	Pending    []crm.Task
	Selected   *crm.Task
	Pagination store.Pagination
	Stats      *crm.TaskStats
	Loading    bool
	Err        string
}

// Action is the closed set of task store transitions.
type Action interface {
	isAction()
}

type FetchListStart struct{}

type FetchListSuccess struct {
	Page store.Page[crm.Task]
}

type FetchListFailure struct {
	Message string
}

type FetchPendingSuccess struct {
	Tasks []crm.Task
}

type Select struct {
	Task *crm.Task
}

type Update struct {
	Task crm.Task
}

// Complete is shaped like Update but additionally evicts the task from the
// pending sub-list.
type Complete struct {
	Task crm.Task
}

type Delete struct {
	ID int
}

type SetStats struct {
	Stats crm.TaskStats
}

type ClearError struct{}

func (FetchListStart) isAction()      {}
func (FetchListSuccess) isAction()    {}
func (FetchListFailure) isAction()    {}
func (FetchPendingSuccess) isAction() {}
func (Select) isAction()              {}
func (Update) isAction()              {}
func (Complete) isAction()            {}
func (Delete) isAction()              {}
func (SetStats) isAction()            {}
func (ClearError) isAction()          {}

// Reduce applies one action and returns the next state without mutating the
// input.
func Reduce(s State, a Action) State {
	switch act := a.(type) {
	case FetchListStart:
		s.Loading = true
		s.Err = ""
	case FetchListSuccess:
		s.Loading = false
		s.Tasks = slices.Clone(act.Page.Items)
		s.Pagination = store.Pagination{
			Total:       act.Page.Total,
			Pages:       act.Page.Pages,
			CurrentPage: act.Page.CurrentPage,
			PerPage:     act.Page.PerPage,
		}
	case FetchListFailure:
		s.Loading = false
		s.Err = act.Message
	case FetchPendingSuccess:
		s.Pending = slices.Clone(act.Tasks)
	case Select:
		if act.Task == nil {
			s.Selected = nil
		} else {
			task := *act.Task
			s.Selected = &task
		}
	case Update:
		s.Tasks = replace(s.Tasks, act.Task)
		s.Pending = replace(s.Pending, act.Task)
		if s.Selected != nil && s.Selected.ID == act.Task.ID {
			task := act.Task
			s.Selected = &task
		}
	case Complete:
		s.Tasks = replace(s.Tasks, act.Task)
		s.Pending = remove(s.Pending, act.Task.ID)
		if s.Selected != nil && s.Selected.ID == act.Task.ID {
			task := act.Task
			s.Selected = &task
		}
	case Delete:
		s.Tasks = remove(s.Tasks, act.ID)
		s.Pending = remove(s.Pending, act.ID)
		if s.Selected != nil && s.Selected.ID == act.ID {
			s.Selected = nil
		}
	case SetStats:
		stats := act.Stats
		s.Stats = &stats
	case ClearError:
		s.Err = ""
	}
	return s
}

func replace(tasks []crm.Task, task crm.Task) []crm.Task {
	out := slices.Clone(tasks)
	for i := range out {
		if out[i].ID == task.ID {
			out[i] = task
		}
	}
	return out
}

func remove(tasks []crm.Task, id int) []crm.Task {
	out := make([]crm.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// Store owns the task state behind a mutex.
type Store struct {
	mu    sync.Mutex
	state State
}

func NewStore() *Store {
	return &Store{state: State{Pagination: store.Pagination{PerPage: 20, CurrentPage: 1}}}
}

func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, a)
}

// Snapshot returns a copy that does not alias the store's own slices.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.state
	snap.Tasks = slices.Clone(s.state.Tasks)
	snap.Pending = slices.Clone(s.state.Pending)
	if s.state.Selected != nil {
		task := *s.state.Selected
		snap.Selected = &task
	}
	if s.state.Stats != nil {
		stats := *s.state.Stats
		snap.Stats = &stats
	}
	return snap
}

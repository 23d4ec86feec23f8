// Package store implements the reducer-backed state container every resource
// family shares: a collection mirroring the latest fetched page, a single
// selected entity, a pagination cursor, and loading/error flags. Transitions
// are a closed action set applied by a pure reduce function; a small
// controller owns the state and hands out snapshot copies.
package store

import (
	"slices"
	"sync"
)

// Entity is anything with a server-assigned integer id.
type Entity interface {
	EntityID() int
}

// Page is the pagination envelope the API wraps every list response in.
// It must round-trip exactly.
type Page[T any] struct {
	Items       []T `json:"items"`
	Total       int `json:"total"`
	Pages       int `json:"pages"`
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
}

// Pagination is the cursor kept per store. It is recomputed wholesale from
// the latest page fetch and never merged incrementally; local creates and
// deletes do not adjust Total or Pages, so counts are authoritative only
// immediately after a successful fetch.
type Pagination struct {
	Total       int
	Pages       int
	CurrentPage int
	PerPage     int
}

// State is the resource-store state shape.
type State[T Entity] struct {
	Items      []T
	Selected   *T
	Pagination Pagination
	Loading    bool
	Err        string
}

// Action is the closed set of store transitions.
type Action[T Entity] interface {
	isAction(T)
}

type FetchListStart[T Entity] struct{}

type FetchListSuccess[T Entity] struct {
	Page Page[T]
}

type FetchListFailure[T Entity] struct {
	Message string
}

type Select[T Entity] struct {
	Entity *T
}

type Update[T Entity] struct {
	Entity T
}

type Delete[T Entity] struct {
	ID int
}

type ClearError[T Entity] struct{}

func (FetchListStart[T]) isAction(T)   {}
func (FetchListSuccess[T]) isAction(T) {}
func (FetchListFailure[T]) isAction(T) {}
func (Select[T]) isAction(T)           {}
func (Update[T]) isAction(T)           {}
func (Delete[T]) isAction(T)           {}
func (ClearError[T]) isAction(T)       {}

// Reduce applies one action to a state and returns the next state. It never
// mutates its input and never fails; failures are recorded as messages.
func Reduce[T Entity](s State[T], a Action[T]) State[T] {
	switch act := a.(type) {
	case FetchListStart[T]:
		s.Loading = true
		s.Err = ""
	case FetchListSuccess[T]:
		s.Loading = false
		s.Items = slices.Clone(act.Page.Items)
		s.Pagination = Pagination{
			Total:       act.Page.Total,
			Pages:       act.Page.Pages,
			CurrentPage: act.Page.CurrentPage,
			PerPage:     act.Page.PerPage,
		}
	case FetchListFailure[T]:
		s.Loading = false
		s.Err = act.Message
	case Select[T]:
		s.Selected = cloneEntity(act.Entity)
	case Update[T]:
		s.Items = replaceByID(s.Items, act.Entity)
		if s.Selected != nil && (*s.Selected).EntityID() == act.Entity.EntityID() {
			entity := act.Entity
			s.Selected = &entity
		}
	case Delete[T]:
		s.Items = removeByID(s.Items, act.ID)
		if s.Selected != nil && (*s.Selected).EntityID() == act.ID {
			s.Selected = nil
		}
	case ClearError[T]:
		s.Err = ""
	}
	return s
}

// Store owns a State behind a mutex and exposes dispatch plus read-only
// snapshots. All dispatches are serialized; a snapshot never aliases live
// state.
type Store[T Entity] struct {
	mu    sync.Mutex
	state State[T]
}

// New creates a store with an empty collection and the given page size.
func New[T Entity](perPage int) *Store[T] {
	return &Store[T]{
		state: State[T]{
			Pagination: Pagination{CurrentPage: 1, PerPage: perPage},
		},
	}
}

// Dispatch applies one action.
func (s *Store[T]) Dispatch(a Action[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, a)
}

// Snapshot returns a copy of the current state. Items is cloned so callers
// cannot mutate the store through it.
func (s *Store[T]) Snapshot() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.state
	snap.Items = slices.Clone(s.state.Items)
	snap.Selected = cloneEntity(s.state.Selected)
	return snap
}

func cloneEntity[T Entity](e *T) *T {
	if e == nil {
		return nil
	}
	clone := *e
	return &clone
}

func replaceByID[T Entity](items []T, entity T) []T {
	out := slices.Clone(items)
	for i, item := range out {
		if item.EntityID() == entity.EntityID() {
			out[i] = entity
		}
	}
	return out
}

func removeByID[T Entity](items []T, id int) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item.EntityID() != id {
			out = append(out, item)
		}
	}
	return out
}

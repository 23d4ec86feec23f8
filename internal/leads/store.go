// Package leads mirrors the server's lead pipeline on the client: a
// reducer-backed collection store plus the service layer orchestrating
// fetches and mutations against the gateway.
package leads

import (
	"slices"
	"sync"

	"admitcrm/internal/crm"
	"admitcrm/internal/store"
)

// Store holds the lead collection plus the stage and source lookup tables
// the lead views filter by. The collection follows the shared resource-store
// shape; the lookups carry their own loading flags.
type Store struct {
	*store.Store[crm.Lead]

	mu      sync.Mutex
	lookups lookupState
}

type lookupState struct {
	Stages         []crm.Stage
	Sources        []crm.Source
	LoadingStages  bool
	LoadingSources bool
	Err            string
}

// LookupState is a snapshot of the stage/source lookup tables.
type LookupState = lookupState

// NewStore creates a lead store with the default page size.
func NewStore() *Store {
	return &Store{Store: store.New[crm.Lead](20)}
}

// Lookups returns a copy of the lookup tables.
func (s *Store) Lookups() LookupState {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.lookups
	snap.Stages = slices.Clone(s.lookups.Stages)
	snap.Sources = slices.Clone(s.lookups.Sources)
	return snap
}

func (s *Store) stagesStart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups.LoadingStages = true
}

func (s *Store) stagesSuccess(stages []crm.Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups.LoadingStages = false
	s.lookups.Stages = slices.Clone(stages)
}

func (s *Store) stagesFailure(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups.LoadingStages = false
	s.lookups.Err = msg
}

func (s *Store) sourcesStart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups.LoadingSources = true
}

func (s *Store) sourcesSuccess(sources []crm.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups.LoadingSources = false
	s.lookups.Sources = slices.Clone(sources)
}

func (s *Store) sourcesFailure(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups.LoadingSources = false
	s.lookups.Err = msg
}

// LeadStages returns only the lookup stages that apply to the lead pipeline.
func (s *Store) LeadStages() []crm.Stage {
	lookups := s.Lookups()
	out := make([]crm.Stage, 0, len(lookups.Stages))
	for _, stage := range lookups.Stages {
		if stage.Type == crm.StageLead {
			out = append(out, stage)
		}
	}
	return out
}

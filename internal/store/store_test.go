package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (w widget) EntityID() int { return w.ID }

func TestFetchListLifecycle(t *testing.T) {
	s := New[widget](20)

	s.Dispatch(FetchListStart[widget]{})
	snap := s.Snapshot()
	assert.True(t, snap.Loading)
	assert.Empty(t, snap.Err)

	page := Page[widget]{
		Items:       []widget{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}},
		Total:       2,
		Pages:       1,
		CurrentPage: 1,
		PerPage:     20,
	}
	s.Dispatch(FetchListSuccess[widget]{Page: page})

	snap = s.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, []widget{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}, snap.Items)
	assert.Equal(t, Pagination{Total: 2, Pages: 1, CurrentPage: 1, PerPage: 20}, snap.Pagination)
}

func TestFetchListReplacesWholesale(t *testing.T) {
	s := New[widget](20)
	s.Dispatch(FetchListSuccess[widget]{Page: Page[widget]{
		Items: []widget{{ID: 1}, {ID: 2}, {ID: 3}}, Total: 3, Pages: 1, CurrentPage: 1, PerPage: 20,
	}})
	s.Dispatch(FetchListSuccess[widget]{Page: Page[widget]{
		Items: []widget{{ID: 9}}, Total: 1, Pages: 1, CurrentPage: 1, PerPage: 20,
	}})

	snap := s.Snapshot()
	assert.Equal(t, []widget{{ID: 9}}, snap.Items)
	assert.Equal(t, 1, snap.Pagination.Total)
}

func TestFetchListFailureKeepsCollection(t *testing.T) {
	s := New[widget](20)
	s.Dispatch(FetchListSuccess[widget]{Page: Page[widget]{
		Items: []widget{{ID: 1}}, Total: 1, Pages: 1, CurrentPage: 1, PerPage: 20,
	}})
	s.Dispatch(FetchListStart[widget]{})
	s.Dispatch(FetchListFailure[widget]{Message: "boom"})

	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, "boom", snap.Err)
	assert.Equal(t, []widget{{ID: 1}}, snap.Items)
}

func TestUpdateRefreshesSelection(t *testing.T) {
	s := New[widget](20)
	s.Dispatch(FetchListSuccess[widget]{Page: Page[widget]{
		Items: []widget{{ID: 1, Name: "old"}, {ID: 2, Name: "other"}},
		Total: 2, Pages: 1, CurrentPage: 1, PerPage: 20,
	}})
	s.Dispatch(Select[widget]{Entity: &widget{ID: 1, Name: "old"}})

	// Selection must always reflect the last applied update for its id.
	s.Dispatch(Update[widget]{Entity: widget{ID: 1, Name: "newer"}})
	s.Dispatch(Update[widget]{Entity: widget{ID: 1, Name: "newest"}})

	snap := s.Snapshot()
	require.NotNil(t, snap.Selected)
	assert.Equal(t, "newest", snap.Selected.Name)
	assert.Equal(t, widget{ID: 1, Name: "newest"}, snap.Items[0])
	assert.Equal(t, widget{ID: 2, Name: "other"}, snap.Items[1])
}

func TestUpdateAbsentIDIsNoop(t *testing.T) {
	s := New[widget](20)
	s.Dispatch(FetchListSuccess[widget]{Page: Page[widget]{
		Items: []widget{{ID: 1}}, Total: 1, Pages: 1, CurrentPage: 1, PerPage: 20,
	}})
	s.Dispatch(Update[widget]{Entity: widget{ID: 42, Name: "ghost"}})

	snap := s.Snapshot()
	assert.Equal(t, []widget{{ID: 1}}, snap.Items)
}

func TestDeleteClearsSelection(t *testing.T) {
	s := New[widget](20)
	s.Dispatch(FetchListSuccess[widget]{Page: Page[widget]{
		Items: []widget{{ID: 1}, {ID: 2}}, Total: 2, Pages: 1, CurrentPage: 1, PerPage: 20,
	}})
	s.Dispatch(Select[widget]{Entity: &widget{ID: 2}})
	s.Dispatch(Delete[widget]{ID: 2})

	snap := s.Snapshot()
	assert.Nil(t, snap.Selected)
	assert.Equal(t, []widget{{ID: 1}}, snap.Items)
}

func TestDeleteDoesNotAdjustPagination(t *testing.T) {
	s := New[widget](20)
	s.Dispatch(FetchListSuccess[widget]{Page: Page[widget]{
		Items: []widget{{ID: 1}, {ID: 2}}, Total: 2, Pages: 1, CurrentPage: 1, PerPage: 20,
	}})
	s.Dispatch(Delete[widget]{ID: 1})

	// Counts stay stale until the next list fetch.
	snap := s.Snapshot()
	assert.Equal(t, 2, snap.Pagination.Total)
	assert.Len(t, snap.Items, 1)
}

func TestDeleteOtherKeepsSelection(t *testing.T) {
	s := New[widget](20)
	s.Dispatch(Select[widget]{Entity: &widget{ID: 7}})
	s.Dispatch(Delete[widget]{ID: 1})

	snap := s.Snapshot()
	require.NotNil(t, snap.Selected)
	assert.Equal(t, 7, snap.Selected.ID)
}

func TestSnapshotDoesNotAliasState(t *testing.T) {
	s := New[widget](20)
	s.Dispatch(FetchListSuccess[widget]{Page: Page[widget]{
		Items: []widget{{ID: 1, Name: "a"}}, Total: 1, Pages: 1, CurrentPage: 1, PerPage: 20,
	}})

	snap := s.Snapshot()
	snap.Items[0].Name = "mutated"

	assert.Equal(t, "a", s.Snapshot().Items[0].Name)
}

func TestClearError(t *testing.T) {
	s := New[widget](20)
	s.Dispatch(FetchListFailure[widget]{Message: "boom"})
	s.Dispatch(ClearError[widget]{})
	assert.Empty(t, s.Snapshot().Err)
}

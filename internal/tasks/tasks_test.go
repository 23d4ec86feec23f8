package tasks

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admitcrm/internal/crm"
	"admitcrm/internal/gateway"
	"admitcrm/internal/notify"
	"admitcrm/internal/platform/config"
	"admitcrm/internal/session"
	"admitcrm/internal/store"
)

func testService(t *testing.T, handler http.Handler) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	keyring := session.NewMemoryKeyring()
	require.NoError(t, keyring.SetTokens("access", "refresh"))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw := gateway.New(config.Client{BaseURL: srv.URL}, keyring, log,
		gateway.WithHTTPClient(srv.Client()))
	return NewService(gw, NewStore(), notify.Discard{})
}

func TestReduceCompleteEvictsFromPending(t *testing.T) {
	s := State{
		Tasks:   []crm.Task{{ID: 1, Status: crm.TaskPending}, {ID: 2, Status: crm.TaskPending}},
		Pending: []crm.Task{{ID: 1, Status: crm.TaskPending}, {ID: 2, Status: crm.TaskPending}},
	}

	s = Reduce(s, Complete{Task: crm.Task{ID: 1, Status: crm.TaskCompleted}})

	require.Len(t, s.Tasks, 2)
	assert.Equal(t, crm.TaskCompleted, s.Tasks[0].Status)
	require.Len(t, s.Pending, 1)
	assert.Equal(t, 2, s.Pending[0].ID)
}

func TestReduceUpdateMapsOverBothLists(t *testing.T) {
	s := State{
		Tasks:   []crm.Task{{ID: 1, Title: "old"}},
		Pending: []crm.Task{{ID: 1, Title: "old"}},
	}

	s = Reduce(s, Update{Task: crm.Task{ID: 1, Title: "new"}})

	assert.Equal(t, "new", s.Tasks[0].Title)
	assert.Equal(t, "new", s.Pending[0].Title)
}

func TestReduceDeleteFiltersBothLists(t *testing.T) {
	task := crm.Task{ID: 1}
	s := State{
		Tasks:    []crm.Task{task, {ID: 2}},
		Pending:  []crm.Task{task},
		Selected: &task,
	}

	s = Reduce(s, Delete{ID: 1})

	require.Len(t, s.Tasks, 1)
	assert.Empty(t, s.Pending)
	assert.Nil(t, s.Selected)
}

func TestCompleteTaskSendsNotes(t *testing.T) {
	var gotBody map[string]string
	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tasks/pending":
			_ = json.NewEncoder(w).Encode(map[string][]crm.Task{
				"tasks": {{ID: 9, Status: crm.TaskPending}},
			})
		case "/tasks/9/complete":
			require.Equal(t, http.MethodPatch, r.Method)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			_ = json.NewEncoder(w).Encode(map[string]crm.Task{
				"task": {ID: 9, Status: crm.TaskCompleted, CompletionNotes: gotBody["notes"]},
			})
		}
	}))

	_, err := svc.Pending(context.Background())
	require.NoError(t, err)
	require.Len(t, svc.Store().Snapshot().Pending, 1)

	task, err := svc.CompleteTask(context.Background(), 9, "spoke with parent")
	require.NoError(t, err)
	assert.Equal(t, crm.TaskCompleted, task.Status)
	assert.Equal(t, "spoke with parent", gotBody["notes"])
	assert.Empty(t, svc.Store().Snapshot().Pending)
}

func TestListPopulatesStore(t *testing.T) {
	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tasks", r.URL.Path)
		assert.Contains(t, r.URL.RawQuery, "overdue=true")
		_ = json.NewEncoder(w).Encode(store.Page[crm.Task]{
			Items:       []crm.Task{{ID: 1, IsOverdue: true}},
			Total:       1,
			Pages:       1,
			CurrentPage: 1,
			PerPage:     20,
		})
	}))

	page, err := svc.List(context.Background(), Filters{Overdue: true})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].IsOverdue)

	snap := svc.Store().Snapshot()
	assert.Equal(t, 1, snap.Pagination.Total)
	assert.False(t, snap.Loading)
}

func TestCreateRejectsInvalidForm(t *testing.T) {
	called := false
	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	_, err := svc.Create(context.Background(), crm.TaskForm{Title: "no type or priority"})
	require.Error(t, err)
	assert.False(t, called)
}

func TestStatsStoredOnFetch(t *testing.T) {
	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tasks/stats", r.URL.Path)
		_ = json.NewEncoder(w).Encode(crm.TaskStats{Total: 10, Pending: 4, Overdue: 2})
	}))

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Total)

	snap := svc.Store().Snapshot()
	require.NotNil(t, snap.Stats)
	assert.Equal(t, 2, snap.Stats.Overdue)
}

func TestSnapshotDoesNotAliasStore(t *testing.T) {
	st := NewStore()
	st.Dispatch(FetchListSuccess{Page: store.Page[crm.Task]{
		Items: []crm.Task{{ID: 1, Title: "original"}},
	}})

	snap := st.Snapshot()
	snap.Tasks[0].Title = "mutated"
	assert.Equal(t, "original", st.Snapshot().Tasks[0].Title)
}

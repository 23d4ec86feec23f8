package activities

import (
	"context"
	"encoding/json"
	"fmt"
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

func TestReduceAddPrependsToAllLists(t *testing.T) {
	s := State{
		Activities: []crm.Activity{{ID: 1, LeadID: 7}},
		Recent:     []crm.Activity{{ID: 1, LeadID: 7}},
		ByLead:     map[int][]crm.Activity{7: {{ID: 1, LeadID: 7}}},
	}

	s = Reduce(s, Add{Activity: crm.Activity{ID: 2, LeadID: 7}})

	require.Len(t, s.Activities, 2)
	assert.Equal(t, 2, s.Activities[0].ID)
	assert.Equal(t, 2, s.Recent[0].ID)
	require.Len(t, s.ByLead[7], 2)
	assert.Equal(t, 2, s.ByLead[7][0].ID)
}

func TestReduceRecentCappedAtFifty(t *testing.T) {
	s := State{}
	for i := 1; i <= 55; i++ {
		s = Reduce(s, Add{Activity: crm.Activity{ID: i}})
	}

	assert.Len(t, s.Recent, 50)
	assert.Equal(t, 55, s.Recent[0].ID)
	assert.Len(t, s.Activities, 55)
}

func TestReduceAddWithoutLeadSkipsByLead(t *testing.T) {
	s := State{ByLead: map[int][]crm.Activity{}}
	s = Reduce(s, Add{Activity: crm.Activity{ID: 3, Type: crm.ActivitySystem}})

	assert.Empty(t, s.ByLead)
	assert.Len(t, s.Activities, 1)
}

func TestForLeadStoresTimeline(t *testing.T) {
	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/activities/lead/7", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		_ = json.NewEncoder(w).Encode(map[string][]crm.Activity{
			"activities": {{ID: 4, LeadID: 7, Type: crm.ActivityCall}},
		})
	}))

	got, err := svc.ForLead(context.Background(), 7, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, crm.ActivityCall, got[0].Type)
	assert.Len(t, svc.Store().Snapshot().ByLead[7], 1)
}

func TestCreateRejectsDeepMetadata(t *testing.T) {
	called := false
	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	_, err := svc.Create(context.Background(), CreateRequest{
		LeadID: 7, Type: crm.ActivityNote, Description: "x",
		Metadata: map[string]any{
			"outer": map[string]any{"inner": map[string]any{"too": "deep"}},
		},
	})
	require.Error(t, err)
	assert.False(t, called)
}

func TestCreatePrependsResult(t *testing.T) {
	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/activities":
			if r.Method == http.MethodGet {
				_ = json.NewEncoder(w).Encode(store.Page[crm.Activity]{
					Items: []crm.Activity{{ID: 1, LeadID: 7}}, Total: 1, Pages: 1, CurrentPage: 1, PerPage: 50,
				})
				return
			}
			var req CreateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			_ = json.NewEncoder(w).Encode(map[string]crm.Activity{
				"activity": {ID: 2, LeadID: req.LeadID, Type: req.Type, Description: req.Description},
			})
		default:
			http.NotFound(w, r)
		}
	}))

	_, err := svc.List(context.Background(), Filters{})
	require.NoError(t, err)

	created, err := svc.Create(context.Background(), CreateRequest{
		LeadID: 7, Type: crm.ActivityNote, Description: "called back",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, created.ID)

	snap := svc.Store().Snapshot()
	require.Len(t, snap.Activities, 2)
	assert.Equal(t, 2, snap.Activities[0].ID)
	assert.Equal(t, 2, snap.Recent[0].ID)
}

func TestListFailureKeepsState(t *testing.T) {
	step := 0
	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		step++
		if step == 1 {
			_ = json.NewEncoder(w).Encode(store.Page[crm.Activity]{
				Items: []crm.Activity{{ID: 1}}, Total: 1, Pages: 1, CurrentPage: 1, PerPage: 50,
			})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"server_error","message":"server blew up"}`)
	}))

	_, err := svc.List(context.Background(), Filters{})
	require.NoError(t, err)
	_, err = svc.List(context.Background(), Filters{})
	require.Error(t, err)

	snap := svc.Store().Snapshot()
	assert.Len(t, snap.Activities, 1)
	assert.Equal(t, "server blew up", snap.Err)
}

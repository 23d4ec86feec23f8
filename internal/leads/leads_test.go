package leads

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

func testService(t *testing.T, handler http.Handler) (*Service, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	keyring := session.NewMemoryKeyring()
	require.NoError(t, keyring.SetTokens("access", "refresh"))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw := gateway.New(config.Client{BaseURL: srv.URL}, keyring, log,
		gateway.WithHTTPClient(srv.Client()))
	return NewService(gw, NewStore(), notify.Discard{}), srv
}

func leadPage(leads ...crm.Lead) store.Page[crm.Lead] {
	return store.Page[crm.Lead]{
		Items:       leads,
		Total:       len(leads),
		Pages:       1,
		CurrentPage: 1,
		PerPage:     20,
	}
}

func TestListPopulatesStore(t *testing.T) {
	var gotQuery string
	svc, _ := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/leads", r.URL.Path)
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(leadPage(
			crm.Lead{ID: 1, FirstName: "Mina", Status: crm.LeadActive},
			crm.Lead{ID: 2, FirstName: "Tomas", Status: crm.LeadActive},
		))
	}))

	page, err := svc.List(context.Background(), Filters{Search: "mi", StageID: 3, Page: 1})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Contains(t, gotQuery, "search=mi")
	assert.Contains(t, gotQuery, "stage_id=3")

	snap := svc.Store().Snapshot()
	assert.False(t, snap.Loading)
	assert.Len(t, snap.Items, 2)
	assert.Equal(t, 2, snap.Pagination.Total)
	assert.Equal(t, 1, snap.Pagination.Pages)
}

func TestListFailureKeepsCollection(t *testing.T) {
	fail := false
	svc, _ := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "server_error", "message": "boom"})
			return
		}
		_ = json.NewEncoder(w).Encode(leadPage(crm.Lead{ID: 1}))
	}))

	_, err := svc.List(context.Background(), Filters{})
	require.NoError(t, err)

	fail = true
	_, err = svc.List(context.Background(), Filters{})
	require.Error(t, err)

	snap := svc.Store().Snapshot()
	assert.Len(t, snap.Items, 1)
	assert.False(t, snap.Loading)
	assert.Equal(t, "boom", snap.Err)
}

func TestCreateRejectsInvalidForm(t *testing.T) {
	called := false
	svc, _ := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	_, err := svc.Create(context.Background(), crm.LeadForm{FirstName: "solo"})
	require.Error(t, err)
	assert.False(t, called)
}

func TestUpdateRefreshesStoreEntry(t *testing.T) {
	svc, _ := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(leadPage(crm.Lead{ID: 7, FirstName: "Old"}))
		case r.Method == http.MethodPut:
			require.Equal(t, "/leads/7", r.URL.Path)
			_ = json.NewEncoder(w).Encode(map[string]crm.Lead{
				"lead": {ID: 7, FirstName: "New"},
			})
		}
	}))

	_, err := svc.List(context.Background(), Filters{})
	require.NoError(t, err)

	lead, err := svc.Update(context.Background(), 7, crm.LeadForm{
		FirstName: "New", LastName: "Name", Email: "new@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "New", lead.FirstName)
	assert.Equal(t, "New", svc.Store().Snapshot().Items[0].FirstName)
}

func TestDeleteRemovesFromStore(t *testing.T) {
	svc, _ := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_ = json.NewEncoder(w).Encode(leadPage(crm.Lead{ID: 1}, crm.Lead{ID: 2}))
			return
		}
		require.Equal(t, http.MethodDelete, r.Method)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "deleted"})
	}))

	_, err := svc.List(context.Background(), Filters{})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), 1))

	snap := svc.Store().Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 2, snap.Items[0].ID)
}

func TestConvertMarksLeadConverted(t *testing.T) {
	svc, _ := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_ = json.NewEncoder(w).Encode(leadPage(crm.Lead{ID: 5, Status: crm.LeadActive}))
			return
		}
		require.Equal(t, "/leads/5/convert", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]crm.Application{
			"application": {ID: 30, LeadID: 5},
		})
	}))

	_, err := svc.List(context.Background(), Filters{})
	require.NoError(t, err)

	app, err := svc.Convert(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 30, app.ID)

	got := svc.Store().Snapshot().Items[0]
	assert.Equal(t, crm.LeadConverted, got.Status)
	assert.True(t, got.HasApplication)
}

func TestFetchStagesFillsLookup(t *testing.T) {
	svc, _ := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/stages", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string][]crm.Stage{
			"stages": {
				{ID: 1, Name: "Inquiry", Type: crm.StageLead, Order: 1},
				{ID: 2, Name: "Review", Type: crm.StageApplication, Order: 2},
			},
		})
	}))

	stages, err := svc.FetchStages(context.Background())
	require.NoError(t, err)
	assert.Len(t, stages, 2)

	lookups := svc.Store().Lookups()
	assert.False(t, lookups.LoadingStages)
	assert.Len(t, lookups.Stages, 2)

	leadStages := svc.Store().LeadStages()
	require.Len(t, leadStages, 1)
	assert.Equal(t, "Inquiry", leadStages[0].Name)
}

func TestStageDistribution(t *testing.T) {
	svc, _ := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/leads/stage-distribution", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string][]crm.StageCount{
			"distribution": {{StageID: 1, StageName: "Inquiry", Count: 12}},
		})
	}))

	dist, err := svc.StageDistribution(context.Background())
	require.NoError(t, err)
	require.Len(t, dist, 1)
	assert.Equal(t, 12, dist[0].Count)
}

package applications

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
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

func TestListSendsAxisFilters(t *testing.T) {
	var gotQuery url.Values
	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_ = json.NewEncoder(w).Encode(store.Page[crm.Application]{
			Items:       []crm.Application{{ID: 1, OverallStatus: crm.OverallInProgress}},
			Total:       1,
			Pages:       1,
			CurrentPage: 1,
			PerPage:     20,
		})
	}))

	page, err := svc.List(context.Background(), Filters{
		DocumentStatus: crm.DocumentVerified,
		FeeStatus:      crm.FeePaid,
		Page:           2,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "verified", gotQuery.Get("document_status"))
	assert.Equal(t, "paid", gotQuery.Get("fee_status"))
	assert.Equal(t, "2", gotQuery.Get("page"))
}

func TestUpdateStatusRefreshesStoreEntry(t *testing.T) {
	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_ = json.NewEncoder(w).Encode(store.Page[crm.Application]{
				Items: []crm.Application{{ID: 3, FeeStatus: crm.FeePending}},
				Total: 1, Pages: 1, CurrentPage: 1, PerPage: 20,
			})
			return
		}
		require.Equal(t, "/applications/3/status", r.URL.Path)
		require.Equal(t, http.MethodPut, r.Method)
		var update crm.ApplicationStatusUpdate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&update))
		_ = json.NewEncoder(w).Encode(map[string]crm.Application{
			"application": {ID: 3, FeeStatus: update.FeeStatus, OverallStatus: crm.OverallInProgress},
		})
	}))

	_, err := svc.List(context.Background(), Filters{})
	require.NoError(t, err)

	app, err := svc.UpdateStatus(context.Background(), 3, crm.ApplicationStatusUpdate{
		FeeStatus: crm.FeePaid,
	})
	require.NoError(t, err)
	assert.Equal(t, crm.FeePaid, app.FeeStatus)
	assert.Equal(t, crm.FeePaid, svc.Store().Snapshot().Items[0].FeeStatus)
}

func TestDeleteRemovesFromStore(t *testing.T) {
	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_ = json.NewEncoder(w).Encode(store.Page[crm.Application]{
				Items: []crm.Application{{ID: 1}, {ID: 2}},
				Total: 2, Pages: 1, CurrentPage: 1, PerPage: 20,
			})
			return
		}
		require.Equal(t, http.MethodDelete, r.Method)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "deleted"})
	}))

	_, err := svc.List(context.Background(), Filters{})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), 2))

	snap := svc.Store().Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 1, snap.Items[0].ID)
	// Totals mirror the server; they are not adjusted locally.
	assert.Equal(t, 2, snap.Pagination.Total)
}

func TestStatsCached(t *testing.T) {
	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/applications/stats", r.URL.Path)
		_ = json.NewEncoder(w).Encode(crm.ApplicationStats{Total: 40, Completed: 10, CompletionRate: 25})
	}))

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 40, stats.Total)

	cached := svc.Store().Stats()
	require.NotNil(t, cached)
	assert.InDelta(t, 25, cached.CompletionRate, 0.001)
}

func TestOwnerIDFallsBackToZero(t *testing.T) {
	app := crm.Application{ID: 1}
	assert.Zero(t, app.OwnerID())

	app.Lead = &crm.Lead{ID: 5, AssignedTo: 9}
	assert.Equal(t, 9, app.OwnerID())
}

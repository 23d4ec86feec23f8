package reports

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admitcrm/internal/crm"
	"admitcrm/internal/gateway"
	"admitcrm/internal/notify"
	"admitcrm/internal/platform/config"
	"admitcrm/internal/session"
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
	return NewService(gw, notify.Discard{})
}

func reportHandler(t *testing.T, calls *int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		switch r.URL.Path {
		case "/reports/dashboard":
			var stats crm.DashboardStats
			stats.Leads.Total = 120
			stats.Tasks.Overdue = 3
			stats.ConversionRate = 18.5
			_ = json.NewEncoder(w).Encode(stats)
		case "/reports/conversion-funnel":
			_ = json.NewEncoder(w).Encode(map[string][]crm.FunnelStage{
				"funnel": {{Stage: "Inquiry", Count: 120}, {Stage: "Enrolled", Count: 14}},
			})
		case "/reports/lead-trends":
			assert.Equal(t, "30", r.URL.Query().Get("days"))
			_ = json.NewEncoder(w).Encode(map[string][]crm.TrendPoint{
				"trends": {{Date: "2026-08-01", Count: 4}},
			})
		case "/reports/recent-activities":
			_ = json.NewEncoder(w).Encode(map[string][]crm.Activity{
				"activities": {{ID: 1, Type: crm.ActivityStageChange}},
			})
		case "/reports/stage-distribution":
			_ = json.NewEncoder(w).Encode(map[string][]crm.StageCount{
				"distribution": {{StageID: 1, StageName: "Inquiry", Count: 80}},
			})
		default:
			http.NotFound(w, r)
		}
	})
}

func TestWarmDashboardFetchesAllPanels(t *testing.T) {
	var calls int32
	svc := testService(t, reportHandler(t, &calls))

	dash, err := svc.WarmDashboard(context.Background(), 30)
	require.NoError(t, err)

	require.NotNil(t, dash.Stats)
	assert.Equal(t, 120, dash.Stats.Leads.Total)
	assert.Len(t, dash.Funnel, 2)
	assert.Len(t, dash.LeadTrends, 1)
	assert.Len(t, dash.RecentMoves, 1)
	assert.Len(t, dash.Distribution, 1)
	assert.EqualValues(t, 5, atomic.LoadInt32(&calls))

	cached := svc.Last()
	require.NotNil(t, cached.Stats)
	assert.InDelta(t, 18.5, cached.Stats.ConversionRate, 0.001)
}

func TestWarmDashboardFailsWhenPanelFails(t *testing.T) {
	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/reports/conversion-funnel" {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "server_error", "message": "funnel broken"})
			return
		}
		reportHandler(t, nil).ServeHTTP(w, r)
	}))

	_, err := svc.WarmDashboard(context.Background(), 30)
	require.Error(t, err)
}

func TestUserPerformance(t *testing.T) {
	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reports/user-performance", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string][]crm.UserPerformance{
			"performance": {{UserID: 2, UserName: "Mina", Role: crm.RoleExecutive, LeadsConverted: 6}},
		})
	}))

	perf, err := svc.UserPerformance(context.Background())
	require.NoError(t, err)
	require.Len(t, perf, 1)
	assert.Equal(t, 6, perf[0].LeadsConverted)
}

func TestApplicationStatusRollup(t *testing.T) {
	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(crm.ApplicationStatusRollup{
			DocumentStatus: map[string]int{"verified": 9, "pending": 3},
			FeeStatus:      map[string]int{"paid": 7},
		})
	}))

	rollup, err := svc.ApplicationStatusRollup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, rollup.DocumentStatus["verified"])
	assert.Equal(t, 7, rollup.FeeStatus["paid"])
}

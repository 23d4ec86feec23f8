package auth

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
	"go.uber.org/mock/gomock"

	"admitcrm/internal/crm"
	"admitcrm/internal/gateway"
	"admitcrm/internal/notify"
	"admitcrm/internal/notify/mocks"
	"admitcrm/internal/platform/config"
	"admitcrm/internal/session"
)

func testService(t *testing.T, handler http.Handler, n notify.Notifier) (*Service, session.Keyring) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	keyring := session.NewMemoryKeyring()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw := gateway.New(config.Client{BaseURL: srv.URL}, keyring, log,
		gateway.WithHTTPClient(srv.Client()))
	return NewService(gw, keyring, session.New(keyring), n), keyring
}

func TestLoginPersistsTokensAndUser(t *testing.T) {
	svc, keyring := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		var req crm.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "asha@example.com", req.Email)
		_ = json.NewEncoder(w).Encode(crm.LoginResponse{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			User:         crm.User{ID: 1, Name: "Asha", Role: crm.RoleAdmin},
		})
	}), nil)

	user, err := svc.Login(context.Background(), crm.LoginRequest{
		Email: "asha@example.com", Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "Asha", user.Name)

	assert.Equal(t, "access-1", keyring.AccessToken())
	assert.Equal(t, "refresh-1", keyring.RefreshToken())
	require.NotNil(t, keyring.User())

	snap := svc.Session().Snapshot()
	assert.True(t, snap.IsAuthenticated)
	assert.False(t, snap.Loading)
	require.NotNil(t, snap.User)
	assert.Equal(t, crm.RoleAdmin, snap.User.Role)
}

func TestLoginValidatesBeforeRequest(t *testing.T) {
	called := false
	svc, _ := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}), nil)

	_, err := svc.Login(context.Background(), crm.LoginRequest{Email: "not-an-email"})
	require.Error(t, err)
	assert.False(t, called)
}

func TestLoginFailureNotifiesServerMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	n := mocks.NewMockNotifier(ctrl)
	n.EXPECT().Error("Invalid credentials")

	svc, keyring := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": "unauthorized", "message": "Invalid credentials",
		})
	}), n)

	_, err := svc.Login(context.Background(), crm.LoginRequest{
		Email: "asha@example.com", Password: "wrong",
	})
	require.Error(t, err)
	assert.Empty(t, keyring.AccessToken())

	snap := svc.Session().Snapshot()
	assert.False(t, snap.IsAuthenticated)
	assert.Equal(t, "Invalid credentials", snap.Err)
}

func TestLogoutClearsEverything(t *testing.T) {
	svc, keyring := testService(t, http.NotFoundHandler(), nil)
	require.NoError(t, keyring.SetTokens("a", "r"))
	require.NoError(t, keyring.SetUser(&crm.User{ID: 1}))
	svc.Session().Dispatch(session.LoginSuccess{User: crm.User{ID: 1}})

	require.NoError(t, svc.Logout())

	assert.Empty(t, keyring.AccessToken())
	assert.Nil(t, keyring.User())
	assert.False(t, svc.Session().Snapshot().IsAuthenticated)
}

func TestRefreshUserUpdatesSession(t *testing.T) {
	svc, keyring := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/me", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]crm.User{
			"user": {ID: 1, Name: "Asha", Role: crm.RoleTeamLead},
		})
	}), nil)
	require.NoError(t, keyring.SetTokens("a", "r"))

	user, err := svc.RefreshUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, crm.RoleTeamLead, user.Role)
	assert.Equal(t, crm.RoleTeamLead, keyring.User().Role)
	assert.Equal(t, crm.RoleTeamLead, svc.Session().CurrentUser().Role)
}

func TestUsersFilterQuery(t *testing.T) {
	var gotQuery string
	svc, keyring := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(map[string][]crm.User{
			"users": {{ID: 2, Role: crm.RoleExecutive}},
		})
	}), nil)
	require.NoError(t, keyring.SetTokens("a", "r"))

	active := true
	users, err := svc.Users(context.Background(), UserFilters{Role: crm.RoleExecutive, IsActive: &active})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Contains(t, gotQuery, "role=Executive")
	assert.Contains(t, gotQuery, "is_active=true")
}

func TestUpdateUserRefreshesOwnSession(t *testing.T) {
	svc, keyring := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/users/1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]crm.User{
			"user": {ID: 1, Name: "Asha Renamed", Role: crm.RoleAdmin},
		})
	}), nil)
	require.NoError(t, keyring.SetTokens("a", "r"))
	svc.Session().Dispatch(session.LoginSuccess{User: crm.User{ID: 1, Name: "Asha"}})

	user, err := svc.UpdateUser(context.Background(), 1, UserUpdate{Name: "Asha Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Asha Renamed", user.Name)
	assert.Equal(t, "Asha Renamed", svc.Session().CurrentUser().Name)
}

func TestCheckerFollowsSession(t *testing.T) {
	svc, _ := testService(t, http.NotFoundHandler(), nil)
	assert.False(t, svc.Checker().CanViewReports())

	svc.Session().Dispatch(session.LoginSuccess{User: crm.User{ID: 1, Role: crm.RoleAdmin}})
	assert.True(t, svc.Checker().CanViewReports())
}

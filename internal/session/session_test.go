package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admitcrm/internal/crm"
)

func writeJunk(path string) error {
	return os.WriteFile(path, []byte("{not json"), 0o600)
}

func TestFileKeyringRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds", "credentials.json")

	k, err := OpenFileKeyring(path)
	require.NoError(t, err)
	assert.False(t, k.IsAuthenticated())

	require.NoError(t, k.SetTokens("access-1", "refresh-1"))
	require.NoError(t, k.SetUser(&crm.User{ID: 3, Name: "Asha", Role: crm.RoleAdmin}))
	assert.True(t, k.IsAuthenticated())

	// A fresh open must see everything the previous process persisted.
	reopened, err := OpenFileKeyring(path)
	require.NoError(t, err)
	assert.Equal(t, "access-1", reopened.AccessToken())
	assert.Equal(t, "refresh-1", reopened.RefreshToken())
	require.NotNil(t, reopened.User())
	assert.Equal(t, crm.RoleAdmin, reopened.User().Role)
}

func TestFileKeyringClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	k, err := OpenFileKeyring(path)
	require.NoError(t, err)
	require.NoError(t, k.SetTokens("a", "r"))

	require.NoError(t, k.Clear())
	assert.False(t, k.IsAuthenticated())
	assert.Empty(t, k.RefreshToken())
	assert.Nil(t, k.User())

	reopened, err := OpenFileKeyring(path)
	require.NoError(t, err)
	assert.False(t, reopened.IsAuthenticated())
}

func TestFileKeyringSetTokensOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	k, err := OpenFileKeyring(path)
	require.NoError(t, err)
	require.NoError(t, k.SetTokens("a1", "r1"))
	require.NoError(t, k.SetTokens("a2", "r2"))
	assert.Equal(t, "a2", k.AccessToken())
	assert.Equal(t, "r2", k.RefreshToken())
}

func TestFileKeyringCorruptFileIsLoggedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	k, err := OpenFileKeyring(path)
	require.NoError(t, err)
	require.NoError(t, k.SetTokens("a", "r"))

	// Truncate to junk.
	require.NoError(t, writeJunk(path))

	reopened, err := OpenFileKeyring(path)
	require.NoError(t, err)
	assert.False(t, reopened.IsAuthenticated())
}

func TestSessionColdStartSeedsFromKeyring(t *testing.T) {
	k := NewMemoryKeyring()
	require.NoError(t, k.SetTokens("access", "refresh"))
	require.NoError(t, k.SetUser(&crm.User{ID: 1, Role: crm.RoleConsultant}))

	s := New(k)
	snap := s.Snapshot()
	assert.True(t, snap.IsAuthenticated)
	require.NotNil(t, snap.User)
	assert.Equal(t, crm.RoleConsultant, snap.User.Role)
}

func TestSessionLoginLifecycle(t *testing.T) {
	s := New(NewMemoryKeyring())

	s.Dispatch(LoginStart{})
	assert.True(t, s.Snapshot().Loading)

	s.Dispatch(LoginSuccess{User: crm.User{ID: 2, Role: crm.RoleTeamLead}})
	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	assert.True(t, snap.IsAuthenticated)
	require.NotNil(t, snap.User)
	assert.Equal(t, 2, snap.User.ID)
}

func TestSessionLoginFailureResets(t *testing.T) {
	s := New(NewMemoryKeyring())
	s.Dispatch(LoginSuccess{User: crm.User{ID: 2}})
	s.Dispatch(LoginStart{})
	s.Dispatch(LoginFailure{Message: "invalid credentials"})

	snap := s.Snapshot()
	assert.False(t, snap.IsAuthenticated)
	assert.Nil(t, snap.User)
	assert.Equal(t, "invalid credentials", snap.Err)
}

func TestSessionLogoutResetsEverything(t *testing.T) {
	s := New(NewMemoryKeyring())
	s.Dispatch(LoginSuccess{User: crm.User{ID: 2}})
	s.Dispatch(Logout{})

	assert.Equal(t, State{}, s.Snapshot())
}

func TestSessionUpdateUser(t *testing.T) {
	s := New(NewMemoryKeyring())
	s.Dispatch(LoginSuccess{User: crm.User{ID: 2, Name: "Old"}})
	s.Dispatch(UpdateUser{User: crm.User{ID: 2, Name: "New"}})

	require.NotNil(t, s.CurrentUser())
	assert.Equal(t, "New", s.CurrentUser().Name)
	// UpdateUser leaves the authenticated flag alone.
	assert.True(t, s.Snapshot().IsAuthenticated)
}

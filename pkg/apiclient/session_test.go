package apiclient

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store, err := NewSessionStore(path)
	require.NoError(t, err)

	// Missing file means logged out, not an error.
	sess, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, sess.AccessToken)

	saved := &Session{
		AccessToken:  "a",
		RefreshToken: "r",
		User:         &Profile{Email: "chi@mekong.vn", Role: "customer"},
	}
	require.NoError(t, store.Save(saved))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	// A fresh store re-reads what the first one wrote.
	reopened, err := NewSessionStore(path)
	require.NoError(t, err)
	sess, err = reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, "a", sess.AccessToken)
	require.NotNil(t, sess.User)
	assert.Equal(t, "chi@mekong.vn", sess.User.Email)

	require.NoError(t, store.Clear())
	sess, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, sess.RefreshToken)

	// Clearing twice is fine.
	assert.NoError(t, store.Clear())
}

func TestSessionStoreToleratesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store, err := NewSessionStore(path)
	require.NoError(t, err)
	sess, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, sess.AccessToken)
	assert.Nil(t, sess.User)
}

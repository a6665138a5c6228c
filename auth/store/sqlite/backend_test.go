package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/storegate/auth/store"
)

func TestBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "auth.db")

	backend, err := Open(dsn)
	require.NoError(t, err)
	s := store.New(backend)
	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.SetCredential(ctx, &store.Credential{AccessToken: "at", RefreshToken: "rt"}))
	require.NoError(t, s.SetSession(ctx, &store.Session{UserID: "u-1", Email: "a@b.c"}))
	require.NoError(t, backend.Close())

	reopened, err := Open(dsn)
	require.NoError(t, err)
	defer reopened.Close()
	restored := store.New(reopened)
	require.NoError(t, restored.Init(ctx))
	credential, ok := restored.LookupCredential()
	require.True(t, ok)
	assert.Equal(t, &store.Credential{AccessToken: "at", RefreshToken: "rt"}, credential)
	session, ok := restored.LookupSession()
	require.True(t, ok)
	assert.Equal(t, "u-1", session.UserID)

	require.NoError(t, restored.Clear(ctx))
	entries, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBackend_MigrationsAreIdempotent(t *testing.T) {
	backend, err := Open(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	defer backend.Close()
	assert.NoError(t, backend.ApplyMigrations())
}

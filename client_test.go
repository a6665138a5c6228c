package storegate

import (
	"context"
	"net/http"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/storegate/auth/mock"
	"github.com/viant/storegate/auth/session"
	"github.com/viant/storegate/config"
	"github.com/viant/storegate/gateway/failure"
)

func noSleep(context.Context, time.Duration) error { return nil }

func login(t *testing.T, client *Client, backend *mock.Backend) {
	t.Helper()
	ctx := context.Background()
	installURL, err := client.Session.Login(ctx, "demo")
	require.NoError(t, err)
	parsed, err := url.Parse(installURL)
	require.NoError(t, err)
	query := backend.CallbackQuery(parsed.Host, parsed.Query().Get("state"), "1700000000")
	params, err := session.ParseCallback(query.Encode())
	require.NoError(t, err)
	_, err = client.Session.CompleteLogin(ctx, params)
	require.NoError(t, err)
}

func TestNew_UnauthorizedNavigatesToLogin(t *testing.T) {
	backend, err := mock.New()
	require.NoError(t, err)
	defer backend.Close()

	var routes []string
	client, err := New(context.Background(),
		&config.Options{BaseURL: backend.BaseURL(), LoginRoute: "/signin", Store: config.Store{Type: config.StoreMemory}},
		WithLogger(zerolog.Nop()),
		WithSleeper(noSleep),
		WithRegisterer(prometheus.NewRegistry()),
		WithNavigator(session.NavigatorFunc(func(_ context.Context, route string) { routes = append(routes, route) })))
	require.NoError(t, err)
	defer client.Close()

	login(t, client, backend)
	require.True(t, client.Session.IsAuthenticated())

	backend.Script(mock.APIPrefix+"/products", http.StatusServiceUnavailable, http.StatusUnauthorized)
	err = client.Gateway.Get(context.Background(), "/products", nil)
	assert.ErrorIs(t, err, failure.ErrAuth)
	assert.Equal(t, 2, backend.Hits(mock.APIPrefix+"/products"))
	assert.False(t, client.Session.IsAuthenticated())
	assert.Equal(t, []string{"/signin"}, routes)
}

func TestNew_StoreSurvivesRestart(t *testing.T) {
	backend, err := mock.New()
	require.NoError(t, err)
	defer backend.Close()
	dir := t.TempDir()

	var useCases = []struct {
		description string
		store       config.Store
	}{
		{
			description: "sealed file",
			store:       config.Store{Type: config.StoreFile, URL: "file://" + filepath.Join(dir, "auth.json"), EncryptionKey: "0123456789abcdef"},
		},
		{
			description: "sqlite",
			store:       config.Store{Type: config.StoreSQLite, URL: filepath.Join(dir, "state", "auth.db")},
		},
	}
	for _, useCase := range useCases {
		options := func() *config.Options {
			return &config.Options{BaseURL: backend.BaseURL(), Store: useCase.store}
		}
		first, err := New(context.Background(), options(), WithLogger(zerolog.Nop()), WithSleeper(noSleep))
		require.NoError(t, err, useCase.description)
		login(t, first, backend)
		expected, ok := first.Store.LookupCredential()
		require.True(t, ok, useCase.description)
		require.NoError(t, first.Close(), useCase.description)

		second, err := New(context.Background(), options(), WithLogger(zerolog.Nop()), WithSleeper(noSleep))
		require.NoError(t, err, useCase.description)
		actual, ok := second.Store.LookupCredential()
		require.True(t, ok, useCase.description)
		assert.Equal(t, expected, actual, useCase.description)
		assert.NoError(t, second.Gateway.Get(context.Background(), "/stores", nil), useCase.description)

		second.Session.Logout(context.Background())
		assert.False(t, second.Session.IsAuthenticated(), useCase.description)
		require.NoError(t, second.Close(), useCase.description)
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(context.Background(), &config.Options{})
	assert.Error(t, err)
	_, err = New(context.Background(), nil)
	assert.Error(t, err)
	_, err = New(context.Background(), &config.Options{BaseURL: "http://localhost", Store: config.Store{Type: config.StoreMemory, EncryptionKey: "short"}}, WithLogger(zerolog.Nop()))
	assert.Error(t, err)
}

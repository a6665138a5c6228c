package session

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/storegate/auth/mock"
	"github.com/viant/storegate/auth/store"
	"github.com/viant/storegate/gateway"
	"github.com/viant/storegate/gateway/failure"
)

type fixture struct {
	backend    *mock.Backend
	tokens     store.Store
	gateway    *gateway.Gateway
	controller *Controller
	routes     []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newStoreFixture(t, store.NewMemoryStore())
}

func newStoreFixture(t *testing.T, tokens store.Store) *fixture {
	t.Helper()
	backend, err := mock.New()
	require.NoError(t, err)
	t.Cleanup(backend.Close)
	ret := &fixture{backend: backend, tokens: tokens}
	ret.gateway = gateway.New(backend.BaseURL(), ret.tokens,
		gateway.WithSleeper(func(context.Context, time.Duration) error { return nil }),
		gateway.WithLogger(zerolog.Nop()))
	ret.controller = New(ret.tokens, ret.gateway,
		WithLogger(zerolog.Nop()),
		WithNavigator(NavigatorFunc(func(_ context.Context, route string) {
			ret.routes = append(ret.routes, route)
		})))
	ret.gateway.OnUnauthorized(ret.controller.Expire)
	return ret
}

func (f *fixture) login(t *testing.T, shop string) *store.Credential {
	t.Helper()
	ctx := context.Background()
	installURL, err := f.controller.Login(ctx, shop)
	require.NoError(t, err)
	parsed, err := url.Parse(installURL)
	require.NoError(t, err)
	query := f.backend.CallbackQuery(parsed.Host, parsed.Query().Get("state"), "1700000000")
	params, err := ParseCallback("https://app.example.com/callback?" + query.Encode())
	require.NoError(t, err)
	credential, err := f.controller.CompleteLogin(ctx, params)
	require.NoError(t, err)
	return credential
}

func TestNormalizeShopDomain(t *testing.T) {
	var useCases = []struct {
		description string
		input       string
		expect      string
		expectErr   bool
	}{
		{description: "bare name", input: "demo", expect: "demo.myshopify.com"},
		{description: "full domain", input: "demo.myshopify.com", expect: "demo.myshopify.com"},
		{description: "scheme and slash", input: "https://Demo-Shop.myshopify.com/", expect: "demo-shop.myshopify.com"},
		{description: "admin path", input: "demo.myshopify.com/admin", expect: "demo.myshopify.com"},
		{description: "foreign domain", input: "demo.example.com", expectErr: true},
		{description: "leading dash", input: "-demo", expectErr: true},
		{description: "empty", input: " ", expectErr: true},
	}
	for _, useCase := range useCases {
		actual, err := NormalizeShopDomain(useCase.input)
		if useCase.expectErr {
			assert.ErrorIs(t, err, ErrInvalidShopDomain, useCase.description)
			continue
		}
		require.NoError(t, err, useCase.description)
		assert.Equal(t, useCase.expect, actual, useCase.description)
	}
}

func TestParseCallback(t *testing.T) {
	params, err := ParseCallback("https://app.example.com/callback?shop=demo.myshopify.com&code=c&state=s&hmac=h&timestamp=1")
	require.NoError(t, err)
	assert.Equal(t, &CallbackParams{Shop: "demo.myshopify.com", Code: "c", State: "s", HMAC: "h", Timestamp: "1"}, params)
	assert.NoError(t, params.Validate())

	bare, err := ParseCallback("shop=demo.myshopify.com&code=c")
	require.NoError(t, err)
	assert.Equal(t, "c", bare.Code)
	assert.Error(t, bare.Validate())
}

func TestController_LoginRoundTrip(t *testing.T) {
	f := newFixture(t)
	credential := f.login(t, "demo")

	stored, ok := f.tokens.LookupCredential()
	require.True(t, ok)
	assert.Equal(t, credential, stored)
	assert.True(t, credential.HasRefreshToken())
	assert.True(t, f.controller.IsAuthenticated())

	session, ok := f.controller.Session()
	require.True(t, ok)
	assert.Equal(t, f.backend.Email, session.Email)
	assert.True(t, session.HasPermission("stores:read"))
	primary, ok := session.PrimaryStore()
	require.True(t, ok)
	assert.Equal(t, "demo.myshopify.com", primary.Domain)

	resource := map[string]interface{}{}
	require.NoError(t, f.gateway.Get(context.Background(), "/stores", &resource))
	assert.Equal(t, true, resource["ok"])
}

func TestController_LoginInvalidDomain(t *testing.T) {
	f := newFixture(t)
	_, err := f.controller.Login(context.Background(), "demo.example.com")
	assert.ErrorIs(t, err, ErrInvalidShopDomain)
	assert.Equal(t, 0, f.backend.Hits(mock.APIPrefix+installPath))
}

func TestController_CompleteLoginRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	installURL, err := f.controller.Login(ctx, "demo")
	require.NoError(t, err)
	parsed, err := url.Parse(installURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")

	var useCases = []struct {
		description string
		params      func() *CallbackParams
		remote      bool
	}{
		{
			description: "missing code",
			params: func() *CallbackParams {
				return &CallbackParams{Shop: "demo.myshopify.com", State: state, HMAC: "h", Timestamp: "1"}
			},
		},
		{
			description: "unknown state",
			params: func() *CallbackParams {
				return &CallbackParams{Shop: "demo.myshopify.com", Code: "c", State: "other", HMAC: "h", Timestamp: "1"}
			},
		},
		{
			description: "bad signature",
			params: func() *CallbackParams {
				return &CallbackParams{Shop: "demo.myshopify.com", Code: mock.CallbackCode, State: state, HMAC: "bad", Timestamp: "1"}
			},
			remote: true,
		},
	}
	for _, useCase := range useCases {
		credential, err := f.controller.CompleteLogin(ctx, useCase.params())
		assert.Nil(t, credential, useCase.description)
		assert.ErrorIs(t, err, ErrAuthExchange, useCase.description)
		exchangeErr := &AuthExchangeError{}
		assert.True(t, errors.As(err, &exchangeErr), useCase.description)
		if useCase.remote {
			assert.ErrorIs(t, err, failure.ErrClient, useCase.description)
			assert.Equal(t, "Invalid HMAC signature", failure.UserMessage(err), useCase.description)
		}
		assert.False(t, f.controller.IsAuthenticated(), useCase.description)
	}
}

// saveFailingBackend fails every Save after the first n.
type saveFailingBackend struct {
	store.Backend
	n     int
	saves int
}

func (f *saveFailingBackend) Save(ctx context.Context, entries store.Entries) error {
	f.saves++
	if f.saves > f.n {
		return errors.New("disk full")
	}
	return f.Backend.Save(ctx, entries)
}

func (f *fixture) callback(t *testing.T, shop string) *CallbackParams {
	t.Helper()
	installURL, err := f.controller.Login(context.Background(), shop)
	require.NoError(t, err)
	parsed, err := url.Parse(installURL)
	require.NoError(t, err)
	params, err := ParseCallback(f.backend.CallbackQuery(parsed.Host, parsed.Query().Get("state"), "1700000000").Encode())
	require.NoError(t, err)
	return params
}

func TestController_CompleteLoginStoreFailure(t *testing.T) {
	t.Run("first login leaves nothing stored", func(t *testing.T) {
		f := newStoreFixture(t, store.New(&saveFailingBackend{Backend: store.NewMemoryBackend()}))
		credential, err := f.controller.CompleteLogin(context.Background(), f.callback(t, "demo"))
		assert.Error(t, err)
		assert.Nil(t, credential)
		assert.False(t, f.controller.IsAuthenticated())
		_, ok := f.controller.Session()
		assert.False(t, ok)
	})
	t.Run("re-login keeps the previous pair", func(t *testing.T) {
		f := newStoreFixture(t, store.New(&saveFailingBackend{Backend: store.NewMemoryBackend(), n: 1}))
		previous := f.login(t, "demo")
		previousSession, ok := f.controller.Session()
		require.True(t, ok)

		_, err := f.controller.CompleteLogin(context.Background(), f.callback(t, "other"))
		assert.Error(t, err)
		current, ok := f.tokens.LookupCredential()
		require.True(t, ok)
		assert.Equal(t, previous, current)
		currentSession, ok := f.controller.Session()
		require.True(t, ok)
		assert.Equal(t, previousSession, currentSession)
	})
}

func TestController_CompleteLoginWithoutPendingState(t *testing.T) {
	f := newFixture(t)
	installURL, err := f.controller.Login(context.Background(), "demo")
	require.NoError(t, err)
	parsed, err := url.Parse(installURL)
	require.NoError(t, err)

	// a fresh process handles the callback
	other := New(f.tokens, f.gateway, WithLogger(zerolog.Nop()))
	query := f.backend.CallbackQuery("demo.myshopify.com", parsed.Query().Get("state"), "1")
	params, err := ParseCallback(query.Encode())
	require.NoError(t, err)
	_, err = other.CompleteLogin(context.Background(), params)
	require.NoError(t, err)
	assert.True(t, other.IsAuthenticated())
}

func TestController_Refresh(t *testing.T) {
	t.Run("rotates credential", func(t *testing.T) {
		f := newFixture(t)
		previous := f.login(t, "demo")
		assert.True(t, f.controller.Refresh(context.Background()))
		current, ok := f.tokens.LookupCredential()
		require.True(t, ok)
		assert.NotEqual(t, previous.AccessToken, current.AccessToken)
		assert.NotEqual(t, previous.RefreshToken, current.RefreshToken)
		_, ok = f.controller.Session()
		assert.True(t, ok)
	})
	t.Run("preserves omitted refresh token", func(t *testing.T) {
		f := newFixture(t)
		previous := f.login(t, "demo")
		f.backend.OmitRefreshToken(true)
		assert.True(t, f.controller.Refresh(context.Background()))
		current, ok := f.tokens.LookupCredential()
		require.True(t, ok)
		assert.Equal(t, previous.RefreshToken, current.RefreshToken)
	})
	t.Run("no refresh token clears store", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.tokens.SetCredential(context.Background(), &store.Credential{AccessToken: "only-access"}))
		assert.False(t, f.controller.Refresh(context.Background()))
		_, ok := f.tokens.LookupCredential()
		assert.False(t, ok)
	})
	t.Run("empty store", func(t *testing.T) {
		f := newFixture(t)
		assert.False(t, f.controller.Refresh(context.Background()))
	})
	t.Run("rejected grant clears store without retry", func(t *testing.T) {
		f := newFixture(t)
		f.login(t, "demo")
		f.backend.RevokeRefreshTokens()
		assert.False(t, f.controller.Refresh(context.Background()))
		assert.False(t, f.controller.IsAuthenticated())
		_, ok := f.controller.Session()
		assert.False(t, ok)
		assert.Equal(t, 1, f.backend.Hits(mock.APIPrefix+"/auth/token"))
	})
	t.Run("server failure is not retried", func(t *testing.T) {
		f := newFixture(t)
		f.login(t, "demo")
		f.backend.Script(mock.APIPrefix+"/auth/token", http.StatusServiceUnavailable)
		assert.False(t, f.controller.Refresh(context.Background()))
		assert.Equal(t, 1, f.backend.Hits(mock.APIPrefix+"/auth/token"))
	})
}

func TestController_Logout(t *testing.T) {
	var useCases = []struct {
		description  string
		logoutStatus int
		script       []int
	}{
		{description: "remote accepts", logoutStatus: http.StatusOK},
		{description: "remote rejects", logoutStatus: http.StatusBadRequest},
		{description: "remote unavailable", script: []int{http.StatusBadGateway, http.StatusBadGateway, http.StatusBadGateway, http.StatusBadGateway}},
	}
	for _, useCase := range useCases {
		f := newFixture(t)
		f.login(t, "demo")
		if useCase.logoutStatus != 0 {
			f.backend.SetLogoutStatus(useCase.logoutStatus)
		}
		if len(useCase.script) > 0 {
			f.backend.Script(mock.APIPrefix+logoutPath, useCase.script...)
		}
		f.controller.Logout(context.Background())
		_, ok := f.tokens.LookupCredential()
		assert.False(t, ok, useCase.description)
		_, ok = f.tokens.LookupSession()
		assert.False(t, ok, useCase.description)
		authorizations := f.backend.Authorizations(mock.APIPrefix + logoutPath)
		require.NotEmpty(t, authorizations, useCase.description)
		assert.True(t, strings.HasPrefix(authorizations[0], "Bearer "), useCase.description)
	}
}

func TestController_LogoutUnauthorizedDoesNotNavigate(t *testing.T) {
	f := newFixture(t)
	f.login(t, "demo")
	f.backend.Script(mock.APIPrefix+logoutPath, http.StatusUnauthorized)
	f.controller.Logout(context.Background())
	assert.False(t, f.controller.IsAuthenticated())
	assert.Empty(t, f.routes)
	assert.Equal(t, 1, f.backend.Hits(mock.APIPrefix+logoutPath))
}

func TestController_LogoutUnauthenticated(t *testing.T) {
	f := newFixture(t)
	f.controller.Logout(context.Background())
	assert.Equal(t, 0, f.backend.Hits(mock.APIPrefix+logoutPath))
	assert.False(t, f.controller.IsAuthenticated())
}

func TestController_ExpireOnUnauthorized(t *testing.T) {
	f := newFixture(t)
	f.login(t, "demo")
	f.backend.Script(mock.APIPrefix+"/products", http.StatusUnauthorized)

	err := f.gateway.Get(context.Background(), "/products", nil)
	assert.ErrorIs(t, err, failure.ErrAuth)
	assert.Equal(t, 1, f.backend.Hits(mock.APIPrefix+"/products"))
	assert.False(t, f.controller.IsAuthenticated())
	assert.Equal(t, []string{DefaultLoginRoute}, f.routes)
}

func TestController_ExpireCustomRoute(t *testing.T) {
	tokens := store.NewMemoryStore()
	require.NoError(t, tokens.SetCredential(context.Background(), &store.Credential{AccessToken: "a"}))
	var routes []string
	controller := New(tokens, nil,
		WithLogger(zerolog.Nop()),
		WithLoginRoute("/auth/sign-in"),
		WithNavigator(NavigatorFunc(func(_ context.Context, route string) { routes = append(routes, route) })))
	controller.Expire(context.Background(), &failure.Error{Class: failure.AuthError, StatusCode: http.StatusUnauthorized})
	assert.False(t, controller.IsAuthenticated())
	assert.Equal(t, []string{"/auth/sign-in"}, routes)
}

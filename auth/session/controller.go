package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/viant/afs/url"
	"github.com/viant/storegate/auth/store"
	"github.com/viant/storegate/gateway"
	"github.com/viant/storegate/gateway/failure"
	"golang.org/x/oauth2"
)

const (
	installPath  = "/auth/shopify/install"
	callbackPath = "/auth/shopify/callback"
	logoutPath   = "/auth/logout"
	tokenPath    = "auth/token"
)

// Requester sends requests through the gateway.
type Requester interface {
	Do(ctx context.Context, request *gateway.Request, target interface{}) error
	BaseURL() string
}

// Controller owns the credential lifecycle. It is the only writer of the
// store besides the gateway's 401 teardown.
type Controller struct {
	store        store.Store
	requester    Requester
	navigator    Navigator
	loginRoute   string
	oauth2Config *oauth2.Config
	httpClient   *http.Client
	logger       zerolog.Logger

	mux     sync.Mutex
	pending map[string]string
}

type shopRequest struct {
	Shop string `json:"shop"`
}

type installResponse struct {
	InstallURL string `json:"install_url"`
	State      string `json:"state"`
	ShopDomain string `json:"shop_domain"`
}

type callbackResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	Session      *store.Session `json:"session"`
}

// New creates a controller.
func New(tokens store.Store, requester Requester, options ...Option) *Controller {
	ret := &Controller{
		store:      tokens,
		requester:  requester,
		loginRoute: DefaultLoginRoute,
		logger:     log.Logger,
		pending:    map[string]string{},
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Login starts the install handshake for shopDomain and returns the URL the
// merchant has to visit. It does not obtain a token.
func (c *Controller) Login(ctx context.Context, shopDomain string) (string, error) {
	shop, err := NormalizeShopDomain(shopDomain)
	if err != nil {
		return "", err
	}
	request, err := gateway.NewRequest(http.MethodPost, installPath, &shopRequest{Shop: shop})
	if err != nil {
		return "", err
	}
	response := &installResponse{}
	if err = c.requester.Do(ctx, request, response); err != nil {
		return "", fmt.Errorf("failed to initiate login for %v: %w", shop, err)
	}
	if response.InstallURL == "" {
		return "", fmt.Errorf("failed to initiate login for %v: install url was empty", shop)
	}
	if response.State != "" {
		c.mux.Lock()
		c.pending[response.State] = shop
		c.mux.Unlock()
	}
	return response.InstallURL, nil
}

// CompleteLogin exchanges callback parameters for a credential and stores it
// together with the returned session.
func (c *Controller) CompleteLogin(ctx context.Context, params *CallbackParams) (*store.Credential, error) {
	if err := params.Validate(); err != nil {
		return nil, &AuthExchangeError{Err: err}
	}
	if err := c.claimState(params); err != nil {
		return nil, &AuthExchangeError{Err: err}
	}
	request, err := gateway.NewRequest(http.MethodGet, callbackPath, nil)
	if err != nil {
		return nil, err
	}
	response := &callbackResponse{}
	if err = c.requester.Do(ctx, request.WithQuery(params.Values()), response); err != nil {
		return nil, &AuthExchangeError{Err: err}
	}
	if response.AccessToken == "" {
		return nil, &AuthExchangeError{Err: errors.New("access token was empty")}
	}
	credential := &store.Credential{AccessToken: response.AccessToken, RefreshToken: response.RefreshToken}
	if err = c.store.Set(ctx, credential, response.Session); err != nil {
		return nil, err
	}
	c.logger.Info().Str("shop", params.Shop).Msg("login completed")
	return credential, nil
}

// claimState consumes the pending state for params. Without pending logins
// (e.g. a callback handled by a fresh process) the backend's signature and
// state checks are relied upon.
func (c *Controller) claimState(params *CallbackParams) error {
	c.mux.Lock()
	defer c.mux.Unlock()
	if len(c.pending) == 0 {
		return nil
	}
	shop, ok := c.pending[params.State]
	if !ok {
		return ErrStateMismatch
	}
	if normalized, err := NormalizeShopDomain(params.Shop); err != nil || normalized != shop {
		return fmt.Errorf("%w: shop %v was not %v", ErrStateMismatch, params.Shop, shop)
	}
	delete(c.pending, params.State)
	return nil
}

// Refresh exchanges the stored refresh token for a new access token. Any
// failure clears the store and returns false; it never retries.
func (c *Controller) Refresh(ctx context.Context) bool {
	credential, ok := c.store.LookupCredential()
	if !ok || !credential.HasRefreshToken() {
		c.clear(ctx)
		return false
	}
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}
	config := c.tokenConfig()
	token, err := config.TokenSource(ctx, &oauth2.Token{RefreshToken: credential.RefreshToken}).Token()
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to refresh token")
		c.clear(ctx)
		return false
	}
	refreshed := &store.Credential{AccessToken: token.AccessToken, RefreshToken: token.RefreshToken}
	// preserve refresh token if provider omitted it
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = credential.RefreshToken
	}
	if err = c.store.SetCredential(ctx, refreshed); err != nil {
		c.logger.Warn().Err(err).Msg("failed to store refreshed token")
		c.clear(ctx)
		return false
	}
	return true
}

func (c *Controller) tokenConfig() *oauth2.Config {
	if c.oauth2Config != nil {
		return c.oauth2Config
	}
	return &oauth2.Config{Endpoint: oauth2.Endpoint{
		TokenURL:  url.Join(c.requester.BaseURL(), tokenPath),
		AuthStyle: oauth2.AuthStyleInParams,
	}}
}

// Logout notifies the remote service and always clears local state.
// Remote failures are logged, not returned.
func (c *Controller) Logout(ctx context.Context) {
	defer c.clear(ctx)
	if _, ok := c.store.LookupCredential(); !ok {
		return
	}
	shop := ""
	if session, ok := c.store.LookupSession(); ok {
		if primary, ok := session.PrimaryStore(); ok {
			shop = primary.Domain
		}
	}
	request, err := gateway.NewRequest(http.MethodPost, logoutPath, &shopRequest{Shop: shop})
	if err == nil {
		// an explicit logout is not a session expiry
		request.SuppressUnauthorized = true
		err = c.requester.Do(ctx, request, nil)
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("shop", shop).Msg("failed to revoke session")
	}
}

// IsAuthenticated reports whether an access token is held locally. It does
// not validate the token remotely.
func (c *Controller) IsAuthenticated() bool {
	_, ok := c.store.LookupCredential()
	return ok
}

// Session returns the cached session.
func (c *Controller) Session() (*store.Session, bool) {
	return c.store.LookupSession()
}

// Expire tears down the session after a terminal auth failure and sends the
// application to the login route. Its signature matches gateway.Listener.
func (c *Controller) Expire(ctx context.Context, cause *failure.Error) {
	c.clear(ctx)
	event := c.logger.Info().Str("route", c.loginRoute)
	if cause != nil {
		event = event.Int("status", cause.StatusCode)
	}
	event.Msg("session expired")
	if c.navigator != nil {
		c.navigator.Navigate(ctx, c.loginRoute)
	}
}

func (c *Controller) clear(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("failed to clear token store")
	}
}

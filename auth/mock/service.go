package mock

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"sync"
)

// APIPrefix is the versioned base path served by the backend.
const APIPrefix = "/api/v1"

// Backend is a scripted remote service.
type Backend struct {
	*httptest.Server
	Issuer      string
	ClientID    string
	APISecret   string
	PrivateKey  *rsa.PrivateKey
	UserID      string
	Email       string
	Permissions []string

	mu               sync.Mutex
	logoutStatus     int
	omitRefreshToken bool
	states           map[string]string
	accessTokens     map[string]bool
	refreshTokens    map[string]bool
	scripts          map[string][]int
	hits             map[string]int
	authorizations   map[string][]string
}

// New starts a backend.
func New() (*Backend, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	ret := &Backend{
		ClientID:       "test_client_id",
		APISecret:      "test_api_secret",
		PrivateKey:     key,
		UserID:         "user-1",
		Email:          "owner@example.com",
		Permissions:    []string{"stores:read", "products:write"},
		logoutStatus:   http.StatusOK,
		states:         map[string]string{},
		accessTokens:   map[string]bool{},
		refreshTokens:  map[string]bool{},
		scripts:        map[string][]int{},
		hits:           map[string]int{},
		authorizations: map[string][]string{},
	}
	ret.Server = httptest.NewServer(&Handler{Backend: ret})
	ret.Issuer = ret.Server.URL
	return ret, nil
}

// BaseURL returns the versioned API base URL.
func (b *Backend) BaseURL() string {
	return b.URL + APIPrefix
}

// Script makes path reply with statuses in order before falling back to the
// default behaviour.
func (b *Backend) Script(path string, statuses ...int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scripts[path] = append([]int(nil), statuses...)
}

// Hits returns how many requests path received.
func (b *Backend) Hits(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

// Authorizations returns the Authorization headers received by path.
func (b *Backend) Authorizations(path string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.authorizations[path]...)
}

// SetLogoutStatus makes the logout endpoint reply with status.
func (b *Backend) SetLogoutStatus(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logoutStatus = status
}

// OmitRefreshToken makes the token endpoint leave refresh_token out of responses.
func (b *Backend) OmitRefreshToken(omit bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.omitRefreshToken = omit
}

// RevokeRefreshTokens invalidates every issued refresh token.
func (b *Backend) RevokeRefreshTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshTokens = map[string]bool{}
}

// IssueCredential returns a valid access/refresh pair without a login flow.
func (b *Backend) IssueCredential() (string, string, error) {
	return b.issue()
}

func (b *Backend) record(r *http.Request) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	path := r.URL.Path
	b.hits[path]++
	b.authorizations[path] = append(b.authorizations[path], r.Header.Get("Authorization"))
	script := b.scripts[path]
	if len(script) == 0 {
		return 0, false
	}
	b.scripts[path] = script[1:]
	return script[0], true
}

func (b *Backend) issue() (string, string, error) {
	accessToken, err := b.createJWT("access_token", accessTokenTTL)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := b.createJWT("refresh_token", refreshTokenTTL)
	if err != nil {
		return "", "", err
	}
	b.mu.Lock()
	b.accessTokens[accessToken] = true
	b.refreshTokens[refreshToken] = true
	b.mu.Unlock()
	return accessToken, refreshToken, nil
}

func (b *Backend) validAccessToken(token string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.accessTokens[token]
}

func (b *Backend) consumeRefreshToken(token string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.refreshTokens[token] {
		return false
	}
	delete(b.refreshTokens, token)
	return true
}

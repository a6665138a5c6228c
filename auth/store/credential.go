package store

import (
	"encoding/json"
	"errors"
)

// Named entries persisted by a Backend.
const (
	AccessTokenEntry  = "access_token"
	RefreshTokenEntry = "refresh_token"
	SessionEntry      = "session"
)

// ErrInvalidCredential is returned when a credential without access token is stored.
var ErrInvalidCredential = errors.New("credential has no access token")

// Credential is the access/refresh token pair identifying an authenticated session.
type Credential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// HasRefreshToken reports whether the credential can be refreshed.
func (c *Credential) HasRefreshToken() bool {
	return c != nil && c.RefreshToken != ""
}

func (c *Credential) clone() *Credential {
	if c == nil {
		return nil
	}
	ret := *c
	return &ret
}

// StoreSummary is a denormalised view of a connected shop.
type StoreSummary struct {
	ID     string `json:"id"`
	Domain string `json:"shopify_domain"`
	Name   string `json:"store_name,omitempty"`
}

// Session is a non-authoritative cache of the signed-in user.
type Session struct {
	UserID      string         `json:"user_id"`
	Email       string         `json:"email"`
	Permissions []string       `json:"permissions,omitempty"`
	Stores      []StoreSummary `json:"stores,omitempty"`
}

// HasPermission reports whether permission was granted at login time.
// The remote service remains authoritative.
func (s *Session) HasPermission(permission string) bool {
	if s == nil {
		return false
	}
	for _, candidate := range s.Permissions {
		if candidate == permission {
			return true
		}
	}
	return false
}

// PrimaryStore returns the first store of the session, if any.
func (s *Session) PrimaryStore() (StoreSummary, bool) {
	if s == nil || len(s.Stores) == 0 {
		return StoreSummary{}, false
	}
	return s.Stores[0], true
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	ret := *s
	ret.Permissions = append([]string(nil), s.Permissions...)
	ret.Stores = append([]StoreSummary(nil), s.Stores...)
	return &ret
}

// Entries holds persisted string entries keyed by entry name.
type Entries map[string]string

func newEntries(credential *Credential, session *Session) (Entries, error) {
	ret := Entries{}
	if credential != nil {
		ret[AccessTokenEntry] = credential.AccessToken
		if credential.RefreshToken != "" {
			ret[RefreshTokenEntry] = credential.RefreshToken
		}
	}
	if session != nil {
		data, err := json.Marshal(session)
		if err != nil {
			return nil, err
		}
		ret[SessionEntry] = string(data)
	}
	return ret, nil
}

func (e Entries) decode() (*Credential, *Session, error) {
	var credential *Credential
	if accessToken := e[AccessTokenEntry]; accessToken != "" {
		credential = &Credential{AccessToken: accessToken, RefreshToken: e[RefreshTokenEntry]}
	}
	var session *Session
	if data := e[SessionEntry]; data != "" {
		session = &Session{}
		if err := json.Unmarshal([]byte(data), session); err != nil {
			return nil, nil, err
		}
	}
	if credential == nil {
		// a session without credential is not a valid observable state
		session = nil
	}
	return credential, session, nil
}

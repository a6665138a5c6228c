package mock

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// CallbackCode is the only authorization code the backend accepts.
const CallbackCode = "test_authorization_code"

type installRequest struct {
	Shop string `json:"shop"`
}

func (b *Backend) installHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	request := &installRequest{}
	if err := json.NewDecoder(r.Body).Decode(request); err != nil || request.Shop == "" {
		writeDetail(w, http.StatusBadRequest, "Shop domain is required")
		return
	}
	state := uuid.NewString()
	b.mu.Lock()
	b.states[state] = request.Shop
	b.mu.Unlock()
	query := url.Values{}
	query.Set("client_id", b.ClientID)
	query.Set("scope", "read_products,write_products")
	query.Set("redirect_uri", b.URL+"/callback")
	query.Set("state", state)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"install_url": "https://" + request.Shop + "/admin/oauth/authorize?" + query.Encode(),
		"state":       state,
		"shop_domain": request.Shop,
		"message":     "Redirect user to install_url to complete OAuth flow",
	})
}

func (b *Backend) callbackHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeDetail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	query := r.URL.Query()
	for _, name := range []string{"shop", "code", "state", "hmac", "timestamp"} {
		if query.Get(name) == "" {
			writeDetail(w, http.StatusUnprocessableEntity, "missing parameter: "+name)
			return
		}
	}
	if !hmac.Equal([]byte(b.SignCallback(query)), []byte(query.Get("hmac"))) {
		writeDetail(w, http.StatusBadRequest, "Invalid HMAC signature")
		return
	}
	b.mu.Lock()
	shop, ok := b.states[query.Get("state")]
	if ok {
		delete(b.states, query.Get("state"))
	}
	b.mu.Unlock()
	if !ok || shop != query.Get("shop") {
		writeDetail(w, http.StatusBadRequest, "Invalid state parameter")
		return
	}
	if query.Get("code") != CallbackCode {
		writeDetail(w, http.StatusBadRequest, "Failed to exchange code for token")
		return
	}
	accessToken, refreshToken, err := b.issue()
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "OAuth callback failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "OAuth flow completed successfully",
		"success":       true,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"session": map[string]interface{}{
			"user_id":     b.UserID,
			"email":       b.Email,
			"permissions": b.Permissions,
			"stores": []map[string]string{
				{"id": "store-1", "shopify_domain": shop, "store_name": strings.TrimSuffix(shop, ".myshopify.com")},
			},
		},
	})
}

// SignCallback computes the hex HMAC-SHA256 of the sorted callback parameters,
// excluding hmac and signature, keyed by the API secret.
func (b *Backend) SignCallback(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "hmac" || k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params.Get(k))
	}
	mac := hmac.New(sha256.New, []byte(b.APISecret))
	mac.Write([]byte(strings.Join(pairs, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}

// CallbackQuery builds a signed callback query for shop and state, as the
// storefront would redirect with after the merchant approves the install.
func (b *Backend) CallbackQuery(shop, state, timestamp string) url.Values {
	query := url.Values{}
	query.Set("shop", shop)
	query.Set("code", CallbackCode)
	query.Set("state", state)
	query.Set("timestamp", timestamp)
	query.Set("hmac", b.SignCallback(query))
	return query
}

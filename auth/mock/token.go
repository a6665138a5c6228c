package mock

import (
	"encoding/json"
	"net/http"
	"strings"
)

// tokenHandler serves the refresh_token grant.
func (b *Backend) tokenHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	if r.FormValue("grant_type") != "refresh_token" {
		writeOAuthError(w, "unsupported_grant_type")
		return
	}
	if !b.consumeRefreshToken(r.FormValue("refresh_token")) {
		writeOAuthError(w, "invalid_grant")
		return
	}
	accessToken, refreshToken, err := b.issue()
	if err != nil {
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	response := map[string]interface{}{
		"access_token": accessToken,
		"token_type":   "Bearer",
		"expires_in":   int(accessTokenTTL.Seconds()),
	}
	b.mu.Lock()
	omit := b.omitRefreshToken
	b.mu.Unlock()
	if !omit {
		response["refresh_token"] = refreshToken
	}
	writeJSON(w, http.StatusOK, response)
}

func (b *Backend) logoutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	request := &installRequest{}
	if err := json.NewDecoder(r.Body).Decode(request); err != nil || request.Shop == "" {
		writeDetail(w, http.StatusBadRequest, "Shop domain is required")
		return
	}
	b.mu.Lock()
	status := b.logoutStatus
	b.mu.Unlock()
	if status != http.StatusOK {
		writeDetail(w, status, "Logout failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Logged out successfully", "success": true})
}

// resourceHandler simulates a protected resource under any other path.
func (b *Backend) resourceHandler(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || !b.validAccessToken(parts[1]) {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"path": strings.TrimPrefix(r.URL.Path, APIPrefix), "ok": true})
}

func writeOAuthError(w http.ResponseWriter, code string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": code})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

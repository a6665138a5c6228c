package mock

import (
	"net/http"
	"strings"
)

// Handler routes requests to the mock endpoints.
type Handler struct {
	Backend *Backend
}

// ServeHTTP dispatches by path; scripted statuses win over default handlers.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if status, ok := h.Backend.record(r); ok {
		writeDetail(w, status, http.StatusText(status))
		return
	}
	if !strings.HasPrefix(r.URL.Path, APIPrefix) {
		http.NotFound(w, r)
		return
	}
	switch strings.TrimPrefix(r.URL.Path, APIPrefix) {
	case "/auth/shopify/install":
		h.Backend.installHandler(w, r)
	case "/auth/shopify/callback":
		h.Backend.callbackHandler(w, r)
	case "/auth/token":
		h.Backend.tokenHandler(w, r)
	case "/auth/logout":
		h.Backend.logoutHandler(w, r)
	default:
		h.Backend.resourceHandler(w, r)
	}
}

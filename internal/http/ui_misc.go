package httpx

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
)

// SignedOut renders a simple signed-out page with a Sign In button.
func (h *UIHandlers) SignedOut(w http.ResponseWriter, r *http.Request) {
	redirect := safeRedirectPath(r.URL.Query().Get("redirect_uri"))
	loginURL := "/auth/login?redirect_uri=" + url.QueryEscape(redirect)
	if h.T == nil {
		http.Redirect(w, r, loginURL, http.StatusSeeOther)
		return
	}

	data := map[string]any{
		"Title":       "Signed out - Product Admin",
		"RedirectURI": redirect,
		"LoginURL":    loginURL,
	}
	var buf bytes.Buffer
	if err := h.T.executeTo(&buf, "signed-out-page", data); err != nil {
		http.Redirect(w, r, loginURL, http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger().Error("failed to write signed-out response", "error", err)
	}
}

// NotFound renders an HTML 404 page for browsers and a JSON error for API clients.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if IsBrowserRequest(r) {
		h.renderErrorPage(w, r, http.StatusNotFound, "The page you're looking for doesn't exist.")
		return
	}
	WriteError(w, ErrorParams{
		Code:    http.StatusNotFound,
		ErrCode: "not_found",
		Err:     errors.New("not found"),
	})
}

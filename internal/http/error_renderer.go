package httpx

import (
	"net/http"
	"strconv"
)

// errorPage is the data behind the error-layout template.
type errorPage struct {
	Title           string
	Code            string
	Message         string
	IsAuthenticated bool
	ShowLogin       bool
	RedirectURI     string
}

// renderErrorPage answers a browser request with the error page, or a bare status for htmx
// requests since htmx does not swap error responses.
func (h *UIHandlers) renderErrorPage(w http.ResponseWriter, r *http.Request, status int, message string) {
	if IsHTMX(r) || h.T == nil {
		http.Error(w, message, status)
		return
	}

	authenticated := GetSessionFromContext(r.Context()) != nil
	data := errorPage{
		Title:           http.StatusText(status) + " - Product Admin",
		Code:            strconv.Itoa(status),
		Message:         message,
		IsAuthenticated: authenticated,
		ShowLogin:       h.AuthEnabled && !authenticated,
		RedirectURI:     r.URL.RequestURI(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.T.RenderError(w, r, data); err != nil {
		h.logger().Error("failed to render error page", "status", status, "error", err)
	}
}

// renderServerError logs err and shows a generic error page.
func (h *UIHandlers) renderServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger().Error("request failed",
		"error", err,
		"path", r.URL.Path,
		"method", r.Method,
	)
	h.renderErrorPage(w, r, http.StatusInternalServerError, "Something went wrong loading this page. Please try again.")
}

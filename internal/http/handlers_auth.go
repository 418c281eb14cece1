package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/target/mmk-product-admin/internal/domain/auth"
	"github.com/target/mmk-product-admin/internal/ports"
	"github.com/target/mmk-product-admin/internal/service"
)

const (
	oauthStateCookie    = "oauth_state"
	oauthNonceCookie    = "oauth_nonce"
	postLoginCookie     = "post_login_redirect"
	oauthCookieLifetime = 10 * time.Minute
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	BeginLogin(ctx context.Context, redirectURL string) (ports.LoginChallenge, error)
	CompleteLogin(ctx context.Context, in service.CallbackInput) (*domainauth.Session, error)
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

var _ AuthServiceInterface = (*service.AuthService)(nil)

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	CookieDomain string
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Login starts the login flow.
// GET /auth/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	ch, err := h.Svc.BeginLogin(r.Context(), redirectURI)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("unable to start login"),
		})
		return
	}

	h.setTempCookie(w, r, oauthStateCookie, ch.State)
	h.setTempCookie(w, r, oauthNonceCookie, ch.Nonce)
	h.setTempCookie(w, r, postLoginCookie, redirectURI)
	http.Redirect(w, r, ch.URL, http.StatusFound)
}

// Callback completes the login flow.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := service.CallbackInput{
		Code:  q.Get("code"),
		State: q.Get("state"),
	}
	if in.Code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	if c, err := r.Cookie(oauthStateCookie); err == nil {
		in.ExpectedState = c.Value
	}
	if c, err := r.Cookie(oauthNonceCookie); err == nil {
		in.Nonce = c.Value
	}

	session, err := h.Svc.CompleteLogin(r.Context(), in)
	if err != nil {
		status, code := http.StatusInternalServerError, "login_completion_failed"
		if errors.Is(err, service.ErrStateMismatch) || in.Nonce == "" {
			status, code = http.StatusBadRequest, "invalid_state"
		}
		h.logger().WarnContext(r.Context(), "login callback rejected", "error", err)
		WriteError(w, ErrorParams{Code: status, ErrCode: code, Err: errors.New("login could not be completed")})
		return
	}

	h.setSessionCookie(w, r, session)
	h.clearCookie(w, r, oauthStateCookie)
	h.clearCookie(w, r, oauthNonceCookie)
	http.Redirect(w, r, h.postLoginRedirect(w, r), http.StatusFound)
}

// Logout ends the session.
// GET|POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookieName); err == nil {
		if logoutErr := h.Svc.Logout(r.Context(), c.Value); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", logoutErr)
		}
	}
	h.clearCookie(w, r, SessionCookieName)

	redirectURI := r.FormValue("redirect_uri")
	if redirectURI == "" {
		redirectURI = "/"
	}
	signedOut := url.URL{Path: "/auth/signed-out", RawQuery: url.Values{"redirect_uri": {safeRedirectPath(redirectURI)}}.Encode()}

	if IsHTMX(r) {
		SetHXRedirect(w, signedOut.String())
		w.WriteHeader(http.StatusOK)
		return
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "success", "redirect_to": signedOut.String()})
		return
	}
	http.Redirect(w, r, signedOut.String(), http.StatusFound)
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	session := getSessionFromRequest(r, h.Svc)
	if session == nil {
		if _, err := r.Cookie(SessionCookieName); err == nil {
			h.clearCookie(w, r, SessionCookieName)
		}
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"subject": session.Subject,
			"name":    session.Name,
			"email":   session.Email,
			"role":    session.Role,
		},
		"expires_at": session.ExpiresAt,
	})
}

func (h *AuthHandlers) setTempCookie(w http.ResponseWriter, r *http.Request, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(oauthCookieLifetime.Seconds()),
	})
}

func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s *domainauth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    s.ID,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
	})
}

// clearCookie mirrors the attributes used when setting cookies so browsers drop them.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// postLoginRedirect returns the stored destination and clears its cookie.
func (h *AuthHandlers) postLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(postLoginCookie)
	if err != nil {
		return "/"
	}
	h.clearCookie(w, r, postLoginCookie)
	return safeRedirectPath(c.Value)
}

// Package auth holds the identity and session types of the admin UI.
package auth

import "time"

// Role is the authorization level of a signed-in user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
	RoleGuest  Role = "guest"
)

// CanView reports whether the role may open the product listing.
func (r Role) CanView() bool { return r == RoleAdmin || r == RoleViewer }

// CanManage reports whether the role may create products and contacts.
func (r Role) CanManage() bool { return r == RoleAdmin }

// Identity is the principal returned by a login provider.
type Identity struct {
	Subject   string
	Name      string
	Email     string
	Groups    []string
	ExpiresAt time.Time
}

// Session is the server-side record behind the session cookie.
type Session struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }

// DisplayName is the label shown in the page header.
func (s Session) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Email != "" {
		return s.Email
	}
	return s.Subject
}

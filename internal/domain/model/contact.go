//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// Contact is the entity products are filtered by.
type Contact struct {
	ID        int64     `json:"id"         db:"id"`
	Name      string    `json:"name"       db:"name"`
	Email     string    `json:"email"      db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ContactListOptions controls paging and search when listing contacts.
type ContactListOptions struct {
	Limit  int
	Offset int
	Search string // substring match on name (ILIKE)
}

// CreateContactRequest represents parameters to create a Contact.
type CreateContactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Validate validates CreateContactRequest.
func (r *CreateContactRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	if r.Name == "" {
		return errors.New("name is required and cannot be empty")
	}
	if r.Email != "" {
		if _, err := mail.ParseAddress(r.Email); err != nil {
			return errors.New("email is invalid")
		}
	}
	return nil
}

// Package models contains the domain types shared by the client and the views.
package models

import (
	"strings"
	"time"
)

// MediaKind is the coarse file category used for display.
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindPDF   MediaKind = "pdf"
	KindText  MediaKind = "text"
	KindJSON  MediaKind = "json"
	KindOther MediaKind = "other"
)

// ParseMediaKind maps the server's type string to a MediaKind.
// Both the short names ("image", "pdf") and MIME types are accepted.
func ParseMediaKind(s string) MediaKind {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}

	switch s {
	case "image":
		return KindImage
	case "pdf", "application/pdf":
		return KindPDF
	case "text":
		return KindText
	case "json", "application/json":
		return KindJSON
	}

	switch {
	case strings.HasPrefix(s, "image/"):
		return KindImage
	case strings.HasPrefix(s, "text/"):
		return KindText
	}
	return KindOther
}

// FileResource describes one uploaded file. It is owned by the server
// and never mutated on the client.
type FileResource struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      MediaKind `json:"kind"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	URL       string    `json:"url"`
}

// Identity is the display identity of a signed-in user.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NewIdentity builds an Identity from an email address; Name is its local part.
func NewIdentity(email string) Identity {
	name := email
	if i := strings.IndexByte(email, '@'); i >= 0 {
		name = email[:i]
	}
	return Identity{Email: email, Name: name}
}

// IsZero reports whether no identity is known.
func (i Identity) IsZero() bool {
	return i.Email == ""
}

// Session pairs an opaque bearer token with the identity it was issued for.
type Session struct {
	Token    string   `json:"token"`
	Identity Identity `json:"identity"`
}

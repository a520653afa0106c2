package models

import "testing"

func TestParseMediaKind(t *testing.T) {
	tests := []struct {
		in   string
		want MediaKind
	}{
		{"image", KindImage},
		{"pdf", KindPDF},
		{"text", KindText},
		{"json", KindJSON},
		{"IMAGE", KindImage},
		{"image/png", KindImage},
		{"application/pdf", KindPDF},
		{"text/plain; charset=utf-8", KindText},
		{"application/json", KindJSON},
		{"application/zip", KindOther},
		{"", KindOther},
		{"video", KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseMediaKind(tt.in); got != tt.want {
				t.Errorf("ParseMediaKind(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewIdentity(t *testing.T) {
	id := NewIdentity("alice@example.com")
	if id.Name != "alice" {
		t.Errorf("expected name alice, got %s", id.Name)
	}
	if id.Email != "alice@example.com" {
		t.Errorf("expected email alice@example.com, got %s", id.Email)
	}

	noAt := NewIdentity("bob")
	if noAt.Name != "bob" {
		t.Errorf("expected name bob, got %s", noAt.Name)
	}

	if !(Identity{}).IsZero() {
		t.Error("expected zero identity")
	}
}

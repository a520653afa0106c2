package session

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/typeface/typeface/internal/testserver"
	"github.com/typeface/typeface/pkg/client"
	"github.com/typeface/typeface/pkg/credstore"
	"github.com/typeface/typeface/pkg/models"
)

type recordingNav struct {
	paths []string
}

func (n *recordingNav) Navigate(ctx context.Context, path string) error {
	n.paths = append(n.paths, path)
	return nil
}

func (n *recordingNav) last() string {
	if len(n.paths) == 0 {
		return ""
	}
	return n.paths[len(n.paths)-1]
}

func newController(t *testing.T) (*Controller, *credstore.Store, *testserver.Server, *recordingNav) {
	t.Helper()
	srv := testserver.New(t)
	store := credstore.New(t.TempDir(), srv.URL)
	c := client.New(client.Config{BaseURL: srv.URL})
	ctrl := New(store, c)
	nav := &recordingNav{}
	ctrl.SetNavigator(nav)
	return ctrl, store, srv, nav
}

func TestInit_Empty(t *testing.T) {
	ctrl, _, _, _ := newController(t)
	if err := ctrl.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if ctrl.Authenticated() {
		t.Error("expected Unauthenticated with empty store")
	}
	if ctrl.Token() != "" {
		t.Error("expected no token")
	}
}

func TestInit_RestoresSession(t *testing.T) {
	ctrl, store, _, _ := newController(t)
	if err := store.Set("opaque-token", "alice@example.com"); err != nil {
		t.Fatal(err)
	}

	if err := ctrl.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !ctrl.Authenticated() {
		t.Fatal("expected Authenticated")
	}
	if ctrl.Identity().Email != "alice@example.com" || ctrl.Identity().Name != "alice" {
		t.Errorf("unexpected identity %+v", ctrl.Identity())
	}
	if ctrl.Token() != "opaque-token" {
		t.Errorf("unexpected token %q", ctrl.Token())
	}
}

func TestInit_TokenWithoutIdentity(t *testing.T) {
	ctrl, store, _, _ := newController(t)
	if err := store.Set("opaque-token", ""); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if ctrl.Authenticated() {
		t.Error("token without identity must not authenticate")
	}
}

func TestInit_IdentityFromClaims(t *testing.T) {
	ctrl, store, srv, _ := newController(t)
	tok := srv.IssueToken("claims@example.com")
	if err := store.Set(tok, ""); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !ctrl.Authenticated() {
		t.Fatal("expected identity from token claims")
	}
	if ctrl.Identity().Email != "claims@example.com" {
		t.Errorf("unexpected identity %+v", ctrl.Identity())
	}
}

func TestSignIn_ReturnsToRequestedRoute(t *testing.T) {
	ctrl, store, srv, nav := newController(t)
	srv.AddUser("bob@example.com", "hunter2")

	ctrl.RememberReturn("/view/abc123")
	if err := ctrl.SignIn(context.Background(), "bob@example.com", "hunter2"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	if !ctrl.Authenticated() {
		t.Fatal("expected Authenticated")
	}
	creds, err := store.Get()
	if err != nil {
		t.Fatalf("store.Get: %v", err)
	}
	if creds.Token == "" || creds.Token != ctrl.Token() {
		t.Errorf("token not retrievable from store: %q vs %q", creds.Token, ctrl.Token())
	}
	if nav.last() != "/view/abc123" {
		t.Errorf("expected navigation back to /view/abc123, got %q", nav.last())
	}
	if ctrl.ReturnTo() != "" {
		t.Error("return path should be consumed")
	}
}

func TestLogin_DefaultsHome(t *testing.T) {
	ctrl, _, _, nav := newController(t)
	if err := ctrl.Login(context.Background(), "tok", "carol@example.com"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if nav.last() != "/home" {
		t.Errorf("expected /home, got %q", nav.last())
	}
	if ctrl.Identity().Name != "carol" {
		t.Errorf("unexpected identity %+v", ctrl.Identity())
	}
	want := models.Session{Token: "tok", Identity: models.Identity{Email: "carol@example.com", Name: "carol"}}
	if got := ctrl.Session(); got != want {
		t.Errorf("Session() = %+v, want %+v", got, want)
	}
}

func TestSignIn_BadCredentials(t *testing.T) {
	ctrl, store, srv, nav := newController(t)
	srv.AddUser("bob@example.com", "hunter2")

	err := ctrl.SignIn(context.Background(), "bob@example.com", "wrong")
	if !errors.Is(err, client.ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
	if ctrl.Authenticated() {
		t.Error("failed sign-in must not authenticate")
	}
	if _, err := store.Get(); !errors.Is(err, credstore.ErrAbsent) {
		t.Errorf("nothing should be stored, got %v", err)
	}
	if len(nav.paths) != 0 {
		t.Errorf("no navigation expected, got %v", nav.paths)
	}
}

func TestLogout(t *testing.T) {
	ctrl, store, _, nav := newController(t)
	if err := ctrl.Login(context.Background(), "tok", "dave@example.com"); err != nil {
		t.Fatal(err)
	}

	if err := ctrl.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if ctrl.Authenticated() || ctrl.Token() != "" || !ctrl.Identity().IsZero() {
		t.Error("expected signed-out state")
	}
	if ctrl.Session() != (models.Session{}) {
		t.Errorf("expected zero session, got %+v", ctrl.Session())
	}
	if _, err := store.Get(); !errors.Is(err, credstore.ErrAbsent) {
		t.Errorf("expected store to report absent, got %v", err)
	}
	if nav.last() != "/login" {
		t.Errorf("expected /login, got %q", nav.last())
	}
}

func TestExpire_RemembersRoute(t *testing.T) {
	ctrl, _, _, nav := newController(t)
	if err := ctrl.Login(context.Background(), "tok", "erin@example.com"); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.Expire(context.Background(), "/home"); err != nil {
		t.Fatalf("Expire: %v", err)
	}
	if ctrl.Authenticated() {
		t.Error("expected Unauthenticated")
	}
	if ctrl.ReturnTo() != "/home" {
		t.Errorf("expected return path /home, got %q", ctrl.ReturnTo())
	}
	if nav.last() != "/login" {
		t.Errorf("expected /login, got %q", nav.last())
	}
}

func TestSignUp(t *testing.T) {
	ctrl, _, srv, nav := newController(t)

	msg, err := ctrl.SignUp(context.Background(), "frank@example.com", "pw")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if msg == "" {
		t.Error("expected server message")
	}
	if ctrl.Authenticated() {
		t.Error("sign-up must not authenticate")
	}
	if nav.last() != "/login" {
		t.Errorf("expected /login, got %q", nav.last())
	}

	if n := srv.Count("POST", "/api/auth/register"); n != 1 {
		t.Errorf("expected one register call, got %d", n)
	}
	if err := ctrl.SignIn(context.Background(), "frank@example.com", "pw"); err != nil {
		t.Fatalf("SignIn after SignUp: %v", err)
	}
}

func TestIdentityFromToken(t *testing.T) {
	sign := func(claims jwt.MapClaims) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
		if err != nil {
			t.Fatal(err)
		}
		return tok
	}

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"email claim", sign(jwt.MapClaims{"email": "a@example.com"}), "a@example.com"},
		{"sub fallback", sign(jwt.MapClaims{"sub": "b@example.com"}), "b@example.com"},
		{"sub without email", sign(jwt.MapClaims{"sub": "12345"}), ""},
		{"opaque", "not-a-jwt", ""},
		{"garbage segments", "a.b.c", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IdentityFromToken(tt.token).Email; got != tt.want {
				t.Errorf("IdentityFromToken = %q, want %q", got, tt.want)
			}
		})
	}
}

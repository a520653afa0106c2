// Package session owns the authenticated/unauthenticated state of the client.
//
// A Controller is created once per process and handed to everything that
// needs the current token or identity. It is the only writer of the
// credential store.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/typeface/typeface/internal/logging"
	"github.com/typeface/typeface/internal/metrics"
	"github.com/typeface/typeface/internal/route"
	"github.com/typeface/typeface/pkg/credstore"
	"github.com/typeface/typeface/pkg/models"
	"github.com/typeface/typeface/pkg/protocol"
)

// State is the session state.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Navigator moves the application to a path.
type Navigator interface {
	Navigate(ctx context.Context, path string) error
}

// CredentialStore persists the token and display identity.
type CredentialStore interface {
	Set(token, email string) error
	Get() (*credstore.Credentials, error)
	Clear() error
}

// Authenticator performs the login and registration calls.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*protocol.LoginResponse, error)
	Register(ctx context.Context, username, email, password string) (string, error)
}

// Controller holds the session state and performs its transitions.
type Controller struct {
	store CredentialStore
	auth  Authenticator

	mu       sync.RWMutex
	nav      Navigator
	state    State
	current  models.Session
	returnTo string
}

// New creates a controller in the Unauthenticated state. Call Init to
// restore a persisted session.
func New(store CredentialStore, auth Authenticator) *Controller {
	return &Controller{store: store, auth: auth}
}

// SetNavigator sets where transitions navigate to. Without one,
// transitions only change state.
func (c *Controller) SetNavigator(nav Navigator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nav = nav
}

// Init derives the initial state from the credential store.
func (c *Controller) Init() error {
	creds, err := c.store.Get()
	if errors.Is(err, credstore.ErrAbsent) {
		c.setUnauthenticated("")
		return nil
	}
	if err != nil {
		c.setUnauthenticated("")
		return fmt.Errorf("load credentials: %w", err)
	}

	if !creds.HasToken() {
		c.setUnauthenticated("")
		return nil
	}

	identity := IdentityFromToken(creds.Token)
	if identity.IsZero() && creds.Email != "" {
		identity = models.NewIdentity(creds.Email)
	}
	if identity.IsZero() {
		logging.Debug("stored token has no identity, staying signed out")
		c.setUnauthenticated("")
		return nil
	}

	c.setAuthenticated(creds.Token, identity)
	logging.Debug("session restored", zap.String("email", identity.Email))
	return nil
}

// Login stores the token, enters Authenticated and navigates to the route
// that was originally requested, or home.
func (c *Controller) Login(ctx context.Context, token, email string) error {
	if err := c.store.Set(token, email); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}

	identity := IdentityFromToken(token)
	if identity.IsZero() {
		identity = models.NewIdentity(email)
	}
	c.setAuthenticated(token, identity)
	logging.Info("signed in", zap.String("email", identity.Email))

	c.mu.Lock()
	dest := c.returnTo
	c.returnTo = ""
	c.mu.Unlock()
	if dest == "" {
		dest = route.Home
	}
	return c.navigate(ctx, dest)
}

// Logout clears stored credentials, enters Unauthenticated and navigates to login.
func (c *Controller) Logout(ctx context.Context) error {
	return c.signOut(ctx, "")
}

// Expire is Logout after the server rejected the token; current is
// remembered so that the next Login returns to it.
func (c *Controller) Expire(ctx context.Context, current string) error {
	logging.Info("session rejected by server", zap.String("path", current))
	return c.signOut(ctx, current)
}

func (c *Controller) signOut(ctx context.Context, returnTo string) error {
	clearErr := c.store.Clear()
	if clearErr != nil {
		logging.Warn("failed to clear credentials", zap.Error(clearErr))
	}
	c.setUnauthenticated(returnTo)

	if err := c.navigate(ctx, route.Login); err != nil {
		return err
	}
	if clearErr != nil {
		return fmt.Errorf("clear credentials: %w", clearErr)
	}
	return nil
}

// SignIn calls the login endpoint and, on success, performs Login.
func (c *Controller) SignIn(ctx context.Context, email, password string) error {
	resp, err := c.auth.Login(ctx, email, password)
	if err != nil {
		logging.Warn("login failed", zap.String("email", email), zap.Error(err))
		return err
	}
	return c.Login(ctx, resp.Token, email)
}

// SignUp registers an account and navigates to login. The new account is
// not signed in.
func (c *Controller) SignUp(ctx context.Context, email, password string) (string, error) {
	msg, err := c.auth.Register(ctx, models.NewIdentity(email).Name, email, password)
	if err != nil {
		logging.Warn("registration failed", zap.String("email", email), zap.Error(err))
		return "", err
	}
	return msg, c.navigate(ctx, route.Login)
}

// RememberReturn records the path to return to after the next Login.
func (c *Controller) RememberReturn(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.returnTo = path
}

// ReturnTo returns the remembered path, if any.
func (c *Controller) ReturnTo() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.returnTo
}

// Token returns the current bearer token, or "" when signed out.
func (c *Controller) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.Token
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Authenticated reports whether the state is Authenticated.
func (c *Controller) Authenticated() bool {
	return c.State() == Authenticated
}

// Identity returns the signed-in identity; zero when signed out.
func (c *Controller) Identity() models.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.Identity
}

// Session returns the token and identity of the signed-in user; zero when
// signed out.
func (c *Controller) Session() models.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *Controller) navigate(ctx context.Context, path string) error {
	c.mu.RLock()
	nav := c.nav
	c.mu.RUnlock()
	if nav == nil {
		return nil
	}
	return nav.Navigate(ctx, path)
}

func (c *Controller) setAuthenticated(token string, identity models.Identity) {
	c.mu.Lock()
	c.state = Authenticated
	c.current = models.Session{Token: token, Identity: identity}
	c.mu.Unlock()
	metrics.RecordSessionTransition(Authenticated.String())
}

func (c *Controller) setUnauthenticated(returnTo string) {
	c.mu.Lock()
	c.state = Unauthenticated
	c.current = models.Session{}
	c.returnTo = returnTo
	c.mu.Unlock()
	metrics.RecordSessionTransition(Unauthenticated.String())
}

// IdentityFromToken reads a display identity from the claims of a JWT.
// The signature is not verified; the result is only used for display.
// Opaque tokens yield the zero Identity.
func IdentityFromToken(token string) models.Identity {
	if strings.Count(token, ".") != 2 {
		return models.Identity{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return models.Identity{}
	}
	for _, key := range []string{"email", "preferred_username", "sub"} {
		if v, ok := claims[key].(string); ok && strings.Contains(v, "@") {
			return models.NewIdentity(v)
		}
	}
	return models.Identity{}
}

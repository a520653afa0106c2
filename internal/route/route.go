// Package route decides which view a path renders for a given session state.
package route

import (
	"net/url"
	"strings"
)

// Paths known to the application.
const (
	Login  = "/login"
	Signup = "/signup"
	Home   = "/home"
	Root   = "/"

	viewPrefix = "/view/"
)

// Name identifies a route.
type Name int

const (
	NotFound Name = iota
	LoginPage
	SignupPage
	HomePage
	ViewPage
	RootPage
)

func (n Name) String() string {
	switch n {
	case LoginPage:
		return "login"
	case SignupPage:
		return "signup"
	case HomePage:
		return "home"
	case ViewPage:
		return "view"
	case RootPage:
		return "root"
	}
	return "not-found"
}

// Route is a parsed path.
type Route struct {
	Name   Name
	Path   string
	FileID string
}

// Protected reports whether the route requires authentication.
func (r Route) Protected() bool {
	return r.Name == HomePage || r.Name == ViewPage
}

// PublicOnly reports whether authenticated users are sent away from the route.
func (r Route) PublicOnly() bool {
	return r.Name == LoginPage || r.Name == SignupPage
}

// View returns the path of the detail view for a file id.
func View(id string) string {
	return viewPrefix + url.PathEscape(id)
}

// Parse maps a path to a Route.
func Parse(path string) Route {
	p := path
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		p = Root
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}

	switch p {
	case Root:
		return Route{Name: RootPage, Path: p}
	case Login:
		return Route{Name: LoginPage, Path: p}
	case Signup:
		return Route{Name: SignupPage, Path: p}
	case Home:
		return Route{Name: HomePage, Path: p}
	}

	if strings.HasPrefix(p, viewPrefix) {
		raw := strings.TrimPrefix(p, viewPrefix)
		if raw != "" && !strings.Contains(raw, "/") {
			id, err := url.PathUnescape(raw)
			if err == nil {
				return Route{Name: ViewPage, Path: p, FileID: id}
			}
		}
	}
	return Route{Name: NotFound, Path: p}
}

// Decision is the outcome of Resolve.
type Decision struct {
	// Redirect is non-empty when navigation must go elsewhere.
	Redirect string
	// From is the originally requested path, set when redirecting to login.
	From string
	// Route is the route to render when Redirect is empty.
	Route Route
}

// Resolve applies the access rules to a requested path.
func Resolve(path string, authenticated bool) Decision {
	r := Parse(path)

	switch {
	case r.Name == RootPage && authenticated:
		return Decision{Redirect: Home}
	case r.Name == RootPage:
		return Decision{Redirect: Login}
	case r.Protected() && !authenticated:
		return Decision{Redirect: Login, From: r.Path}
	case r.PublicOnly() && authenticated:
		return Decision{Redirect: Home}
	}
	return Decision{Route: r}
}

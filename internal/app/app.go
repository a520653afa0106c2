// Package app ties the session, the route guard and the views together.
//
// An App is driven by one caller at a time. Navigation is synchronous: the
// mounted view has finished loading when Navigate returns.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/typeface/typeface/internal/logging"
	"github.com/typeface/typeface/internal/route"
	"github.com/typeface/typeface/internal/session"
	"github.com/typeface/typeface/internal/views"
	"github.com/typeface/typeface/pkg/client"
)

// maxRedirects bounds redirect chains in Navigate.
const maxRedirects = 4

// ErrRedirectLoop is returned when a path keeps redirecting.
var ErrRedirectLoop = errors.New("too many redirects")

// App is the application shell.
type App struct {
	session *session.Controller

	current    route.Route
	collection *views.Collection
	detail     *views.Detail
}

// New creates an App and registers it as the session's navigator.
func New(sess *session.Controller, api views.FileAPI, alert views.Alerter) *App {
	a := &App{session: sess}
	a.collection = views.NewCollection(api, alert, a)
	a.detail = views.NewDetail(api, alert, a)
	sess.SetNavigator(a)
	return a
}

// Session returns the session controller.
func (a *App) Session() *session.Controller { return a.session }

// Current returns the mounted route.
func (a *App) Current() route.Route { return a.current }

// Collection returns the file list view. It is loaded while /home is mounted.
func (a *App) Collection() *views.Collection { return a.collection }

// Detail returns the file detail view. It is loaded while /view/{id} is mounted.
func (a *App) Detail() *views.Detail { return a.detail }

// Navigate resolves path against the session state, follows redirects and
// mounts the resulting route. Load failures other than 401 are kept by the
// view and not returned; a 401 expires the session.
func (a *App) Navigate(ctx context.Context, path string) error {
	for i := 0; i <= maxRedirects; i++ {
		d := route.Resolve(path, a.session.Authenticated())
		if d.Redirect == "" {
			return a.mount(ctx, d.Route)
		}
		logging.Debug("redirect", zap.String("from", path), zap.String("to", d.Redirect))
		if d.From != "" {
			a.session.RememberReturn(d.From)
		}
		path = d.Redirect
	}
	return fmt.Errorf("navigate %s: %w", path, ErrRedirectLoop)
}

// Reload mounts the current route again.
func (a *App) Reload(ctx context.Context) error {
	path := a.current.Path
	if path == "" {
		path = route.Root
	}
	return a.Navigate(ctx, path)
}

func (a *App) mount(ctx context.Context, r route.Route) error {
	a.current = r
	logging.Debug("mount", zap.String("route", r.Name.String()), zap.String("path", r.Path))

	var err error
	switch r.Name {
	case route.HomePage:
		err = a.collection.Load(ctx)
	case route.ViewPage:
		err = a.detail.Load(ctx, r.FileID)
	default:
		return nil
	}
	if client.IsUnauthorized(err) {
		return a.session.Expire(ctx, r.Path)
	}
	return nil
}

// Upload uploads through the collection view. When the server rejects the
// token while the list is reloaded, the session is expired and the error
// is returned.
func (a *App) Upload(ctx context.Context, content io.Reader, filename string) error {
	err := a.collection.Upload(ctx, content, filename)
	if client.IsUnauthorized(err) {
		if xerr := a.session.Expire(ctx, a.current.Path); xerr != nil {
			return xerr
		}
	}
	return err
}

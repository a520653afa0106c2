package views

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/typeface/typeface/internal/logging"
	"github.com/typeface/typeface/internal/route"
	"github.com/typeface/typeface/pkg/client"
	"github.com/typeface/typeface/pkg/models"
)

// Collection is the file list view.
type Collection struct {
	api   FileAPI
	alert Alerter
	nav   Navigator

	files     []models.FileResource
	err       error
	uploading bool
	pending   string
}

// NewCollection creates an empty collection view.
func NewCollection(api FileAPI, alert Alerter, nav Navigator) *Collection {
	return &Collection{api: api, alert: alert, nav: nav}
}

// Load replaces the list with the server's. On failure the list is left
// empty and the error is logged and kept in Err; it is also returned so the
// caller can react to an expired session.
func (v *Collection) Load(ctx context.Context) error {
	files, err := v.api.ListFiles(ctx)
	if err != nil {
		logging.Error("failed to load files", zap.Error(err))
		v.files = nil
		v.err = err
		return err
	}
	v.files = files
	v.err = nil
	return nil
}

// Files returns a copy of the current list.
func (v *Collection) Files() []models.FileResource {
	out := make([]models.FileResource, len(v.files))
	copy(out, v.files)
	return out
}

// Err returns the error of the last Load, if any.
func (v *Collection) Err() error {
	return v.err
}

// Uploading reports whether an upload is in flight.
func (v *Collection) Uploading() bool {
	return v.uploading
}

// Upload sends one file and reloads the whole list on success. On failure
// the user is alerted and the list is left as it was. A 401 on the reload
// is returned so the caller can end the session.
func (v *Collection) Upload(ctx context.Context, content io.Reader, filename string) error {
	if v.uploading {
		return ErrBusy
	}
	v.uploading = true
	defer func() { v.uploading = false }()

	if err := v.api.UploadFile(ctx, content, filename); err != nil {
		logging.Error("upload failed", zap.String("filename", filename), zap.Error(err))
		v.alert.Alert(MsgUploadFailed)
		return err
	}

	logging.Info("file uploaded", zap.String("filename", filename))
	// other reload failures are kept in Err
	if err := v.Load(ctx); client.IsUnauthorized(err) {
		return fmt.Errorf("reload after upload: %w", err)
	}
	return nil
}

// RequestDelete opens the confirmation for id.
func (v *Collection) RequestDelete(id string) {
	v.pending = id
}

// Pending returns the id awaiting confirmation.
func (v *Collection) Pending() (string, bool) {
	return v.pending, v.pending != ""
}

// CancelDelete discards the pending deletion without any network call.
func (v *Collection) CancelDelete() {
	v.pending = ""
}

// ConfirmDelete deletes the pending file. On success it is dropped from
// the list without a reload; on failure the user is alerted and the list
// and pending id stay as they were.
func (v *Collection) ConfirmDelete(ctx context.Context) error {
	id := v.pending
	if id == "" {
		return nil
	}

	if err := v.api.DeleteFile(ctx, id); err != nil {
		logging.Error("delete failed", zap.String("id", id), zap.Error(err))
		v.alert.Alert(MsgDeleteFailed)
		return err
	}

	kept := v.files[:0]
	for _, f := range v.files {
		if f.ID != id {
			kept = append(kept, f)
		}
	}
	v.files = kept
	v.pending = ""
	return nil
}

// Open navigates to the detail view of id.
func (v *Collection) Open(ctx context.Context, id string) error {
	return v.nav.Navigate(ctx, route.View(id))
}

// Package views holds the view-models behind the file list and file detail screens.
//
// Views are driven by one caller at a time and are not safe for concurrent use.
package views

import (
	"context"
	"errors"
	"io"

	"github.com/typeface/typeface/pkg/client"
	"github.com/typeface/typeface/pkg/models"
)

// User-facing alert texts.
const (
	MsgUploadFailed = "File upload failed"
	MsgDeleteFailed = "Failed to delete file"
	MsgNoPreview    = "Preview not available for this file type."
	MsgNoFiles      = "No files. Get started by uploading a new file."
	MsgConfirm      = "Are you sure you want to delete this file? This action cannot be undone."
)

var (
	// ErrBusy is returned when an upload is started while another is running.
	ErrBusy = errors.New("an upload is already in progress")
	// ErrNothingFetched is returned by Download before content was fetched.
	ErrNothingFetched = errors.New("no file content fetched")
)

// FileAPI is the part of the client the views use.
type FileAPI interface {
	ListFiles(ctx context.Context) ([]models.FileResource, error)
	UploadFile(ctx context.Context, content io.Reader, filename string) error
	FetchFileContent(ctx context.Context, id string) (*client.FileContent, error)
	DeleteFile(ctx context.Context, id string) error
}

// Alerter surfaces a blocking message to the user.
type Alerter interface {
	Alert(msg string)
}

// AlertFunc adapts a function to Alerter.
type AlertFunc func(msg string)

// Alert calls f(msg).
func (f AlertFunc) Alert(msg string) { f(msg) }

// Navigator moves the application to a path.
type Navigator interface {
	Navigate(ctx context.Context, path string) error
}

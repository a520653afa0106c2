package views

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/typeface/typeface/internal/logging"
	"github.com/typeface/typeface/internal/route"
	"github.com/typeface/typeface/internal/sink"
	"github.com/typeface/typeface/pkg/client"
)

// Preview is how fetched content can be shown inline.
type Preview int

const (
	PreviewNone Preview = iota
	PreviewImage
	PreviewPDF
	PreviewText
)

func (p Preview) String() string {
	switch p {
	case PreviewImage:
		return "image"
	case PreviewPDF:
		return "pdf"
	case PreviewText:
		return "text"
	}
	return "none"
}

// PreviewFor picks the preview for a media type.
func PreviewFor(mediaType string) Preview {
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return PreviewImage
	case mediaType == "application/pdf":
		return PreviewPDF
	case strings.HasPrefix(mediaType, "text/"), strings.HasPrefix(mediaType, "application/json"):
		return PreviewText
	}
	return PreviewNone
}

// Detail is the single-file view.
type Detail struct {
	api   FileAPI
	alert Alerter
	nav   Navigator

	id         string
	content    *client.FileContent
	loading    bool
	err        error
	confirming bool
}

// NewDetail creates a detail view.
func NewDetail(api FileAPI, alert Alerter, nav Navigator) *Detail {
	return &Detail{api: api, alert: alert, nav: nav}
}

// Load fetches the content of id. A failure is logged and kept in Err.
func (v *Detail) Load(ctx context.Context, id string) error {
	v.id = id
	v.content = nil
	v.err = nil
	v.confirming = false
	v.loading = true
	defer func() { v.loading = false }()

	content, err := v.api.FetchFileContent(ctx, id)
	if err != nil {
		logging.Error("failed to fetch file", zap.String("id", id), zap.Error(err))
		v.err = err
		return err
	}
	v.content = content
	return nil
}

// ID returns the id of the mounted file.
func (v *Detail) ID() string { return v.id }

// Loading reports whether a fetch is in flight.
func (v *Detail) Loading() bool { return v.loading }

// Err returns the error of the last Load.
func (v *Detail) Err() error { return v.err }

// Content returns the fetched content, or nil.
func (v *Detail) Content() *client.FileContent { return v.content }

// Filename returns the server-suggested filename, or "".
func (v *Detail) Filename() string {
	if v.content == nil {
		return ""
	}
	return v.content.Filename
}

// MediaType returns the fetched media type, or "".
func (v *Detail) MediaType() string {
	if v.content == nil {
		return ""
	}
	return v.content.MediaType
}

// Preview returns how the fetched content can be shown.
func (v *Detail) Preview() Preview {
	if v.content == nil {
		return PreviewNone
	}
	return PreviewFor(v.content.MediaType)
}

// Excerpt returns at most max bytes of text content, cut at a rune
// boundary. It is empty unless Preview is PreviewText.
func (v *Detail) Excerpt(max int) string {
	if v.Preview() != PreviewText {
		return ""
	}
	if max < 0 {
		max = 0
	}
	data := v.content.Data
	if len(data) <= max {
		return string(data)
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(data[cut]) {
		cut--
	}
	return string(data[:cut])
}

// Download writes the fetched bytes through s under the derived filename.
func (v *Detail) Download(ctx context.Context, s sink.Sink) (string, error) {
	if v.content == nil {
		return "", ErrNothingFetched
	}
	return s.Save(ctx, v.content.Filename, v.content.MediaType, v.content.Data)
}

// RequestDelete opens the delete confirmation.
func (v *Detail) RequestDelete() { v.confirming = true }

// CancelDelete closes the confirmation without any network call.
func (v *Detail) CancelDelete() { v.confirming = false }

// Confirming reports whether the delete confirmation is open.
func (v *Detail) Confirming() bool { return v.confirming }

// ConfirmDelete deletes the mounted file and navigates home on success.
// On failure the user is alerted and the confirmation stays open.
func (v *Detail) ConfirmDelete(ctx context.Context) error {
	if !v.confirming || v.id == "" {
		return nil
	}
	if err := v.api.DeleteFile(ctx, v.id); err != nil {
		logging.Error("delete failed", zap.String("id", v.id), zap.Error(err))
		v.alert.Alert(MsgDeleteFailed)
		return err
	}
	v.confirming = false
	return v.nav.Navigate(ctx, route.Home)
}

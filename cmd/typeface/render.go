package main

import (
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/typeface/typeface/internal/format"
	"github.com/typeface/typeface/internal/logging"
	"github.com/typeface/typeface/internal/metrics"
	"github.com/typeface/typeface/internal/views"
	"github.com/typeface/typeface/pkg/models"
)

// excerptLen is how much of a text file show prints.
const excerptLen = 2048

func printFiles(w io.Writer, files []models.FileResource) {
	if len(files) == 0 {
		fmt.Fprintln(w, views.MsgNoFiles)
		return
	}
	fmt.Fprintf(w, "%-32s  %-5s  %10s  %-16s  %s\n", "NAME", "KIND", "SIZE", "CREATED", "ID")
	for _, f := range files {
		fmt.Fprintf(w, "%-32s  %-5s  %10s  %-16s  %s\n",
			f.Name, f.Kind, format.Bytes(f.Size), f.CreatedAt.Local().Format("2006-01-02 15:04"), f.ID)
	}
}

func printDetail(w io.Writer, d *views.Detail) {
	fmt.Fprintf(w, "File:    %s\n", d.Filename())
	fmt.Fprintf(w, "ID:      %s\n", d.ID())
	fmt.Fprintf(w, "Type:    %s\n", d.MediaType())
	if c := d.Content(); c != nil {
		fmt.Fprintf(w, "Size:    %s\n", format.Bytes(int64(len(c.Data))))
	}

	switch d.Preview() {
	case views.PreviewText:
		fmt.Fprintln(w)
		fmt.Fprintln(w, d.Excerpt(excerptLen))
	case views.PreviewImage, views.PreviewPDF:
		fmt.Fprintf(w, "Preview: %s (use 'download' to open it)\n", d.Preview())
	default:
		fmt.Fprintln(w, views.MsgNoPreview)
	}
}

func printIdentity(w io.Writer, sess models.Session, server string) {
	id := sess.Identity
	fmt.Fprintf(w, "Signed in as %s (%s) on %s\n", id.Email, id.Name, server)
}

func startMetrics(addr string) *http.Server {
	srv := &http.Server{
		Addr:    addr,
		Handler: metrics.Handler(),
	}
	go func() {
		logging.Info("metrics server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logging.Error("metrics server error", zap.Error(err))
		}
	}()
	return srv
}

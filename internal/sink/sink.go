// Package sink materializes downloaded file content somewhere durable.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/typeface/typeface/internal/logging"
	"github.com/typeface/typeface/internal/metrics"
)

// fallbackName is used when a suggested name is unusable.
const fallbackName = "downloaded_file"

// maxCopies bounds the "name (n).ext" search in Dir.
const maxCopies = 1000

// Sink stores downloaded bytes and returns where they went.
type Sink interface {
	Save(ctx context.Context, name, mediaType string, data []byte) (string, error)
}

// Open returns an S3 sink for s3://bucket/prefix destinations and a
// directory sink otherwise. An empty dest means the working directory.
func Open(ctx context.Context, dest string, s3cfg S3Config) (Sink, error) {
	if strings.HasPrefix(dest, "s3://") {
		bucket, prefix, err := parseS3URL(dest)
		if err != nil {
			return nil, err
		}
		s3cfg.Bucket = bucket
		s3cfg.Prefix = prefix
		return NewS3(ctx, s3cfg)
	}
	if dest == "" {
		dest = "."
	}
	return NewDir(dest), nil
}

// Dir writes files into a local directory without overwriting existing ones.
type Dir struct {
	dir string
}

// NewDir creates a directory sink.
func NewDir(dir string) *Dir {
	return &Dir{dir: dir}
}

// Save writes data as name inside the directory. If name is taken,
// "name (1).ext", "name (2).ext"... are tried.
func (d *Dir) Save(ctx context.Context, name, mediaType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	name = SafeName(name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 0; i < maxCopies; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		path := filepath.Join(d.dir, candidate)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			metrics.RecordSinkSave("dir", false)
			return "", fmt.Errorf("create %s: %w", path, err)
		}

		_, werr := f.Write(data)
		cerr := f.Close()
		if werr != nil || cerr != nil {
			os.Remove(path)
			metrics.RecordSinkSave("dir", false)
			return "", fmt.Errorf("write %s: %w", path, errors.Join(werr, cerr))
		}

		metrics.RecordSinkSave("dir", true)
		logging.Debug("download saved", zap.String("path", path), zap.Int("bytes", len(data)))
		return path, nil
	}

	metrics.RecordSinkSave("dir", false)
	return "", fmt.Errorf("no free name for %s in %s", name, d.dir)
}

// SafeName strips directory components from a server-suggested filename.
func SafeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return fallbackName
	}
	return name
}

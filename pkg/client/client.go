// Package client provides the HTTP client for the Typeface file API.
//
// Calls are never retried. A failed call returns an *Error whose Kind
// tells which operation failed; the caller decides what to show.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/typeface/typeface/internal/logging"
	"github.com/typeface/typeface/internal/metrics"
	"github.com/typeface/typeface/pkg/models"
	"github.com/typeface/typeface/pkg/protocol"
)

// maxErrorBody bounds how much of an error response is read for the message.
const maxErrorBody = 4 << 10

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token calls f.
func (f TokenFunc) Token() string { return f() }

// Client talks to the Typeface API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	now        func() time.Time

	mu        sync.RWMutex
	authToken string
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	// Timeout bounds a whole call. Zero means no timeout.
	Timeout time.Duration
	// AuthToken is a static token, used when Tokens is nil.
	AuthToken string
	Tokens    TokenSource
	// Transport overrides the default transport; it is still wrapped for logging.
	Transport http.RoundTripper
}

// New creates a new client.
func New(cfg Config) *Client {
	base := cfg.Transport
	if base == nil {
		base = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		}
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &logging.Transport{Base: base},
		},
		tokens:    cfg.Tokens,
		now:       time.Now,
		authToken: cfg.AuthToken,
	}
}

// BaseURL returns the server URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetAuthToken sets a static auth token. It is ignored when a TokenSource is configured.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authToken = token
}

func (c *Client) token() string {
	if c.tokens != nil {
		return c.tokens.Token()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authToken
}

// applyAuth adds the auth header to a request if a token is available.
func (c *Client) applyAuth(req *http.Request) {
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set(logging.RequestIDHeader, newRequestID())
	return req, nil
}

func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// do executes req. A non-2xx response is consumed and turned into an *Error;
// on success the caller owns the response body.
func (c *Client) do(req *http.Request, op string, kind Kind) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordRequest(op, 0, time.Since(start))
		return nil, &Error{Kind: kind, Op: op, Err: err}
	}
	metrics.RecordRequest(op, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, &Error{
			Kind:       kind,
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.Body),
		}
	}
	return resp, nil
}

func readErrorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var errResp protocol.ErrorResponse
	if json.Unmarshal(data, &errResp) == nil {
		if errResp.Error != "" {
			return errResp.Error
		}
		if errResp.Message != "" {
			return errResp.Message
		}
	}
	msg := strings.TrimSpace(string(data))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

// ListFiles fetches the caller's files.
func (c *Client) ListFiles(ctx context.Context) ([]models.FileResource, error) {
	req, err := c.newRequest(ctx, "GET", protocol.PathFiles, nil)
	if err != nil {
		return nil, err
	}
	c.applyAuth(req)

	resp, err := c.do(req, "list", KindRequestFailed)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var entries []protocol.FileEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, &Error{Kind: KindRequestFailed, Op: "list", Err: fmt.Errorf("parse file list: %w", err)}
	}

	received := c.now()
	files := make([]models.FileResource, 0, len(entries))
	for _, e := range entries {
		files = append(files, toResource(e, received))
	}
	return files, nil
}

func toResource(e protocol.FileEntry, received time.Time) models.FileResource {
	created := received
	if e.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, e.CreatedAt); err == nil {
			created = t
		}
	}
	size := e.Size
	if size < 0 {
		size = 0
	}
	return models.FileResource{
		ID:        idFromURL(e.URL),
		Name:      e.Name,
		Kind:      models.ParseMediaKind(e.Type),
		Size:      size,
		CreatedAt: created,
		URL:       e.URL,
	}
}

// idFromURL returns the last path segment of a file locator.
func idFromURL(locator string) string {
	p := locator
	if u, err := url.Parse(locator); err == nil {
		p = u.EscapedPath()
	}
	seg := p[strings.LastIndex(p, "/")+1:]
	if unescaped, err := url.PathUnescape(seg); err == nil {
		return unescaped
	}
	return seg
}

// UploadFile uploads content as a multipart form under the given filename.
// The listing is not refreshed; callers reload it.
func (c *Client) UploadFile(ctx context.Context, content io.Reader, filename string) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	counter := &countingReader{r: content}

	go func() {
		part, err := mw.CreatePart(filePartHeader(filename))
		if err == nil {
			_, err = io.Copy(part, counter)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, "POST", protocol.PathUpload, pr)
	if err != nil {
		pr.Close()
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.applyAuth(req)

	resp, err := c.do(req, "upload", KindUploadFailed)
	if err != nil {
		pr.Close()
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	metrics.RecordUpload(counter.n)
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func filePartHeader(filename string) textproto.MIMEHeader {
	ctype := mime.TypeByExtension(filepath.Ext(filename))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		protocol.UploadField, quoteEscaper.Replace(filename)))
	h.Set("Content-Type", ctype)
	return h
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// FileContent is the fetched body of one file.
type FileContent struct {
	Data      []byte
	MediaType string
	Filename  string
}

// FetchFileContent downloads a file's bytes along with its media type and
// the filename suggested by Content-Disposition.
func (c *Client) FetchFileContent(ctx context.Context, id string) (*FileContent, error) {
	req, err := c.newRequest(ctx, "GET", filePath(id), nil)
	if err != nil {
		return nil, err
	}
	c.applyAuth(req)

	resp, err := c.do(req, "fetch", KindFetchFailed)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindFetchFailed, Op: "fetch", Err: fmt.Errorf("read body: %w", err)}
	}
	metrics.RecordDownload(int64(len(data)))

	return &FileContent{
		Data:      data,
		MediaType: resp.Header.Get("Content-Type"),
		Filename:  FilenameFromDisposition(resp.Header.Get("Content-Disposition")),
	}, nil
}

// DeleteFile deletes a file on the server.
func (c *Client) DeleteFile(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, "DELETE", filePath(id), nil)
	if err != nil {
		return err
	}
	c.applyAuth(req)

	resp, err := c.do(req, "delete", KindDeleteFailed)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}

func filePath(id string) string {
	return protocol.PathFiles + "/" + url.PathEscape(id)
}

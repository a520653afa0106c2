// Package testserver runs an in-process fake of the Typeface backend for tests.
package testserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/typeface/typeface/pkg/protocol"
)

// Ops that can be made to fail with Fail.
const (
	OpLogin    = "login"
	OpRegister = "register"
	OpList     = "list"
	OpUpload   = "upload"
	OpFetch    = "fetch"
	OpDelete   = "delete"
)

// Request is one request seen by the server.
type Request struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
}

// File is a stored file.
type File struct {
	ID          string
	Name        string
	Type        string
	ContentType string
	Data        []byte
	// NoDisposition omits the Content-Disposition header on fetch.
	NoDisposition bool
}

// Server is a fake backend. Tokens it issues are HS256 JWTs carrying an
// email claim unless OpaqueTokens is set.
type Server struct {
	*httptest.Server

	secret []byte

	mu           sync.Mutex
	users        map[string]string
	tokens       map[string]string
	files        map[string]*File
	order        []string
	requests     []Request
	fail         map[string]int
	opaqueTokens bool
}

// New starts a server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		secret: []byte("test-secret"),
		users:  make(map[string]string),
		tokens: make(map[string]string),
		files:  make(map[string]*File),
		fail:   make(map[string]int),
	}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.record)
	r.HandleFunc(protocol.PathLogin, s.handleLogin).Methods("POST")
	r.HandleFunc(protocol.PathRegister, s.handleRegister).Methods("POST")
	r.HandleFunc(protocol.PathFiles, s.authed(OpList, s.handleList)).Methods("GET")
	r.HandleFunc(protocol.PathUpload, s.authed(OpUpload, s.handleUpload)).Methods("POST")
	r.HandleFunc(protocol.PathFiles+"/{id}", s.authed(OpFetch, s.handleFetch)).Methods("GET")
	r.HandleFunc(protocol.PathFiles+"/{id}", s.authed(OpDelete, s.handleDelete)).Methods("DELETE")
	return r
}

// OpaqueTokens makes the server issue random non-JWT tokens.
func (s *Server) OpaqueTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opaqueTokens = true
}

// AddUser registers a user.
func (s *Server) AddUser(email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = password
}

// IssueToken returns a valid token for email without a login round trip.
func (s *Server) IssueToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(email)
}

func (s *Server) issueLocked(email string) string {
	var tok string
	if s.opaqueTokens {
		tok = uuid.NewString()
	} else {
		claims := jwt.MapClaims{
			"email": email,
			"sub":   email,
			"exp":   time.Now().Add(24 * time.Hour).Unix(),
			"jti":   uuid.NewString(),
		}
		tok, _ = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	}
	s.tokens[tok] = email
	return tok
}

// RevokeAll invalidates every issued token.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]string)
}

// AddFile stores a file and returns its id.
func (s *Server) AddFile(f File) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.ContentType == "" {
		f.ContentType = "application/octet-stream"
	}
	if f.Type == "" {
		f.Type = shortType(f.ContentType)
	}
	if _, exists := s.files[f.ID]; !exists {
		s.order = append(s.order, f.ID)
	}
	s.files[f.ID] = &f
	return f.ID
}

// File returns a stored file.
func (s *Server) File(id string) (File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return File{}, false
	}
	return *f, true
}

// FileCount returns the number of stored files.
func (s *Server) FileCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// Fail makes every call of op answer with status until Recover is called.
func (s *Server) Fail(op string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = status
}

// Recover clears all injected failures.
func (s *Server) Recover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = make(map[string]int)
}

// Requests returns every request seen so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injected(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fail[op]
}

func (s *Server) authed(op string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if status := s.injected(op); status != 0 {
			writeError(w, status, op+" failed")
			return
		}
		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		_, ok := s.tokens[tok]
		s.mu.Unlock()
		if tok == "" || !ok {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if status := s.injected(OpLogin); status != 0 {
		writeError(w, status, "login failed")
		return
	}
	var req protocol.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	pw, ok := s.users[req.Email]
	if !ok || pw != req.Password {
		s.mu.Unlock()
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	tok := s.issueLocked(req.Email)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(protocol.LoginResponse{Token: tok})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if status := s.injected(OpRegister); status != 0 {
		writeError(w, status, "register failed")
		return
	}
	var req protocol.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[req.Email]; exists {
		writeError(w, http.StatusConflict, "user already exists")
		return
	}
	s.users[req.Email] = req.Password

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusCreated)
	fmt.Fprintf(w, "User %s registered successfully", req.Username)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	entries := make([]protocol.FileEntry, 0, len(s.order))
	for _, id := range s.order {
		f, ok := s.files[id]
		if !ok {
			continue
		}
		entries = append(entries, protocol.FileEntry{
			Name: f.Name,
			Type: f.Type,
			Size: int64(len(f.Data)),
			URL:  protocol.PathFiles + "/" + f.ID,
		})
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile(protocol.UploadField)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload")
		return
	}

	id := s.AddFile(File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"id": id, "message": "File uploaded successfully"})
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	f, ok := s.File(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	w.Header().Set("Content-Type", f.ContentType)
	if !f.NoDisposition {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, f.Name))
	}
	w.Write(f.Data)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[id]; !ok {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	delete(s.files, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "File deleted successfully")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(protocol.ErrorResponse{Error: msg})
}

func shortType(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.HasPrefix(ct, "image/"):
		return "image"
	case strings.HasPrefix(ct, "application/pdf"):
		return "pdf"
	case strings.HasPrefix(ct, "application/json"):
		return "json"
	case strings.HasPrefix(ct, "text/"):
		return "text"
	}
	return "other"
}

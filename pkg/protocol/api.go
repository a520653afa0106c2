// Package protocol defines the API request/response types.
package protocol

// LoginRequest is the body for POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by POST /api/auth/login
type LoginResponse struct {
	Token string `json:"token"`
}

// RegisterRequest is the body for POST /api/auth/register
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MessageResponse carries a plain server message. Non-JSON bodies are
// wrapped into one by the client.
type MessageResponse struct {
	Message string `json:"message"`
}

// FileEntry is one element of the GET /api/files response.
type FileEntry struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Size      int64  `json:"size"`
	URL       string `json:"url"`
	CreatedAt string `json:"created_at,omitempty"`
}

// ErrorResponse is returned on API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Endpoint paths.
const (
	PathLogin    = "/api/auth/login"
	PathRegister = "/api/auth/register"
	PathFiles    = "/api/files"
	PathUpload   = "/api/files/upload"
)

// UploadField is the multipart form field carrying the uploaded file.
const UploadField = "file"

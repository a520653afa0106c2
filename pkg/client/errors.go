package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed API call.
type Kind int

const (
	KindAuthFailed Kind = iota + 1
	KindRequestFailed
	KindUploadFailed
	KindFetchFailed
	KindDeleteFailed
)

// Sentinels matched by errors.Is against any *Error of the same Kind.
var (
	ErrAuthFailed    = errors.New("authentication failed")
	ErrRequestFailed = errors.New("request failed")
	ErrUploadFailed  = errors.New("upload failed")
	ErrFetchFailed   = errors.New("fetch failed")
	ErrDeleteFailed  = errors.New("delete failed")
)

func (k Kind) sentinel() error {
	switch k {
	case KindAuthFailed:
		return ErrAuthFailed
	case KindRequestFailed:
		return ErrRequestFailed
	case KindUploadFailed:
		return ErrUploadFailed
	case KindFetchFailed:
		return ErrFetchFailed
	case KindDeleteFailed:
		return ErrDeleteFailed
	}
	return nil
}

func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is returned by every Client operation that fails.
// StatusCode is 0 when the request never got a response.
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: %s (%d): %s", e.Op, e.Kind, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s (%d)", e.Op, e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's Kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// AsError checks if err is an *Error and returns it.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsUnauthorized reports whether the server rejected the call with 401.
func IsUnauthorized(err error) bool {
	e, ok := AsError(err)
	return ok && e.StatusCode == http.StatusUnauthorized
}

// IsTransport reports whether the call failed before a response arrived.
func IsTransport(err error) bool {
	e, ok := AsError(err)
	return ok && e.StatusCode == 0 && e.Err != nil
}

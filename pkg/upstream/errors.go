// Package upstream holds the error taxonomy shared by the clients that talk
// to huddle's external collaborators: the meeting provider and the language
// model used for inference.
//
// Three failure classes exist. A configuration error means the client could
// not be built at all (usually a missing credential) and is never retried. A
// status error is a non-success response from the collaborator. A content
// error is a response that looked successful but could not be parsed into the
// expected shape; callers treat it exactly like a status error.
package upstream

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is wrapped by every configuration error.
var ErrNotConfigured = errors.New("collaborator not configured")

// NotConfigured returns a configuration error naming what is missing.
func NotConfigured(service, detail string) error {
	return fmt.Errorf("%s: %w: %s", service, ErrNotConfigured, detail)
}

// IsNotConfigured reports whether err is (or wraps) a configuration error.
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}

// StatusError is a non-success response from a collaborator.
type StatusError struct {
	Service string
	Status  int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.Status, e.Body)
}

// ContentError is a response that could not be parsed into its expected
// structured result.
type ContentError struct {
	Service string
	Op      string
	Err     error
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("%s %s: malformed response: %v", e.Service, e.Op, e.Err)
}

func (e *ContentError) Unwrap() error {
	return e.Err
}

// maxBodyLen bounds how much of an upstream body is kept on a StatusError.
const maxBodyLen = 500

// NewStatusError builds a StatusError, trimming the body for log output.
func NewStatusError(service string, status int, body []byte) *StatusError {
	b := string(body)
	if len(b) > maxBodyLen {
		b = b[:maxBodyLen]
	}
	return &StatusError{Service: service, Status: status, Body: b}
}

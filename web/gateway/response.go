package gateway

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

// Response is a successful backend reply.
type Response struct {
	Status  int
	Message string
	// Data is the raw "data" member, nil when the backend sent none.
	Data json.RawMessage
	// Raw is the whole response body.
	Raw []byte
}

func (r *Response) hasData() bool {
	if r == nil {
		return false
	}
	d := bytes.TrimSpace(r.Data)
	return len(d) > 0 && !bytes.Equal(d, []byte("null"))
}

// Decode unmarshals data into v. Missing or null data leaves v untouched.
func (r *Response) Decode(v any) error {
	if !r.hasData() {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// DataList returns data as a list of objects, empty when absent.
func (r *Response) DataList() ([]map[string]any, error) {
	out := []map[string]any{}
	if err := r.Decode(&out); err != nil {
		return []map[string]any{}, err
	}
	if out == nil {
		out = []map[string]any{}
	}
	return out, nil
}

// DataObject returns data as an object, empty when absent.
func (r *Response) DataObject() (map[string]any, error) {
	out := map[string]any{}
	if err := r.Decode(&out); err != nil {
		return map[string]any{}, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// Error is a failed backend call. Status is 0 when no response arrived.
type Error struct {
	Status  int
	Message string
	Body    []byte
	generic bool
	cause   error
}

const networkErrorMessage = "Network Error"

func networkError(err error) *Error {
	msg := networkErrorMessage
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &Error{Message: msg, generic: true, cause: err}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Unauthorized reports a 401 reply, i.e. the backend rejected the token.
func (e *Error) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// Network reports a failure where no response arrived.
func (e *Error) Network() bool {
	return e.Status == 0
}

// Message returns the message the backend sent with err, or fallback when
// it sent none.
func Message(err error, fallback string) string {
	var gerr *Error
	if errors.As(err, &gerr) && !gerr.generic && gerr.Message != "" {
		return gerr.Message
	}
	return fallback
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.Unauthorized()
}

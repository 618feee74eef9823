// Package service implements the console's screens on top of the backend
// API: authentication flows, dashboard figures and the resource screens.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/procodebh/crm-console/web/gateway"
	"github.com/procodebh/crm-console/web/session"
)

// ValidationError is a form problem detected before any backend call.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(msg string) error {
	return &ValidationError{Msg: msg}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ErrorMessage returns the text to show for err: the validation message, the
// backend's message, or fallback.
func ErrorMessage(err error, fallback string) string {
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Msg
	}
	return gateway.Message(err, fallback)
}

// Backend hands out gateway clients bound to a browser session's token.
type Backend struct {
	client *gateway.Client
}

func NewBackend(client *gateway.Client) *Backend {
	return &Backend{client: client}
}

// For returns a client that reads its bearer token from m's session record
// on every call.
func (b *Backend) For(m *session.Manager) *gateway.Client {
	return b.client.WithToken(gateway.TokenFunc(session.BearerToken(m.Storage())))
}

// Anonymous returns a client that sends no token.
func (b *Backend) Anonymous() *gateway.Client {
	return b.client.WithToken(nil)
}

// Ping checks that the backend answers at all. Any HTTP reply counts.
func (b *Backend) Ping(ctx context.Context) error {
	_, err := b.client.WithToken(nil).Get(ctx, "/")
	var gerr *gateway.Error
	if errors.As(err, &gerr) && !gerr.Network() {
		return nil
	}
	return err
}

func listOf[T any](ctx context.Context, api *gateway.Client, endpoint string) ([]T, error) {
	resp, err := api.Get(ctx, endpoint)
	if err != nil {
		return []T{}, err
	}
	out := []T{}
	if err := resp.Decode(&out); err != nil {
		return []T{}, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func oneOf[T any](ctx context.Context, api *gateway.Client, endpoint string) (*T, error) {
	resp, err := api.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	var out *T
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

func messageOr(resp *gateway.Response, fallback string) string {
	if resp != nil && resp.Message != "" {
		return resp.Message
	}
	return fallback
}

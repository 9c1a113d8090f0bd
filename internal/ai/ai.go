// Package ai sends prompts to a hosted language model through a rate limited,
// retrying gateway. Providers implement the transport for one vendor.
package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
)

// Request is one completion call.
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
	// JSON asks the provider to force a JSON object response when it supports it.
	JSON bool
}

// Provider performs a single completion attempt against one destination.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
	Model() string
}

var (
	// ErrEmptyResponse is returned when the model answered without any text.
	ErrEmptyResponse = errors.New("model returned empty response")
	// ErrMalformedResponse is returned when the response body cannot be decoded.
	ErrMalformedResponse = errors.New("model returned malformed response")
)

// ConfigError marks a setup problem (bad destination URL, missing model) that
// no amount of retrying will fix.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ai configuration: %s: %v", e.Reason, e.Err)
	}
	return "ai configuration: " + e.Reason
}

func (e *ConfigError) Unwrap() error { return e.Err }

// StatusError is a non-2xx answer from the destination.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("model endpoint returned status %d: %s", e.Code, e.Body)
	}
	return fmt.Sprintf("model endpoint returned status %d", e.Code)
}

// Temporary reports whether the status is worth another attempt.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusRequestTimeout || e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// IsTransient reports whether err may go away on retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}

	if errors.Is(err, ErrEmptyResponse) || errors.Is(err, ErrMalformedResponse) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

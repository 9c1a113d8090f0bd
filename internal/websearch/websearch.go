// Package websearch finds public profile links for a candidate.
package websearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 20 * time.Second

// Result is one organic search hit.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// Searcher runs a free-text web query.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// Doer is the subset of *http.Client used by the backends.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Provider names a search backend.
type Provider string

const (
	DuckDuckGoProvider Provider = "duckduckgo"
	SerperProvider     Provider = "serper"
	BraveProvider      Provider = "brave"
)

// ErrUnsupportedProvider is returned by New for unknown backends.
var ErrUnsupportedProvider = errors.New("unsupported search provider")

// StatusError is a non-2xx answer from a search backend.
type StatusError struct {
	Provider Provider
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s search returned status %d", e.Provider, e.Code)
}

// RequiresKey reports whether the backend needs an API key.
func (p Provider) RequiresKey() bool {
	return p == SerperProvider || p == BraveProvider
}

// New returns the backend for provider. A nil doer uses an http.Client with a timeout.
func New(provider Provider, apiKey string, doer Doer) (Searcher, error) {
	if doer == nil {
		doer = &http.Client{Timeout: defaultTimeout}
	}
	apiKey = strings.TrimSpace(apiKey)

	switch Provider(strings.ToLower(string(provider))) {
	case DuckDuckGoProvider, "":
		return &DuckDuckGo{HTTP: doer}, nil
	case SerperProvider:
		if apiKey == "" {
			return nil, errors.New("serper api key is required")
		}
		return &Serper{APIKey: apiKey, HTTP: doer}, nil
	case BraveProvider:
		if apiKey == "" {
			return nil, errors.New("brave api key is required")
		}
		return &Brave{APIKey: apiKey, HTTP: doer}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
	}
}

func checkStatus(provider Provider, resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Provider: provider, Code: resp.StatusCode}
	}
	return nil
}

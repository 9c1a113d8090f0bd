// Package openrouter talks to OpenAI-compatible chat completion endpoints.
package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/spigell/cv-screener/internal/ai"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "mistralai/mistral-7b-instruct:free"
	defaultTimeout = 180 * time.Second
	maxErrorBody   = 512

	completionsPath = "/chat/completions"
)

// Doer is the subset of *http.Client used by the client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements ai.Provider for OpenRouter.
type Client struct {
	baseURL string
	model   string
	http    Doer
	api     *openai.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP transport.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.http = d }
}

// WithAPIURL points the client at another OpenAI-compatible base URL.
// A full ".../chat/completions" URL is accepted and trimmed to its base.
func WithAPIURL(u string) Option {
	return func(c *Client) { c.baseURL = baseURL(u) }
}

// New returns a client for the given key and model.
func New(apiKey, model string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openrouter api key is required")
	}
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	c := &Client{
		baseURL: defaultBaseURL,
		model:   model,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = c.baseURL
	cfg.HTTPClient = c.http
	c.api = openai.NewClientWithConfig(cfg)

	return c, nil
}

// Complete performs one chat completion call.
func (c *Client) Complete(ctx context.Context, req ai.Request) (string, error) {
	if err := c.validateURL(); err != nil {
		return "", err
	}

	chatReq := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", mapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", ai.ErrEmptyResponse
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ai.ErrEmptyResponse
	}
	return content, nil
}

// mapError turns go-openai failures into the ai error vocabulary.
func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ai.StatusError{Code: apiErr.HTTPStatusCode, Body: truncate(apiErr.Message)}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ai.StatusError{Code: reqErr.HTTPStatusCode, Body: truncate(reqErr.Error())}
	}

	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return fmt.Errorf("%w: %v", ai.ErrMalformedResponse, err)
	}

	return fmt.Errorf("send request: %w", err)
}

// validateURL checks the destination on every call so a bad URL surfaces as a
// ConfigError instead of a network failure.
func (c *Client) validateURL() error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return &ai.ConfigError{Reason: fmt.Sprintf("invalid api url %q", c.baseURL), Err: err}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ai.ConfigError{Reason: fmt.Sprintf("invalid api url %q", c.baseURL)}
	}
	return nil
}

func baseURL(u string) string {
	u = strings.TrimSpace(u)
	u = strings.TrimSuffix(u, "/")
	u = strings.TrimSuffix(u, completionsPath)
	return strings.TrimSuffix(u, "/")
}

// Name returns the provider name.
func (c *Client) Name() string { return "openrouter" }

// Model returns the configured model identifier.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}

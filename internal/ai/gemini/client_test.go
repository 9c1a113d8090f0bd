package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"google.golang.org/genai"

	"github.com/spigell/cv-screener/internal/ai"
)

type fakeModels struct {
	mu    sync.Mutex
	calls []callRecord
	queue []fakeResponse
}

type callRecord struct {
	model  string
	prompt string
	config *genai.GenerateContentConfig
}

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

func (f *fakeModels) enqueue(resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, fakeResponse{resp: resp, err: err})
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var prompt string
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		prompt = contents[0].Parts[0].Text
	}
	f.calls = append(f.calls, callRecord{model: model, prompt: prompt, config: config})

	if len(f.queue) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := f.queue[0]
	f.queue = f.queue[1:]
	return res.resp, res.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func TestGeneratorComplete(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(textResponse(" {\"score\": 42", "} "), nil)

	g := &Generator{models: models, modelName: "gemini-test"}
	out, err := g.Complete(context.Background(), ai.Request{Prompt: "score this", MaxTokens: 250, Temperature: 0.2, JSON: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "{\"score\": 42\n}" {
		t.Fatalf("unexpected output: %q", out)
	}

	if len(models.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(models.calls))
	}
	call := models.calls[0]
	if call.model != "gemini-test" || call.prompt != "score this" {
		t.Fatalf("unexpected call: %+v", call)
	}
	if call.config.MaxOutputTokens != 250 || call.config.ResponseMIMEType != "application/json" {
		t.Fatalf("unexpected config: %+v", call.config)
	}
	if call.config.Temperature == nil || *call.config.Temperature != float32(0.2) {
		t.Fatalf("unexpected temperature: %v", call.config.Temperature)
	}
}

func TestGeneratorMapsAPIErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{name: "internal", err: genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}, transient: true},
		{name: "quota", err: genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"}, transient: true},
		{name: "bad request", err: genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"}, transient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			models := &fakeModels{}
			models.enqueue(nil, tt.err)

			g := &Generator{models: models, modelName: "gemini-test"}
			_, err := g.Complete(context.Background(), ai.Request{Prompt: "x"})

			var status *ai.StatusError
			if !errors.As(err, &status) {
				t.Fatalf("expected StatusError, got %v", err)
			}
			if got := ai.IsTransient(err); got != tt.transient {
				t.Fatalf("expected transient=%v, got %v", tt.transient, got)
			}
		})
	}
}

func TestGeneratorEmptyResponse(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(textResponse("   "), nil)

	g := &Generator{models: models, modelName: "gemini-test"}
	if _, err := g.Complete(context.Background(), ai.Request{Prompt: "x"}); !errors.Is(err, ai.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestGeneratorRejectsEmptyPrompt(t *testing.T) {
	g := &Generator{models: &fakeModels{}, modelName: "gemini-test"}

	_, err := g.Complete(context.Background(), ai.Request{Prompt: "  "})
	var cfgErr *ai.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

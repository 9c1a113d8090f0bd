package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/ai/gemini"
	"github.com/spigell/cv-screener/internal/ai/openrouter"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/retry"
	"github.com/spigell/cv-screener/internal/screening"
	"github.com/spigell/cv-screener/internal/secrets"
	"github.com/spigell/cv-screener/internal/websearch"
)

func newProvider(ctx context.Context, cfg *AIConfig) (ai.Provider, error) {
	if cfg == nil {
		cfg = &AIConfig{}
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	switch provider {
	case "", "openrouter":
		or := cfg.OpenRouter
		if or == nil {
			or = &OpenRouterConfig{}
		}
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openrouter api key",
			Value: or.APIKey,
			Env:   "OPENROUTER_API_KEY",
			File:  or.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (or set ai.openrouter.api-key-file / OPENROUTER_API_KEY_FILE)", err)
		}
		client, err := openrouter.New(apiKey, or.Model, openrouter.WithAPIURL(or.APIURL))
		if err != nil {
			return nil, err
		}
		return client, nil

	case "gemini":
		g := cfg.Gemini
		if g == nil {
			g = &GeminiConfig{}
		}
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: g.APIKey,
			Env:   "GEMINI_API_KEY",
			File:  g.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (or set ai.gemini.api-key-file / GEMINI_API_KEY_FILE)", err)
		}
		generator, err := gemini.NewGenerator(ctx, apiKey, g.Model)
		if err != nil {
			return nil, err
		}
		return generator, nil

	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}

func gatewayOptions(cfg *AIConfig) ai.GatewayOptions {
	policy := retry.Default(nil)
	if cfg == nil {
		return ai.GatewayOptions{Policy: policy}
	}

	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.BackoffBase > 0 {
		policy.BaseDelay = cfg.BackoffBase
	}
	if cfg.BackoffMax > 0 {
		policy.MaxDelay = cfg.BackoffMax
	}

	return ai.GatewayOptions{
		Policy:            policy,
		Cooldown:          cfg.Cooldown,
		RequestsPerMinute: cfg.RequestsPerMinute,
		MaxLogLength:      cfg.MaxLogLength,
	}
}

// newLookup returns nil when the web presence stage is disabled.
func newLookup(cfg *SearchConfig, log *zap.Logger) (*websearch.Lookup, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	provider := websearch.Provider(strings.TrimSpace(strings.ToLower(cfg.Provider)))
	if provider == "" {
		provider = websearch.DuckDuckGoProvider
	}

	apiKey := ""
	if provider.RequiresKey() {
		env := strings.ToUpper(string(provider)) + "_API_KEY"
		key, err := secrets.Load(secrets.Source{
			Name:  string(provider) + " api key",
			Value: cfg.APIKey,
			Env:   env,
			File:  cfg.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (or set search.api-key-file / %s_FILE)", err, env)
		}
		apiKey = key
	}

	searcher, err := websearch.New(provider, apiKey, nil)
	if err != nil {
		return nil, err
	}

	searchLogger := logger.WithSearchProvider(log, string(provider))
	return websearch.NewLookup(searcher, websearch.LookupOptions{
		MaxAttempts:       cfg.MaxAttempts,
		RequestsPerMinute: cfg.RequestsPerMinute,
	}, searchLogger), nil
}

func screeningSettings(cfg *ScreeningConfig) screening.Settings {
	if cfg == nil {
		return screening.Settings{}
	}

	mustHave := make([]string, 0, len(cfg.MustHave))
	for _, term := range cfg.MustHave {
		if term = strings.TrimSpace(term); term != "" {
			mustHave = append(mustHave, term)
		}
	}

	return screening.Settings{
		Workers:          cfg.Workers,
		DocumentCooldown: cfg.DocumentCooldown,
		MustHave:         mustHave,
		JobMaxChars:      cfg.JobMaxChars,
		ResumeMaxChars:   cfg.ResumeMaxChars,
	}
}

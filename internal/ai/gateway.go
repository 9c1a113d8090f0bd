package ai

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/retry"
	"github.com/spigell/cv-screener/internal/utils"
)

const defaultMaxLogLength = 200

// GatewayOptions tunes a Gateway. Zero values fall back to the defaults.
type GatewayOptions struct {
	Policy retry.Policy
	// Cooldown is the fixed pause after every call, successful or not.
	Cooldown time.Duration
	// RequestsPerMinute caps attempts against the provider; zero disables the cap.
	RequestsPerMinute int
	MaxLogLength      int
}

// Gateway wraps a Provider with a shared call-rate ceiling, retries on
// transient failures and a cooldown after each call. It is safe for
// concurrent use; all callers share one limiter.
type Gateway struct {
	provider     Provider
	policy       retry.Policy
	limiter      *rate.Limiter
	cooldown     time.Duration
	maxLogLength int
	logger       *zap.Logger
}

// NewGateway builds a gateway around provider.
func NewGateway(provider Provider, opts GatewayOptions, log *zap.Logger) *Gateway {
	policy := opts.Policy
	if policy.MaxAttempts <= 0 {
		policy = retry.Default(nil)
	}
	policy.Retryable = IsTransient

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}

	maxLog := opts.MaxLogLength
	if maxLog <= 0 {
		maxLog = defaultMaxLogLength
	}

	return &Gateway{
		provider:     provider,
		policy:       policy,
		limiter:      limiter,
		cooldown:     opts.Cooldown,
		maxLogLength: maxLog,
		logger:       logger.WithProvider(log, provider.Name(), provider.Model()),
	}
}

// Provider returns the wrapped provider.
func (g *Gateway) Provider() Provider { return g.provider }

// Send returns the trimmed model text. Fence stripping and decoding are left to the caller.
func (g *Gateway) Send(ctx context.Context, req Request) (string, error) {
	var text string

	policy := g.policy
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		g.logger.Warn("model call failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
	}

	g.logger.Debug("sending prompt",
		zap.Int("max_tokens", req.MaxTokens),
		zap.Bool("json", req.JSON),
		zap.String("prompt", utils.TruncateForLog(req.Prompt, g.maxLogLength)),
	)

	err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}
		out, err := g.provider.Complete(ctx, req)
		if err != nil {
			return err
		}
		out = strings.TrimSpace(out)
		if out == "" {
			return ErrEmptyResponse
		}
		text = out
		return nil
	})

	// The cooldown runs even when the caller gave up; it is bounded by ctx.
	_ = utils.WaitFor(ctx, g.cooldown)

	if err != nil {
		g.logger.Warn("model call failed", zap.Error(err))
		return "", err
	}

	g.logger.Debug("model response received", zap.String("response", utils.TruncateForLog(text, g.maxLogLength)))
	return text, nil
}

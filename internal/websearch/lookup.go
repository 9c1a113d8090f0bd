package websearch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/cv-screener/internal/retry"
)

// resultsPerQuery is how many raw hits are requested before filtering.
const resultsPerQuery = 10

// LookupOptions tunes a Lookup. Zero values fall back to the defaults.
type LookupOptions struct {
	MaxAttempts int
	// RequestsPerMinute caps search attempts across all callers; zero disables the cap.
	RequestsPerMinute int
	// MaxConcurrent bounds searches in flight at once. Defaults to 1.
	MaxConcurrent int
}

// Lookup runs a candidate search with a retry policy that treats every
// backend failure as transient. It never returns an error: exhausting the
// attempts yields no links. One Lookup is shared by every pipeline worker,
// so its limiter and in-flight bound apply to the whole batch.
type Lookup struct {
	searcher Searcher
	policy   retry.Policy
	limiter  *rate.Limiter
	inflight chan struct{}
	limit    int
	logger   *zap.Logger
}

// NewLookup wraps searcher.
func NewLookup(searcher Searcher, opts LookupOptions, log *zap.Logger) *Lookup {
	if log == nil {
		log = zap.NewNop()
	}
	policy := retry.Default(retry.Always)
	if opts.MaxAttempts > 0 {
		policy.MaxAttempts = opts.MaxAttempts
	}
	policy.BaseDelay = 3 * time.Second
	policy.MaxDelay = 30 * time.Second

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}

	concurrent := opts.MaxConcurrent
	if concurrent <= 0 {
		concurrent = 1
	}

	return &Lookup{
		searcher: searcher,
		policy:   policy,
		limiter:  limiter,
		inflight: make(chan struct{}, concurrent),
		limit:    DefaultLinkLimit,
		logger:   log,
	}
}

// Query builds the search string for a candidate.
func Query(name, profileURL string) string {
	q := fmt.Sprintf("%q", strings.TrimSpace(name))
	if host := profileHost(profileURL); host != "" {
		return q + " " + host
	}
	return q + " linkedin OR github"
}

// Links returns up to three profile links for the candidate. A known profile
// URL is offered to the filter ahead of the search hits.
func (l *Lookup) Links(ctx context.Context, name, profileURL string) []string {
	if l == nil || l.searcher == nil || strings.TrimSpace(name) == "" {
		return []string{}
	}

	query := Query(name, profileURL)
	log := l.logger.With(zap.String("query", query))

	var results []Result
	policy := l.policy
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		log.Debug("web search failed, retrying", zap.Int("attempt", attempt), zap.Duration("backoff", delay), zap.Error(err))
	}

	err := policy.Do(ctx, func(ctx context.Context, _ int) error {
		found, err := l.search(ctx, query)
		if err != nil {
			return err
		}
		results = found
		return nil
	})
	if err != nil {
		log.Warn("web search gave up", zap.Error(err))
		results = nil
	}

	if strings.TrimSpace(profileURL) != "" {
		results = append([]Result{{URL: profileURL}}, results...)
	}

	links := PickLinks(results, l.limit)
	log.Debug("web presence collected", zap.Strings("links", links))
	return links
}

// search runs one attempt once the shared limiter and in-flight slot allow it.
func (l *Lookup) search(ctx context.Context, query string) ([]Result, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("search rate limit: %w", err)
	}

	select {
	case l.inflight <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-l.inflight }()

	return l.searcher.Search(ctx, query, resultsPerQuery)
}

func profileHost(raw string) string {
	canonical, err := CanonicalURL(raw)
	if err != nil {
		return ""
	}
	u, err := url.Parse(canonical)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

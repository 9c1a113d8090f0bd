// Package screening runs the per-document analysis: local keyword baseline,
// model screening, keyword refinement, qualitative scoring and web lookup.
package screening

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/candidates"
	"github.com/spigell/cv-screener/internal/keywords"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/utils"
)

const (
	defaultJobMaxChars    = 2000
	defaultResumeMaxChars = 4000
)

type completer interface {
	Send(ctx context.Context, req ai.Request) (string, error)
}

type textExtractor interface {
	Extract(data []byte) (string, error)
}

type presenceLookup interface {
	Links(ctx context.Context, name, profileURL string) []string
}

// Settings tune a Pipeline. Zero values use the defaults.
type Settings struct {
	// Workers is the number of documents processed at once. The gateway's
	// rate limit is shared by all of them.
	Workers          int
	DocumentCooldown time.Duration
	// MustHave is the explicit must-have stack. When empty the model infers it.
	MustHave       []string
	JobMaxChars    int
	ResumeMaxChars int
}

// ProgressFunc is called after each document with the number finished so far.
type ProgressFunc func(done, total int, document string)

type Pipeline struct {
	gateway   completer
	extractor textExtractor
	lookup    presenceLookup
	settings  Settings
	logger    *zap.Logger

	OnProgress ProgressFunc
}

// New builds a pipeline. lookup may be nil to disable the web presence stage.
func New(gateway completer, extractor textExtractor, lookup presenceLookup, settings Settings, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if settings.Workers <= 0 {
		settings.Workers = 1
	}
	if settings.JobMaxChars <= 0 {
		settings.JobMaxChars = defaultJobMaxChars
	}
	if settings.ResumeMaxChars <= 0 {
		settings.ResumeMaxChars = defaultResumeMaxChars
	}
	return &Pipeline{
		gateway:   gateway,
		extractor: extractor,
		lookup:    lookup,
		settings:  settings,
		logger:    log,
	}
}

type job struct {
	order int
	doc   Document
}

// Run screens every document of batch and returns a fresh result collection.
// When ctx is canceled the documents already started keep what they gathered,
// the rest are skipped, and ctx.Err() is returned along with the results.
func (p *Pipeline) Run(ctx context.Context, batch *Batch) (*candidates.Results, error) {
	if err := batch.validate(); err != nil {
		return nil, err
	}

	results := candidates.NewResults(batch.RunID)
	total := len(batch.Documents)
	log := p.logger.With(zap.String(logger.FieldRunID, batch.RunID))
	log.Info("screening started", zap.Int("documents", total), zap.Int("workers", p.settings.Workers))

	jobs := make(chan job)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		done    int
		skipped []string
	)

	for w := 0; w < p.settings.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					mu.Lock()
					skipped = append(skipped, j.doc.Name)
					mu.Unlock()
					continue
				}
				res := p.processDocument(ctx, batch, j.order, j.doc)
				results.Append(res)

				mu.Lock()
				done++
				finished := done
				mu.Unlock()
				if p.OnProgress != nil {
					p.OnProgress(finished, total, j.doc.Name)
				}

				if finished < total {
					_ = utils.WaitFor(ctx, p.settings.DocumentCooldown)
				}
			}
		}()
	}

	skip := func(rest []Document) {
		mu.Lock()
		defer mu.Unlock()
		for _, d := range rest {
			skipped = append(skipped, d.Name)
		}
	}

feed:
	for i, doc := range batch.Documents {
		if ctx.Err() != nil {
			skip(batch.Documents[i:])
			break
		}
		select {
		case jobs <- job{order: i, doc: doc}:
		case <-ctx.Done():
			skip(batch.Documents[i:])
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if len(skipped) > 0 {
		log.Warn("screening canceled, documents not started", zap.Strings("skipped", skipped))
	}
	log.Info("screening finished", zap.Int("results", results.Len()), zap.Int("skipped", len(skipped)))

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func (p *Pipeline) processDocument(ctx context.Context, batch *Batch, order int, doc Document) *candidates.Result {
	log := logger.WithDocumentFields(p.logger, batch.RunID, doc.Name, order+1)
	res := &candidates.Result{
		File:        doc.Name,
		Order:       order,
		WebPresence: []string{},
	}

	text, err := p.extractor.Extract(doc.Content)
	if err != nil {
		log.Warn("text extraction failed", zap.Error(err))
		res.Name = candidates.ExtractionErrorName
		res.Type = candidates.ExtractionFailed
		res.Error = err.Error()
		res.ATS = candidates.ATS{MatchedKeywords: []string{}, MissingKeywords: []string{}}
		return res
	}

	local := keywords.Analyze(batch.JobDescription, text)
	res.ATS = candidates.ATS{
		MatchedKeywords: local.Found,
		MissingKeywords: local.Missing,
		Stability:       local.Stability,
	}
	// Baseline that holds unless a later stage does better.
	res.Name = FallbackName(text)
	res.Score = keywords.OverlapScore(local)
	res.Type = candidates.BasicFallback

	in := promptInput{
		job:       batch.JobDescription,
		resume:    text,
		file:      doc.Name,
		found:     local.Found,
		missing:   local.Missing,
		mustHave:  p.settings.MustHave,
		maxJob:    p.settings.JobMaxChars,
		maxResume: p.settings.ResumeMaxChars,
	}

	if p.stopped(ctx, log, StageScreening) {
		return res
	}
	screening, err := p.screen(ctx, in)
	if err != nil {
		logStageFailure(log, StageScreening, err)
	} else {
		res.Facts = screening.Facts()
		if !candidates.IsPlaceholderName(screening.Name) {
			res.Name = screening.Name
		}
		res.Type = candidates.ScreeningOnly
		in.screening = screening
	}

	if p.stopped(ctx, log, StageRefinement) {
		return res
	}
	refined, err := p.refine(ctx, in)
	if err != nil {
		logStageFailure(log, StageRefinement, err)
	} else {
		enforceMustHave(refined, p.settings.MustHave, text)
		res.ATS.MatchedKeywords = refined.Matched
		res.ATS.MissingKeywords = refined.Missing
		res.ATS.Refined = true
		in.found, in.missing = refined.Matched, refined.Missing
	}

	if res.Facts != nil {
		if p.stopped(ctx, log, StageQualitative) {
			return res
		}
		assessment, err := p.assess(ctx, in)
		if err != nil {
			logStageFailure(log, StageQualitative, err)
		} else {
			res.Score = assessment.Score
			res.Summary = assessment.Summary
			res.Strengths = assessment.Strengths
			res.Risks = assessment.Risks
			res.Achievements = assessment.Achievements
			res.JobFit = assessment.JobFit
			res.TechFit = assessment.TechFit
			res.Type = candidates.Complete
		}
	}

	if p.lookup != nil && !candidates.IsPlaceholderName(res.Name) {
		if p.stopped(ctx, log, StageWebPresence) {
			return res
		}
		profile := ""
		if res.Facts != nil {
			profile = res.Facts.Contact.ProfileURL
		}
		res.WebPresence = p.lookup.Links(ctx, res.Name, profile)
	}

	log.Info("document screened",
		zap.String("analysis_type", res.Type.String()),
		zap.Int("score", res.Score),
		zap.String("name", res.Name),
		zap.Bool("keywords_refined", res.ATS.Refined),
	)
	return res
}

func (p *Pipeline) stopped(ctx context.Context, log *zap.Logger, next string) bool {
	if ctx.Err() == nil {
		return false
	}
	logger.WithStage(log, next).Warn("document interrupted, keeping partial result", zap.Error(ctx.Err()))
	return true
}

func logStageFailure(log *zap.Logger, stage string, err error) {
	log = logger.WithStage(log, stage)
	var validation *ValidationError
	if errors.As(err, &validation) {
		log.Warn("stage output rejected", zap.String("reason", validation.Reason))
		return
	}
	log.Warn("stage failed", zap.Error(err))
}

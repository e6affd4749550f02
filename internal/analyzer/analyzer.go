// Package analyzer runs the full resume analysis pipeline: extraction,
// structuring, the four independent scorers, aggregation and feedback.
package analyzer

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"atscore/internal/aggregator"
	"atscore/internal/cache"
	"atscore/internal/errors"
	"atscore/internal/extractor"
	"atscore/internal/feedback"
	"atscore/internal/formatting"
	"atscore/internal/impact"
	"atscore/internal/skills"
	"atscore/internal/structurer"
	"atscore/internal/types"
	"atscore/internal/validator"
)

const (
	// DefaultMinTextLength is the shortest resume text accepted for analysis
	DefaultMinTextLength = 50
	// DefaultMaxStrengths caps the strengths list of a result
	DefaultMaxStrengths = 10
	// DefaultCacheTTL is how long a cached result stays valid
	DefaultCacheTTL = time.Hour

	modelType = "unified"
)

// Pipeline stage names used in spans, metrics and scorer errors
const (
	StageExtract     = "extract"
	StageStructure   = "structure"
	StageValidate    = "ats_validation"
	StageSkills      = "skill_matching"
	StageImpact      = "impact_scoring"
	StageFormatting  = "formatting"
	StageAggregation = "aggregation"
	StageFeedback    = "feedback"
)

// Analysis statuses reported to the Recorder
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusCached  = "cached"
)

// ProviderFactory builds a suggestion provider for a caller-supplied API key
type ProviderFactory func(apiKey string) (feedback.SuggestionProvider, error)

// Analyzer is safe for concurrent use. All per-request state lives on the
// call stack of Analyze.
type Analyzer struct {
	extractor  extractor.Extractor
	structurer *structurer.Structurer
	validator  *validator.Validator
	matcher    *skills.Matcher
	impact     *impact.Scorer
	formatting *formatting.Analyzer
	aggregator atomic.Pointer[aggregator.Aggregator]
	ruleBased  *feedback.RuleBased

	provider            feedback.SuggestionProvider
	providerFactory     ProviderFactory
	minSuggestionLength int

	cache    cache.Cache
	cacheTTL time.Duration

	recorder      Recorder
	tracer        trace.Tracer
	logger        *errors.Logger
	now           func() time.Time
	newID         func() string
	minTextLength int
	maxStrengths  int
	sequential    bool

	matcherOpts    []skills.Option
	impactOpts     []impact.Option
	structurerOpts []structurer.Option
	weights        map[string]float64
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithLogger sets the logger handed to every stage
func WithLogger(l *errors.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// WithExtractor replaces the file extractor
func WithExtractor(e extractor.Extractor) Option {
	return func(a *Analyzer) { a.extractor = e }
}

// WithWeights sets custom aggregation weights. They are validated by New.
func WithWeights(w map[string]float64) Option {
	return func(a *Analyzer) { a.weights = w }
}

// WithSimilarity enables the semantic skill-matching pass
func WithSimilarity(s skills.Similarity, threshold float64) Option {
	return func(a *Analyzer) {
		a.matcherOpts = append(a.matcherOpts, skills.WithSimilarity(s), skills.WithThreshold(threshold))
	}
}

// WithVerbTagger enables sentence-wide verb detection in impact scoring
func WithVerbTagger(t impact.VerbTagger) Option {
	return func(a *Analyzer) { a.impactOpts = append(a.impactOpts, impact.WithVerbTagger(t)) }
}

// WithStructurerOptions passes options through to the structurer
func WithStructurerOptions(opts ...structurer.Option) Option {
	return func(a *Analyzer) { a.structurerOpts = append(a.structurerOpts, opts...) }
}

// WithSuggestionProvider sets the collaborator used for enhanced feedback
func WithSuggestionProvider(p feedback.SuggestionProvider) Option {
	return func(a *Analyzer) { a.provider = p }
}

// WithProviderFactory builds providers for per-request API keys
func WithProviderFactory(f ProviderFactory) Option {
	return func(a *Analyzer) { a.providerFactory = f }
}

// WithMinSuggestionLength overrides the enhanced feedback length filter
func WithMinSuggestionLength(n int) Option {
	return func(a *Analyzer) { a.minSuggestionLength = n }
}

// WithCache stores successful rule-based results
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(a *Analyzer) {
		a.cache = c
		if ttl > 0 {
			a.cacheTTL = ttl
		}
	}
}

// WithRecorder reports stage and analysis metrics
func WithRecorder(r Recorder) Option {
	return func(a *Analyzer) { a.recorder = r }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// WithIDGenerator overrides analysis ID generation
func WithIDGenerator(f func() string) Option {
	return func(a *Analyzer) { a.newID = f }
}

// WithMinTextLength overrides the minimum resume text length
func WithMinTextLength(n int) Option {
	return func(a *Analyzer) {
		if n >= 0 {
			a.minTextLength = n
		}
	}
}

// WithMaxStrengths overrides the strengths cap
func WithMaxStrengths(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxStrengths = n
		}
	}
}

// WithSequential runs the scorers one after another instead of concurrently
func WithSequential() Option {
	return func(a *Analyzer) { a.sequential = true }
}

// New builds an Analyzer. Invalid weights fail here, before any analysis runs.
func New(opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		cache:         cache.Nop{},
		cacheTTL:      DefaultCacheTTL,
		recorder:      nopRecorder{},
		tracer:        otel.Tracer("atscore.analyzer"),
		now:           time.Now,
		newID:         uuid.NewString,
		minTextLength: DefaultMinTextLength,
		maxStrengths:  DefaultMaxStrengths,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = errors.OrNop(a.logger)

	agg, err := aggregator.New(a.weights, a.logger)
	if err != nil {
		return nil, err
	}
	a.aggregator.Store(agg)

	if a.extractor == nil {
		a.extractor = extractor.New(0, a.logger)
	}
	a.structurer = structurer.New(append(a.structurerOpts, structurer.WithLogger(a.logger))...)
	a.validator = validator.New(a.logger)
	a.matcher = skills.New(append(a.matcherOpts, skills.WithLogger(a.logger))...)
	a.impact = impact.New(append(a.impactOpts, impact.WithLogger(a.logger))...)
	a.formatting = formatting.New(a.logger)
	a.ruleBased = feedback.NewRuleBased(a.logger)

	return a, nil
}

// SetWeights swaps the aggregation weights for subsequent analyses
func (a *Analyzer) SetWeights(weights map[string]float64) error {
	agg, err := aggregator.New(weights, a.logger)
	if err != nil {
		return err
	}
	a.aggregator.Store(agg)
	a.logger.Info("Aggregation weights updated", "weights", agg.Weights())
	return nil
}

// Weights returns the aggregation weights in use
func (a *Analyzer) Weights() map[string]float64 {
	return a.aggregator.Load().Weights()
}

// CacheBackend names the configured result cache
func (a *Analyzer) CacheBackend() string {
	return a.cache.Backend()
}

// Analyze runs the whole pipeline. The returned error is non-nil only for
// an invalid request; pipeline failures come back as an error result.
func (a *Analyzer) Analyze(ctx context.Context, req types.AnalyzeRequest) (*types.UnifiedResult, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid analysis request", err)
	}

	ctx, span := a.tracer.Start(ctx, "analyze", trace.WithAttributes(
		attribute.Bool("job_description", req.JobDescription != nil),
		attribute.Bool("enhanced_feedback", req.UseEnhancedFeedback),
	))
	defer span.End()

	start := a.now()

	text, err := a.extractText(ctx, req)
	if err == nil {
		var resume *types.StructuredResume
		resume, err = a.structure(ctx, text)
		if err == nil {
			return a.score(ctx, span, start, text, resume, req), nil
		}
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	a.logger.LogError(err, "Analysis failed")
	result := a.errorResult(err, start)
	a.recorder.AnalysisCompleted(ctx, StatusError, result.Metadata.AnalysisDurationSeconds, 0)
	return result, nil
}

// AnalyzeResume scores an already structured resume with rule-based
// feedback. Structuring and extraction are skipped.
func (a *Analyzer) AnalyzeResume(ctx context.Context, resume *types.StructuredResume, jobDescription *string) *types.UnifiedResult {
	ctx, span := a.tracer.Start(ctx, "analyze")
	defer span.End()

	if resume == nil {
		resume = types.NewStructuredResume()
	}
	req := types.AnalyzeRequest{JobDescription: jobDescription}
	return a.score(ctx, span, a.now(), "", resume.Normalize(), req)
}

// Structure runs only the structuring stage on raw text
func (a *Analyzer) Structure(ctx context.Context, text string) (*types.StructuredResume, error) {
	return a.structure(ctx, text)
}

func (a *Analyzer) extractText(ctx context.Context, req types.AnalyzeRequest) (string, error) {
	ctx, span := a.tracer.Start(ctx, "stage."+StageExtract)
	defer span.End()
	start := a.now()

	text := req.ResumeText
	var err error
	if text == "" {
		text, err = a.extractor.Extract(ctx, req.ResumePath)
	}
	if err == nil && len([]rune(strings.TrimSpace(text))) < a.minTextLength {
		err = errors.NewExtractionError(errors.ErrCodeTextTooShort, "Resume text too short or empty", nil)
	}

	a.recorder.StageCompleted(ctx, StageExtract, a.since(start), err != nil)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	a.logger.Debug("Extracted resume text", "chars", len(text))
	return text, nil
}

func (a *Analyzer) structure(ctx context.Context, text string) (resume *types.StructuredResume, err error) {
	ctx, span := a.tracer.Start(ctx, "stage."+StageStructure)
	defer span.End()
	start := a.now()

	defer func() {
		if r := recover(); r != nil {
			resume = nil
			err = errors.NewStructuringError(errors.ErrCodeStructuringFailed,
				fmt.Sprintf("structuring panicked: %v", r), nil)
		}
		a.recorder.StageCompleted(ctx, StageStructure, a.since(start), err != nil)
		if err != nil {
			span.RecordError(err)
		}
	}()

	return a.structurer.Parse(text)
}

// stageResults holds one analysis' scorer outputs. Each field is written
// by exactly one stage.
type stageResults struct {
	ats        *types.ATSResult
	skills     *types.SkillResult
	impact     *types.ImpactResult
	formatting *types.FormattingResult
}

func (a *Analyzer) score(ctx context.Context, span trace.Span, start time.Time, text string, resume *types.StructuredResume, req types.AnalyzeRequest) *types.UnifiedResult {
	agg := a.aggregator.Load()
	provider := a.feedbackProvider(req)
	mode := types.FeedbackModeRuleBased
	if provider != nil {
		mode = types.FeedbackModeLLM
	}

	cacheKey := ""
	if provider == nil && text != "" {
		cacheKey = cache.Key(text, req.JobDescription, mode, agg.Weights())
		if cached := a.lookup(ctx, cacheKey, start); cached != nil {
			span.SetAttributes(attribute.Bool("cached", true))
			return cached
		}
	}

	res := a.runScorers(ctx, resume, req.JobDescription)
	final := a.aggregate(ctx, agg, res)
	fb := a.generateFeedback(ctx, provider, feedback.Inputs{
		Resume:     resume,
		ATS:        res.ats,
		Skills:     res.skills,
		Impact:     res.impact,
		Formatting: res.formatting,
		Final:      final,
	})

	result := a.buildResult(resume, res, final, fb, provider != nil)
	a.stamp(result, start)

	span.SetAttributes(
		attribute.Float64("ats_score", result.ATSScore),
		attribute.String("grade", result.Metadata.Grade),
	)
	a.recorder.AnalysisCompleted(ctx, StatusSuccess, result.Metadata.AnalysisDurationSeconds, result.ATSScore)
	a.logger.Info("Analysis complete",
		"analysis_id", result.Metadata.AnalysisID,
		"ats_score", result.ATSScore,
		"grade", result.Metadata.Grade,
		"suggestions", result.Metadata.TotalSuggestions)

	if cacheKey != "" {
		if err := a.cache.Set(ctx, cacheKey, result, a.cacheTTL); err != nil {
			a.logger.LogError(err, "Failed to cache analysis result")
		}
	}
	return result
}

func (a *Analyzer) lookup(ctx context.Context, key string, start time.Time) *types.UnifiedResult {
	cached, ok, err := a.cache.Get(ctx, key)
	if err != nil {
		a.logger.LogError(err, "Cache lookup failed")
		return nil
	}
	a.recorder.CacheLookup(ctx, ok)
	if !ok {
		return nil
	}

	cached.Metadata.Cached = true
	a.stamp(cached, start)
	a.recorder.AnalysisCompleted(ctx, StatusCached, cached.Metadata.AnalysisDurationSeconds, cached.ATSScore)
	a.logger.Debug("Serving cached analysis", "analysis_id", cached.Metadata.AnalysisID)
	return cached
}

// feedbackProvider resolves the collaborator for this request, or nil for
// rule-based feedback
func (a *Analyzer) feedbackProvider(req types.AnalyzeRequest) feedback.SuggestionProvider {
	if !req.UseEnhancedFeedback {
		return nil
	}
	if req.FeedbackAPIKey != "" && a.providerFactory != nil {
		p, err := a.providerFactory(req.FeedbackAPIKey)
		if err == nil {
			return p
		}
		a.logger.LogError(err, "Failed to create suggestion provider for request key")
	}
	if a.provider != nil {
		return a.provider
	}
	a.logger.Warn("Enhanced feedback requested but no API key configured, using rule-based feedback")
	return nil
}

func (a *Analyzer) runScorers(ctx context.Context, resume *types.StructuredResume, jobDescription *string) stageResults {
	var res stageResults

	stages := []struct {
		name string
		run  func(context.Context)
		fail func()
	}{
		{StageValidate,
			func(context.Context) { res.ats = a.validator.Validate(resume) },
			func() { res.ats = fallbackATS() }},
		{StageSkills,
			func(ctx context.Context) { res.skills = a.matcher.Match(ctx, resume, jobDescription) },
			func() { res.skills = fallbackSkills(resume) }},
		{StageImpact,
			func(context.Context) { res.impact = a.impact.Score(resume) },
			func() { res.impact = fallbackImpact() }},
		{StageFormatting,
			func(context.Context) { res.formatting = a.formatting.Analyze(resume) },
			func() { res.formatting = fallbackFormatting() }},
	}

	if a.sequential {
		for _, s := range stages {
			if err := a.runStage(ctx, s.name, s.run); err != nil {
				s.fail()
			}
		}
		return res
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range stages {
		g.Go(func() error {
			if err := a.runStage(gctx, s.name, s.run); err != nil {
				s.fail()
			}
			return nil
		})
	}
	_ = g.Wait()
	return res
}

// runStage executes one scorer under its own span and turns a panic into a
// ScorerError
func (a *Analyzer) runStage(ctx context.Context, name string, run func(context.Context)) (err error) {
	ctx, span := a.tracer.Start(ctx, "stage."+name)
	defer span.End()
	start := a.now()

	defer func() {
		if r := recover(); r != nil {
			err = errors.NewScorerError(errors.ErrCodeScorerFailed,
				fmt.Sprintf("%s stage failed: %v", name, r), nil).WithContext("stage", name)
			span.RecordError(err)
			span.SetStatus(codes.Error, "stage failed")
			a.logger.LogError(err, "Scorer failed, using fallback result")
		}
		a.recorder.StageCompleted(ctx, name, a.since(start), err != nil)
	}()

	run(ctx)
	return nil
}

func (a *Analyzer) aggregate(ctx context.Context, agg *aggregator.Aggregator, res stageResults) (final *types.AggregatedScore) {
	scores := aggregator.Scores{
		RuleChecks:      &res.ats.Score,
		KeywordMatching: &res.skills.Score,
		ImpactScore:     &res.impact.Score,
		Formatting:      &res.formatting.Score,
	}
	err := a.runStage(ctx, StageAggregation, func(context.Context) { final = agg.Aggregate(scores) })
	if err != nil {
		return fallbackAggregate(agg)
	}
	return final
}

func (a *Analyzer) generateFeedback(ctx context.Context, provider feedback.SuggestionProvider, in feedback.Inputs) (fb *types.FeedbackResult) {
	var gen feedback.Generator = a.ruleBased
	if provider != nil {
		var opts []feedback.EnhancedOption
		if a.minSuggestionLength > 0 {
			opts = append(opts, feedback.WithMinSuggestionLength(a.minSuggestionLength))
		}
		gen = feedback.NewEnhanced(provider, a.logger, opts...)
	}

	err := a.runStage(ctx, StageFeedback, func(ctx context.Context) { fb = gen.Generate(ctx, in) })
	if err != nil || fb == nil {
		return feedback.Unavailable()
	}
	return fb
}

// stamp sets the per-run metadata: ID, timestamp and duration
func (a *Analyzer) stamp(result *types.UnifiedResult, start time.Time) {
	end := a.now()
	result.Metadata.AnalysisID = a.newID()
	result.Metadata.AnalyzedAt = end.UTC().Format(time.RFC3339)
	result.Metadata.AnalysisDurationSeconds = types.Round(end.Sub(start).Seconds(), 2)
}

func (a *Analyzer) since(start time.Time) float64 {
	return a.now().Sub(start).Seconds()
}

package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xeipuuv/gojsonschema"

	"atscore/internal/errors"
	"atscore/internal/types"
)

// DefaultMinSuggestionLength is the shortest accepted collaborator suggestion text
const DefaultMinSuggestionLength = 20

// SafeScores carries only the numeric stage scores
type SafeScores struct {
	ATS          *float64 `json:"ats"`
	KeywordMatch *float64 `json:"keyword_match"`
	Impact       *float64 `json:"impact"`
	Formatting   *float64 `json:"formatting"`
	Final        *float64 `json:"final"`
}

// SafeIssues carries issue counts and the fixed-vocabulary impact weak points
type SafeIssues struct {
	ATSViolations    int      `json:"ats_violations"`
	MissingSkills    int      `json:"missing_skills"`
	WeakPoints       []string `json:"weak_points"`
	FormattingIssues int      `json:"formatting_issues"`
}

// SafeStats carries section counts
type SafeStats struct {
	TotalExperienceEntries int  `json:"total_experience_entries"`
	TotalSkills            int  `json:"total_skills"`
	TotalEducation         int  `json:"total_education"`
	HasSummary             bool `json:"has_summary"`
}

// SafeSummary is the only data handed to a SuggestionProvider. It contains
// no resume text, names, contact details or company names.
type SafeSummary struct {
	Scores SafeScores `json:"scores"`
	Issues SafeIssues `json:"issues"`
	Stats  SafeStats  `json:"stats"`
}

// NewSafeSummary anonymizes the analysis results
func NewSafeSummary(in Inputs) SafeSummary {
	var s SafeSummary
	s.Issues.WeakPoints = []string{}

	if in.ATS != nil {
		s.Scores.ATS = ptr(in.ATS.Score)
		s.Issues.ATSViolations = len(in.ATS.Violations)
	}
	if in.Skills != nil {
		s.Scores.KeywordMatch = ptr(in.Skills.Score)
		s.Issues.MissingSkills = len(in.Skills.MissingSkills)
	}
	if in.Impact != nil {
		s.Scores.Impact = ptr(in.Impact.Score)
		s.Issues.WeakPoints = append(s.Issues.WeakPoints, in.Impact.WeakPoints...)
	}
	if in.Formatting != nil {
		s.Scores.Formatting = ptr(in.Formatting.Score)
		s.Issues.FormattingIssues = len(in.Formatting.Issues)
	}
	if in.Final != nil {
		s.Scores.Final = ptr(in.Final.ATSScore)
	}
	if in.Resume != nil {
		s.Stats = SafeStats{
			TotalExperienceEntries: len(in.Resume.Experience),
			TotalSkills:            len(in.Resume.Skills),
			TotalEducation:         len(in.Resume.Education),
			HasSummary:             in.Resume.Summary != "",
		}
	}
	return s
}

func ptr(v float64) *float64 { return &v }

// SuggestionProvider returns a JSON array of suggestion objects for an
// anonymized summary
type SuggestionProvider interface {
	Suggest(ctx context.Context, summary SafeSummary) (json.RawMessage, error)
}

// suggestionSchema describes one collaborator suggestion
const suggestionSchema = `{
  "type": "object",
  "required": ["category", "priority", "issue", "suggestion", "impact"],
  "properties": {
    "category":   {"type": "string", "minLength": 1},
    "priority":   {"type": "string", "enum": ["high", "medium", "low"]},
    "issue":      {"type": "string", "minLength": 1},
    "suggestion": {"type": "string"},
    "impact":     {"type": "string"}
  }
}`

var (
	itemSchema   = mustSchema(suggestionSchema)
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("invalid suggestion schema: %v", err))
	}
	return schema
}

// Enhanced merges collaborator suggestions into the rule-based baseline
type Enhanced struct {
	base      *RuleBased
	provider  SuggestionProvider
	minLength int
	logger    *errors.Logger
}

// EnhancedOption configures an Enhanced generator
type EnhancedOption func(*Enhanced)

// WithMinSuggestionLength overrides the minimum accepted suggestion length
func WithMinSuggestionLength(n int) EnhancedOption {
	return func(e *Enhanced) {
		if n > 0 {
			e.minLength = n
		}
	}
}

// NewEnhanced creates a generator that consults provider
func NewEnhanced(provider SuggestionProvider, logger *errors.Logger, opts ...EnhancedOption) *Enhanced {
	logger = errors.OrNop(logger)
	e := &Enhanced{
		base:      NewRuleBased(logger),
		provider:  provider,
		minLength: DefaultMinSuggestionLength,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generate implements Generator. Any collaborator failure yields the
// rule-based result.
func (e *Enhanced) Generate(ctx context.Context, in Inputs) *types.FeedbackResult {
	baseline := e.base.Generate(ctx, in)
	if e.provider == nil {
		return baseline
	}

	summary := NewSafeSummary(in)
	raw, err := e.provider.Suggest(ctx, summary)
	if err != nil {
		e.logger.LogError(errors.NewFeedbackError(errors.ErrCodeFeedbackFailed,
			"suggestion provider failed, using rule-based feedback", err), "Enhanced feedback unavailable")
		return baseline
	}

	extra, err := e.ValidateSuggestions(raw)
	if err != nil {
		e.logger.LogError(err, "Enhanced feedback rejected, using rule-based feedback")
		return baseline
	}

	all := make([]types.Suggestion, 0, len(baseline.Suggestions)+len(extra))
	all = append(all, baseline.Suggestions...)
	all = append(all, extra...)

	final := 0.0
	if summary.Scores.Final != nil {
		final = *summary.Scores.Final
	}

	e.logger.Debug("Generated enhanced feedback", "suggestions", len(all), "accepted", len(extra))
	return &types.FeedbackResult{
		Feedback:          fmt.Sprintf("Your resume scores %v/100. %d improvements suggested.", final, len(all)),
		Suggestions:       all,
		Mode:              types.FeedbackModeLLM,
		TotalSuggestions:  len(all),
		PriorityBreakdown: priorityBreakdown(all),
		LLMEnhanced:       true,
	}
}

// ValidateSuggestions parses a collaborator payload and keeps the
// suggestions that satisfy the schema, contain no email address and carry
// actionable text. A payload that is not a JSON array is an error.
func (e *Enhanced) ValidateSuggestions(raw json.RawMessage) ([]types.Suggestion, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errors.NewFeedbackError(errors.ErrCodeSuggestionRejected,
			"suggestion payload is not a JSON array", err)
	}

	accepted := []types.Suggestion{}
	for i, item := range items {
		result, err := itemSchema.Validate(gojsonschema.NewBytesLoader(item))
		if err != nil {
			e.logger.Debug("Dropping unparseable suggestion", "index", i, "error", err)
			continue
		}
		if !result.Valid() {
			e.logger.Debug("Dropping suggestion failing schema", "index", i, "errors", schemaErrors(result))
			continue
		}

		var s types.Suggestion
		if err := json.Unmarshal(item, &s); err != nil {
			continue
		}
		if containsEmail(s) {
			e.logger.Warn("Dropping suggestion containing an email address", "index", i)
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(s.Suggestion)) < e.minLength {
			e.logger.Debug("Dropping non-actionable suggestion", "index", i)
			continue
		}
		accepted = append(accepted, s)
	}
	return accepted, nil
}

func containsEmail(s types.Suggestion) bool {
	for _, v := range []string{s.Category, s.Priority, s.Issue, s.Suggestion, s.Impact} {
		if emailPattern.MatchString(v) {
			return true
		}
	}
	return false
}

func schemaErrors(result *gojsonschema.Result) string {
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.Field()+": "+desc.Description())
	}
	return strings.Join(msgs, "; ")
}

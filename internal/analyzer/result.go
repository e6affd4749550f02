package analyzer

import (
	"context"
	"fmt"
	"time"

	"atscore/internal/aggregator"
	"atscore/internal/errors"
	"atscore/internal/types"
)

// Recorder receives pipeline measurements. Implementations must be safe
// for concurrent use.
type Recorder interface {
	StageCompleted(ctx context.Context, stage string, seconds float64, failed bool)
	AnalysisCompleted(ctx context.Context, status string, seconds, score float64)
	CacheLookup(ctx context.Context, hit bool)
}

type nopRecorder struct{}

func (nopRecorder) StageCompleted(context.Context, string, float64, bool)       {}
func (nopRecorder) AnalysisCompleted(context.Context, string, float64, float64) {}
func (nopRecorder) CacheLookup(context.Context, bool)                           {}

func (a *Analyzer) buildResult(resume *types.StructuredResume, res stageResults, final *types.AggregatedScore, fb *types.FeedbackResult, llmEnabled bool) *types.UnifiedResult {
	matched := make([]types.MatchedSkill, 0, len(res.skills.MatchedSkills))
	for _, m := range res.skills.MatchedSkills {
		matched = append(matched, types.MatchedSkill{
			ResumeSkill: m.ResumeSkill,
			JobSkill:    m.JobSkill,
			MatchType:   m.MatchType,
			Confidence:  types.Round(m.Similarity, 2),
		})
	}

	suggestions := make([]types.ImprovementSuggestion, 0, len(fb.Suggestions))
	for _, s := range fb.Suggestions {
		suggestions = append(suggestions, types.ImprovementSuggestion{
			Category:       s.Category,
			Priority:       s.Priority,
			Title:          s.Issue,
			Description:    s.Suggestion,
			ExpectedImpact: s.Impact,
		})
	}

	missing := res.skills.MissingSkills
	if missing == nil {
		missing = []string{}
	}

	return &types.UnifiedResult{
		ATSScore: types.Round(final.ATSScore, 2),
		SectionScores: types.SectionScores{
			ATSCompliance:   types.Round(res.ats.Score, 2),
			KeywordMatching: types.Round(res.skills.Score, 2),
			ImpactQuality:   types.Round(res.impact.Score, 2),
			Formatting:      types.Round(res.formatting.Score, 2),
		},
		MatchedSkills:          matched,
		MissingSkills:          missing,
		Strengths:              a.strengths(res),
		ImprovementSuggestions: suggestions,
		Feedback:               fb.Feedback,
		DetailedResults: &types.DetailedResults{
			ATSViolations:             res.ats.Violations,
			ATSPassedChecks:           res.ats.PassedChecks,
			ImpactStrengths:           res.impact.Strengths,
			ImpactWeakPoints:          res.impact.WeakPoints,
			FormattingIssues:          res.formatting.Issues,
			FormattingRecommendations: res.formatting.Recommendations,
			ScoreBreakdowns: types.ScoreBreakdowns{
				ATSCompliance: res.ats.ScoreBreakdown,
				ImpactQuality: res.impact.ScoreBreakdown,
				Formatting:    res.formatting.ScoreBreakdown,
			},
			MatchDetails:    res.skills.MatchDetails,
			Recommendations: final.Recommendations,
		},
		Metadata: types.Metadata{
			AnalysisVersion:     types.AnalysisVersion,
			ModelType:           modelType,
			Grade:               final.ScoreGrade,
			TotalSuggestions:    len(suggestions),
			HasJobDescription:   res.skills.MatchDetails.TotalJobSkills > 0,
			ResumeSectionsFound: resume.SectionsFound(),
			FeedbackMode:        fb.Mode,
			LLMFeedbackEnabled:  llmEnabled,
			WeightsUsed:         final.WeightsUsed,
			MissingScores:       final.MissingScores,
		},
	}
}

// strengths collects positive findings across the scorers, capped at maxStrengths
func (a *Analyzer) strengths(res stageResults) []string {
	out := []string{}

	switch rule := res.ats.Score; {
	case rule >= 80:
		out = append(out, fmt.Sprintf("✓ Excellent ATS compliance (%v/100)", rule))
	case rule >= 60:
		out = append(out, fmt.Sprintf("✓ Good ATS compliance (%v/100)", rule))
	}

	if n := len(res.ats.PassedChecks); n > 10 {
		out = append(out, fmt.Sprintf("✓ Passes %d ATS quality checks", n))
	}

	if res.skills.JobDescriptionProvided {
		switch match := res.skills.Score; {
		case match >= 75:
			out = append(out, fmt.Sprintf("✓ Excellent keyword match (%v%%)", match))
		case match >= 50:
			out = append(out, fmt.Sprintf("✓ Good keyword match (%v%%)", match))
		}
	}

	for _, s := range res.impact.Strengths[:min(len(res.impact.Strengths), 3)] {
		out = append(out, "✓ "+s)
	}

	if f := res.formatting.Score; f >= 80 {
		out = append(out, fmt.Sprintf("✓ Well-formatted resume (%v/100)", f))
	}

	return out[:min(len(out), a.maxStrengths)]
}

// errorResult is the failure shape of a UnifiedResult
func (a *Analyzer) errorResult(err error, start time.Time) *types.UnifiedResult {
	msg := errors.MessageOf(err)
	result := &types.UnifiedResult{
		MatchedSkills: []types.MatchedSkill{},
		MissingSkills: []string{},
		Strengths:     []string{},
		ImprovementSuggestions: []types.ImprovementSuggestion{{
			Category:       "error",
			Priority:       types.PriorityHigh,
			Title:          "Analysis Failed",
			Description:    "Unable to analyze resume: " + msg,
			ExpectedImpact: "Please check the resume file and try again",
		}},
		Feedback: "Resume analysis failed: " + msg,
		Metadata: types.Metadata{
			AnalysisVersion:     types.AnalysisVersion,
			ModelType:           modelType,
			Grade:               "F",
			TotalSuggestions:    1,
			ResumeSectionsFound: []string{},
			Error:               true,
			ErrorMessage:        msg,
		},
	}
	a.stamp(result, start)
	return result
}

func fallbackATS() *types.ATSResult {
	return &types.ATSResult{
		Violations:     []types.Violation{},
		PassedChecks:   []types.PassedCheck{},
		ScoreBreakdown: map[string]float64{},
	}
}

// fallbackSkills scores 0. The neutral score is reserved for an absent job
// description, which the matcher itself handles.
func fallbackSkills(resume *types.StructuredResume) *types.SkillResult {
	return &types.SkillResult{
		MatchedSkills: []types.SkillMatch{},
		MissingSkills: []string{},
		MatchDetails:  types.MatchDetails{TotalResumeSkills: len(resume.Skills)},
	}
}

func fallbackImpact() *types.ImpactResult {
	return &types.ImpactResult{
		Strengths:      []string{},
		WeakPoints:     []string{},
		BulletAnalyses: []types.BulletAnalysis{},
		ScoreBreakdown: map[string]float64{},
	}
}

func fallbackFormatting() *types.FormattingResult {
	return &types.FormattingResult{
		Issues:          []types.FormattingIssue{},
		Recommendations: []string{},
		ScoreBreakdown:  map[string]float64{},
	}
}

func fallbackAggregate(agg *aggregator.Aggregator) *types.AggregatedScore {
	return &types.AggregatedScore{
		ScoreGrade:            "F",
		SectionScores:         map[string]float64{},
		WeightsUsed:           agg.Weights(),
		WeightedContributions: map[string]float64{},
		MissingScores:         append([]string(nil), aggregator.Keys...),
		Recommendations:       []string{},
	}
}

// Package feedback turns scorer results into prioritized improvement
// suggestions and a short summary. The rule-based generator is always
// available; the enhanced generator adds collaborator suggestions built
// from an anonymized summary and falls back to the rule-based result.
package feedback

import (
	"context"
	"fmt"
	"strings"

	"atscore/internal/errors"
	"atscore/internal/types"
)

// Suggestion categories
const (
	CategoryATS        = "ats_compliance"
	CategorySkills     = "skills"
	CategoryImpact     = "impact"
	CategoryFormatting = "formatting"
)

// UnavailableFeedback is reported when feedback generation itself failed
const UnavailableFeedback = "Unable to generate detailed feedback."

// Inputs bundles every stage result. Any scorer result may be nil when the
// stage produced nothing.
type Inputs struct {
	Resume     *types.StructuredResume
	ATS        *types.ATSResult
	Skills     *types.SkillResult
	Impact     *types.ImpactResult
	Formatting *types.FormattingResult
	Final      *types.AggregatedScore
}

// Generator produces feedback from analysis results
type Generator interface {
	Generate(ctx context.Context, in Inputs) *types.FeedbackResult
}

// RuleBased derives suggestions deterministically from the results
type RuleBased struct {
	logger *errors.Logger
}

// NewRuleBased creates the deterministic generator
func NewRuleBased(logger *errors.Logger) *RuleBased {
	return &RuleBased{logger: errors.OrNop(logger)}
}

// Generate implements Generator
func (g *RuleBased) Generate(_ context.Context, in Inputs) *types.FeedbackResult {
	suggestions := g.Suggestions(in)
	result := &types.FeedbackResult{
		Feedback:          Summary(in.Final, suggestions),
		Suggestions:       suggestions,
		Mode:              types.FeedbackModeRuleBased,
		TotalSuggestions:  len(suggestions),
		PriorityBreakdown: priorityBreakdown(suggestions),
	}
	g.logger.Debug("Generated rule-based feedback", "suggestions", len(suggestions))
	return result
}

// Suggestions returns the rule-based suggestions in source order: ATS,
// skills, impact, formatting
func (g *RuleBased) Suggestions(in Inputs) []types.Suggestion {
	suggestions := []types.Suggestion{}
	if in.ATS != nil {
		suggestions = append(suggestions, atsSuggestions(in.ATS)...)
	}
	if in.Skills != nil {
		suggestions = append(suggestions, skillSuggestions(in.Skills)...)
	}
	if in.Impact != nil {
		suggestions = append(suggestions, impactSuggestions(in.Impact)...)
	}
	if in.Formatting != nil {
		suggestions = append(suggestions, formattingSuggestions(in.Formatting)...)
	}
	return suggestions
}

const (
	maxATSWarnings       = 3
	maxMissingListed     = 5
	maxBulletIssues      = 2
	maxSummaryHighlights = 3
)

func atsSuggestions(r *types.ATSResult) []types.Suggestion {
	var out []types.Suggestion
	for _, v := range r.Violations {
		if v.Severity != types.SeverityCritical {
			continue
		}
		out = append(out, types.Suggestion{
			Category:   CategoryATS,
			Priority:   types.PriorityHigh,
			Issue:      v.Message,
			Suggestion: "Fix critical issue: " + v.Message,
			Impact:     "Essential for ATS parsing - high priority fix",
		})
	}

	warnings := 0
	for _, v := range r.Violations {
		if v.Severity != types.SeverityWarning {
			continue
		}
		if warnings == maxATSWarnings {
			break
		}
		warnings++
		out = append(out, types.Suggestion{
			Category:   CategoryATS,
			Priority:   types.PriorityMedium,
			Issue:      v.Message,
			Suggestion: "Address warning: " + v.Message,
			Impact:     "Improves ATS compatibility",
		})
	}

	if r.Score < 70 {
		out = append(out, types.Suggestion{
			Category:   CategoryATS,
			Priority:   types.PriorityHigh,
			Issue:      fmt.Sprintf("Low ATS compliance score: %v/100", r.Score),
			Suggestion: "Review all ATS violations and address critical issues first",
			Impact:     "Significantly improves chance of passing ATS screening",
		})
	}
	return out
}

func skillSuggestions(r *types.SkillResult) []types.Suggestion {
	var out []types.Suggestion
	if r.Score < 60 {
		out = append(out, types.Suggestion{
			Category:   CategorySkills,
			Priority:   types.PriorityHigh,
			Issue:      fmt.Sprintf("Low keyword match: %v%%", r.Score),
			Suggestion: "Add more job-relevant skills and keywords from the job description",
			Impact:     "Increases likelihood of passing keyword screening by 40-60%",
		})
	}
	if n := len(r.MissingSkills); n > 0 {
		priority := types.PriorityMedium
		if n > maxMissingListed {
			priority = types.PriorityHigh
		}
		top := r.MissingSkills[:min(n, maxMissingListed)]
		out = append(out, types.Suggestion{
			Category:   CategorySkills,
			Priority:   priority,
			Issue:      fmt.Sprintf("%d required skills missing", n),
			Suggestion: "Add these missing skills if you have them: " + strings.Join(top, ", "),
			Impact:     "Directly addresses job requirements",
		})
	}
	return out
}

func impactSuggestions(r *types.ImpactResult) []types.Suggestion {
	s := r.Summary
	if s.TotalBullets == 0 {
		return nil
	}
	total := float64(s.TotalBullets)

	var out []types.Suggestion
	if float64(s.QuantifiedBullets)/total < 0.5 {
		out = append(out, types.Suggestion{
			Category:   CategoryImpact,
			Priority:   types.PriorityHigh,
			Issue:      fmt.Sprintf("Only %d/%d bullets include metrics", s.QuantifiedBullets, s.TotalBullets),
			Suggestion: "Add numbers, percentages, or metrics to at least 50% of bullet points",
			Impact:     "Makes achievements concrete and verifiable - increases impact by 50%",
		})
	}
	if float64(s.OwnershipVerbBullets)/total < 0.7 {
		out = append(out, types.Suggestion{
			Category:   CategoryImpact,
			Priority:   types.PriorityMedium,
			Issue:      fmt.Sprintf("Only %d/%d bullets use strong action verbs", s.OwnershipVerbBullets, s.TotalBullets),
			Suggestion: "Start each bullet with powerful action verbs: Led, Built, Achieved, Improved",
			Impact:     "Demonstrates ownership and proactive contribution",
		})
	}
	if float64(s.OutcomeDrivenBullets)/total < 0.6 {
		out = append(out, types.Suggestion{
			Category:   CategoryImpact,
			Priority:   types.PriorityHigh,
			Issue:      fmt.Sprintf("Only %d/%d bullets show clear outcomes", s.OutcomeDrivenBullets, s.TotalBullets),
			Suggestion: "Add results and impact to each bullet: 'resulting in...', 'improved by...', 'increased...'",
			Impact:     "Demonstrates business value and measurable contribution",
		})
	}
	return out
}

func formattingSuggestions(r *types.FormattingResult) []types.Suggestion {
	var out []types.Suggestion
	for _, issue := range r.Issues {
		if issue.Severity != types.SeverityCritical {
			continue
		}
		out = append(out, types.Suggestion{
			Category:   CategoryFormatting,
			Priority:   types.PriorityHigh,
			Issue:      issue.Message,
			Suggestion: issue.Recommendation,
			Impact:     "Critical for ATS parsing",
		})
	}

	listed := 0
	for _, issue := range r.Issues {
		if listed == maxBulletIssues {
			break
		}
		if !strings.Contains(strings.ToLower(issue.Message), "bullet") {
			continue
		}
		listed++
		out = append(out, types.Suggestion{
			Category:   CategoryFormatting,
			Priority:   types.PriorityMedium,
			Issue:      issue.Message,
			Suggestion: issue.Recommendation,
			Impact:     "Improves readability and professional appearance",
		})
	}
	return out
}

// Summary renders the feedback text: an opening by score band, up to three
// high-priority issues and a recommended action list
func Summary(final *types.AggregatedScore, suggestions []types.Suggestion) string {
	score, grade := 0.0, "F"
	if final != nil {
		score, grade = final.ATSScore, final.ScoreGrade
	}

	var b strings.Builder
	switch {
	case score >= 85:
		fmt.Fprintf(&b, "Excellent resume! Your ATS score of %v/100 (Grade %s) is strong.", score, grade)
	case score >= 70:
		fmt.Fprintf(&b, "Good resume with room for improvement. Current ATS score: %v/100 (Grade %s).", score, grade)
	case score >= 60:
		fmt.Fprintf(&b, "Your resume needs improvement. Current ATS score: %v/100 (Grade %s).", score, grade)
	default:
		fmt.Fprintf(&b, "Significant improvements needed. Current ATS score: %v/100 (Grade %s).", score, grade)
	}

	var high []types.Suggestion
	for _, s := range suggestions {
		if s.Priority == types.PriorityHigh {
			high = append(high, s)
		}
	}

	if len(high) > 0 {
		fmt.Fprintf(&b, "\n\nHigh Priority (%d items):\n", len(high))
		for i, s := range high[:min(len(high), maxSummaryHighlights)] {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s.Issue)
		}
	} else {
		b.WriteString("\n\nNo critical issues found. Focus on optimization.")
	}

	b.WriteString("\n\nRecommended Actions:\n")
	if len(high) > 0 {
		b.WriteString("1. Address all high-priority issues first\n")
		b.WriteString("2. Add quantified achievements with metrics\n")
		b.WriteString("3. Ensure ATS-safe formatting\n")
	} else {
		b.WriteString("1. Optimize bullet points for impact\n")
		b.WriteString("2. Fine-tune keyword matching\n")
		b.WriteString("3. Polish formatting and layout\n")
	}
	return b.String()
}

// Unavailable is the feedback substituted when generation failed entirely
func Unavailable() *types.FeedbackResult {
	return &types.FeedbackResult{
		Feedback:          UnavailableFeedback,
		Suggestions:       []types.Suggestion{},
		Mode:              types.FeedbackModeRuleBased,
		PriorityBreakdown: priorityBreakdown(nil),
	}
}

func priorityBreakdown(suggestions []types.Suggestion) map[string]int {
	breakdown := map[string]int{
		types.PriorityHigh:   0,
		types.PriorityMedium: 0,
		types.PriorityLow:    0,
	}
	for _, s := range suggestions {
		if _, ok := breakdown[s.Priority]; ok {
			breakdown[s.Priority]++
		}
	}
	return breakdown
}

// Package aggregator combines the four scorer outputs into the final
// weighted ATS score and letter grade.
package aggregator

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"atscore/internal/errors"
	"atscore/internal/types"
)

// Weight keys
const (
	KeyRuleChecks      = "rule_checks"
	KeyKeywordMatching = "keyword_matching"
	KeyImpactScore     = "impact_score"
	KeyFormatting      = "formatting"
)

// Keys lists the weight keys in aggregation order
var Keys = []string{KeyRuleChecks, KeyKeywordMatching, KeyImpactScore, KeyFormatting}

const weightTolerance = 0.01

// DefaultWeights returns a fresh copy of the default weights
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		KeyRuleChecks:      0.25,
		KeyKeywordMatching: 0.35,
		KeyImpactScore:     0.25,
		KeyFormatting:      0.15,
	}
}

// ValidateWeights requires exactly the four keys, each in [0,1], summing
// to 1 within tolerance
func ValidateWeights(weights map[string]float64) error {
	var unknown []string
	for k := range weights {
		if !isKey(k) {
			unknown = append(unknown, k)
		}
	}
	var missing []string
	for _, k := range Keys {
		if _, ok := weights[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(unknown) > 0 || len(missing) > 0 {
		sort.Strings(unknown)
		return errors.NewConfigError(errors.ErrCodeInvalidWeights,
			fmt.Sprintf("weights must contain exactly %s (missing: [%s], unknown: [%s])",
				strings.Join(Keys, ", "), strings.Join(missing, ", "), strings.Join(unknown, ", ")), nil).
			WithContext("weights", weights)
	}

	total := 0.0
	for _, k := range Keys {
		v := weights[k]
		if math.IsNaN(v) || v < 0 || v > 1 {
			return errors.NewConfigError(errors.ErrCodeInvalidWeights,
				fmt.Sprintf("weight %q must be between 0 and 1, got %v", k, v), nil)
		}
		total += v
	}
	if math.Abs(total-1) > weightTolerance {
		return errors.NewConfigError(errors.ErrCodeInvalidWeights,
			fmt.Sprintf("weights must sum to 1.0, got %.4f", total), nil).
			WithContext("weights", weights)
	}
	return nil
}

func isKey(k string) bool {
	for _, key := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Scores are the scorer outputs. A nil field marks a scorer that produced nothing.
type Scores struct {
	RuleChecks      *float64
	KeywordMatching *float64
	ImpactScore     *float64
	Formatting      *float64
}

func (s Scores) byKey() map[string]*float64 {
	return map[string]*float64{
		KeyRuleChecks:      s.RuleChecks,
		KeyKeywordMatching: s.KeywordMatching,
		KeyImpactScore:     s.ImpactScore,
		KeyFormatting:      s.Formatting,
	}
}

// Aggregator applies a validated weight set. It is immutable after New.
type Aggregator struct {
	weights map[string]float64
	logger  *errors.Logger
}

// New validates weights and returns an Aggregator. Nil weights select the defaults.
func New(weights map[string]float64, logger *errors.Logger) (*Aggregator, error) {
	if weights == nil {
		weights = DefaultWeights()
	} else {
		if err := ValidateWeights(weights); err != nil {
			return nil, err
		}
		weights = copyWeights(weights)
	}
	return &Aggregator{weights: weights, logger: errors.OrNop(logger)}, nil
}

// Weights returns a copy of the weights in use
func (a *Aggregator) Weights() map[string]float64 {
	return copyWeights(a.weights)
}

// Aggregate clamps each present score to [0,100] and averages them over
// the weights of the scores that are present.
func (a *Aggregator) Aggregate(scores Scores) *types.AggregatedScore {
	byKey := scores.byKey()

	sectionScores := make(map[string]float64, len(Keys))
	contributions := make(map[string]float64, len(Keys))
	missing := []string{}
	weightedSum, weightUsed := 0.0, 0.0

	for _, k := range Keys {
		p := byKey[k]
		if p == nil {
			missing = append(missing, k)
			continue
		}
		score := types.Clamp(*p, 0, 100)
		if math.IsNaN(score) {
			score = 0
		}
		w := a.weights[k]
		sectionScores[k] = score
		contributions[k] = types.Round(score*w, 2)
		weightedSum += score * w
		weightUsed += w
	}

	ats := 0.0
	if weightUsed > 0 {
		ats = weightedSum / weightUsed
	}
	ats = types.Round(ats, 2)

	result := &types.AggregatedScore{
		ATSScore:              ats,
		ScoreGrade:            Grade(ats),
		SectionScores:         sectionScores,
		WeightsUsed:           a.Weights(),
		WeightedContributions: contributions,
		MissingScores:         missing,
	}
	result.Recommendations = Recommendations(result)

	a.logger.Debug("Score aggregation complete",
		"ats_score", result.ATSScore,
		"grade", result.ScoreGrade,
		"missing", len(missing))

	return result
}

// Grade maps a score to a letter
func Grade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// sectionBands are the per-section low and high cut points
var sectionBands = []struct {
	key  string
	low  float64
	high float64
	weak string
	good string
}{
	{KeyRuleChecks, 70, 90,
		"⚠️ ATS Compliance: Address critical violations to improve ATS parsing",
		"✓ ATS Compliance: Excellent - resume is ATS-friendly"},
	{KeyKeywordMatching, 60, 80,
		"⚠️ Keyword Match: Add more job-relevant skills and keywords",
		"✓ Keyword Match: Strong alignment with job requirements"},
	{KeyImpactScore, 50, 75,
		"⚠️ Impact: Add quantified achievements and stronger action verbs",
		"✓ Impact: Strong achievement-focused content"},
	{KeyFormatting, 70, 85,
		"⚠️ Formatting: Improve layout and structure for better readability",
		"✓ Formatting: Clean, professional layout"},
}

// Recommendations returns an overall verdict followed by per-section notes
func Recommendations(result *types.AggregatedScore) []string {
	var overall string
	switch {
	case result.ATSScore >= 85:
		overall = "🎉 Overall: Excellent resume! Ready for submission"
	case result.ATSScore >= 70:
		overall = "👍 Overall: Good resume with room for improvement"
	case result.ATSScore >= 60:
		overall = "⚡ Overall: Needs improvement - focus on weak areas"
	default:
		overall = "❌ Overall: Significant improvements needed"
	}

	recs := []string{overall}
	for _, b := range sectionBands {
		score, ok := result.SectionScores[b.key]
		if !ok {
			continue
		}
		switch {
		case score < b.low:
			recs = append(recs, b.weak)
		case score >= b.high:
			recs = append(recs, b.good)
		}
	}
	return recs
}

func copyWeights(w map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

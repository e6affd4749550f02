// Package impact rates experience bullets on quantification, ownership,
// outcomes and STAR structure.
package impact

import (
	"fmt"
	"strings"

	"atscore/internal/errors"
	"atscore/internal/types"
)

// Criteria and their weights
const (
	CriterionQuantification = "quantification"
	CriterionOwnershipVerbs = "ownership_verbs"
	CriterionOutcomes       = "outcomes"
	CriterionStarStructure  = "star_structure"
)

// Weights sum to 100
var Weights = map[string]float64{
	CriterionQuantification: 30,
	CriterionOwnershipVerbs: 25,
	CriterionOutcomes:       25,
	CriterionStarStructure:  20,
}

// strength and weakness cut points per criterion
var thresholds = []struct {
	criterion string
	strong    float64
	weak      float64
	strength  string
	weakness  string
}{
	{CriterionQuantification, 20, 10,
		"Strong quantification: %d%% of bullets include metrics",
		"Weak quantification: Few bullets include numbers or percentages"},
	{CriterionOwnershipVerbs, 18, 12,
		"Strong action verbs: %d%% of bullets use ownership verbs",
		"Weak action verbs: Use more powerful verbs (led, built, achieved)"},
	{CriterionOutcomes, 18, 12,
		"Outcome-driven: %d%% of bullets show results",
		"Weak outcomes: Bullets should clearly state results and impact"},
	{CriterionStarStructure, 14, 8,
		"Good structure: %d%% of bullets follow STAR format",
		"Weak structure: Bullets lack context and clear results (STAR format)"},
}

const (
	maxBulletText   = 80
	highImpactScore = 80
	lowImpactScore  = 40
	noBulletsReason = "No experience bullets found"
)

// VerbTagger returns the lemmas of the verbs in a sentence
type VerbTagger interface {
	VerbLemmas(text string) []string
}

// Scorer computes the impact score of a resume
type Scorer struct {
	tagger VerbTagger
	logger *errors.Logger
}

// Option configures a Scorer
type Option func(*Scorer)

// WithVerbTagger lets ownership verbs count anywhere in a bullet, not only as the first word
func WithVerbTagger(t VerbTagger) Option {
	return func(s *Scorer) { s.tagger = t }
}

// WithLogger sets the logger
func WithLogger(l *errors.Logger) Option {
	return func(s *Scorer) { s.logger = l }
}

// New creates a Scorer
func New(opts ...Option) *Scorer {
	s := &Scorer{}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = errors.OrNop(s.logger)
	return s
}

// Score analyzes every experience bullet
func (s *Scorer) Score(resume *types.StructuredResume) *types.ImpactResult {
	bullets := resume.Bullets()
	if len(bullets) == 0 {
		return emptyResult(noBulletsReason)
	}

	analyses := make([]types.BulletAnalysis, len(bullets))
	var summary types.ImpactSummary
	summary.TotalBullets = len(bullets)
	for i, b := range bullets {
		a := s.analyzeBullet(b)
		analyses[i] = a
		if a.HasQuantification {
			summary.QuantifiedBullets++
		}
		if a.HasOwnershipVerb {
			summary.OwnershipVerbBullets++
		}
		if a.HasOutcome {
			summary.OutcomeDrivenBullets++
		}
		if a.HasStarStructure {
			summary.StarStructuredBullets++
		}
	}

	total := float64(len(bullets))
	breakdown := map[string]float64{
		CriterionQuantification: types.Round(float64(summary.QuantifiedBullets)/total*Weights[CriterionQuantification], 2),
		CriterionOwnershipVerbs: types.Round(float64(summary.OwnershipVerbBullets)/total*Weights[CriterionOwnershipVerbs], 2),
		CriterionOutcomes:       types.Round(float64(summary.OutcomeDrivenBullets)/total*Weights[CriterionOutcomes], 2),
		CriterionStarStructure:  types.Round(float64(summary.StarStructuredBullets)/total*Weights[CriterionStarStructure], 2),
	}

	score := 0.0
	for _, v := range breakdown {
		score += v
	}

	strengths, weakPoints := assess(analyses, breakdown)

	result := &types.ImpactResult{
		Score:          types.Round(score, 2),
		Strengths:      strengths,
		WeakPoints:     weakPoints,
		BulletAnalyses: analyses,
		ScoreBreakdown: breakdown,
		Summary:        summary,
	}

	s.logger.Debug("Impact scoring complete", "score", result.Score, "bullets", len(bullets))
	return result
}

func (s *Scorer) analyzeBullet(bullet string) types.BulletAnalysis {
	lowered := strings.ToLower(bullet)
	firstWord := ""
	if fields := strings.Fields(lowered); len(fields) > 0 {
		firstWord = fields[0]
	}

	var findings []string

	quantified, quantFindings := checkQuantification(bullet)
	findings = append(findings, quantFindings...)

	ownership, verbFinding := s.checkOwnership(bullet, firstWord)
	findings = append(findings, verbFinding)

	outcome, outcomeFindings := checkOutcome(lowered)
	findings = append(findings, outcomeFindings...)

	star, starFinding := checkStar(lowered, firstWord)
	findings = append(findings, starFinding)

	score := 0.0
	if quantified {
		score += Weights[CriterionQuantification]
	}
	if ownership {
		score += Weights[CriterionOwnershipVerbs]
	}
	if outcome {
		score += Weights[CriterionOutcomes]
	}
	if star {
		score += Weights[CriterionStarStructure]
	}

	text := bullet
	if r := []rune(text); len(r) > maxBulletText {
		text = string(r[:maxBulletText]) + "..."
	}

	return types.BulletAnalysis{
		Text:              text,
		HasQuantification: quantified,
		HasOwnershipVerb:  ownership,
		HasOutcome:        outcome,
		HasStarStructure:  star,
		ImpactScore:       score,
		Findings:          findings,
	}
}

func checkQuantification(bullet string) (bool, []string) {
	var findings []string
	for _, q := range quantifiers {
		if m := q.pattern.FindString(bullet); m != "" {
			findings = append(findings, fmt.Sprintf("✓ Quantified with %s: %s", q.label, strings.TrimSpace(m)))
		}
	}
	if len(findings) == 0 {
		return false, []string{"✗ No quantification found - add numbers, percentages, or metrics"}
	}
	return true, findings
}

func (s *Scorer) checkOwnership(bullet, firstWord string) (bool, string) {
	if isOwnershipVerb(firstWord) {
		return true, fmt.Sprintf("✓ Strong action verb: '%s'", firstWord)
	}
	if s.tagger != nil {
		for _, lemma := range s.tagger.VerbLemmas(bullet) {
			if isOwnershipVerb(strings.ToLower(lemma)) {
				return true, fmt.Sprintf("✓ Contains ownership verb: '%s'", lemma)
			}
		}
	}
	return false, fmt.Sprintf("✗ Weak opening verb: '%s' - use strong action verbs (led, built, improved)", firstWord)
}

func checkOutcome(lowered string) (bool, []string) {
	var findings []string
	var found []string
	for _, k := range outcomeKeywords {
		if strings.Contains(lowered, k) {
			found = append(found, k)
		}
	}
	if len(found) > 0 {
		findings = append(findings, "✓ Outcome-driven: mentions "+strings.Join(found[:min(3, len(found))], ", "))
	}
	phrase := false
	for _, p := range resultPhrases {
		if p.MatchString(lowered) {
			phrase = true
			findings = append(findings, "✓ Shows clear results/outcomes")
			break
		}
	}
	if len(found) == 0 && !phrase {
		return false, []string{"✗ No clear outcome stated - describe the result or impact"}
	}
	return true, findings
}

func checkStar(lowered, firstWord string) (bool, string) {
	components := []struct {
		name    string
		present bool
	}{
		{"situation", containsAny(lowered, situationIndicators)},
		{"task", containsAny(lowered, taskIndicators)},
		{"action", isOwnershipVerb(firstWord)},
		{"result", containsAny(lowered, resultIndicators) || containsAny(lowered, outcomeKeywords)},
	}

	var present []string
	for _, c := range components {
		if c.present {
			present = append(present, c.name)
		}
	}

	action, result := components[2].present, components[3].present
	if (action && result) || len(present) >= 3 {
		return true, "✓ STAR structure: includes " + strings.Join(present, ", ")
	}
	return false, "✗ Weak structure - add context (what/why) and clear results"
}

func assess(analyses []types.BulletAnalysis, breakdown map[string]float64) ([]string, []string) {
	strengths, weakPoints := []string{}, []string{}

	for _, th := range thresholds {
		v := breakdown[th.criterion]
		switch {
		case v >= th.strong:
			pct := int(v / Weights[th.criterion] * 100)
			strengths = append(strengths, fmt.Sprintf(th.strength, pct))
		case v < th.weak:
			weakPoints = append(weakPoints, th.weakness)
		}
	}

	high, low := 0, 0
	for _, a := range analyses {
		if a.ImpactScore >= highImpactScore {
			high++
		}
		if a.ImpactScore < lowImpactScore {
			low++
		}
	}
	n := float64(len(analyses))
	if float64(high) >= n*0.5 {
		strengths = append(strengths, fmt.Sprintf("High-impact content: %d strong bullets", high))
	}
	if float64(low) >= n*0.3 {
		weakPoints = append(weakPoints, fmt.Sprintf("Low-impact content: %d bullets need improvement", low))
	}

	return strengths, weakPoints
}

func emptyResult(reason string) *types.ImpactResult {
	breakdown := make(map[string]float64, len(Weights))
	for k := range Weights {
		breakdown[k] = 0
	}
	return &types.ImpactResult{
		Score:          0,
		Strengths:      []string{},
		WeakPoints:     []string{reason},
		BulletAnalyses: []types.BulletAnalysis{},
		ScoreBreakdown: breakdown,
	}
}

func isOwnershipVerb(word string) bool {
	_, ok := ownershipVerbs[strings.TrimRight(word, ".,;:!?")]
	return ok
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

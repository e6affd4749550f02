// Package skills compares resume skills against a job description using
// exact matching and an optional pluggable similarity pass.
package skills

import (
	"context"
	"strings"

	"atscore/internal/errors"
	"atscore/internal/types"
)

const (
	// DefaultThreshold is the minimum similarity accepted by the semantic pass
	DefaultThreshold = 0.7
	// NeutralScore is reported when no job description was supplied
	NeutralScore = 50.0
)

// Matcher scores keyword coverage of a job description
type Matcher struct {
	similarity Similarity
	threshold  float64
	logger     *errors.Logger
}

// Option configures a Matcher
type Option func(*Matcher)

// WithSimilarity enables the semantic pass
func WithSimilarity(s Similarity) Option {
	return func(m *Matcher) { m.similarity = s }
}

// WithThreshold overrides the semantic acceptance threshold
func WithThreshold(t float64) Option {
	return func(m *Matcher) {
		if t > 0 && t <= 1 {
			m.threshold = t
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *errors.Logger) Option {
	return func(m *Matcher) { m.logger = l }
}

// New creates a Matcher. Without WithSimilarity only exact matching runs.
func New(opts ...Option) *Matcher {
	m := &Matcher{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = errors.OrNop(m.logger)
	return m
}

// Match scores the resume against jobDescription. A nil job description is
// a policy bypass returning the neutral score; an empty one is scored
// normally and yields 0 because it contains no skills.
func (m *Matcher) Match(ctx context.Context, resume *types.StructuredResume, jobDescription *string) *types.SkillResult {
	resumeSkills := ResumeSkills(resume.Skills)

	if jobDescription == nil {
		return &types.SkillResult{
			Score:         NeutralScore,
			MatchedSkills: []types.SkillMatch{},
			MissingSkills: []string{},
			MatchDetails:  types.MatchDetails{TotalResumeSkills: len(resumeSkills)},
		}
	}

	jobSkills := ExtractJobSkills(*jobDescription)
	matched, missing := m.match(ctx, resumeSkills, jobSkills)

	details := types.MatchDetails{
		TotalJobSkills:    len(jobSkills),
		TotalResumeSkills: len(resumeSkills),
	}
	for _, mt := range matched {
		if mt.MatchType == types.MatchExact {
			details.ExactMatches++
		} else {
			details.SemanticMatches++
		}
	}
	if len(jobSkills) > 0 {
		details.MatchRate = types.Round(float64(len(matched))/float64(len(jobSkills))*100, 2)
	}

	result := &types.SkillResult{
		Score:                  types.Round(matchScore(matched, len(jobSkills)), 2),
		MatchedSkills:          matched,
		MissingSkills:          missing,
		MatchDetails:           details,
		JobDescriptionProvided: true,
	}

	m.logger.Debug("Skill matching complete",
		"score", result.Score,
		"job_skills", len(jobSkills),
		"resume_skills", len(resumeSkills),
		"matched", len(matched),
		"missing", len(missing))

	return result
}

func (m *Matcher) match(ctx context.Context, resumeSkills, jobSkills []string) ([]types.SkillMatch, []string) {
	matched := []types.SkillMatch{}
	done := make(map[string]bool, len(jobSkills))

	for _, job := range jobSkills {
		for _, res := range resumeSkills {
			if IsExactMatch(res, job) {
				matched = append(matched, types.SkillMatch{
					ResumeSkill: res,
					JobSkill:    job,
					MatchType:   types.MatchExact,
					Similarity:  1.0,
				})
				done[job] = true
				break
			}
		}
	}

	if m.similarity != nil && len(resumeSkills) > 0 {
		matched = append(matched, m.semanticPass(ctx, resumeSkills, jobSkills, done)...)
	}

	missing := []string{}
	for _, job := range jobSkills {
		if !done[job] {
			missing = append(missing, job)
		}
	}
	return matched, missing
}

// semanticPass matches each remaining job skill to its most similar resume
// skill. A similarity failure ends the pass and keeps what was found.
func (m *Matcher) semanticPass(ctx context.Context, resumeSkills, jobSkills []string, done map[string]bool) []types.SkillMatch {
	var matches []types.SkillMatch
	for _, job := range jobSkills {
		if done[job] {
			continue
		}
		best, bestScore := "", 0.0
		for _, res := range resumeSkills {
			score, err := m.similarity.Similarity(ctx, job, res)
			if err != nil {
				m.logger.LogError(err, "Semantic skill matching failed, keeping exact matches",
					"job_skill", job)
				return matches
			}
			if score > bestScore {
				best, bestScore = res, score
			}
		}
		if best != "" && bestScore >= m.threshold {
			matches = append(matches, types.SkillMatch{
				ResumeSkill: best,
				JobSkill:    job,
				MatchType:   types.MatchSemantic,
				Similarity:  types.Round(bestScore, 3),
			})
			done[job] = true
		}
	}
	return matches
}

// matchScore weighs exact matches as 1 and semantic matches by similarity
func matchScore(matched []types.SkillMatch, jobSkills int) float64 {
	if jobSkills == 0 {
		return 0
	}
	total := 0.0
	for _, m := range matched {
		if m.MatchType == types.MatchExact {
			total += 1
		} else {
			total += m.Similarity
		}
	}
	return min(total/float64(jobSkills)*100, 100)
}

// MissingSummary joins up to n missing skills for display
func MissingSummary(missing []string, n int) string {
	if len(missing) > n {
		missing = missing[:n]
	}
	return strings.Join(missing, ", ")
}

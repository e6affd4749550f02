// Package structurer turns raw resume text into a StructuredResume using
// header detection and pattern rules. Named-entity and noun-phrase support
// is optional and plugged in through small interfaces.
package structurer

import (
	"regexp"
	"strings"

	"atscore/internal/errors"
	"atscore/internal/types"
)

// Entity labels understood by the structurer
const (
	EntityPerson       = "PERSON"
	EntityLocation     = "GPE"
	EntityOrganization = "ORG"
)

const (
	maxHeaderLength = 50
	maxSkills       = 50
)

// Entity is one named entity found in text
type Entity struct {
	Text  string
	Label string
}

// EntityRecognizer tags people, places and organizations in text
type EntityRecognizer interface {
	Entities(text string) []Entity
}

// PhraseChunker returns candidate noun phrases from text
type PhraseChunker interface {
	NounPhrases(text string) []string
}

// Structurer extracts the five canonical sections from resume text
type Structurer struct {
	entities EntityRecognizer
	chunker  PhraseChunker
	logger   *errors.Logger
}

// Option configures a Structurer
type Option func(*Structurer)

// WithEntityRecognizer enables entity-based name, location and institution extraction
func WithEntityRecognizer(r EntityRecognizer) Option {
	return func(s *Structurer) { s.entities = r }
}

// WithPhraseChunker enables noun-phrase skill candidates
func WithPhraseChunker(c PhraseChunker) Option {
	return func(s *Structurer) { s.chunker = c }
}

// WithLogger sets the logger
func WithLogger(l *errors.Logger) Option {
	return func(s *Structurer) { s.logger = l }
}

// New creates a Structurer. Without options it runs on pattern rules only.
func New(opts ...Option) *Structurer {
	s := &Structurer{}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = errors.OrNop(s.logger)
	return s
}

// Structure never fails: empty or unrecognizable text yields a resume with
// every section present and empty.
func (s *Structurer) Structure(text string) *types.StructuredResume {
	resume := types.NewStructuredResume()
	if strings.TrimSpace(text) == "" {
		return resume
	}

	text = normalizeNewlines(text)
	sections, order := detectSections(text)
	resume.SectionOrder = order

	resume.Contact = s.extractContact(sections[types.SectionContact], text)
	resume.Summary = collapseSpaces(sections[types.SectionSummary])
	resume.Skills = s.extractSkills(sections[types.SectionSkills], text)
	resume.Experience = parseExperience(sections[types.SectionExperience])
	resume.Education = s.parseEducation(sections[types.SectionEducation])

	s.logger.Debug("Resume structured",
		"section_order", order,
		"skills", len(resume.Skills),
		"experience_entries", len(resume.Experience),
		"education_entries", len(resume.Education))

	return resume
}

// Parse is Structure with a failure mode for text that carries no readable content at all
func (s *Structurer) Parse(text string) (*types.StructuredResume, error) {
	if strings.TrimSpace(text) != "" && !hasAlphanumeric(text) {
		return nil, errors.NewStructuringError(errors.ErrCodeStructuringFailed,
			"resume text contains no letters or digits", nil)
	}
	return s.Structure(text), nil
}

// Stats summarizes how much of each section was recovered
type Stats struct {
	TotalSkills     int  `json:"total_skills"`
	TotalExperience int  `json:"total_experience"`
	TotalEducation  int  `json:"total_education"`
	HasContact      bool `json:"has_contact"`
	HasSummary      bool `json:"has_summary"`
}

// Describe computes Stats for a structured resume
func Describe(r *types.StructuredResume) Stats {
	return Stats{
		TotalSkills:     len(r.Skills),
		TotalExperience: len(r.Experience),
		TotalEducation:  len(r.Education),
		HasContact:      !r.Contact.IsEmpty(),
		HasSummary:      r.Summary != "",
	}
}

// matchHeader recognizes a short line naming a known section
func matchHeader(line string) (string, bool) {
	if line == "" || runeLen(line) > maxHeaderLength {
		return "", false
	}
	key := strings.ToLower(strings.ReplaceAll(line, ":", ""))
	key = strings.Trim(key, " \t#*=_")
	section, ok := headerIndex[collapseSpaces(key)]
	return section, ok
}

// detectSections assigns each line to the most recent header. Lines above
// the first header belong to contact. Without any header, paragraphs are
// classified by content instead.
func detectSections(text string) (map[string]string, []string) {
	buffers := make(map[string][]string)
	var order, preamble []string
	current := ""

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if section, ok := matchHeader(line); ok {
			if _, seen := buffers[section]; seen {
				buffers[section] = append(buffers[section], "")
			} else {
				buffers[section] = []string{}
				order = append(order, section)
			}
			current = section
			continue
		}
		if current == "" {
			preamble = append(preamble, line)
			continue
		}
		buffers[current] = append(buffers[current], line)
	}

	if len(order) == 0 {
		return inferSections(text)
	}

	if joinLines(preamble) != "" {
		if existing, ok := buffers[types.SectionContact]; ok {
			buffers[types.SectionContact] = append(append(preamble, ""), existing...)
		} else {
			buffers[types.SectionContact] = preamble
			order = append([]string{types.SectionContact}, order...)
		}
	}

	sections := make(map[string]string, len(buffers))
	for name, lines := range buffers {
		sections[name] = joinLines(lines)
	}
	return sections, order
}

var (
	inferContactPattern = regexp.MustCompile(`(?i)@|\bphone\b|\bemail\b`)
	inferDatePattern    = regexp.MustCompile(`(?i)\d{4}|\b(?:` + monthAlternation + `)\b`)
)

// inferSections classifies header-less paragraphs by their content
func inferSections(text string) (map[string]string, []string) {
	buffers := make(map[string][]string)
	var order []string
	add := func(section string, lines []string) {
		if _, seen := buffers[section]; seen {
			buffers[section] = append(buffers[section], "")
		} else {
			order = append(order, section)
		}
		buffers[section] = append(buffers[section], lines...)
	}

	for _, lines := range splitParagraphs(text) {
		paragraph := strings.Join(lines, "\n")
		lowered := strings.ToLower(paragraph)
		switch {
		case inferContactPattern.MatchString(paragraph):
			add(types.SectionContact, lines)
		case containsAnyTerm(lowered, inferenceSkillTokens):
			add(types.SectionSkills, lines)
		case findDegree(paragraph) != nil:
			add(types.SectionEducation, lines)
		case inferDatePattern.MatchString(paragraph):
			add(types.SectionExperience, lines)
		}
	}

	sections := make(map[string]string, len(buffers))
	for name, lines := range buffers {
		sections[name] = joinLines(lines)
	}
	return sections, order
}

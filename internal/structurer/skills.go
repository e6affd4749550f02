package structurer

import (
	"regexp"
	"strings"

	"atscore/internal/types"
)

var skillDelimiters = regexp.MustCompile(`[,;|•·]`)

// extractSkills merges delimited tokens, vocabulary hits and noun phrases
// from the skills section. Without a section only the vocabulary is
// searched across the whole document.
func (s *Structurer) extractSkills(section, fullText string) []string {
	skills := newOrderedSet(maxSkills)

	if strings.TrimSpace(section) == "" {
		for _, term := range vocabularyMatches(fullText, commonSkills) {
			skills.add(titleCase(term))
		}
		return skills.items
	}

	for _, token := range delimitedSkills(section) {
		skills.add(token)
	}
	for _, term := range vocabularyMatches(section, commonSkills) {
		skills.add(titleCase(term))
	}
	if s.chunker != nil {
		for _, phrase := range s.chunker.NounPhrases(section) {
			phrase = strings.TrimSpace(phrase)
			if n := runeLen(phrase); n >= 2 && n <= 30 && wordCount(phrase) <= 3 {
				skills.add(phrase)
			}
		}
	}
	return skills.items
}

// delimitedSkills splits section lines on list delimiters. A short
// "Label:" prefix such as "Languages:" is dropped.
func delimitedSkills(section string) []string {
	var tokens []string
	for _, line := range strings.Split(section, "\n") {
		line = types.StripBullet(line)
		if line == "" {
			continue
		}
		if i := strings.Index(line, ":"); i > 0 && wordCount(line[:i]) <= 3 && strings.TrimSpace(line[i+1:]) != "" {
			line = line[i+1:]
		}
		for _, token := range skillDelimiters.Split(line, -1) {
			token = strings.TrimRight(strings.TrimSpace(token), ".")
			n := runeLen(token)
			if n < 2 || n > 30 || wordCount(token) > 4 || !hasAlphanumeric(token) {
				continue
			}
			tokens = append(tokens, token)
		}
	}
	return tokens
}

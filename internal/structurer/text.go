package structurer

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"atscore/internal/types"
)

var paragraphBreak = regexp.MustCompile(`\n[ \t]*\n`)

func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// joinLines joins section lines, keeping single blank lines as paragraph breaks
func joinLines(lines []string) string {
	var kept []string
	blank := false
	for _, line := range lines {
		if line == "" {
			blank = len(kept) > 0
			continue
		}
		if blank {
			kept = append(kept, "")
			blank = false
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// splitParagraphs splits text on blank lines into trimmed non-empty lines per paragraph
func splitParagraphs(text string) [][]string {
	var paragraphs [][]string
	for _, block := range paragraphBreak.Split(normalizeNewlines(text), -1) {
		var lines []string
		for _, line := range strings.Split(block, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			paragraphs = append(paragraphs, lines)
		}
	}
	return paragraphs
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// titleCase capitalizes the first letter of every run of letters
func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		prevLetter = false
		b.WriteRune(r)
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// termIndex finds term in lowered text where it is not glued to other letters or digits
func termIndex(lowered, term string) int {
	offset := 0
	for offset <= len(lowered) {
		i := strings.Index(lowered[offset:], term)
		if i < 0 {
			return -1
		}
		start := offset + i
		end := start + len(term)
		before, _ := utf8.DecodeLastRuneInString(lowered[:start])
		after, _ := utf8.DecodeRuneInString(lowered[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(lowered) || !isWordRune(after)) {
			return start
		}
		offset = start + 1
	}
	return -1
}

func containsTerm(lowered, term string) bool {
	return termIndex(lowered, term) >= 0
}

func containsAnyTerm(lowered string, terms []string) bool {
	for _, t := range terms {
		if containsTerm(lowered, t) {
			return true
		}
	}
	return false
}

// vocabularyMatches returns vocabulary terms found in text ordered by first position
func vocabularyMatches(text string, vocabulary []string) []string {
	lowered := strings.ToLower(text)
	type hit struct {
		term string
		pos  int
	}
	var hits []hit
	for _, term := range vocabulary {
		if pos := termIndex(lowered, term); pos >= 0 {
			hits = append(hits, hit{term, pos})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	terms := make([]string, len(hits))
	for i, h := range hits {
		terms[i] = h.term
	}
	return terms
}

// orderedSet keeps first-seen strings, compared case-insensitively, up to a limit
type orderedSet struct {
	items []string
	seen  map[string]struct{}
	limit int
}

func newOrderedSet(limit int) *orderedSet {
	return &orderedSet{items: []string{}, seen: make(map[string]struct{}), limit: limit}
}

func (s *orderedSet) add(item string) {
	item = strings.TrimSpace(item)
	key := strings.ToLower(item)
	if key == "" || (s.limit > 0 && len(s.items) >= s.limit) {
		return
	}
	if _, ok := s.seen[key]; ok {
		return
	}
	s.seen[key] = struct{}{}
	s.items = append(s.items, item)
}

func isBullet(line string) bool {
	return types.IsBulletLine(line)
}

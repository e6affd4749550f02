package structurer

import (
	"regexp"
	"strings"

	"atscore/internal/types"
)

var (
	degreePattern = func() *regexp.Regexp {
		words := make([]string, len(degreeWords))
		for i, w := range degreeWords {
			words[i] = regexp.QuoteMeta(w)
		}
		abbrevs := make([]string, len(degreeAbbreviations))
		for i, a := range degreeAbbreviations {
			abbrevs[i] = regexp.QuoteMeta(a)
		}
		// group 1 carries the keyword; the surrounding classes stand in for word boundaries around dotted forms
		return regexp.MustCompile(`(?:^|[^A-Za-z.])((?i:` + strings.Join(words, "|") + `)|` + strings.Join(abbrevs, "|") + `)(?:[^A-Za-z]|$)`)
	}()

	fieldPattern       = regexp.MustCompile(`\bin\s+([A-Z][A-Za-z\s&]+?)(?:\n|,|\(|\||-|–|\d|\b(?:from|at)\b|$)`)
	institutionPattern = regexp.MustCompile(`\b(?:from|at)\s+([A-Z][A-Za-z\s&.']+?)(?:\n|,|\(|\||\d|$)`)
	degreeCutPattern   = regexp.MustCompile(`(?i)\s+in\s+|,|\||\(|\s[-–—]\s`)
)

// findDegree returns the start and end of the first degree keyword in text
func findDegree(text string) []int {
	m := degreePattern.FindStringSubmatchIndex(text)
	if m == nil {
		return nil
	}
	return m[2:4]
}

func (s *Structurer) parseEducation(section string) []types.Education {
	entries := []types.Education{}
	if strings.TrimSpace(section) == "" {
		return entries
	}
	for _, para := range splitParagraphs(section) {
		for _, block := range splitOnDegreeLines(para) {
			if edu, ok := s.parseEducationEntry(block); ok {
				entries = append(entries, edu)
			}
		}
	}
	return entries
}

// splitOnDegreeLines cuts a paragraph before every line that opens with a degree
func splitOnDegreeLines(lines []string) [][]string {
	var starts []int
	for i, line := range lines {
		if loc := findDegree(types.StripBullet(line)); loc != nil && loc[0] == 0 {
			starts = append(starts, i)
		}
	}
	if len(starts) < 2 {
		return [][]string{lines}
	}
	starts[0] = 0
	blocks := make([][]string, 0, len(starts))
	for k, start := range starts {
		end := len(lines)
		if k+1 < len(starts) {
			end = starts[k+1]
		}
		blocks = append(blocks, lines[start:end])
	}
	return blocks
}

func (s *Structurer) parseEducationEntry(lines []string) (types.Education, bool) {
	var edu types.Education
	text := strings.Join(lines, "\n")

	for _, line := range lines {
		line = types.StripBullet(line)
		loc := findDegree(line)
		if loc == nil {
			continue
		}
		degree := line[loc[0]:]
		if cut := degreeCutPattern.FindStringIndex(degree); cut != nil {
			degree = degree[:cut[0]]
		}
		edu.Degree = stripDates(degree)
		if edu.Degree == "" {
			edu.Degree = strings.ToUpper(line[loc[0]:loc[1]])
		}
		break
	}

	if m := fieldPattern.FindStringSubmatch(text); m != nil {
		edu.Field = strings.TrimSpace(m[1])
	}

	edu.Institution = findInstitution(lines, text)
	if edu.Institution == "" && s.entities != nil {
		for _, ent := range s.entities.Entities(text) {
			if ent.Label == EntityOrganization {
				edu.Institution = strings.TrimSpace(ent.Text)
				break
			}
		}
	}

	edu.GraduationDate = graduationDate(ExtractDates(text))

	return edu, edu.Degree != "" || edu.Institution != ""
}

func findInstitution(lines []string, text string) string {
	if m := institutionPattern.FindStringSubmatch(text); m != nil {
		if inst := trimSeparators(m[1]); inst != "" {
			return inst
		}
	}
	for _, line := range lines {
		for _, segment := range strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == '|' }) {
			for _, word := range institutionWords {
				if strings.Contains(segment, word) {
					if inst := stripDates(types.StripBullet(segment)); inst != "" {
						return inst
					}
				}
			}
		}
	}
	return ""
}

// graduationDate prefers the last bare year, falling back to the last date of any kind
func graduationDate(dates []string) string {
	for i := len(dates) - 1; i >= 0; i-- {
		if len(dates[i]) == 4 && standaloneYearPattern.MatchString(dates[i]) {
			return dates[i]
		}
	}
	if len(dates) > 0 {
		return dates[len(dates)-1]
	}
	return ""
}

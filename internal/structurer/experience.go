package structurer

import (
	"regexp"
	"strings"

	"atscore/internal/types"
)

const maxCompanyWords = 8

var (
	leadingYearPattern = regexp.MustCompile(`^\d{4}`)
	atSeparatorPattern = regexp.MustCompile(`(?i)\s+at\s+`)
)

// parseExperience splits the section into entries and parses each one.
// Entries with neither title nor company are dropped.
func parseExperience(section string) []types.Experience {
	entries := []types.Experience{}
	if strings.TrimSpace(section) == "" {
		return entries
	}
	for _, block := range experienceBlocks(section) {
		if exp, ok := parseExperienceEntry(block); ok {
			entries = append(entries, exp)
		}
	}
	return entries
}

// experienceBlocks groups lines per position. Paragraphs that open with a
// bullet continue the previous position, and a paragraph holding several
// date ranges is cut before each one.
func experienceBlocks(section string) [][]string {
	var merged [][]string
	for _, para := range splitParagraphs(section) {
		if len(merged) > 0 && isBullet(para[0]) {
			last := len(merged) - 1
			merged[last] = append(merged[last], para...)
			continue
		}
		merged = append(merged, para)
	}

	var blocks [][]string
	for _, para := range merged {
		blocks = append(blocks, splitOnDateRanges(para)...)
	}
	return blocks
}

// splitOnDateRanges cuts a block at each non-bullet line carrying a date
// range. A line holding only the range pulls the title lines above it into
// its entry, at most two of them.
func splitOnDateRanges(lines []string) [][]string {
	var starts []int
	prev := -1
	for i, line := range lines {
		if isBullet(line) || !dateRangePattern.MatchString(line) {
			continue
		}
		start := i
		if isDateLine(line) {
			for j := i - 1; j > prev && j >= i-2; j-- {
				if isBullet(lines[j]) || isDateLine(lines[j]) {
					break
				}
				start = j
			}
		}
		if start > prev {
			starts = append(starts, start)
			prev = i
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

func parseExperienceEntry(lines []string) (types.Experience, bool) {
	var exp types.Experience

	header := -1
	for i, line := range lines {
		if !isDateLine(line) && !isBullet(line) {
			header = i
			break
		}
	}
	if header < 0 {
		return exp, false
	}

	exp.Title, exp.Company = splitTitleCompany(stripDates(lines[header]))

	companyLine := -1
	if exp.Company == "" && header+1 < len(lines) {
		next := lines[header+1]
		if !isDateLine(next) && !isBullet(next) && !leadingYearPattern.MatchString(next) {
			if company := stripDates(next); company != "" && wordCount(company) <= maxCompanyWords {
				exp.Company = company
				companyLine = header + 1
			}
		}
	}

	if exp.Title == "" && exp.Company == "" {
		return exp, false
	}

	var headerText []string
	var description []string
	for i, line := range lines {
		switch {
		case i == header || i == companyLine:
			headerText = append(headerText, line)
		case isDateLine(line):
			headerText = append(headerText, line)
		case i > header:
			description = append(description, line)
		}
	}

	dates := ExtractDates(strings.Join(headerText, "\n"))
	if len(dates) == 0 {
		dates = ExtractDates(strings.Join(lines, "\n"))
	}
	exp.StartDate, exp.EndDate = DateSpan(dates)
	exp.Description = strings.Join(description, "\n")
	return exp, true
}

// splitTitleCompany reads "Title at Company", "Title | Company" or
// "Title, Company" when the part before the comma names a role.
func splitTitleCompany(line string) (title, company string) {
	if loc := atSeparatorPattern.FindStringIndex(line); loc != nil {
		return trimSeparators(line[:loc[0]]), trimSeparators(line[loc[1]:])
	}
	if parts := strings.Split(line, " | "); len(parts) > 1 {
		return trimSeparators(parts[0]), trimSeparators(parts[1])
	}
	if i := strings.Index(line, ","); i >= 0 && containsAnyTerm(strings.ToLower(line[:i]), jobTitleKeywords) {
		rest := line[i+1:]
		if j := strings.Index(rest, ","); j >= 0 {
			rest = rest[:j]
		}
		return trimSeparators(line[:i]), trimSeparators(rest)
	}
	return trimSeparators(line), ""
}

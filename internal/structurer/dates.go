package structurer

import (
	"regexp"
	"strings"
	"unicode"
)

const monthAlternation = `jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec`

var (
	yearRangePattern      = regexp.MustCompile(`(?i)\b(\d{4})\s*[-–—]\s*(\d{4}|present|current)\b`)
	monthYearPattern      = regexp.MustCompile(`(?i)\b(` + monthAlternation + `)[a-z]*\.?\s+(\d{4})`)
	standaloneYearPattern = regexp.MustCompile(`\b(20\d{2}|19\d{2})\b`)

	// dateRangePattern also accepts month prefixes on either side of the dash
	dateRangePattern = regexp.MustCompile(`(?i)\b(?:(?:` + monthAlternation + `)[a-z]*\.?\s+)?\d{4}\s*(?:[-–—]|to)\s*(?:(?:` + monthAlternation + `)[a-z]*\.?\s+)?(?:\d{4}|present|current|now)\b`)
	dateFillerPattern = regexp.MustCompile(`(?i)\b(?:present|current|now|to|till|until|since)\b`)
)

// ExtractDates returns date tokens in the order the patterns find them.
// Year ranges come first, then month-year pairs. Standalone years are
// used only when neither produced anything.
func ExtractDates(text string) []string {
	var dates []string
	for _, m := range yearRangePattern.FindAllStringSubmatch(text, -1) {
		dates = append(dates, m[1], titleCase(strings.ToLower(m[2])))
	}
	for _, m := range monthYearPattern.FindAllStringSubmatch(text, -1) {
		month := titleCase(m[1])
		dates = append(dates, month+" "+m[2])
	}
	if len(dates) == 0 {
		dates = append(dates, standaloneYearPattern.FindAllString(text, -1)...)
	}
	return dates
}

// DateSpan maps extracted dates onto a start and end. A single date fills both.
func DateSpan(dates []string) (start, end string) {
	switch len(dates) {
	case 0:
		return "", ""
	case 1:
		return dates[0], dates[0]
	default:
		return dates[0], dates[1]
	}
}

func stripDates(line string) string {
	out := dateRangePattern.ReplaceAllString(line, " ")
	out = yearRangePattern.ReplaceAllString(out, " ")
	out = monthYearPattern.ReplaceAllString(out, " ")
	out = standaloneYearPattern.ReplaceAllString(out, " ")
	out = strings.ReplaceAll(out, "()", " ")
	return trimSeparators(collapseSpaces(out))
}

// isDateLine reports whether a line holds dates and nothing else of substance
func isDateLine(line string) bool {
	if !dateRangePattern.MatchString(line) && !monthYearPattern.MatchString(line) && !standaloneYearPattern.MatchString(line) {
		return false
	}
	rest := dateFillerPattern.ReplaceAllString(stripDates(line), " ")
	return !hasAlphanumeric(rest)
}

func hasAlphanumeric(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func trimSeparators(s string) string {
	return strings.Trim(s, " \t-–—|,:;/•")
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

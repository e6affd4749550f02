package skills

import (
	"regexp"
	"strings"

	"atscore/internal/types"
)

// synonyms expands common abbreviations after normalization
var synonyms = map[string]string{
	"js":     "javascript",
	"ts":     "typescript",
	"py":     "python",
	"db":     "database",
	"api":    "application programming interface",
	"ml":     "machine learning",
	"ai":     "artificial intelligence",
	"nlp":    "natural language processing",
	"cv":     "computer vision",
	"ci/cd":  "continuous integration continuous deployment",
	"cicd":   "continuous integration continuous deployment",
	"k8s":    "kubernetes",
	"aws":    "amazon web services",
	"gcp":    "google cloud platform",
	"sql":    "structured query language",
	"nosql":  "not only sql",
	"rest":   "representational state transfer",
	"orm":    "object relational mapping",
	"ui":     "user interface",
	"ux":     "user experience",
	"qa":     "quality assurance",
	"devops": "development operations",
}

var (
	skillPrefix   = regexp.MustCompile(`^(?:experience with|knowledge of|proficient in|strong|excellent)\s+`)
	skillSuffix   = regexp.MustCompile(`\s+(?:experience|skills?|proficiency)$`)
	parenthetical = regexp.MustCompile(`\([^)]*\)`)
	disallowed    = regexp.MustCompile(`[^\w\s+\-.]`)
)

// Normalize canonicalizes a skill string for comparison. Leading bullet
// markers, qualifier prefixes and suffixes, parentheticals and punctuation
// are removed, and a known abbreviation is expanded.
func Normalize(skill string) string {
	s := strings.ToLower(strings.TrimSpace(skill))
	if s == "" {
		return ""
	}
	if expanded, ok := synonyms[s]; ok {
		return expanded
	}
	s = types.StripBullet(s)
	s = skillPrefix.ReplaceAllString(s, "")
	s = skillSuffix.ReplaceAllString(s, "")
	s = parenthetical.ReplaceAllString(s, "")
	s = disallowed.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimRight(strings.Trim(s, "-"), ".")
	if expanded, ok := synonyms[s]; ok {
		return expanded
	}
	return s
}

// IsExactMatch reports whether two normalized skills are equal, or one is a
// single word that appears as a whole word in the other.
func IsExactMatch(a, b string) bool {
	if a == b {
		return true
	}
	wordsA, wordsB := strings.Fields(a), strings.Fields(b)
	if len(wordsA) == 1 && containsWord(wordsB, wordsA[0]) {
		return true
	}
	if len(wordsB) == 1 && containsWord(wordsA, wordsB[0]) {
		return true
	}
	return false
}

func containsWord(words []string, w string) bool {
	for _, x := range words {
		if x == w {
			return true
		}
	}
	return false
}

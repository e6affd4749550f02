package impact

import "regexp"

var ownershipVerbs = map[string]struct{}{}

func init() {
	for _, v := range []string{
		// leadership
		"led", "managed", "directed", "supervised", "coordinated", "oversaw",
		"headed", "spearheaded", "championed", "drove", "orchestrated",
		// building
		"built", "created", "developed", "designed", "established", "launched",
		"founded", "initiated", "pioneered", "architected", "engineered",
		"implemented", "deployed", "constructed",
		// achievement
		"achieved", "accomplished", "delivered", "exceeded", "surpassed",
		"attained", "secured", "won", "earned", "generated",
		// improvement
		"improved", "enhanced", "optimized", "streamlined", "refined",
		"upgraded", "modernized", "transformed", "revolutionized", "increased",
		"boosted", "accelerated", "maximized", "strengthened",
		// problem solving
		"solved", "resolved", "fixed", "debugged", "troubleshot",
		"eliminated", "reduced", "minimized", "prevented",
	} {
		ownershipVerbs[v] = struct{}{}
	}
}

// outcomeKeywords are matched as substrings, in this order, for findings
var outcomeKeywords = []string{
	"result", "resulting", "outcome", "impact", "effect", "achievement",
	"success", "successful", "gain", "revenue", "profit", "savings",
	"efficiency", "performance", "productivity", "quality", "satisfaction",
	"growth", "improvement", "reduction", "increase", "decrease",
}

var (
	situationIndicators = []string{"faced", "encountered", "challenged", "needed", "required"}
	taskIndicators      = []string{"tasked", "responsible", "assigned", "charged", "goal"}
	resultIndicators    = []string{"resulting", "achieved", "delivered", "completed", "accomplished"}
)

var resultPhrases = []*regexp.Regexp{
	regexp.MustCompile(`result(?:ing|ed)\s+in`),
	regexp.MustCompile(`led\s+to`),
	regexp.MustCompile(`(?:improv|increas|enhanc|boost)(?:ed|ing)\s+(?:\w+\s+){1,3}by\b`),
	regexp.MustCompile(`achieved`),
	regexp.MustCompile(`delivered`),
}

// quantifier pairs a pattern with the wording of its finding
type quantifier struct {
	label   string
	pattern *regexp.Regexp
}

var quantifiers = []quantifier{
	{"percentage", regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*(?:%|percent)`)},
	{"metric", regexp.MustCompile(`(?i)[$£€]?\s*\d+(?:\.\d+)?\s*(?:k|m|b|million|billion|thousand)\b`)},
	{"number", regexp.MustCompile(`\b(?:[1-9]\d{2,}|[1-9]\d{0,2}(?:,\d{3})+)\b`)},
	{"multiplier", regexp.MustCompile(`\d+(?:\.\d+)?\s*[xX]\b`)},
	{"time period", regexp.MustCompile(`(?i)\d+\s*(?:months?|years?|weeks?|days?)\b`)},
}

// Package formatting rates resume layout and readability: section order,
// bullet density, line length, whitespace balance and ATS-safe structure.
package formatting

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"atscore/internal/errors"
	"atscore/internal/types"
)

// Score categories
const (
	CategorySectionOrder  = "section_order"
	CategoryBulletDensity = "bullet_density"
	CategoryLineLength    = "line_length"
	CategoryWhitespace    = "whitespace"
	CategoryATSSafe       = "ats_safe"
)

// Weights sum to 100
var Weights = map[string]float64{
	CategorySectionOrder:  20,
	CategoryBulletDensity: 25,
	CategoryLineLength:    20,
	CategoryWhitespace:    20,
	CategoryATSSafe:       15,
}

// AlternativeOrders are accepted section orders besides the canonical one
var AlternativeOrders = [][]string{
	{types.SectionContact, types.SectionSummary, types.SectionSkills, types.SectionExperience, types.SectionEducation},
	{types.SectionContact, types.SectionExperience, types.SectionSkills, types.SectionEducation, types.SectionSummary},
	{types.SectionContact, types.SectionSummary, types.SectionExperience, types.SectionEducation, types.SectionSkills},
}

// Optimal ranges, inclusive
const (
	minBulletsPerJob = 3
	maxBulletsPerJob = 6
	minTotalBullets  = 8
	maxTotalBullets  = 20
	minLineLength    = 50
	maxLineLength    = 120
	minSkills        = 5
	maxSkills        = 20
	minSummaryLength = 100
	maxSummaryLength = 300
	targetEntryChars = 500
)

var requiredSections = []string{types.SectionContact, types.SectionExperience, types.SectionEducation}

var specialCharPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s+\-.#]`)

// Analyzer scores formatting. It holds no per-call state and is safe for
// concurrent use.
type Analyzer struct {
	logger *errors.Logger
}

// New creates an Analyzer
func New(logger *errors.Logger) *Analyzer {
	return &Analyzer{logger: errors.OrNop(logger)}
}

// report accumulates the findings of one Analyze call
type report struct {
	issues          []types.FormattingIssue
	recommendations []string
}

func (r *report) issue(category, severity, message, recommendation string) {
	r.issues = append(r.issues, types.FormattingIssue{
		Category:       category,
		Severity:       severity,
		Message:        message,
		Recommendation: recommendation,
	})
}

func (r *report) success(msg string) {
	r.recommendations = append(r.recommendations, msg)
}

// Analyze runs every formatting check
func (a *Analyzer) Analyze(resume *types.StructuredResume) *types.FormattingResult {
	rep := &report{
		issues:          []types.FormattingIssue{},
		recommendations: []string{},
	}

	breakdown := map[string]float64{
		CategorySectionOrder:  types.Round(checkSectionOrder(resume, rep), 2),
		CategoryBulletDensity: types.Round(checkBulletDensity(resume, rep), 2),
		CategoryLineLength:    types.Round(checkLineLength(resume, rep), 2),
		CategoryWhitespace:    types.Round(checkWhitespace(resume, rep), 2),
		CategoryATSSafe:       types.Round(checkATSSafe(resume, rep), 2),
	}

	total := 0.0
	for _, v := range breakdown {
		total += v
	}

	result := &types.FormattingResult{
		Score:           types.Round(total, 2),
		Issues:          rep.issues,
		Recommendations: rep.recommendations,
		ScoreBreakdown:  breakdown,
	}

	a.logger.Debug("Formatting analysis complete", "score", result.Score, "issues", len(result.Issues))
	return result
}

// presentSections returns the non-empty canonical sections in document
// order when headers were detected, else in canonical order.
func presentSections(resume *types.StructuredResume) []string {
	var present []string
	seen := make(map[string]bool)
	for _, name := range resume.SectionOrder {
		if seen[name] || !resume.HasSection(name) {
			continue
		}
		seen[name] = true
		present = append(present, name)
	}
	if len(present) == 0 {
		return resume.SectionsFound()
	}
	return present
}

func canonicalRank(name string) int {
	for i, s := range types.CanonicalSections {
		if s == name {
			return i
		}
	}
	return len(types.CanonicalSections)
}

func checkSectionOrder(resume *types.StructuredResume, rep *report) float64 {
	weight := Weights[CategorySectionOrder]
	present := presentSections(resume)

	if len(present) == 0 {
		rep.issue(CategorySectionOrder, types.SeverityCritical,
			"No standard sections found",
			"Include standard sections: Contact, Experience, Education")
		return 0
	}

	inOrder := 1
	for i := 1; i < len(present); i++ {
		if canonicalRank(present[i]) > canonicalRank(present[i-1]) {
			inOrder++
		}
	}
	if inOrder == len(present) {
		rep.success("✓ Sections in optimal ATS-friendly order")
		return weight
	}

	for _, alt := range AlternativeOrders {
		if equalStrings(present, filterTo(alt, present)) {
			rep.success("✓ Sections in acceptable order")
			return weight * 0.9
		}
	}

	rep.issue(CategorySectionOrder, types.SeverityWarning,
		"Sections not in optimal order: "+strings.Join(present, ", "),
		"Recommended order: "+strings.Join(types.CanonicalSections, ", "))

	return float64(inOrder) / float64(len(present)) * weight * 0.7
}

func checkBulletDensity(resume *types.StructuredResume, rep *report) float64 {
	weight := Weights[CategoryBulletDensity]

	if len(resume.Experience) == 0 {
		rep.issue(CategoryBulletDensity, types.SeverityCritical,
			"No experience section found",
			"Add experience section with bullet points")
		return 0
	}

	var perJob []int
	total := 0
	for _, exp := range resume.Experience {
		if strings.TrimSpace(exp.Description) == "" {
			continue
		}
		n := countBulletLines(exp.Description)
		perJob = append(perJob, n)
		total += n
	}

	if len(perJob) == 0 {
		rep.issue(CategoryBulletDensity, types.SeverityWarning,
			"No bullet points found in experience",
			"Use bullet points (•) to list achievements")
		return weight * 0.2
	}

	var totalScore float64
	switch {
	case total >= minTotalBullets && total <= maxTotalBullets:
		totalScore = 0.5
		rep.success(fmt.Sprintf("✓ Good total bullet count: %d", total))
	case total < minTotalBullets:
		rep.issue(CategoryBulletDensity, types.SeverityWarning,
			fmt.Sprintf("Too few bullets: %d (recommended: %d-%d)", total, minTotalBullets, maxTotalBullets),
			"Add more bullet points describing your achievements")
		totalScore = float64(total) / minTotalBullets * 0.5
	default:
		rep.issue(CategoryBulletDensity, types.SeverityInfo,
			fmt.Sprintf("Many bullets: %d (recommended: %d-%d)", total, minTotalBullets, maxTotalBullets),
			"Consider condensing to most impactful achievements")
		totalScore = 0.4
	}

	inRange := 0
	for _, n := range perJob {
		if n >= minBulletsPerJob && n <= maxBulletsPerJob {
			inRange++
		}
	}
	perJobScore := float64(inRange) / float64(len(perJob)) * 0.5

	switch {
	case inRange == len(perJob):
		rep.success(fmt.Sprintf("✓ All jobs have optimal bullet count (%d-%d)", minBulletsPerJob, maxBulletsPerJob))
	case float64(inRange) < float64(len(perJob))/2:
		rep.issue(CategoryBulletDensity, types.SeverityWarning,
			fmt.Sprintf("%d jobs have suboptimal bullet count", len(perJob)-inRange),
			fmt.Sprintf("Aim for %d-%d bullets per job position", minBulletsPerJob, maxBulletsPerJob))
	}

	return (totalScore + perJobScore) * weight
}

func checkLineLength(resume *types.StructuredResume, rep *report) float64 {
	weight := Weights[CategoryLineLength]
	lines := contentLines(resume)
	if len(lines) == 0 {
		return weight * 0.5
	}

	optimal, short, long := 0, 0, 0
	for _, line := range lines {
		switch n := utf8.RuneCountInString(line); {
		case n < minLineLength:
			short++
		case n > maxLineLength:
			long++
		default:
			optimal++
		}
	}

	total := float64(len(lines))
	ratio := float64(optimal) / total

	if ratio >= 0.8 {
		rep.success(fmt.Sprintf("✓ Good line length: %d%% of lines optimal", int(ratio*100)))
	} else {
		if float64(short) > total*0.2 {
			rep.issue(CategoryLineLength, types.SeverityInfo,
				fmt.Sprintf("%d lines too short (< %d chars)", short, minLineLength),
				"Expand bullet points with more detail")
		}
		if float64(long) > total*0.2 {
			rep.issue(CategoryLineLength, types.SeverityWarning,
				fmt.Sprintf("%d lines too long (> %d chars)", long, maxLineLength),
				"Break long lines into multiple bullets")
		}
	}

	return ratio * weight
}

func checkWhitespace(resume *types.StructuredResume, rep *report) float64 {
	weight := Weights[CategoryWhitespace]
	var scores []float64

	if len(resume.Experience) > 0 {
		density := experienceDensity(resume.Experience)
		switch {
		case density >= 0.3 && density <= 0.7:
			scores = append(scores, 1.0)
			rep.success("✓ Experience section has good density")
		case density < 0.3:
			scores = append(scores, 0.6)
			rep.issue(CategoryWhitespace, types.SeverityInfo,
				"Experience section seems sparse",
				"Add more details or consolidate positions")
		default:
			scores = append(scores, 0.6)
			rep.issue(CategoryWhitespace, types.SeverityInfo,
				"Experience section seems dense",
				"Add spacing between positions")
		}
	}

	if n := len(resume.Skills); n > 0 {
		switch {
		case n >= minSkills && n <= maxSkills:
			scores = append(scores, 1.0)
			rep.success(fmt.Sprintf("✓ Skills section well-balanced (%d skills)", n))
		case n < minSkills:
			scores = append(scores, 0.7)
			rep.issue(CategoryWhitespace, types.SeverityWarning,
				fmt.Sprintf("Few skills listed (%d)", n),
				"Add more relevant skills (aim for 8-15)")
		default:
			scores = append(scores, 0.7)
			rep.issue(CategoryWhitespace, types.SeverityInfo,
				fmt.Sprintf("Many skills listed (%d)", n),
				"Focus on most relevant skills")
		}
	}

	if resume.Summary != "" {
		switch n := utf8.RuneCountInString(resume.Summary); {
		case n >= minSummaryLength && n <= maxSummaryLength:
			scores = append(scores, 1.0)
			rep.success("✓ Summary length optimal")
		case n < minSummaryLength:
			scores = append(scores, 0.7)
			rep.issue(CategoryWhitespace, types.SeverityInfo,
				"Summary is brief",
				"Expand to 2-3 sentences highlighting key strengths")
		default:
			scores = append(scores, 0.7)
			rep.issue(CategoryWhitespace, types.SeverityInfo,
				"Summary is lengthy",
				"Condense to 2-3 impactful sentences")
		}
	}

	if len(scores) == 0 {
		return weight * 0.5
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores)) * weight
}

func checkATSSafe(resume *types.StructuredResume, rep *report) float64 {
	weight := Weights[CategoryATSSafe]
	score := weight

	var missing []string
	for _, name := range requiredSections {
		if !resume.HasSection(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		score -= float64(len(missing)) / float64(len(requiredSections)) * weight * 0.4
		rep.issue(CategoryATSSafe, types.SeverityCritical,
			"Missing required sections: "+strings.Join(missing, ", "),
			"Include all standard sections for ATS parsing")
	} else {
		rep.success("✓ All required sections present")
	}

	var missingContact []string
	if resume.Contact.Email == "" {
		missingContact = append(missingContact, "email")
	}
	if resume.Contact.Phone == "" {
		missingContact = append(missingContact, "phone")
	}
	if len(missingContact) == 0 {
		rep.success("✓ Complete contact information")
	} else {
		score -= float64(len(missingContact)) / 2 * weight * 0.3
		rep.issue(CategoryATSSafe, types.SeverityCritical,
			"Missing contact: "+strings.Join(missingContact, ", "),
			"Ensure email and phone are clearly listed")
	}

	for i, exp := range resume.Experience {
		if exp.Title == "" {
			score -= weight * 0.1
			rep.issue(CategoryATSSafe, types.SeverityWarning,
				fmt.Sprintf("Experience entry %d missing job title", i+1),
				"Ensure each position has a clear job title")
		}
		if exp.Company == "" {
			score -= weight * 0.1
			rep.issue(CategoryATSSafe, types.SeverityWarning,
				fmt.Sprintf("Experience entry %d missing company name", i+1),
				"Ensure each position includes company name")
		}
	}

	if len(resume.Skills) > 0 {
		special := 0
		for _, s := range resume.Skills {
			if specialCharPattern.MatchString(s) {
				special++
			}
		}
		if special > 0 && float64(special) > float64(len(resume.Skills))*0.2 {
			score -= weight * 0.1
			rep.issue(CategoryATSSafe, types.SeverityInfo,
				fmt.Sprintf("%d skills contain special characters", special),
				"Use standard alphanumeric characters for skills")
		}
	}

	score = types.Clamp(score, 0, weight)
	if score >= weight*0.9 {
		rep.success("✓ Resume is ATS-safe")
	}
	return score
}

// contentLines gathers the summary, every bullet text and the skills
// joined as a single line
func contentLines(resume *types.StructuredResume) []string {
	var lines []string
	if resume.Summary != "" {
		lines = append(lines, resume.Summary)
	}
	for _, exp := range resume.Experience {
		for _, line := range strings.Split(exp.Description, "\n") {
			if text := types.StripBullet(line); text != "" {
				lines = append(lines, text)
			}
		}
	}
	if len(resume.Skills) > 0 {
		lines = append(lines, strings.Join(resume.Skills, ", "))
	}
	return lines
}

// experienceDensity is the average text length per entry against the
// target, capped at 1
func experienceDensity(entries []types.Experience) float64 {
	chars := 0
	for _, e := range entries {
		chars += utf8.RuneCountInString(e.Title) +
			utf8.RuneCountInString(e.Company) +
			utf8.RuneCountInString(e.StartDate) +
			utf8.RuneCountInString(e.EndDate) +
			utf8.RuneCountInString(e.Description)
	}
	avg := float64(chars) / float64(len(entries))
	return min(avg/targetEntryChars, 1.0)
}

func countBulletLines(description string) int {
	n := 0
	for _, line := range strings.Split(description, "\n") {
		if types.IsBulletLine(line) {
			n++
		}
	}
	return n
}

func filterTo(order, keep []string) []string {
	set := make(map[string]bool, len(keep))
	for _, k := range keep {
		set[k] = true
	}
	var out []string
	for _, s := range order {
		if set[s] {
			out = append(out, s)
		}
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

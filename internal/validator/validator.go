// Package validator scores a structured resume against deterministic ATS
// compliance rules and reports every violation and passed check.
package validator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"atscore/internal/errors"
	"atscore/internal/types"
)

// Check names and their maximum contribution to the rule score
const (
	CheckRequiredSections    = "required_sections"
	CheckRecommendedSections = "recommended_sections"
	CheckContactInfo         = "contact_info"
	CheckExperienceQuality   = "experience_quality"
	CheckBulletPoints        = "bullet_points"
	CheckDateConsistency     = "date_consistency"
	CheckActionVerbs         = "action_verbs"
)

// CheckWeights sum to 100
var CheckWeights = map[string]float64{
	CheckRequiredSections:    25,
	CheckRecommendedSections: 10,
	CheckContactInfo:         15,
	CheckExperienceQuality:   20,
	CheckBulletPoints:        15,
	CheckDateConsistency:     10,
	CheckActionVerbs:         5,
}

var (
	requiredSections    = []string{types.SectionContact, types.SectionExperience, types.SectionEducation}
	recommendedSections = []string{types.SectionSummary, types.SectionSkills}

	emailFormat = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	yearPattern = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
)

const (
	minBulletLength    = 50
	maxBulletLength    = 150
	minDescriptionSize = 20
	strongVerbRatio    = 0.7
	presentYear        = "Present"
)

// Validator applies the ATS rule set. It holds no per-call state and is
// safe for concurrent use.
type Validator struct {
	logger *errors.Logger
}

// New creates a Validator
func New(logger *errors.Logger) *Validator {
	return &Validator{logger: errors.OrNop(logger)}
}

// report accumulates the outcome of one validation run
type report struct {
	violations []types.Violation
	passed     []types.PassedCheck
	breakdown  map[string]float64
}

func (r *report) fail(v types.Violation) {
	r.violations = append(r.violations, v)
}

func (r *report) pass(p types.PassedCheck) {
	r.passed = append(r.passed, p)
}

// Validate runs every check. The score is the sum of the per-check scores
// rounded to two decimals.
func (v *Validator) Validate(resume *types.StructuredResume) *types.ATSResult {
	rep := &report{
		violations: []types.Violation{},
		passed:     []types.PassedCheck{},
		breakdown:  make(map[string]float64, len(CheckWeights)),
	}

	bullets := resume.Bullets()

	checkRequiredSections(rep, resume)
	checkRecommendedSections(rep, resume)
	checkContactInformation(rep, resume.Contact)
	checkExperienceQuality(rep, resume.Experience)
	checkBulletPoints(rep, bullets)
	checkDateConsistency(rep, resume.Experience)
	checkActionVerbs(rep, resume.Experience, bullets)

	total := 0.0
	for _, s := range rep.breakdown {
		total += s
	}

	result := &types.ATSResult{
		Score:          types.Round(total, 2),
		Violations:     rep.violations,
		PassedChecks:   rep.passed,
		ScoreBreakdown: rep.breakdown,
	}

	v.logger.Debug("ATS validation complete",
		"score", result.Score,
		"violations", len(result.Violations),
		"passed", len(result.PassedChecks))

	return result
}

func checkRequiredSections(rep *report, resume *types.StructuredResume) {
	per := CheckWeights[CheckRequiredSections] / float64(len(requiredSections))
	earned := 0.0
	for _, section := range requiredSections {
		if !resume.HasSection(section) {
			rep.fail(types.Violation{
				Check:    CheckRequiredSections,
				Severity: types.SeverityCritical,
				Message:  fmt.Sprintf("Required section '%s' is empty", section),
				Section:  section,
			})
			continue
		}
		rep.pass(types.PassedCheck{
			Check:   CheckRequiredSections,
			Message: fmt.Sprintf("Required section '%s' present and populated", section),
			Section: section,
		})
		earned += per
	}
	rep.breakdown[CheckRequiredSections] = earned
}

func checkRecommendedSections(rep *report, resume *types.StructuredResume) {
	per := CheckWeights[CheckRecommendedSections] / float64(len(recommendedSections))
	earned := 0.0
	for _, section := range recommendedSections {
		if resume.HasSection(section) {
			rep.pass(types.PassedCheck{
				Check:   CheckRecommendedSections,
				Message: fmt.Sprintf("Recommended section '%s' present", section),
				Section: section,
			})
			earned += per
			continue
		}
		rep.fail(types.Violation{
			Check:    CheckRecommendedSections,
			Severity: types.SeverityWarning,
			Message:  fmt.Sprintf("Missing recommended section: '%s'", section),
			Section:  section,
		})
	}
	rep.breakdown[CheckRecommendedSections] = earned
}

func checkContactInformation(rep *report, c types.Contact) {
	maxScore := CheckWeights[CheckContactInfo]
	required := []struct {
		field string
		value string
	}{
		{"email", c.Email},
		{"phone", c.Phone},
		{"name", c.Name},
	}
	per := maxScore * 0.75 / float64(len(required))
	earned := 0.0

	for _, f := range required {
		if f.value == "" {
			rep.fail(types.Violation{
				Check:    CheckContactInfo,
				Severity: types.SeverityCritical,
				Message:  fmt.Sprintf("Missing required contact field: '%s'", f.field),
				Field:    f.field,
			})
			continue
		}
		rep.pass(types.PassedCheck{
			Check:   CheckContactInfo,
			Message: fmt.Sprintf("Contact field '%s' present", f.field),
			Field:   f.field,
		})
		earned += per
	}

	if c.Email != "" {
		if emailFormat.MatchString(c.Email) {
			rep.pass(types.PassedCheck{Check: CheckContactInfo, Message: "Email format valid", Field: "email"})
		} else {
			rep.fail(types.Violation{
				Check:    CheckContactInfo,
				Severity: types.SeverityWarning,
				Message:  fmt.Sprintf("Email format may be invalid: '%s'", c.Email),
				Field:    "email",
			})
		}
	}

	if c.LinkedIn != "" {
		rep.pass(types.PassedCheck{Check: CheckContactInfo, Message: "LinkedIn profile included", Field: "linkedin"})
		earned += maxScore * 0.25
	} else {
		rep.fail(types.Violation{
			Check:    CheckContactInfo,
			Severity: types.SeverityInfo,
			Message:  "LinkedIn profile recommended but not required",
			Field:    "linkedin",
		})
	}

	rep.breakdown[CheckContactInfo] = earned
}

func checkExperienceQuality(rep *report, entries []types.Experience) {
	if len(entries) == 0 {
		rep.fail(types.Violation{
			Check:    CheckExperienceQuality,
			Severity: types.SeverityCritical,
			Message:  "No work experience entries found",
		})
		rep.breakdown[CheckExperienceQuality] = 0
		return
	}

	rep.pass(types.PassedCheck{
		Check:   CheckExperienceQuality,
		Message: fmt.Sprintf("Resume contains %d experience entries", len(entries)),
	})

	perCriterion := CheckWeights[CheckExperienceQuality] / float64(len(entries)) / 3
	earned := 0.0

	for i, exp := range entries {
		entry := i + 1
		if exp.Title != "" {
			earned += perCriterion
		} else {
			rep.fail(entryWarning(CheckExperienceQuality, entry, "Experience entry %d missing job title"))
		}
		if exp.Company != "" {
			earned += perCriterion
		} else {
			rep.fail(entryWarning(CheckExperienceQuality, entry, "Experience entry %d missing company name"))
		}
		if len(strings.TrimSpace(exp.Description)) > minDescriptionSize {
			earned += perCriterion
			rep.pass(types.PassedCheck{
				Check:   CheckExperienceQuality,
				Message: fmt.Sprintf("Experience entry %d has detailed description", entry),
				Entry:   entry,
			})
		} else {
			rep.fail(entryWarning(CheckExperienceQuality, entry, "Experience entry %d missing or short description"))
		}
	}

	rep.breakdown[CheckExperienceQuality] = earned
}

func checkBulletPoints(rep *report, bullets []string) {
	if len(bullets) == 0 {
		rep.fail(types.Violation{
			Check:    CheckBulletPoints,
			Severity: types.SeverityWarning,
			Message:  "No bullet points found in experience descriptions",
		})
		rep.breakdown[CheckBulletPoints] = 0
		return
	}

	optimal, tooShort, tooLong := 0, 0, 0
	for _, b := range bullets {
		switch n := len([]rune(b)); {
		case n < minBulletLength:
			tooShort++
		case n > maxBulletLength:
			tooLong++
		default:
			optimal++
		}
	}

	rep.pass(types.PassedCheck{
		Check:   CheckBulletPoints,
		Message: fmt.Sprintf("%d/%d bullet points are optimal length (50-150 chars)", optimal, len(bullets)),
	})
	if tooShort > 0 {
		rep.fail(types.Violation{
			Check:    CheckBulletPoints,
			Severity: types.SeverityInfo,
			Message:  fmt.Sprintf("%d bullet points are too short (<50 characters)", tooShort),
			Count:    tooShort,
		})
	}
	if tooLong > 0 {
		rep.fail(types.Violation{
			Check:    CheckBulletPoints,
			Severity: types.SeverityInfo,
			Message:  fmt.Sprintf("%d bullet points are too long (>150 characters)", tooLong),
			Count:    tooLong,
		})
	}

	rep.breakdown[CheckBulletPoints] = CheckWeights[CheckBulletPoints] * float64(optimal) / float64(len(bullets))
}

func checkDateConsistency(rep *report, entries []types.Experience) {
	maxScore := CheckWeights[CheckDateConsistency]
	if len(entries) == 0 {
		rep.breakdown[CheckDateConsistency] = 0
		return
	}

	issues := 0

	for i, exp := range entries {
		if exp.StartDate == "" || exp.EndDate == "" {
			rep.fail(entryWarning(CheckDateConsistency, i+1, "Experience entry %d missing dates"))
			issues++
		}
	}

	for i, exp := range entries {
		start, end := ExtractYear(exp.StartDate), ExtractYear(exp.EndDate)
		if start == "" || end == "" || start == presentYear || end == presentYear {
			continue
		}
		if atoi(start) > atoi(end) {
			v := entryWarning(CheckDateConsistency, i+1, "Experience entry %d has start date after end date")
			v.Start, v.End = exp.StartDate, exp.EndDate
			rep.fail(v)
			issues++
		}
	}

	if len(entries) > 1 {
		chronological := true
		for i := 0; i < len(entries)-1; i++ {
			curr, next := ExtractYear(entries[i].EndDate), ExtractYear(entries[i+1].EndDate)
			if curr == "" || next == "" || curr == presentYear || next == presentYear {
				continue
			}
			if atoi(next) > atoi(curr) {
				chronological = false
				break
			}
		}
		if chronological {
			rep.pass(types.PassedCheck{
				Check:   CheckDateConsistency,
				Message: "Experience entries in reverse chronological order",
			})
		} else {
			rep.fail(types.Violation{
				Check:    CheckDateConsistency,
				Severity: types.SeverityInfo,
				Message:  "Experience entries not in reverse chronological order (recommended)",
			})
			issues++
		}
	}

	earned := maxScore
	if issues > 0 {
		penalty := min(float64(issues)*maxScore/float64(len(entries)), maxScore)
		earned = max(0, earned-penalty)
	} else {
		rep.pass(types.PassedCheck{
			Check:   CheckDateConsistency,
			Message: "All dates are consistent and valid",
		})
	}

	rep.breakdown[CheckDateConsistency] = earned
}

func checkActionVerbs(rep *report, entries []types.Experience, bullets []string) {
	if len(entries) == 0 || len(bullets) == 0 {
		rep.breakdown[CheckActionVerbs] = 0
		return
	}

	strong, weak := 0, 0
	for _, b := range bullets {
		if IsActionVerb(FirstWord(b)) {
			strong++
		}
		if ContainsWeakPhrase(b) {
			weak++
		}
	}

	ratio := float64(strong) / float64(len(bullets))

	rep.pass(types.PassedCheck{
		Check:   CheckActionVerbs,
		Message: fmt.Sprintf("%d/%d bullet points start with strong action verbs", strong, len(bullets)),
	})
	if weak > 0 {
		rep.fail(types.Violation{
			Check:    CheckActionVerbs,
			Severity: types.SeverityInfo,
			Message:  fmt.Sprintf("%d bullet points use weak phrases (e.g., \"responsible for\")", weak),
			Count:    weak,
		})
	}
	if ratio >= strongVerbRatio {
		rep.pass(types.PassedCheck{
			Check:   CheckActionVerbs,
			Message: "Good use of strong action verbs (>70%)",
		})
	}

	rep.breakdown[CheckActionVerbs] = CheckWeights[CheckActionVerbs] * ratio
}

func entryWarning(check string, entry int, format string) types.Violation {
	return types.Violation{
		Check:    check,
		Severity: types.SeverityWarning,
		Message:  fmt.Sprintf(format, entry),
		Entry:    entry,
	}
}

// ExtractYear returns "Present" for present/current, the first four-digit
// year otherwise, or "" when there is none.
func ExtractYear(date string) string {
	if date == "" {
		return ""
	}
	switch strings.ToLower(strings.TrimSpace(date)) {
	case "present", "current":
		return presentYear
	}
	return yearPattern.FindString(date)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

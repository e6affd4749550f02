package types

// Canonical resume sections
const (
	SectionContact    = "contact"
	SectionSummary    = "summary"
	SectionSkills     = "skills"
	SectionExperience = "experience"
	SectionEducation  = "education"
)

// CanonicalSections lists the sections in their recommended document order
var CanonicalSections = []string{
	SectionContact,
	SectionSummary,
	SectionExperience,
	SectionSkills,
	SectionEducation,
}

// Severity levels for violations and formatting issues
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// Contact holds optional contact fields; none is guaranteed present
type Contact struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
	Location string `json:"location,omitempty"`
}

// IsEmpty reports whether no contact field is set
func (c Contact) IsEmpty() bool {
	return c == Contact{}
}

// Experience is one work history entry. Description keeps the raw
// multi-line text including bullet markers.
type Experience struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
}

// Education is one education entry
type Education struct {
	Degree         string `json:"degree"`
	Field          string `json:"field"`
	Institution    string `json:"institution"`
	GraduationDate string `json:"graduation_date"`
}

// StructuredResume is the normalized record every scorer consumes.
// All five sections are always serialized, empty or not.
type StructuredResume struct {
	Contact    Contact      `json:"contact"`
	Summary    string       `json:"summary"`
	Skills     []string     `json:"skills"`
	Experience []Experience `json:"experience"`
	Education  []Education  `json:"education"`

	// SectionOrder is the document order in which section headers were
	// detected. Empty when the resume was not produced from text.
	SectionOrder []string `json:"-"`
}

// NewStructuredResume returns a resume with every container allocated
func NewStructuredResume() *StructuredResume {
	return &StructuredResume{
		Skills:     []string{},
		Experience: []Experience{},
		Education:  []Education{},
	}
}

// Normalize replaces nil containers with empty ones so JSON output never carries null sections
func (r *StructuredResume) Normalize() *StructuredResume {
	if r.Skills == nil {
		r.Skills = []string{}
	}
	if r.Experience == nil {
		r.Experience = []Experience{}
	}
	if r.Education == nil {
		r.Education = []Education{}
	}
	return r
}

// HasSection reports whether the named section is present and non-empty
func (r *StructuredResume) HasSection(name string) bool {
	switch name {
	case SectionContact:
		return !r.Contact.IsEmpty()
	case SectionSummary:
		return r.Summary != ""
	case SectionSkills:
		return len(r.Skills) > 0
	case SectionExperience:
		return len(r.Experience) > 0
	case SectionEducation:
		return len(r.Education) > 0
	}
	return false
}

// SectionsFound lists the non-empty sections in canonical order
func (r *StructuredResume) SectionsFound() []string {
	found := []string{}
	for _, name := range CanonicalSections {
		if r.HasSection(name) {
			found = append(found, name)
		}
	}
	return found
}

// Violation is a failed ATS rule
type Violation struct {
	Check    string `json:"check"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Section  string `json:"section,omitempty"`
	Field    string `json:"field,omitempty"`
	Entry    int    `json:"entry,omitempty"`
	Count    int    `json:"count,omitempty"`
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
}

// PassedCheck is a satisfied ATS rule
type PassedCheck struct {
	Check   string `json:"check"`
	Message string `json:"message"`
	Section string `json:"section,omitempty"`
	Field   string `json:"field,omitempty"`
	Entry   int    `json:"entry,omitempty"`
}

// ATSResult is the RuleValidator output
type ATSResult struct {
	Score          float64            `json:"rule_score"`
	Violations     []Violation        `json:"violations"`
	PassedChecks   []PassedCheck      `json:"passed_checks"`
	ScoreBreakdown map[string]float64 `json:"score_breakdown"`
}

// Match types
const (
	MatchExact    = "exact"
	MatchSemantic = "semantic"
)

// SkillMatch pairs a job skill with the resume skill that satisfied it
type SkillMatch struct {
	ResumeSkill string  `json:"resume_skill"`
	JobSkill    string  `json:"job_skill"`
	MatchType   string  `json:"match_type"`
	Similarity  float64 `json:"similarity_score"`
}

// MatchDetails summarizes a matching run
type MatchDetails struct {
	TotalJobSkills    int     `json:"total_job_skills"`
	TotalResumeSkills int     `json:"total_resume_skills"`
	ExactMatches      int     `json:"exact_matches"`
	SemanticMatches   int     `json:"semantic_matches"`
	MatchRate         float64 `json:"match_rate"`
}

// SkillResult is the SkillMatcher output
type SkillResult struct {
	Score         float64      `json:"keyword_match_score"`
	MatchedSkills []SkillMatch `json:"matched_skills"`
	MissingSkills []string     `json:"missing_skills"`
	MatchDetails  MatchDetails `json:"match_details"`
	// JobDescriptionProvided is false when the neutral score was applied
	JobDescriptionProvided bool `json:"job_description_provided"`
}

// BulletAnalysis is the per-bullet diagnostic of the ImpactScorer
type BulletAnalysis struct {
	Text              string   `json:"text"`
	HasQuantification bool     `json:"has_quantification"`
	HasOwnershipVerb  bool     `json:"has_ownership_verb"`
	HasOutcome        bool     `json:"has_outcome"`
	HasStarStructure  bool     `json:"has_star_structure"`
	ImpactScore       float64  `json:"impact_score"`
	Findings          []string `json:"findings"`
}

// ImpactSummary counts bullets per criterion
type ImpactSummary struct {
	TotalBullets          int `json:"total_bullets"`
	QuantifiedBullets     int `json:"quantified_bullets"`
	OwnershipVerbBullets  int `json:"ownership_verb_bullets"`
	OutcomeDrivenBullets  int `json:"outcome_driven_bullets"`
	StarStructuredBullets int `json:"star_structured_bullets"`
}

// ImpactResult is the ImpactScorer output
type ImpactResult struct {
	Score          float64            `json:"impact_score"`
	Strengths      []string           `json:"strengths"`
	WeakPoints     []string           `json:"weak_points"`
	BulletAnalyses []BulletAnalysis   `json:"bullet_analyses"`
	ScoreBreakdown map[string]float64 `json:"score_breakdown"`
	Summary        ImpactSummary      `json:"summary"`
}

// FormattingIssue is a failed formatting check
type FormattingIssue struct {
	Category       string `json:"category"`
	Severity       string `json:"severity"`
	Message        string `json:"message"`
	Recommendation string `json:"recommendation"`
}

// FormattingResult is the FormattingAnalyzer output
type FormattingResult struct {
	Score           float64            `json:"formatting_score"`
	Issues          []FormattingIssue  `json:"formatting_issues"`
	Recommendations []string           `json:"formatting_recommendations"`
	ScoreBreakdown  map[string]float64 `json:"score_breakdown"`
}

// AggregatedScore is the ScoreAggregator output
type AggregatedScore struct {
	ATSScore              float64            `json:"ats_score"`
	ScoreGrade            string             `json:"score_grade"`
	SectionScores         map[string]float64 `json:"section_scores"`
	WeightsUsed           map[string]float64 `json:"weights_used"`
	WeightedContributions map[string]float64 `json:"weighted_contributions"`
	MissingScores         []string           `json:"missing_scores"`
	Recommendations       []string           `json:"recommendations"`
}

// Suggestion priorities
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Suggestion is one prioritized improvement
type Suggestion struct {
	Category   string `json:"category"`
	Priority   string `json:"priority"`
	Issue      string `json:"issue"`
	Suggestion string `json:"suggestion"`
	Impact     string `json:"impact"`
}

// Feedback modes
const (
	FeedbackModeRuleBased = "rule-based"
	FeedbackModeLLM       = "llm-based"
)

// FeedbackResult is the FeedbackGenerator output
type FeedbackResult struct {
	Feedback          string         `json:"feedback"`
	Suggestions       []Suggestion   `json:"improvement_suggestions"`
	Mode              string         `json:"mode"`
	TotalSuggestions  int            `json:"total_suggestions"`
	PriorityBreakdown map[string]int `json:"priority_breakdown"`
	LLMEnhanced       bool           `json:"llm_enhanced,omitempty"`
}

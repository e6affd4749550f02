package types

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// AnalysisVersion is reported in every result's metadata
const AnalysisVersion = "2.0.0"

// SectionScores carries the four scorer outputs rounded to two decimals
type SectionScores struct {
	ATSCompliance   float64 `json:"ats_compliance"`
	KeywordMatching float64 `json:"keyword_matching"`
	ImpactQuality   float64 `json:"impact_quality"`
	Formatting      float64 `json:"formatting"`
}

// MatchedSkill is the public shape of a skill match
type MatchedSkill struct {
	ResumeSkill string  `json:"resume_skill"`
	JobSkill    string  `json:"job_skill"`
	MatchType   string  `json:"match_type"`
	Confidence  float64 `json:"confidence"`
}

// ImprovementSuggestion is the public shape of a Suggestion
type ImprovementSuggestion struct {
	Category       string `json:"category"`
	Priority       string `json:"priority"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	ExpectedImpact string `json:"expected_impact"`
}

// ScoreBreakdowns groups the per-scorer breakdown maps
type ScoreBreakdowns struct {
	ATSCompliance map[string]float64 `json:"ats_compliance"`
	ImpactQuality map[string]float64 `json:"impact_quality"`
	Formatting    map[string]float64 `json:"formatting"`
}

// DetailedResults exposes the raw diagnostics of each stage
type DetailedResults struct {
	ATSViolations             []Violation       `json:"ats_violations"`
	ATSPassedChecks           []PassedCheck     `json:"ats_passed_checks"`
	ImpactStrengths           []string          `json:"impact_strengths"`
	ImpactWeakPoints          []string          `json:"impact_weak_points"`
	FormattingIssues          []FormattingIssue `json:"formatting_issues"`
	FormattingRecommendations []string          `json:"formatting_recommendations"`
	ScoreBreakdowns           ScoreBreakdowns   `json:"score_breakdowns"`
	MatchDetails              MatchDetails      `json:"match_details"`
	Recommendations           []string          `json:"recommendations"`
}

// Metadata describes one analysis run
type Metadata struct {
	AnalysisVersion         string             `json:"analysis_version"`
	ModelType               string             `json:"model_type"`
	AnalysisID              string             `json:"analysis_id,omitempty"`
	Grade                   string             `json:"grade"`
	TotalSuggestions        int                `json:"total_suggestions"`
	HasJobDescription       bool               `json:"has_job_description"`
	ResumeSectionsFound     []string           `json:"resume_sections_found"`
	FeedbackMode            string             `json:"feedback_mode,omitempty"`
	LLMFeedbackEnabled      bool               `json:"llm_feedback_enabled"`
	WeightsUsed             map[string]float64 `json:"weights_used,omitempty"`
	MissingScores           []string           `json:"missing_scores,omitempty"`
	Cached                  bool               `json:"cached,omitempty"`
	AnalysisDurationSeconds float64            `json:"analysis_duration_seconds"`
	AnalyzedAt              string             `json:"analyzed_at,omitempty"`
	Error                   bool               `json:"error,omitempty"`
	ErrorMessage            string             `json:"error_message,omitempty"`
}

// UnifiedResult is the single output contract of an analysis. Failed
// analyses use the same shape with Metadata.Error set.
type UnifiedResult struct {
	ATSScore               float64                 `json:"ats_score"`
	SectionScores          SectionScores           `json:"section_scores"`
	MatchedSkills          []MatchedSkill          `json:"matched_skills"`
	MissingSkills          []string                `json:"missing_skills"`
	Strengths              []string                `json:"strengths"`
	ImprovementSuggestions []ImprovementSuggestion `json:"improvement_suggestions"`
	Feedback               string                  `json:"feedback"`
	DetailedResults        *DetailedResults        `json:"detailed_results,omitempty"`
	Metadata               Metadata                `json:"metadata"`
}

// IsError reports whether the result describes a failed analysis
func (r *UnifiedResult) IsError() bool {
	return r != nil && r.Metadata.Error
}

// AnalyzeRequest is the input of one analysis. Exactly one of ResumeText
// or ResumePath is required. A nil JobDescription means none was given;
// an empty one is a job description that yields no skills.
type AnalyzeRequest struct {
	ResumeText          string  `json:"resume_text" validate:"required_without=ResumePath,max=200000"`
	ResumePath          string  `json:"-" validate:"required_without=ResumeText"`
	JobDescription      *string `json:"job_description,omitempty" validate:"omitempty,max=50000"`
	UseEnhancedFeedback bool    `json:"use_enhanced_feedback"`
	FeedbackAPIKey      string  `json:"-"`
}

// StructureRequest asks for structuring only
type StructureRequest struct {
	ResumeText string `json:"resume_text" validate:"required,max=200000"`
}

// Validate checks the request against its field constraints
func (r *AnalyzeRequest) Validate() error {
	return validate.Struct(r)
}

// Validate checks the request against its field constraints
func (r *StructureRequest) Validate() error {
	return validate.Struct(r)
}

package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"atscore/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "UnifiedResult", &ResultTextFormatter{})
	registry.RegisterFormatter("markdown", "UnifiedResult", &ResultMarkdownFormatter{})
	registry.RegisterFormatter("text", "StructuredResume", &ResumeTextFormatter{})
	registry.RegisterFormatter("markdown", "StructuredResume", &ResumeMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.UnifiedResult, *types.UnifiedResult:
		return "UnifiedResult"
	case types.StructuredResume, *types.StructuredResume:
		return "StructuredResume"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

func asResult(data any) (*types.UnifiedResult, error) {
	switch v := data.(type) {
	case *types.UnifiedResult:
		if v != nil {
			return v, nil
		}
	case types.UnifiedResult:
		return &v, nil
	}
	return nil, fmt.Errorf("expected UnifiedResult, got %T", data)
}

func asResume(data any) (*types.StructuredResume, error) {
	switch v := data.(type) {
	case *types.StructuredResume:
		if v != nil {
			return v, nil
		}
	case types.StructuredResume:
		return &v, nil
	}
	return nil, fmt.Errorf("expected StructuredResume, got %T", data)
}

// ResultTextFormatter renders an analysis as plain text
type ResultTextFormatter struct{}

func (rtf *ResultTextFormatter) Format(data any) (string, error) {
	result, err := asResult(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	if result.IsError() {
		output.WriteString("=== ANALYSIS FAILED ===\n\n")
		output.WriteString(result.Metadata.ErrorMessage)
		output.WriteString("\n")
		return output.String(), nil
	}

	output.WriteString("=== ATS SCORE ===\n")
	output.WriteString(fmt.Sprintf("Score: %v/100 (Grade %s)\n\n", result.ATSScore, result.Metadata.Grade))

	output.WriteString("=== SECTION SCORES ===\n")
	output.WriteString(fmt.Sprintf("ATS Compliance:   %v\n", result.SectionScores.ATSCompliance))
	output.WriteString(fmt.Sprintf("Keyword Matching: %v\n", result.SectionScores.KeywordMatching))
	output.WriteString(fmt.Sprintf("Impact Quality:   %v\n", result.SectionScores.ImpactQuality))
	output.WriteString(fmt.Sprintf("Formatting:       %v\n\n", result.SectionScores.Formatting))

	if result.Metadata.HasJobDescription {
		output.WriteString("=== SKILLS ===\n")
		for _, m := range result.MatchedSkills {
			output.WriteString(fmt.Sprintf("+ %s -> %s (%s, %.2f)\n", m.ResumeSkill, m.JobSkill, m.MatchType, m.Confidence))
		}
		for _, s := range result.MissingSkills {
			output.WriteString(fmt.Sprintf("- %s (missing)\n", s))
		}
		output.WriteString("\n")
	}

	if len(result.Strengths) > 0 {
		output.WriteString("=== STRENGTHS ===\n")
		for _, s := range result.Strengths {
			output.WriteString(s)
			output.WriteString("\n")
		}
		output.WriteString("\n")
	}

	output.WriteString("=== SUGGESTIONS ===\n")
	if len(result.ImprovementSuggestions) == 0 {
		output.WriteString("No suggestions.\n")
	}
	for i, s := range result.ImprovementSuggestions {
		output.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, strings.ToUpper(s.Priority), s.Title))
		output.WriteString("   ")
		output.WriteString(s.Description)
		output.WriteString("\n")
		if s.ExpectedImpact != "" {
			output.WriteString("   Impact: ")
			output.WriteString(s.ExpectedImpact)
			output.WriteString("\n")
		}
	}
	output.WriteString("\n")

	output.WriteString("=== FEEDBACK ===\n")
	output.WriteString(result.Feedback)
	output.WriteString("\n")

	return output.String(), nil
}

func (rtf *ResultTextFormatter) SupportedType() string {
	return "UnifiedResult"
}

// ResultMarkdownFormatter renders an analysis as markdown
type ResultMarkdownFormatter struct{}

func (rmf *ResultMarkdownFormatter) Format(data any) (string, error) {
	result, err := asResult(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("# Resume ATS Analysis\n\n")
	if result.IsError() {
		output.WriteString("## Analysis Failed\n\n")
		output.WriteString(result.Metadata.ErrorMessage)
		output.WriteString("\n")
		return output.String(), nil
	}

	output.WriteString(fmt.Sprintf("**ATS Score:** %v/100 (Grade %s)\n\n", result.ATSScore, result.Metadata.Grade))

	output.WriteString("## Section Scores\n\n")
	output.WriteString("| Section | Score |\n|---|---|\n")
	output.WriteString(fmt.Sprintf("| ATS Compliance | %v |\n", result.SectionScores.ATSCompliance))
	output.WriteString(fmt.Sprintf("| Keyword Matching | %v |\n", result.SectionScores.KeywordMatching))
	output.WriteString(fmt.Sprintf("| Impact Quality | %v |\n", result.SectionScores.ImpactQuality))
	output.WriteString(fmt.Sprintf("| Formatting | %v |\n\n", result.SectionScores.Formatting))

	if result.Metadata.HasJobDescription {
		output.WriteString("## Skills\n\n")
		if len(result.MatchedSkills) > 0 {
			output.WriteString("### Matched\n\n")
			for _, m := range result.MatchedSkills {
				output.WriteString(fmt.Sprintf("- **%s** matches *%s* (%s)\n", m.ResumeSkill, m.JobSkill, m.MatchType))
			}
			output.WriteString("\n")
		}
		if len(result.MissingSkills) > 0 {
			output.WriteString("### Missing\n\n")
			for _, s := range result.MissingSkills {
				output.WriteString(fmt.Sprintf("- %s\n", s))
			}
			output.WriteString("\n")
		}
	}

	if len(result.Strengths) > 0 {
		output.WriteString("## Strengths\n\n")
		for _, s := range result.Strengths {
			output.WriteString(fmt.Sprintf("- %s\n", s))
		}
		output.WriteString("\n")
	}

	if len(result.ImprovementSuggestions) > 0 {
		output.WriteString("## Suggestions\n\n")
		for i, s := range result.ImprovementSuggestions {
			output.WriteString(fmt.Sprintf("### %d. %s (%s priority)\n\n", i+1, s.Title, s.Priority))
			output.WriteString(s.Description)
			output.WriteString("\n\n")
			if s.ExpectedImpact != "" {
				output.WriteString("**Expected impact:** ")
				output.WriteString(s.ExpectedImpact)
				output.WriteString("\n\n")
			}
		}
	}

	output.WriteString("## Feedback\n\n")
	output.WriteString(result.Feedback)
	output.WriteString("\n")

	return output.String(), nil
}

func (rmf *ResultMarkdownFormatter) SupportedType() string {
	return "UnifiedResult"
}

// ResumeTextFormatter renders a structured resume as plain text
type ResumeTextFormatter struct{}

func (rtf *ResumeTextFormatter) Format(data any) (string, error) {
	resume, err := asResume(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("=== CONTACT ===\n")
	for _, field := range contactFields(resume.Contact) {
		output.WriteString(fmt.Sprintf("%s: %s\n", field[0], field[1]))
	}
	output.WriteString("\n")

	if resume.Summary != "" {
		output.WriteString("=== SUMMARY ===\n")
		output.WriteString(resume.Summary)
		output.WriteString("\n\n")
	}

	output.WriteString("=== EXPERIENCE ===\n")
	for _, e := range resume.Experience {
		output.WriteString(fmt.Sprintf("%s | %s | %s - %s\n", e.Title, e.Company, e.StartDate, e.EndDate))
		if e.Description != "" {
			output.WriteString(e.Description)
			output.WriteString("\n")
		}
		output.WriteString("\n")
	}

	output.WriteString("=== SKILLS ===\n")
	output.WriteString(strings.Join(resume.Skills, ", "))
	output.WriteString("\n\n")

	output.WriteString("=== EDUCATION ===\n")
	for _, e := range resume.Education {
		output.WriteString(fmt.Sprintf("%s %s, %s (%s)\n", e.Degree, e.Field, e.Institution, e.GraduationDate))
	}

	return output.String(), nil
}

func (rtf *ResumeTextFormatter) SupportedType() string {
	return "StructuredResume"
}

// ResumeMarkdownFormatter renders a structured resume as markdown
type ResumeMarkdownFormatter struct{}

func (rmf *ResumeMarkdownFormatter) Format(data any) (string, error) {
	resume, err := asResume(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	name := resume.Contact.Name
	if name == "" {
		name = "Resume"
	}
	output.WriteString("# " + name + "\n\n")
	for _, field := range contactFields(resume.Contact) {
		if field[0] == "Name" {
			continue
		}
		output.WriteString(fmt.Sprintf("- **%s:** %s\n", field[0], field[1]))
	}
	output.WriteString("\n")

	if resume.Summary != "" {
		output.WriteString("## Summary\n\n")
		output.WriteString(resume.Summary)
		output.WriteString("\n\n")
	}

	if len(resume.Experience) > 0 {
		output.WriteString("## Experience\n\n")
		for _, e := range resume.Experience {
			output.WriteString(fmt.Sprintf("### %s, %s\n\n", e.Title, e.Company))
			output.WriteString(fmt.Sprintf("*%s - %s*\n\n", e.StartDate, e.EndDate))
			if e.Description != "" {
				output.WriteString(e.Description)
				output.WriteString("\n\n")
			}
		}
	}

	if len(resume.Skills) > 0 {
		output.WriteString("## Skills\n\n")
		output.WriteString(strings.Join(resume.Skills, ", "))
		output.WriteString("\n\n")
	}

	if len(resume.Education) > 0 {
		output.WriteString("## Education\n\n")
		for _, e := range resume.Education {
			output.WriteString(fmt.Sprintf("- %s %s, %s (%s)\n", e.Degree, e.Field, e.Institution, e.GraduationDate))
		}
	}

	return output.String(), nil
}

func (rmf *ResumeMarkdownFormatter) SupportedType() string {
	return "StructuredResume"
}

// contactFields lists the non-empty contact fields in display order
func contactFields(c types.Contact) [][2]string {
	all := [][2]string{
		{"Name", c.Name},
		{"Email", c.Email},
		{"Phone", c.Phone},
		{"LinkedIn", c.LinkedIn},
		{"GitHub", c.GitHub},
		{"Location", c.Location},
	}
	out := all[:0]
	for _, f := range all {
		if f[1] != "" {
			out = append(out, f)
		}
	}
	return out
}

// GlobalRegistry is the shared formatter registry
var GlobalRegistry = NewFormatterRegistry()

package formatting

import (
	"reflect"
	"strings"
	"testing"

	"atscore/internal/types"
)

func bulletLines(count, length int) string {
	lines := make([]string, count)
	for i := range lines {
		lines[i] = "• Delivered " + strings.Repeat("x", length-10)
	}
	return strings.Join(lines, "\n")
}

func wellFormedResume() *types.StructuredResume {
	r := types.NewStructuredResume()
	r.Contact = types.Contact{Name: "Jane Roe", Email: "jane@example.com", Phone: "555-123-4567"}
	r.Summary = strings.Repeat("s", 100)
	r.Skills = []string{"Python", "Go", "Docker", "Kubernetes", "AWS", "SQL"}
	r.Experience = []types.Experience{
		{Title: "Engineer", Company: "Acme", StartDate: "2020", EndDate: "Present", Description: bulletLines(4, 60)},
		{Title: "Engineer", Company: "Acme", StartDate: "2020", EndDate: "Present", Description: bulletLines(4, 60)},
	}
	r.Education = []types.Education{{Degree: "BS", Institution: "State University"}}
	return r
}

func TestAnalyzeWellFormed(t *testing.T) {
	result := New(nil).Analyze(wellFormedResume())

	want := map[string]float64{
		CategorySectionOrder:  20,
		CategoryBulletDensity: 25,
		CategoryLineLength:    18,
		CategoryWhitespace:    20,
		CategoryATSSafe:       15,
	}
	if !reflect.DeepEqual(result.ScoreBreakdown, want) {
		t.Errorf("breakdown = %v, want %v", result.ScoreBreakdown, want)
	}
	if result.Score != 98 {
		t.Errorf("score = %v, want 98", result.Score)
	}
	if len(result.Issues) != 0 {
		t.Errorf("issues = %+v", result.Issues)
	}
	wantRecs := []string{
		"✓ Sections in optimal ATS-friendly order",
		"✓ Good total bullet count: 8",
		"✓ All jobs have optimal bullet count (3-6)",
		"✓ Good line length: 90% of lines optimal",
		"✓ Experience section has good density",
		"✓ Skills section well-balanced (6 skills)",
		"✓ Summary length optimal",
		"✓ All required sections present",
		"✓ Complete contact information",
		"✓ Resume is ATS-safe",
	}
	if !reflect.DeepEqual(result.Recommendations, wantRecs) {
		t.Errorf("recommendations =\n%v\nwant\n%v", result.Recommendations, wantRecs)
	}
}

func TestAnalyzeEmptyResume(t *testing.T) {
	result := New(nil).Analyze(types.NewStructuredResume())

	if result.Score != 24.5 {
		t.Errorf("score = %v, want 24.5", result.Score)
	}
	if result.ScoreBreakdown[CategoryATSSafe] != 4.5 {
		t.Errorf("ats_safe = %v, want 4.5", result.ScoreBreakdown[CategoryATSSafe])
	}
	critical := 0
	for _, issue := range result.Issues {
		if issue.Severity == types.SeverityCritical {
			critical++
		}
	}
	if critical != 4 {
		t.Errorf("critical issues = %d, want 4: %+v", critical, result.Issues)
	}
	if len(result.Recommendations) != 0 {
		t.Errorf("recommendations = %v", result.Recommendations)
	}
}

func TestSectionOrder(t *testing.T) {
	tests := []struct {
		name  string
		order []string
		want  float64
		issue bool
	}{
		{"canonical subsequence", []string{"contact", "experience", "education"}, 20, false},
		{"alternative order", []string{"contact", "summary", "skills", "experience", "education"}, 18, false},
		{"out of order", []string{"education", "experience", "contact"}, 4.67, true},
		{"no headers uses canonical order", nil, 20, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := wellFormedResume()
			r.SectionOrder = tt.order
			result := New(nil).Analyze(r)
			if got := result.ScoreBreakdown[CategorySectionOrder]; got != tt.want {
				t.Errorf("section_order = %v, want %v", got, tt.want)
			}
			hasIssue := false
			for _, issue := range result.Issues {
				if issue.Category == CategorySectionOrder {
					hasIssue = true
				}
			}
			if hasIssue != tt.issue {
				t.Errorf("issue = %v, want %v", hasIssue, tt.issue)
			}
		})
	}
}

func TestBulletDensity(t *testing.T) {
	job := func(desc string) types.Experience {
		return types.Experience{Title: "Engineer", Company: "Acme", Description: desc}
	}
	tests := []struct {
		name     string
		jobs     []types.Experience
		want     float64
		messages []string
	}{
		{
			name:     "no descriptions",
			jobs:     []types.Experience{job("")},
			want:     5,
			messages: []string{"No bullet points found in experience"},
		},
		{
			name:     "too few",
			jobs:     []types.Experience{job(bulletLines(2, 60))},
			want:     3.13,
			messages: []string{"Too few bullets: 2 (recommended: 8-20)", "1 jobs have suboptimal bullet count"},
		},
		{
			name: "too many",
			jobs: []types.Experience{
				job(bulletLines(5, 60)), job(bulletLines(5, 60)), job(bulletLines(5, 60)),
				job(bulletLines(5, 60)), job(bulletLines(5, 60)),
			},
			want:     22.5,
			messages: []string{"Many bullets: 25 (recommended: 8-20)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := wellFormedResume()
			r.Experience = tt.jobs
			result := New(nil).Analyze(r)
			if got := result.ScoreBreakdown[CategoryBulletDensity]; got != tt.want {
				t.Errorf("bullet_density = %v, want %v", got, tt.want)
			}
			var messages []string
			for _, issue := range result.Issues {
				if issue.Category == CategoryBulletDensity {
					messages = append(messages, issue.Message)
				}
			}
			if !reflect.DeepEqual(messages, tt.messages) {
				t.Errorf("messages = %v, want %v", messages, tt.messages)
			}
		})
	}
}

func TestATSSafeDeductions(t *testing.T) {
	r := types.NewStructuredResume()
	r.Contact = types.Contact{Email: "jane@example.com"}
	r.Experience = []types.Experience{{Title: "Engineer"}}
	r.Skills = []string{"C#", "Node.js", "R&D", "UI/UX"}

	result := New(nil).Analyze(r)

	// education missing 2, phone missing 2.25, company missing 1.5, special skills 1.5
	if got := result.ScoreBreakdown[CategoryATSSafe]; got != 7.75 {
		t.Errorf("ats_safe = %v, want 7.75", got)
	}
	want := []string{
		"Missing required sections: education",
		"Missing contact: phone",
		"Experience entry 1 missing company name",
		"2 skills contain special characters",
	}
	var got []string
	for _, issue := range result.Issues {
		if issue.Category == CategoryATSSafe {
			got = append(got, issue.Message)
		}
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("messages = %v, want %v", got, want)
	}
}

func TestLineLengthIssues(t *testing.T) {
	r := types.NewStructuredResume()
	r.Experience = []types.Experience{{
		Title:       "Engineer",
		Company:     "Acme",
		Description: "• Short\n• Tiny\n• " + strings.Repeat("y", 130),
	}}
	result := New(nil).Analyze(r)

	if got := result.ScoreBreakdown[CategoryLineLength]; got != 0 {
		t.Errorf("line_length = %v, want 0", got)
	}
	var got []string
	for _, issue := range result.Issues {
		if issue.Category == CategoryLineLength {
			got = append(got, issue.Message)
		}
	}
	want := []string{"2 lines too short (< 50 chars)", "1 lines too long (> 120 chars)"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("messages = %v, want %v", got, want)
	}
}

func TestBreakdownSumsToScore(t *testing.T) {
	for _, r := range []*types.StructuredResume{types.NewStructuredResume(), wellFormedResume()} {
		result := New(nil).Analyze(r)
		sum := 0.0
		for _, v := range result.ScoreBreakdown {
			sum += v
		}
		if diff := sum - result.Score; diff > 0.1 || diff < -0.1 {
			t.Errorf("breakdown sum %v != score %v", sum, result.Score)
		}
		if result.Score < 0 || result.Score > 100 {
			t.Errorf("score %v out of range", result.Score)
		}
	}
}

func BenchmarkAnalyze(b *testing.B) {
	a := New(nil)
	r := wellFormedResume()
	for b.Loop() {
		a.Analyze(r)
	}
}

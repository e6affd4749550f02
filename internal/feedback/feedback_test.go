package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"atscore/internal/types"
)

func sampleInputs() Inputs {
	resume := types.NewStructuredResume()
	resume.Contact = types.Contact{Name: "Jane Roe", Email: "jane@example.com", Phone: "555-123-4567"}
	resume.Skills = []string{"Python"}
	resume.Experience = []types.Experience{{Title: "Engineer", Company: "Tech Co", Description: "• Did work"}}

	return Inputs{
		Resume: resume,
		ATS: &types.ATSResult{
			Score: 72,
			Violations: []types.Violation{
				{Severity: types.SeverityWarning, Message: "Missing summary section"},
			},
		},
		Skills: &types.SkillResult{
			Score:         58,
			MissingSkills: []string{"react", "aws", "docker"},
		},
		Impact: &types.ImpactResult{
			Score: 45,
			Summary: types.ImpactSummary{
				TotalBullets:         4,
				QuantifiedBullets:    1,
				OwnershipVerbBullets: 2,
				OutcomeDrivenBullets: 1,
			},
			WeakPoints: []string{"Weak quantification: Few bullets include numbers or percentages"},
		},
		Final: &types.AggregatedScore{ATSScore: 65.5, ScoreGrade: "D"},
	}
}

func TestRuleBasedSuggestions(t *testing.T) {
	result := NewRuleBased(nil).Generate(context.Background(), sampleInputs())

	want := []struct{ category, priority, issue string }{
		{CategoryATS, types.PriorityMedium, "Missing summary section"},
		{CategorySkills, types.PriorityHigh, "Low keyword match: 58%"},
		{CategorySkills, types.PriorityMedium, "3 required skills missing"},
		{CategoryImpact, types.PriorityHigh, "Only 1/4 bullets include metrics"},
		{CategoryImpact, types.PriorityMedium, "Only 2/4 bullets use strong action verbs"},
		{CategoryImpact, types.PriorityHigh, "Only 1/4 bullets show clear outcomes"},
	}
	if len(result.Suggestions) != len(want) {
		t.Fatalf("got %d suggestions, want %d: %+v", len(result.Suggestions), len(want), result.Suggestions)
	}
	for i, w := range want {
		s := result.Suggestions[i]
		if s.Category != w.category || s.Priority != w.priority || s.Issue != w.issue {
			t.Errorf("suggestion %d = %+v, want %+v", i, s, w)
		}
	}
	if result.Suggestions[2].Suggestion != "Add these missing skills if you have them: react, aws, docker" {
		t.Errorf("missing skills suggestion = %q", result.Suggestions[2].Suggestion)
	}

	if result.Mode != types.FeedbackModeRuleBased || result.TotalSuggestions != 6 {
		t.Errorf("mode = %s, total = %d", result.Mode, result.TotalSuggestions)
	}
	wantBreakdown := map[string]int{"high": 3, "medium": 3, "low": 0}
	if !reflect.DeepEqual(result.PriorityBreakdown, wantBreakdown) {
		t.Errorf("breakdown = %v, want %v", result.PriorityBreakdown, wantBreakdown)
	}

	wantText := "Your resume needs improvement. Current ATS score: 65.5/100 (Grade D)." +
		"\n\nHigh Priority (3 items):\n" +
		"1. Low keyword match: 58%\n" +
		"2. Only 1/4 bullets include metrics\n" +
		"3. Only 1/4 bullets show clear outcomes\n" +
		"\n\nRecommended Actions:\n" +
		"1. Address all high-priority issues first\n" +
		"2. Add quantified achievements with metrics\n" +
		"3. Ensure ATS-safe formatting\n"
	if result.Feedback != wantText {
		t.Errorf("feedback =\n%q\nwant\n%q", result.Feedback, wantText)
	}
}

func TestATSSuggestionLimits(t *testing.T) {
	ats := &types.ATSResult{Score: 40}
	for i := range 2 {
		ats.Violations = append(ats.Violations, types.Violation{Severity: types.SeverityCritical, Message: fmt.Sprintf("critical %d", i)})
	}
	for i := range 5 {
		ats.Violations = append(ats.Violations, types.Violation{Severity: types.SeverityWarning, Message: fmt.Sprintf("warning %d", i)})
	}

	got := atsSuggestions(ats)

	var issues []string
	for _, s := range got {
		issues = append(issues, s.Priority+":"+s.Issue)
	}
	want := []string{
		"high:critical 0",
		"high:critical 1",
		"medium:warning 0",
		"medium:warning 1",
		"medium:warning 2",
		"high:Low ATS compliance score: 40/100",
	}
	if !reflect.DeepEqual(issues, want) {
		t.Errorf("issues = %v, want %v", issues, want)
	}
	if got[0].Suggestion != "Fix critical issue: critical 0" {
		t.Errorf("suggestion = %q", got[0].Suggestion)
	}
}

func TestMissingSkillsPriority(t *testing.T) {
	got := skillSuggestions(&types.SkillResult{
		Score:         80,
		MissingSkills: []string{"a", "b", "c", "d", "e", "f"},
	})
	if len(got) != 1 {
		t.Fatalf("got %d suggestions", len(got))
	}
	if got[0].Priority != types.PriorityHigh {
		t.Errorf("priority = %s, want high", got[0].Priority)
	}
	if !strings.HasSuffix(got[0].Suggestion, "a, b, c, d, e") {
		t.Errorf("suggestion = %q", got[0].Suggestion)
	}
}

func TestFormattingSuggestions(t *testing.T) {
	got := formattingSuggestions(&types.FormattingResult{
		Issues: []types.FormattingIssue{
			{Severity: types.SeverityCritical, Message: "No experience section found", Recommendation: "Add experience section with bullet points"},
			{Severity: types.SeverityWarning, Message: "Too few bullets: 2 (recommended: 8-20)", Recommendation: "Add more bullet points"},
			{Severity: types.SeverityWarning, Message: "1 jobs have suboptimal bullet count", Recommendation: "Aim for 3-6 bullets per job position"},
			{Severity: types.SeverityInfo, Message: "Many bullets: 30", Recommendation: "Condense"},
		},
	})
	var got2 []string
	for _, s := range got {
		got2 = append(got2, s.Priority+":"+s.Issue)
	}
	want := []string{
		"high:No experience section found",
		"medium:Too few bullets: 2 (recommended: 8-20)",
		"medium:1 jobs have suboptimal bullet count",
	}
	if !reflect.DeepEqual(got2, want) {
		t.Errorf("suggestions = %v, want %v", got2, want)
	}
}

func TestSummaryBands(t *testing.T) {
	tests := []struct {
		score   float64
		grade   string
		opening string
	}{
		{92, "A", "Excellent resume! Your ATS score of 92/100 (Grade A) is strong."},
		{75, "C", "Good resume with room for improvement. Current ATS score: 75/100 (Grade C)."},
		{61, "D", "Your resume needs improvement. Current ATS score: 61/100 (Grade D)."},
		{20, "F", "Significant improvements needed. Current ATS score: 20/100 (Grade F)."},
	}
	for _, tt := range tests {
		t.Run(tt.grade, func(t *testing.T) {
			text := Summary(&types.AggregatedScore{ATSScore: tt.score, ScoreGrade: tt.grade}, nil)
			if !strings.HasPrefix(text, tt.opening) {
				t.Errorf("text = %q", text)
			}
			if !strings.Contains(text, "No critical issues found. Focus on optimization.") {
				t.Errorf("expected optimization note in %q", text)
			}
			if !strings.HasSuffix(text, "3. Polish formatting and layout\n") {
				t.Errorf("expected optimization actions in %q", text)
			}
		})
	}
}

func TestRuleBasedDeterministic(t *testing.T) {
	g := NewRuleBased(nil)
	a, _ := json.Marshal(g.Generate(context.Background(), sampleInputs()))
	b, _ := json.Marshal(g.Generate(context.Background(), sampleInputs()))
	if string(a) != string(b) {
		t.Error("rule-based feedback is not deterministic")
	}
}

type stubProvider struct {
	payload string
	err     error
	got     SafeSummary
}

func (s *stubProvider) Suggest(_ context.Context, summary SafeSummary) (json.RawMessage, error) {
	s.got = summary
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(s.payload), nil
}

func TestEnhancedMergesValidSuggestions(t *testing.T) {
	provider := &stubProvider{payload: `[
		{"category": "impact", "priority": "high", "issue": "Bullets lack scale", "suggestion": "Mention team sizes and budgets you owned", "impact": "Shows scope"},
		{"category": "impact", "priority": "high", "issue": "Contact", "suggestion": "Email the recruiter at hr@example.com directly", "impact": "n/a"},
		{"category": "skills", "priority": "medium", "issue": "Short", "suggestion": "Add Go", "impact": "n/a"},
		{"category": "skills", "priority": "urgent", "issue": "Bad priority", "suggestion": "This priority is not one of the allowed values", "impact": "n/a"},
		{"category": "skills", "issue": "No priority", "suggestion": "Required priority field is absent from this item", "impact": "n/a"}
	]`}
	in := sampleInputs()
	baseline := NewRuleBased(nil).Generate(context.Background(), in)

	result := NewEnhanced(provider, nil).Generate(context.Background(), in)

	if result.Mode != types.FeedbackModeLLM || !result.LLMEnhanced {
		t.Fatalf("mode = %s, enhanced = %v", result.Mode, result.LLMEnhanced)
	}
	if result.TotalSuggestions != len(baseline.Suggestions)+1 {
		t.Fatalf("total = %d, want %d", result.TotalSuggestions, len(baseline.Suggestions)+1)
	}
	last := result.Suggestions[len(result.Suggestions)-1]
	if last.Issue != "Bullets lack scale" {
		t.Errorf("accepted suggestion = %+v", last)
	}
	wantText := fmt.Sprintf("Your resume scores 65.5/100. %d improvements suggested.", result.TotalSuggestions)
	if result.Feedback != wantText {
		t.Errorf("feedback = %q, want %q", result.Feedback, wantText)
	}

	blob, _ := json.Marshal(provider.got)
	for _, secret := range []string{"Jane", "jane@example.com", "555-123-4567", "Tech Co", "Did work"} {
		if strings.Contains(string(blob), secret) {
			t.Errorf("safe summary leaks %q: %s", secret, blob)
		}
	}
	if provider.got.Stats.TotalSkills != 1 || *provider.got.Scores.Final != 65.5 {
		t.Errorf("summary = %+v", provider.got)
	}
}

func TestEnhancedFallsBack(t *testing.T) {
	tests := []struct {
		name     string
		provider SuggestionProvider
	}{
		{"provider error", &stubProvider{err: fmt.Errorf("quota exceeded")}},
		{"not an array", &stubProvider{payload: `{"suggestions": []}`}},
		{"invalid json", &stubProvider{payload: `not json`}},
		{"no provider", nil},
	}
	in := sampleInputs()
	want := NewRuleBased(nil).Generate(context.Background(), in)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewEnhanced(tt.provider, nil).Generate(context.Background(), in)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("got %+v, want rule-based baseline", got)
			}
		})
	}
}

func TestMinSuggestionLengthOption(t *testing.T) {
	e := NewEnhanced(nil, nil, WithMinSuggestionLength(5))
	got, err := e.ValidateSuggestions(json.RawMessage(`[{"category":"skills","priority":"low","issue":"x","suggestion":"Add Go","impact":""}]`))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("accepted = %v", got)
	}
}

func TestUnavailable(t *testing.T) {
	u := Unavailable()
	if u.Feedback != UnavailableFeedback || len(u.Suggestions) != 0 {
		t.Errorf("unavailable = %+v", u)
	}
}

func BenchmarkRuleBased(b *testing.B) {
	g := NewRuleBased(nil)
	in := sampleInputs()
	ctx := context.Background()
	for b.Loop() {
		g.Generate(ctx, in)
	}
}

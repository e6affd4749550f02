package aggregator

import (
	"reflect"
	"testing"

	"atscore/internal/errors"
)

func f(v float64) *float64 { return &v }

func TestAggregateAllPerfect(t *testing.T) {
	a, err := New(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	result := a.Aggregate(Scores{f(100), f(100), f(100), f(100)})
	if result.ATSScore != 100 || result.ScoreGrade != "A" {
		t.Errorf("got %v %s, want 100 A", result.ATSScore, result.ScoreGrade)
	}
	if len(result.MissingScores) != 0 {
		t.Errorf("missing = %v", result.MissingScores)
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name        string
		scores      Scores
		wantScore   float64
		wantGrade   string
		wantMissing []string
	}{
		{
			name:        "weighted average",
			scores:      Scores{f(85), f(72), f(68), f(78)},
			wantScore:   75.15,
			wantGrade:   "C",
			wantMissing: []string{},
		},
		{
			name:        "missing scores excluded from weight",
			scores:      Scores{RuleChecks: f(80), ImpactScore: f(60)},
			wantScore:   70,
			wantGrade:   "C",
			wantMissing: []string{KeyKeywordMatching, KeyFormatting},
		},
		{
			name:        "out of range scores clamped",
			scores:      Scores{f(150), f(-20), f(100), f(100)},
			wantScore:   65,
			wantGrade:   "D",
			wantMissing: []string{},
		},
		{
			name:        "nothing present",
			scores:      Scores{},
			wantScore:   0,
			wantGrade:   "F",
			wantMissing: Keys,
		},
	}

	a, _ := New(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := a.Aggregate(tt.scores)
			if result.ATSScore != tt.wantScore {
				t.Errorf("score = %v, want %v", result.ATSScore, tt.wantScore)
			}
			if result.ScoreGrade != tt.wantGrade {
				t.Errorf("grade = %s, want %s", result.ScoreGrade, tt.wantGrade)
			}
			if !reflect.DeepEqual(result.MissingScores, tt.wantMissing) {
				t.Errorf("missing = %v, want %v", result.MissingScores, tt.wantMissing)
			}
		})
	}
}

func TestValidateWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights map[string]float64
		wantErr bool
	}{
		{"defaults", DefaultWeights(), false},
		{"within tolerance", map[string]float64{KeyRuleChecks: 0.25, KeyKeywordMatching: 0.35, KeyImpactScore: 0.25, KeyFormatting: 0.155}, false},
		{"sum too low", map[string]float64{KeyRuleChecks: 0.2, KeyKeywordMatching: 0.2, KeyImpactScore: 0.2, KeyFormatting: 0.2}, true},
		{"missing key", map[string]float64{KeyRuleChecks: 0.5, KeyKeywordMatching: 0.25, KeyImpactScore: 0.25}, true},
		{"unknown key", map[string]float64{KeyRuleChecks: 0.25, KeyKeywordMatching: 0.35, KeyImpactScore: 0.25, "style": 0.15}, true},
		{"extra key", map[string]float64{KeyRuleChecks: 0.25, KeyKeywordMatching: 0.35, KeyImpactScore: 0.25, KeyFormatting: 0.15, "style": 0}, true},
		{"negative weight", map[string]float64{KeyRuleChecks: -0.25, KeyKeywordMatching: 0.6, KeyImpactScore: 0.5, KeyFormatting: 0.15}, true},
		{"weight above one", map[string]float64{KeyRuleChecks: 1.2, KeyKeywordMatching: -0.2, KeyImpactScore: 0, KeyFormatting: 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWeights(tt.weights)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.IsType(err, errors.ErrorTypeConfig) {
				t.Errorf("error type = %v, want config", errors.TypeOf(err))
			}
		})
	}
}

func TestNewRejectsInvalidWeights(t *testing.T) {
	if _, err := New(map[string]float64{KeyRuleChecks: 1}, nil); err == nil {
		t.Fatal("expected error for incomplete weights")
	}
}

func TestCustomWeights(t *testing.T) {
	weights := map[string]float64{KeyRuleChecks: 0.5, KeyKeywordMatching: 0.5, KeyImpactScore: 0, KeyFormatting: 0}
	a, err := New(weights, nil)
	if err != nil {
		t.Fatal(err)
	}
	weights[KeyRuleChecks] = 0.9

	result := a.Aggregate(Scores{f(80), f(60), f(0), f(0)})
	if result.ATSScore != 70 {
		t.Errorf("score = %v, want 70", result.ATSScore)
	}
	if result.WeightsUsed[KeyRuleChecks] != 0.5 {
		t.Errorf("weights were not copied: %v", result.WeightsUsed)
	}
}

func TestGrade(t *testing.T) {
	tests := map[float64]string{100: "A", 90: "A", 89.99: "B", 80: "B", 70: "C", 60: "D", 59.99: "F", 0: "F"}
	for score, want := range tests {
		if got := Grade(score); got != want {
			t.Errorf("Grade(%v) = %s, want %s", score, got, want)
		}
	}
}

func TestRecommendations(t *testing.T) {
	a, _ := New(nil, nil)
	result := a.Aggregate(Scores{f(95), f(40), f(80), f(75)})

	want := []string{
		"⚡ Overall: Needs improvement - focus on weak areas",
		"✓ ATS Compliance: Excellent - resume is ATS-friendly",
		"⚠️ Keyword Match: Add more job-relevant skills and keywords",
		"✓ Impact: Strong achievement-focused content",
	}
	if !reflect.DeepEqual(result.Recommendations, want) {
		t.Errorf("recommendations =\n%v\nwant\n%v", result.Recommendations, want)
	}
}

func BenchmarkAggregate(b *testing.B) {
	a, _ := New(nil, nil)
	scores := Scores{f(85), f(72), f(68.5), f(78)}
	for b.Loop() {
		a.Aggregate(scores)
	}
}

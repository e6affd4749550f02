package structurer

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"atscore/internal/errors"
	"atscore/internal/types"
)

const sampleResume = `John Doe
john.doe@email.com | (555) 123-4567 | linkedin.com/in/johndoe

SUMMARY
Experienced software engineer with 6 years building
distributed backend systems.

EXPERIENCE
Senior Software Engineer at Tech Corp
Jan 2020 - Present
• Led development of microservices architecture, reducing latency by 40%
• Managed team of 5 engineers

Software Engineer at StartupCo
Jun 2018 - Dec 2019
• Built REST APIs serving 1M+ requests daily

SKILLS
Python, Go, Docker, Kubernetes, AWS

EDUCATION
BS in Computer Science
MIT, 2018
`

func TestStructureSampleResume(t *testing.T) {
	r := New().Structure(sampleResume)

	wantContact := types.Contact{
		Name:     "John Doe",
		Email:    "john.doe@email.com",
		Phone:    "(555) 123-4567",
		LinkedIn: "linkedin.com/in/johndoe",
	}
	if r.Contact != wantContact {
		t.Errorf("contact = %+v, want %+v", r.Contact, wantContact)
	}

	if r.Summary != "Experienced software engineer with 6 years building distributed backend systems." {
		t.Errorf("summary = %q", r.Summary)
	}

	wantSkills := []string{"Python", "Go", "Docker", "Kubernetes", "AWS"}
	if !reflect.DeepEqual(r.Skills, wantSkills) {
		t.Errorf("skills = %v, want %v", r.Skills, wantSkills)
	}

	if len(r.Experience) != 2 {
		t.Fatalf("experience entries = %d, want 2", len(r.Experience))
	}
	first := r.Experience[0]
	if first.Title != "Senior Software Engineer" || first.Company != "Tech Corp" {
		t.Errorf("first entry title/company = %q/%q", first.Title, first.Company)
	}
	if first.StartDate != "2020" || first.EndDate != "Present" {
		t.Errorf("first entry dates = %q-%q", first.StartDate, first.EndDate)
	}
	if !strings.HasPrefix(first.Description, "• Led development") {
		t.Errorf("description lost its bullet marker: %q", first.Description)
	}
	second := r.Experience[1]
	if second.StartDate != "Jun 2018" || second.EndDate != "Dec 2019" {
		t.Errorf("second entry dates = %q-%q", second.StartDate, second.EndDate)
	}

	wantEdu := []types.Education{{Degree: "BS", Field: "Computer Science", GraduationDate: "2018"}}
	if !reflect.DeepEqual(r.Education, wantEdu) {
		t.Errorf("education = %+v, want %+v", r.Education, wantEdu)
	}

	wantOrder := []string{"contact", "summary", "experience", "skills", "education"}
	if !reflect.DeepEqual(r.SectionOrder, wantOrder) {
		t.Errorf("section order = %v, want %v", r.SectionOrder, wantOrder)
	}
}

func TestStructureEmptyKeepsAllSections(t *testing.T) {
	for _, input := range []string{"", "   \n\t  "} {
		r := New().Structure(input)
		data, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var decoded map[string]json.RawMessage
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		for _, key := range []string{"contact", "summary", "skills", "experience", "education"} {
			if _, ok := decoded[key]; !ok {
				t.Errorf("input %q: key %q missing from %s", input, key, data)
			}
		}
		if string(decoded["skills"]) != "[]" || string(decoded["experience"]) != "[]" {
			t.Errorf("empty sections must serialize as [], got %s", data)
		}
	}
}

func TestStructureInfersSectionsWithoutHeaders(t *testing.T) {
	text := "jane@example.com\n555-123-4567\n\n" +
		"Python, Java, SQL\n\n" +
		"Bachelor of Science, State University, 2015\n\n" +
		"Developer at Acme 2016 - 2020"

	r := New().Structure(text)

	if r.Contact.Email != "jane@example.com" || r.Contact.Phone != "555-123-4567" {
		t.Errorf("contact = %+v", r.Contact)
	}
	if r.Contact.Name != "" {
		t.Errorf("name guessed from an email line: %q", r.Contact.Name)
	}
	if !reflect.DeepEqual(r.Skills, []string{"Python", "Java", "SQL"}) {
		t.Errorf("skills = %v", r.Skills)
	}
	wantEdu := types.Education{Degree: "Bachelor of Science", Institution: "State University", GraduationDate: "2015"}
	if len(r.Education) != 1 || r.Education[0] != wantEdu {
		t.Errorf("education = %+v, want %+v", r.Education, wantEdu)
	}
	wantExp := types.Experience{Title: "Developer", Company: "Acme", StartDate: "2016", EndDate: "2020"}
	if len(r.Experience) != 1 || r.Experience[0] != wantExp {
		t.Errorf("experience = %+v, want %+v", r.Experience, wantExp)
	}
	wantOrder := []string{"contact", "skills", "education", "experience"}
	if !reflect.DeepEqual(r.SectionOrder, wantOrder) {
		t.Errorf("section order = %v, want %v", r.SectionOrder, wantOrder)
	}
}

func TestExperienceSplitOnDateRanges(t *testing.T) {
	text := `EXPERIENCE
Backend Engineer
Globex
2019 - 2021
• Built billing pipeline
Intern, Initech
2018 - 2019
• Wrote tests`

	got := New().Structure(text).Experience
	want := []types.Experience{
		{Title: "Backend Engineer", Company: "Globex", StartDate: "2019", EndDate: "2021", Description: "• Built billing pipeline"},
		{Title: "Intern", Company: "Initech", StartDate: "2018", EndDate: "2019", Description: "• Wrote tests"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("experience =\n%+v\nwant\n%+v", got, want)
	}
}

func TestExperienceDropsEntriesWithoutTitleOrCompany(t *testing.T) {
	text := "EXPERIENCE\n2019 - 2021\n• Did things"
	if got := New().Structure(text).Experience; len(got) != 0 {
		t.Errorf("expected no entries, got %+v", got)
	}
}

func TestSplitTitleCompany(t *testing.T) {
	tests := []struct {
		line    string
		title   string
		company string
	}{
		{"Senior Engineer at Tech Corp", "Senior Engineer", "Tech Corp"},
		{"Senior Engineer AT Globex", "Senior Engineer", "Globex"},
		{"ȺȺȺȺ at X", "ȺȺȺȺ", "X"},
		{"Developer \u212a at Acme Corp", "Developer \u212a", "Acme Corp"},
		{"Ingénieure logiciel at Société Générale", "Ingénieure logiciel", "Société Générale"},
		{"Data Scientist | Über GmbH", "Data Scientist", "Über GmbH"},
		{"Platform Lead", "Platform Lead", ""},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			title, company := splitTitleCompany(tt.line)
			if title != tt.title || company != tt.company {
				t.Errorf("splitTitleCompany(%q) = %q, %q, want %q, %q", tt.line, title, company, tt.title, tt.company)
			}
		})
	}
}

func TestStructureUnicodeInput(t *testing.T) {
	inputs := map[string]string{
		"case folding header": "Experience\nȺȺȺȺ at X\n",
		"kelvin sign":         "EXPERIENCE\nDeveloper \u212a at Acme Corp\n2019 - 2021\n• Shipped things",
		"accented resume": "José Núñez\njose@example.com\n\nRÉSUMÉ\nIngénieur logiciel\n\n" +
			"EXPERIENCE\nIngénieur at Société Générale\nJan 2019 - Present\n• Réduit la latence de 40%\n\n" +
			"SKILLS\nGo, Python, Kubernetes\n\nEDUCATION\nMaster in Informatique\nUniversité de Paris, 2018",
		"cjk and emoji":   "王小明 🚀\n\nSKILLS\nGo, 日本語, Docker\n\nEXPERIENCE\nエンジニア at 株式会社\n2020 - 2022",
		"dotted capitals": "İSTANBUL İİİ at ŞİRKET\nEXPERIENCE\nİİİ at ŞİRKET\n2015 - 2016",
		"mixed scripts":   "ǅemal Σίσυφος\nEXPERIENCE\nΣΊΣΥΦΟΣ at ΑΘΉΝΑ, ǈ\n• ﬁxed ﬂaky tests by 30%",
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			r := New().Structure(input)

			data, err := json.Marshal(r)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var decoded map[string]json.RawMessage
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			for _, key := range []string{"contact", "summary", "skills", "experience", "education"} {
				if _, ok := decoded[key]; !ok {
					t.Errorf("key %q missing from %s", key, data)
				}
			}
			for _, e := range r.Experience {
				if !utf8.ValidString(e.Title) || !utf8.ValidString(e.Company) {
					t.Errorf("entry split inside a rune: %+v", e)
				}
			}
		})
	}
}

func TestEducationEntries(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []types.Education
	}{
		{
			name: "degree with field and institution",
			text: "EDUCATION\nMaster of Science in Data Science from Stanford University\n2016 - 2018",
			want: []types.Education{{
				Degree: "Master of Science", Field: "Data Science",
				Institution: "Stanford University", GraduationDate: "2018",
			}},
		},
		{
			name: "two degrees without blank line",
			text: "EDUCATION\nB.S. Computer Engineering, Georgia Institute of Technology, 2012\n" +
				"M.S. Computer Science, Georgia Institute of Technology, 2014",
			want: []types.Education{
				{Degree: "B.S. Computer Engineering", Institution: "Georgia Institute of Technology", GraduationDate: "2012"},
				{Degree: "M.S. Computer Science", Institution: "Georgia Institute of Technology", GraduationDate: "2014"},
			},
		},
		{
			name: "no degree and no institution",
			text: "EDUCATION\nSelf taught",
			want: []types.Education{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New().Structure(tt.text).Education
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("education =\n%+v\nwant\n%+v", got, tt.want)
			}
		})
	}
}

func TestSkillsVocabularyRespectsWordBoundaries(t *testing.T) {
	r := New().Structure("SKILLS\nGolang, Rust")
	want := []string{"Golang", "Rust"}
	if !reflect.DeepEqual(r.Skills, want) {
		t.Errorf("skills = %v, want %v", r.Skills, want)
	}
}

func TestSkillsLabelPrefixDropped(t *testing.T) {
	r := New().Structure("SKILLS\nLanguages: Python; Scala\n• Tools: Terraform | Docker")
	want := []string{"Python", "Scala", "Terraform", "Docker"}
	if !reflect.DeepEqual(r.Skills, want) {
		t.Errorf("skills = %v, want %v", r.Skills, want)
	}
}

func TestSkillsCappedAtFifty(t *testing.T) {
	var tokens []string
	for i := 0; i < 80; i++ {
		tokens = append(tokens, "Skill"+strings.Repeat("x", i%20)+string(rune('A'+i%26))+string(rune('a'+i/26)))
	}
	r := New().Structure("SKILLS\n" + strings.Join(tokens, ", "))
	if len(r.Skills) != maxSkills {
		t.Errorf("skills = %d, want %d", len(r.Skills), maxSkills)
	}
}

type fakeRecognizer struct{ entities []Entity }

func (f fakeRecognizer) Entities(string) []Entity { return f.entities }

type fakeChunker struct{ phrases []string }

func (f fakeChunker) NounPhrases(string) []string { return f.phrases }

func TestOptionalRecognizers(t *testing.T) {
	s := New(
		WithEntityRecognizer(fakeRecognizer{entities: []Entity{
			{Text: "Ada Lovelace", Label: EntityPerson},
			{Text: "London", Label: EntityLocation},
		}}),
		WithPhraseChunker(fakeChunker{phrases: []string{"distributed systems", "a very long phrase with many words"}}),
		WithLogger(errors.NewNopLogger()),
	)

	r := s.Structure("CONTACT\nada@example.com\n\nSKILLS\nPython")

	if r.Contact.Name != "Ada Lovelace" || r.Contact.Location != "London" {
		t.Errorf("contact = %+v", r.Contact)
	}
	want := []string{"Python", "distributed systems"}
	if !reflect.DeepEqual(r.Skills, want) {
		t.Errorf("skills = %v, want %v", r.Skills, want)
	}
}

func TestParseRejectsUnreadableText(t *testing.T) {
	_, err := New().Parse("!!!! ---- ****")
	if !errors.IsType(err, errors.ErrorTypeStructuring) {
		t.Fatalf("expected structuring error, got %v", err)
	}

	r, err := New().Parse("")
	if err != nil || r == nil {
		t.Fatalf("empty text must structure cleanly, got %v", err)
	}
}

func TestExtractDates(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"Jan 2020 - Present", []string{"2020", "Present", "Jan 2020"}},
		{"June 2018 - December 2019", []string{"Jun 2018", "Dec 2019"}},
		{"Graduated 2015", []string{"2015"}},
		{"2017 – current", []string{"2017", "Current"}},
		{"no dates here", nil},
		{"X\u017fep 2021", []string{"Sep 2021"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := ExtractDates(tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractDates(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsDateLine(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"Jan 2020 - Present", true},
		{"2019 – 2021", true},
		{"(2018)", true},
		{"Engineer at X 2019", false},
		{"Managed 5 people", false},
	}
	for _, tt := range tests {
		if got := isDateLine(tt.line); got != tt.want {
			t.Errorf("isDateLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestMatchHeader(t *testing.T) {
	tests := []struct {
		line    string
		section string
		ok      bool
	}{
		{"EXPERIENCE", types.SectionExperience, true},
		{"Work Experience:", types.SectionExperience, true},
		{"## Skills", types.SectionSkills, true},
		{"Professional Summary", types.SectionSummary, true},
		{"Experience with Go and Rust", "", false},
		{strings.Repeat("education ", 6), "", false},
	}
	for _, tt := range tests {
		section, ok := matchHeader(tt.line)
		if section != tt.section || ok != tt.ok {
			t.Errorf("matchHeader(%q) = %q, %v; want %q, %v", tt.line, section, ok, tt.section, tt.ok)
		}
	}
}

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"node.js":          "Node.Js",
		"c++":              "C++",
		"neo4j":            "Neo4J",
		"machine learning": "Machine Learning",
	}
	for in, want := range tests {
		if got := titleCase(in); got != want {
			t.Errorf("titleCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDescribe(t *testing.T) {
	stats := Describe(New().Structure(sampleResume))
	want := Stats{TotalSkills: 5, TotalExperience: 2, TotalEducation: 1, HasContact: true, HasSummary: true}
	if stats != want {
		t.Errorf("Describe = %+v, want %+v", stats, want)
	}
}

func BenchmarkStructure(b *testing.B) {
	s := New()
	for b.Loop() {
		s.Structure(sampleResume)
	}
}

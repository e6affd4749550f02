package skills

import (
	"regexp"
	"strings"
)

// labeledSkillPatterns capture the text following a skills label in a job description
var labeledSkillPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)(?:required skills|skills required|technical skills|qualifications)[:\s]*(.+?)(?:\n\n|required|preferred|$)`),
	regexp.MustCompile(`(?is)(?:must have|requirements)[:\s]*(.+?)(?:\n\n|nice to have|preferred|$)`),
	regexp.MustCompile(`(?i)(?:experience with|proficiency in|knowledge of)[:\s]*(.+?)(?:\n|$)`),
}

// techTermPatterns are scanned when no labeled section yields anything
var techTermPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(python|java|javascript|typescript|c\+\+|c#|ruby|php|go|rust|swift|kotlin)\b`),
	regexp.MustCompile(`(?i)\b(react|angular|vue|node\.js|django|flask|spring|express)\b`),
	regexp.MustCompile(`(?i)\b(aws|azure|gcp|docker|kubernetes|jenkins|git)\b`),
	regexp.MustCompile(`(?i)\b(sql|mysql|postgresql|mongodb|redis|elasticsearch)\b`),
	regexp.MustCompile(`(?i)\b(machine learning|deep learning|ai|nlp|data science)\b`),
}

var itemDelimiters = regexp.MustCompile(`[,;•\n]`)

// ExtractJobSkills pulls normalized skills out of a job description in first-seen order
func ExtractJobSkills(jobDescription string) []string {
	found := newSkillList()

	for _, p := range labeledSkillPatterns {
		for _, m := range p.FindAllStringSubmatch(jobDescription, -1) {
			for _, item := range itemDelimiters.Split(m[1], -1) {
				if s := Normalize(item); len(s) > 1 {
					found.add(s)
				}
			}
		}
	}

	if len(found.items) == 0 {
		for _, p := range techTermPatterns {
			for _, m := range p.FindAllStringSubmatch(jobDescription, -1) {
				found.add(Normalize(m[1]))
			}
		}
	}

	return found.items
}

// ResumeSkills normalizes and deduplicates the structured resume's skill list
func ResumeSkills(raw []string) []string {
	list := newSkillList()
	for _, s := range raw {
		list.add(Normalize(s))
	}
	return list.items
}

type skillList struct {
	items []string
	seen  map[string]struct{}
}

func newSkillList() *skillList {
	return &skillList{items: []string{}, seen: make(map[string]struct{})}
}

func (l *skillList) add(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	if _, ok := l.seen[s]; ok {
		return
	}
	l.seen[s] = struct{}{}
	l.items = append(l.items, s)
}

package structurer

import (
	"regexp"
	"strings"
	"unicode"

	"atscore/internal/types"
)

var (
	emailPattern    = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	linkedInPattern = regexp.MustCompile(`linkedin\.com/in/[\w-]+`)
	gitHubPattern   = regexp.MustCompile(`github\.com/[\w-]+`)
	locationPattern = regexp.MustCompile(`\b([A-Z][a-z]+(?:[ -][A-Z][a-z]+)*,\s*[A-Z]{2})\b`)

	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`),
		regexp.MustCompile(`\+?\d{10,}`),
		regexp.MustCompile(`\(\d{3}\)\s*\d{3}-\d{4}`),
	}

	nameSegmentSeparators = regexp.MustCompile(`[|•]`)
)

// extractContact reads the contact section, or the whole document when the
// section is absent. The first-line name guess applies to the section only.
func (s *Structurer) extractContact(section, fullText string) types.Contact {
	var c types.Contact
	search, fromSection := section, true
	if strings.TrimSpace(section) == "" {
		search, fromSection = fullText, false
	}

	c.Email = emailPattern.FindString(search)
	c.Phone = findPhone(search)

	lowered := strings.ToLower(search)
	c.LinkedIn = linkedInPattern.FindString(lowered)
	c.GitHub = gitHubPattern.FindString(lowered)

	if fromSection {
		c.Name = guessName(section)
	}

	if s.entities != nil {
		for _, ent := range s.entities.Entities(search) {
			switch ent.Label {
			case EntityPerson:
				if c.Name == "" {
					c.Name = strings.TrimSpace(ent.Text)
				}
			case EntityLocation, "LOC":
				if c.Location == "" {
					c.Location = strings.TrimSpace(ent.Text)
				}
			}
		}
	}

	if c.Location == "" && fromSection {
		if m := locationPattern.FindStringSubmatch(section); m != nil {
			c.Location = m[1]
		}
	}

	return c
}

func findPhone(text string) string {
	for _, p := range phonePatterns {
		if m := p.FindString(text); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

// guessName takes the first segment of the first line when it reads like a
// person's name: at most four words, capitalized, no digits and no '@'.
func guessName(section string) string {
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		candidate := strings.TrimSpace(nameSegmentSeparators.Split(line, 2)[0])
		if candidate == "" || wordCount(candidate) > 4 {
			return ""
		}
		if strings.ContainsAny(candidate, "@/") || strings.IndexFunc(candidate, unicode.IsDigit) >= 0 {
			return ""
		}
		for _, r := range candidate {
			if !unicode.IsUpper(r) {
				return ""
			}
			break
		}
		return candidate
	}
	return ""
}

package validator

import "strings"

// actionVerbs are the strong openers recognized for bullet points
var actionVerbs = toSet(
	// leadership
	"led", "managed", "directed", "supervised", "coordinated", "oversaw",
	"guided", "mentored", "coached", "trained", "facilitated",
	// achievement
	"achieved", "accomplished", "delivered", "exceeded", "surpassed",
	"attained", "earned", "won", "gained",
	// creation
	"created", "developed", "built", "designed", "established",
	"launched", "founded", "initiated", "introduced", "pioneered",
	// improvement
	"improved", "enhanced", "optimized", "streamlined", "refined",
	"upgraded", "modernized", "revamped", "transformed", "increased",
	// analysis
	"analyzed", "evaluated", "assessed", "investigated", "researched",
	"examined", "measured", "tested", "reviewed",
	// implementation
	"implemented", "executed", "deployed", "integrated", "migrated",
	"installed", "configured", "automated",
	// collaboration
	"collaborated", "partnered", "worked", "contributed", "supported",
	"assisted", "helped", "participated",
	// communication
	"presented", "communicated", "documented", "reported", "wrote",
	"published", "spoke", "lectured",
	// other
	"solved", "reduced", "saved", "generated", "produced", "maintained",
	"organized", "planned", "scheduled", "performed", "conducted",
)

// weakPhrases mark passive, duty-oriented bullets
var weakPhrases = []string{
	"responsible for", "duties included", "worked on", "helped with",
	"tasked with", "involved in", "participated in", "assisted in",
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// FirstWord returns the lowercased first word of text without trailing punctuation
func FirstWord(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(strings.TrimRight(fields[0], ".,;:!?"))
}

// IsActionVerb reports whether word is a recognized strong action verb
func IsActionVerb(word string) bool {
	_, ok := actionVerbs[word]
	return ok
}

// ContainsWeakPhrase reports whether text uses a weak, passive phrase
func ContainsWeakPhrase(text string) bool {
	lowered := strings.ToLower(text)
	for _, p := range weakPhrases {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}

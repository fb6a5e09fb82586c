package supply

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"daily-trivia-service/internal/domain"
)

const (
	maxQuestionLen = 250
	maxOptionLen   = 100
	minOptions     = 2
	maxOptions     = 4
)

// denylist marks off-domain or overly technical topics that occasionally
// leak out of general-knowledge providers.
var denylist = []string{
	"sql", "javascript", "python", "programming", "algorithm", "compiler",
	"operating system", "microsoft", "linux", "http", "ip address",
	"molecule", "chemical formula", "quadratic", "derivative", "theorem",
	"periodic table", "stock market", "cryptocurrency",
}

// domainKeywords is the relevance heuristic's first gate: any direct hit
// accepts the candidate.
var domainKeywords = []string{
	"anime", "manga", "mangaka", "shonen", "shoujo", "seinen", "otaku",
	"studio ghibli", "sensei", "dojutsu", "jutsu", "quirk", "shinigami",
	"devil fruit", "titan shifter", "hokage", "saiyan", "nen ability",
}

// knownTitles is the second gate: a known series title anywhere in the
// question or options accepts the candidate.
var knownTitles = []string{
	"one piece", "naruto", "bleach", "dragon ball", "attack on titan",
	"fullmetal alchemist", "death note", "my hero academia", "demon slayer",
	"jujutsu kaisen", "hunter x hunter", "jojo", "cowboy bebop",
	"neon genesis evangelion", "spirited away", "princess mononoke",
	"sailor moon", "pokemon", "one punch man", "chainsaw man", "haikyuu",
	"code geass", "fairy tail", "black clover", "mob psycho",
}

// domainTerms is the weakest gate: at least two distinct recognized terms
// must co-occur in the question or its options.
var domainTerms = []string{
	"episode", "protagonist", "villain", "crew", "guild", "captain",
	"sword", "tournament", "transformation", "power", "pirate", "ninja",
	"demon", "spirit", "hero", "academy", "clan", "village", "emperor",
	"dojo", "samurai", "mecha", "idol", "magical girl",
}

// inline option markers like "A) ..." or "(2)" embedded in the question
// text mean the provider leaked its own enumeration into the prompt.
var enumerationArtifact = regexp.MustCompile(`(?i)(^|\s)\(?([a-d]|[1-4])\)\s`)

var numeralRun = regexp.MustCompile(`\d+`)

// Validator filters and normalizes raw candidates. It is a heuristic
// filter: false positives and negatives are expected and acceptable.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Accept reports whether the candidate is structurally sound, on-domain,
// and not in the avoid-set. avoid holds normalized question texts.
func (v *Validator) Accept(q domain.Question, avoid map[string]struct{}) bool {
	text := strings.TrimSpace(q.Text)
	if text == "" || strings.TrimSpace(q.Answer) == "" {
		return false
	}
	if len(q.Options) < minOptions || len(q.Options) > maxOptions {
		return false
	}
	// Length caps count runes: providers routinely carry Japanese titles
	// and names, which would trip a byte cap three times too early.
	if utf8.RuneCountInString(text) > maxQuestionLen {
		return false
	}
	answerPresent := false
	for _, opt := range q.Options {
		if strings.TrimSpace(opt) == "" || utf8.RuneCountInString(opt) > maxOptionLen {
			return false
		}
		if opt == q.Answer {
			answerPresent = true
		}
	}
	if !answerPresent {
		return false
	}

	if _, seen := avoid[domain.NormalizeQuestion(text)]; seen {
		return false
	}

	haystack := strings.ToLower(text + " " + strings.Join(q.Options, " "))
	for _, banned := range denylist {
		if strings.Contains(haystack, banned) {
			return false
		}
	}
	if enumerationArtifact.MatchString(text) {
		return false
	}
	if len(numeralRun.FindAllString(text, -1)) > 3 {
		return false
	}

	return relevant(haystack)
}

func relevant(haystack string) bool {
	for _, kw := range domainKeywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	for _, title := range knownTitles {
		if strings.Contains(haystack, title) {
			return true
		}
	}
	hits := 0
	for _, term := range domainTerms {
		if strings.Contains(haystack, term) {
			hits++
			if hits >= 2 {
				return true
			}
		}
	}
	return false
}

package knowledge

import (
	"regexp"
	"strings"
)

// phraseBonus is added when the whole query appears verbatim in the content.
const phraseBonus = 10

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {},
	"will": {}, "would": {}, "could": {}, "should": {}, "may": {},
	"might": {}, "can": {}, "this": {}, "that": {}, "these": {}, "those": {},
}

var wordPattern = regexp.MustCompile(`\b\w+\b`)

// Score ranks content against a query by the number of distinct lowercase
// words they share, plus a phrase bonus for a verbatim query match.
// Duplicates collapse: this is set intersection, not occurrence counting.
func Score(content, query string) int {
	contentLower := strings.ToLower(content)
	queryLower := strings.ToLower(query)

	contentWords := wordSet(contentLower)
	score := 0
	for word := range wordSet(queryLower) {
		if _, ok := contentWords[word]; ok {
			score++
		}
	}
	if strings.Contains(contentLower, queryLower) {
		score += phraseBonus
	}
	return score
}

// LegacyScore ranks un-chunked documents the way the pre-chunking search
// did: whole-word keyword occurrences count double, every query word longer
// than three characters found anywhere adds one, and a verbatim query match
// adds the phrase bonus. Kept alongside Score because flat documents and
// chunked documents can coexist for the same bot.
func LegacyScore(content string, keywords []string, query string) int {
	if content == "" {
		return 0
	}
	contentLower := strings.ToLower(content)
	queryLower := strings.ToLower(query)

	score := 0
	if strings.Contains(contentLower, queryLower) {
		score += phraseBonus
	}
	for _, keyword := range keywords {
		pattern, err := regexp.Compile(`\b` + regexp.QuoteMeta(strings.ToLower(keyword)) + `\b`)
		if err != nil {
			continue
		}
		score += len(pattern.FindAllStringIndex(contentLower, -1)) * 2
	}
	for _, word := range strings.Fields(queryLower) {
		if len(word) > 3 && strings.Contains(contentLower, word) {
			score++
		}
	}
	return score
}

// ExtractKeywords pulls meaningful lowercase words out of text, skipping
// stop words and anything shorter than three characters.
func ExtractKeywords(text string) []string {
	var keywords []string
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len(word) <= 2 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		keywords = append(keywords, word)
	}
	return keywords
}

func wordSet(text string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, word := range strings.Fields(text) {
		words[word] = struct{}{}
	}
	return words
}

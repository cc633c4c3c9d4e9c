package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreCountsDistinctSharedWords(t *testing.T) {
	score := Score("soundbar mounting costs forty dollars", "how much is soundbar mounting")
	assert.Equal(t, 2, score)
}

func TestScoreCollapsesDuplicates(t *testing.T) {
	// "mounting" appearing three times still counts once.
	single := Score("mounting services", "mounting")
	repeated := Score("mounting mounting mounting services", "mounting")
	assert.Equal(t, single, repeated)
}

func TestScoreCollapsesDuplicateQueryWords(t *testing.T) {
	// Query words form a set too: repeating a word in the query must not
	// inflate the intersection.
	content := "mounting is cheap"
	assert.Equal(t, Score(content, "is mounting"), Score(content, "is is mounting"))
	assert.Equal(t, 2, Score(content, "is is mounting"))
}

func TestScoreExactPhraseBonus(t *testing.T) {
	withPhrase := Score("our soundbar mounting price list", "soundbar mounting")
	withoutPhrase := Score("mounting a soundbar", "soundbar mounting")
	assert.Equal(t, withoutPhrase+10, withPhrase)
}

func TestScoreCaseInsensitive(t *testing.T) {
	assert.Equal(t,
		Score("Soundbar Mounting is $40", "SOUNDBAR mounting"),
		Score("soundbar mounting is $40", "soundbar mounting"))
}

func TestScoreZeroForUnrelatedContent(t *testing.T) {
	assert.Equal(t, 0, Score("completely unrelated text here", "soundbar mounting price"))
}

func TestScoreMonotonicity(t *testing.T) {
	query := "soundbar mounting price"
	// A shares every query word and contains the exact phrase; B shares a
	// strict subset of A's matches.
	a := Score("full soundbar mounting price details", query)
	b := Score("mounting details", query)
	assert.Greater(t, a, b)
}

func TestScoreRanksPricingScenario(t *testing.T) {
	query := "how much is soundbar mounting"
	chunks := []string{
		"Standard TV mounting is $99.",
		"ng is $99. Large TV mounting is $149.",
		"g is $149. Soundbar mounting is $40.",
	}

	best, bestScore := -1, -1
	for i, chunk := range chunks {
		if s := Score(chunk, query); s > bestScore {
			best, bestScore = i, s
		}
	}
	assert.Equal(t, 2, best, "the chunk containing $40 should rank first")
}

func TestLegacyScoreKeywordOccurrencesCountDouble(t *testing.T) {
	content := "mounting here and mounting there"
	score := LegacyScore(content, []string{"mounting"}, "wall mounting")
	// 2 whole-word occurrences x2, plus +1 for "mounting" (>3 chars) found
	// anywhere in the content.
	assert.Equal(t, 5, score)
}

func TestLegacyScoreWholeWordMatchingOnly(t *testing.T) {
	// "mount" must not match inside "mounting".
	assert.Equal(t, 0, LegacyScore("mounting", []string{"mount"}, "abc"))
}

func TestLegacyScorePhraseBonus(t *testing.T) {
	score := LegacyScore("soundbar mounting is $40", nil, "soundbar mounting")
	// +10 phrase, +1 each for "soundbar" and "mounting" (>3 chars).
	assert.Equal(t, 12, score)
}

func TestLegacyScoreEmptyContent(t *testing.T) {
	assert.Equal(t, 0, LegacyScore("", []string{"anything"}, "anything"))
}

func TestExtractKeywordsSkipsStopWordsAndShortWords(t *testing.T) {
	keywords := ExtractKeywords("What is the price of TV mounting?")
	assert.Equal(t, []string{"what", "price", "mounting"}, keywords)
}

package classify

import (
	"strings"

	"devgptstats/internal/domain"
)

// Keyword pairs a category with the phrase that triggers it.
type Keyword struct {
	Category domain.Category
	Phrase   string
}

// Keywords is the scan order. Ties go to the earlier entry, so the order is
// part of the contract.
var Keywords = []Keyword{
	{Category: domain.CategoryCode, Phrase: "code"},
	{Category: domain.CategoryBug, Phrase: "bug"},
	{Category: domain.CategoryError, Phrase: "error"},
	{Category: domain.CategoryFeature, Phrase: "feature"},
	{Category: domain.CategoryWhatIs, Phrase: "what is"},
}

// Score is the hit count for one keyword: one for the prompt, one for the answer.
type Score struct {
	Category domain.Category
	Phrase   string
	Count    int
}

// Scores counts keyword hits for a conversation in Keywords order.
func Scores(conv domain.Conversation) []Score {
	prompt := strings.ToLower(conv.Prompt)
	answer := strings.ToLower(conv.Answer)
	out := make([]Score, len(Keywords))
	for i, kw := range Keywords {
		count := 0
		if strings.Contains(prompt, kw.Phrase) {
			count++
		}
		if strings.Contains(answer, kw.Phrase) {
			count++
		}
		out[i] = Score{Category: kw.Category, Phrase: kw.Phrase, Count: count}
	}
	return out
}

// Classify returns the dominant category of a conversation. ok is false when
// no keyword matched.
func Classify(conv domain.Conversation) (domain.Category, bool) {
	return Dominant(Scores(conv))
}

// Dominant picks the first score holding the maximum count.
func Dominant(scores []Score) (domain.Category, bool) {
	best := -1
	for i, s := range scores {
		if s.Count == 0 {
			continue
		}
		if best < 0 || s.Count > scores[best].Count {
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	return scores[best].Category, true
}

package aggregate

import (
	"devgptstats/internal/classify"
	"devgptstats/internal/corpus"
	"devgptstats/internal/domain"
)

// Result is everything computed for one cleaned snapshot.
type Result struct {
	Resolution    domain.Aggregate           `json:"resolution" yaml:"resolution"`
	Categories    []domain.CategoryAggregate `json:"categories" yaml:"categories"`
	Totals        domain.CategoryTotals      `json:"totals" yaml:"totals"`
	Conversations int                        `json:"conversations" yaml:"conversations"`
	Unclassified  int                        `json:"unclassified" yaml:"unclassified"`
}

// Resolution counts resolved and unresolved records.
func Resolution(records []domain.Record) domain.Aggregate {
	var agg domain.Aggregate
	for _, rec := range records {
		agg.Add(rec.Resolved())
	}
	return agg
}

// Categories classifies every conversation of every record and counts it
// under the owning record's resolution state. Categories appear in the order
// they were first seen.
func Categories(records []domain.Record) []domain.CategoryAggregate {
	return newCategoryTally(0).scan(records).ordered()
}

// Totals sums per-category counts.
func Totals(categories []domain.CategoryAggregate) domain.CategoryTotals {
	var t domain.CategoryTotals
	for _, c := range categories {
		t.Resolved += c.Aggregate.Resolved
		t.Unresolved += c.Aggregate.Unresolved
	}
	return t
}

// Build computes the full result. samplePromptChars bounds the sample prompt
// kept per category; 0 keeps no samples.
func Build(records []domain.Record, samplePromptChars int) Result {
	tally := newCategoryTally(samplePromptChars).scan(records)
	categories := tally.ordered()
	return Result{
		Resolution:    Resolution(records),
		Categories:    categories,
		Totals:        Totals(categories),
		Conversations: tally.conversations,
		Unclassified:  tally.unclassified,
	}
}

type categoryTally struct {
	index         map[domain.Category]int
	items         []domain.CategoryAggregate
	sampleChars   int
	conversations int
	unclassified  int
}

func newCategoryTally(sampleChars int) *categoryTally {
	return &categoryTally{
		index:       make(map[domain.Category]int),
		sampleChars: sampleChars,
	}
}

func (t *categoryTally) scan(records []domain.Record) *categoryTally {
	for _, rec := range records {
		resolved := rec.Resolved()
		for _, sharing := range rec.Sharings() {
			for _, conv := range sharing.Conversations {
				t.observe(conv, resolved)
			}
		}
	}
	return t
}

func (t *categoryTally) observe(conv domain.Conversation, resolved bool) {
	t.conversations++
	category, ok := classify.Classify(conv)
	if !ok {
		t.unclassified++
		return
	}
	idx, seen := t.index[category]
	if !seen {
		idx = len(t.items)
		t.index[category] = idx
		entry := domain.CategoryAggregate{Category: category}
		if t.sampleChars > 0 {
			entry.SamplePrompt = corpus.Excerpt(conv.Prompt, t.sampleChars)
		}
		t.items = append(t.items, entry)
	}
	t.items[idx].Aggregate.Add(resolved)
}

func (t *categoryTally) ordered() []domain.CategoryAggregate {
	out := make([]domain.CategoryAggregate, len(t.items))
	copy(out, t.items)
	return out
}

package domain

import "time"

// Category is a keyword bucket a conversation can be classified into.
type Category string

const (
	CategoryCode    Category = "code"
	CategoryBug     Category = "bug"
	CategoryError   Category = "error"
	CategoryFeature Category = "feature"
	CategoryWhatIs  Category = "what-is"
)

// Aggregate counts resolved and unresolved items.
type Aggregate struct {
	Total      int `json:"total" yaml:"total"`
	Resolved   int `json:"resolved" yaml:"resolved"`
	Unresolved int `json:"unresolved" yaml:"unresolved"`
}

// Add counts one more item.
func (a *Aggregate) Add(resolved bool) {
	a.Total++
	if resolved {
		a.Resolved++
	} else {
		a.Unresolved++
	}
}

// Percent returns Resolved/Total*100, or 0 for an empty aggregate.
func (a Aggregate) Percent() float64 {
	if a.Total <= 0 {
		return 0
	}
	return 100.0 * float64(a.Resolved) / float64(a.Total)
}

type CategoryAggregate struct {
	Category  Category  `json:"category" yaml:"category"`
	Aggregate Aggregate `json:"aggregate" yaml:"aggregate"`
	// SamplePrompt is the normalized prompt of the first conversation seen
	// in this category.
	SamplePrompt string `json:"sample_prompt,omitempty" yaml:"sample_prompt,omitempty"`
}

// CategoryTotals sums resolved/unresolved across all categories.
type CategoryTotals struct {
	Resolved   int `json:"resolved" yaml:"resolved"`
	Unresolved int `json:"unresolved" yaml:"unresolved"`
}

func (t CategoryTotals) Percent() float64 {
	denom := t.Resolved + t.Unresolved
	if denom <= 0 {
		return 0
	}
	return 100.0 * float64(t.Resolved) / float64(denom)
}

// RunRecord is one stored analysis run.
type RunRecord struct {
	ID          string
	ReportName  string
	Sources     []SourceStats
	ReportPath  string
	LLMProvider string
	LLMModel    string
	CreatedAt   time.Time
}

// SourceStats is the stored summary for one snapshot within a run.
type SourceStats struct {
	Source        Kind
	InputPath     string
	Loaded        int
	Dropped       int
	Resolution    Aggregate
	Categories    []CategoryAggregate
	Totals        CategoryTotals
	Unclassified  int
	Conversations int
}

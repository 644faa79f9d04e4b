package report

import (
	"fmt"
	"strings"
	"time"

	"devgptstats/internal/aggregate"
	"devgptstats/internal/domain"
)

// Report is one analysis run ready to be rendered.
type Report struct {
	Name        string    `json:"name" yaml:"name"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	From        time.Time `json:"from,omitempty" yaml:"from,omitempty"`
	To          time.Time `json:"to,omitempty" yaml:"to,omitempty"`
	Sections    []Section `json:"sections" yaml:"sections"`
	Narrative   string    `json:"narrative,omitempty" yaml:"narrative,omitempty"`
}

// Section holds the numbers for one snapshot.
type Section struct {
	Source    domain.Kind      `json:"source" yaml:"source"`
	InputPath string           `json:"input_path" yaml:"input_path"`
	Loaded    int              `json:"loaded" yaml:"loaded"`
	Dropped   int              `json:"dropped" yaml:"dropped"`
	Result    aggregate.Result `json:"result" yaml:"result"`
}

// Label is the plural heading for a section.
func (s Section) Label() string {
	switch s.Source {
	case domain.KindIssue:
		return "Issues"
	case domain.KindPullRequest:
		return "Pull Requests"
	case domain.KindDiscussion:
		return "Discussions"
	default:
		return string(s.Source)
	}
}

// SummaryLine is a one-line digest used for chat messages and logs.
func SummaryLine(r *Report) string {
	var parts []string
	for _, s := range r.Sections {
		res := s.Result.Resolution
		parts = append(parts, fmt.Sprintf("%s %.2f%% resolved (%d/%d)", s.Label(), res.Percent(), res.Resolved, res.Total))
	}
	return strings.Join(parts, ", ")
}

const barWidth = 20

// Bar draws a fixed-width text bar for a percentage.
func Bar(percent float64) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent/100*barWidth + 0.5)
	return strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled)
}

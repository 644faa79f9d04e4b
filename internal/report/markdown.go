package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func RenderMarkdown(r *Report) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("### %s %s\n\n", r.Name, r.GeneratedAt.Format("20060102")))
	if !r.From.IsZero() && !r.To.IsZero() {
		sb.WriteString(fmt.Sprintf("Records created %s - %s\n\n", r.From.Format("2006-01-02"), r.To.Format("2006-01-02")))
	}
	if strings.TrimSpace(r.Narrative) != "" {
		sb.WriteString("#### Summary\n\n")
		sb.WriteString(strings.TrimSpace(r.Narrative))
		sb.WriteString("\n\n")
	}

	for _, s := range r.Sections {
		res := s.Result.Resolution
		sb.WriteString(fmt.Sprintf("#### %s\n\n", s.Label()))
		sb.WriteString(fmt.Sprintf("- Total: %d\n", res.Total))
		sb.WriteString(fmt.Sprintf("- Resolved: %d\n", res.Resolved))
		sb.WriteString(fmt.Sprintf("- Unresolved: %d\n", res.Unresolved))
		sb.WriteString(fmt.Sprintf("- Success: %.2f%% `%s`\n", res.Percent(), Bar(res.Percent())))
		if s.Dropped > 0 {
			sb.WriteString(fmt.Sprintf("- Dropped (unfetchable): %d\n", s.Dropped))
		}
		sb.WriteString("\n")

		if len(s.Result.Categories) == 0 {
			sb.WriteString("No classified conversations.\n\n")
			continue
		}
		sb.WriteString("| Category | Total | Resolved | Unresolved | Accuracy |\n")
		sb.WriteString("|---|---:|---:|---:|---:|\n")
		for _, c := range s.Result.Categories {
			a := c.Aggregate
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %.2f%% |\n", c.Category, a.Total, a.Resolved, a.Unresolved, a.Percent()))
		}
		totals := s.Result.Totals
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("- Conversations: %d (unclassified: %d)\n", s.Result.Conversations, s.Result.Unclassified))
		sb.WriteString(fmt.Sprintf("- All categories: %d resolved, %d unresolved, accuracy %.2f%%\n", totals.Resolved, totals.Unresolved, totals.Percent()))

		var samples []string
		for _, c := range s.Result.Categories {
			if c.SamplePrompt != "" {
				samples = append(samples, fmt.Sprintf("  - **%s** - %s", c.Category, c.SamplePrompt))
			}
		}
		if len(samples) > 0 {
			sb.WriteString("- Sample prompts\n")
			sb.WriteString(strings.Join(samples, "\n"))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func WriteReportFile(content, outputDir string, reportDate time.Time, reportName string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	filename := fmt.Sprintf("%s_%s.md", sanitizeFilename(reportName), reportDate.Format("20060102"))
	path := filepath.Join(outputDir, filename)
	return path, os.WriteFile(path, []byte(content), 0644)
}

func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_", " ", "_")
	return replacer.Replace(s)
}

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Formats accepted by Write.
const (
	FormatTable    = "table"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
)

// Write renders r to w in the given format.
func Write(w io.Writer, r *Report, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(r)
	case FormatMarkdown:
		_, err := io.WriteString(w, RenderMarkdown(r))
		return err
	case FormatTable, "":
		return RenderTable(w, r)
	default:
		return fmt.Errorf("unknown output format %q (want table, markdown, json or yaml)", format)
	}
}

// RenderTable prints a plain-text summary: one resolution block and one
// category table per section.
func RenderTable(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s (%s)\n", r.Name, r.GeneratedAt.Format("2006-01-02 15:04"))
	for _, s := range r.Sections {
		res := s.Result.Resolution
		fmt.Fprintf(tw, "\n%s:\n", s.Label())
		fmt.Fprintf(tw, "Total %s\t%d\n", s.Label(), res.Total)
		fmt.Fprintf(tw, "Resolved %s\t%d\n", s.Label(), res.Resolved)
		fmt.Fprintf(tw, "Unresolved %s\t%d\n", s.Label(), res.Unresolved)
		fmt.Fprintf(tw, "Success Percentage (%s)\t%.2f%%\t%s\n", s.Label(), res.Percent(), Bar(res.Percent()))
		if len(s.Result.Categories) == 0 {
			continue
		}
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "CATEGORY\tTOTAL\tRESOLVED\tUNRESOLVED\tACCURACY")
		for _, c := range s.Result.Categories {
			a := c.Aggregate
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.2f%%\n", c.Category, a.Total, a.Resolved, a.Unresolved, a.Percent())
		}
		t := s.Result.Totals
		fmt.Fprintf(tw, "all\t%d\t%d\t%d\t%.2f%%\n", t.Resolved+t.Unresolved, t.Resolved, t.Unresolved, t.Percent())
	}
	if r.Narrative != "" {
		fmt.Fprintf(tw, "\n%s\n", r.Narrative)
	}
	return tw.Flush()
}

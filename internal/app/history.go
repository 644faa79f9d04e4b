package app

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"devgptstats/internal/domain"
	"devgptstats/internal/report"
	"devgptstats/internal/storage/sqlite"
)

type historyOptions struct {
	limit int
	runID string
}

func newHistoryCmd(root *rootOptions) *cobra.Command {
	opts := &historyOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored analysis runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd, root)
			db, err := sqlite.InitDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("opening history %s: %w", cfg.DBPath, err)
			}
			defer db.Close()

			var runs []domain.RunRecord
			if opts.runID != "" {
				run, err := sqlite.GetRun(db, opts.runID)
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("no run with id %s", opts.runID)
				}
				if err != nil {
					return err
				}
				runs = []domain.RunRecord{run}
			} else {
				runs, err = sqlite.GetRecentRuns(db, opts.limit)
				if err != nil {
					return err
				}
			}
			return writeHistory(cmd.OutOrStdout(), runs, root.output, opts.runID != "", time.Now())
		},
	}
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Number of runs to list")
	cmd.Flags().StringVar(&opts.runID, "run", "", "Show the per-category detail of one run")
	return cmd
}

type historySource struct {
	Source        domain.Kind                `json:"source" yaml:"source"`
	InputPath     string                     `json:"input_path" yaml:"input_path"`
	Loaded        int                        `json:"loaded" yaml:"loaded"`
	Dropped       int                        `json:"dropped" yaml:"dropped"`
	Resolution    domain.Aggregate           `json:"resolution" yaml:"resolution"`
	Categories    []domain.CategoryAggregate `json:"categories" yaml:"categories"`
	Totals        domain.CategoryTotals      `json:"totals" yaml:"totals"`
	Conversations int                        `json:"conversations" yaml:"conversations"`
	Unclassified  int                        `json:"unclassified" yaml:"unclassified"`
}

type historyRun struct {
	ID          string          `json:"id" yaml:"id"`
	ReportName  string          `json:"report_name" yaml:"report_name"`
	ReportPath  string          `json:"report_path,omitempty" yaml:"report_path,omitempty"`
	LLMProvider string          `json:"llm_provider,omitempty" yaml:"llm_provider,omitempty"`
	LLMModel    string          `json:"llm_model,omitempty" yaml:"llm_model,omitempty"`
	CreatedAt   time.Time       `json:"created_at" yaml:"created_at"`
	Sources     []historySource `json:"sources" yaml:"sources"`
}

func toHistoryRuns(runs []domain.RunRecord) []historyRun {
	out := make([]historyRun, 0, len(runs))
	for _, r := range runs {
		hr := historyRun{
			ID:          r.ID,
			ReportName:  r.ReportName,
			ReportPath:  r.ReportPath,
			LLMProvider: r.LLMProvider,
			LLMModel:    r.LLMModel,
			CreatedAt:   r.CreatedAt,
		}
		for _, s := range r.Sources {
			hr.Sources = append(hr.Sources, historySource{
				Source:        s.Source,
				InputPath:     s.InputPath,
				Loaded:        s.Loaded,
				Dropped:       s.Dropped,
				Resolution:    s.Resolution,
				Categories:    s.Categories,
				Totals:        s.Totals,
				Conversations: s.Conversations,
				Unclassified:  s.Unclassified,
			})
		}
		out = append(out, hr)
	}
	return out
}

func writeHistory(w io.Writer, runs []domain.RunRecord, format string, detail bool, now time.Time) error {
	switch format {
	case report.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(toHistoryRuns(runs))
	case report.FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(toHistoryRuns(runs))
	case report.FormatTable, "":
	default:
		return fmt.Errorf("unsupported output format %q for this command (want table, json or yaml)", format)
	}

	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded yet.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tNAME\tCONVERSATIONS\tRESOLUTION")
	for _, r := range runs {
		conversations := 0
		var parts []string
		for _, s := range r.Sources {
			conversations += s.Conversations
			parts = append(parts, fmt.Sprintf("%s %.2f%%", sourceLabel(s.Source), s.Resolution.Percent()))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			shortID(r.ID),
			humanize.RelTime(r.CreatedAt, now, "ago", "from now"),
			r.ReportName,
			humanize.Comma(int64(conversations)),
			strings.Join(parts, ", "),
		)
	}
	if !detail {
		return tw.Flush()
	}

	for _, r := range runs {
		for _, s := range r.Sources {
			fmt.Fprintf(tw, "\n%s (%s loaded, %s dropped)\n", sourceLabel(s.Source), humanize.Comma(int64(s.Loaded)), humanize.Comma(int64(s.Dropped)))
			if len(s.Categories) == 0 {
				fmt.Fprintln(tw, "No classified conversations.")
				continue
			}
			fmt.Fprintln(tw, "CATEGORY\tTOTAL\tRESOLVED\tUNRESOLVED\tACCURACY")
			for _, c := range s.Categories {
				a := c.Aggregate
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.2f%%\n", c.Category, a.Total, a.Resolved, a.Unresolved, a.Percent())
			}
		}
	}
	return tw.Flush()
}

func sourceLabel(k domain.Kind) string {
	return report.Section{Source: k}.Label()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

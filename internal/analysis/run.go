package analysis

import (
	"fmt"
	"log"
	"time"

	"devgptstats/internal/aggregate"
	"devgptstats/internal/config"
	"devgptstats/internal/corpus"
	"devgptstats/internal/domain"
	"devgptstats/internal/integrations/llm"
	slackx "devgptstats/internal/integrations/slack"
	"devgptstats/internal/report"
	"devgptstats/internal/storage/sqlite"
)

type Options struct {
	NoHistory bool
	NoFile    bool
}

// Outcome is what a run produced besides the report itself.
type Outcome struct {
	Report     *report.Report
	ReportPath string
	RunID      string
	Usage      llm.LLMUsage
}

// Source is one snapshot file to analyse.
type Source struct {
	Kind domain.Kind
	Path string
}

var (
	nowFn        = time.Now
	summarizeFn  = llm.Summarize
	postReportFn = func(cfg config.Config, path string, r *report.Report, tokens int64) error {
		return slackx.PostReport(slackx.NewClient(cfg.SlackBotToken), cfg.ReportChannelID, path, r, tokens)
	}
)

// Sources lists the configured snapshots in report order.
func Sources(cfg config.Config) []Source {
	sources := []Source{{Kind: domain.KindIssue, Path: cfg.IssuesPath}}
	if cfg.PullRequestsConfigured() {
		sources = append(sources, Source{Kind: domain.KindPullRequest, Path: cfg.PullRequestsPath})
	}
	return append(sources, Source{Kind: domain.KindDiscussion, Path: cfg.DiscussionsPath})
}

// Analyze loads, cleans and aggregates every configured source. Any load or
// clean failure aborts before a report exists.
func Analyze(cfg config.Config) (*report.Report, error) {
	now := nowFn()
	if cfg.Location != nil {
		now = now.In(cfg.Location)
	}
	r := &report.Report{Name: cfg.ReportName, GeneratedAt: now}

	var all []domain.Record
	for _, src := range Sources(cfg) {
		records, err := corpus.Load(src.Path, src.Kind, cfg.ResolvedStates)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", src.Kind, err)
		}
		cleaned, err := corpus.Clean(records)
		if err != nil {
			return nil, fmt.Errorf("cleaning %s: %w", src.Kind, err)
		}
		result := aggregate.Build(cleaned, cfg.SamplePromptMaxChars)
		log.Printf("analysis source=%s loaded=%d kept=%d resolved=%d categories=%d unclassified=%d",
			src.Kind, len(records), len(cleaned), result.Resolution.Resolved, len(result.Categories), result.Unclassified)

		r.Sections = append(r.Sections, report.Section{
			Source:    src.Kind,
			InputPath: src.Path,
			Loaded:    len(records),
			Dropped:   len(records) - len(cleaned),
			Result:    result,
		})
		all = append(all, cleaned...)
	}
	r.From, r.To = corpus.DateSpan(all)
	return r, nil
}

// Run is one full batch: analyse, then the optional side outputs. Narrative
// and Slack failures are logged and skipped; report file and history
// failures fail the run.
func Run(cfg config.Config, opts Options) (*Outcome, error) {
	r, err := Analyze(cfg)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Report: r}

	if cfg.LLMSummaryEnabled {
		text, usage, err := summarizeFn(cfg, r)
		if err != nil {
			log.Printf("analysis narrative skipped provider=%s err=%v", cfg.LLMProvider, err)
		} else {
			r.Narrative = text
			out.Usage = usage
		}
	}

	if !opts.NoFile {
		path, err := report.WriteReportFile(report.RenderMarkdown(r), cfg.ReportOutputDir, r.GeneratedAt, r.Name)
		if err != nil {
			return nil, fmt.Errorf("writing report file: %w", err)
		}
		out.ReportPath = path
		log.Printf("analysis report written path=%s", path)
	}

	if !opts.NoHistory {
		id, err := storeRun(cfg, out)
		if err != nil {
			return nil, fmt.Errorf("storing run history: %w", err)
		}
		out.RunID = id
		log.Printf("analysis run stored id=%s db=%s", id, cfg.DBPath)
	}

	if cfg.SlackConfigured() {
		if err := postReportFn(cfg, out.ReportPath, r, out.Usage.TotalTokens()); err != nil {
			log.Printf("analysis slack delivery failed channel=%s err=%v", cfg.ReportChannelID, err)
		}
	}

	log.Printf("analysis done %s", report.SummaryLine(r))
	return out, nil
}

func storeRun(cfg config.Config, out *Outcome) (string, error) {
	db, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		return "", err
	}
	defer db.Close()

	run := domain.RunRecord{
		ReportName: out.Report.Name,
		ReportPath: out.ReportPath,
		CreatedAt:  out.Report.GeneratedAt.UTC(),
	}
	if out.Report.Narrative != "" {
		run.LLMProvider = cfg.LLMProvider
		run.LLMModel = llm.ModelFor(cfg)
	}
	for _, s := range out.Report.Sections {
		run.Sources = append(run.Sources, domain.SourceStats{
			Source:        s.Source,
			InputPath:     s.InputPath,
			Loaded:        s.Loaded,
			Dropped:       s.Dropped,
			Resolution:    s.Result.Resolution,
			Categories:    s.Result.Categories,
			Totals:        s.Result.Totals,
			Unclassified:  s.Result.Unclassified,
			Conversations: s.Result.Conversations,
		})
	}
	return sqlite.InsertRun(db, run)
}

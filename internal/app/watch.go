package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"devgptstats/internal/analysis"
	"devgptstats/internal/config"
	"devgptstats/internal/report"
	"devgptstats/internal/watch"
)

var watchRunFn = watch.Run

func newWatchCmd(root *rootOptions) *cobra.Command {
	var opts analysis.Options
	var upcoming int
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the analysis on refresh_schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd, root)
			// A long-running process always logs.
			log.SetOutput(cmd.ErrOrStderr())

			if upcoming > 0 {
				return printUpcoming(cmd, cfg, upcoming)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watchRunFn(ctx, cfg, refreshJob(cfg, opts))
		},
	}
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "Do not store runs in the history database")
	cmd.Flags().BoolVar(&opts.NoFile, "no-file", false, "Do not write markdown report files")
	cmd.Flags().IntVar(&upcoming, "next", 0, "Print the next N scheduled runs and exit")
	return cmd
}

func refreshJob(cfg config.Config, opts analysis.Options) watch.Job {
	return func(ctx context.Context) error {
		out, err := runAnalysisFn(cfg, opts)
		if err != nil {
			return err
		}
		log.Printf("watch refresh %s", report.SummaryLine(out.Report))
		return nil
	}
}

func printUpcoming(cmd *cobra.Command, cfg config.Config, n int) error {
	sched, err := watch.ParseSchedule(cfg.RefreshSchedule)
	if err != nil {
		return err
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	for _, t := range watch.NextRuns(sched, time.Now().In(loc), n) {
		fmt.Fprintln(cmd.OutOrStdout(), t.Format("Mon 2006-01-02 15:04 MST"))
	}
	return nil
}

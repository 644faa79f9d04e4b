package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"devgptstats/internal/analysis"
	"devgptstats/internal/report"
)

var runAnalysisFn = analysis.Run

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	var opts analysis.Options
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Load, clean, classify and aggregate the snapshots once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd, root)
			out, err := runAnalysisFn(cfg, opts)
			if err != nil {
				return err
			}
			if err := report.Write(cmd.OutOrStdout(), out.Report, root.output); err != nil {
				return err
			}
			if out.ReportPath != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", out.ReportPath)
			}
			if out.RunID != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Run stored as %s\n", out.RunID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "Do not store the run in the history database")
	cmd.Flags().BoolVar(&opts.NoFile, "no-file", false, "Do not write the markdown report file")
	return cmd
}

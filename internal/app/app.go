package app

import (
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"devgptstats/internal/config"
	"devgptstats/internal/httpx"
)

type rootOptions struct {
	configPath string
	output     string
	verbose    bool
}

var loadConfigFn = config.LoadConfig

func Main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the devgptstats command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "devgptstats",
		Short: "Resolution and conversation-type statistics for DevGPT snapshots",
		Long: `devgptstats reads DevGPT issue, pull request and discussion snapshots,
drops records whose shared conversations could not be fetched, and reports how many
were resolved along with a keyword classification of the ChatGPT conversations.

Commands:
  analyze   Run the analysis once and print the report
  history   List stored runs
  watch     Re-run the analysis on refresh_schedule
  classify  Show how a single prompt/answer pair is classified`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			syncConfigFlagToEnv(opts.configPath)
			configureLogging(opts.verbose, cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default: config.yaml or $CONFIG_PATH)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "Output format (table, markdown, json, yaml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log progress to stderr")

	root.AddCommand(
		newAnalyzeCmd(opts),
		newHistoryCmd(opts),
		newWatchCmd(opts),
		newClassifyCmd(opts),
	)
	return root
}

func syncConfigFlagToEnv(path string) {
	path = strings.TrimSpace(path)
	if path == "" {
		return
	}
	_ = os.Setenv("CONFIG_PATH", path)
}

func configureLogging(verbose bool, stderr io.Writer) {
	if verbose {
		log.SetOutput(stderr)
		return
	}
	log.SetOutput(io.Discard)
}

// loadConfig keeps the log on stderr while the config loads so that its
// log.Fatalf validation errors are visible, then applies --verbose.
func loadConfig(cmd *cobra.Command, root *rootOptions) config.Config {
	log.SetOutput(cmd.ErrOrStderr())
	cfg := loadConfigFn()
	configureLogging(root.verbose, cmd.ErrOrStderr())
	timeout := httpx.ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)
	log.Printf(
		"Config loaded. Issues=%s Discussions=%s PullRequests=%s ResolvedStates=%s DB=%s LLMSummary=%t Slack=%t Timezone=%s ExternalHTTPTimeout=%s",
		cfg.IssuesPath,
		cfg.DiscussionsPath,
		cfg.PullRequestsPath,
		strings.Join(cfg.ResolvedStates, ","),
		cfg.DBPath,
		cfg.LLMSummaryEnabled,
		cfg.SlackConfigured(),
		cfg.Timezone,
		timeout,
	)
	return cfg
}

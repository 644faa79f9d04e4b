package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"devgptstats/internal/classify"
	"devgptstats/internal/domain"
	"devgptstats/internal/report"
)

type classifyResult struct {
	Category   domain.Category `json:"category,omitempty" yaml:"category,omitempty"`
	Classified bool            `json:"classified" yaml:"classified"`
	Scores     []keywordScore  `json:"scores" yaml:"scores"`
}

type keywordScore struct {
	Category domain.Category `json:"category" yaml:"category"`
	Phrase   string          `json:"phrase" yaml:"phrase"`
	Count    int             `json:"count" yaml:"count"`
}

func newClassifyCmd(root *rootOptions) *cobra.Command {
	var prompt, answer string
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Show how a single prompt/answer pair is classified",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if prompt == "" && answer == "" {
				return errors.New("at least one of --prompt or --answer is required")
			}
			return writeClassification(cmd.OutOrStdout(), domain.Conversation{Prompt: prompt, Answer: answer}, root.output)
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", "", "Prompt text")
	cmd.Flags().StringVar(&answer, "answer", "", "Answer text")
	return cmd
}

func writeClassification(w io.Writer, conv domain.Conversation, format string) error {
	scores := classify.Scores(conv)
	category, ok := classify.Dominant(scores)
	res := classifyResult{Category: category, Classified: ok}
	for _, s := range scores {
		res.Scores = append(res.Scores, keywordScore{Category: s.Category, Phrase: s.Phrase, Count: s.Count})
	}

	switch format {
	case report.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case report.FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(res)
	case report.FormatTable, "":
	default:
		return fmt.Errorf("unsupported output format %q for this command (want table, json or yaml)", format)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tPHRASE\tHITS")
	for _, s := range res.Scores {
		fmt.Fprintf(tw, "%s\t%q\t%d\n", s.Category, s.Phrase, s.Count)
	}
	if ok {
		fmt.Fprintf(tw, "\nclassified as: %s\n", category)
	} else {
		fmt.Fprintln(tw, "\nunclassified")
	}
	return tw.Flush()
}

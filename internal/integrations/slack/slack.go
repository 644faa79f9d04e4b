package slack

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/slack-go/slack"

	"devgptstats/internal/httpx"
	"devgptstats/internal/report"
)

// Poster is the part of the Slack client used to publish reports.
type Poster interface {
	UploadFileV2(params slack.UploadFileV2Parameters) (*slack.FileSummary, error)
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
}

// NewClient builds a Slack client that shares the outbound HTTP timeout.
func NewClient(token string) *slack.Client {
	return slack.New(token, slack.OptionHTTPClient(httpx.Client()))
}

// PostReport uploads the rendered report file to the channel with a short
// digest as the initial comment. Without a file it posts the digest alone.
func PostReport(api Poster, channelID, filePath string, r *report.Report, tokensUsed int64) error {
	comment := InitialComment(r, tokensUsed)
	if filePath == "" {
		_, _, err := api.PostMessage(channelID, slack.MsgOptionText(comment, false))
		if err != nil {
			return fmt.Errorf("posting report summary: %w", err)
		}
		log.Printf("slack report posted channel=%s file=none", channelID)
		return nil
	}

	fi, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("stat report file: %w", err)
	}
	_, err = api.UploadFileV2(slack.UploadFileV2Parameters{
		File:           filePath,
		FileSize:       int(fi.Size()),
		Filename:       filepath.Base(filePath),
		Channel:        channelID,
		Title:          fmt.Sprintf("%s %s", r.Name, r.GeneratedAt.Format("2006-01-02")),
		InitialComment: comment,
	})
	if err != nil {
		return fmt.Errorf("uploading report file: %w", err)
	}
	log.Printf("slack report posted channel=%s file=%s", channelID, filepath.Base(filePath))
	return nil
}

func InitialComment(r *report.Report, tokensUsed int64) string {
	msg := fmt.Sprintf("%s report for %s: %s", r.Name, r.GeneratedAt.Format("2006-01-02"), report.SummaryLine(r))
	if tokensUsed > 0 {
		msg += fmt.Sprintf(" (summary tokens used: %s)", humanize.Comma(tokensUsed))
	}
	return msg
}

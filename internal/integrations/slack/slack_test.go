package slack

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/slack-go/slack"

	"devgptstats/internal/aggregate"
	"devgptstats/internal/domain"
	"devgptstats/internal/report"
)

type fakePoster struct {
	uploads   []slack.UploadFileV2Parameters
	messages  []string
	uploadErr error
}

func (f *fakePoster) UploadFileV2(params slack.UploadFileV2Parameters) (*slack.FileSummary, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploads = append(f.uploads, params)
	return &slack.FileSummary{ID: "F1", Title: params.Title}, nil
}

func (f *fakePoster) PostMessage(channelID string, options ...slack.MsgOption) (string, string, error) {
	f.messages = append(f.messages, channelID)
	return channelID, "1700000000.000100", nil
}

func testReport() *report.Report {
	return &report.Report{
		Name:        "DevGPT",
		GeneratedAt: time.Date(2026, 2, 9, 8, 0, 0, 0, time.UTC),
		Sections: []report.Section{
			{
				Source: domain.KindIssue,
				Result: aggregate.Result{Resolution: domain.Aggregate{Total: 4, Resolved: 3, Unresolved: 1}},
			},
		},
	}
}

func TestInitialComment(t *testing.T) {
	got := InitialComment(testReport(), 0)
	want := "DevGPT report for 2026-02-09: Issues 75.00% resolved (3/4)"
	if got != want {
		t.Fatalf("InitialComment = %q, want %q", got, want)
	}
	if got := InitialComment(testReport(), 1250); !strings.HasSuffix(got, "(summary tokens used: 1,250)") {
		t.Fatalf("expected token suffix, got %q", got)
	}
}

func TestPostReportUploadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "DevGPT_20260209.md")
	if err := os.WriteFile(path, []byte("### DevGPT\n"), 0644); err != nil {
		t.Fatalf("write report: %v", err)
	}
	api := &fakePoster{}
	if err := PostReport(api, "C123", path, testReport(), 0); err != nil {
		t.Fatalf("PostReport failed: %v", err)
	}
	if len(api.uploads) != 1 || len(api.messages) != 0 {
		t.Fatalf("expected one upload, got uploads=%d messages=%d", len(api.uploads), len(api.messages))
	}
	up := api.uploads[0]
	if up.Channel != "C123" || up.Filename != "DevGPT_20260209.md" || up.FileSize != len("### DevGPT\n") {
		t.Fatalf("unexpected upload params: %+v", up)
	}
	if up.Title != "DevGPT 2026-02-09" || !strings.Contains(up.InitialComment, "75.00%") {
		t.Fatalf("unexpected title/comment: %q / %q", up.Title, up.InitialComment)
	}
}

func TestPostReportWithoutFilePostsMessage(t *testing.T) {
	api := &fakePoster{}
	if err := PostReport(api, "C123", "", testReport(), 0); err != nil {
		t.Fatalf("PostReport failed: %v", err)
	}
	if len(api.messages) != 1 || api.messages[0] != "C123" || len(api.uploads) != 0 {
		t.Fatalf("expected one message, got %+v", api)
	}
}

func TestPostReportErrors(t *testing.T) {
	if err := PostReport(&fakePoster{}, "C1", filepath.Join(t.TempDir(), "missing.md"), testReport(), 0); err == nil {
		t.Fatal("expected stat error")
	}

	path := filepath.Join(t.TempDir(), "r.md")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("write report: %v", err)
	}
	boom := errors.New("not_in_channel")
	if err := PostReport(&fakePoster{uploadErr: boom}, "C1", path, testReport(), 0); !errors.Is(err, boom) {
		t.Fatalf("expected upload error, got %v", err)
	}
}

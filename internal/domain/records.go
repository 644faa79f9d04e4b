package domain

import "strings"

// Kind identifies which snapshot a record came from.
type Kind string

const (
	KindIssue       Kind = "issue"
	KindPullRequest Kind = "pull_request"
	KindDiscussion  Kind = "discussion"
)

// FetchStatusNotFound marks a sharing link that could not be fetched when the
// snapshot was taken.
const FetchStatusNotFound = 404

// Record is one issue, pull request, or discussion from a snapshot.
type Record interface {
	Kind() Kind
	Resolved() bool
	Sharings() []Sharing
	Meta() RecordMeta
}

// RecordMeta holds fields used only for presentation.
type RecordMeta struct {
	URL          string
	Author       string
	RepoName     string
	RepoLanguage string
	Number       int
	Title        string
	CreatedAt    string
	ClosedAt     string
	UpdatedAt    string
}

type Sharing struct {
	URL                string
	Status             *int
	NumberOfPrompts    *int
	Title              string
	Model              string
	DateOfConversation string
	Conversations      []Conversation
}

type Conversation struct {
	Prompt string
	Answer string
}

// IssueRecord covers both issues and pull requests; both resolve by State.
type IssueRecord struct {
	RecordKind  Kind
	State       string
	FetchStatus *int
	Links       []Sharing
	Info        RecordMeta

	// ResolvedStates lists the upper-cased states counted as resolved.
	// Empty means only CLOSED.
	ResolvedStates []string
}

func (r *IssueRecord) Kind() Kind {
	if r.RecordKind == "" {
		return KindIssue
	}
	return r.RecordKind
}

func (r *IssueRecord) Resolved() bool {
	state := strings.ToUpper(strings.TrimSpace(r.State))
	if len(r.ResolvedStates) == 0 {
		return state == "CLOSED"
	}
	for _, s := range r.ResolvedStates {
		if state == s {
			return true
		}
	}
	return false
}

func (r *IssueRecord) Sharings() []Sharing { return r.Links }
func (r *IssueRecord) Meta() RecordMeta    { return r.Info }

type DiscussionRecord struct {
	Closed bool
	Links  []Sharing
	Info   RecordMeta
}

func (r *DiscussionRecord) Kind() Kind          { return KindDiscussion }
func (r *DiscussionRecord) Resolved() bool      { return r.Closed }
func (r *DiscussionRecord) Sharings() []Sharing { return r.Links }
func (r *DiscussionRecord) Meta() RecordMeta    { return r.Info }

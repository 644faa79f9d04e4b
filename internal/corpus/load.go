package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"

	"devgptstats/internal/domain"
)

type snapshotFile struct {
	Sources *[]json.RawMessage `json:"Sources"`
}

type rawRecord struct {
	Type           string       `json:"Type"`
	URL            string       `json:"URL"`
	Author         string       `json:"Author"`
	RepoName       string       `json:"RepoName"`
	RepoLanguage   string       `json:"RepoLanguage"`
	Number         int          `json:"Number"`
	Title          string       `json:"Title"`
	CreatedAt      string       `json:"CreatedAt"`
	ClosedAt       string       `json:"ClosedAt"`
	UpdatedAt      string       `json:"UpdatedAt"`
	State          *string      `json:"State"`
	Closed         *bool        `json:"Closed"`
	Status         *int         `json:"Status"`
	ChatgptSharing []rawSharing `json:"ChatgptSharing"`
}

type rawSharing struct {
	URL                string            `json:"URL"`
	Status             *int              `json:"Status"`
	NumberOfPrompts    *int              `json:"NumberOfPrompts"`
	Title              string            `json:"Title"`
	Model              string            `json:"Model"`
	DateOfConversation string            `json:"DateOfConversation"`
	Conversations      []rawConversation `json:"Conversations"`
}

type rawConversation struct {
	Prompt *string `json:"Prompt"`
	Answer *string `json:"Answer"`
}

// LoadIssues reads an issue snapshot. resolvedStates lists the states counted
// as resolved; nil means only CLOSED.
func LoadIssues(path string, resolvedStates []string) ([]domain.Record, error) {
	return Load(path, domain.KindIssue, resolvedStates)
}

func LoadPullRequests(path string, resolvedStates []string) ([]domain.Record, error) {
	return Load(path, domain.KindPullRequest, resolvedStates)
}

func LoadDiscussions(path string) ([]domain.Record, error) {
	return Load(path, domain.KindDiscussion, nil)
}

// Load reads the snapshot at path and decodes its Sources as records of the
// given kind, preserving file order.
func Load(path string, kind domain.Kind, resolvedStates []string) ([]domain.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	records, err := Decode(data, kind, resolvedStates)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Printf("corpus load kind=%s path=%s records=%d", kind, path, len(records))
	return records, nil
}

// Decode parses a snapshot document.
func Decode(data []byte, kind domain.Kind, resolvedStates []string) ([]domain.Record, error) {
	var doc snapshotFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInputMalformed, err)
	}
	if doc.Sources == nil {
		return nil, fmt.Errorf("%w: missing Sources key", domain.ErrInputMalformed)
	}

	states := normalizeStates(resolvedStates)
	records := make([]domain.Record, 0, len(*doc.Sources))
	for i, raw := range *doc.Sources {
		var rr rawRecord
		if err := json.Unmarshal(raw, &rr); err != nil {
			return nil, fmt.Errorf("%w: source %d: %v", domain.ErrRecordShape, i, err)
		}
		rec, err := convertRecord(rr, kind, states)
		if err != nil {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func convertRecord(rr rawRecord, kind domain.Kind, resolvedStates []string) (domain.Record, error) {
	sharings, err := convertSharings(rr.ChatgptSharing)
	if err != nil {
		return nil, err
	}
	meta := domain.RecordMeta{
		URL:          rr.URL,
		Author:       rr.Author,
		RepoName:     rr.RepoName,
		RepoLanguage: rr.RepoLanguage,
		Number:       rr.Number,
		Title:        rr.Title,
		CreatedAt:    rr.CreatedAt,
		ClosedAt:     rr.ClosedAt,
		UpdatedAt:    rr.UpdatedAt,
	}

	switch kind {
	case domain.KindIssue, domain.KindPullRequest:
		if rr.State == nil || strings.TrimSpace(*rr.State) == "" {
			return nil, fmt.Errorf("%w: %s %q has no State", domain.ErrRecordShape, kind, rr.URL)
		}
		return &domain.IssueRecord{
			RecordKind:     kind,
			State:          strings.ToUpper(strings.TrimSpace(*rr.State)),
			FetchStatus:    rr.Status,
			Links:          sharings,
			Info:           meta,
			ResolvedStates: resolvedStates,
		}, nil
	case domain.KindDiscussion:
		closed := false
		if rr.Closed != nil {
			closed = *rr.Closed
		}
		return &domain.DiscussionRecord{
			Closed: closed,
			Links:  sharings,
			Info:   meta,
		}, nil
	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
}

func convertSharings(raw []rawSharing) ([]domain.Sharing, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]domain.Sharing, 0, len(raw))
	for _, rs := range raw {
		if rs.NumberOfPrompts != nil && *rs.NumberOfPrompts < 0 {
			return nil, fmt.Errorf("%w: sharing %q has negative NumberOfPrompts", domain.ErrRecordShape, rs.URL)
		}
		convs := make([]domain.Conversation, 0, len(rs.Conversations))
		for _, rc := range rs.Conversations {
			var c domain.Conversation
			if rc.Prompt != nil {
				c.Prompt = *rc.Prompt
			}
			if rc.Answer != nil {
				c.Answer = *rc.Answer
			}
			convs = append(convs, c)
		}
		out = append(out, domain.Sharing{
			URL:                rs.URL,
			Status:             rs.Status,
			NumberOfPrompts:    rs.NumberOfPrompts,
			Title:              rs.Title,
			Model:              rs.Model,
			DateOfConversation: rs.DateOfConversation,
			Conversations:      convs,
		})
	}
	return out, nil
}

func normalizeStates(states []string) []string {
	var out []string
	for _, s := range states {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

package corpus

import (
	"fmt"

	"devgptstats/internal/domain"
)

// Clean drops records whose sharing link could not be fetched. Issues and pull
// requests carry the fetch status on the record; discussions carry it on their
// first sharing entry. Surviving records keep their order.
func Clean(records []domain.Record) ([]domain.Record, error) {
	kept := make([]domain.Record, 0, len(records))
	for i, rec := range records {
		status, err := fetchStatus(rec)
		if err != nil {
			return nil, fmt.Errorf("clean record %d: %w", i, err)
		}
		if status != nil && *status == domain.FetchStatusNotFound {
			continue
		}
		kept = append(kept, rec)
	}
	return kept, nil
}

func fetchStatus(rec domain.Record) (*int, error) {
	switch r := rec.(type) {
	case *domain.IssueRecord:
		return r.FetchStatus, nil
	case *domain.DiscussionRecord:
		// A discussion without sharings has nothing to check; fail instead of guessing.
		if len(r.Links) == 0 {
			return nil, fmt.Errorf("%w: discussion %q has no sharing entries", domain.ErrRecordShape, r.Info.URL)
		}
		return r.Links[0].Status, nil
	default:
		return nil, fmt.Errorf("%w: unsupported record type %T", domain.ErrRecordShape, rec)
	}
}

package sqlite

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"devgptstats/internal/domain"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "devgptstats-test.db")
	db, err := InitDB(dbPath)
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleRun(createdAt time.Time) domain.RunRecord {
	return domain.RunRecord{
		ReportName:  "DevGPT",
		ReportPath:  "reports/DevGPT_20260209.md",
		LLMProvider: "anthropic",
		LLMModel:    "claude-sonnet",
		CreatedAt:   createdAt,
		Sources: []domain.SourceStats{
			{
				Source:     domain.KindIssue,
				InputPath:  "issues.json",
				Loaded:     4,
				Dropped:    1,
				Resolution: domain.Aggregate{Total: 3, Resolved: 2, Unresolved: 1},
				Categories: []domain.CategoryAggregate{
					{Category: domain.CategoryFeature, Aggregate: domain.Aggregate{Total: 1, Resolved: 1}, SamplePrompt: "add a feature"},
					{Category: domain.CategoryBug, Aggregate: domain.Aggregate{Total: 2, Resolved: 1, Unresolved: 1}},
					{Category: domain.CategoryCode, Aggregate: domain.Aggregate{Total: 1, Unresolved: 1}},
				},
				Totals:        domain.CategoryTotals{Resolved: 2, Unresolved: 2},
				Conversations: 5,
				Unclassified:  1,
			},
			{
				Source:     domain.KindDiscussion,
				InputPath:  "discussions.json",
				Loaded:     2,
				Resolution: domain.Aggregate{Total: 2, Unresolved: 2},
			},
		},
	}
}

func TestInitDBIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "twice.db")
	for i := 0; i < 2; i++ {
		db, err := InitDB(dbPath)
		if err != nil {
			t.Fatalf("InitDB #%d failed: %v", i+1, err)
		}
		_ = db.Close()
	}
}

func TestInsertRunAndGetRun(t *testing.T) {
	db := newTestDB(t)
	base := time.Now().UTC().Truncate(time.Second)

	id, err := InsertRun(db, sampleRun(base))
	if err != nil {
		t.Fatalf("InsertRun failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated run ID")
	}

	run, err := GetRun(db, id)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.ReportName != "DevGPT" || run.LLMProvider != "anthropic" || !run.CreatedAt.Equal(base) {
		t.Fatalf("unexpected run header: %+v", run)
	}
	if len(run.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(run.Sources))
	}

	issues := run.Sources[0]
	if issues.Source != domain.KindIssue || issues.Dropped != 1 || issues.Resolution.Resolved != 2 {
		t.Fatalf("unexpected issue stats: %+v", issues)
	}
	if issues.Totals.Unresolved != 2 || issues.Unclassified != 1 || issues.Conversations != 5 {
		t.Fatalf("unexpected issue totals: %+v", issues)
	}
	wantOrder := []domain.Category{domain.CategoryFeature, domain.CategoryBug, domain.CategoryCode}
	if len(issues.Categories) != len(wantOrder) {
		t.Fatalf("expected %d categories, got %d", len(wantOrder), len(issues.Categories))
	}
	for i, want := range wantOrder {
		if issues.Categories[i].Category != want {
			t.Fatalf("category[%d]=%s, want %s", i, issues.Categories[i].Category, want)
		}
	}
	if issues.Categories[0].SamplePrompt != "add a feature" {
		t.Fatalf("sample prompt not stored: %+v", issues.Categories[0])
	}

	if disc := run.Sources[1]; disc.Source != domain.KindDiscussion || len(disc.Categories) != 0 {
		t.Fatalf("unexpected discussion stats: %+v", disc)
	}
}

func TestInsertRunKeepsExplicitID(t *testing.T) {
	db := newTestDB(t)
	run := sampleRun(time.Now().UTC())
	run.ID = "fixed-id"

	id, err := InsertRun(db, run)
	if err != nil {
		t.Fatalf("InsertRun failed: %v", err)
	}
	if id != "fixed-id" {
		t.Fatalf("expected explicit ID to be kept, got %q", id)
	}
	if _, err := InsertRun(db, run); err == nil {
		t.Fatal("expected duplicate run ID to fail")
	}

	runs, err := GetRecentRuns(db, 10)
	if err != nil {
		t.Fatalf("GetRecentRuns failed: %v", err)
	}
	if len(runs) != 1 || len(runs[0].Sources) != 2 {
		t.Fatalf("failed insert should roll back, got %+v", runs)
	}
}

func TestGetRecentRunsNewestFirst(t *testing.T) {
	db := newTestDB(t)
	base := time.Now().UTC().Truncate(time.Second)

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := InsertRun(db, sampleRun(base.Add(time.Duration(i)*time.Hour)))
		if err != nil {
			t.Fatalf("InsertRun #%d failed: %v", i, err)
		}
		ids = append(ids, id)
	}

	runs, err := GetRecentRuns(db, 2)
	if err != nil {
		t.Fatalf("GetRecentRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Fatalf("unexpected order: %s, %s", runs[0].ID, runs[1].ID)
	}
	if len(runs[0].Sources[0].Categories) != 3 {
		t.Fatalf("expected categories to be loaded, got %+v", runs[0].Sources[0])
	}
}

func TestGetRunUnknownID(t *testing.T) {
	db := newTestDB(t)
	if _, err := GetRun(db, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"devgptstats/internal/domain"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id           TEXT PRIMARY KEY,
		report_name  TEXT NOT NULL,
		report_path  TEXT DEFAULT '',
		llm_provider TEXT DEFAULT '',
		llm_model    TEXT DEFAULT '',
		created_at   DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);

	CREATE TABLE IF NOT EXISTS source_stats (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id            TEXT NOT NULL,
		source            TEXT NOT NULL,
		input_path        TEXT DEFAULT '',
		loaded            INTEGER NOT NULL DEFAULT 0,
		dropped           INTEGER NOT NULL DEFAULT 0,
		total             INTEGER NOT NULL DEFAULT 0,
		resolved          INTEGER NOT NULL DEFAULT 0,
		unresolved        INTEGER NOT NULL DEFAULT 0,
		conversations     INTEGER NOT NULL DEFAULT 0,
		unclassified      INTEGER NOT NULL DEFAULT 0,
		totals_resolved   INTEGER NOT NULL DEFAULT 0,
		totals_unresolved INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_ss_run ON source_stats(run_id);

	CREATE TABLE IF NOT EXISTS category_stats (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id        TEXT NOT NULL,
		source        TEXT NOT NULL,
		position      INTEGER NOT NULL,
		category      TEXT NOT NULL,
		total         INTEGER NOT NULL DEFAULT 0,
		resolved      INTEGER NOT NULL DEFAULT 0,
		unresolved    INTEGER NOT NULL DEFAULT 0,
		sample_prompt TEXT DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_cs_run ON category_stats(run_id, source);
	`
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// InsertRun stores a run with all of its per-source and per-category rows in
// one transaction. A missing ID or CreatedAt is filled in; the stored ID is
// returned.
func InsertRun(db *sql.DB, run domain.RunRecord) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, report_name, report_path, llm_provider, llm_model, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.ReportName, run.ReportPath, run.LLMProvider, run.LLMModel, run.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	sourceStmt, err := tx.Prepare(
		`INSERT INTO source_stats (run_id, source, input_path, loaded, dropped, total, resolved, unresolved,
		   conversations, unclassified, totals_resolved, totals_unresolved)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return "", err
	}
	defer sourceStmt.Close()

	categoryStmt, err := tx.Prepare(
		`INSERT INTO category_stats (run_id, source, position, category, total, resolved, unresolved, sample_prompt)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return "", err
	}
	defer categoryStmt.Close()

	for _, s := range run.Sources {
		_, err := sourceStmt.Exec(
			run.ID, string(s.Source), s.InputPath, s.Loaded, s.Dropped,
			s.Resolution.Total, s.Resolution.Resolved, s.Resolution.Unresolved,
			s.Conversations, s.Unclassified, s.Totals.Resolved, s.Totals.Unresolved,
		)
		if err != nil {
			return "", fmt.Errorf("insert source %s: %w", s.Source, err)
		}
		for pos, c := range s.Categories {
			_, err := categoryStmt.Exec(
				run.ID, string(s.Source), pos, string(c.Category),
				c.Aggregate.Total, c.Aggregate.Resolved, c.Aggregate.Unresolved, c.SamplePrompt,
			)
			if err != nil {
				return "", fmt.Errorf("insert category %s/%s: %w", s.Source, c.Category, err)
			}
		}
	}

	return run.ID, tx.Commit()
}

// GetRecentRuns returns up to limit runs, newest first, with their sources and
// categories loaded.
func GetRecentRuns(db *sql.DB, limit int) ([]domain.RunRecord, error) {
	if limit < 1 {
		limit = 10
	}
	rows, err := db.Query(
		`SELECT id, report_name, report_path, llm_provider, llm_model, created_at
		 FROM runs ORDER BY created_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	var runs []domain.RunRecord
	for rows.Next() {
		var run domain.RunRecord
		if err := rows.Scan(&run.ID, &run.ReportName, &run.ReportPath, &run.LLMProvider, &run.LLMModel, &run.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range runs {
		sources, err := getSources(db, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Sources = sources
	}
	return runs, nil
}

// GetRun loads a single run. sql.ErrNoRows is returned for unknown IDs.
func GetRun(db *sql.DB, id string) (domain.RunRecord, error) {
	var run domain.RunRecord
	err := db.QueryRow(
		`SELECT id, report_name, report_path, llm_provider, llm_model, created_at
		 FROM runs WHERE id = ?`,
		id,
	).Scan(&run.ID, &run.ReportName, &run.ReportPath, &run.LLMProvider, &run.LLMModel, &run.CreatedAt)
	if err != nil {
		return run, err
	}
	run.Sources, err = getSources(db, id)
	return run, err
}

func getSources(db *sql.DB, runID string) ([]domain.SourceStats, error) {
	rows, err := db.Query(
		`SELECT source, input_path, loaded, dropped, total, resolved, unresolved,
		        conversations, unclassified, totals_resolved, totals_unresolved
		 FROM source_stats WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	var sources []domain.SourceStats
	for rows.Next() {
		var s domain.SourceStats
		var source string
		err := rows.Scan(
			&source, &s.InputPath, &s.Loaded, &s.Dropped,
			&s.Resolution.Total, &s.Resolution.Resolved, &s.Resolution.Unresolved,
			&s.Conversations, &s.Unclassified, &s.Totals.Resolved, &s.Totals.Unresolved,
		)
		if err != nil {
			rows.Close()
			return nil, err
		}
		s.Source = domain.Kind(source)
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range sources {
		cats, err := getCategories(db, runID, sources[i].Source)
		if err != nil {
			return nil, err
		}
		sources[i].Categories = cats
	}
	return sources, nil
}

func getCategories(db *sql.DB, runID string, source domain.Kind) ([]domain.CategoryAggregate, error) {
	rows, err := db.Query(
		`SELECT category, total, resolved, unresolved, sample_prompt
		 FROM category_stats WHERE run_id = ? AND source = ? ORDER BY position`,
		runID, string(source),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []domain.CategoryAggregate
	for rows.Next() {
		var c domain.CategoryAggregate
		var category string
		if err := rows.Scan(&category, &c.Aggregate.Total, &c.Aggregate.Resolved, &c.Aggregate.Unresolved, &c.SamplePrompt); err != nil {
			return nil, err
		}
		c.Category = domain.Category(category)
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

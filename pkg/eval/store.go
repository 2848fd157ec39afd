package eval

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/zen-systems/solvegate/pkg/answer"
	"github.com/zen-systems/solvegate/pkg/solver"
)

const storeSchema = `
CREATE TABLE IF NOT EXISTS eval_runs (
    id          TEXT PRIMARY KEY,
    adapter     TEXT NOT NULL,
    model       TEXT NOT NULL,
    dataset     TEXT NOT NULL,
    total       INTEGER NOT NULL DEFAULT 0,
    correct     INTEGER NOT NULL DEFAULT 0,
    started_at  TEXT NOT NULL,
    finished_at TEXT
);

CREATE TABLE IF NOT EXISTS eval_records (
    run_id       TEXT NOT NULL,
    question     INTEGER NOT NULL,
    domain       TEXT NOT NULL,
    input        TEXT NOT NULL,
    expected     TEXT NOT NULL,
    answer       TEXT NOT NULL,
    correct      INTEGER NOT NULL,
    problem_type TEXT NOT NULL,
    strategy     TEXT NOT NULL,
    fallback     INTEGER NOT NULL,
    calls        INTEGER NOT NULL,
    duration_ms  INTEGER NOT NULL,
    cost_usd     REAL NOT NULL DEFAULT 0,
    solve_id     TEXT NOT NULL,
    PRIMARY KEY (run_id, question)
);

CREATE TABLE IF NOT EXISTS strategy_outcomes (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id    TEXT NOT NULL,
    question  INTEGER NOT NULL,
    position  INTEGER NOT NULL,
    strategy  TEXT NOT NULL,
    ok        INTEGER NOT NULL,
    final     TEXT NOT NULL,
    agreed    INTEGER NOT NULL,
    reason    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_strategy_outcomes_run
ON strategy_outcomes(run_id, strategy);
`

// RunMeta describes an evaluation run.
type RunMeta struct {
	Adapter string
	Model   string
	Dataset string
}

// Agreement counts how often one strategy produced the final answer.
type Agreement struct {
	Strategy string `json:"strategy"`
	Runs     int    `json:"runs"`
	Answered int    `json:"answered"`
	Agreed   int    `json:"agreed"`
}

// Store persists evaluation runs in SQLite.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the database at path. Use ":memory:" for a
// throwaway store.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open eval store: %w", err)
	}
	// One connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init eval store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun inserts a run row and returns its ID.
func (s *Store) StartRun(meta RunMeta) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO eval_runs (id, adapter, model, dataset, started_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, meta.Adapter, meta.Model, meta.Dataset, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	return id, nil
}

// RecordResult stores one graded question and each strategy's contribution.
func (s *Store) RecordResult(runID string, question int, rec Record, res *solver.Result, correct bool) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var problemType, strategy string
	if res.Decision != nil {
		problemType = string(res.Decision.ProblemType)
		strategy = string(res.Decision.Strategy)
	}
	_, err = tx.Exec(`
		INSERT INTO eval_records
		(run_id, question, domain, input, expected, answer, correct,
		 problem_type, strategy, fallback, calls, duration_ms, cost_usd, solve_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, question, rec.Domain, rec.Input, rec.Output, res.Answer, boolInt(correct),
		problemType, strategy, boolInt(res.Fallback), res.Calls, res.Duration.Milliseconds(), res.CostUSD, res.RunID,
	)
	if err != nil {
		return fmt.Errorf("record question %d: %w", question, err)
	}

	final := answer.Normalize(res.Answer)
	for pos, sr := range res.Strategies {
		agreed := sr.Counted && answer.Normalize(sr.Final) == final
		_, err = tx.Exec(`
			INSERT INTO strategy_outcomes
			(run_id, question, position, strategy, ok, final, agreed, reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, question, pos, string(sr.Kind), boolInt(sr.OK), sr.Final, boolInt(agreed), sr.Reason,
		)
		if err != nil {
			return fmt.Errorf("record strategy outcome: %w", err)
		}
	}
	return tx.Commit()
}

// FinishRun stores the final totals.
func (s *Store) FinishRun(runID string, report *Report) error {
	_, err := s.db.Exec(`
		UPDATE eval_runs SET total = ?, correct = ?, finished_at = ?
		WHERE id = ?`,
		report.Total, report.Correct, time.Now().UTC().Format(time.RFC3339), runID,
	)
	return err
}

// RunTotals returns the stored totals of a run.
func (s *Store) RunTotals(runID string) (total, correct int, err error) {
	err = s.db.QueryRow(`SELECT total, correct FROM eval_runs WHERE id = ?`, runID).Scan(&total, &correct)
	return total, correct, err
}

// StrategyAgreement reports, per strategy, how many of its runs produced a
// usable answer and how many agreed with the final answer.
func (s *Store) StrategyAgreement(runID string) ([]Agreement, error) {
	rows, err := s.db.Query(`
		SELECT strategy, COUNT(*), SUM(ok), SUM(agreed)
		FROM strategy_outcomes
		WHERE run_id = ?
		GROUP BY strategy
		ORDER BY strategy`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Agreement
	for rows.Next() {
		var a Agreement
		if err := rows.Scan(&a.Strategy, &a.Runs, &a.Answered, &a.Agreed); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/prefixdiff/internal/model"
)

// FileName is the database file created inside the database directory.
const FileName = "prefixdiff.db"

// ErrDatabaseNotFound is returned by Open when CreateIfNotExists is false and
// the database file does not exist.
var ErrDatabaseNotFound = errors.New("database not found")

// HistoryDB stores benchmark runs.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if needed.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS bench_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		model TEXT NOT NULL,
		base_url TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		total_prompts INTEGER NOT NULL,
		mean_time_ms REAL NOT NULL,
		mean_tokens_processed REAL NOT NULL,
		mean_tokens_generated REAL NOT NULL,
		mean_cached_tokens REAL NOT NULL,
		run_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bench_runs_started ON bench_runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_bench_runs_model ON bench_runs(model);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// RunSummary is a bench run without its per prompt results.
type RunSummary struct {
	ID                  int64
	Model               string
	BaseURL             string
	StartedAt           time.Time
	TotalPrompts        int
	MeanTimeMs          float64
	MeanTokensProcessed float64
	MeanTokensGenerated float64
	MeanCachedTokens    float64
}

// SaveBenchRun stores run and sets run.ID.
func (h *HistoryDB) SaveBenchRun(ctx context.Context, run *model.BenchRun) (int64, error) {
	runJSON, err := json.Marshal(run)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize bench run: %w", err)
	}

	query := `
	INSERT INTO bench_runs (model, base_url, started_at, total_prompts, mean_time_ms,
		mean_tokens_processed, mean_tokens_generated, mean_cached_tokens, run_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := h.db.ExecContext(ctx, query,
		run.Model,
		run.BaseURL,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.TotalPrompts,
		run.MeanTimeMs,
		run.MeanTokensProcessed,
		run.MeanTokensGenerated,
		run.MeanCachedTokens,
		string(runJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save bench run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read bench run id: %w", err)
	}
	run.ID = id
	return id, nil
}

// GetBenchRun returns the run with the given id, or nil if there is none.
func (h *HistoryDB) GetBenchRun(ctx context.Context, id int64) (*model.BenchRun, error) {
	var runJSON string
	err := h.db.QueryRowContext(ctx, `SELECT run_json FROM bench_runs WHERE id = ?`, id).Scan(&runJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bench run: %w", err)
	}

	var run model.BenchRun
	if err := json.Unmarshal([]byte(runJSON), &run); err != nil {
		return nil, fmt.Errorf("failed to parse bench run: %w", err)
	}
	run.ID = id
	return &run, nil
}

// ListBenchRuns returns run summaries, newest first. limit <= 0 returns all.
func (h *HistoryDB) ListBenchRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
	SELECT id, model, base_url, started_at, total_prompts, mean_time_ms,
		mean_tokens_processed, mean_tokens_generated, mean_cached_tokens
	FROM bench_runs
	ORDER BY started_at DESC, id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bench runs: %w", err)
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		var s RunSummary
		var startedAt string

		if err := rows.Scan(
			&s.ID,
			&s.Model,
			&s.BaseURL,
			&startedAt,
			&s.TotalPrompts,
			&s.MeanTimeMs,
			&s.MeanTokensProcessed,
			&s.MeanTokensGenerated,
			&s.MeanCachedTokens,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bench run: %w", err)
		}

		s.StartedAt = parseTimestamp(startedAt)
		results = append(results, s)
	}

	return results, rows.Err()
}

// timestampFormats are tried in order by parseTimestamp.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp returns the zero time when s matches no known format.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

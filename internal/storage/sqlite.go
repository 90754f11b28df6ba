package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/textlens/internal/apperr"
	"github.com/hyperjump/textlens/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		input TEXT NOT NULL,
		text_column TEXT NOT NULL,
		row_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);

	CREATE TABLE IF NOT EXISTS records (
		run_id TEXT NOT NULL,
		row_index INTEGER NOT NULL,
		data TEXT NOT NULL,
		PRIMARY KEY (run_id, row_index)
	);

	CREATE TABLE IF NOT EXISTS neighbors (
		run_id TEXT NOT NULL,
		ref_index INTEGER NOT NULL,
		rank INTEGER NOT NULL,
		row_index INTEGER NOT NULL,
		score REAL NOT NULL,
		fields TEXT,
		PRIMARY KEY (run_id, ref_index, rank)
	);

	CREATE TABLE IF NOT EXISTS top_terms (
		run_id TEXT NOT NULL,
		row_index INTEGER NOT NULL,
		rank INTEGER NOT NULL,
		term TEXT NOT NULL,
		weight REAL NOT NULL,
		PRIMARY KEY (run_id, row_index, rank)
	);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateRun registers a new run with a fresh UUID.
func (s *SQLiteStore) CreateRun(ctx context.Context, input, textColumn string) (*models.Run, error) {
	run := &models.Run{
		ID:         uuid.New().String(),
		Input:      input,
		TextColumn: textColumn,
		CreatedAt:  time.Now(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, input, text_column, row_count, created_at) VALUES (?, ?, ?, 0, ?)`,
		run.ID, run.Input, run.TextColumn, run.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// GetRun returns a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*models.Run, error) {
	var run models.Run
	err := s.db.QueryRowContext(ctx,
		`SELECT id, input, text_column, row_count, created_at FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Input, &run.TextColumn, &run.Rows, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("run %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns runs newest first with offset and limit.
func (s *SQLiteStore) ListRuns(ctx context.Context, offset, limit int) ([]*models.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input, text_column, row_count, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		var run models.Run
		if err := rows.Scan(&run.ID, &run.Input, &run.TextColumn, &run.Rows, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// SaveTable stores every row of table as a JSON object and records the row count.
func (s *SQLiteStore) SaveTable(ctx context.Context, runID string, table *models.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO records (run_id, row_index, data) VALUES (?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range table.Rows() {
		data, err := json.Marshal(row.Values)
		if err != nil {
			return fmt.Errorf("failed to marshal row %d: %w", row.Index, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, row.Index, string(data)); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE runs SET row_count = ? WHERE id = ?`, table.Len(), runID); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveNeighbors replaces the stored ranking for refIndex.
func (s *SQLiteStore) SaveNeighbors(ctx context.Context, runID string, refIndex int, neighbors []models.Neighbor) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM neighbors WHERE run_id = ? AND ref_index = ?`, runID, refIndex); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO neighbors (run_id, ref_index, rank, row_index, score, fields) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, n := range neighbors {
		fields, err := json.Marshal(n.Fields)
		if err != nil {
			return fmt.Errorf("failed to marshal fields: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, runID, refIndex, n.Rank, n.Index, n.Score, string(fields)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SaveTopTerms replaces the stored top terms of a row.
func (s *SQLiteStore) SaveTopTerms(ctx context.Context, runID string, index int, terms []models.TermWeight) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM top_terms WHERE run_id = ? AND row_index = ?`, runID, index); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO top_terms (run_id, row_index, rank, term, weight) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, tw := range terms {
		if _, err := stmt.ExecContext(ctx, runID, index, i+1, tw.Term, tw.Weight); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Neighbors returns the stored ranking for refIndex ordered by rank.
func (s *SQLiteStore) Neighbors(ctx context.Context, runID string, refIndex int) ([]models.Neighbor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rank, row_index, score, fields FROM neighbors
		 WHERE run_id = ? AND ref_index = ? ORDER BY rank`,
		runID, refIndex,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Neighbor
	for rows.Next() {
		var n models.Neighbor
		var fields sql.NullString
		if err := rows.Scan(&n.Rank, &n.Index, &n.Score, &fields); err != nil {
			return nil, err
		}
		if fields.Valid && fields.String != "" && fields.String != "null" {
			if err := json.Unmarshal([]byte(fields.String), &n.Fields); err != nil {
				return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
			}
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// TopTerms returns the stored top terms of a row, heaviest first.
func (s *SQLiteStore) TopTerms(ctx context.Context, runID string, index int) ([]models.TermWeight, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT term, weight FROM top_terms WHERE run_id = ? AND row_index = ? ORDER BY rank`,
		runID, index,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TermWeight
	for rows.Next() {
		var tw models.TermWeight
		if err := rows.Scan(&tw.Term, &tw.Weight); err != nil {
			return nil, err
		}
		out = append(out, tw)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and all of its results.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"records", "neighbors", "top_terms"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE run_id = ?`, id); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// SizeBytes returns the on-disk size of the database including its WAL files.
// Missing files count as zero.
func (s *SQLiteStore) SizeBytes() (int64, error) {
	var total int64
	for _, p := range []string{s.path, s.path + "-wal", s.path + "-shm"} {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nvandessel/nrrw/internal/batch"

	_ "modernc.org/sqlite" // SQLite driver
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// BatchInfo describes a stored batch.
type BatchInfo struct {
	ID        int64
	Parameter uint
	Steps     uint
	RunCount  int
	CreatedAt time.Time
}

// RunInfo describes a stored run.
type RunInfo struct {
	BatchID     int64
	Index       int
	VertexCount int
	EdgeCount   int
	Duration    time.Duration
	FinishedAt  time.Time
}

// SQLiteResultStore stores batches, runs and degree sequences in SQLite.
// It is safe for concurrent use.
type SQLiteResultStore struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the results database at path.
func Open(path string) (*SQLiteResultStore, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer; an in-memory database also
	// exists only as long as its one connection.
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteResultStore{db: db, path: path}, nil
}

// Path returns the database path.
func (s *SQLiteResultStore) Path() string {
	return s.path
}

// Close closes the database.
func (s *SQLiteResultStore) Close() error {
	return s.db.Close()
}

// BeginBatch records a new batch and returns a sink that stores its runs.
func (s *SQLiteResultStore) BeginBatch(ctx context.Context, cfg batch.Config) (*BatchWriter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO batches (parameter, steps, run_count, created_at) VALUES (?, ?, ?, ?)`,
		int64(cfg.Parameter), int64(cfg.Steps), cfg.Count, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("failed to insert batch: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read batch id: %w", err)
	}
	return &BatchWriter{store: s, id: id}, nil
}

// BatchWriter is a batch.Sink bound to one stored batch.
type BatchWriter struct {
	store *SQLiteResultStore
	id    int64
}

// ID returns the stored batch ID.
func (w *BatchWriter) ID() int64 {
	return w.id
}

// Write stores a run and its degree sequence in one transaction.
func (w *BatchWriter) Write(ctx context.Context, r batch.Result) error {
	return w.store.saveRun(ctx, w.id, r)
}

func (s *SQLiteResultStore) saveRun(ctx context.Context, batchID int64, r batch.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (batch_id, run_index, vertex_count, edge_count, duration_ms, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		batchID, r.Index, r.VertexCount, r.EdgeCount, r.Duration.Milliseconds(),
		time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to insert run %d: %w", r.Index, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO degrees (batch_id, run_index, vertex, degree) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare degree insert: %w", err)
	}
	defer stmt.Close()

	for v, d := range r.Degrees {
		if _, err := stmt.ExecContext(ctx, batchID, r.Index, v, int64(d)); err != nil {
			return fmt.Errorf("failed to insert degree of vertex %d: %w", v, err)
		}
	}

	return tx.Commit()
}

// Batches lists stored batches, oldest first.
func (s *SQLiteResultStore) Batches(ctx context.Context) ([]BatchInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, parameter, steps, run_count, created_at FROM batches ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	var out []BatchInfo
	for rows.Next() {
		var b BatchInfo
		var parameter, steps int64
		var createdAt string
		if err := rows.Scan(&b.ID, &parameter, &steps, &b.RunCount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		b.Parameter = uint(parameter)
		b.Steps = uint(steps)
		b.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, b)
	}
	return out, rows.Err()
}

// Runs lists the stored runs of a batch ordered by run index.
func (s *SQLiteResultStore) Runs(ctx context.Context, batchID int64) ([]RunInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_index, vertex_count, edge_count, duration_ms, finished_at
		 FROM runs WHERE batch_id = ? ORDER BY run_index`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		r := RunInfo{BatchID: batchID}
		var durationMS int64
		var finishedAt string
		if err := rows.Scan(&r.Index, &r.VertexCount, &r.EdgeCount, &durationMS, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Degrees returns the stored degree sequence of one run in vertex order.
// Returns nil if the run does not exist.
func (s *SQLiteResultStore) Degrees(ctx context.Context, batchID int64, runIndex int) ([]uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT degree FROM degrees WHERE batch_id = ? AND run_index = ? ORDER BY vertex`,
		batchID, runIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to query degrees: %w", err)
	}
	defer rows.Close()

	var out []uint
	for rows.Next() {
		var d int64
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan degree: %w", err)
		}
		out = append(out, uint(d))
	}
	return out, rows.Err()
}

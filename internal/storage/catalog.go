package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/san-kum/topple/internal/automaton"
	"github.com/san-kum/topple/internal/checkpoint"
	"github.com/san-kum/topple/internal/sim"
)

var ErrNoCheckpoint = errors.New("no matching checkpoint")

// Catalog is a SQLite index of checkpoint headers. It is a secondary index:
// the checkpoint files stay authoritative and Scan rebuilds it.
type Catalog struct {
	db *sql.DB
}

type Entry struct {
	Path      string
	RunID     string
	Model     string
	Dimension int
	Numeric   string
	Symmetry  string
	Initial   string
	Step      int64
	Side      int
	Cells     int
	SavedAt   time.Time
}

// Query selects catalogue entries. Zero fields match anything.
type Query struct {
	RunID     string
	Model     string
	Dimension int
	Numeric   string
}

func OpenCatalog(path string) (*Catalog, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Catalog{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS checkpoints (
			path TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			model TEXT NOT NULL,
			dimension INTEGER NOT NULL,
			numeric TEXT NOT NULL,
			symmetry TEXT NOT NULL,
			initial TEXT NOT NULL,
			step INTEGER NOT NULL,
			side INTEGER NOT NULL,
			cells INTEGER NOT NULL,
			saved_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS checkpoints_model ON checkpoints(model, dimension, step);`,
		`CREATE INDEX IF NOT EXISTS checkpoints_run ON checkpoints(run_id, step);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// Record indexes the checkpoint at path, replacing any earlier entry.
func (c *Catalog) Record(ctx context.Context, runID, path string, h checkpoint.Header) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	id := h.Identity
	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO checkpoints
			(path, run_id, model, dimension, numeric, symmetry, initial, step, side, cells, saved_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		abs, runID, id.Model, id.Dimension, id.Numeric, id.Symmetry, describeInitial(id.Initial),
		h.Step, h.Side, h.Cells, h.SavedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

func describeInitial(in checkpoint.Initial) string {
	if in.Type == string(automaton.KindRandomRegion) {
		return fmt.Sprintf("%s_%d_%d_%d_%d", in.Type, in.Side, in.Min, in.Max, in.Seed)
	}
	return fmt.Sprintf("%s_%s_%s", in.Type, in.Source, in.Background)
}

func (c *Catalog) Remove(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE path = ?`, abs)
	return err
}

// Find returns matching entries ordered by step.
func (c *Catalog) Find(ctx context.Context, q Query) ([]Entry, error) {
	where, args := q.clause()
	rows, err := c.db.QueryContext(ctx,
		`SELECT path, run_id, model, dimension, numeric, symmetry, initial, step, side, cells, saved_at
			FROM checkpoints`+where+` ORDER BY step, path`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var saved string
		if err := rows.Scan(&e.Path, &e.RunID, &e.Model, &e.Dimension, &e.Numeric, &e.Symmetry,
			&e.Initial, &e.Step, &e.Side, &e.Cells, &saved); err != nil {
			return nil, err
		}
		e.SavedAt, _ = time.Parse(time.RFC3339Nano, saved)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Latest returns the matching entry with the highest step.
func (c *Catalog) Latest(ctx context.Context, q Query) (Entry, error) {
	entries, err := c.Find(ctx, q)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, ErrNoCheckpoint
	}
	return entries[len(entries)-1], nil
}

func (q Query) clause() (string, []any) {
	var conds []string
	var args []any
	if q.RunID != "" {
		conds = append(conds, "run_id = ?")
		args = append(args, q.RunID)
	}
	if q.Model != "" {
		conds = append(conds, "model = ?")
		args = append(args, q.Model)
	}
	if q.Dimension != 0 {
		conds = append(conds, "dimension = ?")
		args = append(args, q.Dimension)
	}
	if q.Numeric != "" {
		conds = append(conds, "numeric = ?")
		args = append(args, q.Numeric)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Scan indexes every checkpoint below root. Files that are not readable
// checkpoints are skipped. The run id is taken from the directory holding
// the checkpoints directory.
func (c *Catalog) Scan(ctx context.Context, root string) (int, error) {
	n := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".ckpt" {
			return nil
		}
		h, err := checkpoint.Inspect(path)
		if err != nil {
			return nil
		}
		runID := ""
		if dir := filepath.Dir(path); filepath.Base(dir) == checkpoints {
			runID = filepath.Base(filepath.Dir(dir))
		}
		if err := c.Record(ctx, runID, path, h); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

// Observer returns a runner observer that indexes each checkpoint as it is
// written.
func (c *Catalog) Observer(runID string, log *slog.Logger) sim.Observer {
	return &catalogObserver{c: c, runID: runID, log: log}
}

type catalogObserver struct {
	c     *Catalog
	runID string
	log   *slog.Logger
}

func (o *catalogObserver) OnStep(automaton.Model, sim.Sample) {}

func (o *catalogObserver) OnCheckpoint(_ automaton.Model, path string) {
	h, err := checkpoint.Inspect(path)
	if err == nil {
		err = o.c.Record(context.Background(), o.runID, path, h)
	}
	if err != nil && o.log != nil {
		o.log.Warn("catalogue update failed", "path", path, "error", err)
	}
}

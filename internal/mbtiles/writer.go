package mbtiles

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver
)

// BatchSize is the number of tiles buffered before they are committed.
const BatchSize = 64

const schema = `
CREATE TABLE IF NOT EXISTS metadata (name TEXT NOT NULL, value TEXT);
CREATE TABLE IF NOT EXISTS tiles (
	zoom_level  INTEGER NOT NULL,
	tile_column INTEGER NOT NULL,
	tile_row    INTEGER NOT NULL,
	tile_data   BLOB NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS tile_index ON tiles (zoom_level, tile_column, tile_row);
`

// pendingTile is a compressed tile waiting for the next commit. row is
// already in TMS order.
type pendingTile struct {
	blob []byte
	z, x int
	y    int
	row  int
}

// Writer stores tiles in an MBTiles database. It is safe for concurrent use.
type Writer struct {
	db      *sql.DB
	pending []pendingTile
	written int
	mu      sync.Mutex
}

// New creates or opens the database at path and replaces its metadata.
func New(path string, meta Metadata) (*Writer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := initDB(db, meta); err != nil {
		db.Close()
		return nil, err
	}
	return &Writer{db: db, pending: make([]pendingTile, 0, BatchSize)}, nil
}

func initDB(db *sql.DB, meta Metadata) error {
	for _, stmt := range []string{"PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL", schema} {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin metadata transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	if _, err := tx.Exec("DELETE FROM metadata"); err != nil {
		return fmt.Errorf("failed to clear metadata: %w", err)
	}
	for name, value := range meta.ToMap() {
		if _, err := tx.Exec("INSERT INTO metadata (name, value) VALUES (?, ?)", name, value); err != nil {
			return fmt.Errorf("failed to insert metadata %q: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit metadata: %w", err)
	}
	return nil
}

// WriteTile queues a tile addressed in XYZ order; y must be below 2^z.
// Writing the same address twice keeps the last data.
func (w *Writer) WriteTile(z, x, y int, data []byte) error {
	if y < 0 || y >= 1<<z {
		return fmt.Errorf("tile row %d out of range for zoom %d", y, z)
	}
	blob, err := compress(data)
	if err != nil {
		return fmt.Errorf("failed to compress tile %d/%d/%d: %w", z, x, y, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = append(w.pending, pendingTile{blob: blob, z: z, x: x, y: y, row: tmsRow(z, y)})
	if len(w.pending) >= BatchSize {
		return w.commitLocked()
	}
	return nil
}

// Flush commits queued tiles.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.commitLocked()
}

func (w *Writer) commitLocked() error {
	if len(w.pending) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range w.pending {
		if _, err := stmt.Exec(t.z, t.x, t.row, t.blob); err != nil {
			return fmt.Errorf("failed to insert tile %d/%d/%d: %w", t.z, t.x, t.y, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tiles: %w", err)
	}

	w.written += len(w.pending)
	w.pending = w.pending[:0]
	return nil
}

// Written returns the number of tiles committed so far.
func (w *Writer) Written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Close commits queued tiles and closes the database.
func (w *Writer) Close() error {
	flushErr := w.Flush()
	closeErr := w.db.Close()
	if flushErr != nil {
		return flushErr
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close database: %w", closeErr)
	}
	return nil
}

// tmsRow flips an XYZ row into the TMS order MBTiles stores.
func tmsRow(z, y int) int {
	return (1 << z) - 1 - y
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := gw.Write(data); err != nil {
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

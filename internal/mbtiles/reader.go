package mbtiles

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"errors"
	"fmt"
	"io"
)

// ErrTileNotFound is returned by ReadTile for tiles missing from the database.
var ErrTileNotFound = errors.New("tile not found")

// Reader serves tiles from an MBTiles database opened read-only.
type Reader struct {
	db *sql.DB
}

// OpenReader opens path read-only and checks that it holds a tiles table.
func OpenReader(path string) (*Reader, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro&immutable=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var tables int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='tiles'").Scan(&tables)
	switch {
	case err != nil:
		db.Close()
		return nil, fmt.Errorf("failed to verify schema: %w", err)
	case tables == 0:
		db.Close()
		return nil, fmt.Errorf("%s is not an MBTiles database: no tiles table", path)
	}
	return &Reader{db: db}, nil
}

// ReadTile returns the decompressed data of the tile at XYZ address z/x/y.
func (r *Reader) ReadTile(z, x, y int) ([]byte, error) {
	var blob []byte
	err := r.db.QueryRow(
		"SELECT tile_data FROM tiles WHERE zoom_level=? AND tile_column=? AND tile_row=?",
		z, x, tmsRow(z, y),
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d/%d/%d", ErrTileNotFound, z, x, y)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tile: %w", err)
	}

	data, err := decompress(blob)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress tile %d/%d/%d: %w", z, x, y, err)
	}
	return data, nil
}

// Metadata reads the metadata table.
func (r *Reader) Metadata() (Metadata, error) {
	rows, err := r.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to query metadata: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return Metadata{}, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		values[name] = value
	}
	if err := rows.Err(); err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}
	return metadataFromMap(values), nil
}

// Close closes the database connection.
func (r *Reader) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func decompress(blob []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	return io.ReadAll(gr)
}

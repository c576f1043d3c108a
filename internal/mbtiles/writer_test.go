package mbtiles

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWriter(t *testing.T, meta Metadata) (*Writer, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.mbtiles")
	w, err := New(dbPath, meta)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w, dbPath
}

func TestWriter_New(t *testing.T) {
	w, dbPath := newTestWriter(t, Metadata{
		Name:        "island",
		Format:      "png",
		MinZoom:     0,
		MaxZoom:     2,
		Description: "test description",
		Type:        "baselayer",
		Version:     "1.0",
		Params:      map[string]string{"seed": "42", "octaves": "10"},
	})

	_, err := os.Stat(dbPath)
	require.NoError(t, err, "database file was not created")

	var count int
	require.NoError(t, w.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='tiles'").Scan(&count))
	assert.Equal(t, 1, count)

	require.NoError(t, w.db.QueryRow("SELECT COUNT(*) FROM metadata").Scan(&count))
	assert.Equal(t, 9, count)
}

func TestWriter_WriteTile(t *testing.T) {
	w, _ := newTestWriter(t, Metadata{Name: "test", Format: "png"})

	require.NoError(t, w.WriteTile(2, 1, 0, []byte("fake png data")))
	require.NoError(t, w.Flush())
	assert.Equal(t, 1, w.Written())

	var count int
	require.NoError(t, w.db.QueryRow("SELECT COUNT(*) FROM tiles").Scan(&count))
	assert.Equal(t, 1, count)

	// Row 0 is stored as the top TMS row.
	var data []byte
	require.NoError(t, w.db.QueryRow(
		"SELECT tile_data FROM tiles WHERE zoom_level=? AND tile_column=? AND tile_row=?",
		2, 1, 3).Scan(&data))
	assert.NotEmpty(t, data)
}

func TestWriter_RowOutOfRange(t *testing.T) {
	w, _ := newTestWriter(t, Metadata{Name: "test", Format: "png"})

	assert.Error(t, w.WriteTile(1, 0, 2, []byte("x")))
	assert.Error(t, w.WriteTile(1, 0, -1, []byte("x")))
	assert.NoError(t, w.WriteTile(0, 0, 0, []byte("x")))
}

func TestWriter_BatchFlush(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.mbtiles")
	w, err := New(dbPath, Metadata{Name: "test", Format: "png"})
	require.NoError(t, err)

	for i := 0; i < 150; i++ {
		require.NoError(t, w.WriteTile(8, i, 100, []byte("fake png data")))
	}
	// Full batches commit automatically.
	assert.Equal(t, 2*BatchSize, w.Written())

	require.NoError(t, w.Close())

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM tiles").Scan(&count))
	assert.Equal(t, 150, count)
}

func TestWriter_ReplaceExisting(t *testing.T) {
	w, _ := newTestWriter(t, Metadata{Name: "test", Format: "png"})

	require.NoError(t, w.WriteTile(3, 4, 5, []byte("first version")))
	require.NoError(t, w.Flush())
	require.NoError(t, w.WriteTile(3, 4, 5, []byte("second version")))
	require.NoError(t, w.Flush())

	var count int
	require.NoError(t, w.db.QueryRow("SELECT COUNT(*) FROM tiles").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestMetadata_ToMap(t *testing.T) {
	m := Metadata{
		Name:    "island",
		Format:  "png",
		MaxZoom: 3,
		Params:  map[string]string{"seed": "7", "name": "ignored"},
	}.ToMap()

	assert.Equal(t, "island", m["name"])
	assert.Equal(t, "0", m["minzoom"])
	assert.Equal(t, "3", m["maxzoom"])
	assert.Equal(t, "7", m["seed"])
	assert.NotContains(t, m, "description")
}

func TestMetadata_ParamKeys(t *testing.T) {
	m := Metadata{Params: map[string]string{"octaves": "1", "backend": "perlin", "seed": "3"}}
	assert.Equal(t, []string{"backend", "octaves", "seed"}, m.ParamKeys())
}

func TestMetadataFromMap(t *testing.T) {
	meta := metadataFromMap(map[string]string{
		"name":    "island",
		"minzoom": "1",
		"maxzoom": "bad",
		"seed":    "9",
	})

	assert.Equal(t, "island", meta.Name)
	assert.Equal(t, 1, meta.MinZoom)
	assert.Zero(t, meta.MaxZoom)
	assert.Equal(t, map[string]string{"seed": "9"}, meta.Params)
}

func TestTMSRow(t *testing.T) {
	assert.Equal(t, 0, tmsRow(0, 0))
	assert.Equal(t, 3, tmsRow(2, 0))
	assert.Equal(t, 0, tmsRow(2, 3))
}

package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/MeKo-Tech/noisemap/internal/mbtiles"
)

// MBTilesHandler serves tiles from an MBTiles database.
type MBTilesHandler struct {
	reader       *mbtiles.Reader
	logger       *slog.Logger
	cacheControl string
}

// MBTilesConfig configures the MBTiles handler.
type MBTilesConfig struct {
	MBTilesPath  string
	CacheControl string
}

// NewMBTilesHandler creates a new MBTiles handler.
func NewMBTilesHandler(cfg MBTilesConfig, logger *slog.Logger) (*MBTilesHandler, error) {
	reader, err := mbtiles.OpenReader(cfg.MBTilesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open MBTiles: %w", err)
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-store"
	}

	return &MBTilesHandler{
		reader:       reader,
		logger:       logger,
		cacheControl: cfg.CacheControl,
	}, nil
}

// Metadata returns the tileset metadata.
func (h *MBTilesHandler) Metadata() (mbtiles.Metadata, error) {
	return h.reader.Metadata()
}

// Handler returns the HTTP handler function.
func (h *MBTilesHandler) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.serveTile(w, r)
	}
}

// serveTile serves a single tile from the MBTiles database.
func (h *MBTilesHandler) serveTile(w http.ResponseWriter, r *http.Request) {
	coords, suffix, ok := parseTilePath(r.URL.Path)
	// Exports hold base-size tiles only.
	if !ok || suffix != "" {
		http.NotFound(w, r)
		return
	}

	data, err := h.reader.ReadTile(int(coords.Z), int(coords.X), int(coords.Y))
	if errors.Is(err, mbtiles.ErrTileNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.log().Error("Failed to read tile", "coords", coords.String(), "error", err)
		http.Error(w, "failed to read tile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", h.cacheControl)
	writePNG(w, data, h.log())
}

// Close closes the MBTiles reader.
func (h *MBTilesHandler) Close() error {
	return h.reader.Close()
}

func (h *MBTilesHandler) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

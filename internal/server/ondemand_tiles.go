// Package server serves noise tiles over HTTP, rendered on demand or read
// from an MBTiles file.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/noisemap/internal/tile"
	"github.com/spf13/afero"
)

// TileRenderer renders one grid tile to PNG bytes. *pipeline.Generator
// implements it.
type TileRenderer interface {
	RenderTile(ctx context.Context, grid tile.Grid, c tile.Coords, scale int) ([]byte, error)
}

type OnDemandTilesConfig struct {
	// Cache stores rendered tiles. Nil disables caching.
	Cache                    afero.Fs
	CacheControl             string
	Grid                     tile.Grid
	MaxConcurrentGenerations int
	GenerationTimeout        time.Duration
}

type OnDemandTiles struct {
	renderer TileRenderer
	logger   *slog.Logger
	sem      chan struct{}
	locks    sync.Map
	cfg      OnDemandTilesConfig

	activeRenders  atomic.Int32
	totalRendered  atomic.Int64
	totalFailed    atomic.Int64
	cacheHits      atomic.Int64
	currentRenders sync.Map // tile key -> start time
}

// RenderStatus contains current render operation status.
type RenderStatus struct {
	ActiveRenders int      `json:"active_renders"`
	TotalRendered int64    `json:"total_rendered"`
	TotalFailed   int64    `json:"total_failed"`
	CacheHits     int64    `json:"cache_hits"`
	CurrentTiles  []string `json:"current_tiles"`
	MaxConcurrent int      `json:"max_concurrent"`
}

func NewOnDemandTiles(r TileRenderer, cfg OnDemandTilesConfig, logger *slog.Logger) (*OnDemandTiles, error) {
	if err := cfg.Grid.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tile grid: %w", err)
	}
	if cfg.MaxConcurrentGenerations <= 0 {
		cfg.MaxConcurrentGenerations = 1
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 30 * time.Second
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-store"
	}

	return &OnDemandTiles{
		renderer: r,
		cfg:      cfg,
		logger:   logger,
		sem:      make(chan struct{}, cfg.MaxConcurrentGenerations),
	}, nil
}

// Status returns the current render counters.
func (t *OnDemandTiles) Status() RenderStatus {
	current := []string{}
	t.currentRenders.Range(func(key, _ any) bool {
		current = append(current, key.(string))
		return true
	})
	sort.Strings(current)

	return RenderStatus{
		ActiveRenders: int(t.activeRenders.Load()),
		TotalRendered: t.totalRendered.Load(),
		TotalFailed:   t.totalFailed.Load(),
		CacheHits:     t.cacheHits.Load(),
		CurrentTiles:  current,
		MaxConcurrent: t.cfg.MaxConcurrentGenerations,
	}
}

// StatusHandler returns an HTTP handler for the status endpoint (JSON).
func (t *OnDemandTiles) StatusHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")

		if err := json.NewEncoder(w).Encode(t.Status()); err != nil {
			t.log().Error("failed to encode status", "error", err)
			http.Error(w, "failed to encode status", http.StatusInternalServerError)
		}
	})
}

func (t *OnDemandTiles) Handler() http.Handler {
	return http.HandlerFunc(t.serveTile)
}

func (t *OnDemandTiles) serveTile(w http.ResponseWriter, r *http.Request) {
	coords, suffix, ok := parseTilePath(r.URL.Path)
	if !ok || !t.cfg.Grid.Contains(coords) {
		http.NotFound(w, r)
		return
	}

	key := coords.String() + suffix
	filename := key + ".png"
	w.Header().Set("Cache-Control", t.cfg.CacheControl)

	if data, ok := t.readCache(filename); ok {
		t.cacheHits.Add(1)
		writePNG(w, data, t.log())
		return
	}

	mu := t.getLock(key)
	mu.Lock()
	defer mu.Unlock()

	// Another request may have rendered the tile while we waited.
	if data, ok := t.readCache(filename); ok {
		t.cacheHits.Add(1)
		writePNG(w, data, t.log())
		return
	}

	select {
	case t.sem <- struct{}{}:
		defer func() { <-t.sem }()
	case <-r.Context().Done():
		http.Error(w, "request cancelled", http.StatusRequestTimeout)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), t.cfg.GenerationTimeout)
	defer cancel()

	start := time.Now()
	t.activeRenders.Add(1)
	t.currentRenders.Store(key, start)

	data, err := t.renderer.RenderTile(ctx, t.cfg.Grid, coords, scaleForSuffix(suffix))

	t.activeRenders.Add(-1)
	t.currentRenders.Delete(key)

	if err != nil {
		t.totalFailed.Add(1)
		t.log().Error("failed to generate tile", "coords", coords.String(), "suffix", suffix, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		http.Error(w, fmt.Sprintf("failed to generate tile %s: %v", key, err), status)
		return
	}
	t.totalRendered.Add(1)
	t.log().Info("tile generated on-demand", "coords", coords.String(), "suffix", suffix, "ms", time.Since(start).Milliseconds())

	t.writeCache(filename, data)
	writePNG(w, data, t.log())
}

func (t *OnDemandTiles) readCache(name string) ([]byte, bool) {
	if t.cfg.Cache == nil {
		return nil, false
	}
	data, err := afero.ReadFile(t.cfg.Cache, name)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			t.log().Warn("failed to read cached tile", "file", name, "error", err)
		}
		return nil, false
	}
	return data, true
}

func (t *OnDemandTiles) writeCache(name string, data []byte) {
	if t.cfg.Cache == nil {
		return
	}
	if err := afero.WriteFile(t.cfg.Cache, name, data, 0o644); err != nil {
		t.log().Warn("failed to cache tile", "file", name, "error", err)
	}
}

func (t *OnDemandTiles) getLock(key string) *sync.Mutex {
	if v, ok := t.locks.Load(key); ok {
		return v.(*sync.Mutex)
	}
	mu := &sync.Mutex{}
	actual, _ := t.locks.LoadOrStore(key, mu)
	return actual.(*sync.Mutex)
}

func (t *OnDemandTiles) log() *slog.Logger {
	if t.logger != nil {
		return t.logger
	}
	return slog.Default()
}

func writePNG(w http.ResponseWriter, data []byte, logger *slog.Logger) {
	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(data); err != nil {
		logger.Error("failed to write response", "error", err)
	}
}

func parseTilePath(requestPath string) (tile.Coords, string, bool) {
	// Expect: /tiles/z2_x1_y3.png or /tiles/z2_x1_y3@2x.png
	if !strings.HasPrefix(requestPath, "/tiles/") {
		return tile.Coords{}, "", false
	}
	base := path.Base(requestPath)
	if !strings.HasSuffix(base, ".png") {
		return tile.Coords{}, "", false
	}
	name := strings.TrimSuffix(base, ".png")
	suffix := ""
	if strings.HasSuffix(name, "@2x") {
		suffix = "@2x"
		name = strings.TrimSuffix(name, "@2x")
	}

	coords, err := tile.ParseCoords(name)
	if err != nil {
		return tile.Coords{}, "", false
	}
	return coords, suffix, true
}

func scaleForSuffix(suffix string) int {
	if suffix == "@2x" {
		return 2
	}
	return 1
}

// WithCORS allows browser map clients on other origins to fetch tiles.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/MeKo-Tech/noisemap/internal/imageio"
	"github.com/MeKo-Tech/noisemap/internal/pipeline"
	"github.com/MeKo-Tech/noisemap/internal/server"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve noise tiles over HTTP, rendering them on demand",
	Long: `Serve answers /tiles/z{z}_x{x}_y{y}.png (and @2x variants) for the
configured tile grid. Tiles are rendered on demand and cached in memory or in
a directory. With --mbtiles, tiles are read from an exported tileset instead.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().String("mbtiles", "", "Serve tiles from this MBTiles file instead of rendering")
	serveCmd.Flags().String("cache", "memory", "Tile cache: memory, none, or a directory path")
	serveCmd.Flags().Int("max-concurrent-generations", runtime.NumCPU(), "Max concurrent tile generations (default: number of CPUs)")
	serveCmd.Flags().Duration("generation-timeout", 30*time.Second, "Timeout per tile generation")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for served tiles")
	addGridFlags(serveCmd, "serve")
	addMapFlags(serveCmd, "serve")

	mustBindFlags(serveCmd, "serve", []flagBinding{
		{"addr", "addr"},
		{"mbtiles", "mbtiles"},
		{"cache", "cache"},
		{"max_concurrent_generations", "max-concurrent-generations"},
		{"generation_timeout", "generation-timeout"},
		{"cache_control", "cache-control"},
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	cacheControl := viper.GetString("serve.cache_control")

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	if path := viper.GetString("serve.mbtiles"); path != "" {
		h, err := server.NewMBTilesHandler(server.MBTilesConfig{MBTilesPath: path, CacheControl: cacheControl}, logger)
		if err != nil {
			return err
		}
		defer h.Close() // nolint:errcheck

		if meta, err := h.Metadata(); err == nil {
			logger.Info("Serving MBTiles", "path", path, "name", meta.Name, "zoom", meta.MaxZoom)
		}
		mux.Handle("/tiles/", server.WithCORS(h.Handler()))
	} else {
		od, err := newOnDemandTiles(cacheControl)
		if err != nil {
			return err
		}
		mux.Handle("/tiles/", server.WithCORS(od.Handler()))
		mux.Handle("/status", od.StatusHandler())
	}

	ctx, cancel := newSignalContext()
	defer cancel()

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("tile server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newOnDemandTiles(cacheControl string) (*server.OnDemandTiles, error) {
	settings, err := loadMapSettings("serve")
	if err != nil {
		return nil, err
	}
	grid, err := loadGrid("serve")
	if err != nil {
		return nil, err
	}
	cache, err := openTileCache(afero.NewOsFs(), viper.GetString("serve.cache"))
	if err != nil {
		return nil, err
	}

	driver, sampler, err := settings.newDriver()
	if err != nil {
		return nil, err
	}
	gen := pipeline.NewGenerator(driver, pipeline.Options{
		Filter:  settings.filter,
		Encoder: imageio.Encoder{Format: imageio.FormatPNG},
		Logger:  logger,
	})

	logger.Info("Rendering tiles on demand",
		append([]any{"tiles", grid.Count(), "zoom", grid.Zoom(), "tile_size", grid.TileSize}, settings.logFields(sampler)...)...)

	return server.NewOnDemandTiles(gen, server.OnDemandTilesConfig{
		Grid:                     grid,
		Cache:                    cache,
		CacheControl:             cacheControl,
		MaxConcurrentGenerations: viper.GetInt("serve.max_concurrent_generations"),
		GenerationTimeout:        viper.GetDuration("serve.generation_timeout"),
	}, logger)
}

// openTileCache maps the --cache setting to a filesystem. "none" disables
// caching; anything other than "memory" is a directory on base.
func openTileCache(base afero.Fs, setting string) (afero.Fs, error) {
	switch setting {
	case "none":
		return nil, nil
	case "memory", "":
		return afero.NewMemMapFs(), nil
	}

	if err := base.MkdirAll(setting, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return afero.NewBasePathFs(base, setting), nil
}

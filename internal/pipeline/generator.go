// Package pipeline wires the raster driver, filters and encoder into single
// "render a region" and "render a tile" steps.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/noisemap/internal/filter"
	"github.com/MeKo-Tech/noisemap/internal/imageio"
	"github.com/MeKo-Tech/noisemap/internal/raster"
	"github.com/MeKo-Tech/noisemap/internal/tile"
	"github.com/MeKo-Tech/noisemap/internal/worker"
	"github.com/spf13/afero"
)

// TileWriter stores encoded tiles. *mbtiles.Writer implements it.
type TileWriter interface {
	WriteTile(z, x, y int, data []byte) error
}

// Options configures a Generator.
type Options struct {
	Filter  filter.Options
	Encoder imageio.Encoder
	Logger  *slog.Logger
}

// Generator renders lattice regions and tiles to images.
type Generator struct {
	driver  *raster.Driver
	logger  *slog.Logger
	encoder imageio.Encoder
	filter  filter.Options
}

// NewGenerator prepares a generator around a configured driver.
func NewGenerator(driver *raster.Driver, opts Options) *Generator {
	return &Generator{
		driver:  driver,
		filter:  opts.Filter,
		encoder: opts.Encoder,
		logger:  opts.Logger,
	}
}

// Render rasterizes [x1, x2) x [y1, y2) and applies the configured filters.
func (g *Generator) Render(ctx context.Context, x1, y1, x2, y2 int) (image.Image, error) {
	start := time.Now()
	buf, err := g.driver.AreaContext(ctx, x1, y1, x2, y2)
	if err != nil {
		return nil, err
	}
	if buf.Empty() {
		return nil, fmt.Errorf("region (%d,%d)-(%d,%d) is empty", x1, y1, x2, y2)
	}

	img := filter.Apply(imageio.ToImage(buf), g.filter)
	g.log().Debug("Rendered region",
		"region", fmt.Sprintf("%d,%d,%d,%d", x1, y1, x2, y2),
		"colored", buf.Colored(),
		"bounds", img.Bounds().String(),
		"ms", time.Since(start).Milliseconds(),
	)
	return img, nil
}

// RenderFile renders a region and saves it to path on fs.
func (g *Generator) RenderFile(ctx context.Context, fs afero.Fs, path string, x1, y1, x2, y2 int) error {
	img, err := g.Render(ctx, x1, y1, x2, y2)
	if err != nil {
		return err
	}
	if err := g.encoder.Save(fs, path, img); err != nil {
		return err
	}
	g.log().Info("Wrote image", "path", path, "format", g.encoder.Format, "bounds", img.Bounds().String())
	return nil
}

// RenderTile renders one grid tile and encodes it. scale > 1 magnifies the
// tile by that factor after filtering.
func (g *Generator) RenderTile(ctx context.Context, grid tile.Grid, c tile.Coords, scale int) ([]byte, error) {
	if !grid.Contains(c) {
		return nil, fmt.Errorf("tile %s is outside the %dx%d grid", c, grid.Cols, grid.Rows)
	}

	x1, y1, x2, y2 := grid.Region(c)
	img, err := g.Render(ctx, x1, y1, x2, y2)
	if err != nil {
		return nil, fmt.Errorf("failed to render tile %s: %w", c, err)
	}
	if scale > 1 {
		img = filter.Upscale(img, scale)
	}

	var buf bytes.Buffer
	if err := g.encoder.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode tile %s: %w", c, err)
	}
	return buf.Bytes(), nil
}

// ExportTiles renders every tile of grid into w, in row-major order.
// Rendering stops at the first failure or when ctx is cancelled.
func (g *Generator) ExportTiles(ctx context.Context, grid tile.Grid, w TileWriter, onProgress worker.ProgressFunc) error {
	if err := grid.Validate(); err != nil {
		return err
	}

	tiles := grid.Tiles()
	for i, c := range tiles {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := g.RenderTile(ctx, grid, c, 1)
		if err != nil {
			return err
		}
		if err := w.WriteTile(int(c.Z), int(c.X), int(c.Y), data); err != nil {
			return fmt.Errorf("failed to store tile %s: %w", c, err)
		}
		if onProgress != nil {
			onProgress(i+1, len(tiles), 0)
		}
	}

	g.log().Info("Exported tiles", "count", len(tiles), "zoom", grid.Zoom())
	return nil
}

func (g *Generator) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}

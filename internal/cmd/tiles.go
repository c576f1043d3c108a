package cmd

import (
	"fmt"
	"maps"

	"github.com/MeKo-Tech/noisemap/internal/imageio"
	"github.com/MeKo-Tech/noisemap/internal/mbtiles"
	"github.com/MeKo-Tech/noisemap/internal/pipeline"
	"github.com/MeKo-Tech/noisemap/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var tilesCmd = &cobra.Command{
	Use:   "tiles",
	Short: "Render a tile grid into an MBTiles file",
	Long: `Tiles renders cols x rows tiles of tile-size lattice units, starting at
origin, and stores them as PNG in an MBTiles database. All tiles share the
smallest zoom level z with 2^z >= max(cols, rows).`,
	RunE: runTiles,
}

func init() {
	rootCmd.AddCommand(tilesCmd)

	tilesCmd.Flags().StringP("output", "o", "noisemap.mbtiles", "Output MBTiles file")
	tilesCmd.Flags().String("name", "noisemap", "Tileset name stored in metadata")
	tilesCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")
	tilesCmd.Flags().Bool("progress", true, "Show progress bar while rendering")
	addGridFlags(tilesCmd, "tiles")
	addMapFlags(tilesCmd, "tiles")

	mustBindFlags(tilesCmd, "tiles", []flagBinding{
		{"output", "output"},
		{"name", "name"},
		{"png_compression", "png-compression"},
		{"progress", "progress"},
	})
}

func runTiles(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	settings, err := loadMapSettings("tiles")
	if err != nil {
		return err
	}
	grid, err := loadGrid("tiles")
	if err != nil {
		return err
	}
	compression, err := imageio.ParsePNGCompression(viper.GetString("tiles.png_compression"))
	if err != nil {
		return err
	}

	driver, sampler, err := settings.newDriver()
	if err != nil {
		return err
	}
	gen := pipeline.NewGenerator(driver, pipeline.Options{
		Filter:  settings.filter,
		Encoder: imageio.Encoder{Format: imageio.FormatPNG, PNGCompression: compression},
		Logger:  logger,
	})

	params := settings.params(sampler)
	maps.Copy(params, gridParams(grid))

	output := viper.GetString("tiles.output")
	zoom := int(grid.Zoom())
	writer, err := mbtiles.New(output, mbtiles.Metadata{
		Name:        viper.GetString("tiles.name"),
		Format:      "png",
		Description: fmt.Sprintf("%dx%d noise tiles of %d units", grid.Cols, grid.Rows, grid.TileSize),
		Type:        "baselayer",
		Version:     "1.0",
		MinZoom:     zoom,
		MaxZoom:     zoom,
		Params:      params,
	})
	if err != nil {
		return fmt.Errorf("failed to create MBTiles writer: %w", err)
	}

	logger.Info("Rendering tiles",
		append([]any{"output", output, "tiles", grid.Count(), "zoom", zoom}, settings.logFields(sampler)...)...)

	ctx, cancel := newSignalContext()
	defer cancel()

	progress := worker.NewProgress(grid.Count(), "tiles", viper.GetBool("tiles.progress"))
	exportErr := gen.ExportTiles(ctx, grid, writer, progress.Callback())
	progress.Done()

	if err := writer.Close(); err != nil && exportErr == nil {
		exportErr = fmt.Errorf("failed to close MBTiles writer: %w", err)
	}
	if exportErr != nil {
		return fmt.Errorf("tile export failed: %w", exportErr)
	}

	logger.Info(progress.Summary(), "output", output, "stored", writer.Written())
	return nil
}

package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/noisemap/internal/imageio"
	"github.com/MeKo-Tech/noisemap/internal/pipeline"
	"github.com/MeKo-Tech/noisemap/internal/raster"
	"github.com/MeKo-Tech/noisemap/internal/worker"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a lattice region to an image file",
	Long: `Render samples noise over a rectangular lattice region, applies the
transform stages and writes the result as PNG, TIFF or BMP, chosen from the
output file extension.

With no flags it renders the island terrain map for region -100,-100,100,100
to simplex.png.`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().String("region", "-100,-100,100,100", "Lattice region x1,y1,x2,y2 (end exclusive)")
	renderCmd.Flags().StringP("output", "o", "simplex.png", "Output image (.png, .tif, .tiff, .bmp)")
	renderCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")
	renderCmd.Flags().Bool("progress", false, "Show progress bar while rendering")
	addMapFlags(renderCmd, "render")

	mustBindFlags(renderCmd, "render", []flagBinding{
		{"region", "region"},
		{"output", "output"},
		{"png_compression", "png-compression"},
		{"progress", "progress"},
	})
}

func runRender(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	settings, err := loadMapSettings("render")
	if err != nil {
		return err
	}
	region, err := parseRegion(viper.GetString("render.region"))
	if err != nil {
		return fmt.Errorf("invalid region: %w", err)
	}

	output := viper.GetString("render.output")
	format, err := imageio.FormatFromPath(output)
	if err != nil {
		return err
	}
	compression, err := imageio.ParsePNGCompression(viper.GetString("render.png_compression"))
	if err != nil {
		return err
	}

	progress := worker.NewProgress(max(region[3]-region[1], 0), "rows", viper.GetBool("render.progress"))
	driver, sampler, err := settings.newDriver(raster.WithProgress(progress.Callback()))
	if err != nil {
		return err
	}

	gen := pipeline.NewGenerator(driver, pipeline.Options{
		Filter:  settings.filter,
		Encoder: imageio.Encoder{Format: format, PNGCompression: compression},
		Logger:  logger,
	})

	logger.Info("Rendering region",
		append([]any{"region", fmt.Sprintf("%d,%d,%d,%d", region[0], region[1], region[2], region[3]), "output", output},
			settings.logFields(sampler)...)...)

	ctx, cancel := newSignalContext()
	defer cancel()

	err = gen.RenderFile(ctx, afero.NewOsFs(), output, region[0], region[1], region[2], region[3])
	progress.Done()
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	logger.Info(progress.Summary())
	return nil
}

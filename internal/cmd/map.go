package cmd

import (
	"fmt"
	"image/color"
	"runtime"
	"strconv"

	"github.com/MeKo-Tech/noisemap/internal/filter"
	"github.com/MeKo-Tech/noisemap/internal/noise"
	"github.com/MeKo-Tech/noisemap/internal/raster"
	"github.com/MeKo-Tech/noisemap/internal/transform"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// mapSettings holds the noise, transform and filter settings shared by all
// rendering commands.
type mapSettings struct {
	island     transform.Island
	stages     []string
	thresholds []float64
	colors     []color.NRGBA
	noise      noise.Config
	filter     filter.Options
	scale      float64
	workers    int
}

// addMapFlags registers the shared rendering flags on cmd and binds them
// under prefix.
func addMapFlags(cmd *cobra.Command, prefix string) {
	defaultColors := lo.Map(transform.DefaultColors, func(c color.NRGBA, _ int) string {
		return formatHexColor(c)
	})
	defaultThresholds := lo.Map(transform.DefaultThresholds, func(v float64, _ int) string {
		return strconv.FormatFloat(v, 'g', -1, 64)
	})

	flags := cmd.Flags()
	flags.Int64("seed", 0, "Noise seed (random when unset)")
	flags.Float64("frequency", 0.01, "Base noise frequency")
	flags.Float64("offset", 1000, "Base coordinate offset")
	flags.Int("octaves", 10, "Number of noise octaves (minimum 1)")
	flags.String("noise", string(noise.BackendOpenSimplex), "Noise backend (opensimplex, perlin)")

	flags.StringSlice("stages", []string{stageIsland, stageBands}, "Ordered transform stages (island, bands, scale); empty means linear scale")
	flags.String("island-center", "0,0", "Island center as x,y")
	flags.Float64("island-radius", 20, "Island radius")
	flags.Float64("scale-factor", 255, "Multiplier used by the scale stage")
	flags.StringSlice("thresholds", defaultThresholds, "Ascending band thresholds in tanh space; the last must be >= 1")
	flags.StringSlice("colors", defaultColors, "Band colors as hex, one per threshold")

	flags.Float32("smooth", 0, "Gaussian smoothing sigma in pixels (0 disables)")
	flags.Int("upscale", 1, "Nearest-neighbour upscale factor")
	flags.Int("workers", runtime.NumCPU(), "Number of rows rendered in parallel")

	mustBindFlags(cmd, prefix, []flagBinding{
		{"seed", "seed"},
		{"frequency", "frequency"},
		{"offset", "offset"},
		{"octaves", "octaves"},
		{"noise", "noise"},
		{"stages", "stages"},
		{"island_center", "island-center"},
		{"island_radius", "island-radius"},
		{"scale_factor", "scale-factor"},
		{"thresholds", "thresholds"},
		{"colors", "colors"},
		{"smooth", "smooth"},
		{"upscale", "upscale"},
		{"workers", "workers"},
	})
}

// flagBinding maps a viper key, relative to a command prefix, to a flag.
type flagBinding struct {
	key  string
	flag string
}

func mustBindFlags(cmd *cobra.Command, prefix string, bindings []flagBinding) {
	for _, bf := range bindings {
		if err := viper.BindPFlag(prefix+"."+bf.key, cmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

// loadMapSettings reads and validates the shared rendering settings.
func loadMapSettings(prefix string) (mapSettings, error) {
	key := func(name string) string { return prefix + "." + name }

	backend, err := noise.ParseBackend(viper.GetString(key("noise")))
	if err != nil {
		return mapSettings{}, err
	}

	cfg := noise.Config{
		Frequency: viper.GetFloat64(key("frequency")),
		Offset:    viper.GetFloat64(key("offset")),
		Octaves:   viper.GetInt(key("octaves")),
		Backend:   backend,
	}
	if viper.IsSet(key("seed")) {
		cfg.Seed = noise.Seed(viper.GetInt64(key("seed")))
	}

	stages, err := parseStages(viper.GetStringSlice(key("stages")))
	if err != nil {
		return mapSettings{}, err
	}

	cx, cy, err := parseCenter(viper.GetString(key("island_center")))
	if err != nil {
		return mapSettings{}, fmt.Errorf("invalid island center: %w", err)
	}

	thresholds, err := parseFloats(viper.GetStringSlice(key("thresholds")))
	if err != nil {
		return mapSettings{}, fmt.Errorf("invalid thresholds: %w", err)
	}
	colors, err := parseColors(viper.GetStringSlice(key("colors")))
	if err != nil {
		return mapSettings{}, fmt.Errorf("invalid colors: %w", err)
	}

	upscale := viper.GetInt(key("upscale"))
	if upscale < 1 {
		return mapSettings{}, fmt.Errorf("upscale must be at least 1, got %d", upscale)
	}
	smooth := float32(viper.GetFloat64(key("smooth")))
	if smooth < 0 {
		return mapSettings{}, fmt.Errorf("smooth must not be negative, got %g", smooth)
	}

	return mapSettings{
		noise:      cfg,
		stages:     stages,
		island:     transform.Island{CX: cx, CY: cy, Radius: viper.GetFloat64(key("island_radius"))},
		scale:      viper.GetFloat64(key("scale_factor")),
		thresholds: thresholds,
		colors:     colors,
		filter:     filter.Options{SmoothSigma: smooth, Upscale: upscale},
		workers:    viper.GetInt(key("workers")),
	}, nil
}

// buildTransform turns the stage list into a transform chain. An empty list
// yields nil, which the driver treats as the linear scale.
func (s mapSettings) buildTransform() (transform.Transform, error) {
	if len(s.stages) == 0 {
		return nil, nil
	}

	chain := make(transform.Chain, 0, len(s.stages))
	for _, stage := range s.stages {
		switch stage {
		case stageIsland:
			chain = append(chain, s.island)
		case stageBands:
			bands, err := transform.NewBands(s.thresholds, s.colors)
			if err != nil {
				return nil, err
			}
			chain = append(chain, bands)
		case stageScale:
			chain = append(chain, transform.Scale{Factor: s.scale})
		default:
			return nil, fmt.Errorf("unknown stage %q", stage)
		}
	}
	return chain, nil
}

// newDriver builds the sampler and driver described by s.
func (s mapSettings) newDriver(opts ...raster.Option) (*raster.Driver, *noise.Sampler, error) {
	t, err := s.buildTransform()
	if err != nil {
		return nil, nil, err
	}

	sampler := noise.New(s.noise)
	opts = append([]raster.Option{raster.WithWorkers(s.workers), raster.WithLogger(logger)}, opts...)
	return raster.New(sampler, t, opts...), sampler, nil
}

// params describes the sampler for tileset metadata. Random seeds are left out.
func (s mapSettings) params(sampler *noise.Sampler) map[string]string {
	p := map[string]string{
		"frequency": strconv.FormatFloat(s.noise.Frequency, 'g', -1, 64),
		"offset":    strconv.FormatFloat(s.noise.Offset, 'g', -1, 64),
		"octaves":   strconv.Itoa(sampler.Octaves()),
		"noise":     string(s.noise.Backend),
	}
	if s.noise.Seed != nil {
		p["seed"] = strconv.FormatInt(sampler.Seed(), 10)
	}
	return p
}

func (s mapSettings) logFields(sampler *noise.Sampler) []any {
	fields := []any{
		"frequency", s.noise.Frequency,
		"offset", s.noise.Offset,
		"octaves", sampler.Octaves(),
		"noise", s.noise.Backend,
		"stages", s.stages,
	}
	if s.noise.Seed == nil {
		return append(fields, "random_seed", true)
	}
	return append(fields, "seed", sampler.Seed())
}

package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/MeKo-Tech/noisemap/internal/filter"
	"github.com/MeKo-Tech/noisemap/internal/noise"
	"github.com/MeKo-Tech/noisemap/internal/transform"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadTestSettings registers the map flags on a fresh command, parses args
// and reads the settings back through viper.
func loadTestSettings(t *testing.T, args []string, config string) mapSettings {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	cmd := &cobra.Command{Use: "render"}
	addMapFlags(cmd, "render")
	require.NoError(t, cmd.Flags().Parse(args))

	initEnv()
	if config != "" {
		viper.SetConfigType("yaml")
		require.NoError(t, viper.ReadConfig(strings.NewReader(config)))
	}

	settings, err := loadMapSettings("render")
	require.NoError(t, err)
	return settings
}

func TestLoadMapSettings_Seed(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		env      string
		config   string
		wantSeed *int64
	}{
		{name: "unset draws a random seed", wantSeed: nil},
		{name: "flag zero", args: []string{"--seed", "0"}, wantSeed: noise.Seed(0)},
		{name: "flag value", args: []string{"--seed=42"}, wantSeed: noise.Seed(42)},
		{name: "env zero", env: "0", wantSeed: noise.Seed(0)},
		{name: "config zero", config: "render:\n  seed: 0\n", wantSeed: noise.Seed(0)},
		{name: "flag wins over env", args: []string{"--seed", "7"}, env: "3", wantSeed: noise.Seed(7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv("NOISEMAP_RENDER_SEED", tt.env)
			}

			settings := loadTestSettings(t, tt.args, tt.config)
			if tt.wantSeed == nil {
				assert.Nil(t, settings.noise.Seed)
				return
			}
			require.NotNil(t, settings.noise.Seed)
			assert.Equal(t, *tt.wantSeed, *settings.noise.Seed)
		})
	}
}

func TestLoadMapSettings_UnseededRunsDiffer(t *testing.T) {
	settings := loadTestSettings(t, nil, "")

	a := noise.New(settings.noise)
	b := noise.New(settings.noise)
	assert.NotEqual(t, a.Seed(), b.Seed())
}

func TestLoadMapSettings_Defaults(t *testing.T) {
	settings := loadTestSettings(t, nil, "")

	assert.Equal(t, 0.01, settings.noise.Frequency)
	assert.Equal(t, 1000.0, settings.noise.Offset)
	assert.Equal(t, 10, settings.noise.Octaves)
	assert.Equal(t, noise.BackendOpenSimplex, settings.noise.Backend)
	assert.Equal(t, []string{stageIsland, stageBands}, settings.stages)
	assert.Equal(t, transform.Island{CX: 0, CY: 0, Radius: 20}, settings.island)
	assert.Equal(t, transform.DefaultThresholds, settings.thresholds)
	assert.Equal(t, transform.DefaultColors, settings.colors)
	assert.Equal(t, 255.0, settings.scale)
	assert.Equal(t, filter.Options{SmoothSigma: 0, Upscale: 1}, settings.filter)

	region, err := parseRegion(renderCmd.Flags().Lookup("region").DefValue)
	require.NoError(t, err)
	assert.Equal(t, [4]int{-100, -100, 100, 100}, region)
	assert.Equal(t, "simplex.png", renderCmd.Flags().Lookup("output").DefValue)
}

func TestLoadMapSettings_Overrides(t *testing.T) {
	settings := loadTestSettings(t, []string{
		"--frequency", "0.5",
		"--octaves", "3",
		"--noise", "perlin",
		"--stages", "scale",
		"--island-center", "4,-2",
		"--colors", "#000000,#ffffff",
		"--thresholds", "0.5,1",
	}, "")

	assert.Equal(t, 0.5, settings.noise.Frequency)
	assert.Equal(t, 3, settings.noise.Octaves)
	assert.Equal(t, noise.BackendPerlin, settings.noise.Backend)
	assert.Equal(t, []string{stageScale}, settings.stages)
	assert.Equal(t, 4.0, settings.island.CX)
	assert.Equal(t, -2.0, settings.island.CY)
	assert.Equal(t, []float64{0.5, 1}, settings.thresholds)
	assert.Len(t, settings.colors, 2)
}

func TestLoadMapSettings_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "backend", args: []string{"--noise", "value"}},
		{name: "stage", args: []string{"--stages", "erode"}},
		{name: "center", args: []string{"--island-center", "1"}},
		{name: "color", args: []string{"--colors", "#zzzzzz"}},
		{name: "upscale", args: []string{"--upscale", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			t.Cleanup(viper.Reset)

			cmd := &cobra.Command{Use: "render"}
			addMapFlags(cmd, "render")
			require.NoError(t, cmd.Flags().Parse(tt.args))

			_, err := loadMapSettings("render")
			assert.Error(t, err)
		})
	}
}

func TestRootCommand_ErrorsPrintedOnce(t *testing.T) {
	var stderr bytes.Buffer
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"render", "--no-such-flag"})
	t.Cleanup(func() {
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Empty(t, stderr.String())
}

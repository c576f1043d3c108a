package cmd

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/MeKo-Tech/noisemap/internal/transform"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTransform(t *testing.T) {
	base := mapSettings{
		island:     transform.Island{Radius: 20},
		thresholds: transform.DefaultThresholds,
		colors:     transform.DefaultColors,
		scale:      2,
	}

	t.Run("empty means linear", func(t *testing.T) {
		tr, err := base.buildTransform()
		require.NoError(t, err)
		assert.Nil(t, tr)
	})

	t.Run("stages in order", func(t *testing.T) {
		s := base
		s.stages = []string{stageScale, stageIsland}
		tr, err := s.buildTransform()
		require.NoError(t, err)

		chain, ok := tr.(transform.Chain)
		require.True(t, ok)
		require.Len(t, chain, 2)
		assert.Equal(t, transform.Scale{Factor: 2}, chain[0])
		assert.Equal(t, base.island, chain[1])
	})

	t.Run("bands colorize", func(t *testing.T) {
		s := base
		s.stages = []string{stageIsland, stageBands}
		tr, err := s.buildTransform()
		require.NoError(t, err)

		v := tr.Apply(transform.Scalar(0.5), 0, 0)
		assert.True(t, v.Colored)
	})

	t.Run("invalid bands", func(t *testing.T) {
		s := base
		s.stages = []string{stageBands}
		s.thresholds = []float64{0.5, 0.9}
		s.colors = []color.NRGBA{{}, {}}
		_, err := s.buildTransform()
		assert.ErrorIs(t, err, transform.ErrUncoveredRange)
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, false, "json")
	l.Debug("hidden")
	l.Info("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	l = newLogger(&buf, true, "text")
	l.Debug("visible")
	assert.Contains(t, buf.String(), "msg=visible")
}

func TestOpenTileCache(t *testing.T) {
	base := afero.NewMemMapFs()

	fs, err := openTileCache(base, "none")
	require.NoError(t, err)
	assert.Nil(t, fs)

	fs, err = openTileCache(base, "memory")
	require.NoError(t, err)
	assert.NotNil(t, fs)

	fs, err = openTileCache(base, "/var/cache/noisemap")
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, "z0_x0_y0.png", []byte("png"), 0o644))

	data, err := afero.ReadFile(base, "/var/cache/noisemap/z0_x0_y0.png")
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

package cmd

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegion(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    [4]int
		wantErr bool
	}{
		{name: "default region", input: "-100,-100,100,100", want: [4]int{-100, -100, 100, 100}},
		{name: "with spaces", input: "0, 0, 10, 5", want: [4]int{0, 0, 10, 5}},
		{name: "reversed is accepted", input: "10,0,0,5", want: [4]int{10, 0, 0, 5}},
		{name: "too few values", input: "0,0,10", wantErr: true},
		{name: "too many values", input: "0,0,10,10,10", wantErr: true},
		{name: "fractional", input: "0,0,1.5,2", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRegion(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCenter(t *testing.T) {
	x, y, err := parseCenter("1.5, -2")
	require.NoError(t, err)
	assert.Equal(t, 1.5, x)
	assert.Equal(t, -2.0, y)

	for _, bad := range []string{"", "1", "1,", "a,b", "1,2,3"} {
		_, _, err := parseCenter(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseOrigin(t *testing.T) {
	x, y, err := parseOrigin("-512,256")
	require.NoError(t, err)
	assert.Equal(t, -512, x)
	assert.Equal(t, 256, y)

	_, _, err = parseOrigin("0.5,1")
	assert.Error(t, err)
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		input   string
		want    color.NRGBA
		wantErr bool
	}{
		{input: "#001996", want: color.NRGBA{R: 0, G: 25, B: 150, A: 255}},
		{input: "d2b478", want: color.NRGBA{R: 210, G: 180, B: 120, A: 255}},
		{input: "#FFFFFF80", want: color.NRGBA{R: 255, G: 255, B: 255, A: 128}},
		{input: "#fff", wantErr: true},
		{input: "#gg0000", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseHexColor(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatHexColor(t *testing.T) {
	assert.Equal(t, "#001996", formatHexColor(color.NRGBA{R: 0, G: 25, B: 150, A: 255}))
	assert.Equal(t, "#ffffff80", formatHexColor(color.NRGBA{R: 255, G: 255, B: 255, A: 128}))

	c := color.NRGBA{R: 12, G: 34, B: 56, A: 255}
	back, err := parseHexColor(formatHexColor(c))
	require.NoError(t, err)
	assert.Equal(t, c, back)
}

func TestParseColors(t *testing.T) {
	got, err := parseColors([]string{"#000000", " #ffffff ", ""})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = parseColors([]string{"#000000,#ffffff"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = parseColors([]string{"#000000", "nope"})
	assert.Error(t, err)
}

func TestParseFloats(t *testing.T) {
	got, err := parseFloats([]string{"0.15", "0.2,0.3", " 1 "})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.15, 0.2, 0.3, 1}, got)

	_, err = parseFloats([]string{"0.1", "x"})
	assert.Error(t, err)
}

func TestParseStages(t *testing.T) {
	got, err := parseStages([]string{"Island", "bands", "scale", "scale"})
	require.NoError(t, err)
	assert.Equal(t, []string{"island", "bands", "scale", "scale"}, got)

	got, err = parseStages(nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = parseStages([]string{"island", "erode"})
	assert.Error(t, err)
}

package transform

import "image/color"

// DefaultThresholds are the terrain band limits, deep water to snow.
var DefaultThresholds = []float64{0.15, 0.2, 0.3, 0.5, 0.7, 0.9, 1}

// DefaultColors pairs with DefaultThresholds.
var DefaultColors = []color.NRGBA{
	{R: 0, G: 25, B: 150, A: 255},    // deep water
	{R: 0, G: 80, B: 170, A: 255},    // shallow water
	{R: 210, G: 180, B: 120, A: 255}, // sand
	{R: 0, G: 150, B: 0, A: 255},     // grass
	{R: 0, G: 100, B: 0, A: 255},     // forest
	{R: 100, G: 100, B: 100, A: 255}, // rock
	{R: 200, G: 200, B: 200, A: 255}, // snow
}

// DefaultBands returns the terrain palette as a transform.
func DefaultBands() *Bands {
	b, err := NewBands(DefaultThresholds, DefaultColors)
	if err != nil {
		panic(err)
	}
	return b
}

// Package imageio converts rendered buffers to images and encodes them.
package imageio

import (
	"image"
	"image/color"
	"math"

	"github.com/MeKo-Tech/noisemap/internal/raster"
)

// ToImage converts a buffer into an 8-bit image. Buffers without colored
// values become *image.Gray; otherwise the result is an opaque *image.NRGBA
// and uncolored values are drawn as gray.
func ToImage(buf raster.Buffer) image.Image {
	bounds := image.Rect(0, 0, buf.Width(), buf.Height())

	if !buf.Colored() {
		img := image.NewGray(bounds)
		for y, row := range buf {
			for x, v := range row {
				img.SetGray(x, y, color.Gray{Y: ToUint8(v.Scalar)})
			}
		}
		return img
	}

	img := image.NewNRGBA(bounds)
	for y, row := range buf {
		for x, v := range row {
			c := v.Color
			if !v.Colored {
				g := ToUint8(v.Scalar)
				c = color.NRGBA{R: g, G: g, B: g, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// ToUint8 clamps a scalar to [0, 255] and truncates it. NaN maps to 0.
func ToUint8(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

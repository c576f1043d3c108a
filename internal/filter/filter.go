// Package filter post-processes rendered images.
package filter

import (
	"image"
	"image/draw"

	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"
)

// Options selects the post-processing steps. Zero values disable a step.
type Options struct {
	// SmoothSigma is the Gaussian blur sigma in pixels.
	SmoothSigma float32
	// Upscale is an integer nearest-neighbour magnification factor.
	Upscale int
}

// Apply runs smoothing, then upscaling. Gray input stays gray.
func Apply(img image.Image, opts Options) image.Image {
	if opts.SmoothSigma > 0 {
		img = Smooth(img, opts.SmoothSigma)
	}
	if opts.Upscale > 1 {
		img = Upscale(img, opts.Upscale)
	}
	return img
}

// Smooth applies a Gaussian blur.
func Smooth(img image.Image, sigma float32) image.Image {
	g := gift.New(gift.GaussianBlur(sigma))

	var dst draw.Image
	if _, ok := img.(*image.Gray); ok {
		dst = image.NewGray(g.Bounds(img.Bounds()))
	} else {
		dst = image.NewNRGBA(g.Bounds(img.Bounds()))
	}

	g.Draw(dst, img)
	return dst
}

// Upscale magnifies img by factor, repeating pixels so band edges stay hard.
func Upscale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	scaled := imaging.Resize(img, b.Dx()*factor, b.Dy()*factor, imaging.NearestNeighbor)

	if _, ok := img.(*image.Gray); !ok {
		return scaled
	}
	gray := image.NewGray(scaled.Bounds())
	draw.Draw(gray, gray.Bounds(), scaled, scaled.Bounds().Min, draw.Src)
	return gray
}

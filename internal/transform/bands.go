package transform

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"sort"
)

var (
	// ErrInvalidBands reports a band configuration that cannot be used.
	ErrInvalidBands = errors.New("invalid color bands")
	// ErrUncoveredRange reports thresholds that stop short of tanh's upper bound.
	ErrUncoveredRange = errors.New("thresholds do not cover tanh range up to 1")
)

// Bands quantizes a scalar into a palette. A value v takes colors[k] for the
// smallest k with thresholds[k] >= tanh(v).
type Bands struct {
	thresholds []float64
	colors     []color.NRGBA
}

// NewBands validates and builds a banding transform. Thresholds must be
// strictly ascending, match colors one to one, and end at or above 1 so every
// tanh output has a band.
func NewBands(thresholds []float64, colors []color.NRGBA) (*Bands, error) {
	if len(thresholds) == 0 {
		return nil, fmt.Errorf("%w: no thresholds", ErrInvalidBands)
	}
	if len(thresholds) != len(colors) {
		return nil, fmt.Errorf("%w: %d thresholds for %d colors", ErrInvalidBands, len(thresholds), len(colors))
	}
	for i, t := range thresholds {
		if math.IsNaN(t) {
			return nil, fmt.Errorf("%w: threshold %d is NaN", ErrInvalidBands, i)
		}
		if i > 0 && t <= thresholds[i-1] {
			return nil, fmt.Errorf("%w: threshold %d (%g) not above %g", ErrInvalidBands, i, t, thresholds[i-1])
		}
	}
	if last := thresholds[len(thresholds)-1]; last < 1 {
		return nil, fmt.Errorf("%w: %w (last is %g)", ErrInvalidBands, ErrUncoveredRange, last)
	}

	return &Bands{
		thresholds: append([]float64(nil), thresholds...),
		colors:     append([]color.NRGBA(nil), colors...),
	}, nil
}

// Index returns the band selected for scalar v. NaN falls into the last band.
func (b *Bands) Index(v float64) int {
	t := math.Tanh(v)
	k := sort.Search(len(b.thresholds), func(i int) bool { return b.thresholds[i] >= t })
	if k == len(b.thresholds) {
		k = len(b.thresholds) - 1
	}
	return k
}

// Apply colors the value.
func (b *Bands) Apply(v Value, _, _ int) Value {
	v.Color = b.colors[b.Index(v.Scalar)]
	v.Colored = true
	return v
}

// Len returns the number of bands.
func (b *Bands) Len() int { return len(b.thresholds) }

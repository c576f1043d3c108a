package raster

import "github.com/MeKo-Tech/noisemap/internal/transform"

// Buffer is a row-major grid of rendered values.
type Buffer [][]transform.Value

// Height is the number of rows.
func (b Buffer) Height() int { return len(b) }

// Width is the number of columns, taken from the first row.
func (b Buffer) Width() int {
	if len(b) == 0 {
		return 0
	}
	return len(b[0])
}

// Empty reports whether the buffer holds no pixels.
func (b Buffer) Empty() bool { return b.Width() == 0 || b.Height() == 0 }

// Colored reports whether any value was assigned a color by a transform.
func (b Buffer) Colored() bool {
	for _, row := range b {
		for _, v := range row {
			if v.Colored {
				return true
			}
		}
	}
	return false
}

// Scalars returns the scalar component of every value, row-major.
func (b Buffer) Scalars() [][]float64 {
	out := make([][]float64, len(b))
	for y, row := range b {
		out[y] = make([]float64, len(row))
		for x, v := range row {
			out[y][x] = v.Scalar
		}
	}
	return out
}

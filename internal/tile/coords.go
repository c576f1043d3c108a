// Package tile addresses fixed-size square tiles of the lattice plane.
package tile

import (
	"fmt"
)

// Coords represents a tile coordinate (z/x/y). X counts columns and Y counts
// rows from the grid origin.
type Coords struct {
	Z uint32 // Zoom level
	X uint32 // X coordinate (column)
	Y uint32 // Y coordinate (row)
}

// String returns the tile coordinate as a string in format "z{zoom}_x{x}_y{y}"
func (c Coords) String() string {
	return fmt.Sprintf("z%d_x%d_y%d", c.Z, c.X, c.Y)
}

// Path returns the file path for this tile
func (c Coords) Path(extension string) string {
	return fmt.Sprintf("%s.%s", c.String(), extension)
}

// NewCoords creates a new Coords from zoom, x, y values
func NewCoords(z, x, y uint32) Coords {
	return Coords{Z: z, X: x, Y: y}
}

// ParseCoords parses a tile string like "z3_x4_y2" into Coords. Only the
// canonical form produced by String is accepted.
func ParseCoords(s string) (Coords, error) {
	var c Coords
	_, err := fmt.Sscanf(s, "z%d_x%d_y%d", &c.Z, &c.X, &c.Y)
	if err != nil || c.String() != s {
		return Coords{}, fmt.Errorf("invalid tile coordinate format: %s", s)
	}
	return c, nil
}

// Grid lays Cols x Rows tiles of TileSize lattice units over the plane,
// starting at (OriginX, OriginY). All of its tiles share one zoom level, the
// smallest that fits the grid in a 2^z x 2^z tile pyramid level.
type Grid struct {
	OriginX  int
	OriginY  int
	TileSize int
	Cols     int
	Rows     int
}

// Validate reports grids that cannot be rendered.
func (g Grid) Validate() error {
	if g.TileSize <= 0 {
		return fmt.Errorf("tile size must be positive, got %d", g.TileSize)
	}
	if g.Cols <= 0 || g.Rows <= 0 {
		return fmt.Errorf("grid must have at least one column and row, got %dx%d", g.Cols, g.Rows)
	}
	return nil
}

// Zoom returns the zoom level shared by the grid's tiles.
func (g Grid) Zoom() uint32 {
	return ZoomFor(max(g.Cols, g.Rows))
}

// Count returns the number of tiles in the grid.
func (g Grid) Count() int {
	if g.Cols <= 0 || g.Rows <= 0 {
		return 0
	}
	return g.Cols * g.Rows
}

// Contains reports whether c addresses a tile of this grid.
func (g Grid) Contains(c Coords) bool {
	return c.Z == g.Zoom() && int(c.X) < g.Cols && int(c.Y) < g.Rows
}

// Region returns the lattice rectangle [x1, x2) x [y1, y2) covered by c.
func (g Grid) Region(c Coords) (x1, y1, x2, y2 int) {
	x1 = g.OriginX + int(c.X)*g.TileSize
	y1 = g.OriginY + int(c.Y)*g.TileSize
	return x1, y1, x1 + g.TileSize, y1 + g.TileSize
}

// Tiles returns every tile of the grid, row by row.
func (g Grid) Tiles() []Coords {
	tiles := make([]Coords, 0, g.Count())
	z := g.Zoom()
	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Cols; x++ {
			tiles = append(tiles, NewCoords(z, uint32(x), uint32(y)))
		}
	}
	return tiles
}

// ZoomFor returns the smallest z with 2^z >= n.
func ZoomFor(n int) uint32 {
	var z uint32
	for (1 << z) < n {
		z++
	}
	return z
}

package cmd

import (
	"fmt"
	"strconv"

	"github.com/MeKo-Tech/noisemap/internal/tile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func addGridFlags(cmd *cobra.Command, prefix string) {
	cmd.Flags().String("origin", "0,0", "Lattice point of the top-left tile corner as x,y")
	cmd.Flags().Int("tile-size", 256, "Tile size in lattice units")
	cmd.Flags().Int("cols", 4, "Number of tile columns")
	cmd.Flags().Int("rows", 4, "Number of tile rows")

	mustBindFlags(cmd, prefix, []flagBinding{
		{"origin", "origin"},
		{"tile_size", "tile-size"},
		{"cols", "cols"},
		{"rows", "rows"},
	})
}

func loadGrid(prefix string) (tile.Grid, error) {
	ox, oy, err := parseOrigin(viper.GetString(prefix + ".origin"))
	if err != nil {
		return tile.Grid{}, fmt.Errorf("invalid origin: %w", err)
	}

	grid := tile.Grid{
		OriginX:  ox,
		OriginY:  oy,
		TileSize: viper.GetInt(prefix + ".tile_size"),
		Cols:     viper.GetInt(prefix + ".cols"),
		Rows:     viper.GetInt(prefix + ".rows"),
	}
	if err := grid.Validate(); err != nil {
		return tile.Grid{}, err
	}
	return grid, nil
}

func gridParams(grid tile.Grid) map[string]string {
	return map[string]string{
		"origin":    fmt.Sprintf("%d,%d", grid.OriginX, grid.OriginY),
		"tile_size": strconv.Itoa(grid.TileSize),
		"cols":      strconv.Itoa(grid.Cols),
		"rows":      strconv.Itoa(grid.Rows),
	}
}

package cmd

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Stage names accepted by --stages.
const (
	stageIsland = "island"
	stageBands  = "bands"
	stageScale  = "scale"
)

var knownStages = []string{stageIsland, stageBands, stageScale}

// splitList trims items and drops empty ones. Single items may themselves be
// comma-separated, as happens with values from env vars or config strings.
func splitList(items []string) []string {
	parts := lo.FlatMap(items, func(item string, _ int) []string {
		return strings.Split(item, ",")
	})
	return lo.Compact(lo.Map(parts, func(p string, _ int) string {
		return strings.TrimSpace(p)
	}))
}

func parseFloats(items []string) ([]float64, error) {
	parts := splitList(items)
	out := make([]float64, 0, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number at position %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseInts(s string, n int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma-separated values, got %d", n, len(parts))
	}

	out := make([]int, n)
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid integer at position %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// parseRegion parses "x1,y1,x2,y2". Reversed ranges are accepted and render
// as empty.
func parseRegion(s string) ([4]int, error) {
	vals, err := parseInts(s, 4)
	if err != nil {
		return [4]int{}, err
	}
	return [4]int{vals[0], vals[1], vals[2], vals[3]}, nil
}

// parseOrigin parses an integer lattice point "x,y".
func parseOrigin(s string) (int, int, error) {
	vals, err := parseInts(s, 2)
	if err != nil {
		return 0, 0, err
	}
	return vals[0], vals[1], nil
}

// parseCenter parses a point "x,y" with fractional coordinates.
func parseCenter(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected 2 comma-separated values, got %d", len(parts))
	}
	vals, err := parseFloats(parts)
	if err != nil {
		return 0, 0, err
	}
	if len(vals) != 2 {
		return 0, 0, fmt.Errorf("expected 2 comma-separated values, got %d", len(vals))
	}
	return vals[0], vals[1], nil
}

// parseHexColor accepts "#rrggbb" or "#rrggbbaa", with or without the '#'.
func parseHexColor(s string) (color.NRGBA, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(raw) != 6 && len(raw) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: expected rrggbb or rrggbbaa", s)
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}

	c := color.NRGBA{R: b[0], G: b[1], B: b[2], A: 255}
	if len(b) == 4 {
		c.A = b[3]
	}
	return c, nil
}

func parseColors(items []string) ([]color.NRGBA, error) {
	parts := splitList(items)
	out := make([]color.NRGBA, 0, len(parts))
	for _, p := range parts {
		c, err := parseHexColor(p)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func formatHexColor(c color.NRGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

func parseStages(items []string) ([]string, error) {
	stages := lo.Map(splitList(items), func(s string, _ int) string {
		return strings.ToLower(s)
	})
	for _, s := range stages {
		if !lo.Contains(knownStages, s) {
			return nil, fmt.Errorf("unknown stage %q: must be one of %s", s, strings.Join(knownStages, ", "))
		}
	}
	return stages, nil
}

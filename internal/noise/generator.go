// Package noise samples layered coherent noise over the 2D lattice plane.
package noise

import (
	"fmt"
	"strings"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Generator is a deterministic 2D coherent-noise function.
// Implementations must be safe for concurrent Eval2 calls once built.
type Generator interface {
	Eval2(x, y float64) float64
}

// Backend selects the coherent-noise algorithm behind each octave.
type Backend string

const (
	BackendOpenSimplex Backend = "opensimplex"
	BackendPerlin      Backend = "perlin"
)

// ParseBackend resolves a backend name as given on the command line.
func ParseBackend(name string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(name))); b {
	case "", BackendOpenSimplex:
		return BackendOpenSimplex, nil
	case BackendPerlin:
		return BackendPerlin, nil
	default:
		return "", fmt.Errorf("unknown noise backend %q (want %s or %s)", name, BackendOpenSimplex, BackendPerlin)
	}
}

// newGenerator builds one octave generator for the backend.
func newGenerator(b Backend, seed int64) Generator {
	switch b {
	case BackendPerlin:
		// A single perlin octave; layering is done by the Sampler.
		return perlinGenerator{p: perlin.NewPerlin(2.0, 2.0, 1, seed)}
	default:
		return opensimplex.New(seed)
	}
}

type perlinGenerator struct {
	p *perlin.Perlin
}

func (g perlinGenerator) Eval2(x, y float64) float64 {
	return g.p.Noise2D(x, y)
}

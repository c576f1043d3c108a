package noise

import "math/rand/v2"

// Config describes a Sampler. A nil Seed means a fresh random seed is drawn
// when the Sampler is built.
type Config struct {
	Seed      *int64
	Frequency float64
	Offset    float64
	Octaves   int
	Backend   Backend
}

// DefaultConfig returns the sampler defaults: frequency 0.5, offset 1000,
// a single opensimplex octave and a random seed.
func DefaultConfig() Config {
	return Config{
		Frequency: 0.5,
		Offset:    1000,
		Octaves:   1,
		Backend:   BackendOpenSimplex,
	}
}

// Seed returns a pointer to s, for use in Config literals.
func Seed(s int64) *int64 {
	return &s
}

// RandomSeed draws a seed uniformly over the full signed 64-bit range.
func RandomSeed() int64 {
	return int64(rand.Uint64())
}

// Sampler sums octaves of coherent noise. It is immutable after New and safe
// for concurrent use.
type Sampler struct {
	gens      []Generator
	seed      int64
	frequency float64
	offset    float64
}

// New builds a Sampler. Octaves below 1 are clamped to 1, and every octave
// generator shares the same seed.
func New(cfg Config) *Sampler {
	seed := RandomSeed()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}

	octaves := cfg.Octaves
	if octaves < 1 {
		octaves = 1
	}

	gens := make([]Generator, octaves)
	for i := range gens {
		gens[i] = newGenerator(cfg.Backend, seed)
	}

	return &Sampler{
		gens:      gens,
		seed:      seed,
		frequency: cfg.Frequency,
		offset:    cfg.Offset,
	}
}

// Sample returns the weighted octave sum at (x, y).
//
// Octave i is evaluated at ((x*f)*(i+1) + o*(i+1), (y*f)*(i+1) + o*(i+1)) and
// weighted by 1/(i+1). The sum is not normalized, so with several octaves it
// can leave the single-octave range.
func (s *Sampler) Sample(x, y float64) float64 {
	v := 0.0
	for i, gen := range s.gens {
		k := float64(i + 1)
		v += gen.Eval2(
			(x*s.frequency)*k+s.offset*k,
			(y*s.frequency)*k+s.offset*k,
		) * (1 / k)
	}
	return v
}

// Seed reports the seed every octave was built with.
func (s *Sampler) Seed() int64 { return s.seed }

// Octaves reports the effective (clamped) octave count.
func (s *Sampler) Octaves() int { return len(s.gens) }

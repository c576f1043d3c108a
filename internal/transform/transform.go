// Package transform shapes raw noise samples into pixel values.
//
// A Transform maps a Value plus the lattice coordinate it was sampled at to a
// new Value. Transforms are stateless and compose with Multiple.
package transform

import (
	"image/color"
	"math"
)

// Value is what flows through a transform chain: a scalar, until a stage
// assigns a color. A colored Value keeps the scalar it was derived from.
type Value struct {
	Color   color.NRGBA
	Scalar  float64
	Colored bool
}

// Scalar wraps a raw sample.
func Scalar(v float64) Value {
	return Value{Scalar: v}
}

// Transform maps a value sampled at lattice point (x, y).
type Transform interface {
	Apply(v Value, x, y int) Value
}

// TransformFunc adapts an ordinary function to a Transform.
type TransformFunc func(v Value, x, y int) Value

// Apply calls f(v, x, y).
func (f TransformFunc) Apply(v Value, x, y int) Value {
	return f(v, x, y)
}

// Chain applies its stages in order. Every stage sees the original (x, y);
// the value is threaded from one stage to the next. An empty Chain is the
// identity.
type Chain []Transform

// Multiple composes transforms left to right.
func Multiple(ts ...Transform) Chain {
	return Chain(ts)
}

// Apply threads v through every stage.
func (c Chain) Apply(v Value, x, y int) Value {
	for _, t := range c {
		v = t.Apply(v, x, y)
	}
	return v
}

// Scale multiplies the scalar by Factor.
type Scale struct {
	Factor float64
}

// Linear is the default transform: v -> v*255.
func Linear() Scale {
	return Scale{Factor: 255}
}

// Apply scales the scalar component.
func (s Scale) Apply(v Value, _, _ int) Value {
	v.Scalar *= s.Factor
	return v
}

// Island attenuates the scalar with distance from (CX, CY):
//
//	|v * tanh(Radius / (dist((x,y),(CX,CY)) + 1))|
//
// The +1 keeps the center finite, where the factor is tanh(Radius).
type Island struct {
	CX, CY float64
	Radius float64
}

// Apply applies the falloff to the scalar component.
func (is Island) Apply(v Value, x, y int) Value {
	dx, dy := float64(x)-is.CX, float64(y)-is.CY
	dist := math.Sqrt(dx*dx + dy*dy)
	v.Scalar = math.Abs(v.Scalar * math.Tanh(is.Radius/(dist+1)))
	return v
}

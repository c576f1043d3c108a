// Package raster walks rectangular lattice regions and turns noise samples
// into pixel buffers.
package raster

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/noisemap/internal/transform"
	"github.com/MeKo-Tech/noisemap/internal/worker"
)

// Sampler returns the raw noise value at a lattice coordinate.
type Sampler interface {
	Sample(x, y float64) float64
}

// Driver evaluates sampler and transform over lattice regions.
type Driver struct {
	sampler    Sampler
	transform  transform.Transform
	logger     *slog.Logger
	onProgress worker.ProgressFunc
	workers    int
}

// Option configures a Driver.
type Option func(*Driver)

// WithWorkers sets how many rows AreaContext renders concurrently.
func WithWorkers(n int) Option {
	return func(d *Driver) { d.workers = n }
}

// WithProgress registers a callback invoked as AreaContext finishes rows.
func WithProgress(fn worker.ProgressFunc) Option {
	return func(d *Driver) { d.onProgress = fn }
}

// WithLogger sets the logger used for render diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// New creates a Driver. A nil transform means transform.Linear().
func New(s Sampler, t transform.Transform, opts ...Option) *Driver {
	if t == nil {
		t = transform.Linear()
	}
	d := &Driver{
		sampler:   s,
		transform: t,
		workers:   1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Point samples and transforms a single lattice point.
func (d *Driver) Point(x, y int) transform.Value {
	v := d.sampler.Sample(float64(x), float64(y))
	return d.transform.Apply(transform.Scalar(v), x, y)
}

// Line returns the values for x in [x1, x2) on row y. A reversed range is empty.
func (d *Driver) Line(x1, x2, y int) []transform.Value {
	row := make([]transform.Value, 0, span(x1, x2))
	for x := x1; x < x2; x++ {
		row = append(row, d.Point(x, y))
	}
	return row
}

// Area renders rows y in [y1, y2), each covering x in [x1, x2), sequentially.
// Reversed or degenerate ranges yield an empty buffer.
func (d *Driver) Area(x1, y1, x2, y2 int) Buffer {
	buf := make(Buffer, 0, span(y1, y2))
	for y := y1; y < y2; y++ {
		buf = append(buf, d.Line(x1, x2, y))
	}
	return buf
}

// AreaContext renders the same buffer as Area using the worker pool. Rows
// are placed by index, so the result matches Area exactly.
func (d *Driver) AreaContext(ctx context.Context, x1, y1, x2, y2 int) (Buffer, error) {
	height := span(y1, y2)
	buf := make(Buffer, height)
	if height == 0 {
		return buf, nil
	}

	tasks := make([]worker.Task, height)
	for i := range tasks {
		tasks[i] = worker.Task{Index: i, Y: y1 + i}
	}

	start := time.Now()
	pool := worker.New(worker.Config{
		Workers:    d.workers,
		Renderer:   rowRenderer{d: d, x1: x1, x2: x2},
		OnProgress: d.onProgress,
	})

	for _, res := range pool.Run(ctx, tasks) {
		if res.Err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("failed to render row %d: %w", res.Task.Y, res.Err)
		}
		buf[res.Task.Index] = res.Values
	}

	d.log().Debug("Rendered area",
		"x1", x1, "y1", y1, "x2", x2, "y2", y2,
		"workers", d.workers,
		"ms", time.Since(start).Milliseconds(),
	)
	return buf, nil
}

func (d *Driver) log() *slog.Logger {
	if d.logger != nil {
		return d.logger
	}
	return slog.Default()
}

// rowRenderer adapts a Driver and a column range to worker.RowRenderer.
type rowRenderer struct {
	d      *Driver
	x1, x2 int
}

func (r rowRenderer) RenderRow(ctx context.Context, y int) ([]transform.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.d.Line(r.x1, r.x2, y), nil
}

func span(lo, hi int) int {
	if hi <= lo {
		return 0
	}
	return hi - lo
}

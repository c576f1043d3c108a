// Package worker renders raster rows in parallel.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/MeKo-Tech/noisemap/internal/transform"
)

// RowRenderer produces the values of one raster row.
type RowRenderer interface {
	RenderRow(ctx context.Context, y int) ([]transform.Value, error)
}

// Task is a single row to render. Index is the row's position in the output
// buffer; Y is its lattice coordinate.
type Task struct {
	Index int
	Y     int
}

// Result represents the outcome of a row task.
type Result struct {
	Task    Task
	Values  []transform.Value
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is called after each task completes.
type ProgressFunc func(completed, total, failed int)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Renderer   RowRenderer
	OnProgress ProgressFunc
}

// Pool manages parallel row rendering.
type Pool struct {
	workers    int
	renderer   RowRenderer
	onProgress ProgressFunc
}

// New creates a new worker pool.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:    workers,
		renderer:   cfg.Renderer,
		onProgress: cfg.OnProgress,
	}
}

// Run executes all tasks and returns results in completion order.
// The function blocks until all tasks complete or the context is cancelled;
// tasks picked up after cancellation report ctx.Err().
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	taskCh := make(chan Task, len(tasks))
	resultCh := make(chan Result, len(tasks))

	var (
		completed int
		failed    int
		mu        sync.Mutex
	)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, taskCh, resultCh)
		}()
	}

	// Every task is queued so each one yields exactly one result.
	for _, task := range tasks {
		taskCh <- task
	}
	close(taskCh)

	results := make([]Result, 0, len(tasks))
	done := make(chan struct{})

	go func() {
		for result := range resultCh {
			results = append(results, result)

			mu.Lock()
			completed++
			if result.Err != nil {
				failed++
			}
			c, f := completed, failed
			mu.Unlock()

			if p.onProgress != nil {
				p.onProgress(c, len(tasks), f)
			}
		}
		close(done)
	}()

	wg.Wait()
	close(resultCh)

	<-done

	return results
}

// worker processes tasks from the task channel and sends results to the result channel.
func (p *Pool) worker(ctx context.Context, tasks <-chan Task, results chan<- Result) {
	for task := range tasks {
		select {
		case <-ctx.Done():
			results <- Result{
				Task: task,
				Err:  ctx.Err(),
			}
			continue
		default:
		}

		start := time.Now()
		values, err := p.renderer.RenderRow(ctx, task.Y)
		elapsed := time.Since(start)

		results <- Result{
			Task:    task,
			Values:  values,
			Err:     err,
			Elapsed: elapsed,
		}
	}
}

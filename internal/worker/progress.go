package worker

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Progress tracks render progress and draws it as a terminal progress bar.
type Progress struct {
	startTime time.Time
	bar       *progressbar.ProgressBar
	unit      string
	total     int
	completed int
	failed    int
	mu        sync.RWMutex
}

// NewProgress creates a progress tracker drawing to stderr. A disabled
// tracker still counts, so Summary stays meaningful.
func NewProgress(total int, unit string, enabled bool) *Progress {
	if !enabled {
		return newProgress(nil, total, unit)
	}
	return newProgress(os.Stderr, total, unit)
}

// NewProgressWriter creates a progress tracker drawing to w.
func NewProgressWriter(w io.Writer, total int, unit string) *Progress {
	return newProgress(w, total, unit)
}

func newProgress(w io.Writer, total int, unit string) *Progress {
	p := &Progress{
		total:     total,
		unit:      unit,
		startTime: time.Now(),
	}
	if w != nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("rendering "+unit),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
		)
	}
	return p
}

// Update records the completion of a task.
func (p *Progress) Update(completed, total, failed int) {
	p.mu.Lock()
	p.completed = completed
	p.total = total
	p.failed = failed
	p.mu.Unlock()

	if p.bar == nil {
		return
	}
	if failed > 0 {
		p.bar.Describe(fmt.Sprintf("rendering %s (%d failed)", p.unit, failed))
	}
	_ = p.bar.Set(completed)
}

// Callback returns a ProgressFunc suitable for use with Pool.Config.
func (p *Progress) Callback() ProgressFunc {
	return p.Update
}

// Done completes the bar and ends its line.
func (p *Progress) Done() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}

// Summary returns a summary string of the completed work.
func (p *Progress) Summary() string {
	p.mu.RLock()
	completed := p.completed
	total := p.total
	failed := p.failed
	startTime := p.startTime
	p.mu.RUnlock()

	elapsed := time.Since(startTime)
	successful := completed - failed

	var rate float64
	if elapsed.Seconds() > 0 {
		rate = float64(completed) / elapsed.Seconds()
	}

	return fmt.Sprintf("Rendered %d/%d %s (%d failed) in %s (%.1f %s/sec)",
		successful, total, p.unit, failed, formatDuration(elapsed), rate, p.unit)
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		secs := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", mins, secs)
	}
	hours := int(d.Hours())
	mins := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", hours, mins)
}

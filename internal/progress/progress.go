// Package progress reports ingestion progress: a spinner with a running item
// count on a terminal, nothing otherwise. Reporters are fed the count
// notifications of a collection.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/rescale/rescale-browse/internal/constants"
	"github.com/rescale/rescale-browse/internal/events"
)

// Reporter is the interface for reporting ingestion progress.
type Reporter interface {
	Start(description string)
	Update(count int64)
	Finish()
	Error(err error)

	// Observe feeds count notifications to Update; other events are ignored.
	Observe(ev events.Event)
}

// NewReporter returns a CLIProgress writing to f when f is a terminal, and a
// NoOpProgress otherwise so piped output stays clean.
func NewReporter(f *os.File) Reporter {
	if f != nil && term.IsTerminal(int(f.Fd())) {
		return NewCLIProgress(f)
	}
	return NewNoOpProgress()
}

// CLIProgress implements progress reporting using a spinner bar. The total
// of a streamed listing is unknown, so the bar counts items instead.
type CLIProgress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

// NewCLIProgress creates a new CLI progress reporter writing to w.
func NewCLIProgress(w io.Writer) *CLIProgress {
	return &CLIProgress{w: w}
}

// Start initializes the progress bar with a description.
func (p *CLIProgress) Start(description string) {
	p.bar = progressbar.NewOptions64(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetItsString("items"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(constants.ProgressUpdateInterval),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(p.w, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Update moves the bar to count items.
func (p *CLIProgress) Update(count int64) {
	if p.bar != nil {
		_ = p.bar.Set64(count)
	}
}

// Finish completes the progress bar.
func (p *CLIProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// Error displays an error message.
func (p *CLIProgress) Error(err error) {
	if err != nil {
		fmt.Fprintf(p.w, "\nError: %v\n", err)
	}
}

// Observe updates the bar from count notifications.
func (p *CLIProgress) Observe(ev events.Event) {
	if c, ok := ev.(*events.CountChangedEvent); ok {
		p.Update(int64(c.Count))
	}
}

// NoOpProgress is a progress reporter that does nothing (for piped or silent output).
type NoOpProgress struct{}

// NewNoOpProgress creates a new no-op progress reporter.
func NewNoOpProgress() *NoOpProgress {
	return &NoOpProgress{}
}

// Start does nothing.
func (p *NoOpProgress) Start(description string) {}

// Update does nothing.
func (p *NoOpProgress) Update(count int64) {}

// Finish does nothing.
func (p *NoOpProgress) Finish() {}

// Error does nothing.
func (p *NoOpProgress) Error(err error) {}

// Observe does nothing.
func (p *NoOpProgress) Observe(ev events.Event) {}

// FormatBytes returns a human-readable byte count.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

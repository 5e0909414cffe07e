package batch

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressCallback receives progress reports while a batch runs. Calls are
// serialized by the runner.
type ProgressCallback interface {
	// OnStart is called once with the number of files to scan.
	OnStart(total int)
	// OnProgress is called after each file.
	OnProgress(current, total int)
	// OnError is called when a file fails.
	OnError(path string, err error)
	// OnComplete is called when the batch is finished.
	OnComplete()
}

// NoOpProgressCallback implements ProgressCallback but does nothing.
type NoOpProgressCallback struct{}

func (NoOpProgressCallback) OnStart(int)           {}
func (NoOpProgressCallback) OnProgress(int, int)   {}
func (NoOpProgressCallback) OnError(string, error) {}
func (NoOpProgressCallback) OnComplete()           {}

// ConsoleProgressCallback displays a progress bar on the console.
type ConsoleProgressCallback struct {
	writer         io.Writer
	prefix         string
	width          int
	updateInterval time.Duration

	mu         sync.Mutex
	startTime  time.Time
	lastUpdate time.Time
}

// NewConsoleProgressCallback creates a console progress reporter writing
// to writer, or stderr when nil.
func NewConsoleProgressCallback(writer io.Writer, prefix string) *ConsoleProgressCallback {
	if writer == nil {
		writer = os.Stderr
	}
	return &ConsoleProgressCallback{
		writer:         writer,
		prefix:         prefix,
		width:          40,
		updateInterval: 100 * time.Millisecond,
	}
}

// WithUpdateInterval sets how frequently the progress bar updates.
func (c *ConsoleProgressCallback) WithUpdateInterval(interval time.Duration) *ConsoleProgressCallback {
	c.updateInterval = interval
	return c
}

func (c *ConsoleProgressCallback) OnStart(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startTime = time.Now()
	c.lastUpdate = time.Time{}
	_, _ = fmt.Fprintf(c.writer, "%s0/%d\n", c.prefix, total)
}

func (c *ConsoleProgressCallback) OnProgress(current, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if now.Sub(c.lastUpdate) < c.updateInterval && current < total {
		return
	}
	c.lastUpdate = now
	c.drawProgressBar(current, total, now)
}

func (c *ConsoleProgressCallback) OnError(path string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.writer, "\n%s%s: %v\n", c.prefix, path, err)
}

func (c *ConsoleProgressCallback) OnComplete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.writer, "\n%sCompleted in %v\n", c.prefix, time.Since(c.startTime).Round(time.Millisecond))
}

func (c *ConsoleProgressCallback) drawProgressBar(current, total int, now time.Time) {
	if total == 0 {
		return
	}
	filled := c.width * current / total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", c.width-filled)
	line := fmt.Sprintf("\r%s[%s] %d/%d (%.1f%%)", c.prefix, bar, current, total,
		float64(current)/float64(total)*100)

	if elapsed := now.Sub(c.startTime); elapsed > 0 && current > 0 {
		line += fmt.Sprintf(" %.1f/s", float64(current)/elapsed.Seconds())
		if current < total {
			eta := time.Duration(float64(elapsed) * float64(total-current) / float64(current))
			line += fmt.Sprintf(" ETA: %v", eta.Round(time.Second))
		}
	}
	_, _ = fmt.Fprint(c.writer, line)
}

// LogProgressCallback logs progress updates using slog.
type LogProgressCallback struct {
	logger    *slog.Logger
	interval  int
	lastLog   int
	startTime time.Time
}

// NewLogProgressCallback creates a log-based progress reporter that logs
// every interval files.
func NewLogProgressCallback(logger *slog.Logger, interval int) *LogProgressCallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProgressCallback{logger: logger, interval: max(1, interval)}
}

func (l *LogProgressCallback) OnStart(total int) {
	l.startTime = time.Now()
	l.lastLog = 0
	l.logger.Info("Batch started", "files", total)
}

func (l *LogProgressCallback) OnProgress(current, total int) {
	if current-l.lastLog < l.interval && current != total {
		return
	}
	l.lastLog = current
	l.logger.Info("Batch progress",
		"current", current,
		"total", total,
		"elapsed", time.Since(l.startTime).Round(time.Millisecond))
}

func (l *LogProgressCallback) OnError(path string, err error) {
	l.logger.Warn("Batch file failed", "file", path, "error", err)
}

func (l *LogProgressCallback) OnComplete() {
	l.logger.Info("Batch completed", "elapsed", time.Since(l.startTime).Round(time.Millisecond))
}

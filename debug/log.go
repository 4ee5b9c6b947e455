package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	out      io.Writer
	closer   io.Closer
	mu       sync.Mutex
	enabled  bool
	muted    = make(map[string]bool)
	counters = make(map[string]int)
)

// DefaultPath returns ~/.config/go-daw/debug.log
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-daw", "debug.log"), nil
}

// Enable starts debug logging to path (DefaultPath if empty). The file is truncated.
func Enable(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return fmt.Errorf("debug log path: %w", err)
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("open debug log: %w", err)
	}

	out, closer, enabled = f, f, true
	write("debug", "=== go-daw debug log started ===")
	return nil
}

// EnableWriter sends log lines to w (tests, and miditest monitor --verbose).
func EnableWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out, closer, enabled = w, nil, true
}

// Disable stops debug logging and closes the log file
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if closer != nil {
		closer.Close()
	}
	out, closer, enabled = nil, nil, false
}

// Mute silences one category (e.g. "engine" while profiling the render loop).
func Mute(category string, on bool) {
	mu.Lock()
	defer mu.Unlock()
	muted[category] = on
}

// Log writes a message to the debug log
func Log(category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if !enabled || out == nil || muted[category] {
		return
	}
	write(category, fmt.Sprintf(format, args...))
}

// caller holds mu
func write(category, msg string) {
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(out, "[%s] %-10s %s\n", ts, category, msg)
	if f, ok := out.(*os.File); ok {
		f.Sync() // flush so the tail survives a crash
	}
}

// LogEvery logs only every n calls (for render-rate and drag-over events)
func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if n <= 1 || count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}

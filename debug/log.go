// Package debug is a category-tagged trace log for the engine. It is off
// unless enabled and costs one mutex check per call when off.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
)

var (
	mu       sync.Mutex
	out      io.Writer
	closer   io.Closer
	only     map[string]bool // nil logs every category
	counters = make(map[string]int)
)

// DefaultPath is ~/.config/go-fillin/debug.log
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "go-fillin", "debug.log")
}

// Enable truncates the log at path (DefaultPath if empty) and starts
// writing to it. With categories given, other categories are dropped.
func Enable(path string, categories ...string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fault.Wrap(err, fmsg.With("create log dir"))
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fault.Wrap(err, fmsg.With("open debug log"))
	}
	EnableWriter(f, categories...)
	mu.Lock()
	closer = f
	mu.Unlock()
	return nil
}

// EnableWriter sends the log to w, replacing any previous destination
func EnableWriter(w io.Writer, categories ...string) {
	Disable()

	mu.Lock()
	defer mu.Unlock()
	out = w
	only = nil
	if len(categories) > 0 {
		only = make(map[string]bool, len(categories))
		for _, c := range categories {
			only[strings.TrimSpace(c)] = true
		}
	}
	clear(counters)
	write("debug", "=== logging started ===")
}

// ParseCategories reads a FILLIN_DEBUG style value: "1" or "all" means
// every category, otherwise a comma separated list.
func ParseCategories(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" || v == "1" || strings.EqualFold(v, "all") {
		return nil
	}
	return strings.Split(v, ",")
}

func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return out != nil
}

// Disable stops logging and closes the file opened by Enable
func Disable() {
	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		closer.Close()
		closer = nil
	}
	out = nil
}

// Log writes one line if category is being logged
func Log(category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !wants(category) {
		return
	}
	write(category, fmt.Sprintf(format, args...))
}

// LogEvery logs every nth call with the same category and format, for
// per-tick and per-buffer chatter
func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !wants(category) {
		return
	}
	key := category + "\x00" + format
	counters[key]++
	if count := counters[key]; n <= 1 || count%n == 0 {
		write(category, fmt.Sprintf(format, args...)+fmt.Sprintf(" (every %d, count=%d)", n, count))
	}
}

// mu must be held
func wants(category string) bool {
	return out != nil && (only == nil || only[category])
}

// mu must be held
func write(category, msg string) {
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(out, "[%s] %-10s %s\n", ts, category, msg)
	if f, ok := out.(*os.File); ok {
		f.Sync() // survive a crash
	}
}

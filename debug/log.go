package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var (
	logger  = newLogger()
	closer  io.Closer
	mu      sync.Mutex
	enabled atomic.Bool
)

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetFormatter(lineFormatter{})
	l.SetLevel(logrus.DebugLevel)
	return l
}

// lineFormatter writes "[15:04:05.000] category   message"
type lineFormatter struct{}

func (lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	category, _ := e.Data["category"].(string)
	level := ""
	if e.Level <= logrus.WarnLevel {
		level = strings.ToUpper(e.Level.String()) + " "
	}
	return []byte(fmt.Sprintf("[%s] %-10s %s%s\n", e.Time.Format("15:04:05.000"), category, level, e.Message)), nil
}

// syncWriter flushes after every line so the log survives a crash
type syncWriter struct {
	*os.File
}

func (w syncWriter) Write(p []byte) (int, error) {
	n, err := w.File.Write(p)
	if err == nil {
		w.File.Sync()
	}
	return n, err
}

// DefaultPath returns ~/.config/go-midiviz/debug.log
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "go-midiviz", "debug.log")
}

// Enable starts debug logging to path (DefaultPath when empty)
func Enable(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	SetOutput(syncWriter{f})
	Log("debug", "=== Debug logging started ===")
	return nil
}

// SetOutput logs to w. A nil writer disables logging.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	if closer != nil {
		closer.Close()
		closer = nil
	}
	if w == nil {
		enabled.Store(false)
		logger.SetOutput(io.Discard)
		return
	}
	if c, ok := w.(io.Closer); ok {
		closer = c
	}
	logger.SetOutput(w)
	enabled.Store(true)
}

// Disable stops debug logging
func Disable() {
	SetOutput(nil)
}

// Log writes a message to the debug log
func Log(category, format string, args ...any) {
	if !enabled.Load() {
		return
	}
	logger.WithField("category", category).Debugf(format, args...)
}

// Warn logs input that was repaired or dropped
func Warn(category, format string, args ...any) {
	if !enabled.Load() {
		return
	}
	logger.WithField("category", category).Warnf(format, args...)
}

// LogEvery logs only every N calls (use for high-frequency events)
var counters = make(map[string]int)

func LogEvery(n int, category, format string, args ...any) {
	if !enabled.Load() {
		return
	}
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}

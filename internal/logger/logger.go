package logger

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Logger stores lines of log output in memory and appends them to a file on disk. It is an
// io.Writer so a slog handler can write to it.
type Logger struct {
	mu      sync.Mutex
	path    string
	lines   []string
	partial []byte
}

// New returns a Logger that appends to path and ensures its directory exists. An empty path
// keeps lines in memory only.
func New(path string) *Logger {
	if path != "" {
		_ = os.MkdirAll(filepath.Dir(path), 0755)
	}
	return &Logger{path: path, lines: make([]string, 0)}
}

// Write stores every complete line in p. A trailing partial line is held until the next write.
func (l *Logger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.partial = append(l.partial, p...)
	var done []string
	for {
		i := bytes.IndexByte(l.partial, '\n')
		if i < 0 {
			break
		}
		done = append(done, string(l.partial[:i]))
		l.partial = l.partial[i+1:]
	}
	if len(done) == 0 {
		return len(p), nil
	}
	l.lines = append(l.lines, done...)
	l.appendFile(done)
	return len(p), nil
}

func (l *Logger) appendFile(lines []string) {
	if l.path == "" {
		return
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	_, _ = f.WriteString(strings.Join(lines, "\n") + "\n")
	_ = f.Close()
}

// Lines returns a copy of all stored lines.
func (l *Logger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Slog returns a structured logger writing to l and, when echo is non-nil, to echo as well.
// level is one of debug, info, warn, error; format is text or json. Unknown values fall back
// to info and text.
func (l *Logger) Slog(level, format string, echo io.Writer) *slog.Logger {
	var w io.Writer = l
	if echo != nil {
		w = io.MultiWriter(l, echo)
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

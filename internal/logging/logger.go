package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Level names accepted by logging.level, case-insensitively.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// LogFileName is the name of the log file created inside the log directory.
const LogFileName = "tutoradmin.log"

// Logger writes JSON log lines for one tutoradmin run. Children created with
// the With* methods share the parent's file, so closing any of them closes
// the file for all. It is safe for concurrent use.
type Logger struct {
	slog *slog.Logger
	out  *sink
}

// sink owns the log file shared by a logger and its children.
type sink struct {
	mu   sync.Mutex
	file *os.File
}

func (s *sink) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	f := s.file
	s.file = nil
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

// NewLogger opens {logDir}/tutoradmin.log for appending and returns a logger
// that drops records below level. An empty logDir logs to stderr.
func NewLogger(logDir string, level string) (*Logger, error) {
	out := &sink{}
	var w io.Writer = os.Stderr

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(logDir, LogFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out.file = f
		w = f
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slogLevel(level)})
	return &Logger{slog: slog.New(handler), out: out}, nil
}

// NopLogger returns a Logger that discards everything.
func NopLogger() *Logger {
	return &Logger{slog: slog.New(slog.DiscardHandler), out: &sink{}}
}

// ParseLevel normalizes a configured level name. Unknown names become
// LevelInfo.
func ParseLevel(level string) string {
	switch l := strings.ToUpper(strings.TrimSpace(level)); l {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return l
	default:
		return LevelInfo
	}
}

func slogLevel(level string) slog.Level {
	switch ParseLevel(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) child(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...), out: l.out}
}

// WithCommand tags every entry with the cobra command path, such as
// "tutoradmin assign tutors".
func (l *Logger) WithCommand(path string) *Logger {
	return l.child("command", path)
}

// WithRequest tags every entry with the X-Request-ID sent to the API.
func (l *Logger) WithRequest(requestID string) *Logger {
	return l.child("request_id", requestID)
}

// WithCall tags every entry with the HTTP method and endpoint path of an API
// call.
func (l *Logger) WithCall(method, path string) *Logger {
	return l.child("method", method, "path", path)
}

// WithAnchor tags every entry with the record being edited or reviewed.
func (l *Logger) WithAnchor(kind string, id int) *Logger {
	return l.child("anchor_kind", kind, "anchor_id", id)
}

// With tags every entry with alternating keys and values.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}
	return l.child(args...)
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// Close syncs and closes the log file. Later calls, from this logger or any
// of its children, do nothing.
func (l *Logger) Close() error {
	return l.out.close()
}

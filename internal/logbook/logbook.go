package logbook

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Level represents the severity of a log entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// DefaultCapacity bounds how many entries a logbook keeps.
const DefaultCapacity = 200

// Entry is one line of operator-facing activity.
type Entry struct {
	At      time.Time
	Level   Level
	Message string
}

// String renders the entry the way the log panel shows it.
func (e Entry) String() string {
	return fmt.Sprintf("%s %-5s %s", e.At.Format("15:04:05"), string(e.Level), e.Message)
}

// Logbook keeps recent shift activity in memory for the log panel and
// mirrors every entry to zap.
type Logbook struct {
	mu       sync.Mutex
	entries  []Entry
	total    int
	capacity int
	logger   *zap.Logger
	now      func() time.Time
}

// Option customizes a Logbook.
type Option func(*Logbook)

// WithCapacity caps the number of retained entries.
func WithCapacity(n int) Option {
	return func(l *Logbook) {
		if n > 0 {
			l.capacity = n
		}
	}
}

// WithLogger mirrors entries to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Logbook) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Logbook) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates an empty logbook.
func New(opts ...Option) *Logbook {
	l := &Logbook{
		capacity: DefaultCapacity,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append records a single entry.
func (l *Logbook) Append(level Level, message string) {
	if l == nil {
		return
	}
	message = strings.TrimSpace(message)
	l.mu.Lock()
	l.entries = append(l.entries, Entry{At: l.now(), Level: level, Message: message})
	if over := len(l.entries) - l.capacity; over > 0 {
		l.entries = append(l.entries[:0:0], l.entries[over:]...)
	}
	l.total++
	l.mu.Unlock()

	switch level {
	case LevelWarn:
		l.logger.Warn(message, zap.String("source", "logbook"))
	case LevelError:
		l.logger.Error(message, zap.String("source", "logbook"))
	default:
		l.logger.Info(message, zap.String("source", "logbook"))
	}
}

// Tail returns up to maxLines of the most recent entries, oldest first, and
// the total number of entries ever appended.
func (l *Logbook) Tail(maxLines int) ([]string, int) {
	if l == nil {
		return nil, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if maxLines <= 0 || len(l.entries) == 0 {
		return nil, l.total
	}
	start := len(l.entries) - maxLines
	if start < 0 {
		start = 0
	}
	lines := make([]string, 0, len(l.entries)-start)
	for _, e := range l.entries[start:] {
		lines = append(lines, e.String())
	}
	return lines, l.total
}

// Entries returns a copy of the retained entries.
func (l *Logbook) Entries() []Entry {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

// Info appends an informational entry.
func (l *Logbook) Info(format string, args ...any) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (l *Logbook) Warn(format string, args ...any) {
	l.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (l *Logbook) Error(format string, args ...any) {
	l.Append(LevelError, fmt.Sprintf(format, args...))
}

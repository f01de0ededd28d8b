package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"snapmeta/internal/config"
)

const (
	InfoFile    = "info.log"
	WarningFile = "warning.log"
	ErrorFile   = "error.log"
)

// Logger provides leveled logging (info/warning/error) to per-level files
// and stdout.
type Logger struct {
	entry *logrus.Entry
	sink  *sink
}

// sink owns the open log files shared by every Logger derived with WithField.
type sink struct {
	dir   string
	files map[string]*os.File
	mu    sync.Mutex
}

// NewLogger creates a Logger and ensures the log directory exists.
func NewLogger(cfg *config.Config) (*Logger, error) {
	if err := os.MkdirAll(cfg.LogDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	s := &sink{dir: cfg.LogDirectory, files: make(map[string]*os.File)}
	for _, name := range []string{InfoFile, WarningFile, ErrorFile} {
		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("failed to open log file %s: %w", name, err)
		}
		s.files[name] = f
	}

	base := logrus.New()
	base.SetOutput(os.Stdout)
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)
	base.AddHook(newLevelFileHook(s))

	return &Logger{entry: logrus.NewEntry(base), sink: s}, nil
}

// NewNopLogger discards everything. It manages no files, so CleanLogs fails and Path is empty.
func NewNopLogger() *Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &Logger{entry: logrus.NewEntry(base), sink: &sink{files: map[string]*os.File{}}}
}

// WithField returns a Logger that adds key=value to every entry.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value), sink: l.sink}
}

// WithEvent scopes entries to one capture event.
func (l *Logger) WithEvent(id string) *Logger {
	return l.WithField("event", id)
}

// Debug writes a formatted debug-level log entry.
func (l *Logger) Debug(format string, v ...interface{}) {
	l.entry.Debugf(format, v...)
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.entry.Infof(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.entry.Warnf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.entry.Errorf(format, v...)
}

// CleanLogs truncates the specified log file.
func (l *Logger) CleanLogs(fileName string) error {
	l.sink.mu.Lock()
	f, ok := l.sink.files[fileName]
	if !ok {
		l.sink.mu.Unlock()
		return fmt.Errorf("unknown log file %q", fileName)
	}
	err := f.Truncate(0)
	l.sink.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to truncate %s: %w", fileName, err)
	}
	l.Info("Log file %s has been cleared", fileName)
	return nil
}

// Path returns the on-disk location of a log file, or "" if it is not managed.
func (l *Logger) Path(fileName string) string {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	if _, ok := l.sink.files[fileName]; !ok {
		return ""
	}
	return filepath.Join(l.sink.dir, fileName)
}

// Close flushes and closes the log files.
func (l *Logger) Close() error {
	return l.sink.close()
}

func (s *sink) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	for name, f := range s.files {
		err = multierr.Append(err, f.Close())
		delete(s.files, name)
	}
	return err
}

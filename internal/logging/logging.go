// Package logging is devfund's diagnostic log. User-facing output goes through
// internal/ui; this log records RPC traffic, signing and config decisions to a
// rotating file in the config directory, and to stderr with --verbose.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	goerrors "github.com/go-errors/errors"
	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFileName   = "devfund.log"
	logTimeFormat = "2006-01-02 15:04:05.000"
)

var (
	mu     sync.RWMutex
	logger = newDiscardLogger()
	closer io.Closer
)

// Options controls Init.
type Options struct {
	Dir     string // directory for devfund.log; empty disables the file
	Level   string // logrus level name, default "info"
	Verbose bool   // mirror to stderr at debug level
}

// Init replaces the package logger. It is safe to call more than once.
func Init(opts Options) error {
	level := logrus.InfoLevel
	if opts.Level != "" {
		lv, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		level = lv
	}
	if opts.Verbose {
		level = logrus.DebugLevel
	}

	var writers []io.Writer
	var file *lumberjack.Logger
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o700); err != nil {
			return fmt.Errorf("creating log dir: %w", err)
		}
		file = newLogWriter(filepath.Join(opts.Dir, logFileName))
		writers = append(writers, file)
	}
	if opts.Verbose {
		writers = append(writers, os.Stderr)
	}

	l := logrus.New()
	l.SetFormatter(&logFormatter{})
	l.SetLevel(level)
	switch len(writers) {
	case 0:
		l.SetOutput(io.Discard)
	case 1:
		l.SetOutput(writers[0])
	default:
		l.SetOutput(io.MultiWriter(writers...))
	}

	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		closer.Close() //nolint:errcheck
	}
	logger = l
	closer = nil
	if file != nil {
		closer = file
	}
	return nil
}

// Close flushes and closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	logger = newDiscardLogger()
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	return err
}

// L returns the current logger.
func L() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// SetOutput redirects the logger, mainly for tests.
func SetOutput(w io.Writer, level logrus.Level) {
	l := logrus.New()
	l.SetFormatter(&logFormatter{})
	l.SetOutput(w)
	l.SetLevel(level)

	mu.Lock()
	logger = l
	mu.Unlock()
}

// Failure logs err at error level with the stack of the caller attached.
func Failure(err error, fields logrus.Fields) {
	if err == nil {
		return
	}
	wrapped := goerrors.Wrap(err, 1)
	L().WithFields(fields).WithField("stack", string(wrapped.Stack())).Error(err.Error())
}

func newDiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newLogWriter(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
	}
}

// logFormatter prints "time [level] message key=value ...", fields sorted.
type logFormatter struct{}

func (f *logFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s [%s] %s", e.Time.Format(logTimeFormat), e.Level.String(), e.Message)

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		if k == "stack" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Data[k])
	}
	b.WriteByte('\n')

	if stack, ok := e.Data["stack"]; ok {
		fmt.Fprintf(&b, "%v", stack)
	}
	return b.Bytes(), nil
}

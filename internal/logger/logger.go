package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	mu    sync.Mutex
	base  = newLogger(io.Discard)
	debug bool
)

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "ts",
		},
	})
	return l
}

// Init configures JSONL logging into <baseDir>/log/app.log.
// Until it is called every event is discarded.
func Init(baseDir string) error {
	logDir := filepath.Join(baseDir, "log")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(logDir, "app.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	SetOutput(f)
	return nil
}

// SetOutput redirects events to w. Used by tests and by Init.
func SetOutput(w io.Writer) {
	mu.Lock()
	base = newLogger(w)
	mu.Unlock()
}

func SetDebug(enabled bool) {
	mu.Lock()
	debug = enabled
	mu.Unlock()
}

func Debug(msg string, fields map[string]any) {
	mu.Lock()
	enabled := debug
	mu.Unlock()
	if !enabled {
		return
	}
	write(logrus.DebugLevel, msg, fields)
}

func Info(msg string, fields map[string]any) {
	write(logrus.InfoLevel, msg, fields)
}

func Warn(msg string, fields map[string]any) {
	write(logrus.WarnLevel, msg, fields)
}

func Error(msg string, fields map[string]any) {
	write(logrus.ErrorLevel, msg, fields)
}

func write(level logrus.Level, msg string, fields map[string]any) {
	mu.Lock()
	l := base
	mu.Unlock()
	l.WithFields(logrus.Fields(fields)).Log(level, msg)
}

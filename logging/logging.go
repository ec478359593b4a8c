// Package logging builds the logrus logger used by the pricing runs.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Config selects level, format and destination. Output is "stdout",
// "stderr" or a file path; a file with MaxAgeDays > 0 is rotated.
type Config struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	MaxAgeDays int    `yaml:"max_age_days"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
}

// New returns a configured logger.
func New(cfg Config) (*logrus.Logger, error) {
	l := logrus.New()

	level := strings.ToLower(cfg.Level)
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging.New: invalid log level '%s'", cfg.Level)
	}
	l.SetLevel(lvl)

	callerPrettyfier := func(f *runtime.Frame) (string, string) {
		return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
	}
	switch strings.ToLower(cfg.Format) {
	case "json":
		l.SetReportCaller(true)
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
			CallerPrettyfier: callerPrettyfier,
		})
	case "text", "":
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	default:
		return nil, fmt.Errorf("logging.New: invalid log format '%s'", cfg.Format)
	}

	out, err := output(cfg)
	if err != nil {
		return nil, err
	}
	l.SetOutput(out)
	return l, nil
}

func output(cfg Config) (io.Writer, error) {
	switch cfg.Output {
	case "stderr", "":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}
	if cfg.MaxAgeDays > 0 {
		size := cfg.MaxSizeMB
		if size <= 0 {
			size = 100
		}
		return &lumberjack.Logger{
			Filename: cfg.Output,
			MaxAge:   cfg.MaxAgeDays,
			MaxSize:  size,
			Compress: true,
		}, nil
	}
	file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return nil, fmt.Errorf("logging.New: failed to open log file '%s': %w", cfg.Output, err)
	}
	return file, nil
}

// Discard is a logger that drops everything, for library callers that pass
// no logger.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Elapsed renders a duration the way run summaries print it: hours and
// minutes only when non-zero, seconds without decimals.
func Elapsed(d time.Duration) string {
	seconds := d.Seconds()
	hours := int(seconds / 3600)
	seconds -= float64(hours) * 3600
	minutes := int(seconds / 60)
	seconds -= float64(minutes) * 60

	var b strings.Builder
	if hours > 0 {
		fmt.Fprintf(&b, "%d h ", hours)
	}
	if hours > 0 || minutes > 0 {
		fmt.Fprintf(&b, "%d m ", minutes)
	}
	fmt.Fprintf(&b, "%.0f s", seconds)
	return b.String()
}

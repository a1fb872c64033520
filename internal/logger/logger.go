package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation parameters for sidecar output files.
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// SlogConfig controls the application's structured logger.
type SlogConfig struct {
	Level      Level  `json:"level" mapstructure:"level"`
	Format     Format `json:"format" mapstructure:"format"`
	Color      bool   `json:"color" mapstructure:"color"`
	TimeStamps bool   `json:"timestamps" mapstructure:"timestamps"`
	Source     bool   `json:"source" mapstructure:"source"`
}

// FileConfig describes file destinations for mirrored sidecar output.
// If StdoutPath/StderrPath are empty and Dir is set, files will be
// Dir/<name>.stdout.log and Dir/<name>.stderr.log.
// Rotation parameters follow lumberjack semantics.
type FileConfig struct {
	Dir        string `json:"dir" mapstructure:"dir"`
	StdoutPath string `json:"stdout_path" mapstructure:"stdout_path"`
	StderrPath string `json:"stderr_path" mapstructure:"stderr_path"`
	MaxSizeMB  int    `json:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `json:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `json:"compress" mapstructure:"compress"`
}

// Config is the unified logging configuration: structured logging for the
// launcher itself plus rotating file mirrors for the sidecar's output.
type Config struct {
	Slog SlogConfig `json:"slog" mapstructure:"slog"`
	File FileConfig `json:"file" mapstructure:"file"`
}

// NewSlogger builds a *slog.Logger from the Slog section.
func (c Config) NewSlogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     c.Slog.slogLevel(),
		AddSource: c.Slog.Source,
	}
	if c.Slog.Format == FormatJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	if c.Slog.Color {
		return slog.New(NewColorTextHandler(os.Stderr, opts, c.Slog.TimeStamps))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func (s SlogConfig) slogLevel() slog.Level {
	switch s.Level {
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

// ProcessWriters returns io.WriteClosers mirroring stdout and stderr of the
// named sidecar process. Both are nil when no file destination is configured.
func (c Config) ProcessWriters(name string) (io.WriteCloser, io.WriteCloser, error) {
	stdout := c.File.StdoutPath
	stderr := c.File.StderrPath
	if stdout == "" && c.File.Dir != "" {
		stdout = filepath.Join(c.File.Dir, fmt.Sprintf("%s.stdout.log", name))
	}
	if stderr == "" && c.File.Dir != "" {
		stderr = filepath.Join(c.File.Dir, fmt.Sprintf("%s.stderr.log", name))
	}
	var outW io.WriteCloser
	var errW io.WriteCloser
	if stdout != "" {
		outW = &lj.Logger{
			Filename:   stdout,
			MaxSize:    valOr(c.File.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: valOr(c.File.MaxBackups, DefaultMaxBackups),
			MaxAge:     valOr(c.File.MaxAgeDays, DefaultMaxAgeDays),
			Compress:   c.File.Compress,
		}
	}
	if stderr != "" {
		errW = &lj.Logger{
			Filename:   stderr,
			MaxSize:    valOr(c.File.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: valOr(c.File.MaxBackups, DefaultMaxBackups),
			MaxAge:     valOr(c.File.MaxAgeDays, DefaultMaxAgeDays),
			Compress:   c.File.Compress,
		}
	}
	return outW, errW, nil
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

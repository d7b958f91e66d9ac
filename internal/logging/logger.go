// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options selects level, encoding and an optional rotating file sink
type Options struct {
	Level        string
	Format       string
	File         string
	MaxAge       time.Duration
	RotationTime time.Duration
	Production   bool
}

// Setup installs the global logger and returns a closer for the file sink
func Setup(opts Options) (io.Closer, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var console io.Writer = os.Stderr
	if !opts.Production && opts.Format != "json" {
		console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	writers := []io.Writer{console}
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		rl, err := newRotatingFile(opts)
		if err != nil {
			return nil, err
		}
		writers = append(writers, rl)
		closer = rl
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	return closer, nil
}

func newRotatingFile(opts Options) (*rotatelogs.RotateLogs, error) {
	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	rotation := opts.RotationTime
	if rotation <= 0 {
		rotation = 24 * time.Hour
	}

	rl, err := rotatelogs.New(
		opts.File+".%Y%m%d%H%M",
		rotatelogs.WithLinkName(opts.File),
		rotatelogs.WithMaxAge(maxAge),
		rotatelogs.WithRotationTime(rotation),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return rl, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where process logs go.
type Options struct {
	// File, when set, receives a rotated copy of every log line.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup points the standard logger at stderr and, optionally, a rotated
// file. The returned closer flushes and closes the file.
func Setup(opt Options) (io.Closer, error) {
	log.SetFlags(log.LstdFlags | log.LUTC)
	if opt.File == "" {
		log.SetOutput(os.Stderr)
		return io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(opt.File), 0o755); err != nil {
		return nil, err
	}
	if opt.MaxSizeMB == 0 {
		opt.MaxSizeMB = 50
	}
	if opt.MaxBackups == 0 {
		opt.MaxBackups = 5
	}
	if opt.MaxAgeDays == 0 {
		opt.MaxAgeDays = 14
	}

	rotator := &lumberjack.Logger{
		Filename:   opt.File,
		MaxSize:    opt.MaxSizeMB,
		MaxBackups: opt.MaxBackups,
		MaxAge:     opt.MaxAgeDays,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	return rotator, nil
}

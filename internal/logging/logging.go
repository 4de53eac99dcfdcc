package logging

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jmbarbier/blueprint/internal/config"
)

// Setup builds the process-wide structured logger. When a log file is
// configured, records go to both stdout and the file so the /logs endpoints
// have something to read.
func Setup(cfg *config.Config) (*slog.Logger, error) {
	var w io.Writer = os.Stdout

	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", cfg.Log.File, err)
		}
		w = io.MultiWriter(os.Stdout, f)
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	return logger, nil
}

// Tail returns the last limit lines of the log file. A missing file yields
// an empty slice, matching the behavior of the logs endpoint.
func Tail(path string, limit int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	if lines == nil {
		lines = []string{}
	}
	return lines, nil
}

// Clear truncates the log file.
func Clear(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to clear log file: %w", err)
	}
	return f.Close()
}

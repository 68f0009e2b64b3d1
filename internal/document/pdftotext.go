package document

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Runner executes an external command.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	if err != nil {
		r.logger.Error("exec failed",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", time.Since(start).Milliseconds(),
			"stderr", strings.TrimSpace(errb.String()),
			"error", err,
		)
	}
	return out.Bytes(), errb.Bytes(), err
}

// PdftotextReader shells out to poppler's pdftotext.
type PdftotextReader struct {
	binary string
	runner Runner
	logger *slog.Logger
}

// NewPdftotextReader uses binary, or "pdftotext" from PATH when empty.
func NewPdftotextReader(binary string, logger *slog.Logger) *PdftotextReader {
	if binary == "" {
		binary = "pdftotext"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PdftotextReader{binary: binary, runner: execRunner{logger: logger}, logger: logger}
}

// WithRunner replaces the command runner.
func (r *PdftotextReader) WithRunner(run Runner) *PdftotextReader {
	r.runner = run
	return r
}

func (r *PdftotextReader) Read(ctx context.Context, path string) (string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := r.runner.Run(ctx, r.binary, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v: %s", ErrRead, path, err, strings.TrimSpace(string(errb)))
	}

	// pages are separated by form feeds
	text := Normalize(strings.Split(string(out), "\f")...)
	if text == "" {
		return "", fmt.Errorf("%w: %s", ErrNoText, path)
	}
	return text, nil
}

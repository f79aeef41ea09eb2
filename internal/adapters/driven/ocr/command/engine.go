// Package command provides an OCR engine that shells out to an external tool.
package command

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure Engine implements the interface.
var _ driven.OCREngine = (*Engine)(nil)

// maxStderr bounds how much tool output is quoted in errors.
const maxStderr = 512

// waitDelay bounds how long output pipes stay open after the process is killed.
const waitDelay = 2 * time.Second

// Config holds configuration for the command engine.
type Config struct {
	// Command is the executable name or path.
	Command string

	// Args are passed before the image path.
	Args []string
}

// Engine runs Command with a temporary PNG and reads recognised lines from stdout.
type Engine struct {
	path string
	args []string
}

// New resolves the command and returns an engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("%w: ocr.command is empty", domain.ErrInvalidInput)
	}
	path, err := exec.LookPath(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrEngineUnavailable, cfg.Command, err)
	}
	return &Engine{path: path, args: cfg.Args}, nil
}

// Name returns the engine name.
func (e *Engine) Name() string { return "command" }

// Recognize writes the image to a temp file and runs the command on it.
// Each non-empty output line becomes a span with full confidence and no region.
func (e *Engine) Recognize(ctx context.Context, img domain.PreparedImage) ([]domain.TextSpan, error) {
	tmp, err := os.CreateTemp("", "recall-*.png")
	if err != nil {
		return nil, fmt.Errorf("create temp image: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(img.Data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("write temp image: %w", err)
	}

	args := append(append([]string(nil), e.args...), tmp.Name())
	cmd := exec.CommandContext(ctx, e.path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s exited with status %d: %s",
				e.path, exitErr.ExitCode(), truncate(strings.TrimSpace(stderr.String())))
		}
		return nil, fmt.Errorf("run %s: %w", e.path, err)
	}

	return parseLines(stdout.Bytes()), nil
}

// Close does nothing.
func (e *Engine) Close() error { return nil }

func parseLines(out []byte) []domain.TextSpan {
	var spans []domain.TextSpan
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		spans = append(spans, domain.TextSpan{Text: line, Confidence: 1})
	}
	return spans
}

func truncate(s string) string {
	if len(s) <= maxStderr {
		return s
	}
	return s[:maxStderr] + "..."
}

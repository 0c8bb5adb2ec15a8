// Package ocr extracts text from receipt images.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ErrNoText is returned when extraction succeeded but produced nothing.
var ErrNoText = errors.New("no text extracted")

// Extractor turns image bytes into text.
type Extractor interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// Tesseract runs the tesseract command-line tool.
type Tesseract struct {
	// Command is the executable to run. Defaults to "tesseract".
	Command string

	// Timeout bounds a single extraction. Zero means no limit beyond ctx.
	Timeout time.Duration
}

var _ Extractor = (*Tesseract)(nil)

// ExtractText writes image to a temporary file and runs
// "tesseract <file> stdout" on it.
func (t *Tesseract) ExtractText(ctx context.Context, image []byte) (string, error) {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	f, err := os.CreateTemp("", "receipt-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(image); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	command := t.Command
	if command == "" {
		command = "tesseract"
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, command, f.Name(), "stdout")
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s failed: %w: %s", command, err, msg)
		}
		return "", fmt.Errorf("%s failed: %w", command, err)
	}

	text := strings.TrimSpace(string(out))
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

// Func adapts a function to Extractor.
type Func func(ctx context.Context, image []byte) (string, error)

func (f Func) ExtractText(ctx context.Context, image []byte) (string, error) {
	return f(ctx, image)
}

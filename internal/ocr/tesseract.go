// Package ocr invokes the tesseract binary as a subprocess, mirroring
// the teacher's exec.Command-based ffmpeg invocation rather than a cgo
// Tesseract binding: text recognition is an occasional, bounded
// operation here (a handful of small regions per tick), not a streaming
// pipe, so a blocking subprocess call with its own timeout is the
// simplest faithful port.
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

	"gocv.io/x/gocv"

	"smabrog/internal/metrics"
)

// ErrTimeout is returned when the tesseract subprocess did not finish
// within the per-call timeout; the caller treats this exactly like
// ErrEmpty and skips the guess rather than persisting a noisy result.
var ErrTimeout = errors.New("ocr: timeout")

// ErrEmpty is returned when tesseract produced no usable text.
var ErrEmpty = errors.New("ocr: empty result")

// DefaultTimeout is the per-call timeout absent an explicit context
// deadline, matching spec.md §5's "5s default" OCR contract.
const DefaultTimeout = 5 * time.Second

// Mode selects the tesseract character whitelist and language data used
// for one recognition call.
type Mode int

const (
	// ModeUpperAlpha restricts recognition to uppercase A-Z, used for
	// character names in HamVsSpam.
	ModeUpperAlpha Mode = iota
	// ModeDigits restricts recognition to digits plus separators, used
	// for stock counts, time/HP clauses, and power scores.
	ModeDigits
	// ModeJapanese recognizes unrestricted Japanese text, used for BGM
	// titles.
	ModeJapanese
)

func (m Mode) String() string {
	switch m {
	case ModeUpperAlpha:
		return "upper_alpha"
	case ModeDigits:
		return "digits"
	case ModeJapanese:
		return "japanese"
	default:
		return "unknown"
	}
}

// Engine runs tesseract as a subprocess against pre-processed gocv
// frames. The zero value is ready to use; Binary defaults to "tesseract"
// on PATH.
type Engine struct {
	Binary  string
	Timeout time.Duration
}

// New builds an Engine with the default binary name and timeout.
func New() *Engine {
	return &Engine{Binary: "tesseract", Timeout: DefaultTimeout}
}

// Recognize writes image to a temp PNG, invokes tesseract against it
// with the whitelist/language appropriate to mode, and returns the
// trimmed recognized text. On timeout or empty output it returns
// ErrTimeout/ErrEmpty rather than a recognized string; callers are
// expected to skip the guess in that case, not feed an empty string
// into the accumulator as if it were a real observation.
func (e *Engine) Recognize(ctx context.Context, image gocv.Mat, mode Mode) (string, error) {
	binary := e.Binary
	if binary == "" {
		binary = "tesseract"
	}
	timeout := e.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	tmp, err := os.CreateTemp("", "smabrog-ocr-*.png")
	if err != nil {
		return "", fmt.Errorf("ocr temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if ok := gocv.IMWrite(tmpPath, image); !ok {
		return "", fmt.Errorf("ocr: failed to write frame to %s", tmpPath)
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	defer func() { metrics.RecordOCR(mode.String(), time.Since(start)) }()

	args := []string{tmpPath, "stdout", "--psm", "6"}
	switch mode {
	case ModeUpperAlpha:
		args = append(args, "-l", "eng", "-c", "tessedit_char_whitelist=ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	case ModeDigits:
		args = append(args, "-l", "eng", "-c", "tessedit_char_whitelist=0123456789-.")
	case ModeJapanese:
		args = append(args, "-l", "jpn")
	}

	cmd := exec.CommandContext(callCtx, binary, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr

	runErr := cmd.Run()
	if callCtx.Err() == context.DeadlineExceeded {
		metrics.RecordOCRTimeout()
		return "", ErrTimeout
	}
	if runErr != nil {
		return "", fmt.Errorf("tesseract: %w", runErr)
	}

	text := strings.TrimSpace(strings.ReplaceAll(stdout.String(), "\n", ""))
	if text == "" {
		return "", ErrEmpty
	}
	return text, nil
}

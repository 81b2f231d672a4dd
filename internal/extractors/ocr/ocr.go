package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/docforge/docextract/internal/extract"
)

type Config struct {
	Tesseract     string // binary name or absolute path; default "tesseract"
	Language      string // tesseract language pack; default "eng"
	TessdataDir   string
	HeicConverter string        // heif-convert | magick | sips; default "magick"
	Timeout       time.Duration // bound on one OCR invocation; default 30s
}

// Engine runs optical character recognition through an external tesseract
// binary. The binary is a capability injected at construction time via the
// Runner so tests can substitute a fake toolchain.
type Engine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewEngine(cfg Config, runner Runner, logger *slog.Logger) *Engine {
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.HeicConverter == "" {
		cfg.HeicConverter = "magick"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = execRunner{logger: logger}
	}
	return &Engine{cfg: cfg, runner: runner, logger: logger}
}

// ExtractImage stages the bytes to a temp file, converts HEIC/HEIF to PNG,
// and runs OCR. An image always counts as one page and never carries tables
// or document metadata. All staged files are removed on every exit path.
func (e *Engine) ExtractImage(ctx context.Context, content []byte, filename string) (extract.RawResult, error) {
	if len(content) == 0 {
		return extract.RawResult{}, fmt.Errorf("%w: empty byte stream", extract.ErrCorruptDocument)
	}

	mt := mimetype.Detect(content)
	if !strings.HasPrefix(mt.String(), "image/") {
		return extract.RawResult{}, fmt.Errorf("%w: content sniffed as %s, not a decodable image", extract.ErrCorruptDocument, mt.String())
	}

	tmpDir, err := os.MkdirTemp("", "docextract-ocr-*")
	if err != nil {
		return extract.RawResult{}, fmt.Errorf("stage image: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(tmpDir)
	}()

	path := filepath.Join(tmpDir, "input"+strings.ToLower(filepath.Ext(filepath.Base(filename))))
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return extract.RawResult{}, fmt.Errorf("stage image: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	if extract.IsHEIC(filename) {
		path, err = e.convertHEIC(ctx, tmpDir, path)
		if err != nil {
			return extract.RawResult{}, err
		}
	}

	text, err := e.tesseract(ctx, path)
	if err != nil {
		return extract.RawResult{}, err
	}

	return extract.RawResult{
		Text:  strings.TrimSpace(text),
		Pages: 1,
	}, nil
}

// tesseract invokes `tesseract <file> stdout -l <lang>`.
func (e *Engine) tesseract(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout", "-l", e.cfg.Language}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", e.classifyRunError(ctx, err, "tesseract", errb)
	}
	return string(out), nil
}

// classifyRunError separates operational failures (missing binary, timeout)
// from bad input: the former are retryable once the host is fixed, the
// latter never are.
func (e *Engine) classifyRunError(ctx context.Context, err error, tool string, stderr []byte) error {
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return fmt.Errorf("%w: %s not installed on host", extract.ErrOCRUnavailable, tool)
	case ctx.Err() != nil:
		return fmt.Errorf("%w: %s timed out after %s", extract.ErrOCRUnavailable, tool, e.cfg.Timeout)
	default:
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("%w: %s: %s", extract.ErrCorruptDocument, tool, truncate(msg, 300))
	}
}

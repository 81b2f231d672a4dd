package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docforge/docextract/internal/extract"
)

// convertHEIC decodes a HEIC/HEIF input to PNG inside dir using the
// configured external converter, so tesseract receives a raster format it
// understands.
func (e *Engine) convertHEIC(ctx context.Context, dir, in string) (string, error) {
	out := filepath.Join(dir, "decoded.png")

	var err error
	var errb []byte
	switch e.cfg.HeicConverter {
	case "heif-convert":
		_, errb, err = e.runner.Run(ctx, "heif-convert", in, out)
	case "magick":
		_, errb, err = e.runner.Run(ctx, "magick", in, out)
	case "sips":
		_, errb, err = e.runner.Run(ctx, "sips", "-s", "format", "png", in, "--out", out)
	default:
		return "", fmt.Errorf("%w: unknown heic converter %q (want heif-convert, magick, or sips)", extract.ErrOCRUnavailable, e.cfg.HeicConverter)
	}
	if err != nil {
		return "", e.classifyRunError(ctx, err, e.cfg.HeicConverter, errb)
	}

	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("%w: heic conversion produced no output", extract.ErrCorruptDocument)
	}
	return out, nil
}

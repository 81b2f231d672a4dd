package extract

import (
	"context"
	"fmt"
	"log/slog"
)

// Service is the extraction pipeline: classify -> extract -> normalize ->
// assemble. It is stateless and re-entrant; concurrent calls share nothing.
type Service struct {
	pdf    PDFExtractor
	image  ImageExtractor
	logger *slog.Logger
}

func NewService(pdf PDFExtractor, image ImageExtractor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{pdf: pdf, image: image, logger: logger}
}

// Extract runs the full pipeline over one upload. Unsupported filenames fail
// before any extractor I/O; extractor failures propagate unchanged with no
// fallback strategy.
func (s *Service) Extract(ctx context.Context, content []byte, filename string) (Document, error) {
	var (
		raw RawResult
		err error
	)

	switch kind := Classify(filename); kind {
	case KindPDF:
		raw, err = s.pdf.ExtractPDF(ctx, content)
	case KindImage:
		raw, err = s.image.ExtractImage(ctx, content, filename)
	default:
		return Document{}, fmt.Errorf("%w: %q", ErrUnsupportedType, filename)
	}
	if err != nil {
		return Document{}, err
	}

	sd := Normalize(raw.Text, raw.Tables)

	meta := raw.Metadata
	if meta == nil {
		meta = map[string]string{}
	}

	s.logger.Debug("extraction complete",
		"filename", filename,
		"pages", raw.Pages,
		"tables", len(raw.Tables),
		"text_length", sd.TextLength)

	return Document{
		Pages:          raw.Pages,
		TablesCount:    len(raw.Tables),
		TextLength:     sd.TextLength,
		RawText:        raw.Text,
		StructuredData: sd,
		Metadata:       meta,
		Tables:         raw.Tables,
	}, nil
}

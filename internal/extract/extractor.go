package extract

import "context"

// PDFExtractor parses a native PDF byte stream.
type PDFExtractor interface {
	ExtractPDF(ctx context.Context, content []byte) (RawResult, error)
}

// ImageExtractor runs OCR over raster image bytes. The filename is needed to
// recognize formats that require conversion before OCR (HEIC/HEIF).
type ImageExtractor interface {
	ExtractImage(ctx context.Context, content []byte, filename string) (RawResult, error)
}

package extract

import "errors"

// Error kinds surfaced by the pipeline. Extractors wrap these with %w so
// callers can branch with errors.Is without parsing messages.
var (
	// ErrUnsupportedType: the filename extension is not in the supported set.
	// Recoverable by the caller; the pipeline never retries.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrCorruptDocument: the file claims a supported type but its bytes
	// cannot be decoded. Retrying the same bytes cannot succeed.
	ErrCorruptDocument = errors.New("corrupt or unreadable document")

	// ErrOCRUnavailable: the OCR engine is missing, misconfigured, or timed
	// out. The remedy is operational, not a different file.
	ErrOCRUnavailable = errors.New("ocr engine unavailable")
)

package extract

import (
	"path/filepath"
	"strings"
)

// FileKind is the closed set of upload classifications.
type FileKind int

const (
	KindUnsupported FileKind = iota
	KindPDF
	KindImage
)

func (k FileKind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindImage:
		return "image"
	default:
		return "unsupported"
	}
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".heic": true,
	".heif": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
}

// Classify decides the extraction strategy from the filename alone,
// case-insensitively. It never reads file content: classification precedes
// any I/O against the extractors.
func Classify(filename string) FileKind {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	switch {
	case ext == ".pdf":
		return KindPDF
	case imageExtensions[ext]:
		return KindImage
	default:
		return KindUnsupported
	}
}

// IsHEIC reports whether the filename carries a HEIC/HEIF extension, which
// needs conversion to a common raster format before OCR.
func IsHEIC(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".heic" || ext == ".heif"
}

package pdf

import (
	"strings"
	"unicode/utf16"

	"github.com/ledongthuc/pdf"
)

// Document information dictionary keys, mapped to the names the result
// envelope uses. Absent fields are omitted, never fabricated.
var infoKeys = []struct {
	pdfKey string
	name   string
}{
	{"Title", "title"},
	{"Author", "author"},
	{"Subject", "subject"},
	{"Creator", "creator"},
	{"Producer", "producer"},
	{"CreationDate", "creation_date"},
	{"ModDate", "modification_date"},
}

func readMetadata(r *pdf.Reader) (meta map[string]string) {
	meta = map[string]string{}

	// Resolving the Info dictionary can panic on damaged cross-reference
	// tables; metadata is optional, so degrade to an empty map.
	defer func() {
		recover()
	}()

	info := r.Trailer().Key("Info")
	if info.Kind() != pdf.Dict {
		return meta
	}

	for _, k := range infoKeys {
		v := info.Key(k.pdfKey)
		if v.Kind() != pdf.String {
			continue
		}
		if s := decodePDFString(v.RawString()); s != "" {
			meta[k.name] = s
		}
	}
	return meta
}

// decodePDFString handles the two encodings PDF text strings use: UTF-16BE
// with a byte order mark, and PDFDocEncoding (treated as-is, which is correct
// for its ASCII range).
func decodePDFString(s string) string {
	if len(s) >= 2 && s[0] == 0xFE && s[1] == 0xFF {
		u := make([]uint16, 0, (len(s)-2)/2)
		for i := 2; i+1 < len(s); i += 2 {
			u = append(u, uint16(s[i])<<8|uint16(s[i+1]))
		}
		return strings.TrimSpace(string(utf16.Decode(u)))
	}
	return strings.TrimSpace(s)
}

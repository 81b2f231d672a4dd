package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/docforge/docextract/internal/extract"
)

// pageContent is one page's content stream in a fixture file.
type pageContent struct {
	data   []byte
	filter string // optional /Filter name for the stream dictionary
}

func textStream(s string) []byte {
	return []byte(fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", s))
}

// pdfFile assembles a complete single-font PDF from page content streams,
// recording cross-reference offsets as objects are written. info, when
// non-empty, becomes the trailer's Info dictionary.
func pdfFile(t *testing.T, info string, pages []pageContent) []byte {
	t.Helper()

	var buf bytes.Buffer
	var offsets []int

	writeObj := func(body string) int {
		offsets = append(offsets, buf.Len())
		num := len(offsets)
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
		return num
	}

	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	writeObj("<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	writeObj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, p := range pages {
		writeObj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		dict := fmt.Sprintf("/Length %d", len(p.data))
		if p.filter != "" {
			dict += " /Filter " + p.filter
		}
		writeObj(fmt.Sprintf("<< %s >>\nstream\n%s\nendstream", dict, p.data))
	}

	infoRef := ""
	if info != "" {
		num := writeObj(info)
		infoRef = fmt.Sprintf(" /Info %d 0 R", num)
	}

	xrefOff := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R%s >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, infoRef, xrefOff)

	return buf.Bytes()
}

func TestExtractPDFRejectsEmptyStream(t *testing.T) {
	t.Parallel()

	_, err := New(0, nil).ExtractPDF(context.Background(), nil)
	if !errors.Is(err, extract.ErrCorruptDocument) {
		t.Fatalf("expected ErrCorruptDocument for zero-byte file, got %v", err)
	}
}

func TestExtractPDFRejectsGarbageBytes(t *testing.T) {
	t.Parallel()

	cases := [][]byte{
		[]byte("this is definitely not a pdf"),
		[]byte("%PDF-1.7 truncated before any object"),
		{0x00, 0x01, 0x02, 0x03},
	}
	for _, content := range cases {
		if _, err := New(0, nil).ExtractPDF(context.Background(), content); !errors.Is(err, extract.ErrCorruptDocument) {
			t.Errorf("expected ErrCorruptDocument for %q, got %v", content, err)
		}
	}
}

func TestExtractPDFReadsPagesInOrder(t *testing.T) {
	t.Parallel()

	content := pdfFile(t, "<< /Title (Quarterly Report) /Author (Finance) >>", []pageContent{
		{data: textStream("Revenue: 10")},
		{data: textStream("Costs: 4")},
	})

	res, err := New(0, nil).ExtractPDF(context.Background(), content)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if res.Pages != 2 {
		t.Errorf("pages = %d, want 2", res.Pages)
	}

	first := strings.Index(res.Text, "Revenue: 10")
	second := strings.Index(res.Text, "Costs: 4")
	if first < 0 || second < 0 || second < first {
		t.Errorf("page text missing or out of order: %q", res.Text)
	}

	if res.Metadata["title"] != "Quarterly Report" || res.Metadata["author"] != "Finance" {
		t.Errorf("metadata = %v", res.Metadata)
	}
}

func TestExtractPDFDegradesDamagedPage(t *testing.T) {
	t.Parallel()

	// The middle page declares flate compression over bytes that are not a
	// deflate stream, so its content cannot be decoded.
	content := pdfFile(t, "", []pageContent{
		{data: textStream("First page ok")},
		{data: []byte("not a deflate stream"), filter: "/FlateDecode"},
		{data: textStream("Third page ok")},
	})

	res, err := New(0, nil).ExtractPDF(context.Background(), content)
	if err != nil {
		t.Fatalf("a single damaged page must not fail the document: %v", err)
	}
	if res.Pages != 3 {
		t.Errorf("pages = %d, want 3", res.Pages)
	}
	if !strings.Contains(res.Text, "First page ok") || !strings.Contains(res.Text, "Third page ok") {
		t.Errorf("intact pages missing from text: %q", res.Text)
	}
}

func TestExtractPDFCancelledContext(t *testing.T) {
	t.Parallel()

	content := pdfFile(t, "", []pageContent{{data: textStream("Line: 1")}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(0, nil).ExtractPDF(ctx, content)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

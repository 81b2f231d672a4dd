package extract

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
)

type stubPDF struct {
	res    RawResult
	err    error
	called int
}

func (s *stubPDF) ExtractPDF(ctx context.Context, content []byte) (RawResult, error) {
	s.called++
	return s.res, s.err
}

type stubImage struct {
	res    RawResult
	err    error
	called int
}

func (s *stubImage) ExtractImage(ctx context.Context, content []byte, filename string) (RawResult, error) {
	s.called++
	return s.res, s.err
}

func TestExtractUnsupportedTypeSkipsExtractors(t *testing.T) {
	t.Parallel()

	pdfX := &stubPDF{}
	imgX := &stubImage{}
	svc := NewService(pdfX, imgX, nil)

	_, err := svc.Extract(context.Background(), []byte("hello"), "notes.txt")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if pdfX.called != 0 || imgX.called != 0 {
		t.Fatalf("no extractor may run for unsupported files")
	}
}

func TestExtractPDFAssemblesDocument(t *testing.T) {
	t.Parallel()

	raw := RawResult{
		Text: "Title: Quarterly Report\n\nRevenue up.",
		Tables: []Table{
			{Page: 2, Rows: [][]string{{"Q", "Revenue"}, {"1", "10"}}},
		},
		Metadata: map[string]string{"author": "Finance"},
		Pages:    3,
	}
	svc := NewService(&stubPDF{res: raw}, &stubImage{}, nil)

	doc, err := svc.Extract(context.Background(), []byte("%PDF"), "report.pdf")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	if doc.Pages != 3 {
		t.Errorf("pages = %d, want 3", doc.Pages)
	}
	if doc.TablesCount != 1 || doc.StructuredData.TablesCount != 1 {
		t.Errorf("tables count = %d/%d, want 1/1", doc.TablesCount, doc.StructuredData.TablesCount)
	}
	if doc.TextLength != len([]rune(raw.Text)) || doc.TextLength != doc.StructuredData.TextLength {
		t.Errorf("text length mismatch: %d vs %d", doc.TextLength, doc.StructuredData.TextLength)
	}
	if doc.RawText != raw.Text {
		t.Errorf("raw text altered by pipeline")
	}
	if got := doc.StructuredData.KeyValuePairs["Title"]; got != "Quarterly Report" {
		t.Errorf("key/value pair missing, got %q", got)
	}
	if doc.Metadata["author"] != "Finance" {
		t.Errorf("metadata not carried through: %v", doc.Metadata)
	}
}

func TestExtractImageReportsOnePageNoTablesNoMetadata(t *testing.T) {
	t.Parallel()

	svc := NewService(&stubPDF{}, &stubImage{res: RawResult{Text: "scanned words", Pages: 1}}, nil)

	doc, err := svc.Extract(context.Background(), []byte{0xFF, 0xD8}, "photo.jpg")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if doc.Pages != 1 {
		t.Errorf("pages = %d, want 1", doc.Pages)
	}
	if doc.TablesCount != 0 || doc.StructuredData.TablesCount != 0 {
		t.Errorf("image path must report zero tables")
	}
	if doc.Metadata == nil || len(doc.Metadata) != 0 {
		t.Errorf("image metadata must be an empty map, got %#v", doc.Metadata)
	}
}

func TestExtractPropagatesExtractorErrorsUnchanged(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("%w: zero-byte stream", ErrCorruptDocument)
	svc := NewService(&stubPDF{err: cause}, &stubImage{err: fmt.Errorf("%w: tesseract missing", ErrOCRUnavailable)}, nil)

	_, err := svc.Extract(context.Background(), nil, "empty.pdf")
	if !errors.Is(err, ErrCorruptDocument) {
		t.Fatalf("expected corrupt-document kind, got %v", err)
	}
	if err.Error() != cause.Error() {
		t.Fatalf("error rewritten by orchestrator: %v", err)
	}

	_, err = svc.Extract(context.Background(), []byte{1}, "photo.png")
	if !errors.Is(err, ErrOCRUnavailable) {
		t.Fatalf("expected ocr-unavailable kind, got %v", err)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	t.Parallel()

	raw := RawResult{Text: "Label: Value\nplain", Pages: 2}
	svc := NewService(&stubPDF{res: raw}, &stubImage{}, nil)

	a, err := svc.Extract(context.Background(), []byte("%PDF"), "a.pdf")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	b, err := svc.Extract(context.Background(), []byte("%PDF"), "a.pdf")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("identical inputs produced different documents")
	}
}

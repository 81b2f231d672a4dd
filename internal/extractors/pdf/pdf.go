package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/semaphore"

	"github.com/docforge/docextract/internal/extract"
)

// Extractor parses native PDF byte streams: per-page text, detected tables,
// and document-level metadata.
type Extractor struct {
	maxPageWorkers int
	logger         *slog.Logger
}

func New(maxPageWorkers int, logger *slog.Logger) *Extractor {
	if maxPageWorkers <= 0 {
		maxPageWorkers = 8
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{maxPageWorkers: maxPageWorkers, logger: logger}
}

// ExtractPDF walks pages in file order. A byte stream that cannot be opened
// fails the whole call; a single damaged page degrades to an empty-text,
// zero-table page and only produces a warning.
func (e *Extractor) ExtractPDF(ctx context.Context, content []byte) (extract.RawResult, error) {
	if len(content) == 0 {
		return extract.RawResult{}, fmt.Errorf("%w: empty byte stream", extract.ErrCorruptDocument)
	}

	r, err := openReader(content)
	if err != nil {
		return extract.RawResult{}, fmt.Errorf("%w: %v", extract.ErrCorruptDocument, err)
	}

	total := r.NumPage()
	results := e.extractPages(ctx, r, total)
	if err := ctx.Err(); err != nil {
		// Workers skipped by a dead context leave empty results behind;
		// those must never be assembled into a successful document.
		return extract.RawResult{}, fmt.Errorf("pdf extraction cancelled: %w", err)
	}

	var parts []string
	var tables []extract.Table
	for _, pr := range results {
		if pr.text != "" {
			parts = append(parts, pr.text)
		}
		tables = append(tables, pr.tables...)
	}

	return extract.RawResult{
		Text:     strings.Join(parts, "\n"),
		Tables:   tables,
		Metadata: readMetadata(r),
		Pages:    total,
	}, nil
}

type pageResult struct {
	text   string
	tables []extract.Table
}

// extractPages runs page extraction under a bounded worker pool. Results are
// written to an indexed slice so the assembled output is identical to a
// sequential walk in file order.
func (e *Extractor) extractPages(ctx context.Context, r *pdf.Reader, total int) []pageResult {
	results := make([]pageResult, total)

	workers := runtime.NumCPU()
	if workers > e.maxPageWorkers {
		workers = e.maxPageWorkers
	}
	if workers > total {
		workers = total
	}
	if workers < 1 {
		workers = 1
	}

	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup

	for i := 0; i < total; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)

			results[idx] = e.extractPage(r, idx+1)
		}(i)
	}

	wg.Wait()
	return results
}

func (e *Extractor) extractPage(r *pdf.Reader, num int) (res pageResult) {
	// The parser panics on some malformed page content; a damaged page must
	// not abort the rest of the document.
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Warn("page extraction failed, degrading to empty page", "page", num, "error", fmt.Sprint(rec))
			res = pageResult{}
		}
	}()

	p := r.Page(num)
	if p.V.IsNull() {
		return pageResult{}
	}

	text, err := p.GetPlainText(nil)
	if err != nil {
		e.logger.Warn("page has no extractable text layer", "page", num, "error", err)
		text = ""
	}

	return pageResult{
		text:   strings.TrimSpace(text),
		tables: detectTables(p.Content().Text, num),
	}
}

func openReader(content []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf parse: %v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(content), int64(len(content)))
}

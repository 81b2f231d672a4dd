package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/docforge/docextract/internal/config"
	"github.com/docforge/docextract/internal/extract"
	ocrextractor "github.com/docforge/docextract/internal/extractors/ocr"
	pdfextractor "github.com/docforge/docextract/internal/extractors/pdf"
	"github.com/docforge/docextract/internal/store"
)

type app struct {
	cfg      config.Config
	pipeline *extract.Service
	store    *store.Store
	logger   *slog.Logger

	requestSem *semaphore.Weighted
	metrics    *serverMetrics
}

type serverMetrics struct {
	mu            sync.RWMutex
	totalRequests int64
	activeReqs    int64
}

func (m *serverMetrics) incActive() {
	m.mu.Lock()
	m.activeReqs++
	m.totalRequests++
	m.mu.Unlock()
}

func (m *serverMetrics) decActive() {
	m.mu.Lock()
	m.activeReqs--
	m.mu.Unlock()
}

func (m *serverMetrics) get() (total, active int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalRequests, m.activeReqs
}

// ocrLimited caps concurrent OCR engine invocations independently of the
// request concurrency cap. OCR is the longest-latency step.
type ocrLimited struct {
	inner extract.ImageExtractor
	sem   *semaphore.Weighted
}

func newOCRLimited(inner extract.ImageExtractor, max int64) *ocrLimited {
	if max <= 0 {
		max = 1
	}
	return &ocrLimited{inner: inner, sem: semaphore.NewWeighted(max)}
}

func (o *ocrLimited) ExtractImage(ctx context.Context, content []byte, filename string) (extract.RawResult, error) {
	if err := o.sem.Acquire(ctx, 1); err != nil {
		return extract.RawResult{}, err
	}
	defer o.sem.Release(1)
	return o.inner.ExtractImage(ctx, content, filename)
}

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	st, err := store.Open(context.Background(), cfg.DatabasePath, logger)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = st.Close()
	}()

	engine := ocrextractor.NewEngine(ocrextractor.Config{
		Tesseract:     cfg.TesseractBinary,
		Language:      cfg.OCRLanguage,
		TessdataDir:   cfg.TessdataDir,
		HeicConverter: cfg.HeicConverter,
		Timeout:       cfg.OCRTimeout,
	}, nil, logger)

	a := &app{
		cfg: cfg,
		pipeline: extract.NewService(
			pdfextractor.New(cfg.MaxPageWorkers, logger),
			newOCRLimited(engine, cfg.MaxOCRConcurrent),
			logger,
		),
		store:      st,
		logger:     logger,
		requestSem: semaphore.NewWeighted(cfg.MaxConcurrentRequests),
		metrics:    &serverMetrics{},
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.routes(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	logger.Info("docextract listening",
		"addr", srv.Addr,
		"max_concurrent", cfg.MaxConcurrentRequests,
		"ocr_concurrent", cfg.MaxOCRConcurrent,
		"ocr_language", cfg.OCRLanguage)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}

func (a *app) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", a.handleHealth)

	mux.HandleFunc("POST /extract", a.withConcurrencyLimit(a.handleExtract))

	mux.HandleFunc("GET /documents", a.handleListDocuments)
	mux.HandleFunc("GET /documents/{id}", a.handleGetDocument)
	mux.HandleFunc("DELETE /documents/{id}", a.handleDeleteDocument)
	mux.HandleFunc("GET /documents/{id}/tables.xlsx", a.handleExportTables)

	return a.withLogging(a.withRecovery(mux))
}

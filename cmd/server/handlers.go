package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/docforge/docextract/internal/export"
	"github.com/docforge/docextract/internal/extract"
	"github.com/docforge/docextract/internal/store"
)

func (a *app) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.cfg.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			writeErr(w, http.StatusRequestEntityTooLarge, "upload_too_large",
				fmt.Sprintf("upload exceeds %d byte limit", a.cfg.MaxUploadBytes))
			return
		}
		writeErr(w, http.StatusBadRequest, "bad_request", `multipart field "file" required`)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		if isTooLarge(err) {
			writeErr(w, http.StatusRequestEntityTooLarge, "upload_too_large",
				fmt.Sprintf("upload exceeds %d byte limit", a.cfg.MaxUploadBytes))
			return
		}
		writeErr(w, http.StatusBadRequest, "bad_request", sanitizeError(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.cfg.ExtractTimeout)
	defer cancel()

	doc, err := a.pipeline.Extract(ctx, content, header.Filename)
	if err != nil {
		a.writeExtractError(w, err)
		return
	}

	rec, err := a.store.Create(ctx, header.Filename, doc)
	if err != nil {
		a.logger.Error("persist record failed", "filename", sanitizeLogString(header.Filename), "error", err)
		writeErr(w, http.StatusInternalServerError, "storage_failed", "could not persist extraction record")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "document extracted successfully",
		"id":             rec.ID,
		"filename":       rec.Filename,
		"upload_date":    rec.UploadDate.Format(time.RFC3339),
		"extracted_data": rec.Document,
	})
}

func (a *app) writeExtractError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, extract.ErrUnsupportedType):
		writeErr(w, http.StatusUnsupportedMediaType, "unsupported_type", sanitizeError(err))
	case errors.Is(err, extract.ErrCorruptDocument):
		writeErr(w, http.StatusUnprocessableEntity, "corrupt_document", sanitizeError(err))
	case errors.Is(err, extract.ErrOCRUnavailable):
		writeErr(w, http.StatusServiceUnavailable, "ocr_unavailable", sanitizeError(err))
	default:
		writeErr(w, http.StatusInternalServerError, "extraction_failed", sanitizeError(err))
	}
}

func (a *app) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 100)

	recs, err := a.store.List(r.Context(), offset, limit)
	if err != nil {
		a.logger.Error("list records failed", "error", err)
		writeErr(w, http.StatusInternalServerError, "storage_failed", "could not list records")
		return
	}

	items := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		items = append(items, recordJSON(rec, false))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total":   len(items),
		"records": items,
	})
}

func (a *app) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	rec, err := a.store.Get(r.Context(), id)
	if err != nil {
		a.writeStoreError(w, id, err)
		return
	}

	includeText := queryBool(r, "include_text")
	writeJSON(w, http.StatusOK, recordJSON(rec, includeText))
}

func (a *app) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := a.store.Delete(r.Context(), id); err != nil {
		a.writeStoreError(w, id, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "record deleted successfully",
		"id":      id,
	})
}

func (a *app) handleExportTables(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	rec, err := a.store.Get(r.Context(), id)
	if err != nil {
		a.writeStoreError(w, id, err)
		return
	}

	data, err := export.BuildWorkbook(rec.Document.Tables)
	if err != nil {
		if errors.Is(err, export.ErrNoTables) {
			writeErr(w, http.StatusNotFound, "no_tables", "record has no tables to export")
			return
		}
		a.logger.Error("workbook export failed", "id", id, "error", err)
		writeErr(w, http.StatusInternalServerError, "export_failed", "could not build workbook")
		return
	}

	base := strings.TrimSuffix(rec.Filename, filepath.Ext(rec.Filename))
	if base == "" {
		base = "document"
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+"-tables.xlsx"))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	total, active := a.metrics.get()

	status := "healthy"
	code := http.StatusOK
	if active >= int64(float64(a.cfg.MaxConcurrentRequests)*0.9) {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	// The counters track only extraction requests: the concurrency limiter
	// wraps POST /extract alone.
	writeJSON(w, code, map[string]any{
		"status":             status,
		"active_extractions": active,
		"total_extractions":  total,
		"goroutines":         runtime.NumGoroutine(),
		"mem_alloc_mb":       m.Alloc / (1 << 20),
	})
}

func (a *app) writeStoreError(w http.ResponseWriter, id int64, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeErr(w, http.StatusNotFound, "not_found", fmt.Sprintf("record %d not found", id))
		return
	}
	a.logger.Error("store operation failed", "id", id, "error", err)
	writeErr(w, http.StatusInternalServerError, "storage_failed", "storage operation failed")
}

// recordJSON is the wire shape of a stored record. Raw text is large and
// excluded unless the caller opts in.
func recordJSON(rec store.Record, includeText bool) map[string]any {
	out := map[string]any{
		"id":             rec.ID,
		"filename":       rec.Filename,
		"upload_date":    rec.UploadDate.Format(time.RFC3339),
		"extracted_data": rec.Document,
		"metadata":       rec.Document.Metadata,
	}
	if includeText {
		out["raw_text"] = rec.Document.RawText
	}
	return out
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeErr(w, http.StatusBadRequest, "bad_request", "record id must be a positive integer")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func queryBool(r *http.Request, key string) bool {
	switch strings.ToLower(r.URL.Query().Get(key)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func (a *app) withConcurrencyLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := a.requestSem.Acquire(r.Context(), 1); err != nil {
			writeErr(w, http.StatusServiceUnavailable, "capacity", "Service at capacity")
			return
		}
		defer a.requestSem.Release(1)

		a.metrics.incActive()
		defer a.metrics.decActive()

		next(w, r)
	}
}

func (a *app) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				a.logger.Error("panic recovered", "path", sanitizeLogString(r.URL.Path), "panic", err)
				writeErr(w, http.StatusInternalServerError, "internal_error", "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (a *app) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &wrapWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)

		a.logger.Info("request",
			"method", r.Method,
			"path", sanitizeLogString(r.URL.Path),
			"status", ww.status,
			"duration", time.Since(start))
	})
}

type wrapWriter struct {
	http.ResponseWriter
	status int
}

func (w *wrapWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	msg = strings.ReplaceAll(msg, os.TempDir(), "[tmp]")
	if len(msg) > 300 {
		msg = msg[:300] + "..."
	}
	return msg
}

func sanitizeLogString(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\r", "")
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

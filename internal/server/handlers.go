package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"ragserver/internal/domain"
)

type uploadResponse struct {
	Status       string `json:"status"`
	DocID        string `json:"doc_id"`
	OCRUsed      bool   `json:"ocr_used"`
	PageCount    int    `json:"page_count"`
	OCRTruncated bool   `json:"ocr_truncated"`
	Indexing     string `json:"indexing"`
}

// handleUpload accepts a multipart document, extracts its text, and
// schedules background indexing. The response carries the doc_id to
// poll at /index/status/{doc_id}.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Uploaded file exceeds maximum allowed size of %d bytes", s.cfg.Server.MaxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "missing form file 'file'")
		return
	}
	defer file.Close()

	origName := filepath.Base(header.Filename)
	ext := strings.ToLower(filepath.Ext(origName))
	if !s.extAllowed(ext) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported file type: %s", ext))
		return
	}

	if err := os.MkdirAll(s.cfg.Server.UploadDir, 0755); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to prepare upload directory: %v", err))
		return
	}

	// Unique on-disk name so concurrent uploads of the same file never
	// clobber each other.
	filename := hexID() + "_" + origName
	if len(filename) > 240 {
		filename = filename[:240]
	}
	path := filepath.Join(s.cfg.Server.UploadDir, filename)

	dst, err := os.Create(path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to save upload: %v", err))
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(path)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Uploaded file exceeds maximum allowed size of %d bytes", s.cfg.Server.MaxUploadBytes))
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to save upload: %v", err))
		return
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to save upload: %v", err))
		return
	}

	enableOCR := formBool(r, "enable_ocr")
	ocrMaxPages := formInt(r, "ocr_max_pages", 10)

	extraction, err := s.extractor.Extract(path, enableOCR, ocrMaxPages)
	if err != nil {
		os.Remove(path)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Extraction failed: %v", err))
		return
	}

	docID := hexID()
	err = s.pipeline.Submit(docID, extraction.Text, map[string]string{"source_filename": header.Filename})
	if err != nil {
		os.Remove(path)
		switch {
		case errors.Is(err, domain.ErrValidation):
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Indexing error: %v", err))
		case errors.Is(err, domain.ErrRateLimited):
			writeError(w, http.StatusTooManyRequests, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("Index validation error: %v", err))
		}
		return
	}

	slog.Info("upload accepted", "doc_id", docID, "filename", origName, "size", header.Size)
	writeJSON(w, http.StatusOK, uploadResponse{
		Status:       "ok",
		DocID:        docID,
		OCRUsed:      extraction.OCRUsed,
		PageCount:    extraction.PageCount,
		OCRTruncated: extraction.OCRTruncated,
		Indexing:     "pending",
	})
}

// handleAsk answers a question from the indexed corpus.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeError(w, http.StatusBadRequest, "Missing query parameter 'q'")
		return
	}

	topK := 5
	if v := r.URL.Query().Get("top_k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Query parameter 'top_k' must be a positive integer")
			return
		}
		topK = n
	}
	model := r.URL.Query().Get("model")

	answer, err := s.answerer.Answer(q, topK, model)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLLM):
			writeError(w, http.StatusBadGateway, fmt.Sprintf("LLM service error: %v", err))
		default:
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("Index query error: %v", err))
		}
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.pipeline.ListDocuments()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list documents: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("doc_id")
	found, err := s.pipeline.DeleteDocument(docID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to delete document: %v", err))
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Document not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": docID})
}

func (s *Server) handleIndexStatus(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("doc_id")
	writeJSON(w, http.StatusOK, map[string]string{
		"doc_id": docID,
		"status": s.tracker.Status(docID).String(),
	})
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.llm.ListModels()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list LLM models: %v", err))
		return
	}
	if models == nil {
		models = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"models": models})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) extAllowed(ext string) bool {
	for _, allowed := range s.cfg.Server.AllowedExts {
		if ext == allowed {
			return true
		}
	}
	return false
}

// hexID returns a random identifier safe for use in chunk ids, which
// reserve the underscore as the doc/chunk separator.
func hexID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func formBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.FormValue(name))
	return err == nil && v
}

func formInt(r *http.Request, name string, def int) int {
	v := r.FormValue(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

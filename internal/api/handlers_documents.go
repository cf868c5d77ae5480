package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docqa/internal/document"
	"github.com/dgallion1/docqa/internal/indexstore"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type uploadResponse struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	MIMEType   string `json:"mime_type"`
	PageCount  int    `json:"page_count"`
	Status     string `json:"status"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}
	if len(data) == 0 {
		jsonError(w, "uploaded file is empty", http.StatusBadRequest)
		return
	}

	docID := r.FormValue("document_id")
	if docID == "" {
		docID = uuid.NewString()
	}
	if err := indexstore.ValidateID(docID); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	filename := sanitizeFilename(header.Filename)
	mimeType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	pages, err := s.orchestrator.Index(r.Context(), docID, data, filename, mimeType)
	if err != nil {
		s.log.Error("index failed", "document_id", docID, "error", err)
		jsonError(w, "failed to index document", http.StatusInternalServerError)
		return
	}

	status := "indexed"
	if pages == 0 {
		status = "error"
	}
	writeJSON(w, http.StatusCreated, uploadResponse{
		DocumentID: docID,
		Filename:   filename,
		MIMEType:   mimeType,
		PageCount:  pages,
		Status:     status,
	})
}

type askRequest struct {
	Question     string `json:"question"`
	DocumentName string `json:"document_name,omitempty"`
}

type askResponse struct {
	Answer  string            `json:"answer"`
	Sources []document.Source `json:"sources"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "documentID")

	var req askRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		jsonError(w, "question is required", http.StatusBadRequest)
		return
	}

	answer, sources, err := s.synth.Answer(r.Context(), req.Question, docID, req.DocumentName)
	if err != nil {
		s.storageError(w, docID, err)
		return
	}
	writeJSON(w, http.StatusOK, askResponse{Answer: answer, Sources: sources})
}

type summaryResponse struct {
	DocumentID string  `json:"document_id"`
	Summary    *string `json:"summary"`
	Generated  bool    `json:"generated"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "documentID")

	sum, ok, err := s.synth.Summarize(r.Context(), docID, r.URL.Query().Get("label"))
	if err != nil {
		s.storageError(w, docID, err)
		return
	}
	resp := summaryResponse{DocumentID: docID}
	if ok {
		resp.Summary = &sum.Text
		resp.Generated = sum.Generated
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "documentID")

	preview, err := s.synth.Preview(r.Context(), docID)
	if err != nil {
		s.storageError(w, docID, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (s *Server) handlePages(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "documentID")

	idx, err := s.store.Load(r.Context(), docID)
	if err != nil {
		s.storageError(w, docID, err)
		return
	}
	if idx.Pages == nil {
		idx.Pages = []document.Page{}
	}
	writeJSON(w, http.StatusOK, idx)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "documentID")

	if err := s.orchestrator.Delete(r.Context(), docID); err != nil {
		s.storageError(w, docID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "document_id": docID})
}

func (s *Server) storageError(w http.ResponseWriter, docID string, err error) {
	if errors.Is(err, indexstore.ErrInvalidDocumentID) {
		jsonError(w, "invalid document id", http.StatusBadRequest)
		return
	}
	s.log.Error("index storage failure", "document_id", docID, "error", err)
	jsonError(w, "index storage failure", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}

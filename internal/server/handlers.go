package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/voeux/invoice-tracker/constants"
	"github.com/voeux/invoice-tracker/internal/common"
	"github.com/voeux/invoice-tracker/internal/pipeline"
)

// Response is the uniform envelope all JSON endpoints use.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

var allowedUploadTypes = map[string]string{
	"application/pdf": "pdf",
	"image/png":       "png",
	"image/jpeg":      "jpg",
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.HealthCheck(r.Context(), 3*time.Second); err != nil {
			s.writeJSON(w, http.StatusServiceUnavailable, Response{Success: false, Error: "database unreachable"})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, Response{Success: true, Message: "ok"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		s.writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "invalid multipart body"})
		return
	}

	file, header, err := r.FormFile("invoice")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "missing 'invoice' file field"})
		return
	}
	defer file.Close()

	ext := constants.NormalizeExt(filepath.Ext(header.Filename))
	if !constants.IsAllowedExt(ext) {
		contentType := header.Header.Get("Content-Type")
		mapped, ok := allowedUploadTypes[strings.ToLower(contentType)]
		if !ok {
			s.writeJSON(w, http.StatusBadRequest, Response{
				Success: false,
				Error:   fmt.Sprintf("unsupported file type %q", contentType),
			})
			return
		}
		ext = mapped
	}

	tmpPath, err := s.saveUpload(file, header.Filename, ext)
	if err != nil {
		s.logger.Error("saving upload failed", "filename", header.Filename, "error", err)
		s.writeJSON(w, http.StatusInternalServerError, Response{Success: false, Error: "failed to store upload"})
		return
	}
	defer os.RemoveAll(filepath.Dir(tmpPath))

	result, err := s.processor.ProcessFile(r.Context(), tmpPath)
	if err != nil {
		status := http.StatusInternalServerError
		if pipeline.IsParseFailure(err) || errors.Is(err, common.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		s.writeJSON(w, status, Response{Success: false, Error: err.Error()})
		return
	}

	s.writeJSON(w, http.StatusOK, Response{Success: true, Message: "invoice processed", Data: result})
}

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := s.invoices.ListAll(r.Context())
	if err != nil {
		s.logger.Error("listing invoices failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, Response{Success: false, Error: "failed to list invoices"})
		return
	}
	s.writeJSON(w, http.StatusOK, Response{Success: true, Data: invoices})
}

// saveUpload spools the multipart part to a temp file keeping the
// original basename, which the pipeline records as the filename.
func (s *Server) saveUpload(src io.Reader, filename, ext string) (string, error) {
	dir, err := os.MkdirTemp("", "invoice-upload-*")
	if err != nil {
		return "", err
	}
	base := filepath.Base(filename)
	if base == "." || base == "/" || base == "" {
		base = "upload." + ext
	}
	path := filepath.Join(dir, base)
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("encoding response failed", "error", err)
	}
}

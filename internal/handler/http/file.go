package http

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/worktally/worktally-backend/internal/handler/http/response"
	"github.com/worktally/worktally-backend/internal/service/file"
)

// FileHandler serves stored uploads
type FileHandler interface {
	Serve(w http.ResponseWriter, r *http.Request)
}

type fileHandlerImpl struct {
	fileService file.FileService
}

// NewFileHandler creates a new file handler
func NewFileHandler(fileService file.FileService) FileHandler {
	return &fileHandlerImpl{fileService: fileService}
}

// Serve streams an uploaded file
// GET /uploads/*
func (h *fileHandlerImpl) Serve(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")

	rc, err := h.fileService.Open(r.Context(), key)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	if _, err := io.Copy(w, rc); err != nil {
		slog.Error("Failed to stream file", "path", key, "error", err)
	}
}

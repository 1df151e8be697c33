package handler

import (
	"errors"
	"go-blog-app/internal/logger"
	"go-blog-app/internal/media"
	"go-blog-app/internal/middleware"
	"go-blog-app/internal/service"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// uploadMemory is the in-memory share of a multipart upload; the rest spills to disk.
const uploadMemory = 32 << 20

// FileHandler holds the dependencies for the media handlers.
type FileHandler struct {
	files service.FileServicer
	log   logger.Logger
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(fs service.FileServicer, log logger.Logger) *FileHandler {
	return &FileHandler{files: fs, log: log}
}

type fileListResponse struct {
	Files []service.FileInfo `json:"files"`
}

func (h *FileHandler) listHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	userInfo := middleware.GetUserInfo(r.Context())
	files, err := h.files.List(r.Context(), chi.URLParam(r, "id"), userInfo.IsAdmin)
	if err != nil {
		return serviceError(err)
	}
	middleware.WriteJSON(w, http.StatusOK, fileListResponse{Files: files})
	return nil
}

// uploadHandler takes a multipart form with a "file" part and an optional
// "filename" base name.
func (h *FileHandler) uploadHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		return bodyError(err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return &middleware.AppError{Error: err, Message: "No file uploaded", Code: http.StatusBadRequest}
		}
		return bodyError(err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return bodyError(err)
	}

	res, err := h.files.Upload(r.Context(), chi.URLParam(r, "id"), media.Upload{
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		Data:         raw,
		BaseName:     r.FormValue("filename"),
	})
	if err != nil {
		return serviceError(err)
	}
	middleware.WriteJSON(w, http.StatusCreated, res)
	return nil
}

func (h *FileHandler) deleteHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if err := h.files.Delete(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "filename")); err != nil {
		return serviceError(err)
	}
	middleware.WriteJSON(w, http.StatusOK, successBody{Success: true})
	return nil
}

type signedURLResponse struct {
	URL string `json:"url"`
}

// signedURLHandler hands the editor a URL that loads a private file inline.
func (h *FileHandler) signedURLHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	u, err := h.files.SignedURL(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "filename"))
	if err != nil {
		return serviceError(err)
	}
	middleware.WriteJSON(w, http.StatusOK, signedURLResponse{URL: u})
	return nil
}

// serveHandler streams a media file with the MIME type recorded in the manifest.
func (h *FileHandler) serveHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	userInfo := middleware.GetUserInfo(r.Context())
	f, err := h.files.Open(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "filename"), userInfo.Credential)
	if err != nil {
		return serviceError(err)
	}
	defer f.Close()

	w.Header().Set("Content-Type", f.Type)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, f.Name, f.ModTime, f)
	return nil
}

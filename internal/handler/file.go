package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/EDWINCHENC/c-transfer-unique/internal/pkg/apperrors"
	"github.com/EDWINCHENC/c-transfer-unique/internal/pkg/httputils"
	"github.com/EDWINCHENC/c-transfer-unique/internal/pkg/ratelimit"
	"github.com/EDWINCHENC/c-transfer-unique/internal/service"
	"github.com/EDWINCHENC/c-transfer-unique/internal/storage"
)

type FileHandler struct {
	relay *service.RelayService
	blobs *storage.BlobStore

	// Hard cap on the request body. Slightly above the upload cap so the
	// pipeline, not the multipart parser, reports TooLarge.
	maxRequestBytes int64
}

func NewFileHandler(relay *service.RelayService, blobs *storage.BlobStore, maxFileBytes int64) *FileHandler {
	return &FileHandler{
		relay:           relay,
		blobs:           blobs,
		maxRequestBytes: maxFileBytes + 1024*1024,
	}
}

func (h *FileHandler) RegisterRoutes(router *mux.Router, rl *ratelimit.Limiter) {
	router.HandleFunc("/upload/", rl.PerMinute("upload_file", 10, h.uploadFile)).Methods("POST", "OPTIONS")
	router.HandleFunc("/files/{filename}", rl.PerMinute("fetch_file", 30, h.fetchFile)).Methods("GET", "OPTIONS")
	router.HandleFunc("/stream/{filename}", rl.PerMinute("stream_file", 30, h.streamFile)).Methods("GET", "OPTIONS")
}

// @Summary Upload file
// @Description Upload a file under an access code; returns the generated stored filename
// @ID upload-file
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to upload"
// @Param access_code formData string true "Access code"
// @Success 200 {object} service.UploadResult
// @Failure 400 {object} httputils.ErrorResponse
// @Failure 413 {object} httputils.ErrorResponse
// @Failure 500 {object} httputils.ErrorResponse
// @Router /upload/ [post]
func (h *FileHandler) uploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httputils.ResponseError(w, http.StatusRequestEntityTooLarge, apperrors.CodeTooLarge, "file exceeds the maximum allowed size")
			return
		}
		httputils.ResponseError(w, http.StatusBadRequest, apperrors.CodeInvalidArgument, "file field is required")
		return
	}
	defer file.Close()

	accessCode := r.FormValue("access_code")
	if accessCode == "" {
		httputils.ResponseError(w, http.StatusBadRequest, apperrors.CodeInvalidArgument, "access_code is required")
		return
	}

	result, err := h.relay.UploadFile(r.Context(), accessCode, file, header.Filename)
	if err != nil {
		httputils.ResponseAppError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, result)
}

// @Summary Download file
// @Description Download a stored file as an attachment
// @ID fetch-file
// @Produce octet-stream
// @Param filename path string true "Stored filename"
// @Param access_code query string true "Access code"
// @Success 200 {file} binary
// @Failure 404 {object} httputils.ErrorResponse
// @Failure 500 {object} httputils.ErrorResponse
// @Router /files/{filename} [get]
func (h *FileHandler) fetchFile(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, true)
}

// @Summary Stream file
// @Description Serve a stored file inline for playback
// @ID stream-file
// @Produce octet-stream
// @Param filename path string true "Stored filename"
// @Param access_code query string true "Access code"
// @Success 200 {file} binary
// @Failure 404 {object} httputils.ErrorResponse
// @Failure 500 {object} httputils.ErrorResponse
// @Router /stream/{filename} [get]
func (h *FileHandler) streamFile(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, false)
}

func (h *FileHandler) serveFile(w http.ResponseWriter, r *http.Request, attachment bool) {
	vars := mux.Vars(r)
	filename := vars["filename"]

	accessCode := r.URL.Query().Get("access_code")
	if accessCode == "" {
		httputils.ResponseError(w, http.StatusBadRequest, apperrors.CodeInvalidArgument, "access_code is required")
		return
	}

	info, err := h.relay.FetchFile(r.Context(), accessCode, filename)
	if err != nil {
		httputils.ResponseAppError(w, err)
		return
	}

	src, err := h.blobs.Open(accessCode, filename)
	if err != nil {
		httputils.ResponseAppError(w, apperrors.IOFailure("failed to open stored file", err))
		return
	}
	defer src.Close()

	disposition := "inline"
	if attachment {
		disposition = "attachment"
	}

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`%s; filename="%s"`, disposition, info.DisplayName))

	if _, err := io.Copy(w, src); err != nil {
		// Headers are already out; just log the broken transfer.
		slog.Error("error streaming file", "file", filename, "error", err)
	}
}

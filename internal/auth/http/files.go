package http

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/bni/bni/internal/auth/service"
	"github.com/bni/bni/pkg/authsdk"
	"github.com/bni/bni/pkg/httpx"
	"github.com/bni/bni/pkg/slogx"
)

// DefaultMaxUploadBytes bounds a single upload request.
const DefaultMaxUploadBytes = 10 << 20

const (
	msgUploaded     = "File uploaded successfully"
	msgMissingFile  = "Missing multipart field \"file\""
	msgUploadFailed = "Could not upload the file"
)

type FileHandler struct {
	FileService    *service.FileService
	MaxUploadBytes int64
}

// HandleUpload stores the multipart "file" field.
//
//	@Summary		Upload a file
//	@Description	Stores the file under its base name, replacing any file with the same name.
//	@Tags			Files
//	@Security		BearerAuth
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file					true	"File to upload"
//	@Success		200		{object}	authsdk.UploadResponse	"Stored file name and URL"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Missing file or invalid name"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid or expired token"
//	@Failure		413		{object}	authsdk.ErrorResponse	"File too large"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Storage failure"
//	@Router			/api/files/upload [post].
func (h *FileHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	if r.ContentLength > limit {
		httpx.WriteMessage(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	file, hdr, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httpx.WriteMessage(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		httpx.WriteMessage(w, http.StatusBadRequest, msgMissingFile)
		return
	}
	defer file.Close()
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	// Multipart writers default every part to octet-stream; let the
	// service derive a better type from the extension in that case.
	ct := hdr.Header.Get("Content-Type")
	if ct == "application/octet-stream" {
		ct = ""
	}

	stored, err := h.FileService.Upload(r.Context(), hdr.Filename, file, ct)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			writeError(w, r, err)
			return
		}
		slogx.FromContext(r.Context()).Error("upload failed", "error", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, msgUploadFailed)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.UploadResponse{
		Status:   http.StatusOK,
		Message:  msgUploaded,
		FileName: stored.Name,
		FileURL:  stored.URL,
	})
}

// HandleDownload streams a stored file inline.
//
//	@Summary		Download a file
//	@Tags			Files
//	@Produce		octet-stream
//	@Param			filename	path		string					true	"Stored file name"
//	@Success		200			{file}		binary					"File content"
//	@Failure		404			{object}	authsdk.ErrorResponse	"File not found"
//	@Router			/api/files/{filename} [get].
func (h *FileHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	rc, f, err := h.FileService.Open(r.Context(), r.PathValue("filename"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": f.Name}))
	if f.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(f.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		slogx.FromContext(r.Context()).Warn("download interrupted", "file", f.Name, "error", err)
	}
}

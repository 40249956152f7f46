package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/mirari/uploader/internal/httputil"
	"github.com/mirari/uploader/internal/model"
	"github.com/mirari/uploader/internal/service"
	"github.com/mirari/uploader/internal/transport/http/middleware"
)

type MediaHandler struct {
	uploadService *service.UploadService
}

func NewMediaHandler(uploadService *service.UploadService) *MediaHandler {
	return &MediaHandler{uploadService: uploadService}
}

// UploadImage handles POST /v1/upload_image.
// multipart form: file, post_id, web_resize (optional long-side budget).
// Missing required fields return 422 listing each by location.
func (h *MediaHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, model.MaxUploadSizeBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httputil.WriteBadRequest(w, "invalid multipart form")
		return
	}

	var missing []string

	file, header, err := r.FormFile("file")
	if err != nil {
		missing = append(missing, "file")
	} else {
		defer file.Close()
	}

	postID := r.FormValue("post_id")
	if postID == "" {
		missing = append(missing, "post_id")
	}

	if len(missing) > 0 {
		httputil.WriteMissingFields(w, missing...)
		return
	}

	var webResize *int
	if raw := r.FormValue("web_resize"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteBadRequest(w, model.ErrInvalidWebResize.Error())
			return
		}
		webResize = &size
	}

	fileData, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteBadRequest(w, "failed to read upload")
		return
	}

	result, err := h.uploadService.UploadImage(r.Context(), userID, fileData, header.Filename, postID, webResize)
	if err != nil {
		writeServiceError(w, "UploadImage", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

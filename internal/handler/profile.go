package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mirari/uploader/internal/httputil"
	"github.com/mirari/uploader/internal/model"
	"github.com/mirari/uploader/internal/service"
	"github.com/mirari/uploader/internal/transport/http/middleware"
)

type ProfileHandler struct {
	uploadService *service.UploadService
}

func NewProfileHandler(uploadService *service.UploadService) *ProfileHandler {
	return &ProfileHandler{uploadService: uploadService}
}

// SetIcon handles POST /v1/set_icon: a square crop of one of the caller's
// posts becomes their icon.
func (h *ProfileHandler) SetIcon(w http.ResponseWriter, r *http.Request) {
	h.set(w, r, "SetIcon", h.uploadService.SetIcon)
}

// SetBanner handles POST /v1/set_banner: a 3:1 crop becomes the banner.
func (h *ProfileHandler) SetBanner(w http.ResponseWriter, r *http.Request) {
	h.set(w, r, "SetBanner", h.uploadService.SetBanner)
}

func (h *ProfileHandler) set(w http.ResponseWriter, r *http.Request, op string, apply func(context.Context, int64, string, model.Coordinates) error) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req model.IconRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	if err := apply(r.Context(), userID, req.PostID, req.Coordinates); err != nil {
		writeServiceError(w, op, err)
		return
	}

	httputil.WriteNoContent(w)
}

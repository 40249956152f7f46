package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mirari/uploader/internal/httputil"
	"github.com/mirari/uploader/internal/model"
	"github.com/mirari/uploader/internal/service"
	"github.com/mirari/uploader/internal/transport/http/middleware"
)

type PostHandler struct {
	uploadService *service.UploadService
}

func NewPostHandler(uploadService *service.UploadService) *PostHandler {
	return &PostHandler{uploadService: uploadService}
}

// Create handles POST /v1/create_post.
// An empty body returns the caller's unpublished slot; any populated field
// creates a draft carrying the given fields.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req model.CreateRequest
	// An absent body is the same as an empty one: both yield the slot.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	var postID string
	var err error
	if req.Empty() {
		postID, err = h.uploadService.CreatePost(r.Context(), userID)
	} else {
		postID, err = h.uploadService.CreatePostWithFields(r.Context(), userID, req)
	}
	if err != nil {
		writeServiceError(w, "CreatePost", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.CreateResponse{PostID: postID})
}

// Update handles POST /v1/update_post.
// Missing fields mean "unchanged"; empty title/description mean "clear".
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req model.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.uploadService.UpdatePostMetadata(r.Context(), userID, req); err != nil {
		writeServiceError(w, "UpdatePost", err)
		return
	}

	httputil.WriteNoContent(w)
}

// UpdatePrivacy handles POST /v1/update_privacy.
func (h *PostHandler) UpdatePrivacy(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req model.PrivacyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.uploadService.UpdatePrivacy(r.Context(), userID, req.PostID, req.Privacy); err != nil {
		writeServiceError(w, "UpdatePrivacy", err)
		return
	}

	httputil.WriteNoContent(w)
}

package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/mirari/uploader/internal/httputil"
	"github.com/mirari/uploader/internal/model"
	"github.com/mirari/uploader/internal/postid"
)

// badRequestErrors are client errors surfaced with their own message.
var badRequestErrors = []error{
	model.ErrTitleTooLong,
	model.ErrDescriptionTooLong,
	model.ErrNoParams,
	model.ErrInvalidRating,
	model.ErrInvalidPrivacy,
	model.ErrSamePrivacy,
	model.ErrUnpublishForbidden,
	model.ErrDraftFromPublished,
	model.ErrInvalidVote,
	model.ErrInvalidImage,
	model.ErrMimeMismatch,
	model.ErrFileTooLarge,
	model.ErrInvalidWebResize,
	model.ErrBadCropGeometry,
	model.ErrCropOutOfBounds,
	model.ErrNoMediaUploaded,
	postid.ErrBadLength,
	postid.ErrBadValue,
}

// writeServiceError maps a service error onto the HTTP surface. Anything
// unrecognized is an internal error: it gets a fresh reference id that is
// both logged and returned.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, model.ErrPostNotFound), errors.Is(err, model.ErrUserNotFound):
		httputil.WriteNotFound(w, err.Error())
		return
	case errors.Is(err, model.ErrNotPostOwner):
		httputil.WriteForbidden(w, err.Error())
		return
	case errors.Is(err, model.ErrBadGateway):
		httputil.WriteBadGateway(w, "upstream service unavailable")
		return
	}

	for _, clientErr := range badRequestErrors {
		if errors.Is(err, clientErr) {
			httputil.WriteBadRequest(w, err.Error())
			return
		}
	}

	refID := uuid.NewString()
	log.Printf("[Handler] %s FAILED: refid=%s err=%v", op, refID, err)
	httputil.WriteInternalError(w, refID)
}

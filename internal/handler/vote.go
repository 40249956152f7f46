package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mirari/uploader/internal/httputil"
	"github.com/mirari/uploader/internal/model"
	"github.com/mirari/uploader/internal/service"
	"github.com/mirari/uploader/internal/transport/http/middleware"
)

type VoteHandler struct {
	scoreService *service.ScoreService
}

func NewVoteHandler(scoreService *service.ScoreService) *VoteHandler {
	return &VoteHandler{scoreService: scoreService}
}

// Vote handles POST /v1/vote. 1 is up, -1 is down, 0 or null retracts.
func (h *VoteHandler) Vote(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req model.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	score, err := h.scoreService.Vote(r.Context(), userID, req.PostID, req.Vote)
	if err != nil {
		writeServiceError(w, "Vote", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, score)
}

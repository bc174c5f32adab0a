package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/imgr-dev/imgr/shared/utils"
)

func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	h.detail.LoadDetail(r.Context(), chi.URLParam(r, "id"))
	writeSnapshot(w, h.detailSnapshot())
}

type commentRequest struct {
	Content string `json:"content"`
}

// PostComment leaves content checks to the detail machine so the user sees
// the same messages as every other client.
func (h *Handler) PostComment(w http.ResponseWriter, r *http.Request) {
	var body commentRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	h.detail.PostComment(r.Context(), chi.URLParam(r, "id"), body.Content)
	writeSnapshot(w, h.detailSnapshot())
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	h.detail.DeleteComment(r.Context(), chi.URLParam(r, "commentId"))
	writeSnapshot(w, h.detailSnapshot())
}

// ResetDetailOps sets every detail side operation back to idle.
func (h *Handler) ResetDetailOps(w http.ResponseWriter, r *http.Request) {
	h.detail.ResetPostState()
	h.detail.ResetDeleteCommentState()
	h.detail.ResetDeleteThreadState()
	writeSnapshot(w, h.detailSnapshot())
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/imgr-dev/imgr/shared/utils"
)

func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	writeSnapshot(w, h.feedSnapshot())
}

func (h *Handler) RefreshFeed(w http.ResponseWriter, r *http.Request) {
	h.feed.Load(r.Context())
	writeSnapshot(w, h.feedSnapshot())
}

func (h *Handler) LoadMore(w http.ResponseWriter, r *http.Request) {
	h.feed.LoadMore(r.Context())
	writeSnapshot(w, h.feedSnapshot())
}

type searchRequest struct {
	Query string `json:"query"`
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var body searchRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	h.feed.UpdateSearchQuery(body.Query)
	writeSnapshot(w, h.feedSnapshot())
}

func (h *Handler) ClearSearch(w http.ResponseWriter, r *http.Request) {
	h.feed.ClearSearch()
	writeSnapshot(w, h.feedSnapshot())
}

// DeleteThread deletes from the feed, or from the detail view when
// ?from=detail is given. A detail delete also refreshes the feed.
func (h *Handler) DeleteThread(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if r.URL.Query().Get("from") == "detail" {
		h.detail.DeleteThread(r.Context(), id)
		snap := h.detailSnapshot()
		if snap.State == "deleted" {
			h.feed.Load(r.Context())
		}
		writeSnapshot(w, snap)
		return
	}
	h.feed.DeleteThread(r.Context(), id)
	writeSnapshot(w, h.feedSnapshot())
}

func (h *Handler) ResetFeedDelete(w http.ResponseWriter, r *http.Request) {
	h.feed.ResetDeleteState()
	writeSnapshot(w, h.feedSnapshot())
}

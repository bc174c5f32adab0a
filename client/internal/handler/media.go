package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/imgr-dev/imgr/shared/utils"
)

// GetMedia streams an image written by the fs storage driver.
func (h *Handler) GetMedia(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	rc, err := h.media.Read(name)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if _, err := io.Copy(w, rc); err != nil {
		h.log.Warn("failed to stream media", "name", name, "error", err)
	}
}

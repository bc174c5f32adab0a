package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	internal_errors "github.com/imgr-dev/imgr/shared/errors"
	"github.com/imgr-dev/imgr/shared/messages"
	"github.com/imgr-dev/imgr/shared/utils"
)

// readImage parses a multipart form and returns its "image" file, or nil
// when none was attached.
func readImage(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, &internal_errors.ErrorWithStatusCode{
			Message:    fmt.Sprintf("invalid multipart form: %v", err),
			StatusCode: http.StatusBadRequest,
		}
	}

	file, _, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, internal_errors.NewValidation(messages.ImageReadFailed(err.Error()))
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, internal_errors.NewValidation(messages.ImageReadFailed(err.Error()))
	}
	return data, nil
}

// CreateThread expects multipart fields title, caption and image. The feed
// is reloaded after a successful create.
func (h *Handler) CreateThread(w http.ResponseWriter, r *http.Request) {
	image, err := readImage(w, r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	h.compose.CreateThread(r.Context(), r.FormValue("title"), r.FormValue("caption"), image)
	snap := h.compose.State()
	if snap.Thread != nil {
		h.feed.Load(r.Context())
	}
	writeSnapshot(w, composeSnapshot(snap))
}

func (h *Handler) InspectImage(w http.ResponseWriter, r *http.Request) {
	image, err := readImage(w, r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	preview, err := h.compose.InspectImage(image)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeSnapshot(w, preview)
}

func (h *Handler) GetCompose(w http.ResponseWriter, r *http.Request) {
	writeSnapshot(w, composeSnapshot(h.compose.State()))
}

func (h *Handler) ResetCompose(w http.ResponseWriter, r *http.Request) {
	h.compose.Reset()
	writeSnapshot(w, composeSnapshot(h.compose.State()))
}

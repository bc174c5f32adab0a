// Package handler is the JSON bridge: each route runs an intent on a state
// machine and answers with the machine's snapshot.
package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/imgr-dev/imgr/client/internal/account"
	"github.com/imgr-dev/imgr/client/internal/compose"
	"github.com/imgr-dev/imgr/client/internal/detail"
	"github.com/imgr-dev/imgr/client/internal/feed"
	"github.com/imgr-dev/imgr/shared/logger"
	"github.com/imgr-dev/imgr/shared/utils"
)

// maxUploadBytes caps the multipart body of a create-thread request.
const maxUploadBytes = 20 << 20

// MediaReader serves images stored by the local fs driver.
type MediaReader interface {
	Read(name string) (io.ReadCloser, error)
}

type Handler struct {
	feed    *feed.Feed
	detail  *detail.Detail
	compose *compose.Compose
	account *account.Account
	media   MediaReader
	log     *slog.Logger
}

// New builds the bridge handler. media may be nil when images are not
// stored locally.
func New(feed *feed.Feed, detail *detail.Detail, compose *compose.Compose, account *account.Account, media MediaReader) *Handler {
	return &Handler{
		feed:    feed,
		detail:  detail,
		compose: compose,
		account: account,
		media:   media,
		log:     logger.Component("handler"),
	}
}

func (h *Handler) HasMedia() bool {
	return h.media != nil
}

func writeSnapshot(w http.ResponseWriter, body any) {
	utils.WriteJSON(w, http.StatusOK, body)
}

// Health is the liveness check endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

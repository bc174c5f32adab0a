package handler

import (
	"net/http"

	"github.com/imgr-dev/imgr/shared/utils"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type stayLoggedInRequest struct {
	Stay *bool `json:"stay" validate:"required"`
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	h.account.SignUp(r.Context(), body.Email, body.Password)
	writeSnapshot(w, h.account.State())
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	h.account.SignIn(r.Context(), body.Email, body.Password)
	writeSnapshot(w, h.account.State())
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.account.ConfirmLogout(r.Context())
	writeSnapshot(w, h.account.State())
}

func (h *Handler) SendPasswordReset(w http.ResponseWriter, r *http.Request) {
	var body resetRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	h.account.SendPasswordResetEmail(r.Context(), body.Email)
	writeSnapshot(w, h.account.State())
}

func (h *Handler) RefreshSession(w http.ResponseWriter, r *http.Request) {
	h.account.RefreshSession(r.Context())
	writeSnapshot(w, h.account.State())
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeSnapshot(w, h.account.State())
}

// SetStayLoggedIn records and persists the preference.
func (h *Handler) SetStayLoggedIn(w http.ResponseWriter, r *http.Request) {
	var body stayLoggedInRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	h.account.SetStayLoggedIn(*body.Stay)
	if err := h.account.SaveStayLoggedIn(r.Context()); err != nil {
		h.log.Error("failed to save stay logged in preference", "error", err)
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeSnapshot(w, h.account.State())
}

func (h *Handler) ResetAccountOps(w http.ResponseWriter, r *http.Request) {
	h.account.ResetState()
	h.account.ResetForgotPasswordState()
	writeSnapshot(w, h.account.State())
}

package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	internal_errors "github.com/imgr-dev/imgr/shared/errors"
	"github.com/imgr-dev/imgr/shared/logger"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// StatusCode maps an error to the HTTP status the bridge answers with.
func StatusCode(err error) int {
	var withStatus *internal_errors.ErrorWithStatusCode
	switch {
	case errors.As(err, &withStatus):
		return withStatus.StatusCode
	case internal_errors.Is[*internal_errors.ValidationError](err):
		return http.StatusBadRequest
	case internal_errors.Is[*internal_errors.AuthError](err):
		return http.StatusUnauthorized
	case internal_errors.Is[*internal_errors.NotFoundError](err):
		return http.StatusNotFound
	case internal_errors.Is[*internal_errors.NetworkError](err):
		return http.StatusBadGateway
	}
	// default error is 500
	return http.StatusInternalServerError
}

type errorBody struct {
	Error string `json:"error"`
}

func WriteErrorAndStatusCode(w http.ResponseWriter, err error) {
	WriteJSON(w, StatusCode(err), errorBody{Error: err.Error()})
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
	}
}

func GetIP(r *http.Request) (string, error) {
	//Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	if net.ParseIP(ip) != nil {
		return ip, nil
	}

	//Get IP from X-FORWARDED-FOR header
	for _, ip := range strings.Split(r.Header.Get("X-FORWARDED-FOR"), ",") {
		ip = strings.TrimSpace(ip)
		if net.ParseIP(ip) != nil {
			return ip, nil
		}
	}

	//Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "", err
	}
	if net.ParseIP(ip) != nil {
		return ip, nil
	}
	return "", errors.New("no valid ip found")
}

func DecodeValidate(r io.ReadCloser, body any) error {
	if err := json.NewDecoder(r).Decode(body); err != nil {
		logger.Log.Debug("invalid json body", "error", err)
		return &internal_errors.ErrorWithStatusCode{Message: "Body is invalid json", StatusCode: http.StatusBadRequest}
	}
	if err := validate.Struct(body); err != nil {
		logger.Log.Debug("body failed validation", "error", err)
		return &internal_errors.ErrorWithStatusCode{Message: "Required fields missing", StatusCode: http.StatusBadRequest}
	}
	return nil
}

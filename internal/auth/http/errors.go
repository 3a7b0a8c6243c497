package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/bni/bni/internal/auth/service"
	"github.com/bni/bni/pkg/authsdk"
	"github.com/bni/bni/pkg/httpx"
	"github.com/bni/bni/pkg/slogx"
)

// Response messages. Credential and token failures never echo the
// underlying cause.
const (
	msgValidation         = "Validation failed"
	msgMissingHeader      = "Missing or malformed Authorization header"
	msgInvalidCredentials = "Invalid username or password"
	msgInvalidToken       = "Invalid or expired token"
	msgNotFound           = "Not found"
	msgDuplicateUser      = "User already exists"
	msgMalformedBody      = "Malformed request body"
	msgBodyTooLarge       = "Request body too large"
	msgInternal           = "Internal server error"
)

// writeError maps a service error onto a status code and {status, message}
// body. Unrecognised errors are logged and reported as 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.WriteJSON(w, http.StatusBadRequest, authsdk.ErrorResponse{
			Status:  http.StatusBadRequest,
			Message: msgValidation,
			Errors:  verr.Fields,
		})
	case errors.Is(err, service.ErrMissingHeader):
		httpx.WriteMessage(w, http.StatusBadRequest, msgMissingHeader)
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteMessage(w, http.StatusUnauthorized, msgInvalidCredentials)
	case errors.Is(err, service.ErrInvalidToken):
		httpx.WriteMessage(w, http.StatusUnauthorized, msgInvalidToken)
	case errors.Is(err, service.ErrNotFound):
		httpx.WriteMessage(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, service.ErrDuplicateUser):
		httpx.WriteMessage(w, http.StatusConflict, msgDuplicateUser)
	default:
		slogx.FromContext(r.Context()).Error("request failed", slog.Any("error", err))
		httpx.WriteMessage(w, http.StatusInternalServerError, msgInternal)
	}
}

// writeDecodeError reports a body that could not be read as JSON.
func writeDecodeError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		httpx.WriteMessage(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
		return
	}
	httpx.WriteMessage(w, http.StatusBadRequest, msgMalformedBody)
}

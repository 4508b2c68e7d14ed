package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/campus/internal/campus/service"
	"github.com/aussiebroadwan/campus/internal/campus/store"
	"github.com/aussiebroadwan/campus/pkg/campussdk"
	"github.com/aussiebroadwan/campus/pkg/httpx"
	"github.com/aussiebroadwan/campus/pkg/slogx"
)

// writeError maps service errors onto the API error catalogue. Anything
// unrecognised is logged and reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		campussdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
	case errors.Is(err, service.ErrDuplicateEmail):
		campussdk.ErrDuplicateEmail.WriteError(w)
	case errors.Is(err, service.ErrAccountNotFound):
		campussdk.ErrAccountNotFound.WriteError(w)
	case errors.Is(err, service.ErrAlreadyVerified):
		campussdk.ErrAlreadyVerified.WriteError(w)
	case errors.Is(err, service.ErrInvalidOTP):
		campussdk.ErrInvalidOTP.WriteError(w)
	case errors.Is(err, service.ErrOTPExpired):
		campussdk.ErrOTPExpired.WriteError(w)
	case errors.Is(err, service.ErrOTPLocked):
		campussdk.ErrOTPLocked.WriteError(w)
	case errors.Is(err, service.ErrOTPDelivery):
		campussdk.ErrOTPDelivery.WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		campussdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrNotVerified):
		campussdk.ErrNotVerified.WriteError(w)
	case errors.Is(err, service.ErrAdminRequired):
		campussdk.ErrAdminRequired.WriteError(w)
	case errors.Is(err, service.ErrForbidden):
		campussdk.ErrAccessDenied.WriteError(w)
	case errors.Is(err, service.ErrEventNotFound):
		campussdk.ErrEventNotFound.WriteError(w)
	case errors.Is(err, service.ErrRegistrationNotFound):
		campussdk.ErrRegistrationNotFound.WriteError(w)
	case errors.Is(err, service.ErrDuplicateRegistration):
		campussdk.ErrDuplicateRegistration.WriteError(w)
	case errors.Is(err, service.ErrEventFull):
		campussdk.ErrEventFull.WriteError(w)
	case errors.Is(err, service.ErrTokenGeneration):
		campussdk.ErrTokenGeneration.WriteError(w)
	case errors.Is(err, service.ErrInvalidTicket):
		campussdk.ErrInvalidTicket.WriteError(w)
	case errors.Is(err, service.ErrAlreadyCheckedIn):
		campussdk.ErrAlreadyCheckedIn.WriteError(w)
	case errors.Is(err, store.ErrNotFound):
		campussdk.ErrNotFound.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", slog.Any("err", err))
		campussdk.ErrServerError.WriteError(w)
	}
}

// decodeRequest reads a JSON body, answering 400 itself on failure.
func decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httpx.DecodeJSON(w, r, v); err != nil {
		campussdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
		return false
	}
	return true
}

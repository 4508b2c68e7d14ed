package http

import (
	"net/http"

	"github.com/aussiebroadwan/campus/internal/campus/service"
	"github.com/aussiebroadwan/campus/pkg/campussdk"
	"github.com/aussiebroadwan/campus/pkg/httpx"
	"github.com/go-chi/chi/v5"
)

type RegistrationsHandler struct {
	RegistrationService *service.RegistrationService
}

// HandleRegister signs the caller up for an event.
//
//	@Summary		Register for event
//	@Description	Returns the registration with its QR ticket (PNG data URL) and the signed token the QR encodes.
//	@Description	A confirmation email with the ticket is sent in the background.
//	@Tags			Registrations
//	@Security		SessionCookie
//	@Accept			json
//	@Produce		json
//	@Param			request	body		campussdk.RegistrationRequest	true	"Event to register for"
//	@Success		201		{object}	campussdk.RegistrationResponse
//	@Failure		400		{object}	httpx.ErrorBody	"duplicate_registration or event_full"
//	@Failure		404		{object}	httpx.ErrorBody	"event_not_found"
//	@Failure		500		{object}	httpx.ErrorBody	"token_generation_failed"
//	@Router			/registrations [post].
func (h *RegistrationsHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req campussdk.RegistrationRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.EventID == "" {
		campussdk.ErrInvalidRequest.WithDescription("eventId is required").WriteError(w)
		return
	}

	reg, err := h.RegistrationService.Register(r.Context(), authContext(r), req.EventID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, campussdk.RegistrationResponse{
		Message:      "Registration successful",
		Registration: toRegistration(reg),
	})
}

// HandleListMine lists the caller's registrations, newest first.
//
//	@Summary		My registrations
//	@Tags			Registrations
//	@Security		SessionCookie
//	@Produce		json
//	@Success		200	{array}	campussdk.Registration
//	@Router			/registrations/my-registrations [get].
func (h *RegistrationsHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	regs, err := h.RegistrationService.ListMine(r.Context(), authContext(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]campussdk.Registration, len(regs))
	for i, reg := range regs {
		out[i] = toRegistrationWithEvent(reg)
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleCheck reports whether the caller is registered for an event.
//
//	@Summary		Check registration
//	@Tags			Registrations
//	@Security		SessionCookie
//	@Produce		json
//	@Param			eventId	path		string	true	"Event ID"
//	@Success		200		{object}	campussdk.CheckRegistrationResponse
//	@Router			/registrations/check/{eventId} [get].
func (h *RegistrationsHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	reg, err := h.RegistrationService.Check(r.Context(), authContext(r), chi.URLParam(r, "eventId"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := campussdk.CheckRegistrationResponse{IsRegistered: reg != nil}
	if reg != nil {
		out := toRegistration(*reg)
		resp.Registration = &out
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet returns one of the caller's registrations.
//
//	@Summary		Get registration
//	@Tags			Registrations
//	@Security		SessionCookie
//	@Produce		json
//	@Param			id	path		string	true	"Registration ID"
//	@Success		200	{object}	campussdk.Registration
//	@Failure		403	{object}	httpx.ErrorBody	"access_denied"
//	@Failure		404	{object}	httpx.ErrorBody	"registration_not_found"
//	@Router			/registrations/{id} [get].
func (h *RegistrationsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	reg, err := h.RegistrationService.Get(r.Context(), authContext(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toRegistrationWithEvent(reg))
}

// HandleCancel cancels one of the caller's registrations.
//
//	@Summary		Cancel registration
//	@Tags			Registrations
//	@Security		SessionCookie
//	@Produce		json
//	@Param			id	path		string	true	"Registration ID"
//	@Success		200	{object}	campussdk.MessageResponse
//	@Failure		403	{object}	httpx.ErrorBody	"access_denied"
//	@Failure		404	{object}	httpx.ErrorBody	"registration_not_found"
//	@Router			/registrations/{id} [delete].
func (h *RegistrationsHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	if err := h.RegistrationService.Cancel(r.Context(), authContext(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, campussdk.MessageResponse{Message: "Registration cancelled successfully"})
}

// HandleCheckIn admits a ticket holder at the door.
//
//	@Summary		Check in ticket
//	@Description	Admin organiser of the ticket's event only. The token is the text of the scanned QR code.
//	@Tags			Registrations
//	@Security		SessionCookie
//	@Accept			json
//	@Produce		json
//	@Param			request	body		campussdk.CheckInRequest	true	"Scanned token"
//	@Success		200		{object}	campussdk.RegistrationResponse
//	@Failure		400		{object}	httpx.ErrorBody	"invalid_ticket or already_checked_in"
//	@Failure		403		{object}	httpx.ErrorBody	"access_denied"
//	@Failure		404		{object}	httpx.ErrorBody	"registration_not_found"
//	@Router			/registrations/check-in [post].
func (h *RegistrationsHandler) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	var req campussdk.CheckInRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	reg, err := h.RegistrationService.CheckIn(r.Context(), authContext(r), req.Token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, campussdk.RegistrationResponse{
		Message:      "Checked in",
		Registration: toRegistrationWithEvent(reg),
	})
}

package http

import (
	"net/http"

	"github.com/aussiebroadwan/campus/internal/campus/service"
	"github.com/aussiebroadwan/campus/pkg/campussdk"
	"github.com/aussiebroadwan/campus/pkg/httpx"
	"github.com/go-chi/chi/v5"
)

type EventsHandler struct {
	EventService *service.EventService
}

func eventInput(req campussdk.EventRequest) service.EventInput {
	return service.EventInput{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		Venue:       req.Venue,
		Image:       req.Image,
		MaxCapacity: req.MaxCapacity,
	}
}

// HandleList returns every event, soonest first.
//
//	@Summary		List events
//	@Tags			Events
//	@Produce		json
//	@Success		200	{array}	campussdk.Event
//	@Router			/events [get].
func (h *EventsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	events, err := h.EventService.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]campussdk.Event, len(events))
	for i, e := range events {
		out[i] = toEvent(e)
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleGet returns one event with its registered students.
//
//	@Summary		Get event
//	@Tags			Events
//	@Produce		json
//	@Param			id	path		string	true	"Event ID"
//	@Success		200	{object}	campussdk.Event
//	@Failure		404	{object}	httpx.ErrorBody	"event_not_found"
//	@Router			/events/{id} [get].
func (h *EventsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	detail, err := h.EventService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toEventDetail(detail))
}

// HandleCreate publishes a new event organised by the caller.
//
//	@Summary		Create event
//	@Description	Admin only. image may be a URL or a base64 data URL, which is stored and served from /media/{id}.
//	@Description	maxCapacity defaults to 200.
//	@Tags			Events
//	@Security		SessionCookie
//	@Accept			json
//	@Produce		json
//	@Param			request	body		campussdk.EventRequest	true	"Event"
//	@Success		201		{object}	campussdk.EventResponse
//	@Failure		400		{object}	httpx.ErrorBody	"invalid_request"
//	@Failure		401		{object}	httpx.ErrorBody	"not_authenticated"
//	@Failure		403		{object}	httpx.ErrorBody	"access_denied"
//	@Router			/events [post].
func (h *EventsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req campussdk.EventRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	ev, err := h.EventService.Create(r.Context(), authContext(r), eventInput(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, campussdk.EventResponse{
		Message: "Event created successfully",
		Event:   toEvent(ev),
	})
}

// HandleUpdate edits an event. Empty fields keep their value.
//
//	@Summary		Update event
//	@Description	Organiser only. maxCapacity may not drop below the number already registered.
//	@Tags			Events
//	@Security		SessionCookie
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Event ID"
//	@Param			request	body		campussdk.EventRequest	true	"Fields to change"
//	@Success		200		{object}	campussdk.EventResponse
//	@Failure		400		{object}	httpx.ErrorBody	"invalid_request"
//	@Failure		403		{object}	httpx.ErrorBody	"access_denied"
//	@Failure		404		{object}	httpx.ErrorBody	"event_not_found"
//	@Router			/events/{id} [put].
func (h *EventsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req campussdk.EventRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	ev, err := h.EventService.Update(r.Context(), authContext(r), chi.URLParam(r, "id"), eventInput(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, campussdk.EventResponse{
		Message: "Event updated successfully",
		Event:   toEvent(ev),
	})
}

// HandleDelete removes an event along with its registrations.
//
//	@Summary		Delete event
//	@Tags			Events
//	@Security		SessionCookie
//	@Produce		json
//	@Param			id	path		string	true	"Event ID"
//	@Success		200	{object}	campussdk.MessageResponse
//	@Failure		403	{object}	httpx.ErrorBody	"access_denied"
//	@Failure		404	{object}	httpx.ErrorBody	"event_not_found"
//	@Router			/events/{id} [delete].
func (h *EventsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.EventService.Delete(r.Context(), authContext(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, campussdk.MessageResponse{Message: "Event deleted successfully"})
}

// HandleIsOrganiser reports whether the caller organises the event.
//
//	@Summary		Is organiser
//	@Tags			Events
//	@Security		SessionCookie
//	@Produce		json
//	@Param			id	path		string	true	"Event ID"
//	@Success		200	{object}	campussdk.IsOrganiserResponse
//	@Failure		404	{object}	httpx.ErrorBody	"event_not_found"
//	@Router			/events/{id}/is-organiser [get].
func (h *EventsHandler) HandleIsOrganiser(w http.ResponseWriter, r *http.Request) {
	yes, err := h.EventService.IsOrganiser(r.Context(), authContext(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, campussdk.IsOrganiserResponse{IsOrganiser: yes})
}

package http

import (
	"net/http"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
	"github.com/aussiebroadwan/campus/internal/campus/service"
	"github.com/aussiebroadwan/campus/pkg/campussdk"
	"github.com/aussiebroadwan/campus/pkg/httpx"
)

// authContext builds the service caller from the session. Routes that need
// one sit behind RequireSession.
func authContext(r *http.Request) service.AuthContext {
	p, _ := httpx.PrincipalFromContext(r.Context())
	return service.AuthContext{AccountID: p.AccountID, Role: p.Role}
}

func toUser(a domain.Account) campussdk.User {
	return campussdk.User{ID: a.ID, Name: a.Name, Email: a.Email, Role: a.Role}
}

func toEvent(e domain.Event) campussdk.Event {
	return campussdk.Event{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date,
		Time:        e.Time,
		Venue:       e.Venue,
		Image:       e.Image,
		Organiser: campussdk.Person{
			ID:    e.OrganiserID,
			Name:  e.OrganiserName,
			Email: e.OrganiserEmail,
		},
		MaxCapacity:     e.MaxCapacity,
		RegisteredCount: e.RegisteredCount,
		SpotsLeft:       e.SpotsLeft(),
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func toEventDetail(d domain.EventDetail) campussdk.Event {
	ev := toEvent(d.Event)
	ev.RegisteredStudents = make([]campussdk.Person, len(d.Attendees))
	for i, a := range d.Attendees {
		ev.RegisteredStudents[i] = campussdk.Person{ID: a.ID, Name: a.Name, Email: a.Email}
	}
	return ev
}

func toRegistration(r domain.Registration) campussdk.Registration {
	return campussdk.Registration{
		ID:           r.ID,
		UserID:       r.AccountID,
		EventID:      r.EventID,
		QRCode:       r.Ticket,
		TicketToken:  r.TicketToken,
		RegisteredAt: r.RegisteredAt,
		Attended:     r.Attended,
		AttendedAt:   r.AttendedAt,
	}
}

func toRegistrationWithEvent(r domain.RegistrationWithEvent) campussdk.Registration {
	out := toRegistration(r.Registration)
	if r.Event.ID != "" {
		ev := toEvent(r.Event)
		out.Event = &ev
	}
	return out
}

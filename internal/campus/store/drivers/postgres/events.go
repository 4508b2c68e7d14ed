package postgres

import (
	"context"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
	"github.com/jackc/pgx/v5"
)

type eventsRepo struct {
	db dbtx
}

const eventColumns = `e.id, e.title, e.description, e.date, e.time, e.venue, e.image,
	e.organiser_id, e.max_capacity, e.created_at, e.updated_at,
	COALESCE((SELECT o.name FROM accounts o WHERE o.id = e.organiser_id), ''),
	COALESCE((SELECT o.email FROM accounts o WHERE o.id = e.organiser_id), ''),
	(SELECT COUNT(*) FROM event_attendees a WHERE a.event_id = e.id)`

func eventDest(e *domain.Event) []any {
	return []any{
		&e.ID, &e.Title, &e.Description, &e.Date, &e.Time, &e.Venue, &e.Image,
		&e.OrganiserID, &e.MaxCapacity, &e.CreatedAt, &e.UpdatedAt,
		&e.OrganiserName, &e.OrganiserEmail, &e.RegisteredCount,
	}
}

func (r *eventsRepo) CreateEvent(ctx context.Context, e domain.Event) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, title, description, date, time, venue, image,
		                     organiser_id, max_capacity, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.Title, e.Description, e.Date, e.Time, e.Venue, e.Image,
		e.OrganiserID, e.MaxCapacity, e.CreatedAt, e.UpdatedAt,
	)
	return mapUnique(err)
}

func (r *eventsRepo) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	var e domain.Event
	err := r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events e WHERE e.id = $1`, id,
	).Scan(eventDest(&e)...)
	return e, mapNotFound(err)
}

func (r *eventsRepo) ListEvents(ctx context.Context) ([]domain.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events e ORDER BY e.date ASC, e.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(eventDest(&e)...); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventsRepo) UpdateEvent(ctx context.Context, e domain.Event) error {
	return mustAffect(r.db.Exec(ctx,
		`UPDATE events
		 SET title = $1, description = $2, date = $3, time = $4, venue = $5, image = $6,
		     max_capacity = $7, updated_at = $8
		 WHERE id = $9`,
		e.Title, e.Description, e.Date, e.Time, e.Venue, e.Image,
		e.MaxCapacity, e.UpdatedAt, e.ID,
	))
}

func (r *eventsRepo) DeleteEvent(ctx context.Context, id string) error {
	return mustAffect(r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id))
}

// LockEvent holds the event row until the transaction ends, so concurrent
// registrations for the same event count the roster one at a time.
func (r *eventsRepo) LockEvent(ctx context.Context, id string) error {
	var locked string
	err := r.db.QueryRow(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	return mapNotFound(err)
}

func (r *eventsRepo) CountAttendees(ctx context.Context, eventID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM event_attendees WHERE event_id = $1`, eventID).Scan(&n)
	return n, err
}

func (r *eventsRepo) ListAttendees(ctx context.Context, eventID string) ([]domain.Attendee, error) {
	rows, err := r.db.Query(ctx,
		`SELECT a.id, a.name, a.email
		 FROM event_attendees ea
		 JOIN accounts a ON a.id = ea.account_id
		 WHERE ea.event_id = $1
		 ORDER BY a.name, a.id`, eventID)
	if err != nil {
		return nil, err
	}
	attendees, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Attendee, error) {
		var at domain.Attendee
		err := row.Scan(&at.ID, &at.Name, &at.Email)
		return at, err
	})
	if err != nil {
		return nil, err
	}
	if attendees == nil {
		attendees = []domain.Attendee{}
	}
	return attendees, nil
}

func (r *eventsRepo) AddAttendee(ctx context.Context, eventID, accountID string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO event_attendees (event_id, account_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		eventID, accountID,
	)
	return err
}

func (r *eventsRepo) RemoveAttendee(ctx context.Context, eventID, accountID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM event_attendees WHERE event_id = $1 AND account_id = $2`,
		eventID, accountID,
	)
	return err
}

func (r *eventsRepo) ClearAttendees(ctx context.Context, eventID string) error {
	if _, err := r.db.Exec(ctx,
		`DELETE FROM event_attendees WHERE event_id = $1`, eventID); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx,
		`DELETE FROM account_events WHERE event_id = $1`, eventID)
	return err
}

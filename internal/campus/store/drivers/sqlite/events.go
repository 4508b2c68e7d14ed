package sqlite

import (
	"context"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
)

type eventsRepo struct {
	db dbtx
}

const eventColumns = `e.id, e.title, e.description, e.date, e.time, e.venue, e.image,
	e.organiser_id, e.max_capacity, e.created_at, e.updated_at,
	COALESCE((SELECT o.name FROM accounts o WHERE o.id = e.organiser_id), ''),
	COALESCE((SELECT o.email FROM accounts o WHERE o.id = e.organiser_id), ''),
	(SELECT COUNT(*) FROM event_attendees a WHERE a.event_id = e.id)`

func scanEvent(row interface{ Scan(...any) error }) (domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Date, &e.Time, &e.Venue, &e.Image,
		&e.OrganiserID, &e.MaxCapacity, &e.CreatedAt, &e.UpdatedAt,
		&e.OrganiserName, &e.OrganiserEmail, &e.RegisteredCount,
	)
	return e, err
}

func (r *eventsRepo) CreateEvent(ctx context.Context, e domain.Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (id, title, description, date, time, venue, image,
		                     organiser_id, max_capacity, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Description, e.Date, e.Time, e.Venue, e.Image,
		e.OrganiserID, e.MaxCapacity, e.CreatedAt.UTC(), e.UpdatedAt.UTC(),
	)
	return mapUnique(err)
}

func (r *eventsRepo) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events e WHERE e.id = ?`, id))
	return e, mapNotFound(err)
}

func (r *eventsRepo) ListEvents(ctx context.Context) ([]domain.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events e ORDER BY e.date ASC, e.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventsRepo) UpdateEvent(ctx context.Context, e domain.Event) error {
	return mustAffect(r.db.ExecContext(ctx,
		`UPDATE events
		 SET title = ?, description = ?, date = ?, time = ?, venue = ?, image = ?,
		     max_capacity = ?, updated_at = ?
		 WHERE id = ?`,
		e.Title, e.Description, e.Date, e.Time, e.Venue, e.Image,
		e.MaxCapacity, e.UpdatedAt.UTC(), e.ID,
	))
}

func (r *eventsRepo) DeleteEvent(ctx context.Context, id string) error {
	return mustAffect(r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id))
}

// LockEvent only checks existence. The single connection already
// serialises transactions.
func (r *eventsRepo) LockEvent(ctx context.Context, id string) error {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = ?`, id).Scan(&one)
	return mapNotFound(err)
}

func (r *eventsRepo) CountAttendees(ctx context.Context, eventID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_attendees WHERE event_id = ?`, eventID).Scan(&n)
	return n, err
}

func (r *eventsRepo) ListAttendees(ctx context.Context, eventID string) ([]domain.Attendee, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.name, a.email
		 FROM event_attendees ea
		 JOIN accounts a ON a.id = ea.account_id
		 WHERE ea.event_id = ?
		 ORDER BY a.name, a.id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attendees := []domain.Attendee{}
	for rows.Next() {
		var at domain.Attendee
		if err := rows.Scan(&at.ID, &at.Name, &at.Email); err != nil {
			return nil, err
		}
		attendees = append(attendees, at)
	}
	return attendees, rows.Err()
}

func (r *eventsRepo) AddAttendee(ctx context.Context, eventID, accountID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_attendees (event_id, account_id) VALUES (?, ?)
		 ON CONFLICT DO NOTHING`,
		eventID, accountID,
	)
	return err
}

func (r *eventsRepo) RemoveAttendee(ctx context.Context, eventID, accountID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM event_attendees WHERE event_id = ? AND account_id = ?`,
		eventID, accountID,
	)
	return err
}

func (r *eventsRepo) ClearAttendees(ctx context.Context, eventID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM event_attendees WHERE event_id = ?`, eventID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM account_events WHERE event_id = ?`, eventID)
	return err
}

package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
)

type registrationsRepo struct {
	db dbtx
}

const registrationColumns = `r.id, r.account_id, r.event_id, r.ticket, r.ticket_token,
	r.registered_at, r.attended, r.attended_at`

func registrationDest(dest []any, reg *domain.Registration, attendedAt *sql.NullTime) []any {
	return append(dest,
		&reg.ID, &reg.AccountID, &reg.EventID, &reg.Ticket, &reg.TicketToken,
		&reg.RegisteredAt, &reg.Attended, attendedAt,
	)
}

func (r *registrationsRepo) CreateRegistration(ctx context.Context, reg domain.Registration) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO registrations (id, account_id, event_id, ticket, ticket_token,
		                            registered_at, attended, attended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		reg.ID, reg.AccountID, reg.EventID, reg.Ticket, reg.TicketToken,
		reg.RegisteredAt.UTC(), reg.Attended, mapOptionalTime(reg.AttendedAt),
	)
	return mapUnique(err)
}

func (r *registrationsRepo) get(ctx context.Context, where string, args ...any) (domain.Registration, error) {
	var (
		reg        domain.Registration
		attendedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations r WHERE `+where, args...,
	).Scan(registrationDest(nil, &reg, &attendedAt)...)
	if err != nil {
		return domain.Registration{}, mapNotFound(err)
	}
	reg.AttendedAt = mapNullTimePtr(attendedAt)
	return reg, nil
}

func (r *registrationsRepo) GetRegistration(ctx context.Context, id string) (domain.Registration, error) {
	return r.get(ctx, `r.id = ?`, id)
}

func (r *registrationsRepo) GetRegistrationFor(ctx context.Context, accountID, eventID string) (domain.Registration, error) {
	return r.get(ctx, `r.account_id = ? AND r.event_id = ?`, accountID, eventID)
}

func (r *registrationsRepo) ListByAccount(ctx context.Context, accountID string) ([]domain.RegistrationWithEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+registrationColumns+`, `+eventColumns+`
		 FROM registrations r
		 JOIN events e ON e.id = r.event_id
		 WHERE r.account_id = ?
		 ORDER BY r.registered_at DESC, r.id DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.RegistrationWithEvent{}
	for rows.Next() {
		var (
			item       domain.RegistrationWithEvent
			attendedAt sql.NullTime
		)
		dest := registrationDest(nil, &item.Registration, &attendedAt)
		e := &item.Event
		dest = append(dest,
			&e.ID, &e.Title, &e.Description, &e.Date, &e.Time, &e.Venue, &e.Image,
			&e.OrganiserID, &e.MaxCapacity, &e.CreatedAt, &e.UpdatedAt,
			&e.OrganiserName, &e.OrganiserEmail, &e.RegisteredCount,
		)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		item.AttendedAt = mapNullTimePtr(attendedAt)
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *registrationsRepo) MarkAttended(ctx context.Context, id string, at time.Time) error {
	return mustAffect(r.db.ExecContext(ctx,
		`UPDATE registrations SET attended = 1, attended_at = ?
		 WHERE id = ? AND attended = 0`,
		at.UTC(), id,
	))
}

func (r *registrationsRepo) DeleteRegistration(ctx context.Context, id string) error {
	return mustAffect(r.db.ExecContext(ctx, `DELETE FROM registrations WHERE id = ?`, id))
}

func (r *registrationsRepo) DeleteByEvent(ctx context.Context, eventID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM registrations WHERE event_id = ?`, eventID)
	return err
}

package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
)

type registrationsRepo struct {
	db dbtx
}

const registrationColumns = `r.id, r.account_id, r.event_id, r.ticket, r.ticket_token,
	r.registered_at, r.attended, r.attended_at`

func registrationDest(reg *domain.Registration) []any {
	return []any{
		&reg.ID, &reg.AccountID, &reg.EventID, &reg.Ticket, &reg.TicketToken,
		&reg.RegisteredAt, &reg.Attended, &reg.AttendedAt,
	}
}

func (r *registrationsRepo) CreateRegistration(ctx context.Context, reg domain.Registration) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO registrations (id, account_id, event_id, ticket, ticket_token,
		                            registered_at, attended, attended_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		reg.ID, reg.AccountID, reg.EventID, reg.Ticket, reg.TicketToken,
		reg.RegisteredAt, reg.Attended, reg.AttendedAt,
	)
	return mapUnique(err)
}

func (r *registrationsRepo) get(ctx context.Context, where string, args ...any) (domain.Registration, error) {
	var reg domain.Registration
	err := r.db.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations r WHERE `+where, args...,
	).Scan(registrationDest(&reg)...)
	return reg, mapNotFound(err)
}

func (r *registrationsRepo) GetRegistration(ctx context.Context, id string) (domain.Registration, error) {
	return r.get(ctx, `r.id = $1`, id)
}

func (r *registrationsRepo) GetRegistrationFor(ctx context.Context, accountID, eventID string) (domain.Registration, error) {
	return r.get(ctx, `r.account_id = $1 AND r.event_id = $2`, accountID, eventID)
}

func (r *registrationsRepo) ListByAccount(ctx context.Context, accountID string) ([]domain.RegistrationWithEvent, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+registrationColumns+`, `+eventColumns+`
		 FROM registrations r
		 JOIN events e ON e.id = r.event_id
		 WHERE r.account_id = $1
		 ORDER BY r.registered_at DESC, r.id DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.RegistrationWithEvent{}
	for rows.Next() {
		var item domain.RegistrationWithEvent
		dest := append(registrationDest(&item.Registration), eventDest(&item.Event)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *registrationsRepo) MarkAttended(ctx context.Context, id string, at time.Time) error {
	return mustAffect(r.db.Exec(ctx,
		`UPDATE registrations SET attended = TRUE, attended_at = $1
		 WHERE id = $2 AND attended = FALSE`,
		at, id,
	))
}

func (r *registrationsRepo) DeleteRegistration(ctx context.Context, id string) error {
	return mustAffect(r.db.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id))
}

func (r *registrationsRepo) DeleteByEvent(ctx context.Context, eventID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM registrations WHERE event_id = $1`, eventID)
	return err
}

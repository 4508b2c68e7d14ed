package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
)

type sessionsRepo struct {
	db dbtx
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO sessions (id, account_id, name, email, role, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.AccountID, s.Name, s.Email, s.Role, s.CreatedAt, s.ExpiresAt,
	)
	return mapUnique(err)
}

func (r *sessionsRepo) GetSession(ctx context.Context, id string, now time.Time) (domain.Session, error) {
	var s domain.Session
	err := r.db.QueryRow(ctx,
		`SELECT id, account_id, name, email, role, created_at, expires_at
		 FROM sessions WHERE id = $1 AND expires_at > $2`,
		id, now,
	).Scan(&s.ID, &s.AccountID, &s.Name, &s.Email, &s.Role, &s.CreatedAt, &s.ExpiresAt)
	return s, mapNotFound(err)
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

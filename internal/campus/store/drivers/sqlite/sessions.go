package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
)

type sessionsRepo struct {
	db dbtx
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, account_id, name, email, role, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.AccountID, s.Name, s.Email, s.Role, s.CreatedAt.UTC(), s.ExpiresAt.UTC(),
	)
	return mapUnique(err)
}

func (r *sessionsRepo) GetSession(ctx context.Context, id string, now time.Time) (domain.Session, error) {
	var s domain.Session
	err := r.db.QueryRowContext(ctx,
		`SELECT id, account_id, name, email, role, created_at, expires_at
		 FROM sessions WHERE id = ? AND expires_at > ?`,
		id, now.UTC(),
	).Scan(&s.ID, &s.AccountID, &s.Name, &s.Email, &s.Role, &s.CreatedAt, &s.ExpiresAt)
	return s, mapNotFound(err)
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
	"github.com/jackc/pgx/v5"
)

type accountsRepo struct {
	db dbtx
}

const accountColumns = `id, name, email, password_hash, role, verified, otp_hash, otp_expires_at, otp_attempts, created_at, updated_at`

func scanAccount(row pgx.Row) (domain.Account, error) {
	var (
		a           domain.Account
		otpHash     *string
		otpExpiry   *time.Time
		otpAttempts int
	)
	err := row.Scan(
		&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role, &a.Verified,
		&otpHash, &otpExpiry, &otpAttempts, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	if otpHash != nil && otpExpiry != nil {
		a.PendingOTP = &domain.OTP{CodeHash: *otpHash, ExpiresAt: *otpExpiry, Attempts: otpAttempts}
	}
	return a, nil
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	var (
		otpHash     *string
		otpExpiry   *time.Time
		otpAttempts int
	)
	if a.PendingOTP != nil {
		otpAttempts = a.PendingOTP.Attempts
		otpHash = &a.PendingOTP.CodeHash
		otpExpiry = &a.PendingOTP.ExpiresAt
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.Name, a.Email, a.PasswordHash, a.Role, a.Verified,
		otpHash, otpExpiry, otpAttempts, a.CreatedAt, a.UpdatedAt,
	)
	return mapUnique(err)
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	return scanAccount(r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	return scanAccount(r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email))
}

func (r *accountsRepo) SetPendingOTP(ctx context.Context, accountID string, otp domain.OTP) error {
	return mustAffect(r.db.Exec(ctx,
		`UPDATE accounts
		 SET otp_hash = $1, otp_expires_at = $2, otp_attempts = 0, updated_at = now()
		 WHERE id = $3 AND verified = FALSE`,
		otp.CodeHash, otp.ExpiresAt, accountID,
	))
}

func (r *accountsRepo) ConsumeOTPAttempt(ctx context.Context, accountID, codeHash string, limit int) error {
	return mustAffect(r.db.Exec(ctx,
		`UPDATE accounts
		 SET otp_attempts = otp_attempts + 1
		 WHERE id = $1 AND verified = FALSE AND otp_hash = $2 AND otp_attempts < $3`,
		accountID, codeHash, limit,
	))
}

func (r *accountsRepo) MarkVerified(ctx context.Context, accountID, codeHash string) error {
	return mustAffect(r.db.Exec(ctx,
		`UPDATE accounts
		 SET verified = TRUE, otp_hash = NULL, otp_expires_at = NULL, otp_attempts = 0, updated_at = now()
		 WHERE id = $1 AND verified = FALSE AND otp_hash = $2`,
		accountID, codeHash,
	))
}

func (r *accountsRepo) ListEventIDs(ctx context.Context, accountID string) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT event_id FROM account_events WHERE account_id = $1 ORDER BY event_id`, accountID)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (r *accountsRepo) AddEvent(ctx context.Context, accountID, eventID string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO account_events (account_id, event_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		accountID, eventID,
	)
	return err
}

func (r *accountsRepo) RemoveEvent(ctx context.Context, accountID, eventID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM account_events WHERE account_id = $1 AND event_id = $2`,
		accountID, eventID,
	)
	return err
}

func (r *accountsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts)`).Scan(&exists); err != nil {
		return false, err
	}
	return !exists, nil
}

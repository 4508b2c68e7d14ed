package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
)

type accountsRepo struct {
	db dbtx
}

const accountColumns = `id, name, email, password_hash, role, verified, otp_hash, otp_expires_at, otp_attempts, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (domain.Account, error) {
	var (
		a           domain.Account
		otpHash     sql.NullString
		otpExpiry   sql.NullTime
		otpAttempts int
	)
	err := row.Scan(
		&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role, &a.Verified,
		&otpHash, &otpExpiry, &otpAttempts, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, err
	}
	if otpHash.Valid && otpExpiry.Valid {
		a.PendingOTP = &domain.OTP{CodeHash: otpHash.String, ExpiresAt: otpExpiry.Time, Attempts: otpAttempts}
	}
	return a, nil
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	var (
		otpHash     sql.NullString
		otpExpiry   sql.NullTime
		otpAttempts int
	)
	if a.PendingOTP != nil {
		otpAttempts = a.PendingOTP.Attempts
		otpHash = sql.NullString{String: a.PendingOTP.CodeHash, Valid: true}
		otpExpiry = sql.NullTime{Time: a.PendingOTP.ExpiresAt.UTC(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Email, a.PasswordHash, a.Role, a.Verified,
		otpHash, otpExpiry, otpAttempts, a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
	)
	return mapUnique(err)
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
	return a, mapNotFound(err)
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email))
	return a, mapNotFound(err)
}

func (r *accountsRepo) SetPendingOTP(ctx context.Context, accountID string, otp domain.OTP) error {
	return mustAffect(r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET otp_hash = ?, otp_expires_at = ?, otp_attempts = 0, updated_at = ?
		 WHERE id = ? AND verified = 0`,
		otp.CodeHash, otp.ExpiresAt.UTC(), time.Now().UTC(), accountID,
	))
}

func (r *accountsRepo) ConsumeOTPAttempt(ctx context.Context, accountID, codeHash string, limit int) error {
	return mustAffect(r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET otp_attempts = otp_attempts + 1
		 WHERE id = ? AND verified = 0 AND otp_hash = ? AND otp_attempts < ?`,
		accountID, codeHash, limit,
	))
}

func (r *accountsRepo) MarkVerified(ctx context.Context, accountID, codeHash string) error {
	return mustAffect(r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET verified = 1, otp_hash = NULL, otp_expires_at = NULL, otp_attempts = 0, updated_at = ?
		 WHERE id = ? AND verified = 0 AND otp_hash = ?`,
		time.Now().UTC(), accountID, codeHash,
	))
}

func (r *accountsRepo) ListEventIDs(ctx context.Context, accountID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT event_id FROM account_events WHERE account_id = ? ORDER BY event_id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *accountsRepo) AddEvent(ctx context.Context, accountID, eventID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO account_events (account_id, event_id) VALUES (?, ?)
		 ON CONFLICT DO NOTHING`,
		accountID, eventID,
	)
	return err
}

func (r *accountsRepo) RemoveEvent(ctx context.Context, accountID, eventID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM account_events WHERE account_id = ? AND event_id = ?`,
		accountID, eventID,
	)
	return err
}

func (r *accountsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

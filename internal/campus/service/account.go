package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
	"github.com/aussiebroadwan/campus/internal/campus/metrics"
	"github.com/aussiebroadwan/campus/internal/campus/notify"
	"github.com/aussiebroadwan/campus/internal/campus/store"
	"github.com/aussiebroadwan/campus/pkg/cryptox"
	"github.com/aussiebroadwan/campus/pkg/idx"
	"github.com/aussiebroadwan/campus/pkg/slogx"
)

// OTPTTL is how long an emailed verification code stays valid.
const OTPTTL = 10 * time.Minute

// MaxOTPAttempts is how many verifications may be tried against one code
// before a new one has to be requested.
const MaxOTPAttempts = 5

const minPasswordLength = 6

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string // student when empty
}

type AccountService struct {
	Store   store.Store
	Mailer  notify.Mailer
	Metrics *metrics.Metrics
	Clock   Clock
}

func (in RegisterInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if domain.EncodedLen(strings.TrimSpace(in.Name)) > domain.MaxAccountNameLen {
		return fmt.Errorf("%w: name must be at most %d characters", ErrInvalidInput, domain.MaxAccountNameLen)
	}
	email := normalizeEmail(in.Email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}
	if domain.EncodedLen(email) > domain.MaxEmailLen {
		return fmt.Errorf("%w: email must be at most %d characters", ErrInvalidInput, domain.MaxEmailLen)
	}
	if len(in.Password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	switch in.Role {
	case "", domain.RoleStudent, domain.RoleAdmin:
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}
	return nil
}

// Register creates an unverified account and emails it an OTP. When the
// email cannot be sent the account is kept and ErrOTPDelivery is returned
// alongside it, so the caller can point the user at resend-otp.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (domain.Account, error) {
	l := slogx.FromContext(ctx)

	if err := in.validate(); err != nil {
		return domain.Account{}, err
	}
	email := normalizeEmail(in.Email)

	_, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	switch {
	case err == nil:
		return domain.Account{}, ErrDuplicateEmail
	case !errors.Is(err, store.ErrNotFound):
		return domain.Account{}, err
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.Account{}, fmt.Errorf("hash password: %w", err)
	}

	code, otp, err := s.issueOTP()
	if err != nil {
		return domain.Account{}, err
	}

	role := in.Role
	if role == "" {
		role = domain.RoleStudent
	}

	now := s.Clock.Now()
	acct := domain.Account{
		ID:           idx.NewAt(now).String(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		PendingOTP:   &otp,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Accounts().CreateAccount(ctx, acct); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Account{}, ErrDuplicateEmail
		}
		return domain.Account{}, err
	}
	l.Info("account registered", slog.String("account_id", acct.ID), slog.String("role", role))

	if err := s.sendOTP(ctx, acct, code); err != nil {
		return acct, err
	}
	return acct, nil
}

// VerifyOTP checks code against the account's outstanding OTP and marks the
// account verified. Checks run in a fixed order: unknown account, already
// verified, attempts exhausted, wrong code, expired code. Only the code that
// is outstanding when the account is marked verified counts; one replaced
// by ResendOTP meanwhile is rejected.
func (s *AccountService) VerifyOTP(ctx context.Context, email, code string) (domain.Account, error) {
	l := slogx.FromContext(ctx)

	acct, err := s.accountByEmail(ctx, email)
	if err != nil {
		return domain.Account{}, err
	}

	otp, err := s.consumeAttempt(ctx, acct)
	switch {
	case errors.Is(err, ErrInvalidOTP):
		s.Metrics.ObserveOTPVerification("invalid")
		return domain.Account{}, err
	case errors.Is(err, ErrOTPLocked):
		s.Metrics.ObserveOTPVerification("locked")
		l.Warn("otp attempts exhausted", slog.String("account_id", acct.ID))
		return domain.Account{}, err
	case err != nil:
		return domain.Account{}, err
	}

	if !cryptox.MatchFingerprint(strings.TrimSpace(code), otp.CodeHash) {
		s.Metrics.ObserveOTPVerification("invalid")
		return domain.Account{}, ErrInvalidOTP
	}
	if otp.Expired(s.Clock.Now()) {
		s.Metrics.ObserveOTPVerification("expired")
		return domain.Account{}, ErrOTPExpired
	}

	if err := s.Store.Accounts().MarkVerified(ctx, acct.ID, otp.CodeHash); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, err
		}
		// Either a concurrent verification won or the code was replaced.
		fresh, ferr := s.GetAccount(ctx, acct.ID)
		if ferr == nil && fresh.Verified {
			return domain.Account{}, ErrAlreadyVerified
		}
		s.Metrics.ObserveOTPVerification("invalid")
		return domain.Account{}, ErrInvalidOTP
	}
	s.Metrics.ObserveOTPVerification(metrics.ResultSuccess)
	l.Info("account verified", slog.String("account_id", acct.ID))

	acct.Verified = true
	acct.PendingOTP = nil
	return acct, nil
}

// consumeAttempt counts one attempt against the account's outstanding code
// and returns that code. A resend landing between the read and the update is
// picked up by a single re-read.
func (s *AccountService) consumeAttempt(ctx context.Context, acct domain.Account) (domain.OTP, error) {
	for range 2 {
		if acct.Verified {
			return domain.OTP{}, ErrAlreadyVerified
		}
		otp := acct.PendingOTP
		if otp == nil {
			return domain.OTP{}, ErrInvalidOTP
		}

		err := s.Store.Accounts().ConsumeOTPAttempt(ctx, acct.ID, otp.CodeHash, MaxOTPAttempts)
		if err == nil {
			return *otp, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return domain.OTP{}, err
		}

		fresh, err := s.GetAccount(ctx, acct.ID)
		if err != nil {
			return domain.OTP{}, err
		}
		if !fresh.Verified && fresh.PendingOTP != nil && fresh.PendingOTP.CodeHash == otp.CodeHash {
			return domain.OTP{}, ErrOTPLocked
		}
		acct = fresh
	}
	return domain.OTP{}, ErrInvalidOTP
}

// ResendOTP replaces the outstanding code with a fresh one and emails it.
func (s *AccountService) ResendOTP(ctx context.Context, email string) error {
	acct, err := s.accountByEmail(ctx, email)
	if err != nil {
		return err
	}
	if acct.Verified {
		return ErrAlreadyVerified
	}

	code, otp, err := s.issueOTP()
	if err != nil {
		return err
	}
	if err := s.Store.Accounts().SetPendingOTP(ctx, acct.ID, otp); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAlreadyVerified
		}
		return err
	}
	return s.sendOTP(ctx, acct, code)
}

// Login checks credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, email, password string) (domain.Account, error) {
	l := slogx.FromContext(ctx)

	acct, err := s.accountByEmail(ctx, email)
	if errors.Is(err, ErrAccountNotFound) {
		s.Metrics.ObserveLogin("invalid")
		return domain.Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.Account{}, err
	}

	if err := cryptox.VerifyPassword(password, acct.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Error("stored password hash unusable", slog.String("account_id", acct.ID), slog.Any("err", err))
		}
		s.Metrics.ObserveLogin("invalid")
		return domain.Account{}, ErrInvalidCredentials
	}
	if !acct.Verified {
		s.Metrics.ObserveLogin("unverified")
		return domain.Account{}, ErrNotVerified
	}

	s.Metrics.ObserveLogin(metrics.ResultSuccess)
	return acct, nil
}

func (s *AccountService) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	acct, err := s.Store.Accounts().GetAccountByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, ErrAccountNotFound
	}
	return acct, err
}

func (s *AccountService) accountByEmail(ctx context.Context, email string) (domain.Account, error) {
	acct, err := s.Store.Accounts().GetAccountByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, ErrAccountNotFound
	}
	return acct, err
}

// issueOTP draws a new code. Only its fingerprint is persisted.
func (s *AccountService) issueOTP() (string, domain.OTP, error) {
	code, err := cryptox.GenerateOTP()
	if err != nil {
		return "", domain.OTP{}, err
	}
	return code, domain.OTP{
		CodeHash:  cryptox.FingerprintToken(code),
		ExpiresAt: s.Clock.Now().Add(OTPTTL),
	}, nil
}

func (s *AccountService) sendOTP(ctx context.Context, acct domain.Account, code string) error {
	msg, err := notify.OTPEmail(acct.Email, acct.Name, code, int(OTPTTL/time.Minute))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOTPDelivery, err)
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		slogx.FromContext(ctx).Error("failed to send otp email",
			slog.String("account_id", acct.ID), slog.Any("err", err))
		return fmt.Errorf("%w: %w", ErrOTPDelivery, err)
	}
	return nil
}

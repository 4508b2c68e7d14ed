package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
	"github.com/aussiebroadwan/campus/internal/campus/metrics"
	"github.com/aussiebroadwan/campus/internal/campus/service"
	"github.com/aussiebroadwan/campus/internal/campus/store"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func lastOTP(t *testing.T, h *harness) string {
	t.Helper()
	sent := h.mail.Sent()
	require.NotEmpty(t, sent)
	code, ok := strings.CutPrefix(sent[len(sent)-1].Summary, "otp ")
	require.True(t, ok)
	require.Len(t, code, 6)
	return code
}

func registerStudent(t *testing.T, h *harness, email string) domain.Account {
	t.Helper()
	acct, err := h.accounts.Register(context.Background(), service.RegisterInput{
		Name:     "Alex Student",
		Email:    email,
		Password: "secret1",
	})
	require.NoError(t, err)
	return acct
}

func TestAccountRegister(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	acct := registerStudent(t, h, "  Alex@College.EDU ")
	require.Equal(t, "alex@college.edu", acct.Email)
	require.Equal(t, domain.RoleStudent, acct.Role)
	require.False(t, acct.Verified)
	require.NotNil(t, acct.PendingOTP)
	require.Equal(t, h.clock.Now().Add(service.OTPTTL), acct.PendingOTP.ExpiresAt)

	code := lastOTP(t, h)
	require.NotEqual(t, code, acct.PendingOTP.CodeHash, "only the fingerprint is stored")

	sent := h.mail.Sent()
	require.Equal(t, "Verify Your Email - OTP", sent[0].Subject)
	require.Contains(t, sent[0].HTML, code)

	_, err := h.accounts.Register(ctx, service.RegisterInput{
		Name: "Other", Email: "alex@college.edu", Password: "secret1",
	})
	require.ErrorIs(t, err, service.ErrDuplicateEmail)
}

func TestAccountRegisterValidation(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		in   service.RegisterInput
	}{
		{"missing name", service.RegisterInput{Email: "a@college.edu", Password: "secret1"}},
		{"bad email", service.RegisterInput{Name: "A", Email: "not-an-email", Password: "secret1"}},
		{"display name email", service.RegisterInput{Name: "A", Email: "A <a@college.edu>", Password: "secret1"}},
		{"short password", service.RegisterInput{Name: "A", Email: "a@college.edu", Password: "12345"}},
		{"unknown role", service.RegisterInput{Name: "A", Email: "a@college.edu", Password: "secret1", Role: "dean"}},
		{"long name", service.RegisterInput{Name: strings.Repeat("n", domain.MaxAccountNameLen+1), Email: "a@college.edu", Password: "secret1"}},
		{"long email", service.RegisterInput{Name: "A", Email: strings.Repeat("e", domain.MaxEmailLen) + "@college.edu", Password: "secret1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.accounts.Register(context.Background(), tt.in)
			require.ErrorIs(t, err, service.ErrInvalidInput)
		})
	}
}

func TestAccountRegisterDeliveryFailureKeepsAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.mail.fail = errors.New("smtp down")

	acct, err := h.accounts.Register(ctx, service.RegisterInput{
		Name: "Alex", Email: "alex@college.edu", Password: "secret1",
	})
	require.ErrorIs(t, err, service.ErrOTPDelivery)
	require.ErrorIs(t, err, service.ErrUpstream)
	require.NotEmpty(t, acct.ID)

	h.mail.fail = nil
	require.NoError(t, h.accounts.ResendOTP(ctx, "alex@college.edu"))
	_, err = h.accounts.VerifyOTP(ctx, "alex@college.edu", lastOTP(t, h))
	require.NoError(t, err)
}

func TestVerifyOTP(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	registerStudent(t, h, "alex@college.edu")
	code := lastOTP(t, h)

	_, err := h.accounts.VerifyOTP(ctx, "nobody@college.edu", code)
	require.ErrorIs(t, err, service.ErrAccountNotFound)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err = h.accounts.VerifyOTP(ctx, "alex@college.edu", wrong)
	require.ErrorIs(t, err, service.ErrInvalidOTP)

	acct, err := h.accounts.VerifyOTP(ctx, "ALEX@college.edu", code)
	require.NoError(t, err)
	require.True(t, acct.Verified)
	require.Nil(t, acct.PendingOTP)

	_, err = h.accounts.VerifyOTP(ctx, "alex@college.edu", code)
	require.ErrorIs(t, err, service.ErrAlreadyVerified)
	require.ErrorIs(t, h.accounts.ResendOTP(ctx, "alex@college.edu"), service.ErrAlreadyVerified)
}

func TestVerifyOTPExpiry(t *testing.T) {
	tests := []struct {
		name    string
		advance time.Duration
		wantErr error
	}{
		{"just issued", 0, nil},
		{"at ten minutes", 10 * time.Minute, nil},
		{"past ten minutes", 10*time.Minute + time.Second, service.ErrOTPExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			registerStudent(t, h, "alex@college.edu")
			code := lastOTP(t, h)

			h.clock.Advance(tt.advance)
			_, err := h.accounts.VerifyOTP(context.Background(), "alex@college.edu", code)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestResendOTPReplacesCode(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	registerStudent(t, h, "alex@college.edu")
	first := lastOTP(t, h)

	h.clock.Advance(11 * time.Minute)
	require.NoError(t, h.accounts.ResendOTP(ctx, "alex@college.edu"))
	second := lastOTP(t, h)

	if first != second {
		_, err := h.accounts.VerifyOTP(ctx, "alex@college.edu", first)
		require.ErrorIs(t, err, service.ErrInvalidOTP)
	}
	_, err := h.accounts.VerifyOTP(ctx, "alex@college.edu", second)
	require.NoError(t, err)

	require.ErrorIs(t, h.accounts.ResendOTP(ctx, "nobody@college.edu"), service.ErrAccountNotFound)
}

func TestConcurrentVerificationSucceedsOnce(t *testing.T) {
	h := newHarness(t)
	registerStudent(t, h, "alex@college.edu")
	code := lastOTP(t, h)

	const n = service.MaxOTPAttempts
	results := make([]error, n)
	var g errgroup.Group
	for i := range n {
		g.Go(func() error {
			_, results[i] = h.accounts.VerifyOTP(context.Background(), "alex@college.edu", code)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var ok int
	for _, err := range results {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, service.ErrAlreadyVerified)
	}
	require.Equal(t, 1, ok)
}

// hookedAccounts runs a callback after selected repo calls, standing in for
// a request that lands between two steps of a verification.
type hookedAccounts struct {
	store.Accounts
	afterRead    func()
	afterAttempt func()
}

func (a hookedAccounts) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	acct, err := a.Accounts.GetAccountByEmail(ctx, email)
	if err == nil && a.afterRead != nil {
		a.afterRead()
	}
	return acct, err
}

func (a hookedAccounts) ConsumeOTPAttempt(ctx context.Context, accountID, codeHash string, limit int) error {
	err := a.Accounts.ConsumeOTPAttempt(ctx, accountID, codeHash, limit)
	if err == nil && a.afterAttempt != nil {
		a.afterAttempt()
	}
	return err
}

type hookedStore struct {
	store.Store
	accounts store.Accounts
}

func (s hookedStore) Accounts() store.Accounts { return s.accounts }

func TestVerifyOTPRejectsCodeReplacedMidVerification(t *testing.T) {
	tests := []struct {
		name string
		hook func(a *hookedAccounts, resend func())
	}{
		{"resend after read", func(a *hookedAccounts, resend func()) { a.afterRead = resend }},
		{"resend after attempt counted", func(a *hookedAccounts, resend func()) { a.afterAttempt = resend }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()

			registerStudent(t, h, "alex@college.edu")
			first := lastOTP(t, h)

			var once sync.Once
			resend := func() {
				once.Do(func() { require.NoError(t, h.accounts.ResendOTP(ctx, "alex@college.edu")) })
			}
			accounts := &hookedAccounts{Accounts: h.store.Accounts()}
			tt.hook(accounts, resend)

			svc := &service.AccountService{
				Store:   hookedStore{Store: h.store, accounts: accounts},
				Mailer:  h.mail,
				Metrics: metrics.NewNop(),
				Clock:   h.clock.Now,
			}

			_, err := svc.VerifyOTP(ctx, "alex@college.edu", first)
			second := lastOTP(t, h)
			if first == second {
				t.Skip("resend drew the same code")
			}
			require.ErrorIs(t, err, service.ErrInvalidOTP)

			acct, err := h.accounts.GetAccount(ctx, registeredID(t, h, "alex@college.edu"))
			require.NoError(t, err)
			require.False(t, acct.Verified)

			_, err = h.accounts.VerifyOTP(ctx, "alex@college.edu", second)
			require.NoError(t, err)
		})
	}
}

func TestVerifyOTPLocksAfterTooManyAttempts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	registerStudent(t, h, "alex@college.edu")
	code := lastOTP(t, h)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for range service.MaxOTPAttempts {
		_, err := h.accounts.VerifyOTP(ctx, "alex@college.edu", wrong)
		require.ErrorIs(t, err, service.ErrInvalidOTP)
	}
	_, err := h.accounts.VerifyOTP(ctx, "alex@college.edu", code)
	require.ErrorIs(t, err, service.ErrOTPLocked)

	require.NoError(t, h.accounts.ResendOTP(ctx, "alex@college.edu"))
	_, err = h.accounts.VerifyOTP(ctx, "alex@college.edu", lastOTP(t, h))
	require.NoError(t, err)
}

func registeredID(t *testing.T, h *harness, email string) string {
	t.Helper()
	acct, err := h.store.Accounts().GetAccountByEmail(context.Background(), email)
	require.NoError(t, err)
	return acct.ID
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	registerStudent(t, h, "alex@college.edu")

	_, err := h.accounts.Login(ctx, "alex@college.edu", "secret1")
	require.ErrorIs(t, err, service.ErrNotVerified)

	_, err = h.accounts.VerifyOTP(ctx, "alex@college.edu", lastOTP(t, h))
	require.NoError(t, err)

	acct, err := h.accounts.Login(ctx, " Alex@College.edu", "secret1")
	require.NoError(t, err)
	require.Equal(t, "alex@college.edu", acct.Email)

	_, err = h.accounts.Login(ctx, "alex@college.edu", "wrong-password")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = h.accounts.Login(ctx, "nobody@college.edu", "secret1")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	got, err := h.accounts.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	require.Equal(t, acct.ID, got.ID)

	_, err = h.accounts.GetAccount(ctx, "missing")
	require.ErrorIs(t, err, service.ErrAccountNotFound)
}

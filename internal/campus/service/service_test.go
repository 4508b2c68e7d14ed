package service_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
	"github.com/aussiebroadwan/campus/internal/campus/metrics"
	"github.com/aussiebroadwan/campus/internal/campus/notify"
	"github.com/aussiebroadwan/campus/internal/campus/service"
	"github.com/aussiebroadwan/campus/internal/campus/store"
	"github.com/aussiebroadwan/campus/internal/campus/store/drivers/sqlite"
	"github.com/aussiebroadwan/campus/internal/campus/store/storetest"
	"github.com/aussiebroadwan/campus/pkg/cryptox"
	"github.com/aussiebroadwan/campus/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const issuer = "https://campus.test"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// outbox records mail sent synchronously and mail queued for the dispatcher.
type outbox struct {
	mu     sync.Mutex
	sent   []notify.Message
	queued []notify.Message
	fail   error
}

func (o *outbox) Send(_ context.Context, msg notify.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail != nil {
		return o.fail
	}
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) Enqueue(msg notify.Message) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queued = append(o.queued, msg)
	return true
}

func (o *outbox) Sent() []notify.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]notify.Message(nil), o.sent...)
}

func (o *outbox) Queued() []notify.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]notify.Message(nil), o.queued...)
}

type harness struct {
	store         store.Store
	clock         *fakeClock
	mail          *outbox
	keys          *jwtx.KeyManager
	accounts      *service.AccountService
	events        *service.EventService
	tickets       *service.TicketService
	registrations *service.RegistrationService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	keys, err := jwtx.NewEphemeralKeyManager(issuer)
	require.NoError(t, err)

	clk := &fakeClock{now: time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)}
	m := metrics.NewNop()
	mail := &outbox{}

	tickets := &service.TicketService{Keys: keys, Clock: clk.Now}
	return &harness{
		store:    s,
		clock:    clk,
		mail:     mail,
		keys:     keys,
		accounts: &service.AccountService{Store: s, Mailer: mail, Metrics: m, Clock: clk.Now},
		events:   &service.EventService{Store: s, Clock: clk.Now},
		tickets:  tickets,
		registrations: &service.RegistrationService{
			Store:    s,
			Tickets:  tickets,
			Mail:     mail,
			Metrics:  m,
			Capacity: service.CapacitySoft,
			Clock:    clk.Now,
		},
	}
}

// account persists a verified account directly.
func (h *harness) account(t *testing.T, role string) service.AuthContext {
	t.Helper()
	a := storetest.NewAccount(role)
	a.Verified = true
	require.NoError(t, h.store.Accounts().CreateAccount(context.Background(), a))
	return service.AuthContext{AccountID: a.ID, Role: role}
}

// event creates an event through the service.
func (h *harness) event(t *testing.T, admin service.AuthContext, capacity int) domain.Event {
	t.Helper()
	ev, err := h.events.Create(context.Background(), admin, service.EventInput{
		Title:       "Annual Hackathon",
		Description: "Build things",
		Date:        "2025-02-01",
		Time:        "8:00 AM - 8:00 PM",
		Venue:       "Innovation Hub",
		Image:       "https://example.com/hack.jpg",
		MaxCapacity: capacity,
	})
	require.NoError(t, err)
	return ev
}

func TestParseCapacityMode(t *testing.T) {
	tests := []struct {
		in      string
		want    service.CapacityMode
		wantErr bool
	}{
		{"", service.CapacitySoft, false},
		{"soft", service.CapacitySoft, false},
		{" STRICT ", service.CapacityStrict, false},
		{"hard", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := service.ParseCapacityMode(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

package notify_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/metrics"
	"github.com/aussiebroadwan/campus/internal/campus/notify"
	"github.com/aussiebroadwan/campus/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestOTPEmail(t *testing.T) {
	msg, err := notify.OTPEmail("jane@college.edu", "Jane <script>", "004217", 10)
	require.NoError(t, err)

	require.Equal(t, "Verify Your Email - OTP", msg.Subject)
	require.Contains(t, msg.HTML, "004217")
	require.Contains(t, msg.HTML, "This OTP will expire in 10 minutes.")
	require.Contains(t, msg.HTML, "Jane &lt;script&gt;")
	require.NotContains(t, msg.HTML, "<script>")
}

func TestConfirmationEmail(t *testing.T) {
	msg, err := notify.ConfirmationEmail(notify.Confirmation{
		To: "jane@college.edu", Name: "Jane", Title: "Tech Fest",
		Date: "2025-03-15", Time: "9:00 AM", Venue: "Main Hall",
		TicketPNG: []byte{0x89, 'P', 'N', 'G'},
	})
	require.NoError(t, err)

	require.Equal(t, "Registration Confirmed - Tech Fest", msg.Subject)
	require.Contains(t, msg.HTML, `src="cid:`+notify.TicketImageName+`"`)
	require.Len(t, msg.Inline, 1)
	require.Equal(t, "image/png", msg.Inline[0].ContentType)
}

func TestLogMailer(t *testing.T) {
	m := &notify.LogMailer{Logger: slogx.Discard()}
	require.NoError(t, m.Send(t.Context(), notify.Message{To: "a@b.c"}))
	require.ErrorIs(t, m.Send(t.Context(), notify.Message{}), notify.ErrNoRecipient)
}

func TestNewMailerFallsBackToLog(t *testing.T) {
	m := notify.NewMailer(notify.SMTPConfig{}, slogx.Discard())
	require.IsType(t, &notify.LogMailer{}, m)

	m = notify.NewMailer(notify.SMTPConfig{Host: "smtp.example.com", Port: 587, From: "noreply@example.com"}, slogx.Discard())
	require.IsType(t, &notify.SMTPMailer{}, m)
}

func newDispatcher(t *testing.T, mailer notify.Mailer, cfg notify.DispatcherConfig) (*notify.Dispatcher, *metrics.Metrics) {
	t.Helper()
	m := metrics.NewNop()
	d := notify.NewDispatcher(mailer, slogx.Discard(), m, cfg)
	d.Start()
	return d, m
}

func TestDispatcherDelivers(t *testing.T) {
	var (
		mu   sync.Mutex
		sent []string
	)
	mailer := notify.MailerFunc(func(ctx context.Context, msg notify.Message) error {
		mu.Lock()
		defer mu.Unlock()
		sent = append(sent, msg.To)
		return nil
	})

	d, m := newDispatcher(t, mailer, notify.DispatcherConfig{Workers: 3, QueueSize: 10})
	for _, to := range []string{"a@x", "b@x", "c@x"} {
		require.True(t, d.Enqueue(notify.Message{To: to}))
	}
	d.Stop()

	require.ElementsMatch(t, []string{"a@x", "b@x", "c@x"}, sent)
	require.Equal(t, 3.0, testutil.ToFloat64(m.MailJobs.WithLabelValues(metrics.MailSent)))
}

func TestDispatcherRetries(t *testing.T) {
	var calls atomic.Int32
	mailer := notify.MailerFunc(func(ctx context.Context, msg notify.Message) error {
		if calls.Add(1) < 3 {
			return errors.New("smtp: 421 try later")
		}
		return nil
	})

	d, m := newDispatcher(t, mailer, notify.DispatcherConfig{Workers: 1, MaxAttempts: 3})
	require.True(t, d.Enqueue(notify.Message{To: "a@x"}))
	d.Stop()

	require.EqualValues(t, 3, calls.Load())
	require.Equal(t, 1.0, testutil.ToFloat64(m.MailJobs.WithLabelValues(metrics.MailSent)))
}

func TestDispatcherGivesUp(t *testing.T) {
	var calls atomic.Int32
	mailer := notify.MailerFunc(func(ctx context.Context, msg notify.Message) error {
		calls.Add(1)
		return errors.New("smtp down")
	})

	d, m := newDispatcher(t, mailer, notify.DispatcherConfig{Workers: 1, MaxAttempts: 3})
	require.True(t, d.Enqueue(notify.Message{To: "a@x"}))
	d.Stop()

	require.EqualValues(t, 3, calls.Load())
	require.Equal(t, 1.0, testutil.ToFloat64(m.MailJobs.WithLabelValues(metrics.MailFailed)))
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	mailer := notify.MailerFunc(func(ctx context.Context, msg notify.Message) error {
		started <- struct{}{}
		<-release
		return nil
	})

	d, m := newDispatcher(t, mailer, notify.DispatcherConfig{Workers: 1, QueueSize: 1})

	require.True(t, d.Enqueue(notify.Message{To: "busy@x"}))
	<-started
	require.True(t, d.Enqueue(notify.Message{To: "queued@x"}))
	require.False(t, d.Enqueue(notify.Message{To: "dropped@x"}))

	close(release)
	d.Stop()

	require.False(t, d.Enqueue(notify.Message{To: "late@x"}))
	require.Equal(t, 2.0, testutil.ToFloat64(m.MailJobs.WithLabelValues(metrics.MailDropped)))
	require.Equal(t, 2.0, testutil.ToFloat64(m.MailJobs.WithLabelValues(metrics.MailSent)))
}

func TestDispatcherStopIsIdempotent(t *testing.T) {
	d, _ := newDispatcher(t, &notify.LogMailer{Logger: slogx.Discard()}, notify.DispatcherConfig{})
	d.Stop()
	require.NotPanics(t, d.Stop)
}

func TestDispatcherStopWithoutStart(t *testing.T) {
	d := notify.NewDispatcher(&notify.LogMailer{Logger: slogx.Discard()}, slogx.Discard(), metrics.NewNop(), notify.DispatcherConfig{})

	done := make(chan struct{})
	go func() {
		d.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop blocked on a dispatcher that never started")
	}
	require.False(t, d.Enqueue(notify.Message{To: "late@x"}))
}

func TestSMTPMailerRejectsEmptyRecipient(t *testing.T) {
	m := notify.NewSMTPMailer(notify.SMTPConfig{Host: "127.0.0.1", Port: 1, From: "x@y"}, slogx.Discard())
	err := m.Send(t.Context(), notify.Message{})
	require.ErrorIs(t, err, notify.ErrNoRecipient)
	require.False(t, strings.Contains(err.Error(), "dial"))
}

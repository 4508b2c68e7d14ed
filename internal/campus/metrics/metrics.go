package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registration outcomes used as the "result" label.
const (
	ResultSuccess   = "success"
	ResultDuplicate = "duplicate"
	ResultFull      = "full"
	ResultError     = "error"
)

// Mail job outcomes.
const (
	MailSent    = "sent"
	MailFailed  = "failed"
	MailDropped = "dropped"
)

// Metrics holds every collector the service exports.
type Metrics struct {
	Registrations        *prometheus.CounterVec
	RegistrationDuration prometheus.Histogram
	Cancellations        prometheus.Counter
	CheckIns             prometheus.Counter
	OTPVerifications     *prometheus.CounterVec
	Logins               *prometheus.CounterVec
	MailJobs             *prometheus.CounterVec
	MailQueueDepth       prometheus.Gauge
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_registrations_total",
			Help: "Event registration attempts by result",
		}, []string{"result"}),
		RegistrationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "campus_registration_duration_seconds",
			Help:    "Duration of the registration workflow, ticket generation included",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		Cancellations: f.NewCounter(prometheus.CounterOpts{
			Name: "campus_registration_cancellations_total",
			Help: "Registrations cancelled by their owner",
		}),
		CheckIns: f.NewCounter(prometheus.CounterOpts{
			Name: "campus_checkins_total",
			Help: "Tickets checked in at the venue",
		}),
		OTPVerifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_otp_verifications_total",
			Help: "OTP verification attempts by result",
		}, []string{"result"}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_logins_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		MailJobs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_mail_jobs_total",
			Help: "Queued mail jobs by outcome",
		}, []string{"result"}),
		MailQueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "campus_mail_queue_depth",
			Help: "Mail jobs waiting for a worker",
		}),
	}
}

// NewNop returns metrics bound to a private registry, for tests and tools
// that never expose them.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) ObserveRegistration(result string, start time.Time) {
	m.Registrations.WithLabelValues(result).Inc()
	m.RegistrationDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementCancellation() { m.Cancellations.Inc() }
func (m *Metrics) IncrementCheckIn()      { m.CheckIns.Inc() }

func (m *Metrics) ObserveOTPVerification(result string) {
	m.OTPVerifications.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveLogin(result string) {
	m.Logins.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveMailJob(result string) {
	m.MailJobs.WithLabelValues(result).Inc()
}

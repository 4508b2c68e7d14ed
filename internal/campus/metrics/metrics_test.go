package metrics_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollectorsRegisterOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveRegistration(metrics.ResultSuccess, time.Now())
	m.ObserveRegistration(metrics.ResultSuccess, time.Now())
	m.ObserveRegistration(metrics.ResultFull, time.Now())
	m.ObserveMailJob(metrics.MailDropped)

	require.Equal(t, 2.0, testutil.ToFloat64(m.Registrations.WithLabelValues(metrics.ResultSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Registrations.WithLabelValues(metrics.ResultFull)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.MailJobs.WithLabelValues(metrics.MailDropped)))

	require.Panics(t, func() { metrics.New(reg) }, "duplicate registration must be caught")
}

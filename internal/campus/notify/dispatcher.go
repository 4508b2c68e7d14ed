package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/metrics"
)

type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	JobTimeout  time.Duration
	MaxAttempts int
	Backoff     time.Duration // doubled after each failed attempt
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 100
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 30 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.Backoff < 0 {
		c.Backoff = 0
	}
	return c
}

// Dispatcher delivers messages in the background. Enqueue never blocks the
// caller; failures are logged, never returned.
type Dispatcher struct {
	mailer  Mailer
	logger  *slog.Logger
	metrics *metrics.Metrics
	cfg     DispatcherConfig

	mu     sync.RWMutex
	closed bool
	queue  chan Message
	errCh  chan error

	workers sync.WaitGroup
	drained chan struct{}
}

// NewDispatcher starts the error logger straight away, so Stop is safe
// whether or not Start ran.
func NewDispatcher(mailer Mailer, logger *slog.Logger, m *metrics.Metrics, cfg DispatcherConfig) *Dispatcher {
	cfg = cfg.withDefaults()
	d := &Dispatcher{
		mailer:  mailer,
		logger:  logger,
		metrics: m,
		cfg:     cfg,
		queue:   make(chan Message, cfg.QueueSize),
		errCh:   make(chan error, cfg.QueueSize),
		drained: make(chan struct{}),
	}
	go d.logErrors()
	return d
}

// Start launches the workers.
func (d *Dispatcher) Start() {
	for range d.cfg.Workers {
		d.workers.Add(1)
		go d.work()
	}
	d.logger.Info("mail dispatcher started",
		slog.Int("workers", d.cfg.Workers),
		slog.Int("queue_size", d.cfg.QueueSize))
}

// Stop refuses new work, waits for queued jobs to finish, then returns.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.workers.Wait()
	close(d.errCh)
	<-d.drained
	d.logger.Info("mail dispatcher stopped")
}

// Enqueue hands msg to a worker. It reports false when the queue is full or
// the dispatcher is stopped; the message is dropped.
func (d *Dispatcher) Enqueue(msg Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("mail dropped, dispatcher stopped", slog.String("to", msg.To))
		d.metrics.ObserveMailJob(metrics.MailDropped)
		return false
	}

	select {
	case d.queue <- msg:
		d.metrics.MailQueueDepth.Set(float64(len(d.queue)))
		return true
	default:
		d.logger.Warn("mail dropped, queue full",
			slog.String("to", msg.To),
			slog.String("subject", msg.Subject))
		d.metrics.ObserveMailJob(metrics.MailDropped)
		return false
	}
}

func (d *Dispatcher) work() {
	defer d.workers.Done()
	for msg := range d.queue {
		d.metrics.MailQueueDepth.Set(float64(len(d.queue)))
		if err := d.deliver(msg); err != nil {
			d.metrics.ObserveMailJob(metrics.MailFailed)
			d.errCh <- err
			continue
		}
		d.metrics.ObserveMailJob(metrics.MailSent)
	}
}

func (d *Dispatcher) deliver(msg Message) error {
	backoff := d.cfg.Backoff
	var err error
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.JobTimeout)
		err = d.mailer.Send(ctx, msg)
		cancel()
		if err == nil {
			return nil
		}
		if attempt < d.cfg.MaxAttempts && backoff > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return fmt.Errorf("mail to %s (%q) failed after %d attempts: %w",
		msg.To, msg.Subject, d.cfg.MaxAttempts, err)
}

func (d *Dispatcher) logErrors() {
	defer close(d.drained)
	for err := range d.errCh {
		d.logger.Error("mail delivery failed", slog.Any("error", err))
	}
}

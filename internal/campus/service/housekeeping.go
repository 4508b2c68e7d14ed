package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/store"
)

// OrphanImageGrace is how long an unreferenced image survives. Uploads are
// stored before the event that references them is written.
const OrphanImageGrace = time.Hour

// HousekeepingService periodically removes expired sessions and orphaned
// event images. Pending OTPs are never purged.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Clock    Clock

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval defaults to one hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup runs one pass. Each step is independent of the others.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	now := s.Clock.Now()
	s.Logger.Info("starting housekeeping cleanup")

	var successful int

	if n, err := s.Store.Sessions().DeleteExpiredSessions(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired sessions", "error", err)
	} else {
		s.Logger.Debug("deleted expired sessions", "count", n)
		successful++
	}

	if n, err := s.Store.Images().DeleteOrphanedImages(ctx, now.Add(-OrphanImageGrace)); err != nil {
		s.Logger.Error("failed to delete orphaned images", "error", err)
	} else {
		s.Logger.Debug("deleted orphaned images", "count", n)
		successful++
	}

	s.Logger.Info("housekeeping cleanup completed", "successful_cleanups", successful)
}

package archive

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"bandstand/internal/logging"
	"bandstand/internal/notifications"
)

const defaultSyncInterval = 10 * time.Minute

// Syncer periodically asks the storage bridge whether archived assets are
// still pinned and records the verdicts locally. Mock assets are skipped;
// a bridge outage skips the sweep rather than failing anything.
type Syncer struct {
	service  *Service
	notifier notifications.Service
	logger   *slog.Logger
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSyncer constructs a pin-status syncer for the given archive.
func NewSyncer(service *Service, notifier notifications.Service, logger *slog.Logger, interval time.Duration) *Syncer {
	if interval <= 0 {
		interval = defaultSyncInterval
	}
	if notifier == nil {
		notifier = notifications.Noop()
	}
	return &Syncer{
		service:  service,
		notifier: notifier,
		logger:   logging.WithComponent(logger, "archive-sync"),
		interval: interval,
	}
}

// Start launches the background sweep loop. Starting an already running
// syncer is a no-op.
func (s *Syncer) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(runCtx, s.done)
}

// Stop halts the sweep loop and waits for the in-flight sweep to finish.
func (s *Syncer) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Syncer) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pin-status pass over the archive. Exposed so a sweep can be
// triggered on demand and exercised directly in tests.
func (s *Syncer) Sweep(ctx context.Context) {
	if !s.service.Initialized() {
		return
	}

	checked := 0
	unpinned := 0
	for _, asset := range s.service.Assets() {
		if asset.Mocked() {
			continue
		}
		result, err := s.service.Verify(ctx, asset.CID)
		if err != nil {
			s.logger.Warn("pin status check failed, skipping sweep",
				logging.String("cid", asset.CID),
				logging.Error(err),
			)
			return
		}
		checked++
		if !result.Verified {
			unpinned++
		}
		if _, err := s.service.markPinned(ctx, asset.CID, result.Verified); err != nil {
			s.logger.Warn("failed to record pin status",
				logging.String("cid", asset.CID),
				logging.Error(err),
			)
		}
	}

	if checked == 0 {
		return
	}
	s.logger.Info("archive sweep complete",
		logging.Int("checked", checked),
		logging.Int("unpinned", unpinned),
	)
	if err := s.notifier.NotifyArchiveSynced(ctx, checked, unpinned); err != nil {
		s.logger.Warn("sync notification failed", logging.Error(err))
	}
}

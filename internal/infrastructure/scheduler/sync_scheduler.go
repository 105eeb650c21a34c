package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chansync/backend/internal/domain/batch"
	"github.com/chansync/backend/internal/domain/channel"
)

// BatchSubmitter is the slice of the sync orchestrator the scheduler drives.
type BatchSubmitter interface {
	SubmitProducts(ctx context.Context, ch *channel.Channel, limit int) (*batch.BatchRequest, error)
	SubmitPrices(ctx context.Context, ch *channel.Channel, limit int) (*batch.BatchRequest, error)
	SubmitStocks(ctx context.Context, ch *channel.Channel, limit int) (*batch.BatchRequest, error)
	Poll(ctx context.Context, ch *channel.Channel, b *batch.BatchRequest) (batch.Status, error)
}

// SyncSchedulerConfig holds configuration for the periodic channel sync loop
type SyncSchedulerConfig struct {
	// Enabled indicates if the scheduler is enabled
	Enabled bool
	// Interval is how often a sync cycle runs
	Interval time.Duration
	// SubmitLimit is the maximum number of records per submitted batch
	SubmitLimit int
	// CycleTimeout is the maximum time a single sync cycle can run
	CycleTimeout time.Duration
}

// DefaultSyncSchedulerConfig returns default sync scheduler configuration
func DefaultSyncSchedulerConfig() SyncSchedulerConfig {
	return SyncSchedulerConfig{
		Enabled:      true,
		Interval:     30 * time.Second,
		SubmitLimit:  100,
		CycleTimeout: 5 * time.Minute,
	}
}

// Validate validates the configuration
func (c *SyncSchedulerConfig) Validate() error {
	if c.Interval <= 0 {
		return ErrInvalidConfig
	}
	if c.SubmitLimit <= 0 {
		return ErrInvalidConfig
	}
	if c.CycleTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// SyncScheduler periodically walks the active channels, submits records
// pending export and polls batches still parked on a remote handle.
type SyncScheduler struct {
	config    SyncSchedulerConfig
	channels  channel.Repository
	batches   batch.Repository
	submitter BatchSubmitter
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRunAt *time.Time
}

// NewSyncScheduler creates a new channel sync scheduler
func NewSyncScheduler(
	config SyncSchedulerConfig,
	channels channel.Repository,
	batches batch.Repository,
	submitter BatchSubmitter,
	logger *zap.Logger,
) (*SyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncScheduler{
		config:    config,
		channels:  channels,
		batches:   batches,
		submitter: submitter,
		logger:    logger,
	}, nil
}

// Start starts the scheduler loop
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Channel sync scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Int("submit_limit", s.config.SubmitLimit),
	)
	return nil
}

// Stop gracefully stops the scheduler
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Channel sync scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Channel sync scheduler stop timed out")
		return ctx.Err()
	}
}

// TriggerCycle runs one sync cycle immediately, outside the ticker.
func (s *SyncScheduler) TriggerCycle(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	s.runCycle(ctx)
	return nil
}

// GetLastRunAt returns when the last cycle started
func (s *SyncScheduler) GetLastRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunAt
}

func (s *SyncScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle polls open batches first so a channel busy with an in-flight batch
// can still finish it, then submits a fresh batch of pending products.
func (s *SyncScheduler) runCycle(ctx context.Context) {
	now := time.Now()
	s.mu.Lock()
	s.lastRunAt = &now
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.config.CycleTimeout)
	defer cancel()

	channels, err := s.channels.FindActive(ctx)
	if err != nil {
		s.logger.Error("Failed to list active channels for sync cycle", zap.Error(err))
		return
	}

	for i := range channels {
		ch := &channels[i]
		s.pollOpenBatches(ctx, ch)
		s.submitPending(ctx, ch)
	}
}

func (s *SyncScheduler) pollOpenBatches(ctx context.Context, ch *channel.Channel) {
	for _, status := range []batch.Status{batch.StatusSentToRemote, batch.StatusOngoing} {
		st := status
		open, _, err := s.batches.FindAll(ctx, ch.ID, batch.Filter{Status: &st})
		if err != nil {
			s.logger.Error("Failed to list open batches",
				zap.String("channel_id", ch.ID.String()),
				zap.String("status", string(st)),
				zap.Error(err),
			)
			continue
		}
		for i := range open {
			b := &open[i]
			result, err := s.submitter.Poll(ctx, ch, b)
			if err != nil {
				s.logger.Error("Failed to poll batch",
					zap.String("channel_id", ch.ID.String()),
					zap.String("batch_id", b.ID.String()),
					zap.Error(err),
				)
				continue
			}
			s.logger.Debug("Polled batch",
				zap.String("channel_id", ch.ID.String()),
				zap.String("batch_id", b.ID.String()),
				zap.String("status", string(result)),
			)
		}
	}
}

func (s *SyncScheduler) submitPending(ctx context.Context, ch *channel.Channel) {
	flows := []struct {
		name   string
		submit func(context.Context, *channel.Channel, int) (*batch.BatchRequest, error)
	}{
		{"products", s.submitter.SubmitProducts},
		{"prices", s.submitter.SubmitPrices},
		{"stocks", s.submitter.SubmitStocks},
	}
	for _, flow := range flows {
		b, err := flow.submit(ctx, ch, s.config.SubmitLimit)
		if err != nil {
			s.logger.Error("Failed to submit batch",
				zap.String("channel_id", ch.ID.String()),
				zap.String("flow", flow.name),
				zap.Error(err),
			)
			continue
		}
		if b == nil {
			continue
		}
		s.logger.Info("Submitted batch",
			zap.String("channel_id", ch.ID.String()),
			zap.String("flow", flow.name),
			zap.String("batch_id", b.ID.String()),
			zap.String("status", string(b.Status)),
		)
	}
}

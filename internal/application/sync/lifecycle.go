package sync

import (
	"context"
	"errors"

	"github.com/chansync/backend/internal/domain/batch"
	"github.com/chansync/backend/internal/domain/channel"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LifecycleController owns every batch request status transition. Each
// operation applies the transition on the aggregate and persists it through
// the batch repository, the sole write path for lifecycle state.
//
// Transport errors are never retried here; they propagate to the caller,
// which is expected to fall back to ToFail. The one exception is the
// duplicate-terminal-write conflict (batch.ErrAlreadyFinalized): the
// persistence call is not assumed idempotent, so a terminal transition that
// lost the race to an earlier identical write is treated as success.
type LifecycleController struct {
	repo   batch.Repository
	logger *zap.Logger
}

// NewLifecycleController creates a new lifecycle controller
func NewLifecycleController(repo batch.Repository, logger *zap.Logger) *LifecycleController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleController{repo: repo, logger: logger}
}

// Create allocates a new batch request in initialized state
func (c *LifecycleController) Create(ctx context.Context, channelID uuid.UUID, contentType channel.ContentType) (*batch.BatchRequest, error) {
	b, err := batch.NewBatchRequest(channelID, contentType)
	if err != nil {
		return nil, err
	}
	if err := c.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	c.logger.Debug("batch request created",
		zap.String("batch_id", b.ID.String()),
		zap.String("local_batch_id", b.LocalBatchID.String()),
		zap.String("content_type", contentType.String()))
	return b, nil
}

// ToCommit records that the objects were selected and their ledger rows
// tagged as processing, before any remote I/O happens.
func (c *LifecycleController) ToCommit(ctx context.Context, b *batch.BatchRequest, objects []batch.Object) error {
	if err := b.MarkCommit(objects); err != nil {
		return err
	}
	return c.repo.Update(ctx, b)
}

// ToSentToRemote records that the channel accepted the payload, storing the
// remote handle when the channel returned one. Used for asynchronous
// channels only.
func (c *LifecycleController) ToSentToRemote(ctx context.Context, b *batch.BatchRequest, remoteBatchID string) error {
	if err := b.MarkSentToRemote(remoteBatchID); err != nil {
		return err
	}
	return c.repo.Update(ctx, b)
}

// ToOngoing records that the remote handle was polled and the channel is
// still working on the batch.
func (c *LifecycleController) ToOngoing(ctx context.Context, b *batch.BatchRequest) error {
	if err := b.MarkOngoing(); err != nil {
		return err
	}
	return c.repo.Update(ctx, b)
}

// ToDone finalizes the batch with per-object outcomes. Objects carrying a
// failure reason do not change the overall done status.
func (c *LifecycleController) ToDone(ctx context.Context, b *batch.BatchRequest, objects []batch.Object) error {
	prevStatus, prevObjects := b.Status, b.Objects
	if err := b.MarkDone(objects); err != nil {
		return err
	}
	return c.finalize(ctx, b, prevStatus, prevObjects)
}

// ToFail finalizes the batch as failed with a nulled manifest, used both for
// structural errors and for channel-level rejection of the whole batch.
func (c *LifecycleController) ToFail(ctx context.Context, b *batch.BatchRequest) error {
	prevStatus, prevObjects := b.Status, b.Objects
	if err := b.MarkFail(); err != nil {
		return err
	}
	return c.finalize(ctx, b, prevStatus, prevObjects)
}

func (c *LifecycleController) finalize(ctx context.Context, b *batch.BatchRequest, prevStatus batch.Status, prevObjects []batch.Object) error {
	err := c.repo.Update(ctx, b)
	if err == nil {
		return nil
	}
	if errors.Is(err, batch.ErrAlreadyFinalized) {
		// Another writer already settled this batch in a terminal state. The
		// write is a duplicate, not a failure.
		c.logger.Warn("batch request already finalized, ignoring duplicate terminal write",
			zap.String("batch_id", b.ID.String()),
			zap.String("status", string(b.Status)))
		return nil
	}
	// Transport failure: the row still holds the previous state, so the
	// aggregate is rolled back to let the caller fall back to ToFail.
	b.Status, b.Objects = prevStatus, prevObjects
	return err
}

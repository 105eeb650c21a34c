package sync

import (
	"context"
	"testing"

	"github.com/chansync/backend/internal/domain/batch"
	"github.com/chansync/backend/internal/domain/channel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLifecycleCreatePersistsInitializedBatch(t *testing.T) {
	repo := newFakeBatchRepo()
	c := NewLifecycleController(repo, zap.NewNop())

	b, err := c.Create(context.Background(), uuid.New(), channel.ContentTypeProduct)
	require.NoError(t, err)
	assert.Equal(t, batch.StatusInitialized, b.Status)

	stored, err := repo.FindByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, batch.StatusInitialized, stored.Status)
	assert.Equal(t, b.LocalBatchID, stored.LocalBatchID)
}

func TestLifecycleHappyPath(t *testing.T) {
	repo := newFakeBatchRepo()
	c := NewLifecycleController(repo, zap.NewNop())
	ctx := context.Background()

	b, err := c.Create(ctx, uuid.New(), channel.ContentTypeProduct)
	require.NoError(t, err)

	objects := []batch.Object{{ObjectID: uuid.New(), ContentType: channel.ContentTypeProduct}}
	require.NoError(t, c.ToCommit(ctx, b, objects))
	require.NoError(t, c.ToSentToRemote(ctx, b, "remote-1"))
	require.NoError(t, c.ToOngoing(ctx, b))
	require.NoError(t, c.ToDone(ctx, b, objects))

	stored, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, batch.StatusDone, stored.Status)
	require.NotNil(t, stored.RemoteBatchID)
	assert.Equal(t, "remote-1", *stored.RemoteBatchID)
	assert.Len(t, stored.Objects, 1)
}

func TestLifecycleSwallowsDuplicateTerminalWrite(t *testing.T) {
	// A concurrent writer already finalized the row. The losing terminal
	// write must be treated as success.
	repo := newFakeBatchRepo()
	c := NewLifecycleController(repo, zap.NewNop())
	ctx := context.Background()

	b, err := c.Create(ctx, uuid.New(), channel.ContentTypeProduct)
	require.NoError(t, err)
	require.NoError(t, c.ToCommit(ctx, b, nil))

	// The other writer finalizes first.
	winner, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	require.NoError(t, winner.MarkDone(nil))
	require.NoError(t, repo.Update(ctx, winner))

	assert.NoError(t, c.ToDone(ctx, b, nil))
	assert.NoError(t, c.ToFail(ctx, b))

	stored, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, batch.StatusDone, stored.Status)
}

func TestLifecycleRollsBackAggregateOnTransportError(t *testing.T) {
	repo := newFakeBatchRepo()
	c := NewLifecycleController(repo, zap.NewNop())
	ctx := context.Background()

	b, err := c.Create(ctx, uuid.New(), channel.ContentTypeProduct)
	require.NoError(t, err)
	objects := []batch.Object{{ObjectID: uuid.New(), ContentType: channel.ContentTypeProduct}}
	require.NoError(t, c.ToCommit(ctx, b, objects))

	repo.updateErr = assert.AnError
	err = c.ToDone(ctx, b, objects)
	require.Error(t, err)

	// The aggregate must still allow the fallback ToFail.
	assert.Equal(t, batch.StatusCommit, b.Status)
	repo.updateErr = nil
	require.NoError(t, c.ToFail(ctx, b))

	stored, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, batch.StatusFail, stored.Status)
	assert.Nil(t, stored.Objects)
}

func TestLifecycleRejectsInvalidTransition(t *testing.T) {
	repo := newFakeBatchRepo()
	c := NewLifecycleController(repo, zap.NewNop())
	ctx := context.Background()

	b, err := c.Create(ctx, uuid.New(), channel.ContentTypeProduct)
	require.NoError(t, err)

	// sent_to_remote requires commit first.
	err = c.ToSentToRemote(ctx, b, "remote-1")
	require.Error(t, err)

	stored, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, batch.StatusInitialized, stored.Status)
}

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/chansync/backend/internal/domain/channel"
	"github.com/chansync/backend/internal/domain/ledger"
	"github.com/chansync/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAction(t *testing.T, channelID, localBatchID uuid.UUID, contentType channel.ContentType) *ledger.IntegrationAction {
	t.Helper()
	a, err := ledger.NewIntegrationAction(channelID, contentType, uuid.New(), time.Now().UTC(), localBatchID)
	require.NoError(t, err)
	return a
}

func TestIntegrationActionRepositoryCreateAndFind(t *testing.T) {
	repo := NewGormIntegrationActionRepository(newTestDB(t))
	ctx := context.Background()
	channelID := uuid.New()
	localBatchID := uuid.New()

	a := newAction(t, channelID, localBatchID, channel.ContentTypeProduct)
	require.NoError(t, repo.CreateBatch(ctx, []*ledger.IntegrationAction{a}))

	found, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ObjectID, found.ObjectID)
	assert.Equal(t, ledger.ActionStatusProcessing, found.Status)
	assert.Equal(t, localBatchID, found.LocalBatchID)
	assert.Nil(t, found.RemoteID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	byObject, err := repo.FindByObject(ctx, channelID, channel.ContentTypeProduct, a.ObjectID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, byObject.ID)
}

func TestIntegrationActionRepositoryListProcessingByBatchScoping(t *testing.T) {
	repo := NewGormIntegrationActionRepository(newTestDB(t))
	ctx := context.Background()
	channelID := uuid.New()
	localBatchID := uuid.New()

	mine := newAction(t, channelID, localBatchID, channel.ContentTypeProduct)
	otherBatch := newAction(t, channelID, uuid.New(), channel.ContentTypeProduct)
	otherChannel := newAction(t, uuid.New(), localBatchID, channel.ContentTypeProduct)
	settled := newAction(t, channelID, localBatchID, channel.ContentTypeProduct)
	require.NoError(t, settled.Confirm("R9"))

	require.NoError(t, repo.CreateBatch(ctx, []*ledger.IntegrationAction{mine, otherBatch, otherChannel, settled}))

	rows, err := repo.ListProcessingByBatch(ctx, channelID, localBatchID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, mine.ID, rows[0].ID)
}

func TestIntegrationActionRepositoryUpdateBatch(t *testing.T) {
	repo := NewGormIntegrationActionRepository(newTestDB(t))
	ctx := context.Background()
	channelID := uuid.New()
	localBatchID := uuid.New()

	confirmed := newAction(t, channelID, localBatchID, channel.ContentTypeProduct)
	rejected := newAction(t, channelID, localBatchID, channel.ContentTypeProduct)
	require.NoError(t, repo.CreateBatch(ctx, []*ledger.IntegrationAction{confirmed, rejected}))

	require.NoError(t, confirmed.Confirm("R1"))
	require.NoError(t, rejected.Reject(channel.FailedReasonRemote))
	require.NoError(t, repo.UpdateBatch(ctx, []*ledger.IntegrationAction{confirmed, rejected}))

	found, err := repo.FindByID(ctx, confirmed.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.ActionStatusSuccess, found.Status)
	require.NotNil(t, found.RemoteID)
	assert.Equal(t, "R1", *found.RemoteID)

	found, err = repo.FindByID(ctx, rejected.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.ActionStatusError, found.Status)
	assert.Equal(t, channel.FailedReasonRemote, found.FailedReason)
}

func TestIntegrationActionRepositoryUpdateMissingRow(t *testing.T) {
	repo := NewGormIntegrationActionRepository(newTestDB(t))
	a := newAction(t, uuid.New(), uuid.New(), channel.ContentTypeProduct)
	err := repo.Update(context.Background(), a)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestIntegrationActionRepositoryDelete(t *testing.T) {
	repo := NewGormIntegrationActionRepository(newTestDB(t))
	ctx := context.Background()

	a := newAction(t, uuid.New(), uuid.New(), channel.ContentTypeProduct)
	require.NoError(t, repo.CreateBatch(ctx, []*ledger.IntegrationAction{a}))
	require.NoError(t, repo.Delete(ctx, a.ID))

	_, err := repo.FindByID(ctx, a.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestIntegrationActionRepositoryListByRemoteIDs(t *testing.T) {
	repo := NewGormIntegrationActionRepository(newTestDB(t))
	ctx := context.Background()
	channelID := uuid.New()

	a1 := newAction(t, channelID, uuid.New(), channel.ContentTypeProduct)
	require.NoError(t, a1.Confirm("R1"))
	a2 := newAction(t, channelID, uuid.New(), channel.ContentTypeProduct)
	require.NoError(t, a2.Confirm("R2"))
	foreign := newAction(t, uuid.New(), uuid.New(), channel.ContentTypeProduct)
	require.NoError(t, foreign.Confirm("R1"))
	require.NoError(t, repo.CreateBatch(ctx, []*ledger.IntegrationAction{a1, a2, foreign}))

	rows, err := repo.ListByRemoteIDs(ctx, channelID, []string{"R1", "R3"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, a1.ID, rows[0].ID)

	rows, err = repo.ListByRemoteIDs(ctx, channelID, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestIntegrationActionRepositoryListByObjects(t *testing.T) {
	repo := NewGormIntegrationActionRepository(newTestDB(t))
	ctx := context.Background()
	channelID := uuid.New()

	a1 := newAction(t, channelID, uuid.New(), channel.ContentTypeProduct)
	a2 := newAction(t, channelID, uuid.New(), channel.ContentTypeProductStock)
	require.NoError(t, repo.CreateBatch(ctx, []*ledger.IntegrationAction{a1, a2}))

	rows, err := repo.ListByObjects(ctx, channelID, channel.ContentTypeProduct, []uuid.UUID{a1.ObjectID, a2.ObjectID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, a1.ID, rows[0].ID)
}

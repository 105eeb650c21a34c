package sync

import (
	"testing"
	"time"

	"github.com/chansync/backend/internal/domain/catalog"
	"github.com/chansync/backend/internal/domain/channel"
	"github.com/chansync/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCommitObjects(t *testing.T) {
	channelID := uuid.New()
	localBatchID := uuid.New()

	recordDate := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	actionDate := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	p := &catalog.Product{SKU: "SKU-1"}
	p.ID = uuid.New()
	p.UpdatedAt = recordDate

	confirmed, err := ledger.NewIntegrationAction(
		channelID, channel.ContentTypeProduct, p.ID, actionDate, localBatchID)
	require.NoError(t, err)

	orphan, err := ledger.NewIntegrationAction(
		channelID, channel.ContentTypeProduct, uuid.New(), actionDate, localBatchID)
	require.NoError(t, err)

	objects := BuildCommitObjects([]ReconciledRecord{
		{Record: p, Action: confirmed, Outcome: Outcome{RemoteID: "R1"}},
		{Action: orphan, Outcome: Outcome{
			FailedReason: channel.FailedReasonChannelApp,
			Message:      "gone",
		}},
	})
	require.Len(t, objects, 2)

	assert.Equal(t, p.ID, objects[0].ObjectID)
	assert.Equal(t, "R1", objects[0].RemoteID)
	assert.Empty(t, objects[0].FailedReasonType)
	// Present records contribute their own modification date.
	assert.Equal(t, recordDate, objects[0].VersionDate)

	assert.Equal(t, orphan.ObjectID, objects[1].ObjectID)
	assert.Empty(t, objects[1].RemoteID)
	assert.Equal(t, channel.FailedReasonChannelApp, objects[1].FailedReasonType)
	// Missing records fall back to the ledger row's version date.
	assert.Equal(t, actionDate, objects[1].VersionDate)
}

func TestBuildProcessingObjects(t *testing.T) {
	first := &catalog.Product{SKU: "SKU-1"}
	first.ID = uuid.New()
	first.UpdatedAt = time.Now()
	second := &catalog.Product{SKU: "SKU-2"}
	second.ID = uuid.New()
	second.UpdatedAt = time.Now().Add(-time.Hour)

	objects := BuildProcessingObjects([]catalog.Record{first, second}, channel.ContentTypeProduct)
	require.Len(t, objects, 2)
	for i, rec := range []*catalog.Product{first, second} {
		assert.Equal(t, rec.ID, objects[i].ObjectID)
		assert.Equal(t, channel.ContentTypeProduct, objects[i].ContentType)
		assert.Equal(t, rec.UpdatedAt, objects[i].VersionDate)
		assert.Empty(t, objects[i].RemoteID)
		assert.Empty(t, objects[i].FailedReasonType)
	}
}

func TestOutcomeFailed(t *testing.T) {
	assert.False(t, Outcome{RemoteID: "R1"}.Failed())
	assert.True(t, Outcome{FailedReason: channel.FailedReasonRemote}.Failed())
	assert.True(t, Outcome{FailedReason: channel.FailedReasonMapping}.Failed())
}

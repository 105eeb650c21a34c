package ledger

import (
	"context"

	"github.com/chansync/backend/internal/domain/channel"
	"github.com/google/uuid"
)

// Repository defines persistence operations for integration actions.
//
// ListProcessingByBatch is the reconciliation entry point: by filtering on
// status = processing AND local_batch_id = <batch> it guarantees that only
// rows created by the batch being finalized are ever touched, which is the
// sole isolation mechanism between concurrently running batches.
type Repository interface {
	CreateBatch(ctx context.Context, actions []*IntegrationAction) error
	Update(ctx context.Context, action *IntegrationAction) error
	UpdateBatch(ctx context.Context, actions []*IntegrationAction) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*IntegrationAction, error)

	// ListProcessingByBatch returns every processing row scoped to the given
	// batch, paginating internally until the result is exhausted
	ListProcessingByBatch(ctx context.Context, channelID, localBatchID uuid.UUID) ([]*IntegrationAction, error)

	// ListByRemoteIDs returns rows matching the given remote identifiers,
	// used by deleted-record reconciliation where the correlation key is the
	// remote id itself
	ListByRemoteIDs(ctx context.Context, channelID uuid.UUID, remoteIDs []string) ([]*IntegrationAction, error)

	// FindByObject returns the ledger row for one local record on a channel,
	// nil when the record was never exported
	FindByObject(ctx context.Context, channelID uuid.UUID, contentType channel.ContentType, objectID uuid.UUID) (*IntegrationAction, error)

	// ListByObjects bulk-resolves ledger rows for a set of local records,
	// letting the submit flow reclaim rows of records exported before
	// instead of growing duplicates
	ListByObjects(ctx context.Context, channelID uuid.UUID, contentType channel.ContentType, objectIDs []uuid.UUID) ([]*IntegrationAction, error)
}

package batch

import (
	"context"

	"github.com/chansync/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ErrAlreadyFinalized is returned by the repository when an update would
// overwrite a batch request that already reached a terminal state. It marks
// the duplicate-terminal-write conflict the lifecycle controller swallows,
// since the persistence call is not assumed idempotent.
var ErrAlreadyFinalized = shared.NewDomainError("BATCH_ALREADY_FINALIZED", "Batch request is already in a terminal state")

// Filter defines filter criteria for listing batch requests
type Filter struct {
	Status      *Status
	ContentType *string
	Page        int
	PageSize    int
}

// Repository defines persistence operations for batch requests. Update is the
// sole write path for all lifecycle transitions; it must surface
// ErrAlreadyFinalized when a concurrent writer finalized the row first.
// Batch requests are never deleted: they are the audit trail.
type Repository interface {
	Create(ctx context.Context, b *BatchRequest) error
	Update(ctx context.Context, b *BatchRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*BatchRequest, error)
	FindByLocalBatchID(ctx context.Context, channelID, localBatchID uuid.UUID) (*BatchRequest, error)
	FindAll(ctx context.Context, channelID uuid.UUID, filter Filter) ([]BatchRequest, int64, error)
}

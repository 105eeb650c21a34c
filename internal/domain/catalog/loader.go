package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ChunkSize is the page size every bulk loader must respect when resolving
// records by id.
const ChunkSize = 50

// ChunkIDs splits an id list into chunks of at most size elements
func ChunkIDs(ids []uuid.UUID, size int) [][]uuid.UUID {
	if size <= 0 {
		size = ChunkSize
	}
	var chunks [][]uuid.UUID
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}

// ProductStore resolves products for the reconciliation engine and supplies
// export candidates for the submission path.
type ProductStore interface {
	// ListByIDs bulk-loads products, chunked at ChunkSize. Ids that resolve
	// to nothing are simply absent from the result.
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Product, error)
	// ListPendingExport returns products that were never exported to the
	// channel or changed since their last export, up to limit
	ListPendingExport(ctx context.Context, channelID uuid.UUID, limit int) ([]*Product, error)
}

// PriceStore resolves product prices by id and supplies export candidates
type PriceStore interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*ProductPrice, error)
	ListPendingExport(ctx context.Context, channelID uuid.UUID, limit int) ([]*ProductPrice, error)
}

// StockStore resolves product stocks by id and supplies export candidates
type StockStore interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*ProductStock, error)
	ListPendingExport(ctx context.Context, channelID uuid.UUID, limit int) ([]*ProductStock, error)
}

// ImageStore resolves product images by id
type ImageStore interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*ProductImage, error)
}

// OrderStore resolves orders by id
type OrderStore interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Order, error)
}

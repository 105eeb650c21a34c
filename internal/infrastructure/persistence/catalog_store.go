package persistence

import (
	"context"

	"github.com/chansync/backend/internal/domain/catalog"
	"github.com/chansync/backend/internal/domain/channel"
	"github.com/chansync/backend/internal/domain/ledger"
	"github.com/chansync/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCatalogStore implements the catalog bulk loaders. Every ListByIDs
// resolves ids in chunks of catalog.ChunkSize.
type GormCatalogStore struct {
	db *gorm.DB
}

// NewGormCatalogStore creates a new GormCatalogStore
func NewGormCatalogStore(db *gorm.DB) *GormCatalogStore {
	return &GormCatalogStore{db: db}
}

// ListByIDs implements catalog.ProductStore
func (s *GormCatalogStore) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.Product, error) {
	var out []*catalog.Product
	for _, chunk := range catalog.ChunkIDs(ids, catalog.ChunkSize) {
		var productModels []models.ProductModel
		if err := s.db.WithContext(ctx).Where("id IN ?", chunk).Find(&productModels).Error; err != nil {
			return nil, err
		}
		for i := range productModels {
			out = append(out, productModels[i].ToDomain())
		}
	}
	return out, nil
}

// ListPendingExport implements catalog.ProductStore. A product is pending
// when it has no ledger row on the channel at all, when its last export
// ended in error, or when its successful row is older than the product's
// modification date. Products claimed by an in-flight batch (a processing
// row) are excluded.
func (s *GormCatalogStore) ListPendingExport(ctx context.Context, channelID uuid.UUID, limit int) ([]*catalog.Product, error) {
	query := s.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Joins(`LEFT JOIN integration_actions ia
			ON ia.object_id = products.id
			AND ia.channel_id = ?
			AND ia.content_type = ?`, channelID, channel.ContentTypeProduct).
		Where(`ia.id IS NULL
			OR ia.status = ?
			OR (ia.status = ? AND products.updated_at > ia.version_date)`,
			ledger.ActionStatusError, ledger.ActionStatusSuccess).
		Order("products.updated_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var productModels []models.ProductModel
	if err := query.Find(&productModels).Error; err != nil {
		return nil, err
	}
	out := make([]*catalog.Product, len(productModels))
	for i := range productModels {
		out[i] = productModels[i].ToDomain()
	}
	return out, nil
}

// GormPriceStore implements catalog.PriceStore
type GormPriceStore struct {
	db *gorm.DB
}

// NewGormPriceStore creates a new GormPriceStore
func NewGormPriceStore(db *gorm.DB) *GormPriceStore {
	return &GormPriceStore{db: db}
}

// ListByIDs implements catalog.PriceStore
func (s *GormPriceStore) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.ProductPrice, error) {
	var out []*catalog.ProductPrice
	for _, chunk := range catalog.ChunkIDs(ids, catalog.ChunkSize) {
		var priceModels []models.ProductPriceModel
		if err := s.db.WithContext(ctx).Where("id IN ?", chunk).Find(&priceModels).Error; err != nil {
			return nil, err
		}
		for i := range priceModels {
			out = append(out, priceModels[i].ToDomain())
		}
	}
	return out, nil
}

// ListPendingExport implements catalog.PriceStore with the same pending rule
// as products: no ledger row on the channel, or a settled row older than the
// price's modification date.
func (s *GormPriceStore) ListPendingExport(ctx context.Context, channelID uuid.UUID, limit int) ([]*catalog.ProductPrice, error) {
	query := s.db.WithContext(ctx).
		Model(&models.ProductPriceModel{}).
		Joins(`LEFT JOIN integration_actions ia
			ON ia.object_id = product_prices.id
			AND ia.channel_id = ?
			AND ia.content_type = ?`, channelID, channel.ContentTypeProductPrice).
		Where(`ia.id IS NULL
			OR ia.status = ?
			OR (ia.status = ? AND product_prices.updated_at > ia.version_date)`,
			ledger.ActionStatusError, ledger.ActionStatusSuccess).
		Order("product_prices.updated_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var priceModels []models.ProductPriceModel
	if err := query.Find(&priceModels).Error; err != nil {
		return nil, err
	}
	out := make([]*catalog.ProductPrice, len(priceModels))
	for i := range priceModels {
		out[i] = priceModels[i].ToDomain()
	}
	return out, nil
}

// GormStockStore implements catalog.StockStore
type GormStockStore struct {
	db *gorm.DB
}

// NewGormStockStore creates a new GormStockStore
func NewGormStockStore(db *gorm.DB) *GormStockStore {
	return &GormStockStore{db: db}
}

// ListByIDs implements catalog.StockStore
func (s *GormStockStore) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.ProductStock, error) {
	var out []*catalog.ProductStock
	for _, chunk := range catalog.ChunkIDs(ids, catalog.ChunkSize) {
		var stockModels []models.ProductStockModel
		if err := s.db.WithContext(ctx).Where("id IN ?", chunk).Find(&stockModels).Error; err != nil {
			return nil, err
		}
		for i := range stockModels {
			out = append(out, stockModels[i].ToDomain())
		}
	}
	return out, nil
}

// ListPendingExport implements catalog.StockStore
func (s *GormStockStore) ListPendingExport(ctx context.Context, channelID uuid.UUID, limit int) ([]*catalog.ProductStock, error) {
	query := s.db.WithContext(ctx).
		Model(&models.ProductStockModel{}).
		Joins(`LEFT JOIN integration_actions ia
			ON ia.object_id = product_stocks.id
			AND ia.channel_id = ?
			AND ia.content_type = ?`, channelID, channel.ContentTypeProductStock).
		Where(`ia.id IS NULL
			OR ia.status = ?
			OR (ia.status = ? AND product_stocks.updated_at > ia.version_date)`,
			ledger.ActionStatusError, ledger.ActionStatusSuccess).
		Order("product_stocks.updated_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var stockModels []models.ProductStockModel
	if err := query.Find(&stockModels).Error; err != nil {
		return nil, err
	}
	out := make([]*catalog.ProductStock, len(stockModels))
	for i := range stockModels {
		out[i] = stockModels[i].ToDomain()
	}
	return out, nil
}

// GormImageStore implements catalog.ImageStore
type GormImageStore struct {
	db *gorm.DB
}

// NewGormImageStore creates a new GormImageStore
func NewGormImageStore(db *gorm.DB) *GormImageStore {
	return &GormImageStore{db: db}
}

// ListByIDs implements catalog.ImageStore
func (s *GormImageStore) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.ProductImage, error) {
	var out []*catalog.ProductImage
	for _, chunk := range catalog.ChunkIDs(ids, catalog.ChunkSize) {
		var imageModels []models.ProductImageModel
		if err := s.db.WithContext(ctx).Where("id IN ?", chunk).Find(&imageModels).Error; err != nil {
			return nil, err
		}
		for i := range imageModels {
			out = append(out, imageModels[i].ToDomain())
		}
	}
	return out, nil
}

// GormOrderStore implements catalog.OrderStore
type GormOrderStore struct {
	db *gorm.DB
}

// NewGormOrderStore creates a new GormOrderStore
func NewGormOrderStore(db *gorm.DB) *GormOrderStore {
	return &GormOrderStore{db: db}
}

// ListByIDs implements catalog.OrderStore
func (s *GormOrderStore) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.Order, error) {
	var out []*catalog.Order
	for _, chunk := range catalog.ChunkIDs(ids, catalog.ChunkSize) {
		var orderModels []models.OrderModel
		if err := s.db.WithContext(ctx).Where("id IN ?", chunk).Find(&orderModels).Error; err != nil {
			return nil, err
		}
		for i := range orderModels {
			out = append(out, orderModels[i].ToDomain())
		}
	}
	return out, nil
}

package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/chansync/backend/internal/domain/catalog"
	"github.com/chansync/backend/internal/domain/channel"
	"github.com/chansync/backend/internal/domain/ledger"
	"github.com/chansync/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedProduct(t *testing.T, db *gorm.DB, sku string, updatedAt time.Time) *catalog.Product {
	t.Helper()
	p := &catalog.Product{SKU: sku, Name: "Product " + sku, Attributes: map[string]interface{}{"barcode": "b-" + sku}}
	p.ID = uuid.New()
	p.CreatedAt = updatedAt
	p.UpdatedAt = updatedAt
	model := &models.ProductModel{}
	model.FromDomain(p)
	require.NoError(t, db.Create(model).Error)
	return p
}

func TestCatalogStoreListByIDsChunks(t *testing.T) {
	db := newTestDB(t)
	store := NewGormCatalogStore(db)
	ctx := context.Background()

	// More products than one chunk can hold.
	ids := make([]uuid.UUID, 0, catalog.ChunkSize+20)
	for i := 0; i < catalog.ChunkSize+20; i++ {
		p := seedProduct(t, db, fmt.Sprintf("SKU-%03d", i), time.Now().UTC())
		ids = append(ids, p.ID)
	}
	ids = append(ids, uuid.New()) // unknown id, silently absent

	products, err := store.ListByIDs(ctx, ids)
	require.NoError(t, err)
	assert.Len(t, products, catalog.ChunkSize+20)

	products, err = store.ListByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestCatalogStoreProductAttributesRoundTrip(t *testing.T) {
	db := newTestDB(t)
	store := NewGormCatalogStore(db)

	p := seedProduct(t, db, "SKU-1", time.Now().UTC())
	loaded, err := store.ListByIDs(context.Background(), []uuid.UUID{p.ID})
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "b-SKU-1", loaded[0].Attributes["barcode"])
}

func TestCatalogStoreListPendingExport(t *testing.T) {
	db := newTestDB(t)
	store := NewGormCatalogStore(db)
	ctx := context.Background()
	channelID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)

	neverExported := seedProduct(t, db, "SKU-NEW", base)

	stale := seedProduct(t, db, "SKU-STALE", base.Add(30*time.Minute))
	staleRow, err := ledger.NewIntegrationAction(channelID, channel.ContentTypeProduct, stale.ID, base, uuid.New())
	require.NoError(t, err)
	require.NoError(t, staleRow.Confirm("R-STALE"))

	fresh := seedProduct(t, db, "SKU-FRESH", base)
	freshRow, err := ledger.NewIntegrationAction(channelID, channel.ContentTypeProduct, fresh.ID, base.Add(10*time.Minute), uuid.New())
	require.NoError(t, err)
	require.NoError(t, freshRow.Confirm("R-FRESH"))

	claimed := seedProduct(t, db, "SKU-CLAIMED", base.Add(30*time.Minute))
	claimedRow, err := ledger.NewIntegrationAction(channelID, channel.ContentTypeProduct, claimed.ID, base, uuid.New())
	require.NoError(t, err)

	otherChannel := seedProduct(t, db, "SKU-OTHER", base)
	otherRow, err := ledger.NewIntegrationAction(uuid.New(), channel.ContentTypeProduct, otherChannel.ID, base.Add(10*time.Minute), uuid.New())
	require.NoError(t, err)
	require.NoError(t, otherRow.Confirm("R-OTHER"))

	// A batch that died released its claim as an error row; the record must
	// come back even though it has not changed since.
	failed := seedProduct(t, db, "SKU-FAILED", base)
	failedRow, err := ledger.NewIntegrationAction(channelID, channel.ContentTypeProduct, failed.ID, base, uuid.New())
	require.NoError(t, err)
	require.NoError(t, failedRow.Reject(channel.FailedReasonChannelApp))

	ledgerRepo := NewGormIntegrationActionRepository(db)
	require.NoError(t, ledgerRepo.CreateBatch(ctx, []*ledger.IntegrationAction{staleRow, freshRow, claimedRow, otherRow, failedRow}))

	pending, err := store.ListPendingExport(ctx, channelID, 0)
	require.NoError(t, err)

	skus := make([]string, len(pending))
	for i, p := range pending {
		skus[i] = p.SKU
	}
	// Never exported, stale, failed-last-time and exported-to-another-channel
	// products are pending; up-to-date and claimed ones are not.
	assert.ElementsMatch(t, []string{"SKU-NEW", "SKU-STALE", "SKU-OTHER", "SKU-FAILED"}, skus)
	_ = neverExported

	limited, err := store.ListPendingExport(ctx, channelID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestPriceStoreListByIDs(t *testing.T) {
	db := newTestDB(t)
	store := NewGormPriceStore(db)

	price := &catalog.ProductPrice{
		ProductID: uuid.New(),
		SKU:       "SKU-1",
		Amount:    decimal.RequireFromString("19.90"),
		Currency:  "USD",
	}
	price.ID = uuid.New()
	price.UpdatedAt = time.Now().UTC()
	model := &models.ProductPriceModel{}
	model.FromDomain(price)
	require.NoError(t, db.Create(model).Error)

	loaded, err := store.ListByIDs(context.Background(), []uuid.UUID{price.ID})
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "SKU-1", loaded[0].SKU)
	assert.True(t, loaded[0].Amount.Equal(decimal.RequireFromString("19.90")))
}

func TestPriceStoreListPendingExport(t *testing.T) {
	db := newTestDB(t)
	store := NewGormPriceStore(db)
	ctx := context.Background()
	channelID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)

	seedPrice := func(sku string, updatedAt time.Time) *catalog.ProductPrice {
		p := &catalog.ProductPrice{
			ProductID: uuid.New(),
			SKU:       sku,
			Amount:    decimal.RequireFromString("9.90"),
			Currency:  "USD",
		}
		p.ID = uuid.New()
		p.CreatedAt = updatedAt
		p.UpdatedAt = updatedAt
		model := &models.ProductPriceModel{}
		model.FromDomain(p)
		require.NoError(t, db.Create(model).Error)
		return p
	}

	neverExported := seedPrice("SKU-NEW", base)

	stale := seedPrice("SKU-STALE", base.Add(30*time.Minute))
	staleRow, err := ledger.NewIntegrationAction(channelID, channel.ContentTypeProductPrice, stale.ID, base, uuid.New())
	require.NoError(t, err)
	require.NoError(t, staleRow.Confirm("R-STALE"))

	fresh := seedPrice("SKU-FRESH", base)
	freshRow, err := ledger.NewIntegrationAction(channelID, channel.ContentTypeProductPrice, fresh.ID, base.Add(10*time.Minute), uuid.New())
	require.NoError(t, err)
	require.NoError(t, freshRow.Confirm("R-FRESH"))

	ledgerRepo := NewGormIntegrationActionRepository(db)
	require.NoError(t, ledgerRepo.CreateBatch(ctx, []*ledger.IntegrationAction{staleRow, freshRow}))

	pending, err := store.ListPendingExport(ctx, channelID, 0)
	require.NoError(t, err)

	skus := make([]string, len(pending))
	for i, p := range pending {
		skus[i] = p.SKU
	}
	assert.ElementsMatch(t, []string{neverExported.SKU, stale.SKU}, skus)
}

func TestStockStoreListPendingExport(t *testing.T) {
	db := newTestDB(t)
	store := NewGormStockStore(db)
	ctx := context.Background()
	channelID := uuid.New()
	now := time.Now().UTC()

	seedStock := func(sku string, qty int) *catalog.ProductStock {
		s := &catalog.ProductStock{ProductID: uuid.New(), SKU: sku, Quantity: qty}
		s.ID = uuid.New()
		s.CreatedAt = now
		s.UpdatedAt = now
		model := &models.ProductStockModel{}
		model.FromDomain(s)
		require.NoError(t, db.Create(model).Error)
		return s
	}

	unclaimed := seedStock("SKU-FREE", 3)

	claimed := seedStock("SKU-CLAIMED", 5)
	claimedRow, err := ledger.NewIntegrationAction(channelID, channel.ContentTypeProductStock, claimed.ID, now, uuid.New())
	require.NoError(t, err)

	ledgerRepo := NewGormIntegrationActionRepository(db)
	require.NoError(t, ledgerRepo.CreateBatch(ctx, []*ledger.IntegrationAction{claimedRow}))

	pending, err := store.ListPendingExport(ctx, channelID, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, unclaimed.SKU, pending[0].SKU)
}

func TestStockAndImageAndOrderStores(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	stock := &catalog.ProductStock{ProductID: uuid.New(), SKU: "SKU-1", Quantity: 7}
	stock.ID = uuid.New()
	stockModel := &models.ProductStockModel{}
	stockModel.FromDomain(stock)
	require.NoError(t, db.Create(stockModel).Error)

	image := &catalog.ProductImage{ProductID: stock.ProductID, SKU: "SKU-1", URL: "https://img.example/1.jpg", Order: 2}
	image.ID = uuid.New()
	imageModel := &models.ProductImageModel{}
	imageModel.FromDomain(image)
	require.NoError(t, db.Create(imageModel).Error)

	order := &catalog.Order{Number: "ORD-1", CustomerID: uuid.New(), Total: decimal.RequireFromString("120.50"), Currency: "EUR"}
	order.ID = uuid.New()
	orderModel := &models.OrderModel{}
	orderModel.FromDomain(order)
	require.NoError(t, db.Create(orderModel).Error)

	stocks, err := NewGormStockStore(db).ListByIDs(ctx, []uuid.UUID{stock.ID})
	require.NoError(t, err)
	require.Len(t, stocks, 1)
	assert.Equal(t, 7, stocks[0].Quantity)

	images, err := NewGormImageStore(db).ListByIDs(ctx, []uuid.UUID{image.ID})
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, 2, images[0].Order)

	orders, err := NewGormOrderStore(db).ListByIDs(ctx, []uuid.UUID{order.ID})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "ORD-1", orders[0].Number)
}

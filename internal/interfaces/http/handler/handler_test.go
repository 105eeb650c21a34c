package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/chansync/backend/internal/application/sync"
	"github.com/chansync/backend/internal/domain/batch"
	"github.com/chansync/backend/internal/domain/catalog"
	"github.com/chansync/backend/internal/domain/channel"
	"github.com/chansync/backend/internal/domain/ledger"
	"github.com/chansync/backend/internal/domain/report"
	"github.com/chansync/backend/internal/infrastructure/cache"
	"github.com/chansync/backend/internal/infrastructure/persistence"
	"github.com/chansync/backend/internal/infrastructure/persistence/models"
	"github.com/chansync/backend/internal/interfaces/http/middleware"
	"github.com/chansync/backend/internal/interfaces/http/router"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAdapter is a programmable channel.Adapter for handler tests
type fakeAdapter struct {
	submitResult *channel.SubmitResult
	submitErr    error
	checkResult  *channel.CheckResult
	checkErr     error
}

func (a *fakeAdapter) SubmitBatch(_ context.Context, _ *channel.Channel, _ uuid.UUID, _ []channel.BatchPayloadItem) (*channel.SubmitResult, error) {
	if a.submitErr != nil {
		return nil, a.submitErr
	}
	return a.submitResult, nil
}

func (a *fakeAdapter) CheckBatch(_ context.Context, _ *channel.Channel, _ string) (*channel.CheckResult, error) {
	if a.checkErr != nil {
		return nil, a.checkErr
	}
	return a.checkResult, nil
}

type handlerEnv struct {
	db       *gorm.DB
	router   *gin.Engine
	channels channel.Repository
	batches  batch.Repository
	ledger   ledger.Repository
	reports  report.Repository
	products catalog.ProductStore
	adapter  *fakeAdapter
	ch       *channel.Channel
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.ChannelModel{},
		&models.BatchRequestModel{},
		&models.IntegrationActionModel{},
		&models.ProductModel{},
		&models.ProductPriceModel{},
		&models.ProductStockModel{},
		&models.ProductImageModel{},
		&models.OrderModel{},
		&models.ErrorReportModel{},
	))

	env := &handlerEnv{
		db:       db,
		channels: persistence.NewGormChannelRepository(db),
		batches:  persistence.NewGormBatchRequestRepository(db),
		ledger:   persistence.NewGormIntegrationActionRepository(db),
		reports:  persistence.NewGormErrorReportRepository(db),
		products: persistence.NewGormCatalogStore(db),
		adapter:  &fakeAdapter{},
	}

	confProvider := cache.NewInMemoryChannelConfCache(env.channels, time.Minute)
	priceStore := persistence.NewGormPriceStore(db)
	stockStore := persistence.NewGormStockStore(db)
	registry := sync.NewDefaultRegistry(
		env.products,
		priceStore,
		stockStore,
		persistence.NewGormImageStore(db),
		persistence.NewGormOrderStore(db),
		confProvider,
	)
	lifecycle := sync.NewLifecycleController(env.batches, zap.NewNop())
	engine := sync.NewEngine(registry, env.ledger, lifecycle, env.reports, zap.NewNop())
	orchestrator := sync.NewOrchestrator(lifecycle, engine, registry, env.ledger, env.adapter,
		env.products, priceStore, stockStore, zap.NewNop())

	engineRouter := gin.New()
	engineRouter.Use(middleware.RequestID())

	r := router.NewRouter(engineRouter)
	r.Register(NewBatchHandler(lifecycle, engine, orchestrator, env.batches, env.channels))
	r.Register(NewErrorReportHandler(env.reports))
	r.Register(NewChannelHandler(env.channels))
	r.Register(NewSystemHandler(nil))
	r.Setup()

	env.router = engineRouter

	ch, err := channel.NewChannel("Test Marketplace", "testmp")
	require.NoError(t, err)
	require.NoError(t, env.channels.Save(context.Background(), ch))
	env.ch = ch

	return env
}

func (env *handlerEnv) request(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, "expected success envelope, body: %s", w.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

// newCommittedBatch persists a batch in commit state with processing ledger
// rows for the given products
func (env *handlerEnv) newCommittedBatch(t *testing.T, products ...*catalog.Product) *batch.BatchRequest {
	t.Helper()
	ctx := context.Background()

	b, err := batch.NewBatchRequest(env.ch.ID, channel.ContentTypeProduct)
	require.NoError(t, err)
	require.NoError(t, env.batches.Create(ctx, b))

	var objects []batch.Object
	var actions []*ledger.IntegrationAction
	for _, p := range products {
		a, err := ledger.NewIntegrationAction(env.ch.ID, channel.ContentTypeProduct, p.ID, p.UpdatedAt, b.LocalBatchID)
		require.NoError(t, err)
		actions = append(actions, a)
		objects = append(objects, batch.Object{
			ObjectID:    p.ID,
			VersionDate: p.UpdatedAt,
			ContentType: channel.ContentTypeProduct,
		})
	}
	if len(actions) > 0 {
		require.NoError(t, env.ledger.CreateBatch(ctx, actions))
	}
	require.NoError(t, b.MarkCommit(objects))
	require.NoError(t, env.batches.Update(ctx, b))
	return b
}

// seedProduct persists one product row
func (env *handlerEnv) seedProduct(t *testing.T, sku string) *catalog.Product {
	t.Helper()
	p := &catalog.Product{SKU: sku, Name: "Product " + sku}
	p.ID = uuid.New()
	now := time.Now().UTC().Truncate(time.Second)
	p.CreatedAt = now
	p.UpdatedAt = now
	model := &models.ProductModel{}
	model.FromDomain(p)
	require.NoError(t, env.db.Create(model).Error)
	return p
}

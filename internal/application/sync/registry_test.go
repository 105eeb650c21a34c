package sync

import (
	"context"
	"testing"
	"time"

	"github.com/chansync/backend/internal/domain/catalog"
	"github.com/chansync/backend/internal/domain/channel"
	"github.com/chansync/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryHandlerLookup(t *testing.T) {
	registry := NewDefaultRegistry(
		newFakeProductStore(),
		&fakePriceStore{},
		&fakeStockStore{},
		&fakeImageStore{},
		&fakeOrderStore{},
		&fakeConfProvider{},
	)

	for _, ct := range []channel.ContentType{
		channel.ContentTypeProduct,
		channel.ContentTypeProductPrice,
		channel.ContentTypeProductStock,
		channel.ContentTypeProductImage,
		channel.ContentTypeOrder,
	} {
		h, err := registry.Handler(ct)
		require.NoError(t, err, ct)
		assert.NotNil(t, h, ct)
	}

	_, err := registry.Handler(channel.ContentTypeBatchRequest)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownContentType)
}

func TestProductHandlerLoadSkipsMissingRecords(t *testing.T) {
	store := newFakeProductStore()
	p := &catalog.Product{SKU: "SKU-1"}
	p.ID = uuid.New()
	store.products[p.ID] = p

	h := NewProductHandler(store, &fakeConfProvider{})
	records, err := h.Load(context.Background(), []uuid.UUID{p.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, p, records[p.ID])
}

func TestProductHandlerCorrelationKeyDefaultsToSKU(t *testing.T) {
	h := NewProductHandler(newFakeProductStore(), &fakeConfProvider{})
	p := &catalog.Product{SKU: "SKU-1"}

	key, err := h.CorrelationKey(context.Background(), uuid.New(), p, nil)
	require.NoError(t, err)
	assert.Equal(t, "SKU-1", key)
}

func TestProductHandlerCorrelationKeyConfOverride(t *testing.T) {
	channelID := uuid.New()
	conf := &fakeConfProvider{conf: map[uuid.UUID]map[string]string{
		channelID: {channel.ConfKeyRemoteIDAttribute: "attributes__barcode"},
	}}
	h := NewProductHandler(newFakeProductStore(), conf)

	p := &catalog.Product{
		SKU:        "SKU-1",
		Attributes: map[string]interface{}{"barcode": "8690000000001"},
	}

	key, err := h.CorrelationKey(context.Background(), channelID, p, nil)
	require.NoError(t, err)
	assert.Equal(t, "8690000000001", key)
}

func TestProductHandlerCorrelationKeyBrokenPath(t *testing.T) {
	channelID := uuid.New()
	conf := &fakeConfProvider{conf: map[uuid.UUID]map[string]string{
		channelID: {channel.ConfKeyRemoteIDAttribute: "attributes__barcode__inner"},
	}}
	h := NewProductHandler(newFakeProductStore(), conf)

	p := &catalog.Product{
		SKU:        "SKU-1",
		Attributes: map[string]interface{}{"barcode": "8690000000001"},
	}

	key, err := h.CorrelationKey(context.Background(), channelID, p, nil)
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestResolveAttributePath(t *testing.T) {
	p := &catalog.Product{
		SKU: "SKU-1",
		Attributes: map[string]interface{}{
			"barcode": "123",
			"nested":  map[string]interface{}{"code": "456"},
			"number":  42,
		},
	}

	tests := []struct {
		path string
		want string
	}{
		{"sku", "SKU-1"},
		{"attributes__barcode", "123"},
		{"attributes__nested__code", "456"},
		{"attributes__missing", ""},
		{"attributes__number", ""},
		{"unknown__root", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resolveAttributePath(p, tt.path), tt.path)
	}
}

func TestProductHandlerRejectsWrongRecordType(t *testing.T) {
	h := NewProductHandler(newFakeProductStore(), &fakeConfProvider{})
	_, err := h.CorrelationKey(context.Background(), uuid.New(), &catalog.Order{}, nil)
	require.Error(t, err)
}

func TestStockHandlerCorrelationKey(t *testing.T) {
	h := &StockHandler{store: &fakeStockStore{}}
	key, err := h.CorrelationKey(context.Background(), uuid.New(), &catalog.ProductStock{SKU: "SKU-9"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "SKU-9", key)
}

func TestOrderHandlerCorrelationKey(t *testing.T) {
	h := &OrderHandler{store: &fakeOrderStore{}}
	o := &catalog.Order{Number: "LOCAL-1"}

	action, err := ledger.NewIntegrationAction(
		uuid.New(), channel.ContentTypeOrder, uuid.New(), time.Now(), uuid.New())
	require.NoError(t, err)

	// Without a remote number the order cannot be correlated.
	key, err := h.CorrelationKey(context.Background(), uuid.New(), o, action)
	require.NoError(t, err)
	assert.Empty(t, key)

	remote := "CH-ORDER-5"
	action.RemoteID = &remote
	key, err = h.CorrelationKey(context.Background(), uuid.New(), o, action)
	require.NoError(t, err)
	assert.Equal(t, "CH-ORDER-5", key)
}

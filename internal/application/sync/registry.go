package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/chansync/backend/internal/domain/catalog"
	"github.com/chansync/backend/internal/domain/channel"
	"github.com/chansync/backend/internal/domain/ledger"
	"github.com/chansync/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ErrUnknownContentType marks a content type without a registered handler. It
// is a configuration error: the engine fails fast instead of skipping rows.
var ErrUnknownContentType = shared.NewDomainError("UNKNOWN_CONTENT_TYPE", "No handler registered for content type")

// Handler is one content type's entry in the registry: a bulk loader for its
// records plus the extractor for the business correlation key shared with
// remote channels.
type Handler interface {
	// Load bulk-resolves records by local id, chunked at catalog.ChunkSize.
	// Ids whose record no longer exists are absent from the result.
	Load(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.Record, error)
	// CorrelationKey computes the business key used to match the record
	// against remote response items. An empty key means the record cannot be
	// correlated at all.
	CorrelationKey(ctx context.Context, channelID uuid.UUID, rec catalog.Record, action *ledger.IntegrationAction) (string, error)
}

// Registry dispatches content types to their handlers. The map is injected at
// construction time, keeping the set of supported types closed and explicit.
type Registry map[channel.ContentType]Handler

// Handler returns the handler for a content type, ErrUnknownContentType when
// none is registered
func (r Registry) Handler(ct channel.ContentType) (Handler, error) {
	h, ok := r[ct]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContentType, ct)
	}
	return h, nil
}

// NewDefaultRegistry wires the standard content types against their stores
func NewDefaultRegistry(
	products catalog.ProductStore,
	prices catalog.PriceStore,
	stocks catalog.StockStore,
	images catalog.ImageStore,
	orders catalog.OrderStore,
	conf channel.ConfProvider,
) Registry {
	return Registry{
		channel.ContentTypeProduct:      &ProductHandler{store: products, conf: conf},
		channel.ContentTypeProductPrice: &PriceHandler{store: prices},
		channel.ContentTypeProductStock: &StockHandler{store: stocks},
		channel.ContentTypeProductImage: &ImageHandler{store: images},
		channel.ContentTypeOrder:        &OrderHandler{store: orders},
	}
}

// ProductHandler loads products and correlates them by SKU, or by a
// channel-configured attribute path when the channel declares one.
type ProductHandler struct {
	store catalog.ProductStore
	conf  channel.ConfProvider
}

// NewProductHandler creates a product handler
func NewProductHandler(store catalog.ProductStore, conf channel.ConfProvider) *ProductHandler {
	return &ProductHandler{store: store, conf: conf}
}

// Load implements Handler
func (h *ProductHandler) Load(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.Record, error) {
	products, err := h.store.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]catalog.Record, len(products))
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

// CorrelationKey implements Handler. A channel may declare, via its
// remote_id_attribute configuration, a "__"-separated attribute path
// ("attributes__barcode") to use instead of the SKU.
func (h *ProductHandler) CorrelationKey(ctx context.Context, channelID uuid.UUID, rec catalog.Record, _ *ledger.IntegrationAction) (string, error) {
	product, ok := rec.(*catalog.Product)
	if !ok {
		return "", shared.NewDomainError("INVALID_RECORD", "Product handler received a non-product record")
	}
	if h.conf != nil {
		conf, err := h.conf.Conf(ctx, channelID)
		if err != nil {
			return "", err
		}
		if path := conf[channel.ConfKeyRemoteIDAttribute]; path != "" {
			return resolveAttributePath(product, path), nil
		}
	}
	return product.SKU, nil
}

// resolveAttributePath walks a "__"-separated path into the product's
// attribute map. A broken path resolves to the empty key.
func resolveAttributePath(product *catalog.Product, path string) string {
	segments := strings.Split(path, "__")
	var current interface{}
	switch segments[0] {
	case "sku":
		current = product.SKU
	case "attributes":
		current = product.Attributes
	default:
		return ""
	}
	for _, segment := range segments[1:] {
		m, ok := current.(map[string]interface{})
		if !ok {
			return ""
		}
		current = m[segment]
	}
	s, ok := current.(string)
	if !ok {
		return ""
	}
	return s
}

// PriceHandler loads product prices; the key is the denormalized SKU.
type PriceHandler struct {
	store catalog.PriceStore
}

// Load implements Handler
func (h *PriceHandler) Load(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.Record, error) {
	prices, err := h.store.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]catalog.Record, len(prices))
	for _, p := range prices {
		out[p.ID] = p
	}
	return out, nil
}

// CorrelationKey implements Handler
func (h *PriceHandler) CorrelationKey(_ context.Context, _ uuid.UUID, rec catalog.Record, _ *ledger.IntegrationAction) (string, error) {
	price, ok := rec.(*catalog.ProductPrice)
	if !ok {
		return "", shared.NewDomainError("INVALID_RECORD", "Price handler received a non-price record")
	}
	return price.SKU, nil
}

// StockHandler loads product stocks; the key is the denormalized SKU.
type StockHandler struct {
	store catalog.StockStore
}

// Load implements Handler
func (h *StockHandler) Load(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.Record, error) {
	stocks, err := h.store.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]catalog.Record, len(stocks))
	for _, s := range stocks {
		out[s.ID] = s
	}
	return out, nil
}

// CorrelationKey implements Handler
func (h *StockHandler) CorrelationKey(_ context.Context, _ uuid.UUID, rec catalog.Record, _ *ledger.IntegrationAction) (string, error) {
	stock, ok := rec.(*catalog.ProductStock)
	if !ok {
		return "", shared.NewDomainError("INVALID_RECORD", "Stock handler received a non-stock record")
	}
	return stock.SKU, nil
}

// ImageHandler loads product images; the key is the denormalized SKU.
type ImageHandler struct {
	store catalog.ImageStore
}

// Load implements Handler
func (h *ImageHandler) Load(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.Record, error) {
	images, err := h.store.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]catalog.Record, len(images))
	for _, img := range images {
		out[img.ID] = img
	}
	return out, nil
}

// CorrelationKey implements Handler
func (h *ImageHandler) CorrelationKey(_ context.Context, _ uuid.UUID, rec catalog.Record, _ *ledger.IntegrationAction) (string, error) {
	img, ok := rec.(*catalog.ProductImage)
	if !ok {
		return "", shared.NewDomainError("INVALID_RECORD", "Image handler received a non-image record")
	}
	return img.SKU, nil
}

// OrderHandler loads orders. Orders correlate on the remote order number the
// channel assigned at creation, which the ledger already carries as the
// row's remote id.
type OrderHandler struct {
	store catalog.OrderStore
}

// Load implements Handler
func (h *OrderHandler) Load(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.Record, error) {
	orders, err := h.store.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]catalog.Record, len(orders))
	for _, o := range orders {
		out[o.ID] = o
	}
	return out, nil
}

// CorrelationKey implements Handler
func (h *OrderHandler) CorrelationKey(_ context.Context, _ uuid.UUID, rec catalog.Record, action *ledger.IntegrationAction) (string, error) {
	if _, ok := rec.(*catalog.Order); !ok {
		return "", shared.NewDomainError("INVALID_RECORD", "Order handler received a non-order record")
	}
	if action == nil || action.RemoteID == nil {
		return "", nil
	}
	return *action.RemoteID, nil
}

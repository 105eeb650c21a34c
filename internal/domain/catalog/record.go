package catalog

import (
	"time"

	"github.com/chansync/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Record is the generic view of any content type's local record as seen by
// the reconciliation engine: an identity plus a modification timestamp used
// for staleness checks.
type Record interface {
	RecordID() uuid.UUID
	RecordModifiedDate() time.Time
}

// Product is a local catalog product. Attributes holds the raw attribute map
// so channels that correlate on something other than SKU (a barcode, a nested
// attribute) can resolve their key from it.
type Product struct {
	shared.BaseEntity
	SKU        string                 `json:"sku"`
	Name       string                 `json:"name"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// RecordID implements Record
func (p *Product) RecordID() uuid.UUID { return p.ID }

// RecordModifiedDate implements Record
func (p *Product) RecordModifiedDate() time.Time { return p.UpdatedAt }

// ProductPrice is a product's price entry. SKU is denormalized from the
// owning product so price batches can be correlated without a second lookup.
type ProductPrice struct {
	shared.BaseEntity
	ProductID uuid.UUID       `json:"product_id"`
	SKU       string          `json:"sku"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
}

// RecordID implements Record
func (p *ProductPrice) RecordID() uuid.UUID { return p.ID }

// RecordModifiedDate implements Record
func (p *ProductPrice) RecordModifiedDate() time.Time { return p.UpdatedAt }

// ProductStock is a product's stock entry, SKU denormalized as for prices.
type ProductStock struct {
	shared.BaseEntity
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
	Quantity  int       `json:"quantity"`
}

// RecordID implements Record
func (s *ProductStock) RecordID() uuid.UUID { return s.ID }

// RecordModifiedDate implements Record
func (s *ProductStock) RecordModifiedDate() time.Time { return s.UpdatedAt }

// ProductImage is one image of a product.
type ProductImage struct {
	shared.BaseEntity
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
	URL       string    `json:"url"`
	Order     int       `json:"order"`
}

// RecordID implements Record
func (i *ProductImage) RecordID() uuid.UUID { return i.ID }

// RecordModifiedDate implements Record
func (i *ProductImage) RecordModifiedDate() time.Time { return i.UpdatedAt }

// Order is a local sales order. Number is the business correlation key shared
// with the channel.
type Order struct {
	shared.BaseEntity
	Number     string          `json:"number"`
	CustomerID uuid.UUID       `json:"customer_id"`
	Total      decimal.Decimal `json:"total"`
	Currency   string          `json:"currency"`
}

// RecordID implements Record
func (o *Order) RecordID() uuid.UUID { return o.ID }

// RecordModifiedDate implements Record
func (o *Order) RecordModifiedDate() time.Time { return o.UpdatedAt }

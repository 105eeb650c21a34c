package models

import (
	"encoding/json"

	"github.com/chansync/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	BaseModel
	SKU            string `gorm:"type:varchar(100);not null;uniqueIndex:idx_products_sku"`
	Name           string `gorm:"type:varchar(255);not null"`
	AttributesJSON string `gorm:"type:jsonb;column:attributes"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product.
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		BaseEntity: m.BaseModel.ToDomain(),
		SKU:        m.SKU,
		Name:       m.Name,
	}
	if m.AttributesJSON != "" {
		var attrs map[string]interface{}
		if err := json.Unmarshal([]byte(m.AttributesJSON), &attrs); err == nil {
			p.Attributes = attrs
		}
	}
	return p
}

// FromDomain populates the persistence model from a domain Product.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.SKU = p.SKU
	m.Name = p.Name
	if len(p.Attributes) > 0 {
		if b, err := json.Marshal(p.Attributes); err == nil {
			m.AttributesJSON = string(b)
		}
	} else {
		m.AttributesJSON = "{}"
	}
}

// ProductPriceModel is the persistence model for ProductPrice.
type ProductPriceModel struct {
	BaseModel
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index:idx_product_prices_product"`
	SKU       string          `gorm:"type:varchar(100);not null;index:idx_product_prices_sku"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency  string          `gorm:"type:varchar(3);not null"`
}

// TableName returns the table name for GORM
func (ProductPriceModel) TableName() string {
	return "product_prices"
}

// ToDomain converts the persistence model to a domain ProductPrice.
func (m *ProductPriceModel) ToDomain() *catalog.ProductPrice {
	return &catalog.ProductPrice{
		BaseEntity: m.BaseModel.ToDomain(),
		ProductID:  m.ProductID,
		SKU:        m.SKU,
		Amount:     m.Amount,
		Currency:   m.Currency,
	}
}

// FromDomain populates the persistence model from a domain ProductPrice.
func (m *ProductPriceModel) FromDomain(p *catalog.ProductPrice) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.ProductID = p.ProductID
	m.SKU = p.SKU
	m.Amount = p.Amount
	m.Currency = p.Currency
}

// ProductStockModel is the persistence model for ProductStock.
type ProductStockModel struct {
	BaseModel
	ProductID uuid.UUID `gorm:"type:uuid;not null;index:idx_product_stocks_product"`
	SKU       string    `gorm:"type:varchar(100);not null;index:idx_product_stocks_sku"`
	Quantity  int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductStockModel) TableName() string {
	return "product_stocks"
}

// ToDomain converts the persistence model to a domain ProductStock.
func (m *ProductStockModel) ToDomain() *catalog.ProductStock {
	return &catalog.ProductStock{
		BaseEntity: m.BaseModel.ToDomain(),
		ProductID:  m.ProductID,
		SKU:        m.SKU,
		Quantity:   m.Quantity,
	}
}

// FromDomain populates the persistence model from a domain ProductStock.
func (m *ProductStockModel) FromDomain(s *catalog.ProductStock) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.ProductID = s.ProductID
	m.SKU = s.SKU
	m.Quantity = s.Quantity
}

// ProductImageModel is the persistence model for ProductImage.
type ProductImageModel struct {
	BaseModel
	ProductID uuid.UUID `gorm:"type:uuid;not null;index:idx_product_images_product"`
	SKU       string    `gorm:"type:varchar(100);not null"`
	URL       string    `gorm:"type:text;not null"`
	SortOrder int       `gorm:"not null;default:0;column:sort_order"`
}

// TableName returns the table name for GORM
func (ProductImageModel) TableName() string {
	return "product_images"
}

// ToDomain converts the persistence model to a domain ProductImage.
func (m *ProductImageModel) ToDomain() *catalog.ProductImage {
	return &catalog.ProductImage{
		BaseEntity: m.BaseModel.ToDomain(),
		ProductID:  m.ProductID,
		SKU:        m.SKU,
		URL:        m.URL,
		Order:      m.SortOrder,
	}
}

// FromDomain populates the persistence model from a domain ProductImage.
func (m *ProductImageModel) FromDomain(i *catalog.ProductImage) {
	m.FromDomainBaseEntity(i.BaseEntity)
	m.ProductID = i.ProductID
	m.SKU = i.SKU
	m.URL = i.URL
	m.SortOrder = i.Order
}

// OrderModel is the persistence model for the Order domain entity.
type OrderModel struct {
	BaseModel
	Number     string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_orders_number"`
	CustomerID uuid.UUID       `gorm:"type:uuid;not null;index:idx_orders_customer"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency   string          `gorm:"type:varchar(3);not null"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order.
func (m *OrderModel) ToDomain() *catalog.Order {
	return &catalog.Order{
		BaseEntity: m.BaseModel.ToDomain(),
		Number:     m.Number,
		CustomerID: m.CustomerID,
		Total:      m.Total,
		Currency:   m.Currency,
	}
}

// FromDomain populates the persistence model from a domain Order.
func (m *OrderModel) FromDomain(o *catalog.Order) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.Number = o.Number
	m.CustomerID = o.CustomerID
	m.Total = o.Total
	m.Currency = o.Currency
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product rows carry a unique index on lower(sku); gorm cannot express an
// expression index in tags, so integration tests and deploy DDL create it:
//
//	CREATE UNIQUE INDEX products_sku_lower_key ON products (lower(sku));
type Product struct {
	ID          int64            `gorm:"primaryKey"`
	SKU         string           `gorm:"column:sku;size:255;not null"`
	Name        string           `gorm:"size:255;not null"`
	Description *string          `gorm:"type:text"`
	Price       *decimal.Decimal `gorm:"type:numeric(10,2)"`
	Active      bool             `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Product) TableName() string {
	return "products"
}

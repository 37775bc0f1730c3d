package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// MergeResult reports what one merged chunk did to the catalog.
type MergeResult struct {
	Inserted int64
	Updated  int64
}

// Product is one catalog item. SKU uniqueness is case-insensitive and
// enforced at the storage layer, not checked-then-written.
type Product struct {
	ID          int64
	SKU         string
	Name        string
	Description *string
	Price       *decimal.Decimal
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

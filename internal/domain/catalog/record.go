package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Column names recognized in upload files. Header matching is
// case-insensitive; the source lower-cases headers before handing rows over.
const (
	ColumnSKU         = "sku"
	ColumnName        = "name"
	ColumnDescription = "description"
	ColumnPrice       = "price"
)

// Record is a validated, normalized row ready for the merge engine.
// Nil optional fields mean "not provided": they keep existing values on
// update and take defaults on insert.
type Record struct {
	SKU         string
	Name        *string
	Description *string
	Price       *decimal.Decimal
}

// ParseRow validates and normalizes one raw row in a single step.
// It returns (nil, nil) when the row is rejected: entirely blank, or the sku
// cell blank/missing after trimming. Rejected rows are excluded from totals.
// A coercion failure (e.g. an unparseable price) returns an error.
//
// The pre-pass row count and the main pass share this exact predicate so
// that progress can reach 100%.
func ParseRow(row map[string]string) (*Record, error) {
	blank := true
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			blank = false
			break
		}
	}
	if blank {
		return nil, nil
	}

	sku := strings.TrimSpace(row[ColumnSKU])
	if sku == "" {
		return nil, nil
	}

	rec := &Record{
		SKU:         sku,
		Name:        optionalText(row, ColumnName),
		Description: optionalText(row, ColumnDescription),
	}

	if raw := strings.TrimSpace(row[ColumnPrice]); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q for sku %s", raw, sku)
		}
		rec.Price = &price
	}

	return rec, nil
}

func optionalText(row map[string]string, column string) *string {
	value, ok := row[column]
	if !ok {
		return nil
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

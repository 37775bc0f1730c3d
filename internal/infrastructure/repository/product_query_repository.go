package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cataloghq/catalog-ingest/internal/domain/catalog"
	"github.com/cataloghq/catalog-ingest/internal/infrastructure/db/models"
)

// ProductQueryRepository serves the CRUD surface. Bulk ingestion goes
// through ProductMergeRepository instead; the single-item create here still
// relies on the same storage-level unique index on lower(sku).
type ProductQueryRepository struct {
	db *gorm.DB
}

func NewProductQueryRepository(db *gorm.DB) *ProductQueryRepository {
	return &ProductQueryRepository{db: db}
}

type ProductFilter struct {
	Page       int
	PerPage    int
	Search     string
	ActiveOnly bool
}

type ProductPage struct {
	Products []catalog.Product
	Total    int64
	Page     int
	PerPage  int
	Pages    int
}

func (r *ProductQueryRepository) List(ctx context.Context, filter ProductFilter) (ProductPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}

	query := r.db.WithContext(ctx).Model(&models.Product{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + search + "%"
		query = query.Where(
			"sku ILIKE ? OR name ILIKE ? OR description ILIKE ?",
			pattern, pattern, pattern,
		)
	}
	if filter.ActiveOnly {
		query = query.Where("active")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return ProductPage{}, fmt.Errorf("count products: %w", err)
	}

	var rows []models.Product
	err := query.
		Order("created_at DESC").
		Limit(filter.PerPage).
		Offset((filter.Page - 1) * filter.PerPage).
		Find(&rows).Error
	if err != nil {
		return ProductPage{}, fmt.Errorf("list products: %w", err)
	}

	page := ProductPage{
		Total:   total,
		Page:    filter.Page,
		PerPage: filter.PerPage,
		Pages:   int((total + int64(filter.PerPage) - 1) / int64(filter.PerPage)),
	}
	page.Products = make([]catalog.Product, 0, len(rows))
	for _, row := range rows {
		page.Products = append(page.Products, toDomainProduct(row))
	}
	return page, nil
}

func (r *ProductQueryRepository) GetByID(ctx context.Context, id int64) (*catalog.Product, error) {
	var row models.Product
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalog.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	product := toDomainProduct(row)
	return &product, nil
}

func (r *ProductQueryRepository) Create(ctx context.Context, p catalog.Product) (*catalog.Product, error) {
	exists, err := r.skuTaken(ctx, p.SKU, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, catalog.ErrDuplicateSKU
	}

	row := models.Product{
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Active:      p.Active,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	product := toDomainProduct(row)
	return &product, nil
}

type ProductUpdate struct {
	SKU         *string
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Active      *bool
}

func (r *ProductQueryRepository) Update(ctx context.Context, id int64, upd ProductUpdate) (*catalog.Product, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if upd.SKU != nil && !strings.EqualFold(*upd.SKU, current.SKU) {
		taken, err := r.skuTaken(ctx, *upd.SKU, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, catalog.ErrDuplicateSKU
		}
		fields["sku"] = strings.TrimSpace(*upd.SKU)
	}
	if upd.Name != nil {
		fields["name"] = strings.TrimSpace(*upd.Name)
	}
	if upd.Description != nil {
		fields["description"] = strings.TrimSpace(*upd.Description)
	}
	if upd.Price != nil {
		fields["price"] = *upd.Price
	}
	if upd.Active != nil {
		fields["active"] = *upd.Active
	}

	if len(fields) > 0 {
		err = r.db.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ?", id).
			Updates(fields).Error
		if err != nil {
			return nil, fmt.Errorf("update product %d: %w", id, err)
		}
	}

	return r.GetByID(ctx, id)
}

func (r *ProductQueryRepository) Delete(ctx context.Context, id int64) error {
	tx := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if tx.Error != nil {
		return fmt.Errorf("delete product %d: %w", id, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

func (r *ProductQueryRepository) DeleteAll(ctx context.Context) (int64, error) {
	tx := r.db.WithContext(ctx).Where("1 = 1").Delete(&models.Product{})
	if tx.Error != nil {
		return 0, fmt.Errorf("bulk delete products: %w", tx.Error)
	}
	return tx.RowsAffected, nil
}

func (r *ProductQueryRepository) skuTaken(ctx context.Context, sku string, excludeID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("lower(sku) = lower(?) AND id <> ?", strings.TrimSpace(sku), excludeID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check sku uniqueness: %w", err)
	}
	return count > 0, nil
}

func toDomainProduct(m models.Product) catalog.Product {
	return catalog.Product{
		ID:          m.ID,
		SKU:         m.SKU,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		Active:      m.Active,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

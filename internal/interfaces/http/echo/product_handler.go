package echo

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/cataloghq/catalog-ingest/internal/domain/catalog"
	"github.com/cataloghq/catalog-ingest/internal/infrastructure/repository"
)

type ProductStore interface {
	List(ctx context.Context, filter repository.ProductFilter) (repository.ProductPage, error)
	GetByID(ctx context.Context, id int64) (*catalog.Product, error)
	Create(ctx context.Context, p catalog.Product) (*catalog.Product, error)
	Update(ctx context.Context, id int64, upd repository.ProductUpdate) (*catalog.Product, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
}

type ProductHandler struct {
	store ProductStore
}

func NewProductHandler(store ProductStore) *ProductHandler {
	return &ProductHandler{store: store}
}

type productResponse struct {
	ID          int64            `json:"id"`
	SKU         string           `json:"sku"`
	Name        string           `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Active      bool             `json:"active"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type productPageResponse struct {
	Products []productResponse `json:"products"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PerPage  int               `json:"per_page"`
	Pages    int               `json:"pages"`
}

func (h *ProductHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))

	result, err := h.store.List(c.Request().Context(), repository.ProductFilter{
		Page:       page,
		PerPage:    perPage,
		Search:     c.QueryParam("search"),
		ActiveOnly: strings.EqualFold(c.QueryParam("active_only"), "true"),
	})
	if err != nil {
		return internalError(c, "failed to list products")
	}

	resp := productPageResponse{
		Products: make([]productResponse, 0, len(result.Products)),
		Total:    result.Total,
		Page:     result.Page,
		PerPage:  result.PerPage,
		Pages:    result.Pages,
	}
	for _, p := range result.Products {
		resp.Products = append(resp.Products, toProductResponse(p))
	}
	return c.JSON(http.StatusOK, apiResponse{Data: resp})
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "id must be an integer")
	}

	product, err := h.store.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return notFound(c, "product not found")
		}
		return internalError(c, "failed to get product")
	}
	return c.JSON(http.StatusOK, apiResponse{Data: toProductResponse(*product)})
}

type createProductRequest struct {
	SKU         string           `json:"sku"`
	Name        string           `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Active      *bool            `json:"active"`
}

func (h *ProductHandler) Create(c echo.Context) error {
	var req createProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	req.SKU = strings.TrimSpace(req.SKU)
	req.Name = strings.TrimSpace(req.Name)
	if req.SKU == "" || req.Name == "" {
		return badRequest(c, "sku and name are required")
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	product, err := h.store.Create(c.Request().Context(), catalog.Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Active:      active,
	})
	if err != nil {
		if errors.Is(err, catalog.ErrDuplicateSKU) {
			return conflict(c, "product with this sku already exists")
		}
		return internalError(c, "failed to create product")
	}
	return c.JSON(http.StatusCreated, apiResponse{Data: toProductResponse(*product)})
}

type updateProductRequest struct {
	SKU         *string          `json:"sku"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Active      *bool            `json:"active"`
}

func (h *ProductHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "id must be an integer")
	}

	var req updateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	product, err := h.store.Update(c.Request().Context(), id, repository.ProductUpdate{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Active:      req.Active,
	})
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return notFound(c, "product not found")
		}
		if errors.Is(err, catalog.ErrDuplicateSKU) {
			return conflict(c, "product with this sku already exists")
		}
		return internalError(c, "failed to update product")
	}
	return c.JSON(http.StatusOK, apiResponse{Data: toProductResponse(*product)})
}

func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "id must be an integer")
	}

	if err := h.store.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return notFound(c, "product not found")
		}
		return internalError(c, "failed to delete product")
	}
	return c.JSON(http.StatusOK, apiResponse{Data: map[string]string{"message": "product deleted"}})
}

func (h *ProductHandler) DeleteAll(c echo.Context) error {
	count, err := h.store.DeleteAll(c.Request().Context())
	if err != nil {
		return internalError(c, "failed to delete products")
	}
	return c.JSON(http.StatusOK, apiResponse{Data: map[string]int64{"count": count}})
}

func toProductResponse(p catalog.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func parseID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{Code: "bad_request", Message: msg}})
}

func notFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, apiResponse{Error: &errorBody{Code: "not_found", Message: msg}})
}

func conflict(c echo.Context, msg string) error {
	return c.JSON(http.StatusConflict, apiResponse{Error: &errorBody{Code: "conflict", Message: msg}})
}

func internalError(c echo.Context, msg string) error {
	return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{Code: "internal_error", Message: msg}})
}

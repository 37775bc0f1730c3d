package echo_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/cataloghq/catalog-ingest/internal/domain/catalog"
	"github.com/cataloghq/catalog-ingest/internal/infrastructure/repository"
	httpecho "github.com/cataloghq/catalog-ingest/internal/interfaces/http/echo"
)

type fakeProductStore struct {
	page       repository.ProductPage
	product    *catalog.Product
	created    *catalog.Product
	updated    *catalog.Product
	deleted    int64
	listFilter repository.ProductFilter
	err        error
}

func (f *fakeProductStore) List(ctx context.Context, filter repository.ProductFilter) (repository.ProductPage, error) {
	f.listFilter = filter
	return f.page, f.err
}

func (f *fakeProductStore) GetByID(ctx context.Context, id int64) (*catalog.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.product, nil
}

func (f *fakeProductStore) Create(ctx context.Context, p catalog.Product) (*catalog.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.created, nil
}

func (f *fakeProductStore) Update(ctx context.Context, id int64, upd repository.ProductUpdate) (*catalog.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.updated, nil
}

func (f *fakeProductStore) Delete(ctx context.Context, id int64) error {
	return f.err
}

func (f *fakeProductStore) DeleteAll(ctx context.Context) (int64, error) {
	return f.deleted, f.err
}

func newProductServer(t *testing.T, store *fakeProductStore) *echo.Echo {
	t.Helper()
	e := echo.New()
	uploads := httpecho.NewUploadHandler(&fakeStartUpload{}, &fakeStatus{}, &fakeCancel{}, t.TempDir())
	products := httpecho.NewProductHandler(store)
	webhooks := httpecho.NewWebhookHandler(&fakeSubscriptionStore{}, &fakePoster{})
	httpecho.RegisterRoutes(e, uploads, products, webhooks)
	return e
}

func TestListProducts(t *testing.T) {
	t.Parallel()

	price := decimal.RequireFromString("19.99")
	store := &fakeProductStore{page: repository.ProductPage{
		Products: []catalog.Product{{ID: 1, SKU: "K1", Name: "Widget", Price: &price, Active: true}},
		Total:    1,
		Page:     2,
		PerPage:  10,
		Pages:    1,
	}}
	e := newProductServer(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?page=2&per_page=10&search=wid&active_only=true", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.listFilter.Page != 2 || store.listFilter.PerPage != 10 {
		t.Fatalf("filter not passed through: %+v", store.listFilter)
	}
	if store.listFilter.Search != "wid" || !store.listFilter.ActiveOnly {
		t.Fatalf("filter not passed through: %+v", store.listFilter)
	}

	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unexpected json: %v", err)
	}
	data := got["data"].(map[string]any)
	items := data["products"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 product, got %d", len(items))
	}
}

func TestGetProductNotFound(t *testing.T) {
	t.Parallel()

	e := newProductServer(t, &fakeProductStore{err: catalog.ErrProductNotFound})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/7", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetProductBadID(t *testing.T) {
	t.Parallel()

	e := newProductServer(t, &fakeProductStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/abc", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateProduct(t *testing.T) {
	t.Parallel()

	price := decimal.RequireFromString("5.00")
	e := newProductServer(t, &fakeProductStore{created: &catalog.Product{
		ID: 3, SKU: "K9", Name: "Gadget", Price: &price, Active: true,
	}})

	body := bytes.NewBufferString(`{"sku":"K9","name":"Gadget","price":"5.00"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	t.Parallel()

	e := newProductServer(t, &fakeProductStore{err: catalog.ErrDuplicateSKU})

	body := bytes.NewBufferString(`{"sku":"K9","name":"Gadget"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestDeleteProduct(t *testing.T) {
	t.Parallel()

	e := newProductServer(t, &fakeProductStore{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/4", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestDeleteAllProducts(t *testing.T) {
	t.Parallel()

	e := newProductServer(t, &fakeProductStore{deleted: 12})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/products", nil)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unexpected json: %v", err)
	}
	data := got["data"].(map[string]any)
	if data["count"] != float64(12) {
		t.Fatalf("unexpected body: %#v", data)
	}
}

package echo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cataloghq/catalog-ingest/internal/domain/catalog"
	"github.com/cataloghq/catalog-ingest/internal/infrastructure/repository"
)

type SubscriptionStore interface {
	List(ctx context.Context) ([]catalog.Subscription, error)
	GetByID(ctx context.Context, id int64) (*catalog.Subscription, error)
	Create(ctx context.Context, url, eventType string, enabled bool) (*catalog.Subscription, error)
	Update(ctx context.Context, id int64, upd repository.SubscriptionUpdate) (*catalog.Subscription, error)
	Delete(ctx context.Context, id int64) error
}

type WebhookPoster interface {
	Post(ctx context.Context, url string, body []byte) (int, time.Duration, error)
}

type WebhookHandler struct {
	store  SubscriptionStore
	poster WebhookPoster
}

func NewWebhookHandler(store SubscriptionStore, poster WebhookPoster) *WebhookHandler {
	return &WebhookHandler{store: store, poster: poster}
}

type subscriptionResponse struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	EventType string    `json:"event_type"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (h *WebhookHandler) List(c echo.Context) error {
	subs, err := h.store.List(c.Request().Context())
	if err != nil {
		return internalError(c, "failed to list webhooks")
	}
	resp := make([]subscriptionResponse, 0, len(subs))
	for _, s := range subs {
		resp = append(resp, toSubscriptionResponse(s))
	}
	return c.JSON(http.StatusOK, apiResponse{Data: resp})
}

func (h *WebhookHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "id must be an integer")
	}
	sub, err := h.store.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrSubscriptionNotFound) {
			return notFound(c, "webhook not found")
		}
		return internalError(c, "failed to get webhook")
	}
	return c.JSON(http.StatusOK, apiResponse{Data: toSubscriptionResponse(*sub)})
}

type createSubscriptionRequest struct {
	URL       string `json:"url"`
	EventType string `json:"event_type"`
	Enabled   *bool  `json:"enabled"`
}

func (h *WebhookHandler) Create(c echo.Context) error {
	var req createSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(req.URL) == "" || strings.TrimSpace(req.EventType) == "" {
		return badRequest(c, "url and event_type are required")
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	sub, err := h.store.Create(c.Request().Context(), req.URL, req.EventType, enabled)
	if err != nil {
		return internalError(c, "failed to create webhook")
	}
	return c.JSON(http.StatusCreated, apiResponse{Data: toSubscriptionResponse(*sub)})
}

type updateSubscriptionRequest struct {
	URL       *string `json:"url"`
	EventType *string `json:"event_type"`
	Enabled   *bool   `json:"enabled"`
}

func (h *WebhookHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "id must be an integer")
	}
	var req updateSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	sub, err := h.store.Update(c.Request().Context(), id, repository.SubscriptionUpdate{
		URL:       req.URL,
		EventType: req.EventType,
		Enabled:   req.Enabled,
	})
	if err != nil {
		if errors.Is(err, catalog.ErrSubscriptionNotFound) {
			return notFound(c, "webhook not found")
		}
		return internalError(c, "failed to update webhook")
	}
	return c.JSON(http.StatusOK, apiResponse{Data: toSubscriptionResponse(*sub)})
}

func (h *WebhookHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "id must be an integer")
	}
	if err := h.store.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, catalog.ErrSubscriptionNotFound) {
			return notFound(c, "webhook not found")
		}
		return internalError(c, "failed to delete webhook")
	}
	return c.JSON(http.StatusOK, apiResponse{Data: map[string]string{"message": "webhook deleted"}})
}

type webhookTestResponse struct {
	Success      bool    `json:"success"`
	StatusCode   int     `json:"status_code,omitempty"`
	ResponseTime float64 `json:"response_time"`
	Message      string  `json:"message"`
}

// Test fires one synthetic payload at a single subscription endpoint and
// reports the outcome; it never touches real jobs.
func (h *WebhookHandler) Test(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "id must be an integer")
	}
	sub, err := h.store.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrSubscriptionNotFound) {
			return notFound(c, "webhook not found")
		}
		return internalError(c, "failed to get webhook")
	}

	body, _ := json.Marshal(map[string]any{
		"event":     sub.EventType,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"test":      true,
		"data":      map[string]string{"message": "this is a test webhook call"},
	})

	code, elapsed, err := h.poster.Post(c.Request().Context(), sub.URL, body)
	if err != nil {
		return c.JSON(http.StatusBadGateway, apiResponse{Data: webhookTestResponse{
			Success:      false,
			StatusCode:   code,
			ResponseTime: elapsed.Seconds(),
			Message:      "webhook test failed: " + err.Error(),
		}})
	}

	return c.JSON(http.StatusOK, apiResponse{Data: webhookTestResponse{
		Success:      true,
		StatusCode:   code,
		ResponseTime: elapsed.Seconds(),
		Message:      "webhook test successful",
	}})
}

func toSubscriptionResponse(s catalog.Subscription) subscriptionResponse {
	return subscriptionResponse{
		ID:        s.ID,
		URL:       s.URL,
		EventType: s.EventType,
		Enabled:   s.Enabled,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

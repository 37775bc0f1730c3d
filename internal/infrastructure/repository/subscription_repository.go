package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/cataloghq/catalog-ingest/internal/domain/catalog"
	"github.com/cataloghq/catalog-ingest/internal/infrastructure/db/models"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// ListEnabled returns the subscriptions the dispatcher fans out to: enabled
// and matching the event type.
func (r *SubscriptionRepository) ListEnabled(ctx context.Context, eventType string) ([]catalog.Subscription, error) {
	var rows []models.Subscription
	err := r.db.WithContext(ctx).
		Where("event_type = ? AND enabled", eventType).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list enabled subscriptions: %w", err)
	}
	return toDomainSubscriptions(rows), nil
}

func (r *SubscriptionRepository) List(ctx context.Context) ([]catalog.Subscription, error) {
	var rows []models.Subscription
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return toDomainSubscriptions(rows), nil
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, id int64) (*catalog.Subscription, error) {
	var row models.Subscription
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalog.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription %d: %w", id, err)
	}
	sub := toDomainSubscription(row)
	return &sub, nil
}

func (r *SubscriptionRepository) Create(ctx context.Context, url, eventType string, enabled bool) (*catalog.Subscription, error) {
	row := models.Subscription{
		URL:       strings.TrimSpace(url),
		EventType: strings.TrimSpace(eventType),
		Enabled:   enabled,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	sub := toDomainSubscription(row)
	return &sub, nil
}

type SubscriptionUpdate struct {
	URL       *string
	EventType *string
	Enabled   *bool
}

func (r *SubscriptionRepository) Update(ctx context.Context, id int64, upd SubscriptionUpdate) (*catalog.Subscription, error) {
	fields := map[string]any{}
	if upd.URL != nil {
		fields["url"] = strings.TrimSpace(*upd.URL)
	}
	if upd.EventType != nil {
		fields["event_type"] = strings.TrimSpace(*upd.EventType)
	}
	if upd.Enabled != nil {
		fields["enabled"] = *upd.Enabled
	}

	if len(fields) > 0 {
		tx := r.db.WithContext(ctx).
			Model(&models.Subscription{}).
			Where("id = ?", id).
			Updates(fields)
		if tx.Error != nil {
			return nil, fmt.Errorf("update subscription %d: %w", id, tx.Error)
		}
		if tx.RowsAffected == 0 {
			return nil, catalog.ErrSubscriptionNotFound
		}
	}

	return r.GetByID(ctx, id)
}

func (r *SubscriptionRepository) Delete(ctx context.Context, id int64) error {
	tx := r.db.WithContext(ctx).Delete(&models.Subscription{}, "id = ?", id)
	if tx.Error != nil {
		return fmt.Errorf("delete subscription %d: %w", id, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return catalog.ErrSubscriptionNotFound
	}
	return nil
}

func toDomainSubscriptions(rows []models.Subscription) []catalog.Subscription {
	subs := make([]catalog.Subscription, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, toDomainSubscription(row))
	}
	return subs
}

func toDomainSubscription(m models.Subscription) catalog.Subscription {
	return catalog.Subscription{
		ID:        m.ID,
		URL:       m.URL,
		EventType: m.EventType,
		Enabled:   m.Enabled,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

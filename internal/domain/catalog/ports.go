package catalog

import "context"

type SubscriptionSource interface {
	ListEnabled(ctx context.Context, eventType string) ([]Subscription, error)
}

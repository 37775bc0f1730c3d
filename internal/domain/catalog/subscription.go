package catalog

import "time"

// EventBulkUpload is fired once a bulk upload job completes.
const EventBulkUpload = "product.bulk_upload"

// Subscription is a registered webhook endpoint. The dispatcher only reads
// subscriptions; they are managed by the webhook CRUD surface.
type Subscription struct {
	ID        int64
	URL       string
	EventType string
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

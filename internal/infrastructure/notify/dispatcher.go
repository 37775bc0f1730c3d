package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cataloghq/catalog-ingest/internal/domain/catalog"
)

const defaultTimeout = 10 * time.Second

// Dispatcher fans one lifecycle event out to every enabled subscription
// matching the event type. Deliveries are best-effort and independent: each
// subscriber gets exactly one attempt, and a failed attempt is logged
// without touching other subscribers or the job that fired the event.
type Dispatcher struct {
	subs   catalog.SubscriptionSource
	client *http.Client
	log    *slog.Logger
}

func NewDispatcher(subs catalog.SubscriptionSource, timeout time.Duration, log *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		subs:   subs,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

type envelope struct {
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data"`
}

// Fire delivers the event to all matching subscribers concurrently and
// returns once every attempt has finished. No ordering is guaranteed among
// subscribers.
func (d *Dispatcher) Fire(ctx context.Context, event string, data any) {
	subs, err := d.subs.ListEnabled(ctx, event)
	if err != nil {
		d.log.Error("webhook: list subscriptions", "event", event, "error", err)
		return
	}
	if len(subs) == 0 {
		return
	}

	body, err := json.Marshal(envelope{
		Event:     event,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	})
	if err != nil {
		d.log.Error("webhook: marshal payload", "event", event, "error", err)
		return
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub catalog.Subscription) {
			defer wg.Done()
			if _, _, err := d.Post(ctx, sub.URL, body); err != nil {
				d.log.Warn("webhook delivery failed",
					"event", event, "url", sub.URL, "subscription_id", sub.ID, "error", err)
				return
			}
			d.log.Info("webhook delivered", "event", event, "url", sub.URL)
		}(sub)
	}
	wg.Wait()
}

// Post sends one JSON payload to a single endpoint and reports the status
// code plus elapsed time. Shared by Fire and the subscription test endpoint.
func (d *Dispatcher) Post(ctx context.Context, url string, body []byte) (int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := d.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return 0, elapsed, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, elapsed, fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}
	return resp.StatusCode, elapsed, nil
}

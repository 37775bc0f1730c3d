// hookcatcher is a local webhook sink for poking at deliveries during
// development: point a subscription at it and watch payloads arrive.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/cataloghq/catalog-ingest/internal/eventsink"
)

func main() {
	addr := os.Getenv("HOOKCATCHER_LISTEN_ADDR")
	if addr == "" {
		addr = ":9000"
	}

	ring := eventsink.NewRing(50)

	server := echo.New()
	server.HideBanner = true
	server.Use(middleware.Recover())

	server.POST("/webhook", func(c echo.Context) error {
		var body map[string]any
		if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "body must be json"})
		}

		headers := map[string]string{}
		for _, k := range []string{"Content-Type", "User-Agent", "X-Request-Id"} {
			if v := c.Request().Header.Get(k); v != "" {
				headers[k] = v
			}
		}

		ring.Add(eventsink.Event{
			ReceivedAt: time.Now().UTC(),
			Headers:    headers,
			Body:       body,
		})

		log.Printf("received event %v", body["event"])
		return c.JSON(http.StatusOK, map[string]string{"status": "received"})
	})

	server.GET("/events", func(c echo.Context) error {
		events := ring.List()
		return c.JSON(http.StatusOK, map[string]any{
			"count":  len(events),
			"events": events,
		})
	})

	server.POST("/clear", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]int{"cleared": ring.Clear()})
	})

	log.Printf("hookcatcher listening on %s", addr)
	if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
}

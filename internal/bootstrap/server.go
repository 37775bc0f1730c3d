package bootstrap

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	app "github.com/cataloghq/catalog-ingest/internal/application/catalog"
	"github.com/cataloghq/catalog-ingest/internal/infrastructure/repository"
	httpecho "github.com/cataloghq/catalog-ingest/internal/interfaces/http/echo"
)

func NewHTTPServer(db *gorm.DB, poster httpecho.WebhookPoster, uploadDir string) *echo.Echo {
	server := echo.New()
	server.HideBanner = true

	server.Use(middleware.Recover())
	server.Use(middleware.RequestID())
	server.Use(middleware.BodyLimit("50M"))

	jobRepo := repository.NewUploadJobRepository(db)
	uploads := httpecho.NewUploadHandler(
		app.NewStartCatalogUpload(jobRepo),
		app.NewGetUploadStatus(jobRepo),
		app.NewCancelUpload(jobRepo),
		uploadDir,
	)

	products := httpecho.NewProductHandler(repository.NewProductQueryRepository(db))
	webhooks := httpecho.NewWebhookHandler(repository.NewSubscriptionRepository(db), poster)

	httpecho.RegisterRoutes(server, uploads, products, webhooks)

	server.GET("/healthz", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	return server
}

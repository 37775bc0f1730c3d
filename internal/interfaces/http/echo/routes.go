package echo

import e "github.com/labstack/echo/v4"

func RegisterRoutes(server *e.Echo, uploads *UploadHandler, products *ProductHandler, webhooks *WebhookHandler) {
	api := server.Group("/api/v1")

	api.POST("/uploads", uploads.Upload)
	api.GET("/uploads/:taskRef", uploads.Status)
	api.POST("/uploads/:taskRef/cancel", uploads.Cancel)

	api.GET("/products", products.List)
	api.POST("/products", products.Create)
	api.DELETE("/products", products.DeleteAll)
	api.GET("/products/:id", products.Get)
	api.PUT("/products/:id", products.Update)
	api.DELETE("/products/:id", products.Delete)

	api.GET("/webhooks", webhooks.List)
	api.POST("/webhooks", webhooks.Create)
	api.GET("/webhooks/:id", webhooks.Get)
	api.PUT("/webhooks/:id", webhooks.Update)
	api.DELETE("/webhooks/:id", webhooks.Delete)
	api.POST("/webhooks/:id/test", webhooks.Test)
}

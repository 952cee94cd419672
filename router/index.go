package router

import (
	"shop_backend/handler"
	"shop_backend/middleware"
	"shop_backend/validate"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func SetupRoutes(app *fiber.App) {
	api := app.Group("/api", logger.New())

	api.Get("/health", handler.Health)

	auth := api.Group("/auth")
	auth.Post("/login", handler.Login)
	auth.Post("/refresh-token", handler.RefreshToken)

	// Checkout and order lifecycle. /process-payment is the legacy alias
	// for the same operation.
	api.Post("/orders", validate.Checkout(), handler.CreateOrder)
	api.Post("/process-payment", validate.Checkout(), handler.CreateOrder)
	api.Get("/orders", handler.ListOrders)
	api.Get("/orders/live", middleware.Protected(), websocket.New(handler.OrderFeedSocket))
	api.Get("/orders/:orderNumber", handler.GetOrderDetail)
	api.Patch("/orders/:orderNumber/status", validate.UpdateOrderStatus(), handler.UpdateOrderStatus)

	// Catalog
	api.Get("/products", handler.GetProducts)
	api.Get("/products/:slug", handler.GetProductBySlug)
	api.Post("/products", middleware.Protected(), validate.CreateProduct(), handler.CreateProduct)
	api.Post("/products/:slug/image", middleware.Protected(), handler.UploadProductImage)

	api.Post("/cloudinary-signature", middleware.Protected(), handler.GenerateSignature)
}

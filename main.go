package main

import (
	"log"

	"shop_backend/config"
	"shop_backend/database"
	"shop_backend/handler"
	"shop_backend/helper"
	"shop_backend/notify"
	"shop_backend/payment"
	"shop_backend/router"
	"shop_backend/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     config.ConfigDefault("CORS_ORIGIN", "http://localhost:5173"),
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept",
		AllowCredentials: true,
		ExposeHeaders:    "Set-Cookie",
		MaxAge:           600,
	}))

	database.ConnectDB()

	orders := store.NewGormOrderStore(database.DB)
	charges := store.NewGormChargeLog(database.DB)

	dispatcher := notify.NewDispatcher(notify.SMTPSender{}, orders)
	dispatcher.Start()
	defer dispatcher.Stop()

	handler.Orders = orders
	handler.Charges = charges
	handler.Gateway = payment.NewClient()
	handler.Dispatcher = dispatcher

	helper.StartReconcileScheduler(charges, orders, dispatcher)
	defer helper.StopReconcileScheduler()
	helper.StartReportScheduler(dispatcher)
	defer helper.StopReportScheduler()

	router.SetupRoutes(app)
	log.Fatal(app.Listen(":" + config.ConfigDefault("PORT", "8080")))
}

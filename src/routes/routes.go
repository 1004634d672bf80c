package routes

import (
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"sim-exchange/src/handlers"
	"sim-exchange/src/middleware"
)

func SetupRoutes(app *fiber.App, exchangeHandler *handlers.ExchangeHandler) {
	rateLimitDisabled := os.Getenv("RATE_LIMIT_DISABLED") == "1"

	maxRequests := 100
	if envMax := os.Getenv("RATE_LIMIT_MAX"); envMax != "" {
		if parsed, err := strconv.Atoi(envMax); err == nil && parsed > 0 {
			maxRequests = parsed
		}
	}

	windowDuration := time.Second
	if envWindow := os.Getenv("RATE_LIMIT_WINDOW"); envWindow != "" {
		if parsed, err := time.ParseDuration(envWindow); err == nil && parsed > 0 {
			windowDuration = parsed
		}
	}

	app.Use(middleware.RequestLogger())

	api := app.Group("/api/v1")

	if !rateLimitDisabled {
		rateLimiter := middleware.NewRateLimiter(maxRequests, windowDuration)
		api.Use(rateLimiter.Middleware())
	}

	api.Post("/orders", exchangeHandler.SubmitOrder)
	api.Post("/orders/list", exchangeHandler.SubmitOrderList)
	api.Patch("/orders/:id", exchangeHandler.ModifyOrder)
	api.Delete("/orders/:id", exchangeHandler.CancelOrder)
	api.Get("/orders", exchangeHandler.GetWorkingOrders)
	api.Post("/market/tick", exchangeHandler.PostTick)
	api.Post("/market/depth", exchangeHandler.PostDepth)
	api.Get("/orderbook/:instrument", exchangeHandler.GetOrderBook)
	api.Get("/account", exchangeHandler.GetAccount)
	api.Get("/events", exchangeHandler.GetEvents)

	app.Get("/health", exchangeHandler.HealthCheck)
}

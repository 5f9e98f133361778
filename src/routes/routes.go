package routes

import (
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"trade-bridge/src/handlers"
	"trade-bridge/src/middleware"
)

func SetupRoutes(app *fiber.App, bridgeHandler *handlers.BridgeHandler) {
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

	serviceAvailability := middleware.DefaultServiceAvailability()
	app.Use(serviceAvailability.Middleware())
	app.Use(middleware.RequestLogger())

	if !rateLimitDisabled {
		rateLimiter := middleware.NewRateLimiter(maxRequests, windowDuration)
		app.Use(rateLimiter.Middleware())
	}

	// connection lifecycle
	app.Post("/connect", bridgeHandler.Connect)
	app.Get("/is_connected", bridgeHandler.IsConnected)
	app.Post("/disconnect", bridgeHandler.Disconnect)

	// account and market data
	app.Get("/get_account_values", bridgeHandler.GetAccountValues)
	app.Get("/get_positions", bridgeHandler.GetPositions)
	app.Get("/market_data", bridgeHandler.GetMarketData)
	app.Get("/get_lod_hod", bridgeHandler.GetDayRange)

	// trading
	app.Post("/order", bridgeHandler.SubmitOrder)

	app.Get("/health", bridgeHandler.HealthCheck)
	app.Get("/metrics", bridgeHandler.Metrics)
}

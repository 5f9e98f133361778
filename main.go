package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"trade-bridge/src/connector"
	"trade-bridge/src/gateway"
	"trade-bridge/src/handlers"
	"trade-bridge/src/logger"
	"trade-bridge/src/routes"
)

func main() {
	logger.InitLogger()
	log := logger.GetLogger()

	log.Info().Msg("Initializing Trade Bridge")

	// The brokerage wire protocol lives behind the gateway.Dialer interface.
	// The built-in simulator is the only in-tree dialer; a real gateway
	// client plugs in here.
	mode := os.Getenv("GATEWAY_MODE")
	if mode == "" {
		mode = "sim"
	}

	var dialer gateway.Dialer
	switch mode {
	case "sim":
		dialer = gateway.NewSimulator()
	default:
		log.Fatal().
			Str("gateway_mode", mode).
			Msg("Unknown gateway mode, only \"sim\" is built in")
	}

	conn := connector.NewConnector(dialer)
	bridgeHandler := handlers.NewBridgeHandler(conn)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Error().
				Str("path", c.Path()).
				Str("method", c.Method()).
				Int("status", code).
				Str("error", err.Error()).
				Msg("Request error")

			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	routes.SetupRoutes(app, bridgeHandler)

	port := ":3000"
	if envPort := os.Getenv("PORT"); envPort != "" {
		port = ":" + envPort
	}

	serverError := make(chan error, 1)

	go func() {
		if err := app.Listen(port); err != nil {
			// edge case: ignore shutdown errors, only report real errors
			if err.Error() != "server is shutting down" {
				serverError <- err
			}
		}
	}()

	select {
	case err := <-serverError:
		log.Fatal().
			Err(err).
			Str("port", port).
			Str("hint", "Port may be already in use. Try: PORT=3001 go run main.go").
			Msg("Server failed to start")
	default:
		log.Info().
			Str("port", port).
			Str("gateway_mode", mode).
			Msg("Trade Bridge started")

		log.Info().
			Strs("endpoints", []string{
				"POST /connect",
				"GET  /is_connected",
				"POST /disconnect",
				"GET  /get_account_values",
				"GET  /get_positions",
				"GET  /market_data",
				"GET  /get_lod_hod",
				"POST /order",
				"GET  /health",
				"GET  /metrics",
			}).
			Msg("API endpoints registered")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	log.Info().Msg("Received shutdown signal, shutting down...")

	shutdownTimeout := 10 * time.Second
	if envTimeout := os.Getenv("SHUTDOWN_TIMEOUT"); envTimeout != "" {
		if parsed, err := time.ParseDuration(envTimeout); err == nil && parsed > 0 {
			shutdownTimeout = parsed
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		// edge case: timeout during shutdown is acceptable
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn().
				Dur("timeout", shutdownTimeout).
				Msg("Timeout exceeded, shutting down...")
		} else {
			log.Error().
				Err(err).
				Msg("Error during shutdown")
		}
	} else {
		log.Info().Msg("Shutdown complete")
	}

	conn.Disconnect()
	logger.CloseLogger()
}

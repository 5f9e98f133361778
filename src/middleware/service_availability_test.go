package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func availabilityApp(sa *ServiceAvailability) *fiber.App {
	app := fiber.New()
	app.Use(sa.Middleware())
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("healthy")
	})
	app.Get("/is_connected", func(c *fiber.Ctx) error {
		return c.SendString("false")
	})
	return app
}

func TestMaintenanceModeRejectsRequests(t *testing.T) {
	sa := NewServiceAvailability(0)
	sa.SetMaintenanceMode(true)
	app := availabilityApp(sa)

	req := httptest.NewRequest(http.MethodGet, "/is_connected", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

// TestMaintenanceModeAllowsHealth checks that health checks bypass the
// availability guard entirely.
func TestMaintenanceModeAllowsHealth(t *testing.T) {
	sa := NewServiceAvailability(0)
	sa.SetMaintenanceMode(true)
	app := availabilityApp(sa)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestMaintenanceModeToggle(t *testing.T) {
	sa := NewServiceAvailability(0)

	if sa.IsMaintenanceMode() {
		t.Error("maintenance mode set at construction")
	}
	sa.SetMaintenanceMode(true)
	if !sa.IsMaintenanceMode() {
		t.Error("maintenance mode not set")
	}
	sa.SetMaintenanceMode(false)

	app := availabilityApp(sa)
	req := httptest.NewRequest(http.MethodGet, "/is_connected", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 after leaving maintenance", resp.StatusCode)
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/user/cryptofolio/internal/auth"
	"github.com/user/cryptofolio/internal/models"
)

var testSecret = []byte("test-secret")

func newTestApp() *fiber.App {
	app := fiber.New()
	api := app.Group("/api", Protected(testSecret))
	api.Get("/me", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	})
	admin := api.Group("/admin", RequireAdmin())
	admin.Get("/users", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestProtectedRejectsMissingToken(t *testing.T) {
	app := newTestApp()
	resp := doRequest(t, app, "/api/me", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestProtectedRejectsGarbageToken(t *testing.T) {
	app := newTestApp()
	resp := doRequest(t, app, "/api/me", "not.a.jwt")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestProtectedAcceptsValidToken(t *testing.T) {
	app := newTestApp()
	token, err := auth.GenerateJWT(testSecret, uuid.New(), "user@example.com", models.RoleUser)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}
	resp := doRequest(t, app, "/api/me", token)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestRequireAdminBlocksUserRole(t *testing.T) {
	app := newTestApp()
	token, err := auth.GenerateJWT(testSecret, uuid.New(), "user@example.com", models.RoleUser)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}
	resp := doRequest(t, app, "/api/admin/users", token)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %d", resp.StatusCode)
	}
}

func TestRequireAdminAllowsAdminRole(t *testing.T) {
	app := newTestApp()
	token, err := auth.GenerateJWT(testSecret, uuid.New(), "admin@example.com", models.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}
	resp := doRequest(t, app, "/api/admin/users", token)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

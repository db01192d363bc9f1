package middleware

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authentication "github.com/Alwanly/service-feed-ingest/pkg/auth"
)

func basic(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func newAuthApp() *fiber.App {
	auth := NewAuthMiddleware(SetBasicAuth(&authentication.BasicAuthTConfig{
		Username:      "viewer",
		Password:      "view",
		AdminUsername: "admin",
		AdminPassword: "secret",
	}))
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	ok := func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) }
	app.Get("/read", auth.BasicAuth(), ok)
	app.Post("/write", auth.BasicAuthAdmin(), ok)
	return app
}

func TestBasicAuth(t *testing.T) {
	app := newAuthApp()

	tests := []struct {
		name   string
		method string
		path   string
		header string
		want   int
	}{
		{"viewer reads", http.MethodGet, "/read", basic("viewer", "view"), http.StatusNoContent},
		{"admin reads", http.MethodGet, "/read", basic("admin", "secret"), http.StatusNoContent},
		{"viewer cannot write", http.MethodPost, "/write", basic("viewer", "view"), http.StatusUnauthorized},
		{"admin writes", http.MethodPost, "/write", basic("admin", "secret"), http.StatusNoContent},
		{"wrong password", http.MethodGet, "/read", basic("viewer", "nope"), http.StatusUnauthorized},
		{"missing header", http.MethodGet, "/read", "", http.StatusUnauthorized},
		{"bearer header", http.MethodGet, "/read", "Bearer abc", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
			if tt.want == http.StatusUnauthorized {
				assert.Equal(t, basicRealm, resp.Header.Get(fiber.HeaderWWWAuthenticate))
			}
		})
	}
}

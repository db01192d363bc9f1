package bootstrap

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/Alwanly/service-feed-ingest/internal/config"
	authentication "github.com/Alwanly/service-feed-ingest/pkg/auth"
	"github.com/Alwanly/service-feed-ingest/pkg/logger"
	"github.com/Alwanly/service-feed-ingest/pkg/middleware"
)

// NewAdminApp returns the fiber app of a binary's admin surface with the
// shared middleware chain installed.
func NewAdminApp(name string, cfg config.AdminConfig, log *logger.CanonicalLogger) (*fiber.App, *middleware.AuthMiddleware) {
	app := fiber.New(fiber.Config{
		AppName:               name,
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.CanonicalLoggerMiddleware(log))

	auth := middleware.NewAuthMiddleware(middleware.SetBasicAuth(&authentication.BasicAuthTConfig{
		Username:      cfg.Username,
		Password:      cfg.Password,
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
	}))
	return app, auth
}

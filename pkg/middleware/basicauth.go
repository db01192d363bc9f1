package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	authentication "github.com/Alwanly/service-feed-ingest/pkg/auth"
	"github.com/Alwanly/service-feed-ingest/pkg/logger"
	"github.com/Alwanly/service-feed-ingest/pkg/wrapper"
)

const basicRealm = `Basic realm="feed-ingest"`

type IAuthMiddleware interface {
	// BasicAuth admits viewer or admin credentials.
	BasicAuth() fiber.Handler

	// BasicAuthAdmin admits admin credentials only.
	BasicAuthAdmin() fiber.Handler
}

type AuthMiddleware struct {
	Basic authentication.IBasicAuthService
}

// mockery:ignore
type AuthConfig func(*AuthOpts)

type AuthOpts struct {
	*authentication.BasicAuthTConfig
}

func SetBasicAuth(basicAuthConfig *authentication.BasicAuthTConfig) AuthConfig {
	return func(o *AuthOpts) {
		o.BasicAuthTConfig = basicAuthConfig
	}
}

func NewAuthMiddleware(opts ...AuthConfig) *AuthMiddleware {
	var o AuthOpts
	for _, opt := range opts {
		opt(&o)
	}
	return &AuthMiddleware{
		Basic: authentication.NewBasicAuthService(o.BasicAuthTConfig),
	}
}

func (a *AuthMiddleware) BasicAuth() fiber.Handler {
	return a.guard("viewer", a.Basic.Validate)
}

func (a *AuthMiddleware) BasicAuthAdmin() fiber.Handler {
	return a.guard("admin", a.Basic.ValidateAdmin)
}

func (a *AuthMiddleware) guard(role string, check func(username, password string) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Basic ") {
			return unauthorized(c, role)
		}
		username, password := a.Basic.DecodeFromHeader(header)
		if !check(username, password) {
			return unauthorized(c, role)
		}
		logger.AddToContext(c.UserContext(), logger.String("auth_role", role))
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, role string) error {
	logger.AddToContext(c.UserContext(), logger.String("auth_denied", role))
	c.Set(fiber.HeaderWWWAuthenticate, basicRealm)
	return wrapper.ResponseFailed(fiber.StatusUnauthorized, "Invalid auth", nil).Send(c)
}

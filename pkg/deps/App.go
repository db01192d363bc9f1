package deps

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Alwanly/service-feed-ingest/pkg/logger"
	"github.com/Alwanly/service-feed-ingest/pkg/middleware"
	"github.com/Alwanly/service-feed-ingest/pkg/rpc"
)

type App struct {
	Fiber      *fiber.App
	Logger     *logger.CanonicalLogger
	Middleware *middleware.AuthMiddleware
	// RPC is optional; handlers skip control-plane registration when nil.
	RPC *rpc.Server
}

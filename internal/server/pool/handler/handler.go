package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Alwanly/service-feed-ingest/internal/models"
	"github.com/Alwanly/service-feed-ingest/internal/server/pool/dto"
	"github.com/Alwanly/service-feed-ingest/internal/server/pool/usecase"
	"github.com/Alwanly/service-feed-ingest/pkg/codec"
	"github.com/Alwanly/service-feed-ingest/pkg/deps"
	"github.com/Alwanly/service-feed-ingest/pkg/logger"
	"github.com/Alwanly/service-feed-ingest/pkg/wrapper"
)

type Handler struct {
	Logger  *logger.CanonicalLogger
	UseCase *usecase.UseCase
}

// NewHandler registers the admin HTTP routes on d.Fiber and, when d.RPC is
// set, the control-plane actions on the RPC server.
func NewHandler(d deps.App, uc *usecase.UseCase) *Handler {
	h := &Handler{
		Logger:  d.Logger,
		UseCase: uc,
	}

	// Health check endpoint (no auth required)
	d.Fiber.Get("/health", h.health)
	d.Fiber.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	agencies := d.Fiber.Group("/agencies")
	agencies.Get("", d.Middleware.BasicAuth(), h.listAgencies)
	agencies.Post("", d.Middleware.BasicAuthAdmin(), h.addAgency)

	if d.RPC != nil {
		d.RPC.Handle(dto.ActionAgencies, h.rpcAgencies)
		d.RPC.Handle(dto.ActionAddAgency, h.rpcAddAgency)
	}

	return h
}

// health godoc
// @Summary      Worker pool health
// @Description  Reports the number of running workers and dynamically added agencies
// @Tags         health
// @Produce      json
// @Success      200 {object} dto.HealthResponse
// @Router       /health [get]
func (h *Handler) health(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(h.UseCase.Health())
}

// listAgencies godoc
// @Summary      List dynamically added agencies
// @Description  Agencies added at runtime, in insertion order. Catalog agencies are not included.
// @Tags         agencies
// @Produce      json
// @Success      200 {object} wrapper.JSONResult{data=dto.ListAgenciesResponse}
// @Failure      401 {object} wrapper.JSONResult "Invalid auth"
// @Router       /agencies [get]
// @Security     BasicAuth
func (h *Handler) listAgencies(c *fiber.Ctx) error {
	logger.AddToContext(c.UserContext(), logger.String(logger.FieldOperation, "list_agencies"))

	res := h.UseCase.ListAgencies(c.UserContext())
	return wrapper.ResponseSuccess(http.StatusOK, res).Send(c)
}

// addAgency godoc
// @Summary      Add an agency
// @Description  Starts a persistent worker for the agency unless one with the same id exists (admin only)
// @Tags         agencies
// @Accept       json
// @Produce      json
// @Param        request body models.AgencyInfo true "Agency configuration"
// @Success      201 {object} wrapper.JSONResult{data=dto.AddAgencyResponse} "Agency added"
// @Failure      400 {object} wrapper.JSONResult "Invalid agency"
// @Failure      401 {object} wrapper.JSONResult "Invalid auth"
// @Failure      409 {object} wrapper.JSONResult{data=dto.AddAgencyResponse} "Error: Agency Exists"
// @Failure      503 {object} wrapper.JSONResult "Shutting down"
// @Router       /agencies [post]
// @Security     BasicAuth
func (h *Handler) addAgency(c *fiber.Ctx) error {
	logger.AddToContext(c.UserContext(), logger.String(logger.FieldOperation, "add_agency"))

	req := new(models.AgencyInfo)
	if err := c.BodyParser(req); err != nil {
		logger.AddToContext(c.UserContext(), zap.Error(err))
		return wrapper.ResponseFailed(http.StatusBadRequest, "Invalid request body", nil).Send(c)
	}

	return h.UseCase.AddAgencyResult(c.UserContext(), *req).Send(c)
}

func (h *Handler) rpcAgencies(ctx context.Context, _ []byte) (any, error) {
	return h.UseCase.ListAgencies(ctx), nil
}

func (h *Handler) rpcAddAgency(ctx context.Context, params []byte) (any, error) {
	var info models.AgencyInfo
	if err := codec.Unmarshal(params, &info); err != nil {
		return nil, fmt.Errorf("decode agency: %w", err)
	}
	res, err := h.UseCase.AddAgency(ctx, info)
	if err != nil {
		return nil, err
	}
	return res, nil
}

package handlers

import (
	"errors"

	"fleet-pricer/internal/dto"
	"fleet-pricer/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ModelHandler struct {
	pricingService *service.PricingService
	logger         *zap.Logger
}

func NewModelHandler(pricingService *service.PricingService, logger *zap.Logger) *ModelHandler {
	return &ModelHandler{
		pricingService: pricingService,
		logger:         logger,
	}
}

// Metrics godoc
// @Summary List model evaluation metrics
// @Description Backtest metrics of every candidate model, newest evaluation first
// @Tags models
// @Produce json
// @Param limit query int false "Max rows"
// @Security Bearer
// @Success 200 {array} dto.ModelMetricResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/models/metrics [get]
func (h *ModelHandler) Metrics(c *fiber.Ctx) error {
	tenantID, err := getTenantID(c)
	if err != nil {
		return unauthorized(c)
	}

	limit := uint64(0)
	if v := c.QueryInt("limit", 0); v > 0 {
		limit = uint64(v)
	}

	metrics, err := h.pricingService.ModelMetrics(c.Context(), tenantID, limit)
	if err != nil {
		h.logger.Error("list model metrics failed", zap.Int64("tenant_id", tenantID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list model metrics",
		})
	}
	return c.JSON(dto.NewModelMetricResponses(metrics))
}

// Best godoc
// @Summary Get the current best model
// @Description The best model row of the most recent evaluation
// @Tags models
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.ModelMetricResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/models/best [get]
func (h *ModelHandler) Best(c *fiber.Ctx) error {
	tenantID, err := getTenantID(c)
	if err != nil {
		return unauthorized(c)
	}

	best, err := h.pricingService.BestModel(c.Context(), tenantID)
	if errors.Is(err, service.ErrNoTrainedModel) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No trained model yet",
		})
	}
	if err != nil {
		h.logger.Error("best model lookup failed", zap.Int64("tenant_id", tenantID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load best model",
		})
	}
	return c.JSON(dto.NewModelMetricResponse(*best))
}

package handlers

import (
	"errors"
	"time"

	"fleet-pricer/internal/dto"
	"fleet-pricer/internal/models"
	"fleet-pricer/internal/repository"
	"fleet-pricer/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PricingHandler struct {
	pricingService *service.PricingService
	logger         *zap.Logger
}

func NewPricingHandler(pricingService *service.PricingService, logger *zap.Logger) *PricingHandler {
	return &PricingHandler{
		pricingService: pricingService,
		logger:         logger,
	}
}

// Generate godoc
// @Summary Run the recommendation pipeline
// @Description Rebuild features if stale, retrain models and generate bounded price recommendations for every series
// @Tags recommendations
// @Accept json
// @Produce json
// @Param request body dto.GenerateRequest false "Run parameters"
// @Security Bearer
// @Success 200 {object} dto.GenerateResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/v1/recommendations/generate [post]
func (h *PricingHandler) Generate(c *fiber.Ctx) error {
	tenantID, err := getTenantID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.GenerateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
	}

	runDate := time.Now().UTC()
	if req.RunDate != "" {
		runDate, err = time.Parse("2006-01-02", req.RunDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "run_date must be YYYY-MM-DD",
			})
		}
	}

	stats, err := h.pricingService.Generate(c.Context(), tenantID, runDate, req.HorizonDays, service.GenerateFilter{
		BranchID:   req.BranchID,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		h.logger.Error("recommendation run failed", zap.Int64("tenant_id", tenantID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	errs := stats.Errors
	if errs == nil {
		errs = []string{}
	}
	return c.JSON(dto.GenerateResponse{
		RunDate:                  runDate.Format("2006-01-02"),
		BranchesProcessed:        stats.BranchesProcessed,
		CategoriesProcessed:      stats.CategoriesProcessed,
		RecommendationsGenerated: stats.RecommendationsGenerated,
		RecommendationsSaved:     stats.RecommendationsSaved,
		Errors:                   errs,
	})
}

// List godoc
// @Summary List recommendations
// @Description List the tenant's recommendations, optionally filtered by branch, category, status and forecast date range
// @Tags recommendations
// @Produce json
// @Param branch_id query int false "Branch filter"
// @Param category_id query int false "Category filter"
// @Param status query string false "Status filter: pending, approved or skipped"
// @Param date_from query string false "Forecast date from (YYYY-MM-DD)"
// @Param date_to query string false "Forecast date to (YYYY-MM-DD)"
// @Param limit query int false "Max rows"
// @Security Bearer
// @Success 200 {array} dto.RecommendationResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/recommendations [get]
func (h *PricingHandler) List(c *fiber.Ctx) error {
	tenantID, err := getTenantID(c)
	if err != nil {
		return unauthorized(c)
	}

	filter, err := parseListFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	recs, err := h.pricingService.List(c.Context(), tenantID, filter)
	if err != nil {
		h.logger.Error("list recommendations failed", zap.Int64("tenant_id", tenantID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list recommendations",
		})
	}
	return c.JSON(dto.NewRecommendationResponses(recs))
}

// Approve godoc
// @Summary Approve a recommendation
// @Description Transition a pending recommendation to approved, recording the approver
// @Tags recommendations
// @Produce json
// @Param id path string true "Recommendation ID"
// @Security Bearer
// @Success 200 {object} dto.RecommendationResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/recommendations/{id}/approve [post]
func (h *PricingHandler) Approve(c *fiber.Ctx) error {
	tenantID, err := getTenantID(c)
	if err != nil {
		return unauthorized(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid recommendation id",
		})
	}

	rec, err := h.pricingService.Approve(c.Context(), tenantID, id, getActor(c))
	return h.respondTransition(c, rec, err)
}

// Skip godoc
// @Summary Skip a recommendation
// @Description Transition a pending recommendation to skipped with a reason
// @Tags recommendations
// @Accept json
// @Produce json
// @Param id path string true "Recommendation ID"
// @Param request body dto.SkipRequest true "Skip reason"
// @Security Bearer
// @Success 200 {object} dto.RecommendationResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/recommendations/{id}/skip [post]
func (h *PricingHandler) Skip(c *fiber.Ctx) error {
	tenantID, err := getTenantID(c)
	if err != nil {
		return unauthorized(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid recommendation id",
		})
	}

	var req dto.SkipRequest
	if err := c.BodyParser(&req); err != nil || req.Reason == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Reason is required",
		})
	}

	rec, err := h.pricingService.Skip(c.Context(), tenantID, id, getActor(c), req.Reason)
	return h.respondTransition(c, rec, err)
}

// BulkApprove godoc
// @Summary Bulk approve recommendations
// @Description Approve every pending recommendation in a forecast date range; already-resolved rows are left untouched
// @Tags recommendations
// @Accept json
// @Produce json
// @Param request body dto.BulkApproveRequest true "Range to approve"
// @Security Bearer
// @Success 200 {object} dto.BulkApproveResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/recommendations/bulk-approve [post]
func (h *PricingHandler) BulkApprove(c *fiber.Ctx) error {
	tenantID, err := getTenantID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.BulkApproveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	from, err := time.Parse("2006-01-02", req.DateFrom)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "date_from must be YYYY-MM-DD",
		})
	}
	to, err := time.Parse("2006-01-02", req.DateTo)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "date_to must be YYYY-MM-DD",
		})
	}
	if to.Before(from) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "date_to is before date_from",
		})
	}

	count, err := h.pricingService.BulkApprove(c.Context(), tenantID, repository.BulkApproveFilter{
		BranchID:   req.BranchID,
		CategoryID: req.CategoryID,
		From:       from,
		To:         to,
	}, getActor(c))
	if err != nil {
		h.logger.Error("bulk approve failed", zap.Int64("tenant_id", tenantID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Bulk approve failed",
		})
	}
	return c.JSON(dto.BulkApproveResponse{Approved: count})
}

func (h *PricingHandler) respondTransition(c *fiber.Ctx, rec *models.Recommendation, err error) error {
	switch {
	case errors.Is(err, service.ErrRecommendationNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Recommendation not found",
		})
	case errors.Is(err, service.ErrRecommendationConflict):
		resp := fiber.Map{
			"error": "Recommendation already resolved",
		}
		if rec != nil {
			resp["status"] = string(rec.Status)
		}
		return c.Status(fiber.StatusConflict).JSON(resp)
	case err != nil:
		h.logger.Error("recommendation transition failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Transition failed",
		})
	}
	return c.JSON(dto.NewRecommendationResponse(rec))
}

func parseListFilter(c *fiber.Ctx) (repository.RecommendationListFilter, error) {
	var filter repository.RecommendationListFilter

	if v := c.QueryInt("branch_id", -1); v >= 0 {
		id := int64(v)
		filter.BranchID = &id
	}
	if v := c.QueryInt("category_id", -1); v >= 0 {
		id := int64(v)
		filter.CategoryID = &id
	}
	if v := c.Query("status"); v != "" {
		status := models.RecommendationStatus(v)
		switch status {
		case models.StatusPending, models.StatusApproved, models.StatusSkipped:
			filter.Status = &status
		default:
			return filter, errors.New("status must be pending, approved or skipped")
		}
	}
	if v := c.Query("date_from"); v != "" {
		from, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, errors.New("date_from must be YYYY-MM-DD")
		}
		filter.From = &from
	}
	if v := c.Query("date_to"); v != "" {
		to, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, errors.New("date_to must be YYYY-MM-DD")
		}
		filter.To = &to
	}
	if v := c.QueryInt("limit", 0); v > 0 {
		filter.Limit = uint64(v)
	}
	return filter, nil
}

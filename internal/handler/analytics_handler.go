package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/talentgate/talentgate-api/internal/dto"
	"github.com/talentgate/talentgate-api/internal/service"
	"github.com/talentgate/talentgate-api/internal/utils"
)

// AnalyticsHandler serves the admin dashboard and global settings.
type AnalyticsHandler struct {
	analytics service.AnalyticsService
	settings  service.SettingService
	logger    zerolog.Logger
}

// NewAnalyticsHandler constructs the handler.
func NewAnalyticsHandler(analytics service.AnalyticsService, settings service.SettingService, logger zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		settings:  settings,
		logger:    logger.With().Str("component", "analytics_handler").Logger(),
	}
}

// Register attaches analytics endpoints to the router group.
func (h *AnalyticsHandler) Register(router fiber.Router) {
	router.Get("/dashboard", h.dashboard)
	router.Get("/settings/:key", h.getSetting)
	router.Put("/settings", h.updateSetting)
}

func (h *AnalyticsHandler) dashboard(c *fiber.Ctx) error {
	dashboard, err := h.analytics.Dashboard(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to build analytics dashboard")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to build analytics dashboard")
	}

	return utils.SendSuccess(c, "analytics retrieved", dashboard)
}

func (h *AnalyticsHandler) getSetting(c *fiber.Ctx) error {
	setting, err := h.settings.Get(c.Context(), c.Params("key"))
	if err != nil {
		if errors.Is(err, service.ErrSettingNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "setting not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load setting")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load setting")
	}

	return utils.SendSuccess(c, "setting retrieved", setting)
}

func (h *AnalyticsHandler) updateSetting(c *fiber.Ctx) error {
	var payload dto.SettingUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	setting, err := h.settings.Update(c.Context(), payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to update setting")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to update setting")
	}

	return utils.SendSuccess(c, "setting updated", setting)
}

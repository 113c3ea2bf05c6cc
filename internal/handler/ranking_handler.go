package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/talentgate/talentgate-api/internal/dto"
	"github.com/talentgate/talentgate-api/internal/service"
	"github.com/talentgate/talentgate-api/internal/utils"
)

// RankingHandler wires the leaderboard and top-N outreach endpoints.
type RankingHandler struct {
	rankings service.RankingService
	logger   zerolog.Logger
}

// NewRankingHandler constructs the handler.
func NewRankingHandler(rankings service.RankingService, logger zerolog.Logger) *RankingHandler {
	return &RankingHandler{
		rankings: rankings,
		logger:   logger.With().Str("component", "ranking_handler").Logger(),
	}
}

// Register attaches ranking endpoints to the router group.
func (h *RankingHandler) Register(router fiber.Router) {
	router.Get("/:assessmentID", h.list)
	router.Get("/:assessmentID/ungraded", h.ungraded)
	router.Put("/:assessmentID/reorder", h.reorder)
	router.Post("/:assessmentID/send-scheduling", h.sendScheduling)
	router.Post("/:assessmentID/send-followup", h.sendFollowUp)
}

func (h *RankingHandler) list(c *fiber.Ctx) error {
	assessmentID, err := parseUintParam(c, "assessmentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	entries, err := h.rankings.Rankings(c.Context(), assessmentID, c.Query("status"))
	if err != nil {
		if errors.Is(err, service.ErrAssessmentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "assessment not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("assessment_id", assessmentID).Msg("failed to load rankings")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load rankings")
	}

	return utils.SendSuccess(c, "rankings retrieved", entries)
}

func (h *RankingHandler) ungraded(c *fiber.Ctx) error {
	assessmentID, err := parseUintParam(c, "assessmentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	invites, err := h.rankings.Ungraded(c.Context(), assessmentID)
	if err != nil {
		if errors.Is(err, service.ErrAssessmentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "assessment not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("assessment_id", assessmentID).Msg("failed to load ungraded invites")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load ungraded invites")
	}

	return utils.SendSuccess(c, "ungraded invites retrieved", invites)
}

func (h *RankingHandler) reorder(c *fiber.Ctx) error {
	assessmentID, err := parseUintParam(c, "assessmentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.ReorderRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	entries, err := h.rankings.Reorder(c.Context(), assessmentID, payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAssessmentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "assessment not found")
		case errors.Is(err, service.ErrNotGraded):
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("assessment_id", assessmentID).Msg("failed to reorder rankings")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to reorder rankings")
		}
	}

	return utils.SendSuccess(c, "rankings reordered", entries)
}

func (h *RankingHandler) sendScheduling(c *fiber.Ctx) error {
	return h.send(c, h.rankings.SendScheduling, "scheduling emails sent", "failed to send scheduling emails")
}

func (h *RankingHandler) sendFollowUp(c *fiber.Ctx) error {
	return h.send(c, h.rankings.SendFollowUp, "follow-up emails sent", "failed to send follow-up emails")
}

func (h *RankingHandler) send(
	c *fiber.Ctx,
	operation func(ctx context.Context, assessmentID uint, payload dto.SendTopNRequest) (dto.SendResultResponse, error),
	successMessage, fallback string,
) error {
	assessmentID, err := parseUintParam(c, "assessmentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.SendTopNRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := operation(c.Context(), assessmentID, payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAssessmentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "assessment not found")
		case errors.Is(err, service.ErrNoCalendlyLink):
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		case errors.Is(err, service.ErrEmailDisabled):
			return utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("assessment_id", assessmentID).Msg(fallback)
			return utils.SendError(c, fiber.StatusInternalServerError, fallback)
		}
	}

	return utils.SendSuccess(c, successMessage, result)
}

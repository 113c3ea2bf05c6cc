package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/talentgate/talentgate-api/internal/dto"
	"github.com/talentgate/talentgate-api/internal/scoring"
	"github.com/talentgate/talentgate-api/internal/service"
	"github.com/talentgate/talentgate-api/internal/utils"
)

// GradingHandler wires rubric management and manual/AI grading endpoints.
type GradingHandler struct {
	rubrics service.RubricService
	grading service.GradingService
	logger  zerolog.Logger
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(rubrics service.RubricService, grading service.GradingService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		rubrics: rubrics,
		grading: grading,
		logger:  logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register attaches grading endpoints to the router group.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Get("/rubrics/:assessmentID", h.getRubric)
	router.Put("/rubrics", h.upsertRubric)
	router.Delete("/rubrics/:id", h.deleteRubric)
	router.Post("/scores", h.applyScore)
	router.Get("/scores/:inviteID", h.getScore)
	router.Delete("/scores/:id", h.deleteScore)
	router.Post("/ai", h.aiGrade)
	router.Get("/ai/:inviteID/cost", h.estimateCost)
	router.Get("/logs/:inviteID", h.logs)
}

func (h *GradingHandler) getRubric(c *fiber.Ctx) error {
	assessmentID, err := parseUintParam(c, "assessmentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	rubric, err := h.rubrics.Get(c.Context(), assessmentID)
	if err != nil {
		if errors.Is(err, service.ErrRubricNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "rubric not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("assessment_id", assessmentID).Msg("failed to load rubric")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load rubric")
	}

	return utils.SendSuccess(c, "rubric retrieved", rubric)
}

func (h *GradingHandler) upsertRubric(c *fiber.Ctx) error {
	var payload dto.RubricUpsertRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	rubric, err := h.rubrics.Upsert(c.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAssessmentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "assessment not found")
		case errors.Is(err, scoring.ErrWeightSum), errors.Is(err, scoring.ErrNoCriteria), isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("assessment_id", payload.AssessmentID).Msg("failed to save rubric")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to save rubric")
		}
	}

	return utils.SendSuccess(c, "rubric saved", rubric)
}

func (h *GradingHandler) deleteRubric(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	if err := h.rubrics.Delete(c.Context(), id); err != nil {
		if errors.Is(err, service.ErrRubricNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "rubric not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("rubric_id", id).Msg("failed to delete rubric")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete rubric")
	}

	return utils.SendSuccess(c, "rubric deleted", nil)
}

func (h *GradingHandler) applyScore(c *fiber.Ctx) error {
	var payload dto.ScoreUpsertRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	score, err := h.grading.ApplyGrading(c.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInviteNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "invite not found")
		case errors.Is(err, service.ErrNotSubmitted):
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		case errors.Is(err, scoring.ErrInvalidMaxScore), isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("invite_id", payload.InviteID).Msg("failed to apply grade")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to apply grade")
		}
	}

	return utils.SendSuccess(c, "grade applied", score)
}

func (h *GradingHandler) getScore(c *fiber.Ctx) error {
	inviteID, err := parseUintParam(c, "inviteID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	score, err := h.grading.GetScore(c.Context(), inviteID)
	if err != nil {
		if errors.Is(err, service.ErrNotGraded) {
			return utils.SendError(c, fiber.StatusNotFound, "invite is not graded")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("invite_id", inviteID).Msg("failed to load score")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load score")
	}

	return utils.SendSuccess(c, "score retrieved", score)
}

func (h *GradingHandler) deleteScore(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	if err := h.grading.DeleteScore(c.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotGraded) {
			return utils.SendError(c, fiber.StatusNotFound, "score not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("score_id", id).Msg("failed to delete score")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete score")
	}

	return utils.SendSuccess(c, "score deleted", nil)
}

func (h *GradingHandler) aiGrade(c *fiber.Ctx) error {
	var payload dto.AIGradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.grading.AIGrade(c.Context(), payload.InviteID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInviteNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "invite not found")
		case errors.Is(err, service.ErrNotSubmitted), errors.Is(err, service.ErrNoCandidateRepo):
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		case errors.Is(err, service.ErrAIGradingDisabled):
			return utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("invite_id", payload.InviteID).Msg("ai grading failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "ai grading failed")
		}
	}

	return utils.SendSuccess(c, "ai grading completed", result)
}

func (h *GradingHandler) estimateCost(c *fiber.Ctx) error {
	inviteID, err := parseUintParam(c, "inviteID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	estimate, err := h.grading.EstimateCost(c.Context(), inviteID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInviteNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "invite not found")
		case errors.Is(err, service.ErrNotSubmitted), errors.Is(err, service.ErrNoCandidateRepo):
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("invite_id", inviteID).Msg("failed to estimate cost")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to estimate cost")
		}
	}

	return utils.SendSuccess(c, "cost estimated", estimate)
}

func (h *GradingHandler) logs(c *fiber.Ctx) error {
	inviteID, err := parseUintParam(c, "inviteID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	logs, err := h.grading.Logs(c.Context(), inviteID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("invite_id", inviteID).Msg("failed to load grading logs")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load grading logs")
	}

	return utils.SendSuccess(c, "grading logs retrieved", logs)
}

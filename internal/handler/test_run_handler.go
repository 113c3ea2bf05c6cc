package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/talentgate/talentgate-api/internal/dto"
	"github.com/talentgate/talentgate-api/internal/service"
	"github.com/talentgate/talentgate-api/internal/utils"
)

// TestRunHandler wires the sandboxed test suite endpoints.
type TestRunHandler struct {
	runs   service.TestRunService
	logger zerolog.Logger
}

// NewTestRunHandler constructs the handler.
func NewTestRunHandler(runs service.TestRunService, logger zerolog.Logger) *TestRunHandler {
	return &TestRunHandler{
		runs:   runs,
		logger: logger.With().Str("component", "test_run_handler").Logger(),
	}
}

// Register attaches test run endpoints to the router group.
func (h *TestRunHandler) Register(router fiber.Router) {
	router.Post("/", h.run)
	router.Get("/:inviteID", h.list)
}

func (h *TestRunHandler) run(c *fiber.Ctx) error {
	var payload dto.TestRunRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.runs.Run(c.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInviteNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "invite not found")
		case errors.Is(err, service.ErrNotSubmitted), errors.Is(err, service.ErrNoCandidateRepo):
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		case errors.Is(err, service.ErrTestRunnerDisabled):
			return utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("invite_id", payload.InviteID).Msg("test run failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "test run failed")
		}
	}

	return utils.SendSuccess(c, "test suite executed", result)
}

func (h *TestRunHandler) list(c *fiber.Ctx) error {
	inviteID, err := parseUintParam(c, "inviteID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	runs, err := h.runs.List(c.Context(), inviteID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("invite_id", inviteID).Msg("failed to list test runs")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list test runs")
	}

	return utils.SendSuccess(c, "test runs retrieved", runs)
}

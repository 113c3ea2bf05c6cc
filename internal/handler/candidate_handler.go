package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/talentgate/talentgate-api/internal/dto"
	"github.com/talentgate/talentgate-api/internal/service"
	"github.com/talentgate/talentgate-api/internal/utils"
)

// CandidateHandler serves the public, slug-addressed candidate flow. These
// routes are unauthenticated; the unguessable slug is the credential.
type CandidateHandler struct {
	invites service.InviteService
	logger  zerolog.Logger
}

// NewCandidateHandler constructs the handler.
func NewCandidateHandler(invites service.InviteService, logger zerolog.Logger) *CandidateHandler {
	return &CandidateHandler{
		invites: invites,
		logger:  logger.With().Str("component", "candidate_handler").Logger(),
	}
}

// Register attaches the candidate flow to the router group.
func (h *CandidateHandler) Register(router fiber.Router) {
	router.Get("/:slug", h.preview)
	router.Post("/:slug/start", h.start)
	router.Post("/:slug/submit", h.submit)
	router.Get("/:slug/commits", h.commits)
}

func (h *CandidateHandler) preview(c *fiber.Ctx) error {
	invite, err := h.invites.Preview(c.Context(), c.Params("slug"))
	if err != nil {
		if errors.Is(err, service.ErrInviteNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "invite not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to preview invite")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load invite")
	}

	return utils.SendSuccess(c, "invite retrieved", invite)
}

func (h *CandidateHandler) start(c *fiber.Ctx) error {
	started, err := h.invites.Start(c.Context(), c.Params("slug"))
	if err != nil {
		return h.flowError(c, err, "failed to start assessment")
	}

	return utils.SendSuccess(c, "assessment started", started)
}

func (h *CandidateHandler) submit(c *fiber.Ctx) error {
	// The demo link is optional, so an empty body is a valid submission.
	var payload dto.SubmitRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	submission, err := h.invites.Submit(c.Context(), c.Params("slug"), payload)
	if err != nil {
		return h.flowError(c, err, "failed to submit assessment")
	}

	return utils.SendSuccess(c, "assessment submitted", submission)
}

func (h *CandidateHandler) commits(c *fiber.Ctx) error {
	commits, err := h.invites.Commits(c.Context(), c.Params("slug"))
	if err != nil {
		return h.flowError(c, err, "failed to load commit history")
	}

	return utils.SendSuccess(c, "commits retrieved", commits)
}

func (h *CandidateHandler) flowError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrInviteNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "invite not found")
	case errors.Is(err, service.ErrInviteClosed):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInviteExpired):
		return utils.SendError(c, fiber.StatusGone, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}

package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/talentgate/talentgate-api/internal/service"
	"github.com/talentgate/talentgate-api/internal/utils"
)

// InviteHandler exposes admin-facing invite lookups.
type InviteHandler struct {
	invites service.InviteService
	logger  zerolog.Logger
}

// NewInviteHandler constructs the handler.
func NewInviteHandler(invites service.InviteService, logger zerolog.Logger) *InviteHandler {
	return &InviteHandler{
		invites: invites,
		logger:  logger.With().Str("component", "invite_handler").Logger(),
	}
}

// Register attaches invite endpoints to the router group.
func (h *InviteHandler) Register(router fiber.Router) {
	router.Get("/:id", h.get)
}

func (h *InviteHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	invite, err := h.invites.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrInviteNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "invite not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("invite_id", id).Msg("failed to load invite")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load invite")
	}

	return utils.SendSuccess(c, "invite retrieved", invite)
}

package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/talentgate/talentgate-api/internal/dto"
	"github.com/talentgate/talentgate-api/internal/repository"
	"github.com/talentgate/talentgate-api/internal/service"
	"github.com/talentgate/talentgate-api/internal/utils"
)

// AssessmentHandler wires the assessment catalogue endpoints, including the
// nested invite collection.
type AssessmentHandler struct {
	assessments service.AssessmentService
	invites     service.InviteService
	logger      zerolog.Logger
}

// NewAssessmentHandler constructs the handler.
func NewAssessmentHandler(assessments service.AssessmentService, invites service.InviteService, logger zerolog.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		assessments: assessments,
		invites:     invites,
		logger:      logger.With().Str("component", "assessment_handler").Logger(),
	}
}

// Register attaches assessment endpoints to the router group.
func (h *AssessmentHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Post("/", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Put("/:id/archive", h.archive(true))
	router.Put("/:id/unarchive", h.archive(false))
	router.Get("/:id/invites", h.listInvites)
	router.Post("/:id/invites", h.createInvite)
}

func (h *AssessmentHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}

	filter := repository.AssessmentFilter{
		Search:          c.Query("search"),
		IncludeArchived: c.QueryBool("include_archived"),
		Page:            page,
		PageSize:        pageSize,
	}

	assessments, total, err := h.assessments.List(c.Context(), filter)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list assessments")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list assessments")
	}

	return utils.SendSuccess(c, "assessments retrieved", fiber.Map{
		"assessments": assessments,
		"total":       total,
	})
}

func (h *AssessmentHandler) create(c *fiber.Ctx) error {
	var payload dto.AssessmentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	assessment, err := h.assessments.Create(c.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSeedRepoInvalid):
			return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, service.ErrNextStageInvalid):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to create assessment")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to create assessment")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assessment created", assessment)
}

func (h *AssessmentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	assessment, err := h.assessments.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrAssessmentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "assessment not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("assessment_id", id).Msg("failed to load assessment")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load assessment")
	}

	return utils.SendSuccess(c, "assessment retrieved", assessment)
}

func (h *AssessmentHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.AssessmentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	assessment, err := h.assessments.Update(c.Context(), id, payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAssessmentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "assessment not found")
		case errors.Is(err, service.ErrNextStageInvalid):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("assessment_id", id).Msg("failed to update assessment")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to update assessment")
		}
	}

	return utils.SendSuccess(c, "assessment updated", assessment)
}

func (h *AssessmentHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	if err := h.assessments.Delete(c.Context(), id); err != nil {
		if errors.Is(err, service.ErrAssessmentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "assessment not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("assessment_id", id).Msg("failed to delete assessment")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete assessment")
	}

	return utils.SendSuccess(c, "assessment deleted", nil)
}

func (h *AssessmentHandler) archive(archived bool) fiber.Handler {
	message := "assessment archived"
	if !archived {
		message = "assessment unarchived"
	}

	return func(c *fiber.Ctx) error {
		id, err := parseUintParam(c, "id")
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
		}

		assessment, err := h.assessments.Archive(c.Context(), id, archived)
		if err != nil {
			if errors.Is(err, service.ErrAssessmentNotFound) {
				return utils.SendError(c, fiber.StatusNotFound, "assessment not found")
			}
			requestLogger(h.logger, c).Error().Err(err).Uint("assessment_id", id).Msg("failed to change archive state")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to change archive state")
		}

		return utils.SendSuccess(c, message, assessment)
	}
}

func (h *AssessmentHandler) listInvites(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	filter := repository.InviteFilter{AssessmentID: &id}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}

	invites, err := h.invites.List(c.Context(), filter)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("assessment_id", id).Msg("failed to list invites")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list invites")
	}

	return utils.SendSuccess(c, "invites retrieved", invites)
}

func (h *AssessmentHandler) createInvite(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.InviteCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	invite, err := h.invites.Create(c.Context(), id, payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAssessmentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "assessment not found")
		case errors.Is(err, service.ErrAssessmentArchived):
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("assessment_id", id).Msg("failed to create invite")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to create invite")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "invite created", invite)
}

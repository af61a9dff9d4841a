package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/credit-ledger-api/internal/dto"
	"github.com/noah-isme/credit-ledger-api/internal/service"
	"github.com/noah-isme/credit-ledger-api/internal/utils"
)

// ActivityHandler exposes the activity catalog.
type ActivityHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewActivityHandler constructs the catalog handler.
func NewActivityHandler(service service.CatalogService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches the read-only catalog routes.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
}

// RegisterAdmin attaches catalog maintenance routes.
func (h *ActivityHandler) RegisterAdmin(router fiber.Router) {
	router.Post("", h.create)
	router.Put("/:id", h.update)
	router.Patch("/:id/active", h.setActive)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	var filter dto.ActivityFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}
	if !isReviewer(actorFromContext(c)) {
		filter.IncludeInactive = false
	}

	activities, err := h.service.List(withRequestContext(c), filter)
	if err != nil {
		return respondServiceError(c, h.logger, err, "list activities")
	}

	return utils.SendSuccess(c, "activities retrieved", activities)
}

func (h *ActivityHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	activity, err := h.service.Get(withRequestContext(c), id)
	if err != nil {
		return respondServiceError(c, h.logger, err, "get activity")
	}

	return utils.SendSuccess(c, "activity retrieved", activity)
}

func (h *ActivityHandler) create(c *fiber.Ctx) error {
	var payload dto.ActivityRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	activity, err := h.service.Create(withRequestContext(c), actorFromContext(c), payload)
	if err != nil {
		return respondServiceError(c, h.logger, err, "create activity")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity created", activity)
}

func (h *ActivityHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ActivityRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	activity, err := h.service.Update(withRequestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return respondServiceError(c, h.logger, err, "update activity")
	}

	return utils.SendSuccess(c, "activity updated", activity)
}

func (h *ActivityHandler) setActive(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ActivityActiveRequest
	if err := c.BodyParser(&payload); err != nil || payload.Active == nil {
		return utils.SendError(c, fiber.StatusBadRequest, "active flag is required")
	}

	activity, err := h.service.SetActive(withRequestContext(c), actorFromContext(c), id, *payload.Active)
	if err != nil {
		return respondServiceError(c, h.logger, err, "toggle activity")
	}

	return utils.SendSuccess(c, "activity updated", activity)
}

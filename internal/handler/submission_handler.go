package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/credit-ledger-api/internal/dto"
	"github.com/noah-isme/credit-ledger-api/internal/models"
	"github.com/noah-isme/credit-ledger-api/internal/service"
	"github.com/noah-isme/credit-ledger-api/internal/utils"
)

// SubmissionHandler serves practitioner claims and the moderation queue.
type SubmissionHandler struct {
	service service.LedgerService
	logger  zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(service service.LedgerService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the practitioner routes. createGuards run before the create endpoint only.
func (h *SubmissionHandler) Register(router fiber.Router, createGuards ...fiber.Handler) {
	router.Get("", h.list)
	router.Get("/:id", h.get)

	handlers := append(append([]fiber.Handler{}, createGuards...), h.create)
	router.Post("", handlers...)
}

// RegisterModeration attaches the moderator routes.
func (h *SubmissionHandler) RegisterModeration(router fiber.Router) {
	router.Get("", h.queue)
	router.Post("/:id/decision", h.decide)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	filter, err := parseSubmissionFilter(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submissions, err := h.service.List(withRequestContext(c), actorFromContext(c), filter)
	if err != nil {
		return respondServiceError(c, h.logger, err, "list submissions")
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Get(withRequestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondServiceError(c, h.logger, err, "get submission")
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) create(c *fiber.Ctx) error {
	var payload dto.SubmissionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.service.Submit(withRequestContext(c), actorFromContext(c), payload)
	if err != nil {
		return respondServiceError(c, h.logger, err, "submit claim")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission created", submission)
}

func (h *SubmissionHandler) queue(c *fiber.Ctx) error {
	filter, err := parseSubmissionFilter(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	if filter.Status == nil {
		pending := models.SubmissionStatusPending
		filter.Status = &pending
	}

	submissions, err := h.service.List(withRequestContext(c), actorFromContext(c), filter)
	if err != nil {
		return respondServiceError(c, h.logger, err, "list moderation queue")
	}

	return utils.SendSuccess(c, "moderation queue retrieved", submissions)
}

func (h *SubmissionHandler) decide(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmissionDecisionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.service.Decide(withRequestContext(c), actorFromContext(c), id, payload)
	if err != nil {
		return respondServiceError(c, h.logger, err, "decide submission")
	}

	return utils.SendSuccess(c, "submission "+submission.Status, submission)
}

func parseSubmissionFilter(c *fiber.Ctx) (dto.SubmissionFilter, error) {
	var filter dto.SubmissionFilter
	if err := c.QueryParser(&filter); err != nil {
		return dto.SubmissionFilter{}, err
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 25
	}
	return filter, nil
}

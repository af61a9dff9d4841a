package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/credit-ledger-api/internal/service"
	"github.com/noah-isme/credit-ledger-api/internal/utils"
)

// EvidenceHandler accepts proof documents ahead of a submission.
type EvidenceHandler struct {
	service service.EvidenceService
	logger  zerolog.Logger
}

// NewEvidenceHandler constructs the handler.
func NewEvidenceHandler(service service.EvidenceService, logger zerolog.Logger) *EvidenceHandler {
	return &EvidenceHandler{
		service: service,
		logger:  logger.With().Str("component", "evidence_handler").Logger(),
	}
}

// Register wires evidence routes.
func (h *EvidenceHandler) Register(router fiber.Router) {
	router.Post("", h.upload)
}

func (h *EvidenceHandler) upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	result, err := h.service.Upload(withRequestContext(c), actorFromContext(c), file)
	if err != nil {
		return respondServiceError(c, h.logger, err, "upload evidence")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "evidence stored", result)
}

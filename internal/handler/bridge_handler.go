package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/credit-ledger-api/internal/dto"
	"github.com/noah-isme/credit-ledger-api/internal/service"
	"github.com/noah-isme/credit-ledger-api/internal/utils"
)

// BridgeHandler receives course completion callbacks from the learning platform.
type BridgeHandler struct {
	bridge service.CreditBridge
	logger zerolog.Logger
}

// NewBridgeHandler constructs the handler.
func NewBridgeHandler(bridge service.CreditBridge, logger zerolog.Logger) *BridgeHandler {
	return &BridgeHandler{
		bridge: bridge,
		logger: logger.With().Str("component", "bridge_handler").Logger(),
	}
}

// Register attaches the ingress route.
func (h *BridgeHandler) Register(router fiber.Router) {
	router.Post("", h.courseCompleted)
}

func (h *BridgeHandler) courseCompleted(c *fiber.Ctx) error {
	var event dto.CourseCompletedEvent
	if err := c.BodyParser(&event); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.bridge.CourseCompleted(withRequestContext(c), event)
	if err != nil {
		return respondServiceError(c, h.logger, err, "course completed")
	}

	status := fiber.StatusOK
	if result.Outcome == service.BridgeOutcomeCredited {
		status = fiber.StatusCreated
	}
	return utils.SendSuccessWithStatus(c, status, "course completion "+result.Outcome, result)
}

package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/credit-ledger-api/internal/dto"
	"github.com/noah-isme/credit-ledger-api/internal/service"
	"github.com/noah-isme/credit-ledger-api/internal/utils"
)

// ReportHandler exposes credit totals, history and the leaderboard.
type ReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
	now     func() time.Time
}

// NewReportHandler constructs the reporting handler.
func NewReportHandler(service service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("component", "report_handler").Logger(),
		now:     time.Now,
	}
}

// Register attaches the caller-scoped credit routes.
func (h *ReportHandler) Register(router fiber.Router) {
	router.Get("/summary", h.ownSummary)
	router.Get("/total", h.ownTotal)
	router.Get("/history", h.ownHistory)
	router.Get("/leaderboard", h.leaderboard)
}

// RegisterPractitioners attaches reviewer routes that inspect another practitioner.
func (h *ReportHandler) RegisterPractitioners(router fiber.Router) {
	router.Get("/:id/credits/summary", h.practitionerSummary)
	router.Get("/:id/credits/history", h.practitionerHistory)
}

func (h *ReportHandler) ownSummary(c *fiber.Ctx) error {
	return h.summary(c, actorFromContext(c).ID)
}

func (h *ReportHandler) practitionerSummary(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	return h.summary(c, id)
}

func (h *ReportHandler) summary(c *fiber.Ctx, practitionerID uint) error {
	year, err := h.yearFromQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	summary, err := h.service.Summary(withRequestContext(c), practitionerID, year)
	if err != nil {
		return respondServiceError(c, h.logger, err, "credit summary")
	}

	return utils.SendSuccess(c, "credit summary", summary)
}

func (h *ReportHandler) ownTotal(c *fiber.Ctx) error {
	year, err := h.yearFromQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	total, err := h.service.PeriodTotal(withRequestContext(c), actorFromContext(c).ID, year)
	if err != nil {
		return respondServiceError(c, h.logger, err, "period total")
	}

	return utils.SendSuccess(c, "period total", total)
}

func (h *ReportHandler) ownHistory(c *fiber.Ctx) error {
	return h.history(c, actorFromContext(c).ID)
}

func (h *ReportHandler) practitionerHistory(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	return h.history(c, id)
}

func (h *ReportHandler) history(c *fiber.Ctx, practitionerID uint) error {
	entries, err := h.service.PersonalHistory(withRequestContext(c), practitionerID)
	if err != nil {
		return respondServiceError(c, h.logger, err, "personal history")
	}

	return utils.SendSuccess(c, "credit history", entries)
}

func (h *ReportHandler) leaderboard(c *fiber.Ctx) error {
	var req dto.LeaderboardRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	entries, err := h.service.Leaderboard(withRequestContext(c), req)
	if err != nil {
		return respondServiceError(c, h.logger, err, "leaderboard")
	}

	return utils.SendSuccess(c, "leaderboard", entries)
}

func (h *ReportHandler) yearFromQuery(c *fiber.Ctx) (int, error) {
	year, err := parseQueryInt(c, "year")
	if err != nil {
		return 0, err
	}
	if year == 0 {
		return h.now().Year(), nil
	}
	if year < 1900 || year > 2100 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "year must be between 1900 and 2100")
	}
	return year, nil
}

package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/credit-ledger-api/internal/repository"
	"github.com/noah-isme/credit-ledger-api/internal/service"
	"github.com/noah-isme/credit-ledger-api/internal/utils"
)

// HistoricalHandler exposes the legacy points import.
type HistoricalHandler struct {
	service service.HistoricalImportService
	logger  zerolog.Logger
}

// NewHistoricalHandler constructs the handler.
func NewHistoricalHandler(service service.HistoricalImportService, logger zerolog.Logger) *HistoricalHandler {
	return &HistoricalHandler{
		service: service,
		logger:  logger.With().Str("component", "historical_handler").Logger(),
	}
}

// Register attaches historical points routes.
func (h *HistoricalHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("/import", h.importFile)
}

func (h *HistoricalHandler) list(c *fiber.Ctx) error {
	filter := repository.HistoricalPointsFilter{Unmatched: c.QueryBool("unmatched")}

	practitionerID, err := parseQueryUint(c, "practitioner_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	filter.PractitionerID = practitionerID

	year, err := parseQueryInt(c, "year")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	if year > 0 {
		filter.Year = &year
	}

	rows, err := h.service.List(withRequestContext(c), filter)
	if err != nil {
		return respondServiceError(c, h.logger, err, "list historical points")
	}

	return utils.SendSuccess(c, "historical points retrieved", rows)
}

func (h *HistoricalHandler) importFile(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	dryRun, _ := strconv.ParseBool(c.FormValue("dry_run", c.Query("dry_run")))

	handle, err := file.Open()
	if err != nil {
		return respondServiceError(c, h.logger, err, "open import file")
	}
	defer handle.Close()

	result, err := h.service.Import(withRequestContext(c), actorFromContext(c), file.Filename, handle, dryRun)
	if err != nil {
		return respondServiceError(c, h.logger, err, "import historical points")
	}

	message := "historical points imported"
	if dryRun {
		message = "historical points import previewed"
	}
	return utils.SendSuccess(c, message, result)
}

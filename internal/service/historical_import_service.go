package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/credit-ledger-api/internal/dto"
	"github.com/noah-isme/credit-ledger-api/internal/models"
	"github.com/noah-isme/credit-ledger-api/internal/observability"
	"github.com/noah-isme/credit-ledger-api/internal/repository"
)

// Row statuses reported by the historical import.
const (
	ImportRowMatched   = "matched"
	ImportRowUnmatched = "unmatched"
	ImportRowRejected  = "rejected"
)

const historicalDescription = "Historical points carried over"

// HistoricalImportService loads legacy point spreadsheets into the ledger's carry-over table.
type HistoricalImportService interface {
	Import(ctx context.Context, actor Actor, filename string, content io.Reader, dryRun bool) (dto.HistoricalImportResponse, error)
	List(ctx context.Context, filter repository.HistoricalPointsFilter) ([]dto.HistoricalPointsResponse, error)
}

type historicalImportService struct {
	historical    repository.HistoricalPointsRepository
	practitioners repository.PractitionerRepository
	audit         AuditRecorder
	logger        zerolog.Logger
}

// NewHistoricalImportService constructs the importer.
func NewHistoricalImportService(historical repository.HistoricalPointsRepository, practitioners repository.PractitionerRepository, audit AuditRecorder, logger zerolog.Logger) HistoricalImportService {
	return &historicalImportService{
		historical:    historical,
		practitioners: practitioners,
		audit:         audit,
		logger:        logger.With().Str("component", "historical_import").Logger(),
	}
}

type columnLayout struct {
	firstName int
	lastName  int
	year      int
	points    int
}

func (s *historicalImportService) Import(ctx context.Context, actor Actor, filename string, content io.Reader, dryRun bool) (dto.HistoricalImportResponse, error) {
	records, err := readSheet(filename, content)
	if err != nil {
		return dto.HistoricalImportResponse{}, err
	}
	if len(records) < 2 {
		return dto.HistoricalImportResponse{}, fmt.Errorf("%w: file has no data rows", ErrUnsupportedImport)
	}

	layout, err := detectColumns(records[0])
	if err != nil {
		return dto.HistoricalImportResponse{}, err
	}

	directory, err := s.practitioners.ListByRoles(ctx, nil)
	if err != nil {
		return dto.HistoricalImportResponse{}, err
	}
	byName := make(map[string]uint, len(directory))
	for _, practitioner := range directory {
		byName[nameKey(practitioner.FirstName, practitioner.LastName)] = practitioner.ID
	}

	response := dto.HistoricalImportResponse{DryRun: dryRun, Rows: make([]dto.HistoricalImportRow, 0, len(records)-1)}
	pending := make([]models.HistoricalPoints, 0, len(records)-1)

	for i, record := range records[1:] {
		if blankRecord(record) {
			continue
		}

		row := dto.HistoricalImportRow{
			Line:      i + 2,
			FirstName: cell(record, layout.firstName),
			LastName:  cell(record, layout.lastName),
		}
		if len(record) < layout.width() {
			row.Status = ImportRowRejected
			row.Message = fmt.Sprintf("row has %d of %d columns", len(record), layout.width())
			response.Rejected++
			response.Rows = append(response.Rows, row)
			continue
		}
		if row.FirstName == "" {
			continue
		}

		year, err := strconv.Atoi(cell(record, layout.year))
		if err != nil || year < 1900 || year > 2100 {
			row.Status = ImportRowRejected
			row.Message = fmt.Sprintf("invalid year %q", cell(record, layout.year))
			response.Rejected++
			response.Rows = append(response.Rows, row)
			continue
		}
		row.Year = year

		points, err := parsePoints(cell(record, layout.points))
		if err != nil {
			row.Status = ImportRowRejected
			row.Message = fmt.Sprintf("invalid points %q", cell(record, layout.points))
			response.Rejected++
			response.Rows = append(response.Rows, row)
			continue
		}
		row.Points = points

		model := models.HistoricalPoints{
			SourceFirstName: row.FirstName,
			SourceLastName:  row.LastName,
			Year:            year,
			Points:          points,
			Description:     historicalDescription,
		}
		if id, ok := byName[nameKey(row.FirstName, row.LastName)]; ok {
			practitionerID := id
			model.PractitionerID = &practitionerID
			row.PractitionerID = &practitionerID
			row.Status = ImportRowMatched
			response.Matched++
		} else {
			row.Status = ImportRowUnmatched
			row.Message = "no practitioner with this name"
			response.Unmatched++
		}

		pending = append(pending, model)
		response.Rows = append(response.Rows, row)
	}

	if !dryRun {
		if err := s.historical.CreateBatch(ctx, pending); err != nil {
			return dto.HistoricalImportResponse{}, err
		}
		response.Imported = len(pending)

		observability.HistoricalImportRows().WithLabelValues(ImportRowMatched).Add(float64(response.Matched))
		observability.HistoricalImportRows().WithLabelValues(ImportRowUnmatched).Add(float64(response.Unmatched))
		observability.HistoricalImportRows().WithLabelValues(ImportRowRejected).Add(float64(response.Rejected))

		recordAudit(ctx, s.audit, s.logger, AuditEntry{
			Actor:      actor,
			Action:     "historical.imported",
			EntityType: "historical_points",
			Metadata: map[string]interface{}{
				"file":      filepath.Base(filename),
				"imported":  response.Imported,
				"matched":   response.Matched,
				"unmatched": response.Unmatched,
				"rejected":  response.Rejected,
			},
		})
	}

	s.logger.Info().
		Str("file", filepath.Base(filename)).
		Bool("dry_run", dryRun).
		Int("matched", response.Matched).
		Int("unmatched", response.Unmatched).
		Int("rejected", response.Rejected).
		Msg("historical points import finished")

	return response, nil
}

func (s *historicalImportService) List(ctx context.Context, filter repository.HistoricalPointsFilter) ([]dto.HistoricalPointsResponse, error) {
	rows, err := s.historical.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.HistoricalPointsResponse, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, dto.NewHistoricalPointsResponse(row))
	}

	return responses, nil
}

func readSheet(filename string, content io.Reader) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return readDelimited(content)
	case ".xlsx":
		return readWorkbook(content)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImport, filepath.Ext(filename))
	}
}

func readDelimited(content io.Reader) ([][]string, error) {
	buffered := bufio.NewReader(content)
	header, err := buffered.Peek(buffered.Size())
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}

	firstLine := header
	if idx := bytes.IndexByte(header, '\n'); idx >= 0 {
		firstLine = header[:idx]
	}

	reader := csv.NewReader(buffered)
	reader.Comma = ','
	if bytes.ContainsRune(firstLine, ';') {
		reader.Comma = ';'
	}
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImport, err)
	}

	return records, nil
}

func readWorkbook(content io.Reader) ([][]string, error) {
	workbook, err := excelize.OpenReader(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImport, err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnsupportedImport)
	}

	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImport, err)
	}

	return rows, nil
}

func detectColumns(header []string) (columnLayout, error) {
	layout := columnLayout{firstName: -1, lastName: -1, year: -1, points: -1}

	for idx, raw := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff")))
		switch {
		case layout.lastName < 0 && containsAny(name, "van", "surname", "last"):
			layout.lastName = idx
		case layout.firstName < 0 && containsAny(name, "naam", "first", "name"):
			layout.firstName = idx
		case layout.year < 0 && containsAny(name, "jaar", "year"):
			layout.year = idx
		case layout.points < 0 && containsAny(name, "punt", "krediet", "point", "credit"):
			layout.points = idx
		}
	}

	if layout.firstName < 0 || layout.lastName < 0 || layout.year < 0 || layout.points < 0 {
		return columnLayout{}, fmt.Errorf("%w: header must name first name, last name, year and points columns", ErrUnsupportedImport)
	}

	return layout, nil
}

func (l columnLayout) width() int {
	width := 0
	for _, idx := range []int{l.firstName, l.lastName, l.year, l.points} {
		if idx+1 > width {
			width = idx + 1
		}
	}
	return width
}

func blankRecord(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

func parsePoints(raw string) (float64, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if normalized == "" {
		return 0, errors.New("empty")
	}

	points, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(points) || math.IsInf(points, 0) {
		return 0, errors.New("not a finite number")
	}
	return points, nil
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func nameKey(first, last string) string {
	return strings.ToLower(strings.TrimSpace(first)) + "|" + strings.ToLower(strings.TrimSpace(last))
}

func containsAny(value string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(value, needle) {
			return true
		}
	}
	return false
}

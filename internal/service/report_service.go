package service

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/credit-ledger-api/internal/dto"
	"github.com/noah-isme/credit-ledger-api/internal/models"
	"github.com/noah-isme/credit-ledger-api/internal/repository"
)

// DefaultCycleTarget is the credit goal a practitioner works towards.
const DefaultCycleTarget = 150

// Kinds of personal history rows.
const (
	HistoryKindSubmission = "submission"
	HistoryKindHistorical = "historical"
)

// ReportService answers read-only questions about the ledger. Totals are computed at query time.
type ReportService interface {
	PeriodTotal(ctx context.Context, practitionerID uint, year int) (dto.PeriodTotalResponse, error)
	ProgressTowardTarget(ctx context.Context, practitionerID uint, year int) (float64, error)
	PersonalHistory(ctx context.Context, practitionerID uint) ([]dto.HistoryEntry, error)
	Leaderboard(ctx context.Context, req dto.LeaderboardRequest) ([]dto.LeaderboardEntry, error)
	Summary(ctx context.Context, practitionerID uint, year int) (dto.CreditSummaryResponse, error)
}

type reportService struct {
	ledger        repository.LedgerReportRepository
	historical    repository.HistoricalPointsRepository
	practitioners repository.PractitionerRepository
	validator     *validator.Validate
	target        int
	logger        zerolog.Logger
	tracer        trace.Tracer
}

// NewReportService constructs the aggregation engine.
func NewReportService(
	ledger repository.LedgerReportRepository,
	historical repository.HistoricalPointsRepository,
	practitioners repository.PractitionerRepository,
	validate *validator.Validate,
	target int,
	logger zerolog.Logger,
) ReportService {
	if target <= 0 {
		target = DefaultCycleTarget
	}

	return &reportService{
		ledger:        ledger,
		historical:    historical,
		practitioners: practitioners,
		validator:     validate,
		target:        target,
		logger:        logger.With().Str("component", "report_service").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/credit-ledger-api/internal/service/report"),
	}
}

func (s *reportService) PeriodTotal(ctx context.Context, practitionerID uint, year int) (dto.PeriodTotalResponse, error) {
	total, err := s.ledger.SumApproved(ctx, practitionerID, &year)
	if err != nil {
		return dto.PeriodTotalResponse{}, err
	}

	return dto.PeriodTotalResponse{
		PractitionerID: practitionerID,
		Year:           year,
		Total:          total,
		Target:         s.target,
		Progress:       s.progress(total),
	}, nil
}

func (s *reportService) ProgressTowardTarget(ctx context.Context, practitionerID uint, year int) (float64, error) {
	total, err := s.PeriodTotal(ctx, practitionerID, year)
	if err != nil {
		return 0, err
	}

	return total.Progress, nil
}

func (s *reportService) PersonalHistory(ctx context.Context, practitionerID uint) ([]dto.HistoryEntry, error) {
	spanCtx, span := s.tracer.Start(ctx, "report.personal_history", trace.WithAttributes(
		attribute.Int64("report.practitioner_id", int64(practitionerID)),
	))
	defer span.End()

	var (
		approved   []models.CreditSubmission
		historical []models.HistoricalPoints
	)

	group, groupCtx := errgroup.WithContext(spanCtx)
	group.Go(func() error {
		rows, err := s.ledger.ListApproved(groupCtx, practitionerID)
		approved = rows
		return err
	})
	group.Go(func() error {
		rows, err := s.historical.List(groupCtx, repository.HistoricalPointsFilter{PractitionerID: &practitionerID})
		historical = rows
		return err
	})
	if err := group.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	entries := make([]dto.HistoryEntry, 0, len(approved)+len(historical))
	for _, submission := range approved {
		id := submission.ID
		entries = append(entries, dto.HistoryEntry{
			Kind:         HistoryKindSubmission,
			Year:         submission.PeriodYear,
			Title:        submission.ActivityTitle,
			Category:     submission.ActivityCategory,
			Credits:      float64(submission.CreditValue),
			IsAutomatic:  submission.IsAutomatic,
			SubmissionID: &id,
			OccurredAt:   submission.DecidedAt,
		})
	}
	for _, row := range historical {
		id := row.ID
		createdAt := row.CreatedAt
		title := row.Description
		if title == "" {
			title = "Historical points"
		}
		entries = append(entries, dto.HistoryEntry{
			Kind:         HistoryKindHistorical,
			Year:         row.Year,
			Title:        title,
			Credits:      row.Points,
			HistoricalID: &id,
			OccurredAt:   &createdAt,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Year != entries[j].Year {
			return entries[i].Year > entries[j].Year
		}
		return laterThan(entries[i].OccurredAt, entries[j].OccurredAt)
	})

	return entries, nil
}

func (s *reportService) Leaderboard(ctx context.Context, req dto.LeaderboardRequest) ([]dto.LeaderboardEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	spanCtx, span := s.tracer.Start(ctx, "report.leaderboard")
	defer span.End()

	ranked, err := s.rank(spanCtx, req.Year)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if req.Limit > 0 && len(ranked) > req.Limit {
		ranked = ranked[:req.Limit]
	}

	ids := make([]uint, 0, len(ranked))
	for _, entry := range ranked {
		ids = append(ids, entry.PractitionerID)
	}

	practitioners, err := s.practitioners.ListByIDs(spanCtx, ids)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	names := make(map[uint]string, len(practitioners))
	for _, practitioner := range practitioners {
		names[practitioner.ID] = practitioner.DisplayName()
	}
	for i := range ranked {
		ranked[i].Name = names[ranked[i].PractitionerID]
	}

	return ranked, nil
}

func (s *reportService) Summary(ctx context.Context, practitionerID uint, year int) (dto.CreditSummaryResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "report.summary", trace.WithAttributes(
		attribute.Int64("report.practitioner_id", int64(practitionerID)),
		attribute.Int("report.year", year),
	))
	defer span.End()

	summary := dto.CreditSummaryResponse{
		PractitionerID: practitionerID,
		Year:           year,
		Target:         s.target,
	}

	var (
		counts []repository.StatusCount
		ranked []dto.LeaderboardEntry
	)

	group, groupCtx := errgroup.WithContext(spanCtx)
	group.Go(func() error {
		total, err := s.ledger.SumApproved(groupCtx, practitionerID, &year)
		summary.PeriodTotal = total
		return err
	})
	group.Go(func() error {
		total, err := s.ledger.SumApproved(groupCtx, practitionerID, nil)
		summary.LifetimeCredits = total
		return err
	})
	group.Go(func() error {
		rows, err := s.ledger.CountByStatus(groupCtx, practitionerID, year)
		counts = rows
		return err
	})
	group.Go(func() error {
		points, err := s.historical.SumForPractitioner(groupCtx, practitionerID)
		summary.HistoricalPoints = points
		return err
	})
	group.Go(func() error {
		rows, err := s.rank(groupCtx, nil)
		ranked = rows
		return err
	})
	if err := group.Wait(); err != nil {
		span.RecordError(err)
		s.logger.Error().Err(err).Uint("practitioner_id", practitionerID).Msg("failed to build credit summary")
		return dto.CreditSummaryResponse{}, err
	}

	summary.Progress = s.progress(summary.PeriodTotal)
	summary.PersonalTotal = float64(summary.LifetimeCredits) + summary.HistoricalPoints
	for _, count := range counts {
		switch count.Status {
		case models.SubmissionStatusApproved:
			summary.ApprovedCount = count.Count
		case models.SubmissionStatusPending:
			summary.PendingCount = count.Count
		case models.SubmissionStatusRejected:
			summary.RejectedCount = count.Count
		}
	}

	summary.RankedPractitioners = len(ranked)
	for _, entry := range ranked {
		if entry.PractitionerID == practitionerID {
			summary.Rank = entry.Rank
			break
		}
	}

	return summary, nil
}

// rank folds approved ledger rows into an ordered standing: total desc, earliest decision asc, id asc.
func (s *reportService) rank(ctx context.Context, year *int) ([]dto.LeaderboardEntry, error) {
	entries, err := s.ledger.ListApprovedEntries(ctx, year)
	if err != nil {
		return nil, err
	}

	index := make(map[uint]int)
	ranked := make([]dto.LeaderboardEntry, 0)
	for _, entry := range entries {
		pos, ok := index[entry.PractitionerID]
		if !ok {
			pos = len(ranked)
			index[entry.PractitionerID] = pos
			ranked = append(ranked, dto.LeaderboardEntry{PractitionerID: entry.PractitionerID})
		}

		ranked[pos].Total += int64(entry.CreditValue)
		if entry.DecidedAt != nil && (ranked[pos].FirstDecidedAt == nil || entry.DecidedAt.Before(*ranked[pos].FirstDecidedAt)) {
			decidedAt := *entry.DecidedAt
			ranked[pos].FirstDecidedAt = &decidedAt
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		if earlier(a.FirstDecidedAt, b.FirstDecidedAt) {
			return true
		}
		if earlier(b.FirstDecidedAt, a.FirstDecidedAt) {
			return false
		}
		return a.PractitionerID < b.PractitionerID
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return ranked, nil
}

func (s *reportService) progress(total int64) float64 {
	ratio := float64(total) / float64(s.target)
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

// earlier orders known timestamps before unknown ones.
func earlier(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return a.Before(*b)
}

func laterThan(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return a.After(*b)
}

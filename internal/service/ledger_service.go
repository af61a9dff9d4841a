package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/credit-ledger-api/internal/dto"
	"github.com/noah-isme/credit-ledger-api/internal/models"
	"github.com/noah-isme/credit-ledger-api/internal/observability"
	"github.com/noah-isme/credit-ledger-api/internal/repository"
)

// LedgerService owns the submission lifecycle: manual claims, moderator decisions and automatic credits.
type LedgerService interface {
	Submit(ctx context.Context, actor Actor, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	Decide(ctx context.Context, actor Actor, submissionID uint, payload dto.SubmissionDecisionRequest) (dto.SubmissionResponse, error)
	RecordAutomatic(ctx context.Context, payload dto.AutomaticCreditRequest) (dto.SubmissionResponse, bool, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.SubmissionResponse, error)
	List(ctx context.Context, actor Actor, filter dto.SubmissionFilter) (dto.SubmissionListResponse, error)
}

type ledgerService struct {
	submissions repository.SubmissionRepository
	activities  repository.ActivityRepository
	validator   *validator.Validate
	audit       AuditRecorder
	events      LedgerEventPublisher
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewLedgerService wires the submission ledger.
func NewLedgerService(
	submissions repository.SubmissionRepository,
	activities repository.ActivityRepository,
	validate *validator.Validate,
	audit AuditRecorder,
	events LedgerEventPublisher,
	logger zerolog.Logger,
) LedgerService {
	if events == nil {
		events = NewNoopEventPublisher()
	}

	return &ledgerService{
		submissions: submissions,
		activities:  activities,
		validator:   validate,
		audit:       audit,
		events:      events,
		logger:      logger.With().Str("component", "ledger_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/credit-ledger-api/internal/service/ledger"),
		now:         time.Now,
	}
}

func (s *ledgerService) Submit(ctx context.Context, actor Actor, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "ledger.submit", trace.WithAttributes(
		attribute.Int64("ledger.practitioner_id", int64(actor.ID)),
		attribute.Int64("ledger.activity_id", int64(payload.ActivityID)),
	))
	defer span.End()

	activity, err := s.loadActivity(spanCtx, payload.ActivityID)
	if err != nil {
		return dto.SubmissionResponse{}, s.fail(span, "submit", err)
	}
	if !activity.Active {
		return dto.SubmissionResponse{}, s.fail(span, "submit", ErrInvalidActivity)
	}

	evidenceReference := cleanText(payload.EvidenceReference)
	if activity.EvidenceRequired && evidenceReference == "" {
		return dto.SubmissionResponse{}, s.fail(span, "submit", ErrEvidenceRequired)
	}

	credit := activity.CreditValue
	if activity.IsMeritBased() {
		if payload.RequestedCredit == nil || *payload.RequestedCredit <= 0 {
			return dto.SubmissionResponse{}, s.fail(span, "submit", validationErrorf("requested_credit must be greater than zero for merit-based activities"))
		}
		credit = *payload.RequestedCredit
	}

	year := payload.PeriodYear
	if year == 0 {
		year = s.now().Year()
	}

	if _, err := s.submissions.FindActiveClaim(spanCtx, actor.ID, activity.ID, year); err == nil {
		return dto.SubmissionResponse{}, s.fail(span, "submit", ErrDuplicateClaim)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubmissionResponse{}, s.fail(span, "submit", err)
	}

	claimKey := models.ClaimKeyFor(actor.ID, activity.ID, year)
	submission := models.CreditSubmission{
		PractitionerID:    actor.ID,
		ActivityID:        activity.ID,
		ActivityTitle:     activity.Title,
		ActivityCategory:  activity.Category,
		CreditValue:       credit,
		RequestedCredit:   credit,
		MeritBased:        activity.IsMeritBased(),
		Status:            models.SubmissionStatusPending,
		Notes:             cleanText(payload.Notes),
		EvidenceReference: evidenceReference,
		EvidenceName:      cleanText(payload.EvidenceName),
		PeriodYear:        year,
		ClaimKey:          &claimKey,
	}

	if err := s.submissions.Create(spanCtx, &submission); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			err = ErrDuplicateClaim
		}
		return dto.SubmissionResponse{}, s.fail(span, "submit", err)
	}

	observability.Submissions().WithLabelValues("created").Inc()
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("practitioner_id", submission.PractitionerID).
		Uint("activity_id", submission.ActivityID).
		Int("period_year", year).
		Msg("credit claim submitted")

	recordAudit(spanCtx, s.audit, s.logger, AuditEntry{
		Actor:      actor,
		Action:     "submission.created",
		EntityType: "submission",
		EntityID:   &submission.ID,
		Metadata: map[string]interface{}{
			"activity_id":  activity.ID,
			"credit_value": credit,
			"period_year":  year,
		},
	})

	return dto.NewSubmissionResponse(submission), nil
}

func (s *ledgerService) Decide(ctx context.Context, actor Actor, submissionID uint, payload dto.SubmissionDecisionRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "ledger.decide", trace.WithAttributes(
		attribute.Int64("ledger.submission_id", int64(submissionID)),
		attribute.String("ledger.outcome", payload.Outcome),
	))
	defer span.End()

	current, err := s.loadSubmission(spanCtx, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, s.fail(span, "decide", err)
	}
	if current.IsAutomatic || current.IsDecided() {
		return dto.SubmissionResponse{}, s.fail(span, "decide", ErrInvalidState)
	}

	decision := repository.Decision{
		SubmissionID:   submissionID,
		Status:         payload.Outcome,
		ReviewerID:     actor.ID,
		ModeratorNotes: cleanText(payload.ModeratorNotes),
		DecidedAt:      s.now().UTC(),
	}

	if payload.Outcome == models.SubmissionStatusApproved {
		// merit-ness is fixed at submit time; later catalog edits do not apply
		if current.MeritBased && payload.FinalCredit == nil {
			return dto.SubmissionResponse{}, s.fail(span, "decide", validationErrorf("final_credit is required when approving a merit-based activity"))
		}
		decision.CreditValue = payload.FinalCredit
	}

	applied, err := s.submissions.Decide(spanCtx, decision)
	if err != nil {
		return dto.SubmissionResponse{}, s.fail(span, "decide", err)
	}
	if !applied {
		if _, err := s.loadSubmission(spanCtx, submissionID); err != nil {
			return dto.SubmissionResponse{}, s.fail(span, "decide", err)
		}
		return dto.SubmissionResponse{}, s.fail(span, "decide", ErrInvalidState)
	}

	decided, err := s.loadSubmission(spanCtx, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, s.fail(span, "decide", err)
	}

	observability.Decisions().WithLabelValues(decided.Status).Inc()
	s.logger.Info().
		Uint("submission_id", decided.ID).
		Uint("reviewer_id", actor.ID).
		Str("status", decided.Status).
		Int("credit_value", decided.CreditValue).
		Msg("credit claim decided")

	response := dto.NewSubmissionResponse(decided)
	if err := s.events.SubmissionDecided(spanCtx, response); err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", decided.ID).Msg("failed to publish decision event")
	}

	recordAudit(spanCtx, s.audit, s.logger, AuditEntry{
		Actor:      actor,
		Action:     "submission." + decided.Status,
		EntityType: "submission",
		EntityID:   &decided.ID,
		Metadata: map[string]interface{}{
			"requested_credit": current.RequestedCredit,
			"credit_value":     decided.CreditValue,
		},
	})

	return response, nil
}

// RecordAutomatic inserts an approved system credit. The boolean reports whether a new row was written.
func (s *ledgerService) RecordAutomatic(ctx context.Context, payload dto.AutomaticCreditRequest) (dto.SubmissionResponse, bool, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, false, err
	}

	spanCtx, span := s.tracer.Start(ctx, "ledger.record_automatic", trace.WithAttributes(
		attribute.Int64("ledger.practitioner_id", int64(payload.PractitionerID)),
		attribute.Int64("ledger.activity_id", int64(payload.ActivityID)),
	))
	defer span.End()

	activity, err := s.loadActivity(spanCtx, payload.ActivityID)
	if err != nil {
		return dto.SubmissionResponse{}, false, s.fail(span, "record_automatic", err)
	}
	if !activity.AllowsAutomaticCredit() {
		return dto.SubmissionResponse{}, false, s.fail(span, "record_automatic", ErrInvalidActivity)
	}

	decidedAt := s.now().UTC()
	claimKey := models.ClaimKeyFor(payload.PractitionerID, activity.ID, payload.PeriodYear)
	automaticKey := models.AutomaticKeyFor(payload.PractitionerID, activity.ID)
	submission := models.CreditSubmission{
		PractitionerID:   payload.PractitionerID,
		ActivityID:       activity.ID,
		ActivityTitle:    activity.Title,
		ActivityCategory: activity.Category,
		CreditValue:      payload.Credit,
		RequestedCredit:  payload.Credit,
		MeritBased:       activity.IsMeritBased(),
		Status:           models.SubmissionStatusApproved,
		IsAutomatic:      true,
		CourseID:         activity.LinkedCourseID,
		PeriodYear:       payload.PeriodYear,
		DecidedAt:        &decidedAt,
		ClaimKey:         &claimKey,
		AutomaticKey:     &automaticKey,
	}

	created, err := s.submissions.CreateIfAbsent(spanCtx, &submission)
	if err != nil {
		return dto.SubmissionResponse{}, false, s.fail(span, "record_automatic", err)
	}

	if !created {
		existing, err := s.submissions.FindAutomatic(spanCtx, payload.PractitionerID, activity.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.SubmissionResponse{}, false, s.fail(span, "record_automatic", ErrDuplicateClaim)
			}
			return dto.SubmissionResponse{}, false, s.fail(span, "record_automatic", err)
		}
		span.SetAttributes(attribute.Bool("ledger.created", false))
		return dto.NewSubmissionResponse(existing), false, nil
	}

	span.SetAttributes(attribute.Bool("ledger.created", true))
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("practitioner_id", submission.PractitionerID).
		Uint("activity_id", submission.ActivityID).
		Int("credit_value", submission.CreditValue).
		Msg("automatic credit recorded")

	response := dto.NewSubmissionResponse(submission)
	if err := s.events.AutomaticCredited(spanCtx, response); err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to publish automatic credit event")
	}

	recordAudit(spanCtx, s.audit, s.logger, AuditEntry{
		Actor:      SystemActor,
		Action:     "submission.automatic",
		EntityType: "submission",
		EntityID:   &submission.ID,
		Metadata: map[string]interface{}{
			"practitioner_id": submission.PractitionerID,
			"course_id":       submission.CourseID,
			"credit_value":    submission.CreditValue,
		},
	})

	return response, true, nil
}

func (s *ledgerService) Get(ctx context.Context, actor Actor, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.loadSubmission(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if actor.Role == models.RolePractitioner && submission.PractitionerID != actor.ID {
		return dto.SubmissionResponse{}, ErrSubmissionNotFound
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *ledgerService) List(ctx context.Context, actor Actor, filter dto.SubmissionFilter) (dto.SubmissionListResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return dto.SubmissionListResponse{}, err
	}

	if actor.Role == models.RolePractitioner {
		own := actor.ID
		filter.PractitionerID = &own
	}

	items, total, err := s.submissions.List(ctx, repository.SubmissionFilter{
		PractitionerID: filter.PractitionerID,
		ActivityID:     filter.ActivityID,
		Status:         filter.Status,
		PeriodYear:     filter.PeriodYear,
		IsAutomatic:    filter.IsAutomatic,
		Page:           filter.Page,
		PageSize:       filter.PageSize,
	})
	if err != nil {
		return dto.SubmissionListResponse{}, err
	}

	return dto.SubmissionListResponse{
		Items:      dto.NewSubmissionResponseSlice(items),
		Pagination: dto.NewPaginationMeta(filter.Page, filter.PageSize, total),
	}, nil
}

func (s *ledgerService) loadActivity(ctx context.Context, id uint) (models.Activity, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Activity{}, ErrActivityNotFound
		}
		return models.Activity{}, err
	}

	return activity, nil
}

func (s *ledgerService) loadSubmission(ctx context.Context, id uint) (models.CreditSubmission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.CreditSubmission{}, ErrSubmissionNotFound
		}
		return models.CreditSubmission{}, err
	}

	return submission, nil
}

// fail records the error on the span and the outcome metric before returning it unchanged.
func (s *ledgerService) fail(span trace.Span, operation string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	outcome := outcomeLabel(err)
	switch operation {
	case "submit":
		observability.Submissions().WithLabelValues(outcome).Inc()
	case "decide":
		observability.Decisions().WithLabelValues(outcome).Inc()
	}

	return err
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrEvidenceRequired):
		return "evidence_required"
	case errors.Is(err, ErrDuplicateClaim):
		return "duplicate"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrInvalidActivity):
		return "invalid_activity"
	case errors.Is(err, ErrActivityNotFound), errors.Is(err, ErrSubmissionNotFound):
		return "not_found"
	default:
		return "error"
	}
}

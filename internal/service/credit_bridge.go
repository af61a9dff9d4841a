package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/credit-ledger-api/internal/dto"
	"github.com/noah-isme/credit-ledger-api/internal/observability"
	"github.com/noah-isme/credit-ledger-api/internal/repository"
)

// Outcomes reported by the automatic credit bridge.
const (
	BridgeOutcomeCredited         = "credited"
	BridgeOutcomeAlreadyCredited  = "already_credited"
	BridgeOutcomeNoActivity       = "no_activity"
	BridgeOutcomeActivityInactive = "activity_inactive"
	BridgeOutcomeClaimExists      = "claim_exists"
	BridgeOutcomeDuplicate        = "duplicate"
)

// CreditBridge turns course completions into automatic ledger credits.
type CreditBridge interface {
	CourseCompleted(ctx context.Context, event dto.CourseCompletedEvent) (dto.CourseCompletedResult, error)
}

// CreditBridgeConfig tunes the bridge.
type CreditBridgeConfig struct {
	DefaultCredit int
	DedupeTTL     time.Duration
}

type creditBridge struct {
	activities repository.ActivityRepository
	ledger     LedgerService
	cache      *redis.Client
	validator  *validator.Validate
	config     CreditBridgeConfig
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewCreditBridge constructs the bridge. The Redis client is optional and only short-circuits redeliveries.
func NewCreditBridge(activities repository.ActivityRepository, ledger LedgerService, cache *redis.Client, validate *validator.Validate, cfg CreditBridgeConfig, logger zerolog.Logger) CreditBridge {
	if cfg.DedupeTTL <= 0 {
		cfg.DedupeTTL = 10 * time.Minute
	}
	if cfg.DefaultCredit <= 0 {
		cfg.DefaultCredit = 5
	}

	return &creditBridge{
		activities: activities,
		ledger:     ledger,
		cache:      cache,
		validator:  validate,
		config:     cfg,
		logger:     logger.With().Str("component", "credit_bridge").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/credit-ledger-api/internal/service/bridge"),
		now:        time.Now,
	}
}

func (b *creditBridge) CourseCompleted(ctx context.Context, event dto.CourseCompletedEvent) (result dto.CourseCompletedResult, err error) {
	if err := b.validator.Struct(event); err != nil {
		return dto.CourseCompletedResult{}, err
	}

	spanCtx, span := b.tracer.Start(ctx, "bridge.course_completed", trace.WithAttributes(
		attribute.Int64("bridge.practitioner_id", int64(event.PractitionerID)),
		attribute.Int64("bridge.course_id", int64(event.CourseID)),
	))
	defer span.End()

	logger := b.logger.With().Uint("practitioner_id", event.PractitionerID).Uint("course_id", event.CourseID).Logger()

	key := b.dedupeKey(event)
	held := false
	if b.cache != nil {
		acquired, lockErr := b.cache.SetNX(spanCtx, key, b.now().UTC().Format(time.RFC3339), b.config.DedupeTTL).Result()
		switch {
		case lockErr != nil:
			logger.Warn().Err(lockErr).Msg("dedupe cache unavailable, relying on storage uniqueness")
		case !acquired:
			logger.Debug().Msg("course completion already in flight")
			observability.AutomaticCredits().WithLabelValues(BridgeOutcomeDuplicate).Inc()
			return dto.CourseCompletedResult{Outcome: BridgeOutcomeDuplicate}, nil
		default:
			held = true
		}
	}

	defer func() {
		if held && (err != nil || !holdsDedupe(result.Outcome)) {
			b.release(context.WithoutCancel(spanCtx), key, logger)
		}
		label := result.Outcome
		if err != nil {
			label = "error"
			span.RecordError(err)
		}
		span.SetAttributes(attribute.String("bridge.outcome", label))
		observability.AutomaticCredits().WithLabelValues(label).Inc()
	}()

	activity, err := b.activities.GetByLinkedCourse(spanCtx, event.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Debug().Msg("no activity linked to course")
			return dto.CourseCompletedResult{Outcome: BridgeOutcomeNoActivity}, nil
		}
		return dto.CourseCompletedResult{}, fmt.Errorf("lookup linked activity: %w", err)
	}

	activityID := activity.ID
	if !activity.Active {
		logger.Info().Uint("activity_id", activityID).Msg("linked activity inactive, completion ignored")
		return dto.CourseCompletedResult{Outcome: BridgeOutcomeActivityInactive, ActivityID: &activityID}, nil
	}

	credit := activity.CreditValue
	if activity.IsMeritBased() {
		credit = b.config.DefaultCredit
	}

	completedAt := b.now()
	if event.CompletedAt != nil && !event.CompletedAt.IsZero() {
		completedAt = *event.CompletedAt
	}

	submission, created, err := b.ledger.RecordAutomatic(spanCtx, dto.AutomaticCreditRequest{
		PractitionerID: event.PractitionerID,
		ActivityID:     activity.ID,
		Credit:         credit,
		PeriodYear:     completedAt.UTC().Year(),
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateClaim) {
			logger.Info().Uint("activity_id", activityID).Msg("manual claim already holds the period, automatic credit skipped")
			return dto.CourseCompletedResult{Outcome: BridgeOutcomeClaimExists, ActivityID: &activityID}, nil
		}
		return dto.CourseCompletedResult{}, err
	}

	outcome := BridgeOutcomeAlreadyCredited
	if created {
		outcome = BridgeOutcomeCredited
	}
	logger.Info().Uint("activity_id", activityID).Str("outcome", outcome).Msg("course completion processed")

	return dto.CourseCompletedResult{
		Outcome:    outcome,
		ActivityID: &activityID,
		Submission: &submission,
	}, nil
}

func (b *creditBridge) dedupeKey(event dto.CourseCompletedEvent) string {
	return fmt.Sprintf("ledger:bridge:%d:%d", event.PractitionerID, event.CourseID)
}

func (b *creditBridge) release(ctx context.Context, key string, logger zerolog.Logger) {
	if err := b.cache.Del(ctx, key).Err(); err != nil {
		logger.Warn().Err(err).Msg("failed to release dedupe key")
	}
}

// holdsDedupe reports whether the short-circuit key should outlive the call.
func holdsDedupe(outcome string) bool {
	return outcome == BridgeOutcomeCredited || outcome == BridgeOutcomeAlreadyCredited
}

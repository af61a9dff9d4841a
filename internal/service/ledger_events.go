package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/credit-ledger-api/internal/dto"
)

// LedgerEvent is the JSON envelope published for ledger state changes.
type LedgerEvent struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Submission dto.SubmissionResponse `json:"submission"`
}

// LedgerEventPublisher announces ledger changes to downstream consumers.
type LedgerEventPublisher interface {
	SubmissionDecided(ctx context.Context, submission dto.SubmissionResponse) error
	AutomaticCredited(ctx context.Context, submission dto.SubmissionResponse) error
}

type natsEventPublisher struct {
	conn   *nats.Conn
	base   string
	logger zerolog.Logger
}

// NewNATSEventPublisher publishes ledger events on "<base>.submission.decided" and "<base>.credit.automatic".
func NewNATSEventPublisher(conn *nats.Conn, subjectBase string, logger zerolog.Logger) LedgerEventPublisher {
	base := strings.Trim(strings.TrimSpace(subjectBase), ".")
	if base == "" {
		base = "ledger"
	}

	return &natsEventPublisher{
		conn:   conn,
		base:   base,
		logger: logger.With().Str("component", "ledger_events").Logger(),
	}
}

func (p *natsEventPublisher) SubmissionDecided(ctx context.Context, submission dto.SubmissionResponse) error {
	return p.publish(ctx, "submission.decided", submission)
}

func (p *natsEventPublisher) AutomaticCredited(ctx context.Context, submission dto.SubmissionResponse) error {
	return p.publish(ctx, "credit.automatic", submission)
}

func (p *natsEventPublisher) publish(ctx context.Context, kind string, submission dto.SubmissionResponse) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(LedgerEvent{
		Type:       kind,
		OccurredAt: time.Now().UTC(),
		Submission: submission,
	})
	if err != nil {
		return fmt.Errorf("encode %s event: %w", kind, err)
	}

	subject := p.base + "." + kind
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	p.logger.Debug().Str("subject", subject).Uint("submission_id", submission.ID).Msg("ledger event published")
	return nil
}

type noopEventPublisher struct{}

// NewNoopEventPublisher returns a publisher that drops every event.
func NewNoopEventPublisher() LedgerEventPublisher {
	return noopEventPublisher{}
}

func (noopEventPublisher) SubmissionDecided(context.Context, dto.SubmissionResponse) error {
	return nil
}

func (noopEventPublisher) AutomaticCredited(context.Context, dto.SubmissionResponse) error {
	return nil
}

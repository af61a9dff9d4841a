package service

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/credit-ledger-api/internal/dto"
)

//go:embed schemas/course_completed.schema.json
var courseCompletedSchema []byte

const courseCompletedSchemaURL = "https://credit-ledger.local/schemas/course_completed.schema.json"

// CourseCompletionConsumer feeds course completion events from the bus into the credit bridge.
type CourseCompletionConsumer struct {
	conn    *nats.Conn
	bridge  CreditBridge
	subject string
	queue   string
	schema  *jsonschema.Schema
	logger  zerolog.Logger
}

// NewCourseCompletionConsumer compiles the payload schema and prepares the subscription.
func NewCourseCompletionConsumer(conn *nats.Conn, bridge CreditBridge, subject, queue string, logger zerolog.Logger) (*CourseCompletionConsumer, error) {
	schema, err := compileCourseCompletedSchema()
	if err != nil {
		return nil, err
	}

	return &CourseCompletionConsumer{
		conn:    conn,
		bridge:  bridge,
		subject: subject,
		queue:   queue,
		schema:  schema,
		logger:  logger.With().Str("component", "course_completion_consumer").Str("subject", subject).Logger(),
	}, nil
}

func compileCourseCompletedSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(courseCompletedSchemaURL, bytes.NewReader(courseCompletedSchema)); err != nil {
		return nil, fmt.Errorf("load course completed schema: %w", err)
	}

	schema, err := compiler.Compile(courseCompletedSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile course completed schema: %w", err)
	}

	return schema, nil
}

// Start subscribes with a queue group and drains the subscription once ctx is done.
func (c *CourseCompletionConsumer) Start(ctx context.Context) error {
	if c.conn == nil {
		return fmt.Errorf("nats connection is required")
	}

	sub, err := c.conn.QueueSubscribe(c.subject, c.queue, func(msg *nats.Msg) {
		if _, err := c.Process(ctx, msg.Data); err != nil {
			c.logger.Warn().Err(err).Msg("course completion not processed")
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", c.subject, err)
	}

	c.logger.Info().Str("queue", c.queue).Msg("course completion consumer started")

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to drain course completion subscription")
			return
		}
		c.logger.Info().Msg("course completion consumer drained")
	}()

	return nil
}

// Process validates one raw payload against the schema and hands it to the bridge.
func (c *CourseCompletionConsumer) Process(ctx context.Context, payload []byte) (dto.CourseCompletedResult, error) {
	var document interface{}
	if err := json.Unmarshal(payload, &document); err != nil {
		return dto.CourseCompletedResult{}, fmt.Errorf("%w: malformed course completion payload: %v", ErrValidation, err)
	}
	if err := c.schema.Validate(document); err != nil {
		return dto.CourseCompletedResult{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var event dto.CourseCompletedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return dto.CourseCompletedResult{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	result, err := c.bridge.CourseCompleted(ctx, event)
	if err != nil {
		return dto.CourseCompletedResult{}, err
	}

	c.logger.Debug().
		Uint("practitioner_id", event.PractitionerID).
		Uint("course_id", event.CourseID).
		Str("outcome", result.Outcome).
		Msg("course completion consumed")

	return result, nil
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/credit-ledger-api/internal/dto"
)

type bridgeStub struct {
	events []dto.CourseCompletedEvent
}

func (b *bridgeStub) CourseCompleted(ctx context.Context, event dto.CourseCompletedEvent) (dto.CourseCompletedResult, error) {
	b.events = append(b.events, event)
	return dto.CourseCompletedResult{Outcome: BridgeOutcomeCredited}, nil
}

func TestCourseCompletionConsumerValidatesPayloads(t *testing.T) {
	bridge := &bridgeStub{}
	consumer, err := NewCourseCompletionConsumer(nil, bridge, "courses.completed", "ledger", testLogger())
	require.NoError(t, err)

	cases := []struct {
		name    string
		payload string
	}{
		{name: "malformed json", payload: `{"practitioner_id":`},
		{name: "missing course", payload: `{"practitioner_id": 4}`},
		{name: "zero practitioner", payload: `{"practitioner_id": 0, "course_id": 3}`},
		{name: "string id", payload: `{"practitioner_id": "4", "course_id": 3}`},
		{name: "bad timestamp", payload: `{"practitioner_id": 4, "course_id": 3, "completed_at": "yesterday"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := consumer.Process(context.Background(), []byte(tc.payload))
			require.ErrorIs(t, err, ErrValidation)
		})
	}
	require.Empty(t, bridge.events)

	result, err := consumer.Process(context.Background(), []byte(`{"practitioner_id": 4, "course_id": 3, "completed_at": "2024-05-01T10:00:00Z"}`))
	require.NoError(t, err)
	require.Equal(t, BridgeOutcomeCredited, result.Outcome)
	require.Len(t, bridge.events, 1)
	require.Equal(t, uint(3), bridge.events[0].CourseID)
	require.NotNil(t, bridge.events[0].CompletedAt)
	require.Equal(t, 2024, bridge.events[0].CompletedAt.Year())

	_, err = consumer.Process(context.Background(), []byte(`{"practitioner_id": 4, "course_id": 3, "completed_at": null}`))
	require.NoError(t, err)
}

func TestCourseCompletionConsumerStartNeedsConnection(t *testing.T) {
	consumer, err := NewCourseCompletionConsumer(nil, &bridgeStub{}, "courses.completed", "ledger", testLogger())
	require.NoError(t, err)
	require.Error(t, consumer.Start(context.Background()))
}

package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/credit-ledger-api/internal/dto"
	"github.com/noah-isme/credit-ledger-api/internal/models"
)

func newBridgeFixture(t *testing.T) (*ledgerFixture, CreditBridge, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newLedgerFixture(t)
	bridge := NewCreditBridge(f.activities, f.ledger, client, validator.New(), CreditBridgeConfig{DefaultCredit: 5, DedupeTTL: time.Minute}, testLogger())
	return f, bridge, server
}

func TestCreditBridgeCreditsLinkedActivityOnce(t *testing.T) {
	f, bridge, server := newBridgeFixture(t)
	linked := f.activity(t, models.Activity{Title: "Online module", Category: models.ActivityCategoryCourse, CreditValue: 4, Active: true, LinkedCourseID: uintPtr(501)})

	completedAt := time.Date(2023, 12, 30, 22, 0, 0, 0, time.UTC)
	event := dto.CourseCompletedEvent{PractitionerID: 9, CourseID: 501, CompletedAt: &completedAt}

	result, err := bridge.CourseCompleted(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, BridgeOutcomeCredited, result.Outcome)
	require.NotNil(t, result.ActivityID)
	require.Equal(t, linked.ID, *result.ActivityID)
	require.NotNil(t, result.Submission)
	require.Equal(t, 2023, result.Submission.PeriodYear)
	require.Equal(t, 4, result.Submission.CreditValue)
	require.True(t, server.Exists("ledger:bridge:9:501"))

	result, err = bridge.CourseCompleted(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, BridgeOutcomeDuplicate, result.Outcome)

	server.Del("ledger:bridge:9:501")
	result, err = bridge.CourseCompleted(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, BridgeOutcomeAlreadyCredited, result.Outcome)

	var count int64
	require.NoError(t, f.db.Model(&models.CreditSubmission{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestCreditBridgeReleasesKeyWhenNothingWasCredited(t *testing.T) {
	f, bridge, server := newBridgeFixture(t)

	result, err := bridge.CourseCompleted(context.Background(), dto.CourseCompletedEvent{PractitionerID: 9, CourseID: 600})
	require.NoError(t, err)
	require.Equal(t, BridgeOutcomeNoActivity, result.Outcome)
	require.False(t, server.Exists("ledger:bridge:9:600"))

	f.activity(t, models.Activity{Title: "Retired module", Category: models.ActivityCategoryCourse, CreditValue: 2, Active: false, LinkedCourseID: uintPtr(601)})
	result, err = bridge.CourseCompleted(context.Background(), dto.CourseCompletedEvent{PractitionerID: 9, CourseID: 601})
	require.NoError(t, err)
	require.Equal(t, BridgeOutcomeActivityInactive, result.Outcome)
	require.False(t, server.Exists("ledger:bridge:9:601"))
}

func TestCreditBridgeMeritBasedActivityUsesDefaultCredit(t *testing.T) {
	f, bridge, _ := newBridgeFixture(t)
	f.activity(t, models.Activity{Title: "Open course", Category: models.ActivityCategoryCourse, CreditValue: models.MeritBasedCredit, Active: true, LinkedCourseID: uintPtr(700)})

	result, err := bridge.CourseCompleted(context.Background(), dto.CourseCompletedEvent{PractitionerID: 4, CourseID: 700})
	require.NoError(t, err)
	require.Equal(t, BridgeOutcomeCredited, result.Outcome)
	require.Equal(t, 5, result.Submission.CreditValue)
}

func TestCreditBridgeSkipsWhenManualClaimHoldsPeriod(t *testing.T) {
	f, bridge, server := newBridgeFixture(t)
	linked := f.activity(t, models.Activity{Title: "Online module", Category: models.ActivityCategoryCourse, CreditValue: 4, Active: true, LinkedCourseID: uintPtr(800)})

	_, err := f.ledger.Submit(context.Background(), practitionerActor(4), dto.SubmissionCreateRequest{ActivityID: linked.ID, PeriodYear: 2024})
	require.NoError(t, err)

	completedAt := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	result, err := bridge.CourseCompleted(context.Background(), dto.CourseCompletedEvent{PractitionerID: 4, CourseID: 800, CompletedAt: &completedAt})
	require.NoError(t, err)
	require.Equal(t, BridgeOutcomeClaimExists, result.Outcome)
	require.False(t, server.Exists("ledger:bridge:4:800"))
}

func TestCreditBridgeWorksWithoutCache(t *testing.T) {
	f := newLedgerFixture(t)
	f.activity(t, models.Activity{Title: "Online module", Category: models.ActivityCategoryCourse, CreditValue: 4, Active: true, LinkedCourseID: uintPtr(900)})
	bridge := NewCreditBridge(f.activities, f.ledger, nil, validator.New(), CreditBridgeConfig{}, testLogger())

	event := dto.CourseCompletedEvent{PractitionerID: 2, CourseID: 900}
	result, err := bridge.CourseCompleted(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, BridgeOutcomeCredited, result.Outcome)

	result, err = bridge.CourseCompleted(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, BridgeOutcomeAlreadyCredited, result.Outcome)

	_, err = bridge.CourseCompleted(context.Background(), dto.CourseCompletedEvent{CourseID: 900})
	require.Error(t, err)
}

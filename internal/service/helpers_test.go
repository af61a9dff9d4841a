package service

import (
	"context"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/credit-ledger-api/internal/dto"
	"github.com/noah-isme/credit-ledger-api/internal/models"
	"github.com/noah-isme/credit-ledger-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Practitioner{},
		&models.Activity{},
		&models.CreditSubmission{},
		&models.HistoricalPoints{},
		&models.AuditLog{},
	))

	return db
}

type auditSpy struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (a *auditSpy) Record(ctx context.Context, entry AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return nil
}

func (a *auditSpy) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	actions := make([]string, 0, len(a.entries))
	for _, entry := range a.entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

type eventSpy struct {
	mu        sync.Mutex
	decided   []dto.SubmissionResponse
	automatic []dto.SubmissionResponse
}

func (e *eventSpy) SubmissionDecided(ctx context.Context, submission dto.SubmissionResponse) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.decided = append(e.decided, submission)
	return nil
}

func (e *eventSpy) AutomaticCredited(ctx context.Context, submission dto.SubmissionResponse) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.automatic = append(e.automatic, submission)
	return nil
}

type ledgerFixture struct {
	db          *gorm.DB
	activities  repository.ActivityRepository
	submissions repository.SubmissionRepository
	audit       *auditSpy
	events      *eventSpy
	ledger      LedgerService
	reports     ReportService
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	db := setupServiceDB(t)
	validate := validator.New()
	fixture := &ledgerFixture{
		db:          db,
		activities:  repository.NewActivityRepository(db),
		submissions: repository.NewSubmissionRepository(db),
		audit:       &auditSpy{},
		events:      &eventSpy{},
	}
	fixture.ledger = NewLedgerService(fixture.submissions, fixture.activities, validate, fixture.audit, fixture.events, testLogger())
	fixture.reports = NewReportService(
		repository.NewLedgerReportRepository(db),
		repository.NewHistoricalPointsRepository(db),
		repository.NewPractitionerRepository(db),
		validate,
		DefaultCycleTarget,
		testLogger(),
	)

	return fixture
}

func (f *ledgerFixture) activity(t *testing.T, activity models.Activity) models.Activity {
	t.Helper()
	if activity.Title == "" {
		activity.Title = "Ethics workshop"
	}
	if activity.Description == "" {
		activity.Description = "Half-day session on professional ethics"
	}
	if activity.Category == "" {
		activity.Category = models.ActivityCategoryWorkshop
	}
	require.NoError(t, f.db.Create(&activity).Error)
	return activity
}

func (f *ledgerFixture) practitioner(t *testing.T, first, last string) models.Practitioner {
	t.Helper()
	practitioner := models.Practitioner{FirstName: first, LastName: last, Role: models.RolePractitioner}
	require.NoError(t, f.db.Create(&practitioner).Error)
	return practitioner
}

func practitionerActor(id uint) Actor {
	return Actor{ID: id, Role: models.RolePractitioner}
}

var moderator = Actor{ID: 900, Role: models.RoleModerator}

func intPtr(v int) *int {
	return &v
}

func uintPtr(v uint) *uint {
	return &v
}

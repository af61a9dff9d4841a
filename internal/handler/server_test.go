package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/credit-ledger-api/internal/config"
	"github.com/noah-isme/credit-ledger-api/internal/handler"
	"github.com/noah-isme/credit-ledger-api/internal/models"
	"github.com/noah-isme/credit-ledger-api/internal/repository"
	"github.com/noah-isme/credit-ledger-api/internal/router"
	"github.com/noah-isme/credit-ledger-api/internal/service"
)

const testSecret = "handler-test-secret"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type memoryStorage struct{}

func (memoryStorage) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", err
	}
	return "ledger/evidence/" + name, nil
}

type testServer struct {
	app *fiber.App
	db  *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
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

	logger := zerolog.Nop()
	validate := validator.New()

	activityRepo := repository.NewActivityRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	historicalRepo := repository.NewHistoricalPointsRepository(db)
	practitionerRepo := repository.NewPractitionerRepository(db)

	auditService := service.NewAuditService(repository.NewAuditLogRepository(db), logger)
	catalogService := service.NewCatalogService(activityRepo, validate, auditService, logger)
	ledgerService := service.NewLedgerService(submissionRepo, activityRepo, validate, auditService, nil, logger)
	reportService := service.NewReportService(repository.NewLedgerReportRepository(db), historicalRepo, practitionerRepo, validate, 0, logger)
	importService := service.NewHistoricalImportService(historicalRepo, practitionerRepo, auditService, logger)
	bridge := service.NewCreditBridge(activityRepo, ledgerService, nil, validate, service.CreditBridgeConfig{}, logger)
	evidenceService := service.NewEvidenceService(memoryStorage{}, auditService, 1, logger)

	cfg := config.Config{
		AppName:              "Credit Ledger API",
		AppEnv:               "test",
		JWTSecret:            testSecret,
		CycleTarget:          service.DefaultCycleTarget,
		SubmissionRateLimit:  100,
		SubmissionRateWindow: time.Minute,
	}

	app := fiber.New()
	router.Register(app, cfg, router.Dependencies{
		ActivityHandler:   handler.NewActivityHandler(catalogService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(ledgerService, logger),
		ReportHandler:     handler.NewReportHandler(reportService, logger),
		HistoricalHandler: handler.NewHistoricalHandler(importService, logger),
		BridgeHandler:     handler.NewBridgeHandler(bridge, logger),
		EvidenceHandler:   handler.NewEvidenceHandler(evidenceService, logger),
		AuditHandler:      handler.NewAuditHandler(auditService, logger),
	})

	return &testServer{app: app, db: db}
}

func token(t *testing.T, userID uint, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(userID), 10),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	}

	return s.send(t, req)
}

func (s *testServer) upload(t *testing.T, path, bearer, filename string, content []byte, fields map[string]string) (*http.Response, envelope) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bearer)

	return s.send(t, req)
}

func (s *testServer) send(t *testing.T, req *http.Request) (*http.Response, envelope) {
	t.Helper()

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload envelope
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &payload), string(raw))
	}
	return resp, payload
}

func decodeData(t *testing.T, payload envelope, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(payload.Data, target))
}

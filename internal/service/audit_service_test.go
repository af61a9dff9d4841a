package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/credit-ledger-api/internal/dto"
	"github.com/noah-isme/credit-ledger-api/internal/models"
	"github.com/noah-isme/credit-ledger-api/internal/repository"
)

func TestAuditServiceRecordMasksSensitiveMetadata(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewAuditService(repository.NewAuditLogRepository(db), testLogger())

	entityID := uint(3)
	err := svc.Record(context.Background(), AuditEntry{
		Actor:      Actor{ID: 7, Role: " Moderator "},
		Action:     "Submission.Approved",
		EntityType: "Submission",
		EntityID:   &entityID,
		Metadata: map[string]interface{}{
			"contact_email": "anna@example.test",
			"access_token":  "secret",
			"credit_value":  12,
		},
	})
	require.NoError(t, err)

	resp, err := svc.List(context.Background(), dto.AuditLogListRequest{ActorID: 7, Action: "submission.approved"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)

	entry := resp.Items[0]
	require.Equal(t, models.RoleModerator, entry.ActorRole)
	require.Equal(t, "submission", entry.EntityType)
	require.Equal(t, "***", entry.Metadata["contact_email"])
	require.Equal(t, "***", entry.Metadata["access_token"])
	require.EqualValues(t, 12, entry.Metadata["credit_value"])
}

func TestAuditServiceRecordValidatesInput(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewAuditService(repository.NewAuditLogRepository(db), testLogger())

	require.Error(t, svc.Record(context.Background(), AuditEntry{Actor: SystemActor, EntityType: "submission"}))
	require.Error(t, svc.Record(context.Background(), AuditEntry{Actor: SystemActor, Action: "submission.automatic"}))

	require.NoError(t, svc.Record(context.Background(), AuditEntry{Actor: Actor{ID: 0}, Action: "submission.automatic", EntityType: "submission"}))

	resp, err := svc.List(context.Background(), dto.AuditLogListRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	require.Equal(t, models.RoleSystem, resp.Items[0].ActorRole)
	require.Equal(t, int64(1), resp.Pagination.TotalItems)
}

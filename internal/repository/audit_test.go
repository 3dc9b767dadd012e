package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrandev/aerialnest/internal/models"
)

func TestAppendAccessLog(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	entry := &models.AccessLog{
		UserID:     sql.NullString{String: "user-1", Valid: true},
		ActorName:  "Test User",
		ActorEmail: "testuser@example.com",
		DocumentID: sql.NullString{String: "doc-1", Valid: true},
		Action:     models.ActionViewed,
		Context:    models.ContextNormal,
	}

	mock.ExpectExec(`INSERT INTO access_logs`).
		WithArgs(sqlmock.AnyArg(), entry.UserID, "Test User", "testuser@example.com",
			entry.DocumentID, models.ActionViewed, models.ContextNormal,
			entry.EmergencyRequestID, "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AppendAccessLog(context.Background(), entry)

	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserAccessLogs(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "actor_name", "actor_email", "document_id",
		"action", "context", "emergency_request_id", "detail", "created_at",
	}).
		AddRow("log-2", "user-1", "Test User", "testuser@example.com", "doc-1",
			models.ActionDownloaded, models.ContextNormal, nil, "", now).
		AddRow("log-1", nil, "Casey Reed", "casey@example.com", "doc-1",
			models.ActionEmergencyAccessed, models.ContextEmergency, "req-1", "", now.Add(-time.Hour))

	mock.ExpectQuery(`SELECT al\.\* FROM access_logs`).
		WithArgs("user-1", 100).
		WillReturnRows(rows)

	logs, err := repo.GetUserAccessLogs(context.Background(), "user-1", 0)

	require.NoError(t, err)
	require.Len(t, logs, 2)

	// Rows from unauthenticated emergency actors carry no user reference
	assert.False(t, logs[1].UserID.Valid)
	assert.Equal(t, "casey@example.com", logs[1].ActorEmail)
	assert.True(t, logs[1].EmergencyRequestID.Valid)

	assert.NoError(t, mock.ExpectationsWereMet())
}

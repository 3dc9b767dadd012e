package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scrandev/aerialnest/internal/models"
	"github.com/scrandev/aerialnest/internal/repository"
)

func setupService(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, *DefaultService) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := repository.NewPostgresRepository(sqlxDB, zap.NewNop())
	svc := NewDefaultService(repo, "test-secret", 72*time.Hour, zap.NewNop())

	return sqlxDB, mock, svc
}

func requestColumns() []string {
	return []string{
		"id", "user_id", "contact_id", "requester_name", "requester_email",
		"reason", "emergency_type", "status", "requested_at", "approved_at",
		"expires_at", "denial_reason", "admin_approved_by", "admin_notes",
	}
}

func approvedRequestRow(expiresAt time.Time) *sqlmock.Rows {
	requestedAt := expiresAt.Add(-24 * time.Hour)
	return sqlmock.NewRows(requestColumns()).
		AddRow("req-1", "owner-1", "contact-1", "Casey Reed", "casey@example.com",
			"medical", "medical", models.RequestStatusApproved, requestedAt, requestedAt,
			expiresAt, nil, nil, nil)
}

func expectRequestLookup(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.ExpectQuery(`SELECT \* FROM emergency_access_requests`).
		WithArgs("req-1").
		WillReturnRows(rows)
}

func expectGrantLookup(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.ExpectQuery(`SELECT \* FROM emergency_access_documents`).
		WithArgs("req-1", "doc-1").
		WillReturnRows(rows)
}

func grantRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "request_id", "document_id", "access_type", "accessed_at"}).
		AddRow("grant-1", "req-1", "doc-1", models.AccessTypeView, nil)
}

func TestCheckAccess_GrantedBeforeExpiry(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	expiresAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	expectRequestLookup(mock, approvedRequestRow(expiresAt))
	expectGrantLookup(mock, grantRow())

	decision := svc.CheckAccess(context.Background(), "req-1", "doc-1", expiresAt.Add(-time.Second))

	assert.True(t, decision.Granted)
	assert.Equal(t, models.ContextEmergency, decision.Context)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckAccess_ExpiryFlipsWithoutAnyWrite(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	expiresAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// The same persisted state denies at and after the deadline; no update
	// runs, the predicate is purely clock-driven
	for _, now := range []time.Time{expiresAt, expiresAt.Add(time.Hour), expiresAt.Add(24 * time.Hour)} {
		expectRequestLookup(mock, approvedRequestRow(expiresAt))

		decision := svc.CheckAccess(context.Background(), "req-1", "doc-1", now)

		assert.False(t, decision.Granted)
		assert.Equal(t, models.DenyExpired, decision.Reason)
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckAccess_NotApproved(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	expiresAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	requestedAt := expiresAt.Add(-24 * time.Hour)

	for _, status := range []string{models.RequestStatusPending, models.RequestStatusDenied, models.RequestStatusExpired} {
		rows := sqlmock.NewRows(requestColumns()).
			AddRow("req-1", "owner-1", "contact-1", "Casey Reed", "casey@example.com",
				"medical", "medical", status, requestedAt, nil, expiresAt, nil, nil, nil)
		expectRequestLookup(mock, rows)

		decision := svc.CheckAccess(context.Background(), "req-1", "doc-1", requestedAt)

		assert.False(t, decision.Granted)
		assert.Equal(t, models.DenyNotApproved, decision.Reason)
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckAccess_UnknownRequest(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	expectRequestLookup(mock, sqlmock.NewRows(requestColumns()))

	decision := svc.CheckAccess(context.Background(), "req-1", "doc-1", time.Now().UTC())

	assert.False(t, decision.Granted)
	assert.Equal(t, models.DenyNotApproved, decision.Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckAccess_DocumentNotInGrant(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	expiresAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	expectRequestLookup(mock, approvedRequestRow(expiresAt))
	expectGrantLookup(mock, sqlmock.NewRows([]string{"id", "request_id", "document_id", "access_type", "accessed_at"}))

	decision := svc.CheckAccess(context.Background(), "req-1", "doc-1", expiresAt.Add(-time.Hour))

	assert.False(t, decision.Granted)
	assert.Equal(t, models.DenyNotInGrant, decision.Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckAccess_StorageFailureDeniesClosed(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT \* FROM emergency_access_requests`).
		WithArgs("req-1").
		WillReturnError(assert.AnError)

	decision := svc.CheckAccess(context.Background(), "req-1", "doc-1", time.Now().UTC())

	assert.False(t, decision.Granted)
	assert.Equal(t, models.DenyNotApproved, decision.Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

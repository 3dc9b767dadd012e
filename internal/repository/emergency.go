package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/scrandev/aerialnest/internal/models"
)

// Emergency access repository methods
func (r *PostgresRepository) CreateEmergencyRequest(ctx context.Context, req *models.EmergencyAccessRequest) error {
	query := `
		INSERT INTO emergency_access_requests
			(id, user_id, contact_id, requester_name, requester_email, reason, emergency_type, status, requested_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	// Generate a new UUID if not provided
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	if req.Status == "" {
		req.Status = models.RequestStatusPending
	}

	_, err := r.db.ExecContext(ctx, query,
		req.ID, req.UserID, req.ContactID, req.RequesterName, req.RequesterEmail,
		req.Reason, req.EmergencyType, req.Status, req.RequestedAt, req.ExpiresAt)

	return err
}

func (r *PostgresRepository) GetEmergencyRequest(ctx context.Context, requestID string) (*models.EmergencyAccessRequest, error) {
	query := `SELECT * FROM emergency_access_requests WHERE id = $1`

	var req models.EmergencyAccessRequest
	err := r.db.GetContext(ctx, &req, query, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Request not found
		}
		return nil, err
	}

	return &req, nil
}

func (r *PostgresRepository) GetUserEmergencyRequests(ctx context.Context, userID string) ([]models.EmergencyAccessRequest, error) {
	query := `SELECT * FROM emergency_access_requests WHERE user_id = $1 ORDER BY requested_at DESC`

	var reqs []models.EmergencyAccessRequest
	err := r.db.SelectContext(ctx, &reqs, query, userID)
	if err != nil {
		return nil, err
	}

	return reqs, nil
}

// ApproveEmergencyRequest flips a pending request to approved and inserts its
// grant rows in one transaction. The status update is conditional on the row
// still being pending, so concurrent deciders race on the database and exactly
// one wins; the loser gets won=false. A commit with status=approved and zero
// grant rows is impossible: both happen or neither does.
func (r *PostgresRepository) ApproveEmergencyRequest(
	ctx context.Context,
	requestID string,
	approvedAt time.Time,
	grants []models.EmergencyAccessDocument,
	adminID string,
	adminNotes string,
) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE emergency_access_requests
		 SET status = $1, approved_at = $2, admin_approved_by = NULLIF($3, ''), admin_notes = NULLIF($4, '')
		 WHERE id = $5 AND status = $6`,
		models.RequestStatusApproved, approvedAt, adminID, adminNotes,
		requestID, models.RequestStatusPending)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	if affected == 0 {
		// Lost the race or request not pending; nothing to commit
		tx.Rollback()
		return false, nil
	}

	for i := range grants {
		g := &grants[i]
		if g.ID == "" {
			g.ID = uuid.New().String()
		}
		g.RequestID = requestID

		_, err = tx.ExecContext(ctx,
			`INSERT INTO emergency_access_documents (id, request_id, document_id, access_type)
			 VALUES ($1, $2, $3, $4)`,
			g.ID, g.RequestID, g.DocumentID, g.AccessType)
		if err != nil {
			return false, err
		}
	}

	return true, tx.Commit()
}

// DenyEmergencyRequest flips a pending request to denied. Conditional on
// status=pending for the same single-winner guarantee as approval.
func (r *PostgresRepository) DenyEmergencyRequest(
	ctx context.Context,
	requestID string,
	denialReason string,
	adminID string,
	adminNotes string,
) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE emergency_access_requests
		 SET status = $1, denial_reason = $2, admin_approved_by = NULLIF($3, ''), admin_notes = NULLIF($4, '')
		 WHERE id = $5 AND status = $6`,
		models.RequestStatusDenied, denialReason, adminID, adminNotes,
		requestID, models.RequestStatusPending)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (r *PostgresRepository) GetGrantDocument(ctx context.Context, requestID, documentID string) (*models.EmergencyAccessDocument, error) {
	query := `SELECT * FROM emergency_access_documents WHERE request_id = $1 AND document_id = $2`

	var grant models.EmergencyAccessDocument
	err := r.db.GetContext(ctx, &grant, query, requestID, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Document not in grant
		}
		return nil, err
	}

	return &grant, nil
}

func (r *PostgresRepository) GetGrantDocuments(ctx context.Context, requestID string) ([]models.EmergencyAccessDocument, error) {
	query := `SELECT * FROM emergency_access_documents WHERE request_id = $1`

	var grants []models.EmergencyAccessDocument
	err := r.db.SelectContext(ctx, &grants, query, requestID)
	if err != nil {
		return nil, err
	}

	return grants, nil
}

// MarkGrantAccessed records the first exercise of a grant. The WHERE clause
// keeps the timestamp sticky: once set it is never overwritten.
func (r *PostgresRepository) MarkGrantAccessed(ctx context.Context, requestID, documentID string, accessedAt time.Time) error {
	query := `
		UPDATE emergency_access_documents
		SET accessed_at = $1
		WHERE request_id = $2 AND document_id = $3 AND accessed_at IS NULL
	`

	_, err := r.db.ExecContext(ctx, query, accessedAt, requestID, documentID)
	return err
}

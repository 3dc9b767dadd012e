package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/scrandev/aerialnest/internal/models"
)

// Audit log repository methods.
//
// access_logs is append-only: there is deliberately no update or delete method
// for it anywhere in this package.

func (r *PostgresRepository) AppendAccessLog(ctx context.Context, entry *models.AccessLog) error {
	query := `
		INSERT INTO access_logs
			(id, user_id, actor_name, actor_email, document_id, action, context, emergency_request_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	// Generate a new UUID if not provided
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.ActorName, entry.ActorEmail, entry.DocumentID,
		entry.Action, entry.Context, entry.EmergencyRequestID, entry.Detail, entry.CreatedAt)

	return err
}

// GetUserAccessLogs returns audit rows visible to a user: rows touching their
// documents, rows of their own actions, and workflow rows on emergency
// requests filed against them, newest first.
func (r *PostgresRepository) GetUserAccessLogs(ctx context.Context, userID string, limit int) ([]models.AccessLog, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT al.* FROM access_logs al
		LEFT JOIN documents d ON al.document_id = d.id
		LEFT JOIN emergency_access_requests er ON al.emergency_request_id = er.id
		WHERE d.user_id = $1 OR al.user_id = $1 OR er.user_id = $1
		ORDER BY al.created_at DESC
		LIMIT $2
	`

	var logs []models.AccessLog
	err := r.db.SelectContext(ctx, &logs, query, userID, limit)
	if err != nil {
		return nil, err
	}

	return logs, nil
}

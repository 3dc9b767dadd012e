package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/scrandev/aerialnest/internal/models"
)

// Document repository methods
func (r *PostgresRepository) CreateDocument(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (id, user_id, category_id, title, file_name, storage_key, file_size, content_type, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	// Generate a new UUID if not provided
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	doc.IsActive = true

	_, err := r.db.ExecContext(ctx, query,
		doc.ID, doc.UserID, doc.CategoryID, doc.Title, doc.FileName, doc.StorageKey,
		doc.FileSize, doc.ContentType, doc.IsActive, doc.CreatedAt, doc.UpdatedAt)

	return err
}

func (r *PostgresRepository) GetDocument(ctx context.Context, documentID string) (*models.Document, error) {
	query := `SELECT * FROM documents WHERE id = $1`

	var doc models.Document
	err := r.db.GetContext(ctx, &doc, query, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Document not found
		}
		return nil, err
	}

	return &doc, nil
}

func (r *PostgresRepository) GetUserDocuments(ctx context.Context, userID string) ([]models.Document, error) {
	query := `
		SELECT * FROM documents
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY created_at DESC
	`

	var docs []models.Document
	err := r.db.SelectContext(ctx, &docs, query, userID)
	if err != nil {
		return nil, err
	}

	return docs, nil
}

func (r *PostgresRepository) UpdateDocument(ctx context.Context, doc *models.Document) error {
	query := `
		UPDATE documents
		SET category_id = $1, title = $2, updated_at = $3
		WHERE id = $4
	`

	doc.UpdatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query, doc.CategoryID, doc.Title, doc.UpdatedAt, doc.ID)
	return err
}

// DeactivateDocument soft-deletes a document. The row stays so audit entries
// and emergency grants keep a valid reference; authorization treats it as gone.
func (r *PostgresRepository) DeactivateDocument(ctx context.Context, documentID string) error {
	query := `UPDATE documents SET is_active = FALSE, updated_at = $1 WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, time.Now().UTC(), documentID)
	return err
}

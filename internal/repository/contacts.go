package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/scrandev/aerialnest/internal/models"
)

// Trusted contact repository methods
func (r *PostgresRepository) CreateContact(ctx context.Context, contact *models.TrustedContact) error {
	query := `
		INSERT INTO trusted_contacts (id, user_id, name, email, phone, relationship, can_access_all, emergency_contact, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	// Generate a new UUID if not provided
	if contact.ID == "" {
		contact.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		contact.ID, contact.UserID, contact.Name, contact.Email, contact.Phone,
		contact.Relationship, contact.CanAccessAll, contact.EmergencyContact,
		contact.CreatedAt, contact.UpdatedAt)

	return err
}

func (r *PostgresRepository) GetContact(ctx context.Context, contactID string) (*models.TrustedContact, error) {
	query := `SELECT * FROM trusted_contacts WHERE id = $1`

	var contact models.TrustedContact
	err := r.db.GetContext(ctx, &contact, query, contactID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Contact not found
		}
		return nil, err
	}

	return &contact, nil
}

func (r *PostgresRepository) GetUserContacts(ctx context.Context, userID string) ([]models.TrustedContact, error) {
	query := `SELECT * FROM trusted_contacts WHERE user_id = $1 ORDER BY created_at ASC`

	var contacts []models.TrustedContact
	err := r.db.SelectContext(ctx, &contacts, query, userID)
	if err != nil {
		return nil, err
	}

	return contacts, nil
}

func (r *PostgresRepository) UpdateContact(ctx context.Context, contact *models.TrustedContact) error {
	query := `
		UPDATE trusted_contacts
		SET name = $1, email = $2, phone = $3, relationship = $4,
		    can_access_all = $5, emergency_contact = $6, updated_at = $7
		WHERE id = $8
	`

	contact.UpdatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		contact.Name, contact.Email, contact.Phone, contact.Relationship,
		contact.CanAccessAll, contact.EmergencyContact, contact.UpdatedAt, contact.ID)

	return err
}

// DeleteContact removes a contact. Shares and emergency requests cascade via
// foreign keys; access_logs rows survive with their request reference nulled.
func (r *PostgresRepository) DeleteContact(ctx context.Context, contactID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM trusted_contacts WHERE id = $1`, contactID)
	return err
}

// FindContactByOwnerEmail resolves an actor to the trusted-contact record the
// owner keeps for them, matching on email.
func (r *PostgresRepository) FindContactByOwnerEmail(ctx context.Context, ownerID, email string) (*models.TrustedContact, error) {
	query := `SELECT * FROM trusted_contacts WHERE user_id = $1 AND email = $2`

	var contact models.TrustedContact
	err := r.db.GetContext(ctx, &contact, query, ownerID, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Contact not found
		}
		return nil, err
	}

	return &contact, nil
}

// Document share repository methods
func (r *PostgresRepository) CreateShare(ctx context.Context, share *models.DocumentShare) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	// Generate a new UUID if not provided
	if share.ID == "" {
		share.ID = uuid.New().String()
	}

	if share.CreatedAt.IsZero() {
		share.CreatedAt = time.Now().UTC()
	}

	// Upsert: re-sharing the same document with the same contact updates the
	// access type instead of failing on the unique constraint.
	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM document_shares WHERE document_id = $1 AND contact_id = $2)`,
		share.DocumentID, share.ContactID).Scan(&exists)

	if err != nil {
		return err
	}

	if exists {
		query := `UPDATE document_shares SET access_type = $1 WHERE document_id = $2 AND contact_id = $3`
		_, err = tx.ExecContext(ctx, query, share.AccessType, share.DocumentID, share.ContactID)
	} else {
		query := `INSERT INTO document_shares (id, document_id, contact_id, access_type, created_at) VALUES ($1, $2, $3, $4, $5)`
		_, err = tx.ExecContext(ctx, query,
			share.ID, share.DocumentID, share.ContactID, share.AccessType, share.CreatedAt)
	}

	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PostgresRepository) GetShare(ctx context.Context, shareID string) (*models.DocumentShare, error) {
	query := `SELECT * FROM document_shares WHERE id = $1`

	var share models.DocumentShare
	err := r.db.GetContext(ctx, &share, query, shareID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Share not found
		}
		return nil, err
	}

	return &share, nil
}

func (r *PostgresRepository) DeleteShare(ctx context.Context, shareID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM document_shares WHERE id = $1`, shareID)
	return err
}

func (r *PostgresRepository) FindShare(ctx context.Context, documentID, contactID string) (*models.DocumentShare, error) {
	query := `SELECT * FROM document_shares WHERE document_id = $1 AND contact_id = $2`

	var share models.DocumentShare
	err := r.db.GetContext(ctx, &share, query, documentID, contactID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No standing share
		}
		return nil, err
	}

	return &share, nil
}

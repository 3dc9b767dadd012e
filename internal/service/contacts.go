package service

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/scrandev/aerialnest/internal/errs"
	"github.com/scrandev/aerialnest/internal/models"
)

// Trusted contact operations

func (s *DefaultService) CreateContact(ctx context.Context, userID string, req models.CreateContactRequest) (*models.TrustedContact, error) {
	contact := &models.TrustedContact{
		UserID:           userID,
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		Relationship:     req.Relationship,
		CanAccessAll:     req.CanAccessAll,
		EmergencyContact: req.EmergencyContact,
	}

	if err := s.repo.CreateContact(ctx, contact); err != nil {
		return nil, errs.Storage(fmt.Errorf("error creating contact: %w", err))
	}

	return contact, nil
}

func (s *DefaultService) ListContacts(ctx context.Context, userID string) ([]models.TrustedContact, error) {
	contacts, err := s.repo.GetUserContacts(ctx, userID)
	if err != nil {
		return nil, errs.Storage(fmt.Errorf("error listing contacts: %w", err))
	}

	return contacts, nil
}

func (s *DefaultService) UpdateContact(ctx context.Context, userID, contactID string, req models.UpdateContactRequest) (*models.TrustedContact, error) {
	contact, err := s.getOwnedContact(ctx, userID, contactID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		contact.Name = req.Name
	}
	if req.Email != "" {
		contact.Email = req.Email
	}
	if req.Phone != "" {
		contact.Phone = req.Phone
	}
	if req.Relationship != "" {
		contact.Relationship = req.Relationship
	}
	if req.CanAccessAll != nil {
		contact.CanAccessAll = *req.CanAccessAll
	}
	if req.EmergencyContact != nil {
		contact.EmergencyContact = *req.EmergencyContact
	}

	if err := s.repo.UpdateContact(ctx, contact); err != nil {
		return nil, errs.Storage(fmt.Errorf("error updating contact: %w", err))
	}

	return contact, nil
}

// DeleteContact removes a contact; its shares and emergency requests go with
// it. Past audit rows stay behind with nulled references.
func (s *DefaultService) DeleteContact(ctx context.Context, userID, contactID string) error {
	if _, err := s.getOwnedContact(ctx, userID, contactID); err != nil {
		return err
	}

	if err := s.repo.DeleteContact(ctx, contactID); err != nil {
		return errs.Storage(fmt.Errorf("error deleting contact: %w", err))
	}

	return nil
}

// Standing share operations

func (s *DefaultService) CreateShare(ctx context.Context, userID, contactID string, req models.CreateShareRequest) (*models.DocumentShare, error) {
	contact, err := s.getOwnedContact(ctx, userID, contactID)
	if err != nil {
		return nil, err
	}

	doc, err := s.getOwnedDocument(ctx, userID, req.DocumentID)
	if err != nil {
		return nil, err
	}

	share := &models.DocumentShare{
		DocumentID: doc.ID,
		ContactID:  contact.ID,
		AccessType: req.AccessType,
	}

	if err := s.repo.CreateShare(ctx, share); err != nil {
		return nil, errs.Storage(fmt.Errorf("error creating share: %w", err))
	}

	// Record the share grant in the audit trail
	entry := &models.AccessLog{
		UserID:     sql.NullString{String: userID, Valid: true},
		DocumentID: sql.NullString{String: doc.ID, Valid: true},
		Action:     models.ActionShared,
		Context:    models.ContextNormal,
		Detail:     fmt.Sprintf("shared with contact %s (%s)", contact.Name, share.AccessType),
		CreatedAt:  s.now(),
	}
	if err := s.repo.AppendAccessLog(ctx, entry); err != nil {
		s.logger.Error("audit write failed on share", zap.Error(err))
		return nil, errs.Storage(fmt.Errorf("error recording share: %w", err))
	}

	return share, nil
}

func (s *DefaultService) DeleteShare(ctx context.Context, userID, shareID string) error {
	share, err := s.repo.GetShare(ctx, shareID)
	if err != nil {
		return errs.Storage(fmt.Errorf("error getting share: %w", err))
	}

	if share == nil {
		return errs.NotFound("SHARE_NOT_FOUND", "share not found")
	}

	// Only the owner of the shared document may revoke
	doc, err := s.repo.GetDocument(ctx, share.DocumentID)
	if err != nil {
		return errs.Storage(fmt.Errorf("error getting document: %w", err))
	}

	if doc == nil || doc.UserID != userID {
		return errs.Authorization(models.DenyNotOwner, "you don't own the shared document")
	}

	if err := s.repo.DeleteShare(ctx, shareID); err != nil {
		return errs.Storage(fmt.Errorf("error deleting share: %w", err))
	}

	return nil
}

// isEmergencyEligible reports whether a contact belongs to the owner and is
// flagged as an emergency contact.
func (s *DefaultService) isEmergencyEligible(ctx context.Context, ownerID, contactID string) (bool, error) {
	contact, err := s.repo.GetContact(ctx, contactID)
	if err != nil {
		return false, errs.Storage(fmt.Errorf("error getting contact: %w", err))
	}

	if contact == nil || contact.UserID != ownerID {
		return false, nil
	}

	return contact.EmergencyContact, nil
}

// getOwnedContact loads a contact and verifies ownership.
func (s *DefaultService) getOwnedContact(ctx context.Context, userID, contactID string) (*models.TrustedContact, error) {
	contact, err := s.repo.GetContact(ctx, contactID)
	if err != nil {
		return nil, errs.Storage(fmt.Errorf("error getting contact: %w", err))
	}

	if contact == nil {
		return nil, errs.NotFound("CONTACT_NOT_FOUND", "contact not found")
	}

	if contact.UserID != userID {
		return nil, errs.Authorization(models.DenyNotOwner, "you don't own this contact")
	}

	return contact, nil
}

package service

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/scrandev/aerialnest/internal/errs"
	"github.com/scrandev/aerialnest/internal/models"
)

// Document operations. Upload of file bytes happens against the object store
// before these are called; this layer records and serves metadata only.

func (s *DefaultService) CreateDocument(ctx context.Context, userID string, req models.CreateDocumentRequest) (*models.Document, error) {
	doc := &models.Document{
		UserID:      userID,
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		FileName:    req.FileName,
		StorageKey:  req.StorageKey,
		FileSize:    req.FileSize,
		ContentType: req.ContentType,
	}

	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		return nil, errs.Storage(fmt.Errorf("error creating document: %w", err))
	}

	// Record the upload. Fail closed: an unauditable upload is reported as a
	// failure even though the row exists.
	entry := &models.AccessLog{
		UserID:     sql.NullString{String: userID, Valid: true},
		DocumentID: sql.NullString{String: doc.ID, Valid: true},
		Action:     models.ActionUploaded,
		Context:    models.ContextNormal,
		CreatedAt:  s.now(),
	}
	if err := s.repo.AppendAccessLog(ctx, entry); err != nil {
		s.logger.Error("audit write failed on upload", zap.Error(err))
		return nil, errs.Storage(fmt.Errorf("error recording upload: %w", err))
	}

	return doc, nil
}

func (s *DefaultService) ListDocuments(ctx context.Context, userID string) ([]models.Document, error) {
	docs, err := s.repo.GetUserDocuments(ctx, userID)
	if err != nil {
		return nil, errs.Storage(fmt.Errorf("error listing documents: %w", err))
	}

	return docs, nil
}

func (s *DefaultService) UpdateDocument(ctx context.Context, userID, documentID string, req models.UpdateDocumentRequest) (*models.Document, error) {
	doc, err := s.getOwnedDocument(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		doc.Title = req.Title
	}
	if req.CategoryID != "" {
		doc.CategoryID = req.CategoryID
	}

	if err := s.repo.UpdateDocument(ctx, doc); err != nil {
		return nil, errs.Storage(fmt.Errorf("error updating document: %w", err))
	}

	return doc, nil
}

// DeleteDocument soft-deletes: the row survives for audit and grant
// references, but no path authorizes an inactive document.
func (s *DefaultService) DeleteDocument(ctx context.Context, userID, documentID string) error {
	if _, err := s.getOwnedDocument(ctx, userID, documentID); err != nil {
		return err
	}

	if err := s.repo.DeactivateDocument(ctx, documentID); err != nil {
		return errs.Storage(fmt.Errorf("error deleting document: %w", err))
	}

	return nil
}

// getOwnedDocument loads a document and verifies ownership.
func (s *DefaultService) getOwnedDocument(ctx context.Context, userID, documentID string) (*models.Document, error) {
	doc, err := s.repo.GetDocument(ctx, documentID)
	if err != nil {
		return nil, errs.Storage(fmt.Errorf("error getting document: %w", err))
	}

	if doc == nil || !doc.IsActive {
		return nil, errs.NotFound("DOCUMENT_NOT_FOUND", "document not found")
	}

	if doc.UserID != userID {
		return nil, errs.Authorization(models.DenyNotOwner, "you don't own this document")
	}

	return doc, nil
}

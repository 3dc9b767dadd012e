package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/scrandev/aerialnest/internal/errs"
	"github.com/scrandev/aerialnest/internal/models"
)

// Access gate: every document read passes through Authorize, which unifies
// the three access paths (owner, standing share, active emergency grant) and
// writes exactly one audit row per call, granted or denied.
//
// Ordering is decide, then log, then respond. The audit write failing fails
// the request closed: access is reported as denied even if the decision was a
// grant, because an unlogged access on this path is worse than a refused one.

// Authorize resolves whether actor may perform action (view or download) on
// documentID. emergencyRequestID is supplied by emergency requesters and
// ignored for owner and share paths.
func (s *DefaultService) Authorize(ctx context.Context, actor models.Actor, documentID, action, emergencyRequestID string) (*models.AccessDecision, *models.Document, error) {
	doc, err := s.repo.GetDocument(ctx, documentID)
	if err != nil {
		return nil, nil, errs.Storage(fmt.Errorf("error getting document: %w", err))
	}

	// Load the request once; the audit row only records a reference that
	// actually exists, so a fabricated request id can't break the append.
	var request *models.EmergencyAccessRequest
	if emergencyRequestID != "" {
		request, err = s.repo.GetEmergencyRequest(ctx, emergencyRequestID)
		if err != nil {
			return nil, nil, errs.Storage(fmt.Errorf("error getting emergency request: %w", err))
		}
	}

	requestRef := sql.NullString{}
	if request != nil {
		requestRef = sql.NullString{String: request.ID, Valid: true}
	}

	if doc == nil {
		// Unknown id: still audited, with no document reference to record
		if err := s.audit(ctx, actor, sql.NullString{}, action, models.ContextNormal, requestRef, "denied: document not found"); err != nil {
			return nil, nil, err
		}
		return nil, nil, errs.NotFound("DOCUMENT_NOT_FOUND", "document not found")
	}

	decision := s.resolve(ctx, actor, doc, action, request)

	docRef := sql.NullString{String: doc.ID, Valid: true}
	detail := ""
	auditAction := actionToAudit(action)
	if decision.Granted {
		if decision.Context == models.ContextEmergency {
			auditAction = models.ActionEmergencyAccessed
		}
	} else {
		detail = "denied: " + decision.Reason
	}

	auditContext := decision.Context
	if auditContext == "" {
		auditContext = models.ContextNormal
	}

	if err := s.audit(ctx, actor, docRef, auditAction, auditContext, requestRef, detail); err != nil {
		return nil, nil, err
	}

	if !decision.Granted {
		return &decision, nil, nil
	}

	// The sticky first-access timestamp is written only after the audit row
	// landed: a denied-because-unaudited attempt must not burn it
	if decision.Context == models.ContextEmergency && request != nil {
		if err := s.repo.MarkGrantAccessed(ctx, request.ID, doc.ID, s.now()); err != nil {
			s.logger.Error("failed to mark grant accessed", zap.Error(err), zap.String("requestId", request.ID))
		}
	}

	return &decision, doc, nil
}

// resolve computes the access decision without side effects beyond the sticky
// first-access timestamp on an exercised emergency grant.
func (s *DefaultService) resolve(ctx context.Context, actor models.Actor, doc *models.Document, action string, request *models.EmergencyAccessRequest) models.AccessDecision {
	// Soft-deleted documents are never authorizable, grant or no grant
	if !doc.IsActive {
		return models.AccessDecision{Granted: false, Reason: models.DenyNoGrant}
	}

	// 1. Owner access
	if actor.UserID != "" && actor.UserID == doc.UserID {
		return models.AccessDecision{Granted: true, Context: models.ContextNormal}
	}

	// 2. Standing share, resolved through the contact record the owner keeps
	// for this actor
	if actor.Email != "" {
		contact, err := s.repo.FindContactByOwnerEmail(ctx, doc.UserID, actor.Email)
		if err != nil {
			s.logger.Error("contact lookup failed", zap.Error(err))
			return models.AccessDecision{Granted: false, Reason: models.DenyNoShare}
		}

		if contact != nil {
			if contact.CanAccessAll {
				return models.AccessDecision{Granted: true, Context: models.ContextShared}
			}

			share, err := s.repo.FindShare(ctx, doc.ID, contact.ID)
			if err != nil {
				s.logger.Error("share lookup failed", zap.Error(err))
				return models.AccessDecision{Granted: false, Reason: models.DenyNoShare}
			}

			if share != nil && accessTypeCovers(share.AccessType, action) {
				return models.AccessDecision{Granted: true, Context: models.ContextShared}
			}
		}
	}

	// 3. Active emergency grant
	if request != nil {
		return s.resolveEmergency(ctx, actor, doc, action, request)
	}

	if actor.UserID == "" {
		return models.AccessDecision{Granted: false, Reason: models.DenyNoGrant}
	}

	return models.AccessDecision{Granted: false, Reason: models.DenyNoShare}
}

func (s *DefaultService) resolveEmergency(ctx context.Context, actor models.Actor, doc *models.Document, action string, request *models.EmergencyAccessRequest) models.AccessDecision {
	// The request id is not a bearer token: the actor must present the
	// identity the request was filed under
	if !strings.EqualFold(request.RequesterEmail, actor.Email) {
		return models.AccessDecision{Granted: false, Reason: models.DenyNoGrant}
	}

	decision := s.CheckAccess(ctx, request.ID, doc.ID, s.now())
	if !decision.Granted {
		// The gate speaks its own denial vocabulary; of the workflow's
		// internal codes only the expiry reason passes through
		if decision.Reason != models.DenyExpired {
			decision.Reason = models.DenyNoGrant
		}
		return decision
	}

	grant, err := s.repo.GetGrantDocument(ctx, request.ID, doc.ID)
	if err != nil || grant == nil {
		return models.AccessDecision{Granted: false, Reason: models.DenyNoGrant}
	}

	if !accessTypeCovers(grant.AccessType, action) {
		return models.AccessDecision{Granted: false, Reason: models.DenyNoGrant}
	}

	return models.AccessDecision{Granted: true, Context: models.ContextEmergency}
}

// audit appends the single audit row for an authorization decision. An error
// here aborts the request (fail closed).
func (s *DefaultService) audit(ctx context.Context, actor models.Actor, docRef sql.NullString, action, context string, requestRef sql.NullString, detail string) error {
	entry := &models.AccessLog{
		ActorName:          actor.Name,
		ActorEmail:         actor.Email,
		DocumentID:         docRef,
		Action:             action,
		Context:            context,
		EmergencyRequestID: requestRef,
		Detail:             detail,
		CreatedAt:          s.now(),
	}

	if actor.UserID != "" {
		entry.UserID = sql.NullString{String: actor.UserID, Valid: true}
	}

	if err := s.repo.AppendAccessLog(ctx, entry); err != nil {
		s.logger.Error("audit write failed, denying access", zap.Error(err))
		return errs.Storage(fmt.Errorf("error writing audit log: %w", err))
	}

	return nil
}

// ListAccessLogs returns a user's visible slice of the audit trail.
func (s *DefaultService) ListAccessLogs(ctx context.Context, userID string, limit int) ([]models.AccessLog, error) {
	logs, err := s.repo.GetUserAccessLogs(ctx, userID, limit)
	if err != nil {
		return nil, errs.Storage(fmt.Errorf("error listing access logs: %w", err))
	}

	return logs, nil
}

// accessTypeCovers reports whether a granted access type covers the requested
// action: download implies view, view does not imply download.
func accessTypeCovers(granted, action string) bool {
	if granted == models.AccessTypeDownload {
		return true
	}
	return action == models.AccessTypeView
}

func actionToAudit(action string) string {
	if action == models.AccessTypeDownload {
		return models.ActionDownloaded
	}
	return models.ActionViewed
}

package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scrandev/aerialnest/internal/errs"
	"github.com/scrandev/aerialnest/internal/models"
)

// Emergency access workflow.
//
// Status moves pending -> approved|denied exactly once; there is no other
// edge. Expiry is computed from expires_at on every read, never flipped by a
// background job, so a delayed sweep can never leave a stale grant open.

// CreateEmergencyRequest submits a request against a user's documents on
// behalf of one of their trusted contacts. Anyone claiming an emergency may
// submit; eligibility of the contact is enforced at approval time.
func (s *DefaultService) CreateEmergencyRequest(ctx context.Context, req models.CreateEmergencyRequestRequest) (*models.EmergencyAccessRequest, error) {
	owner, err := s.repo.GetUserByID(ctx, req.OwnerID)
	if err != nil {
		return nil, errs.Storage(fmt.Errorf("error getting owner: %w", err))
	}

	if owner == nil {
		return nil, errs.Validation("UNKNOWN_OWNER", "owner does not exist")
	}

	contact, err := s.repo.GetContact(ctx, req.ContactID)
	if err != nil {
		return nil, errs.Storage(fmt.Errorf("error getting contact: %w", err))
	}

	if contact == nil || contact.UserID != req.OwnerID {
		return nil, errs.Validation("UNKNOWN_CONTACT", "contact does not belong to this user")
	}

	ttl := s.emergencyTTL
	if req.TTLHours > 0 {
		ttl = time.Duration(req.TTLHours) * time.Hour
	}

	now := s.now()
	request := &models.EmergencyAccessRequest{
		UserID:         req.OwnerID,
		ContactID:      req.ContactID,
		RequesterName:  req.RequesterName,
		RequesterEmail: req.RequesterEmail,
		Reason:         req.Reason,
		EmergencyType:  req.EmergencyType,
		Status:         models.RequestStatusPending,
		RequestedAt:    now,
		// Every request carries an expiry; there is no "no expiry"
		ExpiresAt: now.Add(ttl),
	}

	if err := s.repo.CreateEmergencyRequest(ctx, request); err != nil {
		return nil, errs.Storage(fmt.Errorf("error creating emergency request: %w", err))
	}

	entry := &models.AccessLog{
		ActorName:          req.RequesterName,
		ActorEmail:         req.RequesterEmail,
		Action:             models.ActionEmergencyRequested,
		Context:            models.ContextEmergency,
		EmergencyRequestID: sql.NullString{String: request.ID, Valid: true},
		Detail:             fmt.Sprintf("type=%s", req.EmergencyType),
		CreatedAt:          now,
	}
	if err := s.repo.AppendAccessLog(ctx, entry); err != nil {
		s.logger.Error("audit write failed on emergency request", zap.Error(err))
		return nil, errs.Storage(fmt.Errorf("error recording emergency request: %w", err))
	}

	s.logger.Info("emergency access requested",
		zap.String("requestId", request.ID),
		zap.String("ownerId", req.OwnerID),
		zap.String("emergencyType", req.EmergencyType))

	return request, nil
}

func (s *DefaultService) ListEmergencyRequests(ctx context.Context, userID string) ([]models.EmergencyAccessRequest, error) {
	requests, err := s.repo.GetUserEmergencyRequests(ctx, userID)
	if err != nil {
		return nil, errs.Storage(fmt.Errorf("error listing emergency requests: %w", err))
	}

	// Fold computed expiry into the reported status
	now := s.now()
	for i := range requests {
		requests[i].Status = requests[i].EffectiveStatus(now)
	}

	return requests, nil
}

// Decide approves or denies a pending request. Only the owning user, or an
// admin acting as an override (recorded on the request), may decide. A request
// that sat undecided past its own expiry is no longer decidable.
func (s *DefaultService) Decide(ctx context.Context, deciderID, requestID string, req models.DecisionRequest) (*models.DecisionResponse, error) {
	request, err := s.repo.GetEmergencyRequest(ctx, requestID)
	if err != nil {
		return nil, errs.Storage(fmt.Errorf("error getting emergency request: %w", err))
	}

	if request == nil {
		return nil, errs.NotFound("REQUEST_NOT_FOUND", "emergency request not found")
	}

	isOwner := request.UserID == deciderID
	adminID := ""
	if !isOwner {
		decider, err := s.repo.GetUserByID(ctx, deciderID)
		if err != nil {
			return nil, errs.Storage(fmt.Errorf("error getting decider: %w", err))
		}

		if decider == nil || !decider.IsAdmin {
			return nil, errs.Authorization(models.DenyNotOwner, "only the owner or an admin may decide this request")
		}

		adminID = decider.ID
	}

	if request.Status != models.RequestStatusPending {
		return nil, errs.State("NOT_PENDING", "request has already been decided")
	}

	now := s.now()
	if !now.Before(request.ExpiresAt) {
		return nil, errs.State("REQUEST_EXPIRED", "request expired before a decision was made")
	}

	var grantedCount int
	switch req.Decision {
	case "approve":
		grants, err := s.buildGrants(ctx, request, req)
		if err != nil {
			return nil, err
		}

		won, err := s.repo.ApproveEmergencyRequest(ctx, requestID, now, grants, adminID, req.AdminNotes)
		if err != nil {
			return nil, errs.Storage(fmt.Errorf("error approving request: %w", err))
		}

		if !won {
			return nil, errs.State("NOT_PENDING", "request has already been decided")
		}

		grantedCount = len(grants)

	case "deny":
		won, err := s.repo.DenyEmergencyRequest(ctx, requestID, req.DenialReason, adminID, req.AdminNotes)
		if err != nil {
			return nil, errs.Storage(fmt.Errorf("error denying request: %w", err))
		}

		if !won {
			return nil, errs.State("NOT_PENDING", "request has already been decided")
		}

	default:
		return nil, errs.Validation("INVALID_DECISION", "decision must be approve or deny")
	}

	entry := &models.AccessLog{
		UserID:             sql.NullString{String: deciderID, Valid: true},
		Action:             models.ActionEmergencyDecided,
		Context:            models.ContextEmergency,
		EmergencyRequestID: sql.NullString{String: requestID, Valid: true},
		Detail:             req.Decision,
		CreatedAt:          now,
	}
	if err := s.repo.AppendAccessLog(ctx, entry); err != nil {
		s.logger.Error("audit write failed on decision", zap.Error(err))
		return nil, errs.Storage(fmt.Errorf("error recording decision: %w", err))
	}

	s.logger.Info("emergency request decided",
		zap.String("requestId", requestID),
		zap.String("decision", req.Decision),
		zap.Bool("adminOverride", adminID != ""))

	return &models.DecisionResponse{
		Status:           "success",
		RequestID:        requestID,
		Decision:         req.Decision,
		GrantedDocuments: grantedCount,
	}, nil
}

// buildGrants validates an approval and assembles its grant rows.
func (s *DefaultService) buildGrants(ctx context.Context, request *models.EmergencyAccessRequest, req models.DecisionRequest) ([]models.EmergencyAccessDocument, error) {
	if len(req.GrantedDocumentIDs) == 0 {
		return nil, errs.Validation("EMPTY_GRANT", "approval requires at least one document")
	}

	// Only designated emergency contacts may receive emergency access,
	// regardless of owner intent
	eligible, err := s.isEmergencyEligible(ctx, request.UserID, request.ContactID)
	if err != nil {
		return nil, err
	}

	if !eligible {
		return nil, errs.Validation("CONTACT_NOT_ELIGIBLE", "contact is not designated for emergency access")
	}

	accessType := req.AccessType
	if accessType == "" {
		accessType = models.AccessTypeView
	}

	grants := make([]models.EmergencyAccessDocument, 0, len(req.GrantedDocumentIDs))
	seen := make(map[string]bool)
	for _, docID := range req.GrantedDocumentIDs {
		if seen[docID] {
			continue
		}
		seen[docID] = true

		doc, err := s.repo.GetDocument(ctx, docID)
		if err != nil {
			return nil, errs.Storage(fmt.Errorf("error getting document: %w", err))
		}

		if doc == nil || !doc.IsActive || doc.UserID != request.UserID {
			return nil, errs.Validation("UNKNOWN_DOCUMENT", fmt.Sprintf("document %s is not in the owner's document set", docID))
		}

		grants = append(grants, models.EmergencyAccessDocument{
			RequestID:  request.ID,
			DocumentID: docID,
			AccessType: accessType,
		})
	}

	return grants, nil
}

// CheckAccess evaluates whether an emergency request currently grants access
// to a document. Pure read with no error path: storage failures deny (fail
// closed). Must be re-evaluated on every access attempt, since expiry is a
// function of the clock, not an event.
func (s *DefaultService) CheckAccess(ctx context.Context, requestID, documentID string, now time.Time) models.AccessDecision {
	request, err := s.repo.GetEmergencyRequest(ctx, requestID)
	if err != nil {
		s.logger.Error("access check failed to load request", zap.Error(err), zap.String("requestId", requestID))
		return models.AccessDecision{Granted: false, Reason: models.DenyNotApproved}
	}

	if request == nil || request.Status != models.RequestStatusApproved {
		return models.AccessDecision{Granted: false, Reason: models.DenyNotApproved}
	}

	if !now.Before(request.ExpiresAt) {
		return models.AccessDecision{Granted: false, Reason: models.DenyExpired}
	}

	grant, err := s.repo.GetGrantDocument(ctx, requestID, documentID)
	if err != nil {
		s.logger.Error("access check failed to load grant", zap.Error(err), zap.String("requestId", requestID))
		return models.AccessDecision{Granted: false, Reason: models.DenyNotInGrant}
	}

	if grant == nil {
		return models.AccessDecision{Granted: false, Reason: models.DenyNotInGrant}
	}

	return models.AccessDecision{Granted: true, Context: models.ContextEmergency}
}

package models

import (
	"database/sql"
	"time"
)

// Request status values for emergency access requests
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusDenied   = "denied"
	RequestStatusExpired  = "expired"
)

// Access types for shares and emergency grants
const (
	AccessTypeView     = "view"
	AccessTypeDownload = "download"
)

// Audit actions recorded in access_logs
const (
	ActionViewed             = "viewed"
	ActionDownloaded         = "downloaded"
	ActionShared             = "shared"
	ActionEmergencyAccessed  = "emergency_accessed"
	ActionUploaded           = "uploaded"
	ActionEmergencyRequested = "emergency_requested"
	ActionEmergencyDecided   = "emergency_decided"
)

// Access contexts recorded in access_logs
const (
	ContextNormal    = "normal"
	ContextEmergency = "emergency"
	ContextShared    = "shared"
)

// Denial reasons returned by access checks
const (
	DenyNotApproved = "not_approved"
	DenyExpired     = "expired"
	DenyNotInGrant  = "not_in_grant"
	DenyNotOwner    = "not_owner"
	DenyNoShare     = "no_share"
	DenyNoGrant     = "no_grant"
)

// User represents a registered account
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Password  string    `db:"password" json:"-"` // Password hash, not returned in JSON
	IsAdmin   bool      `db:"is_admin" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Category is a fixed document grouping, seeded at startup
type Category struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
	SortOrder   int    `db:"sort_order" json:"sortOrder"`
}

// Document holds the metadata of an uploaded file. The file bytes live in an
// external object store under StorageKey; only metadata is managed here.
type Document struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"userId"`
	CategoryID  string    `db:"category_id" json:"categoryId"`
	Title       string    `db:"title" json:"title"`
	FileName    string    `db:"file_name" json:"fileName"`
	StorageKey  string    `db:"storage_key" json:"-"`
	FileSize    int64     `db:"file_size" json:"fileSize"`
	ContentType string    `db:"content_type" json:"contentType"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// TrustedContact is a person designated by a user to receive standing or
// emergency access to that user's documents.
type TrustedContact struct {
	ID               string    `db:"id" json:"id"`
	UserID           string    `db:"user_id" json:"userId"`
	Name             string    `db:"name" json:"name"`
	Email            string    `db:"email" json:"email"`
	Phone            string    `db:"phone" json:"phone"`
	Relationship     string    `db:"relationship" json:"relationship"`
	CanAccessAll     bool      `db:"can_access_all" json:"canAccessAll"`
	EmergencyContact bool      `db:"emergency_contact" json:"emergencyContact"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}

// DocumentShare is a standing grant of one document to one trusted contact.
// Always active once created; revoked only by deletion.
type DocumentShare struct {
	ID         string    `db:"id" json:"id"`
	DocumentID string    `db:"document_id" json:"documentId"`
	ContactID  string    `db:"contact_id" json:"contactId"`
	AccessType string    `db:"access_type" json:"accessType"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// EmergencyAccessRequest is the workflow's central entity. Status moves
// pending -> approved|denied exactly once; expiry is derived from ExpiresAt
// at read time, never from the persisted status alone.
type EmergencyAccessRequest struct {
	ID              string         `db:"id" json:"id"`
	UserID          string         `db:"user_id" json:"userId"`
	ContactID       string         `db:"contact_id" json:"contactId"`
	RequesterName   string         `db:"requester_name" json:"requesterName"`
	RequesterEmail  string         `db:"requester_email" json:"requesterEmail"`
	Reason          string         `db:"reason" json:"reason"`
	EmergencyType   string         `db:"emergency_type" json:"emergencyType"`
	Status          string         `db:"status" json:"status"`
	RequestedAt     time.Time      `db:"requested_at" json:"requestedAt"`
	ApprovedAt      sql.NullTime   `db:"approved_at" json:"-"`
	ExpiresAt       time.Time      `db:"expires_at" json:"expiresAt"`
	DenialReason    sql.NullString `db:"denial_reason" json:"-"`
	AdminApprovedBy sql.NullString `db:"admin_approved_by" json:"-"`
	AdminNotes      sql.NullString `db:"admin_notes" json:"-"`
}

// EffectiveStatus folds computed expiry into the persisted status for display.
func (r *EmergencyAccessRequest) EffectiveStatus(now time.Time) string {
	if r.Status == RequestStatusDenied {
		return RequestStatusDenied
	}
	if !now.Before(r.ExpiresAt) {
		return RequestStatusExpired
	}
	return r.Status
}

// EmergencyAccessDocument names one document included in an approved request.
// AccessedAt is set on first exercise of the grant and never overwritten.
type EmergencyAccessDocument struct {
	ID         string       `db:"id" json:"id"`
	RequestID  string       `db:"request_id" json:"requestId"`
	DocumentID string       `db:"document_id" json:"documentId"`
	AccessType string       `db:"access_type" json:"accessType"`
	AccessedAt sql.NullTime `db:"accessed_at" json:"-"`
}

// AccessLog is one append-only audit row. References are nullable so that
// deleting a user, document or contact nulls them instead of removing the row.
type AccessLog struct {
	ID                 string         `db:"id" json:"id"`
	UserID             sql.NullString `db:"user_id" json:"-"`
	ActorName          string         `db:"actor_name" json:"actorName"`
	ActorEmail         string         `db:"actor_email" json:"actorEmail"`
	DocumentID         sql.NullString `db:"document_id" json:"-"`
	Action             string         `db:"action" json:"action"`
	Context            string         `db:"context" json:"context"`
	EmergencyRequestID sql.NullString `db:"emergency_request_id" json:"-"`
	Detail             string         `db:"detail" json:"detail,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"createdAt"`
}

// Actor identifies who is attempting an access: a registered user (UserID set)
// or an unauthenticated emergency requester (bare name/email).
type Actor struct {
	UserID string
	Name   string
	Email  string
}

// AccessDecision is the outcome of an authorization check. Reason is set only
// when Granted is false.
type AccessDecision struct {
	Granted bool   `json:"granted"`
	Context string `json:"context,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

package models

// Request models
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateDocumentRequest struct {
	CategoryID  string `json:"categoryId" binding:"required"`
	Title       string `json:"title" binding:"required"`
	FileName    string `json:"fileName" binding:"required"`
	StorageKey  string `json:"storageKey" binding:"required"`
	FileSize    int64  `json:"fileSize" binding:"required,min=1"`
	ContentType string `json:"contentType"`
}

type UpdateDocumentRequest struct {
	CategoryID string `json:"categoryId"`
	Title      string `json:"title"`
}

type CreateContactRequest struct {
	Name             string `json:"name" binding:"required"`
	Email            string `json:"email" binding:"required,email"`
	Phone            string `json:"phone"`
	Relationship     string `json:"relationship"`
	CanAccessAll     bool   `json:"canAccessAll"`
	EmergencyContact bool   `json:"emergencyContact"`
}

type UpdateContactRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Relationship     string `json:"relationship"`
	CanAccessAll     *bool  `json:"canAccessAll"`
	EmergencyContact *bool  `json:"emergencyContact"`
}

type CreateShareRequest struct {
	DocumentID string `json:"documentId" binding:"required"`
	AccessType string `json:"accessType" binding:"required,oneof=view download"`
}

type CreateEmergencyRequestRequest struct {
	OwnerID        string `json:"ownerId" binding:"required"`
	ContactID      string `json:"contactId" binding:"required"`
	RequesterName  string `json:"requesterName" binding:"required"`
	RequesterEmail string `json:"requesterEmail" binding:"required,email"`
	Reason         string `json:"reason" binding:"required"`
	EmergencyType  string `json:"emergencyType" binding:"required"`
	TTLHours       int    `json:"ttlHours" binding:"omitempty,min=1,max=720"`
}

type DecisionRequest struct {
	Decision           string   `json:"decision" binding:"required,oneof=approve deny"`
	GrantedDocumentIDs []string `json:"grantedDocumentIds"`
	AccessType         string   `json:"accessType" binding:"omitempty,oneof=view download"`
	DenialReason       string   `json:"denialReason"`
	AdminNotes         string   `json:"adminNotes"`
}

// Response models
type AuthResponse struct {
	Status    string `json:"status"`
	UserID    string `json:"userId,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

type DocumentResponse struct {
	Status   string    `json:"status"`
	Document *Document `json:"document,omitempty"`
	Context  string    `json:"context,omitempty"`
}

type DocumentListResponse struct {
	Status    string     `json:"status"`
	Documents []Document `json:"documents"`
}

type CategoryListResponse struct {
	Status     string     `json:"status"`
	Categories []Category `json:"categories"`
}

type ContactResponse struct {
	Status  string          `json:"status"`
	Contact *TrustedContact `json:"contact,omitempty"`
}

type ContactListResponse struct {
	Status   string           `json:"status"`
	Contacts []TrustedContact `json:"contacts"`
}

type ShareResponse struct {
	Status string         `json:"status"`
	Share  *DocumentShare `json:"share,omitempty"`
}

type EmergencyRequestResponse struct {
	Status    string                  `json:"status"`
	Request   *EmergencyAccessRequest `json:"request,omitempty"`
	ExpiresAt string                  `json:"expiresAt,omitempty"`
}

type EmergencyRequestListResponse struct {
	Status   string                   `json:"status"`
	Requests []EmergencyAccessRequest `json:"requests"`
}

type DecisionResponse struct {
	Status           string `json:"status"`
	RequestID        string `json:"requestId"`
	Decision         string `json:"decision"`
	GrantedDocuments int    `json:"grantedDocuments,omitempty"`
}

type AccessLogListResponse struct {
	Status string      `json:"status"`
	Logs   []AccessLog `json:"logs"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scrandev/aerialnest/internal/models"
)

// CreateDocument handles POST /api/documents
func (h *Handler) CreateDocument(c *gin.Context) {
	var req models.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	doc, err := h.svc.CreateDocument(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.DocumentResponse{
		Status:   "success",
		Document: doc,
	})
}

// ListDocuments handles GET /api/documents
func (h *Handler) ListDocuments(c *gin.Context) {
	docs, err := h.svc.ListDocuments(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.DocumentListResponse{
		Status:    "success",
		Documents: docs,
	})
}

// GetDocument handles GET /api/documents/:id. All reads are routed through
// the access gate: owner, standing share and emergency grant resolve here,
// and every attempt lands in the audit log.
func (h *Handler) GetDocument(c *gin.Context) {
	actor, err := h.resolveActor(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	action := c.DefaultQuery("action", models.AccessTypeView)
	if action != models.AccessTypeView && action != models.AccessTypeDownload {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status:  "error",
			Code:    "INVALID_ACTION",
			Message: "action must be view or download",
		})
		return
	}

	emergencyRequestID := c.Query("emergencyRequestId")

	decision, doc, err := h.svc.Authorize(c.Request.Context(), actor, c.Param("id"), action, emergencyRequestID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if !decision.Granted {
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Status:  "error",
			Code:    "ACCESS_DENIED",
			Message: "access denied",
			Reason:  decision.Reason,
		})
		return
	}

	c.JSON(http.StatusOK, models.DocumentResponse{
		Status:   "success",
		Document: doc,
		Context:  decision.Context,
	})
}

// UpdateDocument handles PUT /api/documents/:id
func (h *Handler) UpdateDocument(c *gin.Context) {
	var req models.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	doc, err := h.svc.UpdateDocument(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.DocumentResponse{
		Status:   "success",
		Document: doc,
	})
}

// DeleteDocument handles DELETE /api/documents/:id
func (h *Handler) DeleteDocument(c *gin.Context) {
	if err := h.svc.DeleteDocument(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// ListAccessLogs handles GET /api/access-logs
func (h *Handler) ListAccessLogs(c *gin.Context) {
	logs, err := h.svc.ListAccessLogs(c.Request.Context(), currentUserID(c), 0)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AccessLogListResponse{
		Status: "success",
		Logs:   logs,
	})
}

// resolveActor builds the actor descriptor for the access gate: the
// authenticated user when a token was presented, otherwise the bare identity
// an emergency requester supplies in query parameters.
func (h *Handler) resolveActor(c *gin.Context) (models.Actor, error) {
	if userID := currentUserID(c); userID != "" {
		user, err := h.svc.GetUser(c.Request.Context(), userID)
		if err != nil {
			return models.Actor{}, err
		}

		return models.Actor{UserID: user.ID, Name: user.Name, Email: user.Email}, nil
	}

	return models.Actor{
		Name:  c.Query("requesterName"),
		Email: c.Query("requesterEmail"),
	}, nil
}

package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/scrandev/aerialnest/internal/models"
)

// CreateEmergencyRequest handles POST /api/emergency-requests. No
// authentication: the requester may not have an account.
func (h *Handler) CreateEmergencyRequest(c *gin.Context) {
	var req models.CreateEmergencyRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	request, err := h.svc.CreateEmergencyRequest(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.EmergencyRequestResponse{
		Status:    "success",
		Request:   request,
		ExpiresAt: request.ExpiresAt.Format(time.RFC3339),
	})
}

// ListEmergencyRequests handles GET /api/emergency-requests: the requests
// filed against the authenticated user's documents.
func (h *Handler) ListEmergencyRequests(c *gin.Context) {
	requests, err := h.svc.ListEmergencyRequests(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.EmergencyRequestListResponse{
		Status:   "success",
		Requests: requests,
	})
}

// DecideEmergencyRequest handles POST /api/emergency-requests/:id/decision
func (h *Handler) DecideEmergencyRequest(c *gin.Context) {
	var req models.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	resp, err := h.svc.Decide(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

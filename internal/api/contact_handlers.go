package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scrandev/aerialnest/internal/models"
)

// CreateContact handles POST /api/contacts
func (h *Handler) CreateContact(c *gin.Context) {
	var req models.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	contact, err := h.svc.CreateContact(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.ContactResponse{
		Status:  "success",
		Contact: contact,
	})
}

// ListContacts handles GET /api/contacts
func (h *Handler) ListContacts(c *gin.Context) {
	contacts, err := h.svc.ListContacts(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ContactListResponse{
		Status:   "success",
		Contacts: contacts,
	})
}

// UpdateContact handles PUT /api/contacts/:id
func (h *Handler) UpdateContact(c *gin.Context) {
	var req models.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	contact, err := h.svc.UpdateContact(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ContactResponse{
		Status:  "success",
		Contact: contact,
	})
}

// DeleteContact handles DELETE /api/contacts/:id
func (h *Handler) DeleteContact(c *gin.Context) {
	if err := h.svc.DeleteContact(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// CreateShare handles POST /api/contacts/:id/shares
func (h *Handler) CreateShare(c *gin.Context) {
	var req models.CreateShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	share, err := h.svc.CreateShare(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.ShareResponse{
		Status: "success",
		Share:  share,
	})
}

// DeleteShare handles DELETE /api/shares/:id
func (h *Handler) DeleteShare(c *gin.Context) {
	if err := h.svc.DeleteShare(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

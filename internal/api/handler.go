package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/scrandev/aerialnest/internal/errs"
	"github.com/scrandev/aerialnest/internal/models"
	"github.com/scrandev/aerialnest/internal/service"
)

// Handler holds the HTTP handlers for the API
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(svc service.Service, logger *zap.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logger,
	}
}

// SetupRoutes registers all API routes on the router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")

	// Public routes
	api.POST("/auth/signup", h.SignUp)
	api.POST("/auth/login", h.Login)
	api.GET("/categories", h.ListCategories)

	// Emergency requests may come from people without accounts
	api.POST("/emergency-requests", h.CreateEmergencyRequest)

	// Document reads go through the access gate; the caller may be the
	// owner, a contact with a standing share, or an emergency requester
	api.GET("/documents/:id", OptionalAuthMiddleware(), h.GetDocument)

	// Authenticated routes
	auth := api.Group("", AuthMiddleware())
	{
		auth.POST("/documents", h.CreateDocument)
		auth.GET("/documents", h.ListDocuments)
		auth.PUT("/documents/:id", h.UpdateDocument)
		auth.DELETE("/documents/:id", h.DeleteDocument)

		auth.POST("/contacts", h.CreateContact)
		auth.GET("/contacts", h.ListContacts)
		auth.PUT("/contacts/:id", h.UpdateContact)
		auth.DELETE("/contacts/:id", h.DeleteContact)
		auth.POST("/contacts/:id/shares", h.CreateShare)
		auth.DELETE("/shares/:id", h.DeleteShare)

		auth.GET("/emergency-requests", h.ListEmergencyRequests)
		auth.POST("/emergency-requests/:id/decision", h.DecideEmergencyRequest)

		auth.GET("/access-logs", h.ListAccessLogs)
	}
}

// respondError maps a service error to an HTTP status and a stable error
// code. Storage errors collapse to a generic message: infrastructure detail
// goes to the log, not the client.
func (h *Handler) respondError(c *gin.Context, err error) {
	code := errs.CodeOf(err)

	var status int
	message := err.Error()

	switch errs.KindOf(err) {
	case errs.KindValidation:
		status = http.StatusBadRequest
	case errs.KindAuthorization:
		status = http.StatusForbidden
		if code == "INVALID_CREDENTIALS" {
			status = http.StatusUnauthorized
		}
	case errs.KindState:
		status = http.StatusConflict
	case errs.KindNotFound:
		status = http.StatusNotFound
	default:
		status = http.StatusInternalServerError
		code = "INTERNAL"
		message = "internal server error"
		h.logger.Error("request failed", zap.Error(err), zap.String("path", c.FullPath()))
	}

	c.JSON(status, models.ErrorResponse{
		Status:  "error",
		Code:    code,
		Message: message,
	})
}

// badRequest reports a malformed request body or parameter.
func (h *Handler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Status:  "error",
		Code:    "INVALID_REQUEST",
		Message: err.Error(),
	})
}

// currentUserID reads the authenticated user id set by AuthMiddleware.
func currentUserID(c *gin.Context) string {
	return c.GetString("userId")
}

package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrandev/aerialnest/internal/api/testutils"
	"github.com/scrandev/aerialnest/internal/models"
)

func TestDocumentLifecycle(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	logsBefore := testutils.CountAccessLogs(t, testCtx.Repository)

	// Create a document metadata record
	createReq := models.CreateDocumentRequest{
		CategoryID:  "cat-legal",
		Title:       "Last Will",
		FileName:    "will.pdf",
		StorageKey:  "uploads/abc123",
		FileSize:    4096,
		ContentType: "application/pdf",
	}

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/documents",
		createReq, testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.DocumentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotNil(t, created.Document)
	docID := created.Document.ID

	// Upload is audited
	assert.Equal(t, logsBefore+1, testutils.CountAccessLogs(t, testCtx.Repository))

	// List shows the document
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/documents", nil,
		testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code)

	var list models.DocumentListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Documents, 1)
	assert.Equal(t, "Last Will", list.Documents[0].Title)

	// Metadata update
	w = testutils.PerformRequest(testCtx.Router, http.MethodPut,
		fmt.Sprintf("/api/documents/%s", docID),
		models.UpdateDocumentRequest{Title: "Last Will (2026)"},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code)

	// Soft delete hides it from the list
	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete,
		fmt.Sprintf("/api/documents/%s", docID), nil,
		testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/documents", nil,
		testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list.Documents)
}

func TestDocumentOwnershipEnforced(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	docID := testutils.CreateDocument(t, testCtx.Repository, testCtx.TestUserID, "private")

	_, otherJWT := testutils.CreateUser(t, testCtx.Repository, string(testCtx.JWTSecret), "intruder@example.com", "Intruder", false)

	// Neither update nor delete of somebody else's document
	w := testutils.PerformRequest(testCtx.Router, http.MethodPut,
		fmt.Sprintf("/api/documents/%s", docID),
		models.UpdateDocumentRequest{Title: "mine now"},
		testutils.AuthHeaders(otherJWT))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete,
		fmt.Sprintf("/api/documents/%s", docID), nil,
		testutils.AuthHeaders(otherJWT))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Unauthenticated writes are rejected outright
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/documents",
		models.CreateDocumentRequest{
			CategoryID: "cat-legal",
			Title:      "anon",
			FileName:   "anon.pdf",
			StorageKey: "uploads/anon",
			FileSize:   1,
		}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListCategories(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/categories", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.CategoryListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Categories)

	// Seeded in sort order
	for i := 1; i < len(resp.Categories); i++ {
		assert.LessOrEqual(t, resp.Categories[i-1].SortOrder, resp.Categories[i].SortOrder)
	}
}

func TestAccessLogListing(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	docID := testutils.CreateDocument(t, testCtx.Repository, testCtx.TestUserID, "visible")

	// Generate a read so there is something to list
	w := testutils.PerformRequest(testCtx.Router, http.MethodGet,
		fmt.Sprintf("/api/documents/%s", docID), nil,
		testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/access-logs", nil,
		testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.AccessLogListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Logs)
	assert.Equal(t, models.ActionViewed, resp.Logs[0].Action)
}

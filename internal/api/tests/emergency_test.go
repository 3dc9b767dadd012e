package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrandev/aerialnest/internal/api/testutils"
	"github.com/scrandev/aerialnest/internal/models"
)

func TestEmergencyAccessLifecycle(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	ownerID := testCtx.TestUserID
	docID := testutils.CreateDocument(t, testCtx.Repository, ownerID, "advance-directive")
	contactID := testutils.CreateContact(t, testCtx.Repository, ownerID, "Casey Reed", "casey@example.com", true)

	// Requester without an account files a request with a 24h TTL
	createReq := models.CreateEmergencyRequestRequest{
		OwnerID:        ownerID,
		ContactID:      contactID,
		RequesterName:  "Casey Reed",
		RequesterEmail: "casey@example.com",
		Reason:         "medical",
		EmergencyType:  "medical",
		TTLHours:       24,
	}

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/emergency-requests", createReq, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.EmergencyRequestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotNil(t, created.Request)
	requestID := created.Request.ID
	assert.Equal(t, models.RequestStatusPending, created.Request.Status)
	assert.False(t, created.Request.ExpiresAt.IsZero())

	// Owner approves, granting the one document
	decision := models.DecisionRequest{
		Decision:           "approve",
		GrantedDocumentIDs: []string{docID},
	}

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost,
		fmt.Sprintf("/api/emergency-requests/%s/decision", requestID),
		decision, testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code)

	var decided models.DecisionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decided))
	assert.Equal(t, 1, decided.GrantedDocuments)

	// Approved request must carry at least one grant row
	grants, err := testCtx.Repository.GetGrantDocuments(context.Background(), requestID)
	require.NoError(t, err)
	assert.NotEmpty(t, grants)

	// Deciding twice: second decision loses with 409
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost,
		fmt.Sprintf("/api/emergency-requests/%s/decision", requestID),
		models.DecisionRequest{Decision: "deny", DenialReason: "changed my mind"},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusConflict, w.Code)

	// Requester exercises the grant, unauthenticated, via the access gate
	path := fmt.Sprintf("/api/documents/%s?emergencyRequestId=%s&requesterName=Casey%%20Reed&requesterEmail=casey@example.com", docID, requestID)
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var docResp models.DocumentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &docResp))
	assert.Equal(t, models.ContextEmergency, docResp.Context)

	// 25 hours later the same call is denied as expired, without any write
	base := time.Now().UTC()
	testCtx.Service.SetTimeFunc(func() time.Time { return base.Add(25 * time.Hour) })

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	var denied models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &denied))
	assert.Equal(t, models.DenyExpired, denied.Reason)
}

func TestEmergencyDecisionAuthorization(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	ownerID := testCtx.TestUserID
	docID := testutils.CreateDocument(t, testCtx.Repository, ownerID, "will")
	contactID := testutils.CreateContact(t, testCtx.Repository, ownerID, "Jo March", "jo@example.com", true)

	requestID := createEmergencyRequest(t, testCtx, ownerID, contactID, "jo@example.com")

	// A random authenticated user may not decide
	_, strangerJWT := testutils.CreateUser(t, testCtx.Repository, string(testCtx.JWTSecret), "stranger@example.com", "Stranger", false)

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost,
		fmt.Sprintf("/api/emergency-requests/%s/decision", requestID),
		models.DecisionRequest{Decision: "approve", GrantedDocumentIDs: []string{docID}},
		testutils.AuthHeaders(strangerJWT))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// An admin may decide as an override
	_, adminJWT := testutils.CreateUser(t, testCtx.Repository, string(testCtx.JWTSecret), "admin@example.com", "Admin", true)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost,
		fmt.Sprintf("/api/emergency-requests/%s/decision", requestID),
		models.DecisionRequest{Decision: "approve", GrantedDocumentIDs: []string{docID}, AdminNotes: "owner unreachable"},
		testutils.AuthHeaders(adminJWT))
	assert.Equal(t, http.StatusOK, w.Code)

	// The override is recorded on the request
	request, err := testCtx.Repository.GetEmergencyRequest(context.Background(), requestID)
	require.NoError(t, err)
	assert.True(t, request.AdminApprovedBy.Valid)
	assert.Equal(t, "owner unreachable", request.AdminNotes.String)
}

func TestEmergencyApprovalValidation(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	ownerID := testCtx.TestUserID
	docID := testutils.CreateDocument(t, testCtx.Repository, ownerID, "deed")

	// Contact without the emergency flag: request is accepted but can never
	// be approved, regardless of owner intent
	ineligibleID := testutils.CreateContact(t, testCtx.Repository, ownerID, "Pat Quinn", "pat@example.com", false)
	requestID := createEmergencyRequest(t, testCtx, ownerID, ineligibleID, "pat@example.com")

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost,
		fmt.Sprintf("/api/emergency-requests/%s/decision", requestID),
		models.DecisionRequest{Decision: "approve", GrantedDocumentIDs: []string{docID}},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Approving with an empty grant set fails
	eligibleID := testutils.CreateContact(t, testCtx.Repository, ownerID, "Sam Oak", "sam@example.com", true)
	requestID = createEmergencyRequest(t, testCtx, ownerID, eligibleID, "sam@example.com")

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost,
		fmt.Sprintf("/api/emergency-requests/%s/decision", requestID),
		models.DecisionRequest{Decision: "approve"},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Granting somebody else's document fails
	otherUserID, _ := testutils.CreateUser(t, testCtx.Repository, string(testCtx.JWTSecret), "other@example.com", "Other", false)
	foreignDocID := testutils.CreateDocument(t, testCtx.Repository, otherUserID, "not-yours")

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost,
		fmt.Sprintf("/api/emergency-requests/%s/decision", requestID),
		models.DecisionRequest{Decision: "approve", GrantedDocumentIDs: []string{foreignDocID}},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// The request is still pending after the failed approvals and can be
	// approved correctly
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost,
		fmt.Sprintf("/api/emergency-requests/%s/decision", requestID),
		models.DecisionRequest{Decision: "approve", GrantedDocumentIDs: []string{docID}},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEmergencyRequestValidation(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	ownerID := testCtx.TestUserID

	// Unknown contact
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/emergency-requests",
		models.CreateEmergencyRequestRequest{
			OwnerID:        ownerID,
			ContactID:      "00000000-0000-0000-0000-000000000000",
			RequesterName:  "Nobody",
			RequesterEmail: "nobody@example.com",
			Reason:         "lost keys",
			EmergencyType:  "other",
		}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Contact belonging to a different user
	otherUserID, _ := testutils.CreateUser(t, testCtx.Repository, string(testCtx.JWTSecret), "second@example.com", "Second", false)
	foreignContactID := testutils.CreateContact(t, testCtx.Repository, otherUserID, "Lee", "lee@example.com", true)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/emergency-requests",
		models.CreateEmergencyRequestRequest{
			OwnerID:        ownerID,
			ContactID:      foreignContactID,
			RequesterName:  "Lee",
			RequesterEmail: "lee@example.com",
			Reason:         "urgent",
			EmergencyType:  "medical",
		}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExpiredPendingRequestNotDecidable(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	ownerID := testCtx.TestUserID
	docID := testutils.CreateDocument(t, testCtx.Repository, ownerID, "insurance")
	contactID := testutils.CreateContact(t, testCtx.Repository, ownerID, "Max Vale", "max@example.com", true)

	requestID := createEmergencyRequest(t, testCtx, ownerID, contactID, "max@example.com")

	// The request sits undecided past its own expiry
	base := time.Now().UTC()
	testCtx.Service.SetTimeFunc(func() time.Time { return base.Add(73 * time.Hour) })

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost,
		fmt.Sprintf("/api/emergency-requests/%s/decision", requestID),
		models.DecisionRequest{Decision: "approve", GrantedDocumentIDs: []string{docID}},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusConflict, w.Code)

	// The list endpoint reports it as expired even though the stored status
	// is still pending
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/emergency-requests", nil,
		testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code)

	var list models.EmergencyRequestListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Requests, 1)
	assert.Equal(t, models.RequestStatusExpired, list.Requests[0].Status)
}

func TestContactDeletionCascade(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	ownerID := testCtx.TestUserID
	docID := testutils.CreateDocument(t, testCtx.Repository, ownerID, "trust")
	contactID := testutils.CreateContact(t, testCtx.Repository, ownerID, "Ada Byrne", "ada@example.com", true)

	requestID := createEmergencyRequest(t, testCtx, ownerID, contactID, "ada@example.com")

	// Approve and exercise the grant so an emergency access audit row exists
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost,
		fmt.Sprintf("/api/emergency-requests/%s/decision", requestID),
		models.DecisionRequest{Decision: "approve", GrantedDocumentIDs: []string{docID}},
		testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code)

	path := fmt.Sprintf("/api/documents/%s?emergencyRequestId=%s&requesterEmail=ada@example.com", docID, requestID)
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	logsBefore := testutils.CountAccessLogs(t, testCtx.Repository)

	// Deleting the contact cascades its requests but never its audit rows
	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete,
		fmt.Sprintf("/api/contacts/%s", contactID), nil,
		testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code)

	request, err := testCtx.Repository.GetEmergencyRequest(context.Background(), requestID)
	require.NoError(t, err)
	assert.Nil(t, request)

	assert.Equal(t, logsBefore, testutils.CountAccessLogs(t, testCtx.Repository))

	// The surviving rows have their request reference nulled
	logs, err := testCtx.Repository.GetUserAccessLogs(context.Background(), ownerID, 0)
	require.NoError(t, err)
	for _, entry := range logs {
		assert.False(t, entry.EmergencyRequestID.Valid)
	}
}

// createEmergencyRequest files a request through the API and returns its id.
func createEmergencyRequest(t *testing.T, testCtx *testutils.TestContext, ownerID, contactID, email string) string {
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/emergency-requests",
		models.CreateEmergencyRequestRequest{
			OwnerID:        ownerID,
			ContactID:      contactID,
			RequesterName:  "Requester",
			RequesterEmail: email,
			Reason:         "emergency",
			EmergencyType:  "medical",
		}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.EmergencyRequestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Request)

	return resp.Request.ID
}

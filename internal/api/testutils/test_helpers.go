package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/scrandev/aerialnest/internal/api"
	"github.com/scrandev/aerialnest/internal/config"
	"github.com/scrandev/aerialnest/internal/models"
	"github.com/scrandev/aerialnest/internal/repository"
	"github.com/scrandev/aerialnest/internal/service"
)

// TestContext holds all dependencies for tests
type TestContext struct {
	Router      *gin.Engine
	Repository  repository.Repository
	Service     *service.DefaultService
	JWTSecret   []byte
	DB          *sqlx.DB
	TestUserID  string
	TestUserJWT string
}

// SetupTestContext creates a new test context with initialized dependencies
func SetupTestContext(t *testing.T) *TestContext {
	// Load configuration from environment
	cfg := config.LoadConfig()

	// Override with test-specific config
	if cfg.Database.DBName == "aerialnest" && cfg.Database.TestDBName != "" {
		cfg.Database.DBName = cfg.Database.TestDBName
	} else if cfg.Database.TestDBName == "" {
		// Fallback to hardcoded test DB if not in environment
		cfg.Database.DBName = "aerialnest_test"
	}

	// Use a test JWT secret
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = "test-secret-key"
	}

	logger := zap.NewNop()

	// Set up database
	db, err := config.SetupDatabase(cfg, logger)
	assert.NoError(t, err, "Failed to set up test database")

	// Create repository
	repo := repository.NewPostgresRepository(db, logger)

	// Create service
	svc := service.NewDefaultService(repo, cfg.Auth.JWTSecret, cfg.Emergency.DefaultTTL, logger)

	// Create API handler
	handler := api.NewHandler(svc, logger)

	// Set up Gin router
	gin.SetMode(gin.TestMode)
	router := gin.Default()

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})

	// Set up routes
	handler.SetupRoutes(router)

	// Create test user if needed
	testUserID, token := createTestUser(t, repo, cfg.Auth.JWTSecret)

	return &TestContext{
		Router:      router,
		Repository:  repo,
		Service:     svc,
		JWTSecret:   []byte(cfg.Auth.JWTSecret),
		DB:          db,
		TestUserID:  testUserID,
		TestUserJWT: token,
	}
}

// CleanupTestContext cleans up test resources
func CleanupTestContext(t *TestContext) {
	// Clean up database
	if t.DB != nil {
		cleanupTestDatabase(nil, t.Repository)
		t.DB.Close()
	}
}

// cleanupTestDatabase removes any existing test users and data
func cleanupTestDatabase(t *testing.T, repo repository.Repository) {
	// Execute cleanup SQL directly through the DB connection
	if pgRepo, ok := repo.(*repository.PostgresRepository); ok {
		db := pgRepo.GetDB()

		// Child tables first due to foreign key constraints
		tables := []string{
			"access_logs",
			"emergency_access_documents",
			"emergency_access_requests",
			"document_shares",
			"trusted_contacts",
			"documents",
			"users",
		}

		for _, table := range tables {
			_, err := db.Exec("DELETE FROM " + table)
			if t != nil && err != nil {
				t.Logf("Warning: Failed to clean %s: %v", table, err)
			}
		}
	}
}

// Helper functions
func createTestUser(t *testing.T, repo repository.Repository, jwtSecret string) (string, string) {
	// Clean up any existing test users first
	cleanupTestDatabase(t, repo)

	return CreateUser(t, repo, jwtSecret, "testuser@example.com", "Test User", false)
}

// CreateUser inserts a user directly and returns its id and a valid JWT.
func CreateUser(t *testing.T, repo repository.Repository, jwtSecret, email, name string, isAdmin bool) (string, string) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("testpassword"), bcrypt.DefaultCost)

	user := &models.User{
		ID:       uuid.New().String(),
		Email:    email,
		Name:     name,
		Password: string(hashedPassword),
		IsAdmin:  isAdmin,
	}

	err := repo.CreateUser(context.Background(), user)
	assert.NoError(t, err, "Failed to create test user")

	// Generate JWT token with the provided secret key
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	})

	tokenString, err := token.SignedString([]byte(jwtSecret))
	assert.NoError(t, err, "Failed to generate JWT token")

	return user.ID, tokenString
}

// CreateDocument inserts a document for a user and returns its id.
func CreateDocument(t *testing.T, repo repository.Repository, userID, title string) string {
	doc := &models.Document{
		UserID:      userID,
		CategoryID:  "cat-legal",
		Title:       title,
		FileName:    title + ".pdf",
		StorageKey:  "test/" + uuid.New().String(),
		FileSize:    1024,
		ContentType: "application/pdf",
	}

	err := repo.CreateDocument(context.Background(), doc)
	assert.NoError(t, err, "Failed to create test document")

	return doc.ID
}

// CreateContact inserts a trusted contact for a user and returns its id.
func CreateContact(t *testing.T, repo repository.Repository, userID, name, email string, emergencyContact bool) string {
	contact := &models.TrustedContact{
		UserID:           userID,
		Name:             name,
		Email:            email,
		Relationship:     "friend",
		EmergencyContact: emergencyContact,
	}

	err := repo.CreateContact(context.Background(), contact)
	assert.NoError(t, err, "Failed to create test contact")

	return contact.ID
}

// CountAccessLogs returns the current number of audit rows.
func CountAccessLogs(t *testing.T, repo repository.Repository) int {
	pgRepo, ok := repo.(*repository.PostgresRepository)
	assert.True(t, ok, "expected a PostgresRepository")

	var count int
	err := pgRepo.GetDB().Get(&count, "SELECT COUNT(*) FROM access_logs")
	assert.NoError(t, err, "Failed to count access logs")

	return count
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}

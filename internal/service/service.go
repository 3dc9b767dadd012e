package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/scrandev/aerialnest/internal/errs"
	"github.com/scrandev/aerialnest/internal/models"
	"github.com/scrandev/aerialnest/internal/repository"
)

// Service defines all the business logic operations
type Service interface {
	// Authentication
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)

	// Categories
	ListCategories(ctx context.Context) ([]models.Category, error)

	// Documents
	CreateDocument(ctx context.Context, userID string, req models.CreateDocumentRequest) (*models.Document, error)
	ListDocuments(ctx context.Context, userID string) ([]models.Document, error)
	UpdateDocument(ctx context.Context, userID, documentID string, req models.UpdateDocumentRequest) (*models.Document, error)
	DeleteDocument(ctx context.Context, userID, documentID string) error

	// Trusted contacts and standing shares
	CreateContact(ctx context.Context, userID string, req models.CreateContactRequest) (*models.TrustedContact, error)
	ListContacts(ctx context.Context, userID string) ([]models.TrustedContact, error)
	UpdateContact(ctx context.Context, userID, contactID string, req models.UpdateContactRequest) (*models.TrustedContact, error)
	DeleteContact(ctx context.Context, userID, contactID string) error
	CreateShare(ctx context.Context, userID, contactID string, req models.CreateShareRequest) (*models.DocumentShare, error)
	DeleteShare(ctx context.Context, userID, shareID string) error

	// Emergency access workflow
	CreateEmergencyRequest(ctx context.Context, req models.CreateEmergencyRequestRequest) (*models.EmergencyAccessRequest, error)
	ListEmergencyRequests(ctx context.Context, userID string) ([]models.EmergencyAccessRequest, error)
	Decide(ctx context.Context, deciderID, requestID string, req models.DecisionRequest) (*models.DecisionResponse, error)
	CheckAccess(ctx context.Context, requestID, documentID string, now time.Time) models.AccessDecision

	// Access gate: the single choke point for reading a document
	Authorize(ctx context.Context, actor models.Actor, documentID, action, emergencyRequestID string) (*models.AccessDecision, *models.Document, error)

	// Audit
	ListAccessLogs(ctx context.Context, userID string, limit int) ([]models.AccessLog, error)
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo          repository.Repository
	jwtSecret     []byte
	tokenDuration time.Duration
	emergencyTTL  time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, jwtSecret string, emergencyTTL time.Duration, logger *zap.Logger) *DefaultService {
	return &DefaultService{
		repo:          repo,
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: 24 * time.Hour, // 24 hours token validity
		emergencyTTL:  emergencyTTL,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// SetTimeFunc overrides the wall clock. Tests use it to move time past a
// grant's expiry without sleeping.
func (s *DefaultService) SetTimeFunc(now func() time.Time) {
	s.now = now
}

// Authentication methods
func (s *DefaultService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error) {
	// Check if user already exists
	existingUser, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, errs.Storage(fmt.Errorf("error checking user existence: %w", err))
	}

	if existingUser != nil {
		return nil, errs.State("EMAIL_EXISTS", "user with this email already exists")
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	// Create the user
	user := &models.User{
		ID:       uuid.New().String(),
		Email:    req.Email,
		Name:     req.Name,
		Password: string(hashedPassword),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, errs.Storage(fmt.Errorf("error creating user: %w", err))
	}

	return &models.AuthResponse{
		Status: "success",
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	}, nil
}

func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	// Get the user
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, errs.Storage(fmt.Errorf("error getting user: %w", err))
	}

	if user == nil {
		return nil, errs.Authorization("INVALID_CREDENTIALS", "invalid email or password")
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errs.Authorization("INVALID_CREDENTIALS", "invalid email or password")
	}

	// Generate JWT token
	token, err := s.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &models.AuthResponse{
		Status:    "success",
		UserID:    user.ID,
		Token:     token,
		ExpiresIn: int(s.tokenDuration.Seconds()),
	}, nil
}

func (s *DefaultService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, errs.Storage(fmt.Errorf("error getting user: %w", err))
	}

	if user == nil {
		return nil, errs.NotFound("USER_NOT_FOUND", "user not found")
	}

	return user, nil
}

// ListCategories returns the fixed category set
func (s *DefaultService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, errs.Storage(fmt.Errorf("error listing categories: %w", err))
	}

	return categories, nil
}

// Helper methods
func (s *DefaultService) generateJWT(user *models.User) (string, error) {
	expirationTime := s.now().Add(s.tokenDuration)

	claims := jwt.MapClaims{
		"sub": user.ID, // subject
		"exp": expirationTime.Unix(),
		"iat": s.now().Unix(), // issued at
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

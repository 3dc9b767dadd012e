package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/scrandev/aerialnest/internal/models"
)

// Repository interface defines the methods that any repository implementation must satisfy
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Category operations
	ListCategories(ctx context.Context) ([]models.Category, error)

	// Document operations
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, documentID string) (*models.Document, error)
	GetUserDocuments(ctx context.Context, userID string) ([]models.Document, error)
	UpdateDocument(ctx context.Context, doc *models.Document) error
	DeactivateDocument(ctx context.Context, documentID string) error

	// Trusted contact operations
	CreateContact(ctx context.Context, contact *models.TrustedContact) error
	GetContact(ctx context.Context, contactID string) (*models.TrustedContact, error)
	GetUserContacts(ctx context.Context, userID string) ([]models.TrustedContact, error)
	UpdateContact(ctx context.Context, contact *models.TrustedContact) error
	DeleteContact(ctx context.Context, contactID string) error
	FindContactByOwnerEmail(ctx context.Context, ownerID, email string) (*models.TrustedContact, error)

	// Document share operations
	CreateShare(ctx context.Context, share *models.DocumentShare) error
	GetShare(ctx context.Context, shareID string) (*models.DocumentShare, error)
	DeleteShare(ctx context.Context, shareID string) error
	FindShare(ctx context.Context, documentID, contactID string) (*models.DocumentShare, error)

	// Emergency access operations
	CreateEmergencyRequest(ctx context.Context, req *models.EmergencyAccessRequest) error
	GetEmergencyRequest(ctx context.Context, requestID string) (*models.EmergencyAccessRequest, error)
	GetUserEmergencyRequests(ctx context.Context, userID string) ([]models.EmergencyAccessRequest, error)
	ApproveEmergencyRequest(ctx context.Context, requestID string, approvedAt time.Time, grants []models.EmergencyAccessDocument, adminID, adminNotes string) (bool, error)
	DenyEmergencyRequest(ctx context.Context, requestID, denialReason string, adminID, adminNotes string) (bool, error)
	GetGrantDocument(ctx context.Context, requestID, documentID string) (*models.EmergencyAccessDocument, error)
	GetGrantDocuments(ctx context.Context, requestID string) ([]models.EmergencyAccessDocument, error)
	MarkGrantAccessed(ctx context.Context, requestID, documentID string, accessedAt time.Time) error

	// Audit log operations
	AppendAccessLog(ctx context.Context, entry *models.AccessLog) error
	GetUserAccessLogs(ctx context.Context, userID string, limit int) ([]models.AccessLog, error)
}

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB, logger *zap.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		logger: logger,
	}
}

// GetDB returns the underlying database connection
func (r *PostgresRepository) GetDB() *sqlx.DB {
	return r.db
}

// User repository methods
func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, name, password, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	// Generate a new UUID if not provided
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.Password, user.IsAdmin, user.CreatedAt, user.UpdatedAt)

	return err
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT * FROM users WHERE email = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT * FROM users WHERE id = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

// Category repository methods
func (r *PostgresRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	query := `SELECT * FROM categories ORDER BY sort_order ASC`

	var categories []models.Category
	err := r.db.SelectContext(ctx, &categories, query)
	if err != nil {
		return nil, err
	}

	return categories, nil
}

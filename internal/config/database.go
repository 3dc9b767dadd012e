package config

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
)

// SetupDatabase initializes the database connection
func SetupDatabase(cfg *Config, logger *zap.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	// Create tables if they don't exist
	if err := createTables(db, logger); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// createTables creates the necessary tables in the database
func createTables(db *sqlx.DB, logger *zap.Logger) error {
	// Create users table
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			name VARCHAR(255) NOT NULL,
			password VARCHAR(255) NOT NULL,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create categories table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS categories (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(100) UNIQUE NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			sort_order INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return err
	}

	// Create documents table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			category_id VARCHAR(36) NOT NULL REFERENCES categories(id),
			title VARCHAR(255) NOT NULL,
			file_name VARCHAR(255) NOT NULL,
			storage_key VARCHAR(512) NOT NULL,
			file_size BIGINT NOT NULL,
			content_type VARCHAR(100) NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create trusted_contacts table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS trusted_contacts (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			phone VARCHAR(50) NOT NULL DEFAULT '',
			relationship VARCHAR(100) NOT NULL DEFAULT '',
			can_access_all BOOLEAN NOT NULL DEFAULT FALSE,
			emergency_contact BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create document_shares table (standing shares)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS document_shares (
			id VARCHAR(36) PRIMARY KEY,
			document_id VARCHAR(36) NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			contact_id VARCHAR(36) NOT NULL REFERENCES trusted_contacts(id) ON DELETE CASCADE,
			access_type VARCHAR(10) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (document_id, contact_id)
		)
	`)
	if err != nil {
		return err
	}

	// Create emergency_access_requests table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS emergency_access_requests (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			contact_id VARCHAR(36) NOT NULL REFERENCES trusted_contacts(id) ON DELETE CASCADE,
			requester_name VARCHAR(255) NOT NULL,
			requester_email VARCHAR(255) NOT NULL,
			reason TEXT NOT NULL,
			emergency_type VARCHAR(50) NOT NULL,
			status VARCHAR(10) NOT NULL DEFAULT 'pending',
			requested_at TIMESTAMP NOT NULL,
			approved_at TIMESTAMP,
			expires_at TIMESTAMP NOT NULL,
			denial_reason TEXT,
			admin_approved_by VARCHAR(36) REFERENCES users(id) ON DELETE SET NULL,
			admin_notes TEXT
		)
	`)
	if err != nil {
		return err
	}

	// Create emergency_access_documents table (grant contents)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS emergency_access_documents (
			id VARCHAR(36) PRIMARY KEY,
			request_id VARCHAR(36) NOT NULL REFERENCES emergency_access_requests(id) ON DELETE CASCADE,
			document_id VARCHAR(36) NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			access_type VARCHAR(10) NOT NULL,
			accessed_at TIMESTAMP,
			UNIQUE (request_id, document_id)
		)
	`)
	if err != nil {
		return err
	}

	// Create access_logs table. Foreign keys are SET NULL, never CASCADE:
	// audit rows outlive the entities they reference.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS access_logs (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) REFERENCES users(id) ON DELETE SET NULL,
			actor_name VARCHAR(255) NOT NULL DEFAULT '',
			actor_email VARCHAR(255) NOT NULL DEFAULT '',
			document_id VARCHAR(36) REFERENCES documents(id) ON DELETE SET NULL,
			action VARCHAR(30) NOT NULL,
			context VARCHAR(10) NOT NULL,
			emergency_request_id VARCHAR(36) REFERENCES emergency_access_requests(id) ON DELETE SET NULL,
			detail TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create indexes for better performance
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_documents_user_id ON documents(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_trusted_contacts_user_id ON trusted_contacts(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_document_shares_contact ON document_shares(contact_id)",
		"CREATE INDEX IF NOT EXISTS idx_emergency_requests_user ON emergency_access_requests(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_emergency_documents_request ON emergency_access_documents(request_id)",
		"CREATE INDEX IF NOT EXISTS idx_access_logs_user ON access_logs(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_access_logs_document ON access_logs(document_id)",
	}

	for _, idx := range indexes {
		_, err = db.Exec(idx)
		if err != nil {
			logger.Warn("failed to create index", zap.Error(err))
			// Don't return error here, indexes are not critical
		}
	}

	return seedCategories(db)
}

// seedCategories inserts the fixed category set on first boot.
func seedCategories(db *sqlx.DB) error {
	categories := []struct {
		id, name, description string
		order                 int
	}{
		{"cat-legal", "Legal", "Wills, trusts, powers of attorney", 1},
		{"cat-financial", "Financial", "Accounts, insurance policies, deeds", 2},
		{"cat-medical", "Medical", "Directives, medication lists, providers", 3},
		{"cat-personal", "Personal", "Letters, photos, family records", 4},
		{"cat-digital", "Digital", "Account inventories and instructions", 5},
		{"cat-other", "Other", "Everything else", 6},
	}

	for _, c := range categories {
		_, err := db.Exec(
			`INSERT INTO categories (id, name, description, sort_order)
			 VALUES ($1, $2, $3, $4) ON CONFLICT (name) DO NOTHING`,
			c.id, c.name, c.description, c.order)
		if err != nil {
			return err
		}
	}

	return nil
}

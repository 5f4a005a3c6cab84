package repositories

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"

	apperrors "pulse/internal/pkg/errors"
	"pulse/internal/pkg/validator"
	"pulse/internal/platform/models"
)

// AppRepository is the tenant registry: it issues, looks up and revokes API
// keys against the users table.
type AppRepository struct {
	db *sql.DB
}

func NewAppRepository(db *sql.DB) *AppRepository {
	return &AppRepository{db: db}
}

// GenerateAPIKey returns 32 bytes of cryptographically strong randomness,
// hex-encoded (64 characters).
func GenerateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Register creates a tenant row with a fresh API key. Duplicate emails fail
// with a conflict whether caught by the pre-check or the unique constraint.
func (r *AppRepository) Register(email string) (*models.App, error) {
	if err := validator.ValidateEmail(email); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	var exists int
	err := r.db.QueryRow(`SELECT 1 FROM users WHERE email = ?`, email).Scan(&exists)
	if err == nil {
		return nil, apperrors.Conflict("Email already registered")
	}
	if err != sql.ErrNoRows {
		return nil, apperrors.Storage("Server error", err)
	}

	apiKey, err := GenerateAPIKey()
	if err != nil {
		return nil, apperrors.Storage("Server error", err)
	}

	app := &models.App{
		Email:     email,
		APIKey:    apiKey,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	result, err := r.db.Exec(`
		INSERT INTO users (email, api_key, created_at, revoked)
		VALUES (?, ?, ?, 0)
	`, app.Email, app.APIKey, app.CreatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, apperrors.Conflict("Email already registered")
		}
		return nil, apperrors.Storage("Server error", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, apperrors.Storage("Server error", err)
	}
	app.ID = id

	return app, nil
}

// GetByAPIKey resolves a caller-supplied key to its tenant. The revoked flag
// is returned as-is; the authenticator decides how to surface it.
func (r *AppRepository) GetByAPIKey(apiKey string) (*models.App, error) {
	app := &models.App{APIKey: apiKey}
	err := r.db.QueryRow(`
		SELECT id, email, created_at, revoked
		FROM users WHERE api_key = ?
	`, apiKey).Scan(&app.ID, &app.Email, &app.CreatedAt, &app.Revoked)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("Not found")
		}
		return nil, apperrors.Storage("Server error", err)
	}
	return app, nil
}

// GetAPIKeyByEmail serves key recovery: the active key for a registered
// email. Revoked tenants look the same as unknown ones.
func (r *AppRepository) GetAPIKeyByEmail(email string) (string, error) {
	var apiKey string
	err := r.db.QueryRow(`
		SELECT api_key FROM users WHERE email = ? AND revoked = 0
	`, email).Scan(&apiKey)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", apperrors.NotFound("Not found or revoked")
		}
		return "", apperrors.Storage("Server error", err)
	}
	return apiKey, nil
}

// Revoke flips the one-way revoked flag. Revoking an already-revoked tenant
// is a no-op, not an error.
func (r *AppRepository) Revoke(id int64) error {
	_, err := r.db.Exec(`UPDATE users SET revoked = 1 WHERE id = ?`, id)
	if err != nil {
		return apperrors.Storage("Server error", err)
	}
	return nil
}

package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/noelfm/sleighlist/internal/models"
	"github.com/noelfm/sleighlist/internal/shared"
)

// CredentialRepository implements [models.Repository] for [models.Credential]
// persistence.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new [CredentialRepository] with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Create inserts a new credential into the database with generated ID and sequence
func (r *CredentialRepository) Create(credential *models.Credential) error {
	sequence, err := NextSequence(r.db, "credentials")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	credential.SetID(id)

	if err := credential.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO credentials (id, sequence, account_id, display_name, access_token, refresh_token, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, credential.AccountID(), credential.DisplayName(),
		credential.AccessToken(), credential.RefreshToken(), credential.ExpiresAt(),
		credential.CreatedAt(), credential.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert credential: %w", err)
	}

	return nil
}

// Get retrieves a credential by ID, excluding soft-deleted credentials
func (r *CredentialRepository) Get(id string) (*models.Credential, error) {
	query := `
		SELECT id, sequence, account_id, display_name, access_token, refresh_token, expires_at, created_at, updated_at, deleted_at
		FROM credentials
		WHERE id = ? AND deleted_at IS NULL
	`
	return r.scanRow(r.db.QueryRow(query, id), id)
}

// GetByAccount retrieves the credential stored for a music service account.
func (r *CredentialRepository) GetByAccount(accountID string) (*models.Credential, error) {
	query := `
		SELECT id, sequence, account_id, display_name, access_token, refresh_token, expires_at, created_at, updated_at, deleted_at
		FROM credentials
		WHERE account_id = ? AND deleted_at IS NULL
	`
	return r.scanRow(r.db.QueryRow(query, accountID), accountID)
}

// Update modifies an existing credential in the database
func (r *CredentialRepository) Update(credential *models.Credential) error {
	if err := credential.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	credential.SetUpdatedAt(now)

	query := `
		UPDATE credentials
		SET display_name = ?, access_token = ?, refresh_token = ?, expires_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, credential.DisplayName(), credential.AccessToken(),
		credential.RefreshToken(), credential.ExpiresAt(), now, credential.ID())
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("credential not found or already deleted: %s", credential.ID())
	}

	return nil
}

// Upsert stores the credential, updating the row for its account when one
// already exists. Used by the token refresh hook, which must never fail a
// request just because persistence raced.
func (r *CredentialRepository) Upsert(credential *models.Credential) error {
	existing, err := r.GetByAccount(credential.AccountID())
	if err != nil {
		return r.Create(credential)
	}

	existing.SetDisplayName(credential.DisplayName())
	existing.SetAccessToken(credential.AccessToken())
	existing.SetRefreshToken(credential.RefreshToken())
	existing.SetExpiresAt(credential.ExpiresAt())
	return r.Update(existing)
}

// Delete soft-deletes a credential by ID
func (r *CredentialRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE credentials
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("credential not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all credentials matching the given criteria, excluding soft-deleted rows
func (r *CredentialRepository) List(criteria map[string]any) ([]*models.Credential, error) {
	query := `
		SELECT id, sequence, account_id, display_name, access_token, refresh_token, expires_at, created_at, updated_at, deleted_at
		FROM credentials
		WHERE deleted_at IS NULL
	`

	args := []any{}
	if accountID, ok := criteria["account_id"]; ok {
		query += " AND account_id = ?"
		args = append(args, accountID)
	}
	query += " ORDER BY sequence"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}
	defer rows.Close()

	var credentials []*models.Credential
	for rows.Next() {
		credential, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		credentials = append(credentials, credential)
	}

	return credentials, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *CredentialRepository) scanRow(row *sql.Row, key string) (*models.Credential, error) {
	credential, err := scanCredential(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("credential not found: %s", key)
	}
	if err != nil {
		return nil, err
	}
	return credential, nil
}

func scanCredential(row rowScanner) (*models.Credential, error) {
	var (
		id           string
		sequence     int
		accountID    string
		displayName  string
		accessToken  string
		refreshToken string
		expiresAt    time.Time
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := row.Scan(&id, &sequence, &accountID, &displayName, &accessToken, &refreshToken,
		&expiresAt, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan credential: %w", err)
	}

	credential := models.NewCredential(sequence, accountID, displayName, accessToken, refreshToken, expiresAt)
	credential.SetID(id)
	credential.SetCreatedAt(createdAt)
	credential.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		credential.SetDeletedAt(&deletedAt.Time)
	}

	return credential, nil
}

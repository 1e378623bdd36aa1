package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/markx/internal/models"
	"github.com/desertthunder/markx/internal/shared"
)

// CredentialRepository stores one bearer token per profile.
//
// It backs the persistent tier of the credential store.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new [CredentialRepository] with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Load returns the token saved for profile, or [shared.ErrNoCredential].
func (r *CredentialRepository) Load(profile string) (string, error) {
	c, err := r.Get(profile)
	if err != nil {
		return "", err
	}
	return c.Token, nil
}

// Get returns the full credential row for profile.
func (r *CredentialRepository) Get(profile string) (*models.Credential, error) {
	var (
		c        models.Credential
		username sql.NullString
	)

	err := r.db.QueryRow(
		"SELECT profile, token, username, created_at, updated_at FROM credentials WHERE profile = ?",
		profile,
	).Scan(&c.Profile, &c.Token, &username, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: profile %s", shared.ErrNoCredential, profile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query credential: %w", err)
	}

	c.Username = username.String
	return &c, nil
}

// Save upserts the token for profile.
func (r *CredentialRepository) Save(profile, token string) error {
	return r.SaveWithUser(profile, token, "")
}

// SaveWithUser upserts the token for profile and records which user it belongs to.
func (r *CredentialRepository) SaveWithUser(profile, token, username string) error {
	if strings.TrimSpace(profile) == "" {
		return fmt.Errorf("%w: profile is required", shared.ErrMissingArgument)
	}
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("%w: token is required", shared.ErrMissingArgument)
	}

	now := time.Now()
	query := `
		INSERT INTO credentials (profile, token, username, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(profile) DO UPDATE SET
			token = excluded.token,
			username = COALESCE(excluded.username, credentials.username),
			updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, profile, token, nullable(username), now, now); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// Delete removes the token for profile. Deleting a missing profile is not an error.
func (r *CredentialRepository) Delete(profile string) error {
	if _, err := r.db.Exec("DELETE FROM credentials WHERE profile = ?", profile); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

// Profiles lists every profile with a stored credential.
func (r *CredentialRepository) Profiles() ([]string, error) {
	rows, err := r.db.Query("SELECT profile FROM credentials ORDER BY profile ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}
	defer rows.Close()

	var profiles []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return profiles, nil
}

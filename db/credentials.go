package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"

	// necessary import to wire up the postgres driver
	_ "github.com/lib/pq"

	dbtx "rulesync/db/tx"
	"rulesync/models"
)

type PostgresCredentialsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for credentials table
var credentialsColumns = []string{
	"id",
	"user_id",
	"provider",
	"auth_kind",
	"access_token",
	"refresh_token",
	"token_expires_at",
	"installation_id",
	"installation_token_expires_at",
	"scopes",
	"created_at",
	"updated_at",
}

func NewPostgresCredentialsRepository(db *sqlx.DB, schema string) *PostgresCredentialsRepository {
	return &PostgresCredentialsRepository{db: db, schema: schema}
}

func (r *PostgresCredentialsRepository) GetCredentialByUserAndProvider(
	ctx context.Context,
	userID, provider string,
) (mo.Option[*models.CredentialRecord], error) {
	if userID == "" {
		return mo.None[*models.CredentialRecord](), fmt.Errorf("user ID cannot be empty")
	}
	if provider == "" {
		return mo.None[*models.CredentialRecord](), fmt.Errorf("provider cannot be empty")
	}

	querier := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(credentialsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.credentials
		WHERE user_id = $1 AND provider = $2`, columnsStr, r.schema)

	var credential models.CredentialRecord
	err := querier.GetContext(ctx, &credential, query, userID, provider)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.CredentialRecord](), nil
		}
		return mo.None[*models.CredentialRecord](), fmt.Errorf("failed to get credential: %w", err)
	}

	return mo.Some(&credential), nil
}

// UpsertDelegatedCredential stores a delegated-kind record for the
// (user, provider) pair, replacing any previous record. A re-connect
// resets the record to delegated kind and clears installation fields.
func (r *PostgresCredentialsRepository) UpsertDelegatedCredential(
	ctx context.Context,
	credential *models.CredentialRecord,
) error {
	if err := credential.Validate(); err != nil {
		return fmt.Errorf("invalid credential: %w", err)
	}

	querier := dbtx.GetTransactional(ctx, r.db)
	returningStr := strings.Join(credentialsColumns, ", ")
	query := fmt.Sprintf(`
		INSERT INTO %s.credentials
			(id, user_id, provider, auth_kind, access_token, refresh_token,
			 token_expires_at, installation_id, installation_token_expires_at,
			 scopes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, NULL, $8, NOW(), NOW())
		ON CONFLICT (user_id, provider) DO UPDATE SET
			auth_kind = EXCLUDED.auth_kind,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expires_at = EXCLUDED.token_expires_at,
			installation_id = NULL,
			installation_token_expires_at = NULL,
			scopes = EXCLUDED.scopes,
			updated_at = NOW()
		RETURNING %s`, r.schema, returningStr)

	err := querier.QueryRowxContext(ctx, query,
		credential.ID,
		credential.UserID,
		credential.Provider,
		credential.AuthKind,
		credential.AccessToken,
		credential.RefreshToken,
		credential.TokenExpiresAt,
		credential.Scopes,
	).StructScan(credential)
	if err != nil {
		return fmt.Errorf("failed to upsert credential: %w", err)
	}

	return nil
}

// UpdateInstallationToken persists a freshly minted installation token and
// its expiry for an installation-kind record
func (r *PostgresCredentialsRepository) UpdateInstallationToken(
	ctx context.Context,
	credentialID, accessToken string,
	expiresAt time.Time,
) error {
	if credentialID == "" {
		return fmt.Errorf("credential ID cannot be empty")
	}
	if accessToken == "" {
		return fmt.Errorf("access token cannot be empty")
	}

	querier := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		UPDATE %s.credentials
		SET access_token = $2,
			installation_token_expires_at = $3,
			updated_at = NOW()
		WHERE id = $1 AND auth_kind = 'installation'`, r.schema)

	result, err := querier.ExecContext(ctx, query, credentialID, accessToken, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to update installation token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("credential not found")
	}

	return nil
}

// MigrateToInstallation flips a record to installation kind in a single
// UPDATE statement so concurrent readers never observe a partially
// migrated record.
func (r *PostgresCredentialsRepository) MigrateToInstallation(
	ctx context.Context,
	credentialID, installationID, accessToken string,
	expiresAt time.Time,
) error {
	if credentialID == "" {
		return fmt.Errorf("credential ID cannot be empty")
	}
	if installationID == "" {
		return fmt.Errorf("installation ID cannot be empty")
	}
	if accessToken == "" {
		return fmt.Errorf("access token cannot be empty")
	}

	querier := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		UPDATE %s.credentials
		SET auth_kind = 'installation',
			access_token = $2,
			installation_id = $3,
			installation_token_expires_at = $4,
			refresh_token = NULL,
			token_expires_at = NULL,
			updated_at = NOW()
		WHERE id = $1`, r.schema)

	result, err := querier.ExecContext(ctx, query, credentialID, accessToken, installationID, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to migrate credential: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("credential not found")
	}

	return nil
}

func (r *PostgresCredentialsRepository) DeleteCredential(
	ctx context.Context,
	userID, provider string,
) error {
	if userID == "" {
		return fmt.Errorf("user ID cannot be empty")
	}
	if provider == "" {
		return fmt.Errorf("provider cannot be empty")
	}

	querier := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		DELETE FROM %s.credentials
		WHERE user_id = $1 AND provider = $2`, r.schema)

	result, err := querier.ExecContext(ctx, query, userID, provider)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("credential not found")
	}

	return nil
}

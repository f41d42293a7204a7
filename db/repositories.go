package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"

	// necessary import to wire up the postgres driver
	_ "github.com/lib/pq"

	dbtx "rulesync/db/tx"
	"rulesync/models"
)

type PostgresRepositoriesRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for repositories table
var repositoriesColumns = []string{
	"id",
	"organization_id",
	"credential_id",
	"full_name",
	"default_branch",
	"created_at",
	"updated_at",
}

func NewPostgresRepositoriesRepository(db *sqlx.DB, schema string) *PostgresRepositoriesRepository {
	return &PostgresRepositoriesRepository{db: db, schema: schema}
}

func (r *PostgresRepositoriesRepository) CreateRepositoryLink(
	ctx context.Context,
	link *models.RepositoryLink,
) error {
	querier := dbtx.GetTransactional(ctx, r.db)
	returningStr := strings.Join(repositoriesColumns, ", ")
	query := fmt.Sprintf(`
		INSERT INTO %s.repositories
			(id, organization_id, credential_id, full_name, default_branch, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING %s`, r.schema, returningStr)

	err := querier.QueryRowxContext(ctx, query,
		link.ID, link.OrgID, link.CredentialID, link.FullName, link.DefaultBranch,
	).StructScan(link)
	if err != nil {
		return fmt.Errorf("failed to create repository link: %w", err)
	}

	return nil
}

func (r *PostgresRepositoriesRepository) GetRepositoryLinkByID(
	ctx context.Context,
	organizationID models.OrgID,
	id string,
) (mo.Option[*models.RepositoryLink], error) {
	querier := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(repositoriesColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.repositories
		WHERE id = $1 AND organization_id = $2`, columnsStr, r.schema)

	var link models.RepositoryLink
	err := querier.GetContext(ctx, &link, query, id, organizationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.RepositoryLink](), nil
		}
		return mo.None[*models.RepositoryLink](), fmt.Errorf("failed to get repository link: %w", err)
	}

	return mo.Some(&link), nil
}

func (r *PostgresRepositoriesRepository) GetRepositoryLinksByOrganizationID(
	ctx context.Context,
	organizationID models.OrgID,
) ([]models.RepositoryLink, error) {
	if organizationID == "" {
		return nil, fmt.Errorf("organization ID cannot be empty")
	}

	querier := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(repositoriesColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.repositories
		WHERE organization_id = $1
		ORDER BY created_at DESC`, columnsStr, r.schema)

	links := []models.RepositoryLink{}
	err := querier.SelectContext(ctx, &links, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get repository links: %w", err)
	}

	return links, nil
}

func (r *PostgresRepositoriesRepository) DeleteRepositoryLink(
	ctx context.Context,
	organizationID models.OrgID,
	id string,
) error {
	if organizationID == "" {
		return fmt.Errorf("organization ID cannot be empty")
	}
	if id == "" {
		return fmt.Errorf("repository link ID cannot be empty")
	}

	querier := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		DELETE FROM %s.repositories
		WHERE id = $1 AND organization_id = $2`, r.schema)

	result, err := querier.ExecContext(ctx, query, id, organizationID)
	if err != nil {
		return fmt.Errorf("failed to delete repository link: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("repository link not found")
	}

	return nil
}

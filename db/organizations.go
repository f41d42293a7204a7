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

type PostgresOrganizationsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for organizations table
var organizationsColumns = []string{
	"id",
	"created_at",
	"updated_at",
}

func NewPostgresOrganizationsRepository(db *sqlx.DB, schema string) *PostgresOrganizationsRepository {
	return &PostgresOrganizationsRepository{db: db, schema: schema}
}

func (r *PostgresOrganizationsRepository) CreateOrganization(
	ctx context.Context,
	organization *models.Organization,
) error {
	querier := dbtx.GetTransactional(ctx, r.db)
	returningStr := strings.Join(organizationsColumns, ", ")
	query := fmt.Sprintf(`
		INSERT INTO %s.organizations (id, created_at, updated_at)
		VALUES ($1, NOW(), NOW())
		RETURNING %s`, r.schema, returningStr)

	err := querier.QueryRowxContext(ctx, query, organization.ID).StructScan(organization)
	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}

	return nil
}

func (r *PostgresOrganizationsRepository) GetOrganizationByID(
	ctx context.Context,
	id models.OrgID,
) (mo.Option[*models.Organization], error) {
	querier := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(organizationsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.organizations
		WHERE id = $1`, columnsStr, r.schema)

	var organization models.Organization
	err := querier.GetContext(ctx, &organization, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.Organization](), nil
		}
		return mo.None[*models.Organization](), fmt.Errorf("failed to get organization: %w", err)
	}

	return mo.Some(&organization), nil
}

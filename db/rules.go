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

type PostgresRulesRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for rules table
var rulesColumns = []string{
	"id",
	"organization_id",
	"repository_id",
	"type",
	"file_name_stem",
	"content",
	"is_active",
	"applied_conditions",
	"created_at",
	"updated_at",
	"deleted_at",
}

func NewPostgresRulesRepository(db *sqlx.DB, schema string) *PostgresRulesRepository {
	return &PostgresRulesRepository{db: db, schema: schema}
}

func (r *PostgresRulesRepository) CreateRule(ctx context.Context, rule *models.Rule) error {
	querier := dbtx.GetTransactional(ctx, r.db)
	returningStr := strings.Join(rulesColumns, ", ")
	query := fmt.Sprintf(`
		INSERT INTO %s.rules
			(id, organization_id, repository_id, type, file_name_stem, content,
			 is_active, applied_conditions, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW(), NULL)
		RETURNING %s`, r.schema, returningStr)

	err := querier.QueryRowxContext(ctx, query,
		rule.ID, rule.OrgID, rule.RepositoryID, rule.Type, rule.FileNameStem,
		rule.Content, rule.IsActive, rule.AppliedConditions,
	).StructScan(rule)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	return nil
}

func (r *PostgresRulesRepository) GetRuleByID(
	ctx context.Context,
	organizationID models.OrgID,
	id string,
) (mo.Option[*models.Rule], error) {
	querier := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(rulesColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.rules
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL`, columnsStr, r.schema)

	var rule models.Rule
	err := querier.GetContext(ctx, &rule, query, id, organizationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.Rule](), nil
		}
		return mo.None[*models.Rule](), fmt.Errorf("failed to get rule: %w", err)
	}

	return mo.Some(&rule), nil
}

func (r *PostgresRulesRepository) GetRulesByRepositoryID(
	ctx context.Context,
	organizationID models.OrgID,
	repositoryID string,
) ([]models.Rule, error) {
	if organizationID == "" {
		return nil, fmt.Errorf("organization ID cannot be empty")
	}
	if repositoryID == "" {
		return nil, fmt.Errorf("repository ID cannot be empty")
	}

	querier := dbtx.GetTransactional(ctx, r.db)
	columnsStr := strings.Join(rulesColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.rules
		WHERE organization_id = $1 AND repository_id = $2 AND deleted_at IS NULL
		ORDER BY created_at ASC`, columnsStr, r.schema)

	rules := []models.Rule{}
	err := querier.SelectContext(ctx, &rules, query, organizationID, repositoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rules: %w", err)
	}

	return rules, nil
}

func (r *PostgresRulesRepository) UpdateRule(ctx context.Context, rule *models.Rule) error {
	querier := dbtx.GetTransactional(ctx, r.db)
	returningStr := strings.Join(rulesColumns, ", ")
	query := fmt.Sprintf(`
		UPDATE %s.rules
		SET file_name_stem = $3,
			content = $4,
			is_active = $5,
			applied_conditions = $6,
			updated_at = NOW()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
		RETURNING %s`, r.schema, returningStr)

	err := querier.QueryRowxContext(ctx, query,
		rule.ID, rule.OrgID, rule.FileNameStem, rule.Content, rule.IsActive, rule.AppliedConditions,
	).StructScan(rule)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("rule not found")
		}
		return fmt.Errorf("failed to update rule: %w", err)
	}

	return nil
}

// SoftDeleteRule marks a rule deleted without removing the row
func (r *PostgresRulesRepository) SoftDeleteRule(
	ctx context.Context,
	organizationID models.OrgID,
	id string,
) error {
	if organizationID == "" {
		return fmt.Errorf("organization ID cannot be empty")
	}
	if id == "" {
		return fmt.Errorf("rule ID cannot be empty")
	}

	querier := dbtx.GetTransactional(ctx, r.db)
	query := fmt.Sprintf(`
		UPDATE %s.rules
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL`, r.schema)

	result, err := querier.ExecContext(ctx, query, id, organizationID)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("rule not found")
	}

	return nil
}

package rules

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/samber/mo"

	"rulesync/core"
	"rulesync/models"
	"rulesync/tree"
)

// RulesStore defines the persistence operations the rules service needs
type RulesStore interface {
	CreateRule(ctx context.Context, rule *models.Rule) error
	GetRuleByID(ctx context.Context, organizationID models.OrgID, id string) (mo.Option[*models.Rule], error)
	GetRulesByRepositoryID(ctx context.Context, organizationID models.OrgID, repositoryID string) ([]models.Rule, error)
	UpdateRule(ctx context.Context, rule *models.Rule) error
	SoftDeleteRule(ctx context.Context, organizationID models.OrgID, id string) error
}

// RepositoryLinksStore checks that rules are only attached to connected repositories
type RepositoryLinksStore interface {
	GetRepositoryLinkByID(ctx context.Context, organizationID models.OrgID, id string) (mo.Option[*models.RepositoryLink], error)
}

// RulesService manages editor-configuration rules and their projection
// onto the virtual rule tree.
type RulesService struct {
	rulesStore        RulesStore
	repositoriesStore RepositoryLinksStore
}

func NewRulesService(rulesStore RulesStore, repositoriesStore RepositoryLinksStore) *RulesService {
	return &RulesService{
		rulesStore:        rulesStore,
		repositoriesStore: repositoriesStore,
	}
}

// CreateRule creates an active rule attached to a connected repository
func (s *RulesService) CreateRule(
	ctx context.Context,
	orgID models.OrgID,
	repositoryID string,
	ruleType models.RuleType,
	fileNameStem, content string,
) (*models.Rule, error) {
	log.Printf("➕ Starting to create %s rule for repository: %s", ruleType, repositoryID)

	if orgID == "" {
		return nil, fmt.Errorf("organization ID cannot be empty")
	}
	if repositoryID == "" {
		return nil, fmt.Errorf("repository ID cannot be empty")
	}
	if !ruleType.IsValid() {
		return nil, fmt.Errorf("unknown rule type: %q", ruleType)
	}
	if err := validateFileNameStem(fileNameStem); err != nil {
		return nil, err
	}

	maybeLink, err := s.repositoriesStore.GetRepositoryLinkByID(ctx, orgID, repositoryID)
	if err != nil {
		return nil, err
	}
	if maybeLink.IsAbsent() {
		return nil, fmt.Errorf("%w: repository link %s", core.ErrNotFound, repositoryID)
	}

	rule := &models.Rule{
		ID:           core.NewID("rule"),
		OrgID:        orgID,
		RepositoryID: repositoryID,
		Type:         ruleType,
		FileNameStem: fileNameStem,
		Content:      content,
		IsActive:     true,
	}
	if err := s.rulesStore.CreateRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to create rule: %w", err)
	}

	log.Printf("✅ Created rule: %s", rule.ID)
	return rule, nil
}

// ListRules returns the repository's live rules in creation order
func (s *RulesService) ListRules(
	ctx context.Context,
	orgID models.OrgID,
	repositoryID string,
) ([]models.Rule, error) {
	return s.rulesStore.GetRulesByRepositoryID(ctx, orgID, repositoryID)
}

// UpdateRule replaces the rule's content and active flag
func (s *RulesService) UpdateRule(
	ctx context.Context,
	orgID models.OrgID,
	ruleID string,
	content string,
	isActive bool,
) (*models.Rule, error) {
	log.Printf("📋 Starting to update rule: %s", ruleID)

	if orgID == "" {
		return nil, fmt.Errorf("organization ID cannot be empty")
	}
	if ruleID == "" {
		return nil, fmt.Errorf("rule ID cannot be empty")
	}

	maybeRule, err := s.rulesStore.GetRuleByID(ctx, orgID, ruleID)
	if err != nil {
		return nil, err
	}
	rule, ok := maybeRule.Get()
	if !ok {
		return nil, fmt.Errorf("%w: rule %s", core.ErrNotFound, ruleID)
	}

	rule.Content = content
	rule.IsActive = isActive
	if err := s.rulesStore.UpdateRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to update rule: %w", err)
	}

	log.Printf("✅ Updated rule: %s", rule.ID)
	return rule, nil
}

// DeleteRule soft-deletes the rule so it no longer appears in listings
// or the projected tree
func (s *RulesService) DeleteRule(ctx context.Context, orgID models.OrgID, ruleID string) error {
	log.Printf("🗑️ Starting to delete rule: %s", ruleID)

	if orgID == "" {
		return fmt.Errorf("organization ID cannot be empty")
	}
	if ruleID == "" {
		return fmt.Errorf("rule ID cannot be empty")
	}

	if err := s.rulesStore.SoftDeleteRule(ctx, orgID, ruleID); err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	log.Printf("✅ Deleted rule: %s", ruleID)
	return nil
}

// GetRuleTree projects the repository's live rules onto the fixed virtual
// tree and returns its root-level nodes.
func (s *RulesService) GetRuleTree(
	ctx context.Context,
	orgID models.OrgID,
	repositoryID string,
) ([]*models.TreeNode, error) {
	rules, err := s.rulesStore.GetRulesByRepositoryID(ctx, orgID, repositoryID)
	if err != nil {
		return nil, err
	}

	root := tree.ProjectRules(rules)
	return root.Children, nil
}

func validateFileNameStem(stem string) error {
	if stem == "" {
		return fmt.Errorf("file name stem cannot be empty")
	}
	if strings.ContainsAny(stem, "/\\") {
		return fmt.Errorf("file name stem cannot contain path separators")
	}
	if strings.Contains(stem, ".") {
		return fmt.Errorf("file name stem cannot contain an extension")
	}
	return nil
}

package rules

import (
	"context"

	"github.com/stretchr/testify/mock"

	"rulesync/models"
)

// MockRulesService is a mock implementation of the RulesService interface
type MockRulesService struct {
	mock.Mock
}

func (m *MockRulesService) CreateRule(
	ctx context.Context,
	orgID models.OrgID,
	repositoryID string,
	ruleType models.RuleType,
	fileNameStem, content string,
) (*models.Rule, error) {
	args := m.Called(ctx, orgID, repositoryID, ruleType, fileNameStem, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Rule), args.Error(1)
}

func (m *MockRulesService) ListRules(
	ctx context.Context,
	orgID models.OrgID,
	repositoryID string,
) ([]models.Rule, error) {
	args := m.Called(ctx, orgID, repositoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Rule), args.Error(1)
}

func (m *MockRulesService) UpdateRule(
	ctx context.Context,
	orgID models.OrgID,
	ruleID string,
	content string,
	isActive bool,
) (*models.Rule, error) {
	args := m.Called(ctx, orgID, ruleID, content, isActive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Rule), args.Error(1)
}

func (m *MockRulesService) DeleteRule(ctx context.Context, orgID models.OrgID, ruleID string) error {
	args := m.Called(ctx, orgID, ruleID)
	return args.Error(0)
}

func (m *MockRulesService) GetRuleTree(
	ctx context.Context,
	orgID models.OrgID,
	repositoryID string,
) ([]*models.TreeNode, error) {
	args := m.Called(ctx, orgID, repositoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TreeNode), args.Error(1)
}

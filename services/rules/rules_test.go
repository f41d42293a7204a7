package rules

import (
	"context"
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rulesync/core"
	"rulesync/models"
	"rulesync/tree"
)

type mockRulesStore struct {
	mock.Mock
}

func (m *mockRulesStore) CreateRule(ctx context.Context, rule *models.Rule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *mockRulesStore) GetRuleByID(
	ctx context.Context,
	organizationID models.OrgID,
	id string,
) (mo.Option[*models.Rule], error) {
	args := m.Called(ctx, organizationID, id)
	return args.Get(0).(mo.Option[*models.Rule]), args.Error(1)
}

func (m *mockRulesStore) GetRulesByRepositoryID(
	ctx context.Context,
	organizationID models.OrgID,
	repositoryID string,
) ([]models.Rule, error) {
	args := m.Called(ctx, organizationID, repositoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Rule), args.Error(1)
}

func (m *mockRulesStore) UpdateRule(ctx context.Context, rule *models.Rule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *mockRulesStore) SoftDeleteRule(ctx context.Context, organizationID models.OrgID, id string) error {
	args := m.Called(ctx, organizationID, id)
	return args.Error(0)
}

type mockRepositoryLinksStore struct {
	mock.Mock
}

func (m *mockRepositoryLinksStore) GetRepositoryLinkByID(
	ctx context.Context,
	organizationID models.OrgID,
	id string,
) (mo.Option[*models.RepositoryLink], error) {
	args := m.Called(ctx, organizationID, id)
	return args.Get(0).(mo.Option[*models.RepositoryLink]), args.Error(1)
}

func connectedLinkStore() *mockRepositoryLinksStore {
	store := new(mockRepositoryLinksStore)
	store.On("GetRepositoryLinkByID", mock.Anything, models.OrgID("org_1"), "repo_1").
		Return(mo.Some(&models.RepositoryLink{ID: "repo_1", OrgID: "org_1"}), nil)
	return store
}

func TestCreateRule(t *testing.T) {
	t.Run("creates active rule for connected repository", func(t *testing.T) {
		store := new(mockRulesStore)
		store.On("CreateRule", mock.Anything, mock.MatchedBy(func(r *models.Rule) bool {
			return r.OrgID == "org_1" &&
				r.RepositoryID == "repo_1" &&
				r.Type == models.RuleTypeProject &&
				r.FileNameStem == "style" &&
				r.IsActive
		})).Return(nil)

		service := NewRulesService(store, connectedLinkStore())
		rule, err := service.CreateRule(
			context.Background(), "org_1", "repo_1", models.RuleTypeProject, "style", "Always use tabs")
		require.NoError(t, err)
		assert.True(t, rule.IsActive)
		assert.NotEmpty(t, rule.ID)
		store.AssertExpectations(t)
	})

	t.Run("rejects unknown rule type", func(t *testing.T) {
		service := NewRulesService(new(mockRulesStore), connectedLinkStore())
		_, err := service.CreateRule(context.Background(), "org_1", "repo_1", "workspace_rule", "style", "x")
		assert.ErrorContains(t, err, "unknown rule type")
	})

	t.Run("rejects stem with extension or separators", func(t *testing.T) {
		service := NewRulesService(new(mockRulesStore), connectedLinkStore())

		_, err := service.CreateRule(context.Background(), "org_1", "repo_1", models.RuleTypeProject, "style.mdc", "x")
		assert.ErrorContains(t, err, "cannot contain an extension")

		_, err = service.CreateRule(context.Background(), "org_1", "repo_1", models.RuleTypeProject, "sub/style", "x")
		assert.ErrorContains(t, err, "path separators")

		_, err = service.CreateRule(context.Background(), "org_1", "repo_1", models.RuleTypeProject, "", "x")
		assert.ErrorContains(t, err, "cannot be empty")
	})

	t.Run("rejects rule for unconnected repository", func(t *testing.T) {
		linksStore := new(mockRepositoryLinksStore)
		linksStore.On("GetRepositoryLinkByID", mock.Anything, models.OrgID("org_1"), "repo_gone").
			Return(mo.None[*models.RepositoryLink](), nil)

		service := NewRulesService(new(mockRulesStore), linksStore)
		_, err := service.CreateRule(context.Background(), "org_1", "repo_gone", models.RuleTypeProject, "style", "x")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestUpdateRule(t *testing.T) {
	t.Run("replaces content and active flag", func(t *testing.T) {
		store := new(mockRulesStore)
		existing := &models.Rule{
			ID: "rule_1", OrgID: "org_1", RepositoryID: "repo_1",
			Type: models.RuleTypeProject, FileNameStem: "style", Content: "old", IsActive: true,
		}
		store.On("GetRuleByID", mock.Anything, models.OrgID("org_1"), "rule_1").
			Return(mo.Some(existing), nil)
		store.On("UpdateRule", mock.Anything, mock.MatchedBy(func(r *models.Rule) bool {
			return r.Content == "new content" && !r.IsActive
		})).Return(nil)

		service := NewRulesService(store, connectedLinkStore())
		rule, err := service.UpdateRule(context.Background(), "org_1", "rule_1", "new content", false)
		require.NoError(t, err)
		assert.Equal(t, "new content", rule.Content)
		assert.False(t, rule.IsActive)
	})

	t.Run("unknown rule yields not found", func(t *testing.T) {
		store := new(mockRulesStore)
		store.On("GetRuleByID", mock.Anything, models.OrgID("org_1"), "rule_missing").
			Return(mo.None[*models.Rule](), nil)

		service := NewRulesService(store, connectedLinkStore())
		_, err := service.UpdateRule(context.Background(), "org_1", "rule_missing", "x", true)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestDeleteRule(t *testing.T) {
	store := new(mockRulesStore)
	store.On("SoftDeleteRule", mock.Anything, models.OrgID("org_1"), "rule_1").Return(nil)

	service := NewRulesService(store, connectedLinkStore())
	err := service.DeleteRule(context.Background(), "org_1", "rule_1")
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestGetRuleTree(t *testing.T) {
	t.Run("projects live rules onto the virtual tree", func(t *testing.T) {
		store := new(mockRulesStore)
		store.On("GetRulesByRepositoryID", mock.Anything, models.OrgID("org_1"), "repo_1").
			Return([]models.Rule{
				{ID: "rule_1", Type: models.RuleTypeProject, FileNameStem: "style", IsActive: true},
				{ID: "rule_2", Type: models.RuleTypeUser, FileNameStem: "prefs", IsActive: true},
			}, nil)

		service := NewRulesService(store, connectedLinkStore())
		nodes, err := service.GetRuleTree(context.Background(), "org_1", "repo_1")
		require.NoError(t, err)
		require.Len(t, nodes, 2)
		assert.Equal(t, tree.RuleRootDirName, nodes[0].Name)
		assert.Equal(t, tree.UserRulesFileName, nodes[1].Name)
	})

	t.Run("no rules yields empty forest", func(t *testing.T) {
		store := new(mockRulesStore)
		store.On("GetRulesByRepositoryID", mock.Anything, models.OrgID("org_1"), "repo_1").
			Return([]models.Rule{}, nil)

		service := NewRulesService(store, connectedLinkStore())
		nodes, err := service.GetRuleTree(context.Background(), "org_1", "repo_1")
		require.NoError(t, err)
		assert.Empty(t, nodes)
	})
}

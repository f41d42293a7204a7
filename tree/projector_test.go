package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rulesync/models"
)

func projectRule(id, stem string, active bool) models.Rule {
	return models.Rule{ID: id, Type: models.RuleTypeProject, FileNameStem: stem, IsActive: active}
}

func commandRule(id, stem string) models.Rule {
	return models.Rule{ID: id, Type: models.RuleTypeCommand, FileNameStem: stem, IsActive: true}
}

func userRule(id string) models.Rule {
	return models.Rule{ID: id, Type: models.RuleTypeUser, FileNameStem: "user-rules", IsActive: true}
}

func TestProjectRules_ExtensionDerivation(t *testing.T) {
	root := ProjectRules([]models.Rule{
		projectRule("rule_1", "my-rule", true),
		commandRule("rule_2", "my-rule"),
	})

	require.Equal(t, "/", root.Path)
	require.Equal(t, models.TreeEntryKindDirectory, root.Kind)
	require.Len(t, root.Children, 1)

	configDir := root.Children[0]
	assert.Equal(t, ".cursor", configDir.Name)
	require.Len(t, configDir.Children, 2)

	rulesDir := configDir.Children[0]
	assert.Equal(t, "rules", rulesDir.Name)
	require.Len(t, rulesDir.Children, 1)
	assert.Equal(t, "my-rule.rules.mdc", rulesDir.Children[0].Name)
	assert.Equal(t, ".cursor/rules/my-rule.rules.mdc", rulesDir.Children[0].Path)
	assert.Equal(t, "rule_1", rulesDir.Children[0].RuleID)

	commandsDir := configDir.Children[1]
	assert.Equal(t, "commands", commandsDir.Name)
	require.Len(t, commandsDir.Children, 1)
	assert.Equal(t, "my-rule.md", commandsDir.Children[0].Name)
	assert.Equal(t, ".cursor/commands/my-rule.md", commandsDir.Children[0].Path)
	assert.Equal(t, "rule_2", commandsDir.Children[0].RuleID)
}

func TestProjectRules_EmptyCategoryOmitted(t *testing.T) {
	t.Run("no commands means no commands directory", func(t *testing.T) {
		root := ProjectRules([]models.Rule{projectRule("rule_1", "style", true)})

		require.Len(t, root.Children, 1)
		configDir := root.Children[0]
		require.Len(t, configDir.Children, 1)
		assert.Equal(t, "rules", configDir.Children[0].Name)
	})

	t.Run("no project rules and no commands means no config directory at all", func(t *testing.T) {
		root := ProjectRules([]models.Rule{userRule("rule_1")})

		require.Len(t, root.Children, 1)
		assert.Equal(t, "user-rules.md", root.Children[0].Name)
		assert.Equal(t, models.TreeEntryKindFile, root.Children[0].Kind)
	})

	t.Run("no rules at all yields a bare root", func(t *testing.T) {
		root := ProjectRules(nil)

		assert.Equal(t, "/", root.Path)
		assert.Empty(t, root.Children)
	})
}

func TestProjectRules_UserRuleAtRoot(t *testing.T) {
	root := ProjectRules([]models.Rule{
		projectRule("rule_1", "style", true),
		userRule("rule_2"),
	})

	require.Len(t, root.Children, 2)
	assert.Equal(t, ".cursor", root.Children[0].Name)
	assert.Equal(t, "user-rules.md", root.Children[1].Name)
	assert.Equal(t, "rule_2", root.Children[1].RuleID)
}

func TestProjectRules_MultipleUserRulesAnomaly(t *testing.T) {
	// More than one user rule is a data anomaly; each row still gets a node
	root := ProjectRules([]models.Rule{
		userRule("rule_1"),
		userRule("rule_2"),
	})

	require.Len(t, root.Children, 2)
	assert.Equal(t, "rule_1", root.Children[0].RuleID)
	assert.Equal(t, "rule_2", root.Children[1].RuleID)
	for _, child := range root.Children {
		assert.Equal(t, "user-rules.md", child.Name)
	}
}

func TestProjectRules_InsertionOrderPreserved(t *testing.T) {
	// No alphabetical pass: rows keep their input order within a category
	root := ProjectRules([]models.Rule{
		projectRule("rule_1", "zebra", true),
		projectRule("rule_2", "alpha", false),
	})

	rulesDir := root.Children[0].Children[0]
	require.Len(t, rulesDir.Children, 2)
	assert.Equal(t, "zebra.rules.mdc", rulesDir.Children[0].Name)
	assert.Equal(t, "alpha.rules.mdc", rulesDir.Children[1].Name)
}

func TestProjectRules_ActiveFlagCarried(t *testing.T) {
	root := ProjectRules([]models.Rule{
		projectRule("rule_1", "on", true),
		projectRule("rule_2", "off", false),
	})

	rulesDir := root.Children[0].Children[0]
	require.Len(t, rulesDir.Children, 2)
	require.NotNil(t, rulesDir.Children[0].IsActive)
	assert.True(t, *rulesDir.Children[0].IsActive)
	require.NotNil(t, rulesDir.Children[1].IsActive)
	assert.False(t, *rulesDir.Children[1].IsActive)
}

package tree

import (
	"rulesync/models"
)

// Well-known names of the virtual rule tree. The shape is fixed rather
// than data-driven: project rules and commands live in category
// directories under the editor config directory, and the single user
// rule surfaces as a root-level file.
const (
	RuleRootDirName      = ".cursor"
	ProjectRulesDirName  = "rules"
	CommandsDirName      = "commands"
	UserRulesFileName    = "user-rules.md"
	ProjectRuleExtension = ".rules.mdc"
	CommandExtension     = ".md"
)

// ProjectRules maps the rule rows of one repository onto the fixed
// virtual tree. Category directories are omitted when empty; category
// order and per-category insertion order are fixed, so no sort pass runs.
func ProjectRules(rules []models.Rule) *models.TreeNode {
	root := &models.TreeNode{
		Name: "/",
		Path: "/",
		Kind: models.TreeEntryKindDirectory,
	}

	var projectRules, commands, userRules []models.Rule
	for _, rule := range rules {
		switch rule.Type {
		case models.RuleTypeProject:
			projectRules = append(projectRules, rule)
		case models.RuleTypeCommand:
			commands = append(commands, rule)
		case models.RuleTypeUser:
			userRules = append(userRules, rule)
		}
	}

	if len(projectRules) > 0 || len(commands) > 0 {
		configDir := &models.TreeNode{
			Name: RuleRootDirName,
			Path: RuleRootDirName,
			Kind: models.TreeEntryKindDirectory,
		}

		if len(projectRules) > 0 {
			configDir.Children = append(configDir.Children,
				categoryNode(ProjectRulesDirName, ProjectRuleExtension, projectRules))
		}
		if len(commands) > 0 {
			configDir.Children = append(configDir.Children,
				categoryNode(CommandsDirName, CommandExtension, commands))
		}

		root.Children = append(root.Children, configDir)
	}

	// At most one user rule is expected; on a data anomaly every row still
	// gets a file node rather than failing.
	for _, rule := range userRules {
		root.Children = append(root.Children, ruleFileNode(rule, UserRulesFileName, UserRulesFileName))
	}

	return root
}

func categoryNode(dirName, extension string, rules []models.Rule) *models.TreeNode {
	dirPath := RuleRootDirName + "/" + dirName
	dir := &models.TreeNode{
		Name: dirName,
		Path: dirPath,
		Kind: models.TreeEntryKindDirectory,
	}

	for _, rule := range rules {
		fileName := rule.FileNameStem + extension
		dir.Children = append(dir.Children, ruleFileNode(rule, fileName, dirPath+"/"+fileName))
	}

	return dir
}

func ruleFileNode(rule models.Rule, name, path string) *models.TreeNode {
	isActive := rule.IsActive
	return &models.TreeNode{
		Name:     name,
		Path:     path,
		Kind:     models.TreeEntryKindFile,
		RuleID:   rule.ID,
		IsActive: &isActive,
	}
}

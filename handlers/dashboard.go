package handlers

import (
	"context"
	"log"

	"rulesync/models"
	"rulesync/services"
)

type DashboardAPIHandler struct {
	usersService        services.UsersService
	credentialsService  services.CredentialsService
	repositoriesService services.RepositoriesService
	rulesService        services.RulesService
}

func NewDashboardAPIHandler(
	usersService services.UsersService,
	credentialsService services.CredentialsService,
	repositoriesService services.RepositoriesService,
	rulesService services.RulesService,
) *DashboardAPIHandler {
	return &DashboardAPIHandler{
		usersService:        usersService,
		credentialsService:  credentialsService,
		repositoriesService: repositoriesService,
		rulesService:        rulesService,
	}
}

// ConnectGitHub exchanges the OAuth code and stores a delegated credential
func (h *DashboardAPIHandler) ConnectGitHub(
	ctx context.Context,
	user *models.User,
	authCode string,
) (*models.CredentialRecord, error) {
	log.Printf("🔐 Connecting GitHub for user: %s", user.ID)
	credential, err := h.credentialsService.ConnectWithAuthCode(ctx, user.ID, models.ProviderGitHub, authCode)
	if err != nil {
		log.Printf("❌ Failed to connect GitHub: %v", err)
		return nil, err
	}

	log.Printf("✅ GitHub connected with credential: %s", credential.ID)
	return credential, nil
}

// GetGitHubConnection reports the current credential for the user, if any
func (h *DashboardAPIHandler) GetGitHubConnection(
	ctx context.Context,
	user *models.User,
) (*models.CredentialRecord, error) {
	maybeCredential, err := h.credentialsService.GetCredential(ctx, user.ID, models.ProviderGitHub)
	if err != nil {
		log.Printf("❌ Failed to get GitHub credential: %v", err)
		return nil, err
	}
	return maybeCredential.OrEmpty(), nil
}

// MigrateGitHubToInstallation upgrades the user's credential to app auth
func (h *DashboardAPIHandler) MigrateGitHubToInstallation(
	ctx context.Context,
	user *models.User,
) (*models.CredentialRecord, error) {
	log.Printf("🔐 Migrating GitHub credential to installation auth for user: %s", user.ID)
	credential, err := h.credentialsService.MigrateToInstallation(ctx, user.ID, models.ProviderGitHub)
	if err != nil {
		log.Printf("❌ Failed to migrate GitHub credential: %v", err)
		return nil, err
	}

	log.Printf("✅ Migrated credential %s to installation auth", credential.ID)
	return credential, nil
}

// DisconnectGitHub removes the user's GitHub credential
func (h *DashboardAPIHandler) DisconnectGitHub(ctx context.Context, user *models.User) error {
	log.Printf("🗑️ Disconnecting GitHub for user: %s", user.ID)
	if err := h.credentialsService.DisconnectProvider(ctx, user.ID, models.ProviderGitHub); err != nil {
		log.Printf("❌ Failed to disconnect GitHub: %v", err)
		return err
	}

	log.Printf("✅ GitHub disconnected for user: %s", user.ID)
	return nil
}

// ListAvailableRepositories lists repositories visible to the user's credential
func (h *DashboardAPIHandler) ListAvailableRepositories(
	ctx context.Context,
	user *models.User,
) ([]models.GitHubRepository, error) {
	log.Printf("📋 Listing available repositories for user: %s", user.ID)
	repos, err := h.repositoriesService.ListAvailableRepositories(ctx, user.ID)
	if err != nil {
		log.Printf("❌ Failed to list available repositories: %v", err)
		return nil, err
	}

	log.Printf("✅ Retrieved %d available repositories", len(repos))
	return repos, nil
}

// ConnectRepository links a repository to the user's organization
func (h *DashboardAPIHandler) ConnectRepository(
	ctx context.Context,
	user *models.User,
	fullName string,
) (*models.RepositoryLink, error) {
	log.Printf("➕ Connecting repository %s for organization: %s", fullName, user.OrgID)
	link, err := h.repositoriesService.ConnectRepository(ctx, user.OrgID, user.ID, fullName)
	if err != nil {
		log.Printf("❌ Failed to connect repository: %v", err)
		return nil, err
	}

	log.Printf("✅ Repository connected: %s", link.ID)
	return link, nil
}

// ListConnectedRepositories lists the organization's linked repositories
func (h *DashboardAPIHandler) ListConnectedRepositories(
	ctx context.Context,
	user *models.User,
) ([]models.RepositoryLink, error) {
	log.Printf("📋 Listing connected repositories for organization: %s", user.OrgID)
	links, err := h.repositoriesService.ListConnectedRepositories(ctx, user.OrgID)
	if err != nil {
		log.Printf("❌ Failed to list connected repositories: %v", err)
		return nil, err
	}

	log.Printf("✅ Retrieved %d connected repositories", len(links))
	return links, nil
}

// GetRepositoryFileTree returns the sorted file forest of a linked repository
func (h *DashboardAPIHandler) GetRepositoryFileTree(
	ctx context.Context,
	user *models.User,
	repositoryID string,
) ([]*models.TreeNode, error) {
	log.Printf("📋 Fetching file tree for repository: %s", repositoryID)
	nodes, err := h.repositoriesService.GetFileTree(ctx, user.OrgID, user.ID, repositoryID)
	if err != nil {
		log.Printf("❌ Failed to fetch file tree: %v", err)
		return nil, err
	}

	log.Printf("✅ File tree fetched for repository: %s", repositoryID)
	return nodes, nil
}

// GetRepositoryFileContent returns one file's content at the pinned branch
func (h *DashboardAPIHandler) GetRepositoryFileContent(
	ctx context.Context,
	user *models.User,
	repositoryID, path string,
) (string, error) {
	log.Printf("📋 Fetching file %s for repository: %s", path, repositoryID)
	content, err := h.repositoriesService.GetFileContent(ctx, user.OrgID, user.ID, repositoryID, path)
	if err != nil {
		log.Printf("❌ Failed to fetch file content: %v", err)
		return "", err
	}

	return content, nil
}

// DisconnectRepository unlinks a repository from the organization
func (h *DashboardAPIHandler) DisconnectRepository(
	ctx context.Context,
	user *models.User,
	repositoryID string,
) error {
	log.Printf("🗑️ Disconnecting repository: %s", repositoryID)
	if err := h.repositoriesService.DisconnectRepository(ctx, user.OrgID, repositoryID); err != nil {
		log.Printf("❌ Failed to disconnect repository: %v", err)
		return err
	}

	log.Printf("✅ Repository disconnected: %s", repositoryID)
	return nil
}

// CreateRule creates a rule attached to a linked repository
func (h *DashboardAPIHandler) CreateRule(
	ctx context.Context,
	user *models.User,
	repositoryID string,
	ruleType models.RuleType,
	fileNameStem, content string,
) (*models.Rule, error) {
	log.Printf("➕ Creating %s rule for repository: %s", ruleType, repositoryID)
	rule, err := h.rulesService.CreateRule(ctx, user.OrgID, repositoryID, ruleType, fileNameStem, content)
	if err != nil {
		log.Printf("❌ Failed to create rule: %v", err)
		return nil, err
	}

	log.Printf("✅ Rule created: %s", rule.ID)
	return rule, nil
}

// ListRules lists a repository's live rules
func (h *DashboardAPIHandler) ListRules(
	ctx context.Context,
	user *models.User,
	repositoryID string,
) ([]models.Rule, error) {
	log.Printf("📋 Listing rules for repository: %s", repositoryID)
	rules, err := h.rulesService.ListRules(ctx, user.OrgID, repositoryID)
	if err != nil {
		log.Printf("❌ Failed to list rules: %v", err)
		return nil, err
	}

	log.Printf("✅ Retrieved %d rules", len(rules))
	return rules, nil
}

// UpdateRule replaces a rule's content and active flag
func (h *DashboardAPIHandler) UpdateRule(
	ctx context.Context,
	user *models.User,
	ruleID, content string,
	isActive bool,
) (*models.Rule, error) {
	log.Printf("📋 Updating rule: %s", ruleID)
	rule, err := h.rulesService.UpdateRule(ctx, user.OrgID, ruleID, content, isActive)
	if err != nil {
		log.Printf("❌ Failed to update rule: %v", err)
		return nil, err
	}

	log.Printf("✅ Rule updated: %s", rule.ID)
	return rule, nil
}

// DeleteRule soft-deletes a rule
func (h *DashboardAPIHandler) DeleteRule(ctx context.Context, user *models.User, ruleID string) error {
	log.Printf("🗑️ Deleting rule: %s", ruleID)
	if err := h.rulesService.DeleteRule(ctx, user.OrgID, ruleID); err != nil {
		log.Printf("❌ Failed to delete rule: %v", err)
		return err
	}

	log.Printf("✅ Rule deleted: %s", ruleID)
	return nil
}

// GetRuleTree returns the virtual rule tree for a repository
func (h *DashboardAPIHandler) GetRuleTree(
	ctx context.Context,
	user *models.User,
	repositoryID string,
) ([]*models.TreeNode, error) {
	log.Printf("📋 Projecting rule tree for repository: %s", repositoryID)
	nodes, err := h.rulesService.GetRuleTree(ctx, user.OrgID, repositoryID)
	if err != nil {
		log.Printf("❌ Failed to project rule tree: %v", err)
		return nil, err
	}

	return nodes, nil
}

package services

import (
	"context"
	"time"

	"github.com/samber/mo"

	"rulesync/models"
)

// UsersService defines the interface for user-related operations
type UsersService interface {
	GetOrCreateUser(ctx context.Context, authProvider, authProviderID, email string) (*models.User, error)
}

// CredentialsService defines the interface for provider credential lifecycle operations
type CredentialsService interface {
	ConnectWithAuthCode(ctx context.Context, userID, provider, authCode string) (*models.CredentialRecord, error)
	GetCredential(ctx context.Context, userID, provider string) (mo.Option[*models.CredentialRecord], error)
	GetValidAccessToken(ctx context.Context, userID, provider string) (string, error)
	MigrateToInstallation(ctx context.Context, userID, provider string) (*models.CredentialRecord, error)
	DisconnectProvider(ctx context.Context, userID, provider string) error
}

// RepositoriesService defines the interface for repository browsing and linking operations
type RepositoriesService interface {
	ListAvailableRepositories(ctx context.Context, userID string) ([]models.GitHubRepository, error)
	ConnectRepository(ctx context.Context, orgID models.OrgID, userID, fullName string) (*models.RepositoryLink, error)
	ListConnectedRepositories(ctx context.Context, orgID models.OrgID) ([]models.RepositoryLink, error)
	GetFileTree(ctx context.Context, orgID models.OrgID, userID, repositoryID string) ([]*models.TreeNode, error)
	GetFileContent(ctx context.Context, orgID models.OrgID, userID, repositoryID, path string) (string, error)
	DisconnectRepository(ctx context.Context, orgID models.OrgID, repositoryID string) error
}

// RulesService defines the interface for rule authoring operations
type RulesService interface {
	CreateRule(
		ctx context.Context,
		orgID models.OrgID,
		repositoryID string,
		ruleType models.RuleType,
		fileNameStem, content string,
	) (*models.Rule, error)
	ListRules(ctx context.Context, orgID models.OrgID, repositoryID string) ([]models.Rule, error)
	UpdateRule(
		ctx context.Context,
		orgID models.OrgID,
		ruleID string,
		content string,
		isActive bool,
	) (*models.Rule, error)
	DeleteRule(ctx context.Context, orgID models.OrgID, ruleID string) error
	GetRuleTree(ctx context.Context, orgID models.OrgID, repositoryID string) ([]*models.TreeNode, error)
}

// InstallationTokenIssuer mints short-lived installation tokens for app-level auth
type InstallationTokenIssuer interface {
	IsConfiguredForAppAuth() bool
	MintInstallationToken(ctx context.Context, installationID string) (string, time.Time, error)
	FindInstallationForToken(ctx context.Context, delegatedToken string) (mo.Option[string], error)
}

// TransactionManager defines the interface for managing database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	BeginTransaction(ctx context.Context) (context.Context, error)
	CommitTransaction(ctx context.Context) error
	RollbackTransaction(ctx context.Context) error
}

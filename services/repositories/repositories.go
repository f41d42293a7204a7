package repositories

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/samber/mo"

	"rulesync/clients"
	"rulesync/core"
	"rulesync/models"
	"rulesync/services"
	"rulesync/tree"
)

// RepositoriesStore defines the persistence operations the repositories service needs
type RepositoriesStore interface {
	CreateRepositoryLink(ctx context.Context, link *models.RepositoryLink) error
	GetRepositoryLinkByID(ctx context.Context, organizationID models.OrgID, id string) (mo.Option[*models.RepositoryLink], error)
	GetRepositoryLinksByOrganizationID(ctx context.Context, organizationID models.OrgID) ([]models.RepositoryLink, error)
	DeleteRepositoryLink(ctx context.Context, organizationID models.OrgID, id string) error
}

// RepositoriesService connects GitHub repositories to organizations and
// exposes read-only browsing of their contents.
type RepositoriesService struct {
	repositoriesStore  RepositoriesStore
	credentialsService services.CredentialsService
	githubClient       clients.GitHubClient
}

func NewRepositoriesService(
	repositoriesStore RepositoriesStore,
	credentialsService services.CredentialsService,
	githubClient clients.GitHubClient,
) *RepositoriesService {
	return &RepositoriesService{
		repositoriesStore:  repositoriesStore,
		credentialsService: credentialsService,
		githubClient:       githubClient,
	}
}

// ListAvailableRepositories lists the repositories the user's credential can see
func (s *RepositoriesService) ListAvailableRepositories(
	ctx context.Context,
	userID string,
) ([]models.GitHubRepository, error) {
	log.Printf("📋 Starting to list available repositories for user: %s", userID)

	token, err := s.credentialsService.GetValidAccessToken(ctx, userID, models.ProviderGitHub)
	if err != nil {
		return nil, err
	}

	repos, err := s.githubClient.ListUserRepositories(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}

	log.Printf("📋 Completed successfully - listed %d available repositories", len(repos))
	return repos, nil
}

// ConnectRepository links a repository to the organization, pinning the
// default branch reported by the provider at connect time.
func (s *RepositoriesService) ConnectRepository(
	ctx context.Context,
	orgID models.OrgID,
	userID, fullName string,
) (*models.RepositoryLink, error) {
	log.Printf("➕ Starting to connect repository %s for organization: %s", fullName, orgID)

	if orgID == "" {
		return nil, fmt.Errorf("organization ID cannot be empty")
	}
	owner, name, err := splitFullName(fullName)
	if err != nil {
		return nil, err
	}

	maybeCredential, err := s.credentialsService.GetCredential(ctx, userID, models.ProviderGitHub)
	if err != nil {
		return nil, err
	}
	credential, ok := maybeCredential.Get()
	if !ok {
		return nil, core.ErrCredentialNotFound
	}

	token, err := s.credentialsService.GetValidAccessToken(ctx, userID, models.ProviderGitHub)
	if err != nil {
		return nil, err
	}

	repo, err := s.githubClient.GetRepository(ctx, token, owner, name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch repository %s: %w", fullName, err)
	}

	link := &models.RepositoryLink{
		ID:            core.NewID("repo"),
		OrgID:         orgID,
		CredentialID:  credential.ID,
		FullName:      repo.FullName,
		DefaultBranch: repo.DefaultBranch,
	}
	if err := s.repositoriesStore.CreateRepositoryLink(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to create repository link: %w", err)
	}

	log.Printf("✅ Connected repository %s with link: %s", link.FullName, link.ID)
	return link, nil
}

// ListConnectedRepositories returns the organization's linked repositories
func (s *RepositoriesService) ListConnectedRepositories(
	ctx context.Context,
	orgID models.OrgID,
) ([]models.RepositoryLink, error) {
	if orgID == "" {
		return nil, fmt.Errorf("organization ID cannot be empty")
	}
	return s.repositoriesStore.GetRepositoryLinksByOrganizationID(ctx, orgID)
}

// GetFileTree fetches the repository's flat listing at the pinned default
// branch and assembles it into a sorted forest.
func (s *RepositoriesService) GetFileTree(
	ctx context.Context,
	orgID models.OrgID,
	userID, repositoryID string,
) ([]*models.TreeNode, error) {
	log.Printf("📋 Starting to build file tree for repository: %s", repositoryID)

	link, token, err := s.resolveRepositoryAccess(ctx, orgID, userID, repositoryID)
	if err != nil {
		return nil, err
	}

	owner, name, err := splitFullName(link.FullName)
	if err != nil {
		return nil, err
	}

	entries, err := s.githubClient.GetRepositoryTree(ctx, token, owner, name, link.DefaultBranch)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch repository tree: %w", err)
	}

	nodes := tree.Build(entries)
	log.Printf("📋 Completed successfully - built file tree with %d root nodes", len(nodes))
	return nodes, nil
}

// GetFileContent fetches one file's raw content at the pinned default branch
func (s *RepositoriesService) GetFileContent(
	ctx context.Context,
	orgID models.OrgID,
	userID, repositoryID, path string,
) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	link, token, err := s.resolveRepositoryAccess(ctx, orgID, userID, repositoryID)
	if err != nil {
		return "", err
	}

	owner, name, err := splitFullName(link.FullName)
	if err != nil {
		return "", err
	}

	content, err := s.githubClient.GetFileContent(ctx, token, owner, name, path, link.DefaultBranch)
	if err != nil {
		return "", fmt.Errorf("failed to fetch file content: %w", err)
	}

	return content, nil
}

// DisconnectRepository removes the link between the organization and repository
func (s *RepositoriesService) DisconnectRepository(
	ctx context.Context,
	orgID models.OrgID,
	repositoryID string,
) error {
	log.Printf("🗑️ Disconnecting repository %s from organization: %s", repositoryID, orgID)

	if orgID == "" {
		return fmt.Errorf("organization ID cannot be empty")
	}
	if repositoryID == "" {
		return fmt.Errorf("repository ID cannot be empty")
	}

	if err := s.repositoriesStore.DeleteRepositoryLink(ctx, orgID, repositoryID); err != nil {
		return fmt.Errorf("failed to delete repository link: %w", err)
	}

	log.Printf("✅ Disconnected repository: %s", repositoryID)
	return nil
}

func (s *RepositoriesService) resolveRepositoryAccess(
	ctx context.Context,
	orgID models.OrgID,
	userID, repositoryID string,
) (*models.RepositoryLink, string, error) {
	if orgID == "" {
		return nil, "", fmt.Errorf("organization ID cannot be empty")
	}
	if repositoryID == "" {
		return nil, "", fmt.Errorf("repository ID cannot be empty")
	}

	maybeLink, err := s.repositoriesStore.GetRepositoryLinkByID(ctx, orgID, repositoryID)
	if err != nil {
		return nil, "", err
	}
	link, ok := maybeLink.Get()
	if !ok {
		return nil, "", fmt.Errorf("%w: repository link %s", core.ErrNotFound, repositoryID)
	}

	token, err := s.credentialsService.GetValidAccessToken(ctx, userID, models.ProviderGitHub)
	if err != nil {
		return nil, "", err
	}

	return link, token, nil
}

func splitFullName(fullName string) (string, string, error) {
	parts := strings.Split(fullName, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository full name must be owner/name, got: %q", fullName)
	}
	return parts[0], parts[1], nil
}

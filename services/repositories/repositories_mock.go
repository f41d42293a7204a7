package repositories

import (
	"context"

	"github.com/stretchr/testify/mock"

	"rulesync/models"
)

// MockRepositoriesService is a mock implementation of the RepositoriesService interface
type MockRepositoriesService struct {
	mock.Mock
}

func (m *MockRepositoriesService) ListAvailableRepositories(
	ctx context.Context,
	userID string,
) ([]models.GitHubRepository, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GitHubRepository), args.Error(1)
}

func (m *MockRepositoriesService) ConnectRepository(
	ctx context.Context,
	orgID models.OrgID,
	userID, fullName string,
) (*models.RepositoryLink, error) {
	args := m.Called(ctx, orgID, userID, fullName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RepositoryLink), args.Error(1)
}

func (m *MockRepositoriesService) ListConnectedRepositories(
	ctx context.Context,
	orgID models.OrgID,
) ([]models.RepositoryLink, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RepositoryLink), args.Error(1)
}

func (m *MockRepositoriesService) GetFileTree(
	ctx context.Context,
	orgID models.OrgID,
	userID, repositoryID string,
) ([]*models.TreeNode, error) {
	args := m.Called(ctx, orgID, userID, repositoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TreeNode), args.Error(1)
}

func (m *MockRepositoriesService) GetFileContent(
	ctx context.Context,
	orgID models.OrgID,
	userID, repositoryID, path string,
) (string, error) {
	args := m.Called(ctx, orgID, userID, repositoryID, path)
	return args.String(0), args.Error(1)
}

func (m *MockRepositoriesService) DisconnectRepository(
	ctx context.Context,
	orgID models.OrgID,
	repositoryID string,
) error {
	args := m.Called(ctx, orgID, repositoryID)
	return args.Error(0)
}

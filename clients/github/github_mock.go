package github

import (
	"context"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"rulesync/models"
)

// MockGitHubClient is a mock implementation of clients.GitHubClient
type MockGitHubClient struct {
	mock.Mock
}

func (m *MockGitHubClient) ExchangeCodeForAccessToken(ctx context.Context, code string) (string, []string, error) {
	args := m.Called(ctx, code)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).([]string), args.Error(2)
}

func (m *MockGitHubClient) GetAuthenticatedUser(ctx context.Context, accessToken string) (*models.GitHubUser, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GitHubUser), args.Error(1)
}

func (m *MockGitHubClient) ListUserRepositories(ctx context.Context, accessToken string) ([]models.GitHubRepository, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GitHubRepository), args.Error(1)
}

func (m *MockGitHubClient) GetRepository(ctx context.Context, accessToken, owner, repo string) (*models.GitHubRepository, error) {
	args := m.Called(ctx, accessToken, owner, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GitHubRepository), args.Error(1)
}

func (m *MockGitHubClient) GetRepositoryTree(
	ctx context.Context,
	accessToken, owner, repo, branch string,
) ([]models.FlatTreeEntry, error) {
	args := m.Called(ctx, accessToken, owner, repo, branch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FlatTreeEntry), args.Error(1)
}

func (m *MockGitHubClient) GetFileContent(ctx context.Context, accessToken, owner, repo, path, ref string) (string, error) {
	args := m.Called(ctx, accessToken, owner, repo, path, ref)
	return args.String(0), args.Error(1)
}

func (m *MockGitHubClient) IsConfiguredForAppAuth() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockGitHubClient) MintInstallationToken(
	ctx context.Context,
	installationID string,
) (string, time.Time, error) {
	args := m.Called(ctx, installationID)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockGitHubClient) FindInstallationForToken(
	ctx context.Context,
	delegatedToken string,
) (mo.Option[string], error) {
	args := m.Called(ctx, delegatedToken)
	return args.Get(0).(mo.Option[string]), args.Error(1)
}

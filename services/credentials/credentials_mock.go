package credentials

import (
	"context"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"rulesync/models"
)

// MockCredentialsService is a mock implementation of the CredentialsService interface
type MockCredentialsService struct {
	mock.Mock
}

func (m *MockCredentialsService) ConnectWithAuthCode(
	ctx context.Context,
	userID, provider, authCode string,
) (*models.CredentialRecord, error) {
	args := m.Called(ctx, userID, provider, authCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CredentialRecord), args.Error(1)
}

func (m *MockCredentialsService) GetCredential(
	ctx context.Context,
	userID, provider string,
) (mo.Option[*models.CredentialRecord], error) {
	args := m.Called(ctx, userID, provider)
	return args.Get(0).(mo.Option[*models.CredentialRecord]), args.Error(1)
}

func (m *MockCredentialsService) GetValidAccessToken(ctx context.Context, userID, provider string) (string, error) {
	args := m.Called(ctx, userID, provider)
	return args.String(0), args.Error(1)
}

func (m *MockCredentialsService) MigrateToInstallation(
	ctx context.Context,
	userID, provider string,
) (*models.CredentialRecord, error) {
	args := m.Called(ctx, userID, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CredentialRecord), args.Error(1)
}

func (m *MockCredentialsService) DisconnectProvider(ctx context.Context, userID, provider string) error {
	args := m.Called(ctx, userID, provider)
	return args.Error(0)
}

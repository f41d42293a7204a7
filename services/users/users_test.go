package users

import (
	"context"
	"errors"
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rulesync/models"
	"rulesync/services/txmanager"
)

type mockUsersStore struct {
	mock.Mock
}

func (m *mockUsersStore) GetUserByAuthProvider(
	ctx context.Context,
	authProvider, authProviderID string,
) (mo.Option[*models.User], error) {
	args := m.Called(ctx, authProvider, authProviderID)
	return args.Get(0).(mo.Option[*models.User]), args.Error(1)
}

func (m *mockUsersStore) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type mockOrganizationsStore struct {
	mock.Mock
}

func (m *mockOrganizationsStore) CreateOrganization(ctx context.Context, organization *models.Organization) error {
	args := m.Called(ctx, organization)
	return args.Error(0)
}

func passthroughTxManager() *txmanager.MockTransactionManager {
	txManager := new(txmanager.MockTransactionManager)
	txManager.On("WithTransaction", mock.Anything, mock.Anything).
		Return(nil).
		Run(func(args mock.Arguments) {
			fn := args.Get(1).(func(context.Context) error)
			_ = fn(args.Get(0).(context.Context))
		}).
		Maybe()
	return txManager
}

func TestGetOrCreateUser_ReturnsExistingUser(t *testing.T) {
	usersStore := new(mockUsersStore)
	orgsStore := new(mockOrganizationsStore)
	existing := &models.User{ID: "u_existing", AuthProvider: "clerk", AuthProviderID: "user_123"}
	usersStore.On("GetUserByAuthProvider", mock.Anything, "clerk", "user_123").
		Return(mo.Some(existing), nil)

	service := NewUsersService(usersStore, orgsStore, passthroughTxManager())
	user, err := service.GetOrCreateUser(context.Background(), "clerk", "user_123", "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, existing, user)
	orgsStore.AssertNotCalled(t, "CreateOrganization", mock.Anything, mock.Anything)
}

func TestGetOrCreateUser_CreatesUserAndOrganization(t *testing.T) {
	usersStore := new(mockUsersStore)
	orgsStore := new(mockOrganizationsStore)
	usersStore.On("GetUserByAuthProvider", mock.Anything, "clerk", "user_456").
		Return(mo.None[*models.User](), nil)
	orgsStore.On("CreateOrganization", mock.Anything, mock.Anything).Return(nil)
	usersStore.On("CreateUser", mock.Anything, mock.Anything).Return(nil)

	service := NewUsersService(usersStore, orgsStore, passthroughTxManager())
	user, err := service.GetOrCreateUser(context.Background(), "clerk", "user_456", "new@b.com")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "clerk", user.AuthProvider)
	assert.Equal(t, "user_456", user.AuthProviderID)
	assert.Equal(t, "new@b.com", user.Email)
	assert.NotEmpty(t, user.OrgID)
	orgsStore.AssertExpectations(t)
	usersStore.AssertExpectations(t)
}

func TestGetOrCreateUser_ValidatesInput(t *testing.T) {
	service := NewUsersService(new(mockUsersStore), new(mockOrganizationsStore), passthroughTxManager())

	_, err := service.GetOrCreateUser(context.Background(), "", "user_1", "a@b.com")
	assert.ErrorContains(t, err, "auth_provider cannot be empty")

	_, err = service.GetOrCreateUser(context.Background(), "clerk", "", "a@b.com")
	assert.ErrorContains(t, err, "auth_provider_id cannot be empty")
}

func TestGetOrCreateUser_PropagatesStoreError(t *testing.T) {
	usersStore := new(mockUsersStore)
	usersStore.On("GetUserByAuthProvider", mock.Anything, "clerk", "user_789").
		Return(mo.None[*models.User](), errors.New("connection refused"))

	service := NewUsersService(usersStore, new(mockOrganizationsStore), passthroughTxManager())
	_, err := service.GetOrCreateUser(context.Background(), "clerk", "user_789", "a@b.com")
	assert.ErrorContains(t, err, "connection refused")
}

package users

import (
	"context"
	"fmt"
	"log"

	"github.com/samber/mo"

	"rulesync/core"
	"rulesync/models"
	"rulesync/services"
)

// UsersStore defines the persistence operations the users service needs
type UsersStore interface {
	GetUserByAuthProvider(ctx context.Context, authProvider, authProviderID string) (mo.Option[*models.User], error)
	CreateUser(ctx context.Context, user *models.User) error
}

// OrganizationsStore defines the organization persistence operations the users service needs
type OrganizationsStore interface {
	CreateOrganization(ctx context.Context, organization *models.Organization) error
}

type UsersService struct {
	usersStore UsersStore
	orgsStore  OrganizationsStore
	txManager  services.TransactionManager
}

func NewUsersService(
	usersStore UsersStore,
	orgsStore OrganizationsStore,
	txManager services.TransactionManager,
) *UsersService {
	return &UsersService{
		usersStore: usersStore,
		orgsStore:  orgsStore,
		txManager:  txManager,
	}
}

// GetOrCreateUser returns the existing user for the auth provider identity,
// creating the user together with a fresh organization on first login.
func (s *UsersService) GetOrCreateUser(
	ctx context.Context,
	authProvider, authProviderID, email string,
) (*models.User, error) {
	log.Printf("📋 Starting to get or create user for authProvider: %s, authProviderID: %s", authProvider, authProviderID)

	if authProvider == "" {
		return nil, fmt.Errorf("auth_provider cannot be empty")
	}
	if authProviderID == "" {
		return nil, fmt.Errorf("auth_provider_id cannot be empty")
	}

	maybeUser, err := s.usersStore.GetUserByAuthProvider(ctx, authProvider, authProviderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by auth provider: %w", err)
	}
	if user, ok := maybeUser.Get(); ok {
		log.Printf("📋 Completed successfully - retrieved existing user with ID: %s", user.ID)
		return user, nil
	}

	var user *models.User
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		organization := &models.Organization{
			ID: models.OrgID(core.NewID("org")),
		}
		if err := s.orgsStore.CreateOrganization(txCtx, organization); err != nil {
			return fmt.Errorf("failed to create organization: %w", err)
		}

		user = &models.User{
			ID:             core.NewID("u"),
			AuthProvider:   authProvider,
			AuthProviderID: authProviderID,
			Email:          email,
			OrgID:          organization.ID,
		}
		if err := s.usersStore.CreateUser(txCtx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get or create user: %w", err)
	}

	log.Printf("📋 Completed successfully - created user with ID: %s", user.ID)
	return user, nil
}

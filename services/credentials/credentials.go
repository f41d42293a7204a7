package credentials

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/samber/mo"

	"rulesync/clients"
	"rulesync/core"
	"rulesync/models"
)

// tokenExpiryBuffer is how close to expiry an installation token may get
// before it is refreshed. Tokens still valid for longer than the buffer
// are served as-is.
const tokenExpiryBuffer = 5 * time.Minute

// CredentialsStore defines the persistence operations the credentials service needs
type CredentialsStore interface {
	GetCredentialByUserAndProvider(
		ctx context.Context,
		userID, provider string,
	) (mo.Option[*models.CredentialRecord], error)
	UpsertDelegatedCredential(ctx context.Context, credential *models.CredentialRecord) error
	UpdateInstallationToken(ctx context.Context, credentialID, accessToken string, expiresAt time.Time) error
	MigrateToInstallation(ctx context.Context, credentialID, installationID, accessToken string, expiresAt time.Time) error
	DeleteCredential(ctx context.Context, userID, provider string) error
}

// CredentialsService manages the lifecycle of provider credentials: delegated
// OAuth tokens obtained from the user consent flow, and short-lived
// installation tokens minted on demand once the user migrates to app auth.
type CredentialsService struct {
	credentialsStore CredentialsStore
	githubClient     clients.GitHubClient
}

func NewCredentialsService(
	credentialsStore CredentialsStore,
	githubClient clients.GitHubClient,
) *CredentialsService {
	return &CredentialsService{
		credentialsStore: credentialsStore,
		githubClient:     githubClient,
	}
}

// ConnectWithAuthCode exchanges an OAuth authorization code for a delegated
// token and stores it, replacing any previous credential for the pair.
func (s *CredentialsService) ConnectWithAuthCode(
	ctx context.Context,
	userID, provider, authCode string,
) (*models.CredentialRecord, error) {
	log.Printf("📋 Starting to connect provider %s for user: %s", provider, userID)

	if userID == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}
	if provider != models.ProviderGitHub {
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
	if authCode == "" {
		return nil, fmt.Errorf("auth code cannot be empty")
	}

	accessToken, scopes, err := s.githubClient.ExchangeCodeForAccessToken(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}

	credential := models.NewDelegatedCredential(core.NewID("cred"), userID, provider, accessToken, scopes)
	if err := s.credentialsStore.UpsertDelegatedCredential(ctx, credential); err != nil {
		return nil, fmt.Errorf("failed to store credential: %w", err)
	}

	log.Printf("✅ Connected provider %s for user %s with credential: %s", provider, userID, credential.ID)
	return credential, nil
}

// GetCredential returns the stored credential record for the pair, if any
func (s *CredentialsService) GetCredential(
	ctx context.Context,
	userID, provider string,
) (mo.Option[*models.CredentialRecord], error) {
	if userID == "" {
		return mo.None[*models.CredentialRecord](), fmt.Errorf("user ID cannot be empty")
	}
	if provider == "" {
		return mo.None[*models.CredentialRecord](), fmt.Errorf("provider cannot be empty")
	}

	return s.credentialsStore.GetCredentialByUserAndProvider(ctx, userID, provider)
}

// GetValidAccessToken returns a token ready for immediate use against the
// provider. Delegated tokens are returned as stored. Installation tokens are
// refreshed when they are within the expiry buffer; if minting a replacement
// fails, the stale token is returned so callers can still attempt the request.
func (s *CredentialsService) GetValidAccessToken(ctx context.Context, userID, provider string) (string, error) {
	maybeCredential, err := s.GetCredential(ctx, userID, provider)
	if err != nil {
		return "", err
	}
	credential, ok := maybeCredential.Get()
	if !ok {
		return "", core.ErrCredentialNotFound
	}

	if credential.AuthKind == models.AuthKindDelegated {
		return credential.AccessToken, nil
	}

	if credential.InstallationTokenExpiresAt != nil &&
		time.Until(*credential.InstallationTokenExpiresAt) > tokenExpiryBuffer {
		return credential.AccessToken, nil
	}

	log.Printf("📋 Installation token for credential %s is near expiry, minting replacement", credential.ID)
	token, expiresAt, err := s.githubClient.MintInstallationToken(ctx, *credential.InstallationID)
	if err != nil {
		log.Printf("⚠️ Failed to mint installation token for credential %s, serving stale token: %v", credential.ID, err)
		return credential.AccessToken, nil
	}

	if err := s.credentialsStore.UpdateInstallationToken(ctx, credential.ID, token, expiresAt); err != nil {
		return "", fmt.Errorf("failed to persist refreshed installation token: %w", err)
	}

	log.Printf("✅ Refreshed installation token for credential: %s", credential.ID)
	return token, nil
}

// MigrateToInstallation upgrades a delegated credential to installation kind.
// The user must already have the app installed on their account; the
// delegated token is used to locate the matching installation.
func (s *CredentialsService) MigrateToInstallation(
	ctx context.Context,
	userID, provider string,
) (*models.CredentialRecord, error) {
	log.Printf("📋 Starting migration to installation auth for user: %s", userID)

	if !s.githubClient.IsConfiguredForAppAuth() {
		return nil, core.ErrIssuerNotConfigured
	}

	maybeCredential, err := s.GetCredential(ctx, userID, provider)
	if err != nil {
		return nil, err
	}
	credential, ok := maybeCredential.Get()
	if !ok {
		return nil, core.ErrCredentialNotFound
	}
	if credential.AuthKind == models.AuthKindInstallation {
		log.Printf("📋 Credential %s already uses installation auth", credential.ID)
		return credential, nil
	}

	maybeInstallation, err := s.githubClient.FindInstallationForToken(ctx, credential.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to look up installation: %w", err)
	}
	installationID, ok := maybeInstallation.Get()
	if !ok {
		return nil, core.ErrAppNotInstalled
	}

	token, expiresAt, err := s.githubClient.MintInstallationToken(ctx, installationID)
	if err != nil {
		return nil, fmt.Errorf("failed to mint installation token: %w", err)
	}

	if err := s.credentialsStore.MigrateToInstallation(ctx, credential.ID, installationID, token, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to persist migration: %w", err)
	}

	maybeMigrated, err := s.GetCredential(ctx, userID, provider)
	if err != nil {
		return nil, err
	}
	migrated, ok := maybeMigrated.Get()
	if !ok {
		return nil, core.ErrCredentialNotFound
	}

	log.Printf("✅ Migrated credential %s to installation: %s", migrated.ID, installationID)
	return migrated, nil
}

// DisconnectProvider removes the stored credential for the pair
func (s *CredentialsService) DisconnectProvider(ctx context.Context, userID, provider string) error {
	log.Printf("🗑️ Disconnecting provider %s for user: %s", provider, userID)

	if userID == "" {
		return fmt.Errorf("user ID cannot be empty")
	}
	if provider == "" {
		return fmt.Errorf("provider cannot be empty")
	}

	if err := s.credentialsStore.DeleteCredential(ctx, userID, provider); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	log.Printf("✅ Disconnected provider %s for user: %s", provider, userID)
	return nil
}

package clients

import (
	"context"
	"time"

	"github.com/samber/mo"

	"rulesync/models"
)

// GitHubClient defines the outbound surface to the source-hosting provider.
// All token-authenticated calls take the access token explicitly so the
// credential lifecycle stays in the service layer.
type GitHubClient interface {
	// ExchangeCodeForAccessToken exchanges an OAuth authorization code for a
	// delegated access token and its granted scopes
	ExchangeCodeForAccessToken(ctx context.Context, code string) (string, []string, error)

	GetAuthenticatedUser(ctx context.Context, accessToken string) (*models.GitHubUser, error)
	ListUserRepositories(ctx context.Context, accessToken string) ([]models.GitHubRepository, error)
	GetRepository(ctx context.Context, accessToken, owner, repo string) (*models.GitHubRepository, error)
	GetRepositoryTree(
		ctx context.Context,
		accessToken, owner, repo, branch string,
	) ([]models.FlatTreeEntry, error)
	GetFileContent(ctx context.Context, accessToken, owner, repo, path, ref string) (string, error)

	// IsConfiguredForAppAuth reports whether GitHub App credentials are
	// available for minting installation tokens
	IsConfiguredForAppAuth() bool

	// MintInstallationToken mints a short-lived access token for the given
	// app installation, returning the token and its provider-advertised expiry
	MintInstallationToken(ctx context.Context, installationID string) (string, time.Time, error)

	// FindInstallationForToken lists the installations visible to the given
	// delegated token and returns the ID of the one belonging to our app,
	// or None if the app is not installed for that user
	FindInstallationForToken(ctx context.Context, delegatedToken string) (mo.Option[string], error)
}

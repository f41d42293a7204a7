package models

import (
	"fmt"
	"time"

	"github.com/lib/pq"
)

// ProviderGitHub is the only source-hosting provider currently supported
const ProviderGitHub = "github"

// AuthKind selects which token lifecycle applies to a credential record
type AuthKind string

const (
	// AuthKindDelegated is a long-lived user-authorized OAuth token,
	// revocable by the user at the provider at any time.
	AuthKindDelegated AuthKind = "delegated"
	// AuthKindInstallation is a short-lived token minted on demand for
	// a GitHub App installation.
	AuthKindInstallation AuthKind = "installation"
)

// CredentialRecord stores token material for one (user, provider) pair.
// The installation fields are populated if and only if AuthKind is
// AuthKindInstallation; Validate enforces this.
type CredentialRecord struct {
	ID                         string         `db:"id"                            json:"id"`
	UserID                     string         `db:"user_id"                       json:"user_id"`
	Provider                   string         `db:"provider"                      json:"provider"`
	AuthKind                   AuthKind       `db:"auth_kind"                     json:"auth_kind"`
	AccessToken                string         `db:"access_token"                  json:"-"`
	RefreshToken               *string        `db:"refresh_token"                 json:"-"`
	TokenExpiresAt             *time.Time     `db:"token_expires_at"              json:"token_expires_at"`
	InstallationID             *string        `db:"installation_id"               json:"installation_id"`
	InstallationTokenExpiresAt *time.Time     `db:"installation_token_expires_at" json:"installation_token_expires_at"`
	Scopes                     pq.StringArray `db:"scopes"                        json:"scopes"`
	CreatedAt                  time.Time      `db:"created_at"                    json:"created_at"`
	UpdatedAt                  time.Time      `db:"updated_at"                    json:"updated_at"`
}

// NewDelegatedCredential builds a delegated-kind record with no installation fields set
func NewDelegatedCredential(id, userID, provider, accessToken string, scopes []string) *CredentialRecord {
	return &CredentialRecord{
		ID:          id,
		UserID:      userID,
		Provider:    provider,
		AuthKind:    AuthKindDelegated,
		AccessToken: accessToken,
		Scopes:      scopes,
	}
}

// NewInstallationCredential builds an installation-kind record with both
// installation fields populated
func NewInstallationCredential(
	id, userID, provider, accessToken, installationID string,
	expiresAt time.Time,
) *CredentialRecord {
	return &CredentialRecord{
		ID:                         id,
		UserID:                     userID,
		Provider:                   provider,
		AuthKind:                   AuthKindInstallation,
		AccessToken:                accessToken,
		InstallationID:             &installationID,
		InstallationTokenExpiresAt: &expiresAt,
	}
}

// Validate checks the structural invariants of the record. Installation ID
// and installation token expiry must be both present (installation kind) or
// both absent (delegated kind).
func (c *CredentialRecord) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("credential user ID cannot be empty")
	}
	if c.Provider == "" {
		return fmt.Errorf("credential provider cannot be empty")
	}
	if c.AccessToken == "" {
		return fmt.Errorf("credential access token cannot be empty")
	}

	switch c.AuthKind {
	case AuthKindDelegated:
		if c.InstallationID != nil || c.InstallationTokenExpiresAt != nil {
			return fmt.Errorf("delegated credential must not carry installation fields")
		}
	case AuthKindInstallation:
		if c.InstallationID == nil || c.InstallationTokenExpiresAt == nil {
			return fmt.Errorf("installation credential must carry installation ID and token expiry")
		}
	default:
		return fmt.Errorf("unknown auth kind: %q", c.AuthKind)
	}

	return nil
}

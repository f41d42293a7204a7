package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"

	"rulesync/clients"
	"rulesync/core"
	"rulesync/models"
)

const (
	defaultAPIBaseURL   = "https://api.github.com"
	defaultOAuthBaseURL = "https://github.com"

	acceptHeader     = "application/vnd.github+json"
	acceptRawHeader  = "application/vnd.github.raw+json"
	apiVersionHeader = "2022-11-28"
)

// GitHubClient implements the clients.GitHubClient interface over the
// GitHub REST API. App-auth calls are unavailable when the client was
// constructed without app credentials.
type GitHubClient struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
	appID        string
	jwtClient    *appJWTClient
	apiBaseURL   string
	oauthBaseURL string
}

// NewGitHubClient creates a new GitHub client. appID and privateKey are
// optional; when either is missing the client operates in delegated-only
// mode and installation-token calls fail with core.ErrIssuerNotConfigured.
func NewGitHubClient(clientID, clientSecret, appID string, privateKey []byte) (clients.GitHubClient, error) {
	return NewGitHubClientWithBaseURLs(
		clientID, clientSecret, appID, privateKey,
		defaultAPIBaseURL, defaultOAuthBaseURL,
	)
}

// NewGitHubClientWithBaseURLs creates a client against custom base URLs.
// Used by tests to point the client at an httptest server.
func NewGitHubClientWithBaseURLs(
	clientID, clientSecret, appID string,
	privateKey []byte,
	apiBaseURL, oauthBaseURL string,
) (clients.GitHubClient, error) {
	var jwtClient *appJWTClient
	if appID != "" && len(privateKey) > 0 {
		var err error
		jwtClient, err = newAppJWTClient(appID, privateKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create app JWT client: %w", err)
		}
	}

	return &GitHubClient{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		clientID:     clientID,
		clientSecret: clientSecret,
		appID:        appID,
		jwtClient:    jwtClient,
		apiBaseURL:   apiBaseURL,
		oauthBaseURL: oauthBaseURL,
	}, nil
}

// classifyResponse maps a non-2xx provider response to an error kind.
// 401 means the supplied token is no longer honored; 403 with exhausted
// quota headers and 429 are rate limits; 5xx is provider unavailability.
func classifyResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: status 401, body: %s", core.ErrTokenExpiredOrRevoked, string(body))
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusForbidden && rateLimitExhausted(resp):
		return &core.RateLimitedError{RetryAfter: retryAfterHint(resp)}
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: status 404, body: %s", core.ErrNotFound, string(body))
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d, body: %s", core.ErrProviderUnavailable, resp.StatusCode, string(body))
	default:
		return fmt.Errorf("GitHub API error: status %d, body: %s", resp.StatusCode, string(body))
	}
}

func rateLimitExhausted(resp *http.Response) bool {
	if resp.Header.Get("Retry-After") != "" {
		return true
	}
	return resp.Header.Get("X-RateLimit-Remaining") == "0"
}

func retryAfterHint(resp *http.Response) time.Duration {
	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	if reset := resp.Header.Get("X-RateLimit-Reset"); reset != "" {
		if epoch, err := strconv.ParseInt(reset, 10, 64); err == nil {
			if wait := time.Until(time.Unix(epoch, 0)); wait > 0 {
				return wait
			}
		}
	}
	return 0
}

// doAPIRequest performs a token-authenticated API call. Transport failures
// are classified as provider unavailability so callers can retry with backoff.
func (c *GitHubClient) doAPIRequest(
	ctx context.Context,
	method, path, token, accept string,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.apiBaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", accept)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-GitHub-Api-Version", apiVersionHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrProviderUnavailable, err)
	}

	return resp, nil
}

// OAuth token response
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}

// ExchangeCodeForAccessToken exchanges an OAuth authorization code for a
// delegated access token and the scopes GitHub granted it
func (c *GitHubClient) ExchangeCodeForAccessToken(ctx context.Context, code string) (string, []string, error) {
	data := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"code":          {code},
	}

	req, err := http.NewRequestWithContext(
		ctx,
		"POST",
		c.oauthBaseURL+"/login/oauth/access_token",
		bytes.NewBufferString(data.Encode()),
	)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", core.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", nil, fmt.Errorf("failed to exchange code: status %d, body: %s", resp.StatusCode, string(body))
	}

	var tokenResp tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if tokenResp.AccessToken == "" {
		return "", nil, fmt.Errorf("no access token in response")
	}

	return tokenResp.AccessToken, splitScopes(tokenResp.Scope), nil
}

func splitScopes(scope string) []string {
	if scope == "" {
		return nil
	}
	var scopes []string
	for _, s := range strings.Split(scope, ",") {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			scopes = append(scopes, trimmed)
		}
	}
	return scopes
}

// GetAuthenticatedUser fetches the identity behind an access token
func (c *GitHubClient) GetAuthenticatedUser(ctx context.Context, accessToken string) (*models.GitHubUser, error) {
	resp, err := c.doAPIRequest(ctx, "GET", "/user", accessToken, acceptHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to get authenticated user: %w", err)
	}
	defer resp.Body.Close()

	if err := classifyResponse(resp); err != nil {
		return nil, fmt.Errorf("failed to get authenticated user: %w", err)
	}

	var user models.GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}

	return &user, nil
}

// ListUserRepositories lists all repositories the token can access,
// following pagination to the end
func (c *GitHubClient) ListUserRepositories(ctx context.Context, accessToken string) ([]models.GitHubRepository, error) {
	const perPage = 100

	var allRepos []models.GitHubRepository
	for page := 1; ; page++ {
		path := fmt.Sprintf(
			"/user/repos?per_page=%d&page=%d&sort=updated&affiliation=owner,collaborator,organization_member",
			perPage, page,
		)

		resp, err := c.doAPIRequest(ctx, "GET", path, accessToken, acceptHeader)
		if err != nil {
			return nil, fmt.Errorf("failed to list repositories: %w", err)
		}

		if err := classifyResponse(resp); err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to list repositories: %w", err)
		}

		var repos []models.GitHubRepository
		if err := json.NewDecoder(resp.Body).Decode(&repos); err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to decode repositories: %w", err)
		}
		resp.Body.Close()

		allRepos = append(allRepos, repos...)
		if len(repos) < perPage {
			break
		}
	}

	return allRepos, nil
}

// GetRepository fetches one repository, including its default branch
func (c *GitHubClient) GetRepository(ctx context.Context, accessToken, owner, repo string) (*models.GitHubRepository, error) {
	path := fmt.Sprintf("/repos/%s/%s", owner, repo)

	resp, err := c.doAPIRequest(ctx, "GET", path, accessToken, acceptHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to get repository: %w", err)
	}
	defer resp.Body.Close()

	if err := classifyResponse(resp); err != nil {
		return nil, fmt.Errorf("failed to get repository %s/%s: %w", owner, repo, err)
	}

	var repository models.GitHubRepository
	if err := json.NewDecoder(resp.Body).Decode(&repository); err != nil {
		return nil, fmt.Errorf("failed to decode repository: %w", err)
	}

	return &repository, nil
}

// GetRepositoryTree fetches the recursive file tree of a branch as a flat
// entry list. Blob entries map to files and tree entries to directories;
// other object types (submodule commits) are skipped.
func (c *GitHubClient) GetRepositoryTree(
	ctx context.Context,
	accessToken, owner, repo, branch string,
) ([]models.FlatTreeEntry, error) {
	path := fmt.Sprintf("/repos/%s/%s/git/trees/%s?recursive=1", owner, repo, url.PathEscape(branch))

	resp, err := c.doAPIRequest(ctx, "GET", path, accessToken, acceptHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to get repository tree: %w", err)
	}
	defer resp.Body.Close()

	if err := classifyResponse(resp); err != nil {
		return nil, fmt.Errorf("failed to get tree for %s/%s@%s: %w", owner, repo, branch, err)
	}

	var treeData struct {
		Tree []struct {
			Path string `json:"path"`
			Type string `json:"type"`
		} `json:"tree"`
		Truncated bool `json:"truncated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&treeData); err != nil {
		return nil, fmt.Errorf("failed to decode tree: %w", err)
	}

	entries := make([]models.FlatTreeEntry, 0, len(treeData.Tree))
	for _, entry := range treeData.Tree {
		switch entry.Type {
		case "blob":
			entries = append(entries, models.FlatTreeEntry{Path: entry.Path, Kind: models.TreeEntryKindFile})
		case "tree":
			entries = append(entries, models.FlatTreeEntry{Path: entry.Path, Kind: models.TreeEntryKindDirectory})
		}
	}

	return entries, nil
}

// GetFileContent fetches the raw content of one file at the given ref
func (c *GitHubClient) GetFileContent(ctx context.Context, accessToken, owner, repo, path, ref string) (string, error) {
	requestPath := fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, escapePath(path))
	if ref != "" {
		requestPath += "?ref=" + url.QueryEscape(ref)
	}

	resp, err := c.doAPIRequest(ctx, "GET", requestPath, accessToken, acceptRawHeader)
	if err != nil {
		return "", fmt.Errorf("failed to get file content: %w", err)
	}
	defer resp.Body.Close()

	if err := classifyResponse(resp); err != nil {
		return "", fmt.Errorf("failed to get content of %s: %w", path, err)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read file content: %w", err)
	}

	return string(content), nil
}

// escapePath escapes each path segment while keeping the / separators
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	escaped := make([]string, len(segments))
	for i, segment := range segments {
		escaped[i] = url.PathEscape(segment)
	}
	return strings.Join(escaped, "/")
}

// IsConfiguredForAppAuth reports whether installation tokens can be minted
func (c *GitHubClient) IsConfiguredForAppAuth() bool {
	return c.jwtClient != nil
}

// MintInstallationToken mints a short-lived installation access token via
// the app-auth endpoint
func (c *GitHubClient) MintInstallationToken(
	ctx context.Context,
	installationID string,
) (string, time.Time, error) {
	if c.jwtClient == nil {
		return "", time.Time{}, core.ErrIssuerNotConfigured
	}

	jwtToken, err := c.jwtClient.getToken()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to get app JWT: %w", err)
	}

	path := fmt.Sprintf("/app/installations/%s/access_tokens", installationID)
	req, err := http.NewRequestWithContext(ctx, "POST", c.apiBaseURL+path, nil)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to create token request: %w", err)
	}

	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Authorization", "Bearer "+jwtToken)
	req.Header.Set("X-GitHub-Api-Version", apiVersionHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", core.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		// Installation removed or app permissions revoked
		return "", time.Time{}, fmt.Errorf(
			"issuer rejected installation token request: status %d, body: %s",
			resp.StatusCode, string(body),
		)
	}

	var installationToken struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&installationToken); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to decode installation token: %w", err)
	}

	return installationToken.Token, installationToken.ExpiresAt, nil
}

// FindInstallationForToken returns the ID of the installation of our app
// visible to the given delegated token, or None when the app is not
// installed for that user. An empty installation list is not an error.
func (c *GitHubClient) FindInstallationForToken(
	ctx context.Context,
	delegatedToken string,
) (mo.Option[string], error) {
	resp, err := c.doAPIRequest(ctx, "GET", "/user/installations", delegatedToken, acceptHeader)
	if err != nil {
		return mo.None[string](), fmt.Errorf("failed to list installations: %w", err)
	}
	defer resp.Body.Close()

	if err := classifyResponse(resp); err != nil {
		return mo.None[string](), fmt.Errorf("failed to list installations: %w", err)
	}

	var installationsData struct {
		Installations []struct {
			ID    int64 `json:"id"`
			AppID int64 `json:"app_id"`
		} `json:"installations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&installationsData); err != nil {
		return mo.None[string](), fmt.Errorf("failed to decode installations: %w", err)
	}

	for _, installation := range installationsData.Installations {
		if strconv.FormatInt(installation.AppID, 10) == c.appID {
			return mo.Some(strconv.FormatInt(installation.ID, 10)), nil
		}
	}

	return mo.None[string](), nil
}

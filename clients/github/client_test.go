package github

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rulesync/core"
)

func testAppPrivateKey(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
}

func newTestClient(t *testing.T, server *httptest.Server, appKey []byte) *GitHubClient {
	t.Helper()
	appID := ""
	if appKey != nil {
		appID = "98765"
	}
	client, err := NewGitHubClientWithBaseURLs(
		"test-client-id", "test-client-secret", appID, appKey,
		server.URL, server.URL,
	)
	require.NoError(t, err)
	return client.(*GitHubClient)
}

func TestGitHubClient_ResponseClassification(t *testing.T) {
	t.Run("401 is classified as token expired or revoked", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		client := newTestClient(t, server, nil)
		_, err := client.GetAuthenticatedUser(context.Background(), "gho_revoked")

		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrTokenExpiredOrRevoked)
	})

	t.Run("403 with exhausted quota is classified as rate limited", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "42")
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		client := newTestClient(t, server, nil)
		_, err := client.ListUserRepositories(context.Background(), "gho_token")

		require.Error(t, err)
		assert.True(t, core.IsRateLimited(err))
		assert.Equal(t, 42*time.Second, core.RetryAfterHint(err))
	})

	t.Run("429 is classified as rate limited", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := newTestClient(t, server, nil)
		_, err := client.GetRepository(context.Background(), "gho_token", "acme", "widgets")

		require.Error(t, err)
		assert.True(t, core.IsRateLimited(err))
	})

	t.Run("404 is classified as not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := newTestClient(t, server, nil)
		_, err := client.GetRepository(context.Background(), "gho_token", "acme", "missing")

		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("5xx is classified as provider unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := newTestClient(t, server, nil)
		_, err := client.GetAuthenticatedUser(context.Background(), "gho_token")

		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrProviderUnavailable)
	})

	t.Run("network failure is classified as provider unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close() // closed before use

		client := newTestClient(t, server, nil)
		_, err := client.GetAuthenticatedUser(context.Background(), "gho_token")

		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrProviderUnavailable)
	})
}

func TestGitHubClient_ExchangeCodeForAccessToken(t *testing.T) {
	t.Run("returns token and scopes", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/login/oauth/access_token", r.URL.Path)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "test-client-id", r.FormValue("client_id"))
			assert.Equal(t, "the-code", r.FormValue("code"))

			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"gho_abc123","token_type":"bearer","scope":"repo, read:user"}`)
		}))
		defer server.Close()

		client := newTestClient(t, server, nil)
		token, scopes, err := client.ExchangeCodeForAccessToken(context.Background(), "the-code")

		require.NoError(t, err)
		assert.Equal(t, "gho_abc123", token)
		assert.Equal(t, []string{"repo", "read:user"}, scopes)
	})

	t.Run("empty token in response is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"error":"bad_verification_code"}`)
		}))
		defer server.Close()

		client := newTestClient(t, server, nil)
		_, _, err := client.ExchangeCodeForAccessToken(context.Background(), "expired-code")

		assert.Error(t, err)
	})
}

func TestGitHubClient_ListUserRepositories(t *testing.T) {
	t.Run("follows pagination", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/user/repos", r.URL.Path)
			assert.Equal(t, "Bearer gho_token", r.Header.Get("Authorization"))

			w.Header().Set("Content-Type", "application/json")
			switch r.URL.Query().Get("page") {
			case "1":
				// full page forces a second request
				fmt.Fprint(w, "[")
				for i := 0; i < 100; i++ {
					if i > 0 {
						fmt.Fprint(w, ",")
					}
					fmt.Fprintf(w, `{"id":%d,"full_name":"acme/repo-%d","default_branch":"main"}`, i, i)
				}
				fmt.Fprint(w, "]")
			case "2":
				fmt.Fprint(w, `[{"id":100,"full_name":"acme/last","default_branch":"develop"}]`)
			default:
				t.Fatalf("unexpected page %q", r.URL.Query().Get("page"))
			}
		}))
		defer server.Close()

		client := newTestClient(t, server, nil)
		repos, err := client.ListUserRepositories(context.Background(), "gho_token")

		require.NoError(t, err)
		require.Len(t, repos, 101)
		assert.Equal(t, "acme/repo-0", repos[0].FullName)
		assert.Equal(t, "acme/last", repos[100].FullName)
		assert.Equal(t, "develop", repos[100].DefaultBranch)
	})
}

func TestGitHubClient_GetRepositoryTree(t *testing.T) {
	t.Run("maps blobs and trees, skips submodule commits", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/repos/acme/widgets/git/trees/main", r.URL.Path)
			assert.Equal(t, "1", r.URL.Query().Get("recursive"))

			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"tree":[
				{"path":"src","type":"tree"},
				{"path":"src/main.go","type":"blob"},
				{"path":"vendored","type":"commit"}
			],"truncated":false}`)
		}))
		defer server.Close()

		client := newTestClient(t, server, nil)
		entries, err := client.GetRepositoryTree(context.Background(), "gho_token", "acme", "widgets", "main")

		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "src", entries[0].Path)
		assert.Equal(t, "directory", string(entries[0].Kind))
		assert.Equal(t, "src/main.go", entries[1].Path)
		assert.Equal(t, "file", string(entries[1].Kind))
	})
}

func TestGitHubClient_GetFileContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/acme/widgets/contents/docs/setup.md", r.URL.Path)
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		assert.Equal(t, "application/vnd.github.raw+json", r.Header.Get("Accept"))

		fmt.Fprint(w, "# Setup\n")
	}))
	defer server.Close()

	client := newTestClient(t, server, nil)
	content, err := client.GetFileContent(context.Background(), "gho_token", "acme", "widgets", "docs/setup.md", "main")

	require.NoError(t, err)
	assert.Equal(t, "# Setup\n", content)
}

func TestGitHubClient_MintInstallationToken(t *testing.T) {
	t.Run("fails when app credentials are not configured", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("no request expected")
		}))
		defer server.Close()

		client := newTestClient(t, server, nil)
		_, _, err := client.MintInstallationToken(context.Background(), "12345")

		assert.ErrorIs(t, err, core.ErrIssuerNotConfigured)
	})

	t.Run("mints a token with app JWT auth", func(t *testing.T) {
		expiresAt := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/app/installations/12345/access_tokens", r.URL.Path)
			require.Equal(t, "POST", r.Method)
			assert.Contains(t, r.Header.Get("Authorization"), "Bearer ")

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			fmt.Fprintf(w, `{"token":"ghs_minted","expires_at":%q}`, expiresAt.Format(time.RFC3339))
		}))
		defer server.Close()

		client := newTestClient(t, server, testAppPrivateKey(t))
		token, gotExpiry, err := client.MintInstallationToken(context.Background(), "12345")

		require.NoError(t, err)
		assert.Equal(t, "ghs_minted", token)
		assert.Equal(t, expiresAt, gotExpiry.UTC())
	})

	t.Run("provider refusal surfaces as issuer rejection", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := newTestClient(t, server, testAppPrivateKey(t))
		_, _, err := client.MintInstallationToken(context.Background(), "99999")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "issuer rejected")
	})
}

func TestGitHubClient_FindInstallationForToken(t *testing.T) {
	t.Run("returns matching installation for our app", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/user/installations", r.URL.Path)
			assert.Equal(t, "Bearer gho_delegated", r.Header.Get("Authorization"))

			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"total_count":2,"installations":[
				{"id":111,"app_id":11111},
				{"id":222,"app_id":98765}
			]}`)
		}))
		defer server.Close()

		client := newTestClient(t, server, testAppPrivateKey(t))
		maybeInstallation, err := client.FindInstallationForToken(context.Background(), "gho_delegated")

		require.NoError(t, err)
		installationID, ok := maybeInstallation.Get()
		require.True(t, ok)
		assert.Equal(t, "222", installationID)
	})

	t.Run("zero installations is None, not an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"total_count":0,"installations":[]}`)
		}))
		defer server.Close()

		client := newTestClient(t, server, testAppPrivateKey(t))
		maybeInstallation, err := client.FindInstallationForToken(context.Background(), "gho_delegated")

		require.NoError(t, err)
		assert.False(t, maybeInstallation.IsPresent())
	})

	t.Run("no app match is None", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"total_count":1,"installations":[{"id":111,"app_id":11111}]}`)
		}))
		defer server.Close()

		client := newTestClient(t, server, testAppPrivateKey(t))
		maybeInstallation, err := client.FindInstallationForToken(context.Background(), "gho_delegated")

		require.NoError(t, err)
		assert.False(t, maybeInstallation.IsPresent())
	})
}

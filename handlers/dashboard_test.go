package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rulesync/appctx"
	"rulesync/core"
	"rulesync/models"
	"rulesync/services/credentials"
	"rulesync/services/repositories"
	"rulesync/services/rules"
	"rulesync/services/users"
)

// Test data
var (
	testUser = &models.User{
		ID:             "u_01234567890123456789012345",
		AuthProvider:   "clerk",
		AuthProviderID: "user_test_123",
		Email:          "tester@example.com",
		OrgID:          "org_01234567890123456789012345",
	}

	testCredential = models.NewDelegatedCredential(
		"cred_01234567890123456789012345",
		testUser.ID,
		models.ProviderGitHub,
		"gho_test_token",
		[]string{"repo"},
	)
)

type handlerMocks struct {
	usersService        *users.MockUsersService
	credentialsService  *credentials.MockCredentialsService
	repositoriesService *repositories.MockRepositoriesService
	rulesService        *rules.MockRulesService
}

func setupHandler() (*DashboardHTTPHandler, handlerMocks) {
	mocks := handlerMocks{
		usersService:        new(users.MockUsersService),
		credentialsService:  new(credentials.MockCredentialsService),
		repositoriesService: new(repositories.MockRepositoriesService),
		rulesService:        new(rules.MockRulesService),
	}
	apiHandler := NewDashboardAPIHandler(
		mocks.usersService,
		mocks.credentialsService,
		mocks.repositoriesService,
		mocks.rulesService,
	)
	return NewDashboardHTTPHandler(apiHandler), mocks
}

func authedRequest(method, target string, body []byte) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(appctx.SetUser(req.Context(), testUser))
}

func TestHandleConnectGitHub(t *testing.T) {
	t.Run("connects and returns credential", func(t *testing.T) {
		handler, mocks := setupHandler()
		mocks.credentialsService.On("ConnectWithAuthCode", mock.Anything, testUser.ID, models.ProviderGitHub, "oauth_code").
			Return(testCredential, nil)

		body, _ := json.Marshal(GitHubConnectRequest{Code: "oauth_code"})
		rec := httptest.NewRecorder()
		handler.HandleConnectGitHub(rec, authedRequest(http.MethodPost, "/github/connection", body))

		assert.Equal(t, http.StatusCreated, rec.Code)
		var credential models.CredentialRecord
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&credential))
		assert.Equal(t, testCredential.ID, credential.ID)
	})

	t.Run("missing code is rejected", func(t *testing.T) {
		handler, _ := setupHandler()
		body, _ := json.Marshal(GitHubConnectRequest{})
		rec := httptest.NewRecorder()
		handler.HandleConnectGitHub(rec, authedRequest(http.MethodPost, "/github/connection", body))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unauthenticated request is rejected", func(t *testing.T) {
		handler, _ := setupHandler()
		body, _ := json.Marshal(GitHubConnectRequest{Code: "oauth_code"})
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/github/connection", bytes.NewReader(body))
		handler.HandleConnectGitHub(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHandleGetGitHubConnection(t *testing.T) {
	t.Run("no credential yields 404", func(t *testing.T) {
		handler, mocks := setupHandler()
		mocks.credentialsService.On("GetCredential", mock.Anything, testUser.ID, models.ProviderGitHub).
			Return(mo.None[*models.CredentialRecord](), nil)

		rec := httptest.NewRecorder()
		handler.HandleGetGitHubConnection(rec, authedRequest(http.MethodGet, "/github/connection", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleMigrateGitHubToInstallation(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"issuer not configured yields 503", core.ErrIssuerNotConfigured, http.StatusServiceUnavailable},
		{"app not installed yields 409", core.ErrAppNotInstalled, http.StatusConflict},
		{"no credential yields 404", core.ErrCredentialNotFound, http.StatusNotFound},
		{"provider down yields 502", core.ErrProviderUnavailable, http.StatusBadGateway},
		{"revoked token yields 401", core.ErrTokenExpiredOrRevoked, http.StatusUnauthorized},
		{"unexpected error yields 500", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler, mocks := setupHandler()
			mocks.credentialsService.On("MigrateToInstallation", mock.Anything, testUser.ID, models.ProviderGitHub).
				Return(nil, tc.err)

			rec := httptest.NewRecorder()
			handler.HandleMigrateGitHubToInstallation(rec, authedRequest(http.MethodPost, "/github/connection/migrate", nil))

			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}

	t.Run("successful migration returns credential", func(t *testing.T) {
		handler, mocks := setupHandler()
		migrated := models.NewInstallationCredential(
			"cred_01234567890123456789012345", testUser.ID, models.ProviderGitHub,
			"ghs_token", "12345", time.Now().Add(time.Hour))
		mocks.credentialsService.On("MigrateToInstallation", mock.Anything, testUser.ID, models.ProviderGitHub).
			Return(migrated, nil)

		rec := httptest.NewRecorder()
		handler.HandleMigrateGitHubToInstallation(rec, authedRequest(http.MethodPost, "/github/connection/migrate", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var credential models.CredentialRecord
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&credential))
		assert.Equal(t, models.AuthKindInstallation, credential.AuthKind)
	})
}

func TestHandleRateLimitedError(t *testing.T) {
	handler, mocks := setupHandler()
	mocks.repositoriesService.On("ListAvailableRepositories", mock.Anything, testUser.ID).
		Return(nil, &core.RateLimitedError{RetryAfter: 30 * time.Second})

	rec := httptest.NewRecorder()
	handler.HandleListAvailableRepositories(rec, authedRequest(http.MethodGet, "/github/repositories", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
}

func TestHandleConnectRepository(t *testing.T) {
	handler, mocks := setupHandler()
	link := &models.RepositoryLink{
		ID:            "repo_01234567890123456789012345",
		OrgID:         testUser.OrgID,
		CredentialID:  testCredential.ID,
		FullName:      "acme/widgets",
		DefaultBranch: "main",
	}
	mocks.repositoriesService.On("ConnectRepository", mock.Anything, testUser.OrgID, testUser.ID, "acme/widgets").
		Return(link, nil)

	body, _ := json.Marshal(ConnectRepositoryRequest{FullName: "acme/widgets"})
	rec := httptest.NewRecorder()
	handler.HandleConnectRepository(rec, authedRequest(http.MethodPost, "/repositories", body))

	assert.Equal(t, http.StatusCreated, rec.Code)
	var result models.RepositoryLink
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, "main", result.DefaultBranch)
}

func TestHandleGetRepositoryFileTree(t *testing.T) {
	handler, mocks := setupHandler()
	nodes := []*models.TreeNode{
		{Name: "src", Path: "src", Kind: models.TreeEntryKindDirectory},
		{Name: "README.md", Path: "README.md", Kind: models.TreeEntryKindFile},
	}
	mocks.repositoriesService.On("GetFileTree", mock.Anything, testUser.OrgID, testUser.ID, "repo_1").
		Return(nodes, nil)

	router := mux.NewRouter()
	router.HandleFunc("/repositories/{id}/tree", handler.HandleGetRepositoryFileTree).Methods("GET")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/repositories/repo_1/tree", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var result []*models.TreeNode
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	require.Len(t, result, 2)
	assert.Equal(t, "src", result[0].Name)
}

func TestHandleGetRepositoryFileContent(t *testing.T) {
	t.Run("returns content for path", func(t *testing.T) {
		handler, mocks := setupHandler()
		mocks.repositoriesService.On("GetFileContent", mock.Anything, testUser.OrgID, testUser.ID, "repo_1", "docs/guide.md").
			Return("# Guide\n", nil)

		router := mux.NewRouter()
		router.HandleFunc("/repositories/{id}/content", handler.HandleGetRepositoryFileContent).Methods("GET")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodGet, "/repositories/repo_1/content?path=docs%2Fguide.md", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var result FileContentResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
		assert.Equal(t, "# Guide\n", result.Content)
	})

	t.Run("missing path is rejected", func(t *testing.T) {
		handler, _ := setupHandler()
		router := mux.NewRouter()
		router.HandleFunc("/repositories/{id}/content", handler.HandleGetRepositoryFileContent).Methods("GET")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodGet, "/repositories/repo_1/content", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleCreateRule(t *testing.T) {
	handler, mocks := setupHandler()
	rule := &models.Rule{
		ID:           "rule_01234567890123456789012345",
		OrgID:        testUser.OrgID,
		RepositoryID: "repo_1",
		Type:         models.RuleTypeProject,
		FileNameStem: "style",
		Content:      "Always use tabs",
		IsActive:     true,
	}
	mocks.rulesService.On("CreateRule",
		mock.Anything, testUser.OrgID, "repo_1", models.RuleTypeProject, "style", "Always use tabs").
		Return(rule, nil)

	body, _ := json.Marshal(CreateRuleRequest{
		RepositoryID: "repo_1",
		Type:         string(models.RuleTypeProject),
		FileNameStem: "style",
		Content:      "Always use tabs",
	})
	rec := httptest.NewRecorder()
	handler.HandleCreateRule(rec, authedRequest(http.MethodPost, "/rules", body))

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestHandleDeleteRule(t *testing.T) {
	handler, mocks := setupHandler()
	mocks.rulesService.On("DeleteRule", mock.Anything, testUser.OrgID, "rule_1").Return(nil)

	router := mux.NewRouter()
	router.HandleFunc("/rules/{id}", handler.HandleDeleteRule).Methods("DELETE")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodDelete, "/rules/rule_1", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"rulesync/appctx"
	"rulesync/core"
	"rulesync/middleware"
	"rulesync/models"
)

type DashboardHTTPHandler struct {
	handler *DashboardAPIHandler
}

func NewDashboardHTTPHandler(handler *DashboardAPIHandler) *DashboardHTTPHandler {
	return &DashboardHTTPHandler{
		handler: handler,
	}
}

type GitHubConnectRequest struct {
	Code string `json:"code"`
}

type ConnectRepositoryRequest struct {
	FullName string `json:"full_name"`
}

type CreateRuleRequest struct {
	RepositoryID string `json:"repository_id"`
	Type         string `json:"type"`
	FileNameStem string `json:"file_name_stem"`
	Content      string `json:"content"`
}

type UpdateRuleRequest struct {
	Content  string `json:"content"`
	IsActive bool   `json:"is_active"`
}

type FileContentResponse struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (h *DashboardHTTPHandler) HandleUserAuthenticate(w http.ResponseWriter, r *http.Request) {
	log.Printf("🔐 User authentication request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	log.Printf("✅ User data retrieved from context: %s", user.ID)
	h.writeJSONResponse(w, http.StatusOK, user)
}

func (h *DashboardHTTPHandler) HandleConnectGitHub(w http.ResponseWriter, r *http.Request) {
	log.Printf("🔐 Connect GitHub request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req GitHubConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Failed to parse request body: %v", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Code == "" {
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}

	credential, err := h.handler.ConnectGitHub(r.Context(), user, req.Code)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusCreated, credential)
}

func (h *DashboardHTTPHandler) HandleGetGitHubConnection(w http.ResponseWriter, r *http.Request) {
	user, ok := appctx.GetUser(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	credential, err := h.handler.GetGitHubConnection(r.Context(), user)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if credential == nil {
		http.Error(w, "github not connected", http.StatusNotFound)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, credential)
}

func (h *DashboardHTTPHandler) HandleMigrateGitHubToInstallation(w http.ResponseWriter, r *http.Request) {
	log.Printf("🔐 Migrate GitHub connection request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	credential, err := h.handler.MigrateGitHubToInstallation(r.Context(), user)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, credential)
}

func (h *DashboardHTTPHandler) HandleDisconnectGitHub(w http.ResponseWriter, r *http.Request) {
	log.Printf("🗑️ Disconnect GitHub request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	if err := h.handler.DisconnectGitHub(r.Context(), user); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *DashboardHTTPHandler) HandleListAvailableRepositories(w http.ResponseWriter, r *http.Request) {
	user, ok := appctx.GetUser(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	repos, err := h.handler.ListAvailableRepositories(r.Context(), user)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, repos)
}

func (h *DashboardHTTPHandler) HandleConnectRepository(w http.ResponseWriter, r *http.Request) {
	log.Printf("➕ Connect repository request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req ConnectRepositoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Failed to parse request body: %v", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.FullName == "" {
		http.Error(w, "full_name is required", http.StatusBadRequest)
		return
	}

	link, err := h.handler.ConnectRepository(r.Context(), user, req.FullName)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusCreated, link)
}

func (h *DashboardHTTPHandler) HandleListConnectedRepositories(w http.ResponseWriter, r *http.Request) {
	user, ok := appctx.GetUser(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	links, err := h.handler.ListConnectedRepositories(r.Context(), user)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, links)
}

func (h *DashboardHTTPHandler) HandleGetRepositoryFileTree(w http.ResponseWriter, r *http.Request) {
	user, ok := appctx.GetUser(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	repositoryID := mux.Vars(r)["id"]
	nodes, err := h.handler.GetRepositoryFileTree(r.Context(), user, repositoryID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, nodes)
}

func (h *DashboardHTTPHandler) HandleGetRepositoryFileContent(w http.ResponseWriter, r *http.Request) {
	user, ok := appctx.GetUser(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	repositoryID := mux.Vars(r)["id"]
	path := r.URL.Query().Get("path")
	if path == "" {
		http.Error(w, "path query parameter is required", http.StatusBadRequest)
		return
	}

	content, err := h.handler.GetRepositoryFileContent(r.Context(), user, repositoryID, path)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, FileContentResponse{Path: path, Content: content})
}

func (h *DashboardHTTPHandler) HandleDisconnectRepository(w http.ResponseWriter, r *http.Request) {
	log.Printf("🗑️ Disconnect repository request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	repositoryID := mux.Vars(r)["id"]
	if err := h.handler.DisconnectRepository(r.Context(), user, repositoryID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *DashboardHTTPHandler) HandleCreateRule(w http.ResponseWriter, r *http.Request) {
	log.Printf("➕ Create rule request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Failed to parse request body: %v", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	rule, err := h.handler.CreateRule(
		r.Context(), user, req.RepositoryID, models.RuleType(req.Type), req.FileNameStem, req.Content)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusCreated, rule)
}

func (h *DashboardHTTPHandler) HandleListRules(w http.ResponseWriter, r *http.Request) {
	user, ok := appctx.GetUser(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	repositoryID := mux.Vars(r)["id"]
	rules, err := h.handler.ListRules(r.Context(), user, repositoryID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, rules)
}

func (h *DashboardHTTPHandler) HandleUpdateRule(w http.ResponseWriter, r *http.Request) {
	log.Printf("📋 Update rule request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req UpdateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Failed to parse request body: %v", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ruleID := mux.Vars(r)["id"]
	rule, err := h.handler.UpdateRule(r.Context(), user, ruleID, req.Content, req.IsActive)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, rule)
}

func (h *DashboardHTTPHandler) HandleDeleteRule(w http.ResponseWriter, r *http.Request) {
	log.Printf("🗑️ Delete rule request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	ruleID := mux.Vars(r)["id"]
	if err := h.handler.DeleteRule(r.Context(), user, ruleID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *DashboardHTTPHandler) HandleGetRuleTree(w http.ResponseWriter, r *http.Request) {
	user, ok := appctx.GetUser(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	repositoryID := mux.Vars(r)["id"]
	nodes, err := h.handler.GetRuleTree(r.Context(), user, repositoryID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, nodes)
}

func (h *DashboardHTTPHandler) SetupEndpoints(router *mux.Router, authMiddleware *middleware.ClerkAuthMiddleware) {
	log.Printf("🚀 Registering dashboard API endpoints")

	router.HandleFunc("/users/authenticate", authMiddleware.WithAuth(h.HandleUserAuthenticate)).Methods("POST")
	log.Printf("✅ POST /users/authenticate endpoint registered")

	router.HandleFunc("/github/connection", authMiddleware.WithAuth(h.HandleConnectGitHub)).Methods("POST")
	log.Printf("✅ POST /github/connection endpoint registered")

	router.HandleFunc("/github/connection", authMiddleware.WithAuth(h.HandleGetGitHubConnection)).Methods("GET")
	log.Printf("✅ GET /github/connection endpoint registered")

	router.HandleFunc("/github/connection/migrate", authMiddleware.WithAuth(h.HandleMigrateGitHubToInstallation)).
		Methods("POST")
	log.Printf("✅ POST /github/connection/migrate endpoint registered")

	router.HandleFunc("/github/connection", authMiddleware.WithAuth(h.HandleDisconnectGitHub)).Methods("DELETE")
	log.Printf("✅ DELETE /github/connection endpoint registered")

	router.HandleFunc("/github/repositories", authMiddleware.WithAuth(h.HandleListAvailableRepositories)).
		Methods("GET")
	log.Printf("✅ GET /github/repositories endpoint registered")

	router.HandleFunc("/repositories", authMiddleware.WithAuth(h.HandleConnectRepository)).Methods("POST")
	log.Printf("✅ POST /repositories endpoint registered")

	router.HandleFunc("/repositories", authMiddleware.WithAuth(h.HandleListConnectedRepositories)).Methods("GET")
	log.Printf("✅ GET /repositories endpoint registered")

	router.HandleFunc("/repositories/{id}/tree", authMiddleware.WithAuth(h.HandleGetRepositoryFileTree)).
		Methods("GET")
	log.Printf("✅ GET /repositories/{id}/tree endpoint registered")

	router.HandleFunc("/repositories/{id}/content", authMiddleware.WithAuth(h.HandleGetRepositoryFileContent)).
		Methods("GET")
	log.Printf("✅ GET /repositories/{id}/content endpoint registered")

	router.HandleFunc("/repositories/{id}", authMiddleware.WithAuth(h.HandleDisconnectRepository)).
		Methods("DELETE")
	log.Printf("✅ DELETE /repositories/{id} endpoint registered")

	router.HandleFunc("/repositories/{id}/rules", authMiddleware.WithAuth(h.HandleListRules)).Methods("GET")
	log.Printf("✅ GET /repositories/{id}/rules endpoint registered")

	router.HandleFunc("/repositories/{id}/ruletree", authMiddleware.WithAuth(h.HandleGetRuleTree)).Methods("GET")
	log.Printf("✅ GET /repositories/{id}/ruletree endpoint registered")

	router.HandleFunc("/rules", authMiddleware.WithAuth(h.HandleCreateRule)).Methods("POST")
	log.Printf("✅ POST /rules endpoint registered")

	router.HandleFunc("/rules/{id}", authMiddleware.WithAuth(h.HandleUpdateRule)).Methods("PUT")
	log.Printf("✅ PUT /rules/{id} endpoint registered")

	router.HandleFunc("/rules/{id}", authMiddleware.WithAuth(h.HandleDeleteRule)).Methods("DELETE")
	log.Printf("✅ DELETE /rules/{id} endpoint registered")

	log.Printf("✅ All dashboard API endpoints registered successfully")
}

// writeServiceError maps domain error kinds onto HTTP status codes
func (h *DashboardHTTPHandler) writeServiceError(w http.ResponseWriter, err error) {
	var rateLimited *core.RateLimitedError
	switch {
	case errors.Is(err, core.ErrCredentialNotFound):
		http.Error(w, "no credential for provider", http.StatusNotFound)
	case errors.Is(err, core.ErrTokenExpiredOrRevoked):
		http.Error(w, "provider token expired or revoked", http.StatusUnauthorized)
	case errors.As(err, &rateLimited):
		if rateLimited.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(rateLimited.RetryAfter.Seconds())))
		}
		http.Error(w, "provider rate limit exhausted", http.StatusTooManyRequests)
	case errors.Is(err, core.ErrProviderUnavailable):
		http.Error(w, "provider unavailable", http.StatusBadGateway)
	case errors.Is(err, core.ErrIssuerNotConfigured):
		http.Error(w, "app auth is not configured", http.StatusServiceUnavailable)
	case errors.Is(err, core.ErrAppNotInstalled):
		http.Error(w, "app is not installed for this account", http.StatusConflict)
	case errors.Is(err, core.ErrNotFound) || core.IsNotFoundError(err):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h *DashboardHTTPHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("❌ Failed to encode JSON response: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

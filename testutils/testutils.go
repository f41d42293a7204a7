package testutils

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"rulesync/appctx"
	"rulesync/config"
	"rulesync/core"
	"rulesync/models"
)

// LoadTestConfig loads configuration for tests from environment variables
func LoadTestConfig() (*config.AppConfig, error) {
	// Try to load environment variables from various possible locations
	_ = godotenv.Load("../.env.test") // From services/ directory
	_ = godotenv.Load(".env.test")    // From root directory
	_ = godotenv.Load()               // Default .env file

	databaseURL := os.Getenv("DB_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DB_URL is not set")
	}

	databaseSchema := os.Getenv("DB_SCHEMA")
	if databaseSchema == "" {
		return nil, fmt.Errorf("DB_SCHEMA is not set")
	}

	return &config.AppConfig{
		DatabaseURL:    databaseURL,
		DatabaseSchema: databaseSchema,
	}, nil
}

// NewTestUser builds a user with unique identifiers to avoid constraint violations
func NewTestUser() *models.User {
	return &models.User{
		ID:             core.NewID("u"),
		AuthProvider:   "test",
		AuthProviderID: uuid.New().String(),
		Email:          "test-" + uuid.New().String() + "@example.com",
		OrgID:          models.OrgID(core.NewID("org")),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
}

// NewTestDelegatedCredential builds a delegated credential for the user
func NewTestDelegatedCredential(userID string) *models.CredentialRecord {
	return models.NewDelegatedCredential(
		core.NewID("cred"),
		userID,
		models.ProviderGitHub,
		"gho_test_"+uuid.New().String(),
		[]string{"repo", "read:user"},
	)
}

// CreateTestContext creates a context with the given user set for testing
func CreateTestContext(user *models.User) context.Context {
	ctx := context.Background()
	return appctx.SetUser(ctx, user)
}

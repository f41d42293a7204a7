package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

type GitHubConfig struct {
	ClientID      string
	ClientSecret  string
	AppID         string
	AppPrivateKey string
}

// IsConfigured returns true if the OAuth credentials needed for delegated
// auth are present
func (c GitHubConfig) IsConfigured() bool {
	return c.ClientID != "" &&
		c.ClientSecret != ""
	// Note: AppID and AppPrivateKey are optional; without them only
	// delegated auth is available and migration to installation auth
	// is rejected.
}

// IsAppAuthConfigured returns true if the GitHub App credentials needed
// for installation tokens are also present
func (c GitHubConfig) IsAppAuthConfigured() bool {
	return c.AppID != "" && c.AppPrivateKey != ""
}

type ClerkConfig struct {
	SecretKey string
}

// IsConfigured returns true if all required Clerk configuration is present
func (c ClerkConfig) IsConfigured() bool {
	return c.SecretKey != ""
}

type AppConfig struct {
	// Core configuration (always required)
	DatabaseURL        string
	DatabaseSchema     string
	Port               string // Optional with default "8080"
	CORSAllowedOrigins string // Optional with default "*"
	Environment        string
	ServerLogsURL      string
	AlertWebhookURL    string
	UseStrictConfig    bool // If true, error when any integration is not fully configured

	// Integration configurations (grouped)
	GitHubConfig GitHubConfig
	ClerkConfig  ClerkConfig
}

func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️ Could not load .env file, continuing with system env vars")
	}

	// Core required configuration
	databaseURL, err := getEnvRequired("DB_URL")
	if err != nil {
		return nil, err
	}

	databaseSchema, err := getEnvRequired("DB_SCHEMA")
	if err != nil {
		return nil, err
	}

	config := &AppConfig{
		// Core configuration
		DatabaseURL:        databaseURL,
		DatabaseSchema:     databaseSchema,
		Port:               getEnvWithDefault("PORT", "8080"),
		CORSAllowedOrigins: getEnvWithDefault("CORS_ALLOWED_ORIGINS", "*"),
		Environment:        getEnvWithDefault("ENVIRONMENT", "dev"),
		ServerLogsURL:      getEnvWithDefault("SERVER_LOGS_URL", ""),
		AlertWebhookURL:    os.Getenv("ALERT_WEBHOOK_URL"),
		UseStrictConfig:    getEnvWithDefault("USE_STRICT_CONFIG", "true") == "true",

		// GitHub configuration (OAuth required in strict mode, app auth optional)
		GitHubConfig: GitHubConfig{
			ClientID:      os.Getenv("GITHUB_CLIENT_ID"),
			ClientSecret:  os.Getenv("GITHUB_CLIENT_SECRET"),
			AppID:         os.Getenv("GITHUB_APP_ID"),
			AppPrivateKey: os.Getenv("GITHUB_APP_PRIVATE_KEY"),
		},

		// Clerk configuration (optional)
		ClerkConfig: ClerkConfig{
			SecretKey: os.Getenv("CLERK_SECRET_KEY"),
		},
	}

	// Log which integrations are configured
	if config.GitHubConfig.IsConfigured() {
		log.Printf("✅ GitHub OAuth configured")
	} else {
		log.Printf("⚠️ GitHub OAuth not configured - provider connections will be disabled")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("GitHub OAuth is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	if config.GitHubConfig.IsAppAuthConfigured() {
		log.Printf("✅ GitHub App auth configured - installation tokens available")
	} else {
		log.Printf("⚠️ GitHub App auth not configured - running in delegated-only mode")
	}

	if config.ClerkConfig.IsConfigured() {
		log.Printf("✅ Clerk authentication configured")
	} else {
		log.Printf("⚠️ Clerk authentication not configured - Dashboard authentication will be disabled")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("clerk authentication is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	return config, nil
}

func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set", key)
	}
	return value, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

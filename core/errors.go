package core

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrNotFound is a sentinel error for "not found" cases
var ErrNotFound = errors.New("not found")

// Error kinds surfaced by the source-hosting integration layer. Callers
// match on these with errors.Is to decide whether an operation is
// retryable or needs user action.
var (
	// ErrCredentialNotFound means no credential record exists for the
	// (user, provider) pair; the user must connect their account first.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrTokenExpiredOrRevoked means the provider rejected a stored token
	// that we believed to be valid; the user must re-authorize.
	ErrTokenExpiredOrRevoked = errors.New("token expired or revoked")

	// ErrProviderUnavailable covers network failures and non-auth 5xx
	// responses from the provider; retryable with backoff.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrIssuerNotConfigured means GitHub App credentials are absent;
	// installation-token flows are unavailable but delegated flows still work.
	ErrIssuerNotConfigured = errors.New("app credentials not configured")

	// ErrAppNotInstalled means a migration was requested but no matching
	// app installation exists for the user.
	ErrAppNotInstalled = errors.New("app not installed")
)

// RateLimitedError signals the provider exhausted our quota. RetryAfter
// carries the provider-suggested backoff when one was advertised.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited by provider, retry after %s", e.RetryAfter)
	}
	return "rate limited by provider"
}

// IsRateLimited checks if an error is (or wraps) a RateLimitedError
func IsRateLimited(err error) bool {
	var rateLimited *RateLimitedError
	return errors.As(err, &rateLimited)
}

// RetryAfterHint extracts the suggested backoff from a rate-limit error, if any
func RetryAfterHint(err error) time.Duration {
	var rateLimited *RateLimitedError
	if errors.As(err, &rateLimited) {
		return rateLimited.RetryAfter
	}
	return 0
}

// IsNotFoundError checks if an error is a "not found" error
// This function handles both the ErrNotFound sentinel error and legacy string-based errors
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	// Check for the sentinel error
	if errors.Is(err, ErrNotFound) {
		return true
	}
	// Check for legacy string-based errors for backward compatibility
	return containsNotFound(err.Error())
}

// containsNotFound checks if an error message contains "not found"
func containsNotFound(errMsg string) bool {
	// Use case-insensitive matching for various "not found" formats
	return len(errMsg) > 0 && (regexp.MustCompile(`(?i)not found`).MatchString(errMsg))
}

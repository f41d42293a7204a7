package github

import (
	"crypto/rsa"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// appJWTClient signs and caches the short-lived RS256 JWT GitHub requires
// for app-level endpoints. GitHub caps the JWT lifetime at 10 minutes; a
// cached token is reused until one minute before expiry.
type appJWTClient struct {
	appID      string
	privateKey *rsa.PrivateKey

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

func newAppJWTClient(appID string, privateKeyPEM []byte) (*appJWTClient, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("invalid app private key: %w", err)
	}

	return &appJWTClient{
		appID:      appID,
		privateKey: key,
	}, nil
}

func (c *appJWTClient) getToken() (string, error) {
	c.mu.RLock()
	if c.token != "" && time.Until(c.expiresAt) > time.Minute {
		defer c.mu.RUnlock()
		return c.token, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if c.token != "" && time.Until(c.expiresAt) > time.Minute {
		return c.token, nil
	}

	token, expiresAt, err := c.signJWT()
	if err != nil {
		return "", err
	}

	c.token = token
	c.expiresAt = expiresAt

	return token, nil
}

func (c *appJWTClient) signJWT() (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(10 * time.Minute)

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		// issued-at is backdated 60 seconds to tolerate clock drift
		"iat": jwt.NewNumericDate(now.Add(-60 * time.Second)),
		"exp": jwt.NewNumericDate(expiresAt),
		"iss": c.appID,
	})

	tokenString, err := token.SignedString(c.privateKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign app JWT: %w", err)
	}

	return tokenString, expiresAt, nil
}

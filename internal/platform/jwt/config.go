// Package jwtmw provides bearer token issuance, verification and the gin
// middleware that guards protected routes.
package jwtmw

import (
	"errors"
	"os"
)

// EnvKeyJWTSecret is the environment variable holding the signing secret.
const EnvKeyJWTSecret = "JWT_SECRET"

// LoadSecretFromEnv reads the signing secret once at startup.
// The secret is then passed to NewIssuer instead of being read per request.
func LoadSecretFromEnv() (string, error) {
	secret := os.Getenv(EnvKeyJWTSecret)
	if secret == "" {
		return "", errors.New(EnvKeyJWTSecret + " is not set")
	}
	return secret, nil
}

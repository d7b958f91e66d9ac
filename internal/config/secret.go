package config

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const developmentSecretSeed = "atlas-local-development-secret"

// ResolveSessionSecret returns the signing secret and whether it was derived
// rather than configured. A derived secret is stable for a deployment: it is
// hashed from the first deployment identifier present, or from a fixed seed.
func ResolveSessionSecret(configured string, getenv func(string) string) (string, bool) {
	if s := strings.TrimSpace(configured); s != "" {
		return s, false
	}

	seed := developmentSecretSeed
	for _, name := range []string{"DEPLOYMENT_ID", "DEPLOYMENT_URL", "PUBLIC_URL"} {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			seed = v
			break
		}
	}

	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:]), true
}

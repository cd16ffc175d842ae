// Package cache implements the two-tier response cache: an in-process
// memory map fronting a persistent document store. Entries are keyed by
// (agent, software, version) and expire after models.DefaultCacheTTL.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Key derives the deterministic cache key for an (agent, software, version)
// triple: the first 16 hex characters of a SHA-256 digest. Software is
// matched case-insensitively; an absent version maps to "any". The agent
// name namespaces the key, so truncation collisions across agents are not
// a concern.
func Key(agent, software, version string) string {
	if version == "" {
		version = "any"
	}
	raw := fmt.Sprintf("%s_%s_%s", agent, strings.ToLower(strings.TrimSpace(software)), version)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])[:16]
}

package config

import "time"

// mergeRetentionTTLs merges the built-in per-collection retention defaults
// with user-defined overrides: the same built-in-base/user-overrides-win
// shape the teacher's mergeAgents/mergeMCPServers/mergeChains use, applied
// here to per-collection TTLs instead of named registries.
func mergeRetentionTTLs(builtin, user map[string]time.Duration) map[string]time.Duration {
	result := make(map[string]time.Duration, len(builtin)+len(user))
	for collection, ttl := range builtin {
		result[collection] = ttl
	}
	for collection, ttl := range user {
		result[collection] = ttl
	}
	return result
}

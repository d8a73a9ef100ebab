package env

import "os"

// Get reads key from the environment, returning fallback when unset or empty.
// Empty values count as unset so a blank export cannot blank out a default.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}

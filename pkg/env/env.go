package env

import "os"

// Get reads an environment variable, returning fallback when it is unset or
// empty. Empty is treated the same as unset so blank compose entries do not
// override defaults.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

package config

import "os"

// GetEnv reads an environment variable, returning "" when unset. Defaults
// for optional settings are handled at the call site.
func GetEnv(key string) string {
	return os.Getenv(key)
}

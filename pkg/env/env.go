package env

import (
	"os"
	"strconv"
	"strings"
)

// Get returns the value of the environment variable or the fallback when
// the variable is unset or empty.
func Get(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

// Bool parses the environment variable as a boolean, returning the fallback
// when the variable is unset or unparsable.
func Bool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

// Package env reads process settings that live outside the typed config,
// such as the platform-assigned port and log format.
package env

import (
	"os"
	"strings"
)

// Get returns the trimmed value of key, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// First returns the first non-blank value among keys, or fallback.
func First(fallback string, keys ...string) string {
	for _, key := range keys {
		if val := Get(key, ""); val != "" {
			return val
		}
	}
	return fallback
}

package env

import (
	"os"
	"strings"
)

// Prefix namespaces process settings that are read outside of pkg/config.
const Prefix = "CASKETTRACK_"

// Get returns CASKETTRACK_<key>, then <key>, then the fallback.
func Get(key, fallback string) string {
	for _, name := range []string{Prefix + key, key} {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return fallback
}

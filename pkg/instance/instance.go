package instance

import (
	"os"

	"github.com/angelmondragon/caskettrack/pkg/env"
)

// GetID returns the process instance identifier: INSTANCE_ID, then the
// platform DYNO name, then the hostname.
func GetID() string {
	if id := env.Get("INSTANCE_ID", ""); id != "" {
		return id
	}
	if id := os.Getenv("DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}

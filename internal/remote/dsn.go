package remote

import (
	"fmt"
	"net/url"
	"strings"
)

const defaultUser = "roastery"

// BuildDSN validates a PostgreSQL endpoint and places the access key in the
// password slot. A key already embedded in the URL is kept when accessKey is empty.
func BuildDSN(endpoint, accessKey string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", fmt.Errorf("remote endpoint is required")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid remote endpoint: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("remote endpoint must use postgres:// or postgresql://, got %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("remote endpoint is missing a host")
	}
	if accessKey = strings.TrimSpace(accessKey); accessKey != "" {
		user := defaultUser
		if u.User != nil && u.User.Username() != "" {
			user = u.User.Username()
		}
		u.User = url.UserPassword(user, accessKey)
	}
	return u.String(), nil
}

// Redact hides credentials for logs and status responses.
func Redact(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Redacted()
}

// Package auth resolves API keys to user identities.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthorized is returned for missing or unknown API keys.
var ErrUnauthorized = errors.New("unauthorized")

// Authorizer validates an API key and resolves the owning user.
type Authorizer interface {
	ResolveUser(ctx context.Context, apiKey string) (string, error)
}

// StaticAuthorizer resolves users from a fixed key map, configured as
// comma-separated "key=user" pairs. Suitable for single-node deployments.
type StaticAuthorizer struct {
	keys map[string]string
}

// NewStaticAuthorizer parses a "key=user,key2=user2" spec. Malformed pairs
// are skipped.
func NewStaticAuthorizer(spec string) *StaticAuthorizer {
	keys := make(map[string]string)
	for _, pair := range strings.Split(spec, ",") {
		key, user, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || key == "" || user == "" {
			continue
		}
		keys[key] = user
	}
	return &StaticAuthorizer{keys: keys}
}

func (a *StaticAuthorizer) ResolveUser(_ context.Context, apiKey string) (string, error) {
	if user, ok := a.keys[apiKey]; ok {
		return user, nil
	}
	return "", ErrUnauthorized
}

// BearerToken extracts the bearer token from an Authorization header, or ""
// when absent.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

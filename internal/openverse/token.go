package openverse

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

// tokenTTLBuffer is subtracted from the upstream expires_in so the cached
// token always evaporates strictly before the real token expires.
const tokenTTLBuffer = 60 * time.Second

type cachedToken struct {
	token     string
	expiresAt time.Time
}

// TokenSource obtains and caches a bearer token for the Openverse API using
// the client-credentials grant.
//
// The cache is deliberately lock-free: concurrent callers that observe a
// missing or expired token may each fetch and overwrite it. The refresh is
// idempotent and last-write-wins; correctness relies only on the TTL buffer
// being conservative, not on single-flight behaviour.
type TokenSource struct {
	client       *resty.Client
	clientID     string
	clientSecret string
	cached       atomic.Pointer[cachedToken]
	now          func() time.Time
}

// NewTokenSource creates a token source against the given API base URL.
func NewTokenSource(baseURL, clientID, clientSecret string) *TokenSource {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second)
	return &TokenSource{
		client:       c,
		clientID:     clientID,
		clientSecret: clientSecret,
		now:          time.Now,
	}
}

// Token returns the cached bearer token, fetching a fresh one when the cache
// entry is missing or past its buffered expiry.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	if c := ts.cached.Load(); c != nil && ts.now().Before(c.expiresAt) {
		return c.token, nil
	}
	return ts.fetch(ctx)
}

func (ts *TokenSource) fetch(ctx context.Context) (string, error) {
	resp, err := ts.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "client_credentials",
			"client_id":     ts.clientID,
			"client_secret": ts.clientSecret,
		}).
		Post("auth_tokens/token/")
	if err != nil {
		return "", fmt.Errorf("openverse token request: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", &AuthError{Status: resp.StatusCode(), Body: resp.String()}
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", fmt.Errorf("openverse token decode: %w", err)
	}

	ts.cached.Store(&cachedToken{
		token:     body.AccessToken,
		expiresAt: ts.now().Add(time.Duration(body.ExpiresIn)*time.Second - tokenTTLBuffer),
	})
	return body.AccessToken, nil
}

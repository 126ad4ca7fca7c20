package openverse

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// tokenServer serves the client-credentials endpoint and counts grants.
func tokenServer(t *testing.T, expiresIn int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var grants atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth_tokens/token/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.PostForm.Get("client_id"); got != "cid" {
			t.Errorf("client_id = %q", got)
		}
		n := grants.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": tokenName(n),
			"expires_in":   expiresIn,
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &grants
}

func tokenName(n int32) string {
	return "tok-" + string(rune('0'+n))
}

func TestTokenSource_CachesWithinBufferedLifetime(t *testing.T) {
	srv, grants := tokenServer(t, 120)

	ts := NewTokenSource(srv.URL, "cid", "secret")
	base := time.Now()
	current := base
	ts.now = func() time.Time { return current }

	tok, err := ts.Token(context.Background())
	if err != nil {
		t.Fatalf("first token: %v", err)
	}
	if tok != "tok-1" {
		t.Fatalf("token = %q, want tok-1", tok)
	}

	// A 120s grant minus the 60s buffer leaves 60s of effective lifetime.
	current = base.Add(59 * time.Second)
	if tok, err = ts.Token(context.Background()); err != nil || tok != "tok-1" {
		t.Fatalf("cached token = %q, %v", tok, err)
	}
	if got := grants.Load(); got != 1 {
		t.Fatalf("grants after cached read = %d, want 1", got)
	}

	current = base.Add(60 * time.Second)
	if tok, err = ts.Token(context.Background()); err != nil || tok != "tok-2" {
		t.Fatalf("refreshed token = %q, %v", tok, err)
	}
	if got := grants.Load(); got != 2 {
		t.Fatalf("grants after expiry = %d, want 2", got)
	}
}

func TestTokenSource_GrantRejectionIsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	ts := NewTokenSource(srv.URL, "cid", "wrong")
	_, err := ts.Token(context.Background())

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want *AuthError", err)
	}
	if authErr.Status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", authErr.Status)
	}
}

package openverse

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client issues authenticated calls against Openverse collection endpoints.
// It does not retry and does not cache responses; result caching belongs to
// the store synchronisation path.
type Client struct {
	http   *resty.Client
	tokens *TokenSource
}

// NewClient creates a client for the given API base URL and credentials.
func NewClient(baseURL, clientID, clientSecret string) *Client {
	h := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second)
	return &Client{
		http:   h,
		tokens: NewTokenSource(baseURL, clientID, clientSecret),
	}
}

// Query performs an authenticated GET against the named endpoint, e.g.
// "images" or "audio/<id>", and returns the raw JSON body.
func (c *Client) Query(ctx context.Context, endpoint string, params map[string]string) (json.RawMessage, error) {
	return c.Do(ctx, "GET", endpoint, params, nil)
}

// Do performs an authenticated call with an arbitrary method and optional
// JSON body. A non-success status is returned as a *QueryError.
func (c *Client) Do(ctx context.Context, method, endpoint string, params map[string]string, body any) (json.RawMessage, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(params)
	if body != nil {
		req.SetBody(body)
	}

	url := strings.TrimLeft(endpoint, "/") + "/"
	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, fmt.Errorf("openverse %s %s: %w", method, url, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, &QueryError{Status: resp.StatusCode(), Body: resp.String()}
	}
	return json.RawMessage(resp.Body()), nil
}

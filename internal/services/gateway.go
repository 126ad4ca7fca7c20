package services

import (
	"context"
	"encoding/json"
)

// Gateway issues one authenticated query against a named upstream endpoint,
// e.g. "images" or "audio/<id>". Implemented by openverse.Client.
type Gateway interface {
	Query(ctx context.Context, endpoint string, params map[string]string) (json.RawMessage, error)
}

package openverse

import "fmt"

// AuthError reports a non-success response from the token endpoint.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("openverse auth: status %d: %s", e.Status, e.Body)
}

// QueryError reports a non-success response from a collection endpoint.
type QueryError struct {
	Status int
	Body   string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("openverse query: status %d: %s", e.Status, e.Body)
}

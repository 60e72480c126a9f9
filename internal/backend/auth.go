package backend

import (
	"context"
)

// TokenProvider supplies a bearer credential to attach to outbound
// requests. A request carries zero or one token; returning an empty string
// sends the request unauthenticated. Acquisition and refresh mechanics
// belong to the identity provider, not to this package.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenProvider that always returns the same credential.
type StaticToken string

// Token returns the static credential.
func (s StaticToken) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

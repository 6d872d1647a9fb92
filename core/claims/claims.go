package claims

import (
	"context"
	"errors"
)

const (
	SourceSession = "session"
	SourceTest    = "test"
)

// Claims identifies the caller of a gated route.
type Claims struct {
	UserID string
	Email  string
	Source string
}

type ctxKey int

const claimsKey ctxKey = 1

func Set(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func Get(ctx context.Context) (Claims, error) {
	v, ok := ctx.Value(claimsKey).(Claims)
	if !ok {
		return Claims{}, errors.New("claim value missing from context")
	}
	return v, nil
}

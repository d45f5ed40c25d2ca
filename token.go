package resilient

import "context"

// TokenSource supplies the access token attached to each request.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// StaticToken is a fixed access token.
type StaticToken string

func (t StaticToken) AccessToken(context.Context) (string, error) { return string(t), nil }

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) AccessToken(ctx context.Context) (string, error) { return f(ctx) }

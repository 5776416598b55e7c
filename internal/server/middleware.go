package server

import (
	"context"
	"crypto/subtle"
	"net/http"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
)

const apiKeyHeader = "X-API-Key"

// ApiSecretMiddleware returns a Kratos middleware that validates the X-API-Key
// HTTP header. An empty secret disables authentication (pass-through).
// Swagger UI and the watch socket are unaffected because they are registered
// on the router directly and bypass the Kratos middleware chain.
func ApiSecretMiddleware(secret string) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req any) (any, error) {
			if secret == "" {
				return handler(ctx, req)
			}

			tr, ok := transport.FromServerContext(ctx)
			if !ok {
				return nil, kerrors.InternalServer("NO_TRANSPORT", "no transport in context")
			}
			if err := checkAPIKey(tr.RequestHeader().Get(apiKeyHeader), secret); err != nil {
				return nil, err
			}
			return handler(ctx, req)
		}
	}
}

// checkAPIKey compares key against secret in constant time.
func checkAPIKey(key, secret string) error {
	if secret == "" {
		return nil
	}
	if key == "" {
		return kerrors.Unauthorized("MISSING_API_KEY", "missing X-API-Key header")
	}
	if subtle.ConstantTimeCompare([]byte(key), []byte(secret)) != 1 {
		return kerrors.Unauthorized("INVALID_API_KEY", "invalid X-API-Key")
	}
	return nil
}

// requestAPIKey reads the key from the header, falling back to the api_key
// query parameter for clients that cannot set headers on a websocket upgrade.
func requestAPIKey(r *http.Request) string {
	if key := r.Header.Get(apiKeyHeader); key != "" {
		return key
	}
	return r.URL.Query().Get("api_key")
}

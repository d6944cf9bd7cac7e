package websocket

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// WithBearerToken signs claims as a short-lived JWT with signingKey and
// attaches it as the handshake request's "Authorization: Bearer <token>"
// header, for deployments that gate their WebSocket upgrade behind a
// bearer token. ttl bounds the token's expiry.
//
// Grounded on the [WithHTTPHeader] option pattern already used for
// custom handshake headers; this just computes the header's value.
func WithBearerToken(claims jwt.MapClaims, signingKey []byte, ttl time.Duration) DialOpt {
	return func(c *dialConfig) {
		token, err := signBearerToken(claims, signingKey, ttl)
		if err != nil {
			// Recorded so NewClient's caller sees a clear failure instead
			// of a silently-unauthenticated handshake.
			c.bearerTokenErr = err
			return
		}
		c.headers.Set("Authorization", "Bearer "+token)
	}
}

func signBearerToken(claims jwt.MapClaims, signingKey []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	merged := jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	for k, v := range claims {
		merged[k] = v
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, merged)
	signed, err := t.SignedString(signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign bearer token: %w", err)
	}
	return signed, nil
}

package httpapi

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

func parseBearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < len("Bearer ") || !strings.EqualFold(h[:len("Bearer ")], "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(h[len("Bearer "):])
	return tok, tok != ""
}

// authJWT returns a middleware that enforces Authorization: Bearer JWT (HS256)
// when secret is set, or nil when auth is disabled. Issuer and audience are
// checked only when configured; exp and nbf are checked when present.
func authJWT(secret, issuer, audience string) func(http.Handler) http.Handler {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if iss := strings.TrimSpace(issuer); iss != "" {
		opts = append(opts, jwt.WithIssuer(iss))
	}
	if aud := strings.TrimSpace(audience); aud != "" {
		opts = append(opts, jwt.WithAudience(aud))
	}
	parser := jwt.NewParser(opts...)
	key := []byte(secret)
	keyFunc := func(*jwt.Token) (any, error) { return key, nil }

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := parseBearerToken(r)
			if !ok {
				writeErr(w, http.StatusUnauthorized, "missing bearer token", "unauthorized")
				return
			}
			if _, err := parser.Parse(tok, keyFunc); err != nil {
				writeErr(w, http.StatusUnauthorized, "invalid token", "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

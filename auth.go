package devnotes

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Gate authorizes admin-surface operations. A credential is the raw
// Authorization header value; it passes when it carries a bearer token
// signed with the configured secret and not yet expired.
type Gate struct {
	secret []byte
	ttl    time.Duration
}

// NewGate creates a Gate issuing tokens valid for ttl.
func NewGate(secret string, ttl time.Duration) *Gate {
	return &Gate{secret: []byte(secret), ttl: ttl}
}

// Token issues a signed bearer token for an authenticated admin.
func (g *Gate) Token() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
}

// TTL returns the token lifetime.
func (g *Gate) TTL() time.Duration { return g.ttl }

// Authorize reports whether the credential is a valid bearer token.
func (g *Gate) Authorize(credential string) bool {
	const prefix = "Bearer "
	if !strings.HasPrefix(credential, prefix) {
		return false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(credential, prefix))
	if raw == "" {
		return false
	}
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		return g.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return err == nil && token.Valid
}

package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// SupabaseClaims is the subset of a Supabase access token the service reads
type SupabaseClaims struct {
	jwt.RegisteredClaims
	Email       string                 `json:"email"`
	Role        string                 `json:"role"`
	AppMetadata map[string]interface{} `json:"app_metadata"`
}

// IsAdmin reports whether the user was granted the admin role in app_metadata.
// app_metadata is only writable with the service key, unlike user_metadata.
func (c *SupabaseClaims) IsAdmin() bool {
	role, _ := c.AppMetadata["role"].(string)
	return role == "admin"
}

// Verifier validates Supabase-issued HS256 tokens
type Verifier struct {
	secret   []byte
	audience string
}

// NewVerifier creates a Verifier. An empty audience disables the aud check.
func NewVerifier(secret, audience string) *Verifier {
	return &Verifier{secret: []byte(secret), audience: audience}
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return "", fmt.Errorf("%w: expected Bearer scheme", ErrInvalidToken)
	}
	return strings.TrimSpace(header[7:]), nil
}

// Parse verifies tokenStr and returns its claims
func (v *Verifier) Parse(tokenStr string) (*SupabaseClaims, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("JWT secret not configured")
	}

	claims := &SupabaseClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// Package auth implements bearer credential issuance and verification.
//
// Tokens are compact HS256 JWTs signed with a server-held secret injected at
// construction time. The package exposes a small Issuer type rather than free
// functions so the secret and token lifetime travel with the configuration
// object instead of ambient process state.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Claims represents the identity contained in a token.
type Claims struct {
	Sub   string `json:"sub"`
	Email string `json:"email,omitempty"`
	Iat   int64  `json:"iat,omitempty"`
	Exp   int64  `json:"exp,omitempty"`
}

// ErrInvalidToken is returned for any token that fails structural checks,
// signature verification, or expiry.
var ErrInvalidToken = errors.New("invalid token")

// Issuer signs and verifies HS256 bearer tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration

	// now is a test seam; defaults to time.Now.
	now func() time.Time
}

// NewIssuer constructs an Issuer. ttl bounds token lifetime; values <= 0
// default to 12 hours, matching the session length of the web client.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign produces a signed token for the given subject and email.
func (i *Issuer) Sign(sub, email string) (string, error) {
	if len(i.secret) == 0 {
		return "", errors.New("jwt secret not configured")
	}
	if sub == "" {
		return "", errors.New("sub is required")
	}

	now := i.now().UTC().Unix()
	claims := Claims{
		Sub:   sub,
		Email: email,
		Iat:   now,
		Exp:   now + int64(i.ttl/time.Second),
	}

	headerJSON, err := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	if err != nil {
		return "", err
	}
	payloadJSON, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	segments := []string{
		base64.RawURLEncoding.EncodeToString(headerJSON),
		base64.RawURLEncoding.EncodeToString(payloadJSON),
	}
	signingInput := strings.Join(segments, ".")
	segments = append(segments, i.sign(signingInput))
	return strings.Join(segments, "."), nil
}

// Verify checks a token's structure, signature, and expiry, returning the
// embedded claims on success and ErrInvalidToken otherwise.
func (i *Issuer) Verify(token string) (Claims, error) {
	var claims Claims
	if len(i.secret) == 0 {
		return claims, errors.New("jwt secret not configured")
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return claims, ErrInvalidToken
	}

	signingInput := parts[0] + "." + parts[1]
	expected := i.sign(signingInput)
	if !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return claims, ErrInvalidToken
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return claims, ErrInvalidToken
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return claims, ErrInvalidToken
	}
	if claims.Sub == "" {
		return claims, ErrInvalidToken
	}
	if claims.Exp != 0 && i.now().UTC().Unix() >= claims.Exp {
		return claims, ErrInvalidToken
	}
	return claims, nil
}

// sign computes the base64url-encoded HMAC-SHA256 of input.
func (i *Issuer) sign(input string) string {
	mac := hmac.New(sha256.New, i.secret)
	mac.Write([]byte(input))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

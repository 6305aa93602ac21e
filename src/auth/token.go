package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	RoleViewer = "viewer"
	RoleAdmin  = "admin"

	tokenDelimiter = "|"
)

// TokenCodec creates and verifies signed, expiring session tokens of the
// form role|expiry|signature.
type TokenCodec struct {
	secret string
}

func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{secret: secret}
}

// Sign computes the HMAC-SHA256 of the payload under the server secret.
func (t *TokenCodec) Sign(payload string) (string, error) {
	if t.secret == "" {
		return "", fmt.Errorf("no session secret configured")
	}
	mac := hmac.New(sha256.New, []byte(t.secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// CreateToken issues a token for the role expiring maxAge from now.
func (t *TokenCodec) CreateToken(role string, maxAge time.Duration) (string, error) {
	if role != RoleViewer && role != RoleAdmin {
		return "", fmt.Errorf("unknown role %q", role)
	}
	expiry := time.Now().Add(maxAge).Unix()
	payload := role + tokenDelimiter + strconv.FormatInt(expiry, 10)
	signature, err := t.Sign(payload)
	if err != nil {
		return "", err
	}
	return payload + tokenDelimiter + signature, nil
}

// VerifyToken checks the token's shape, signature and expiry and returns
// the embedded role.
func (t *TokenCodec) VerifyToken(token string) (string, bool) {
	fields := strings.Split(token, tokenDelimiter)
	if len(fields) != 3 {
		return "", false
	}
	role, rawExpiry, signature := fields[0], fields[1], fields[2]
	if role != RoleViewer && role != RoleAdmin {
		return "", false
	}
	expiry, err := strconv.ParseInt(rawExpiry, 10, 64)
	if err != nil {
		return "", false
	}
	expected, err := t.Sign(role + tokenDelimiter + rawExpiry)
	if err != nil {
		return "", false
	}
	// hmac.Equal rejects length mismatches before the constant-time byte
	// comparison.
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return "", false
	}
	if time.Now().Unix() > expiry {
		return "", false
	}
	return role, true
}

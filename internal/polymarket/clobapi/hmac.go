package clobapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
)

// Creds are the L2 API credentials returned by the auth endpoints.
type Creds struct {
	APIKey     string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

// String returns a redacted representation suitable for logging.
func (c *Creds) String() string {
	redact := func(s string) string {
		if len(s) <= 4 {
			return "****"
		}
		return s[:4] + "****"
	}
	return fmt.Sprintf("Creds{key=%s, secret=%s}", redact(c.APIKey), redact(c.Secret))
}

// l2Headers returns the headers for an HMAC-authenticated request.
func (c *Creds) l2Headers(address string, timestamp int64, method, path, body string) (map[string]string, error) {
	sig, err := hmacSignature(c.Secret, timestamp, method, path, body)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"POLY_ADDRESS":    address,
		"POLY_SIGNATURE":  sig,
		"POLY_TIMESTAMP":  strconv.FormatInt(timestamp, 10),
		"POLY_API_KEY":    c.APIKey,
		"POLY_PASSPHRASE": c.Passphrase,
	}, nil
}

// hmacSignature is base64url(HMAC-SHA256(decoded secret, ts+method+path+body)).
func hmacSignature(secret string, timestamp int64, method, path, body string) (string, error) {
	key, err := base64.URLEncoding.DecodeString(secret)
	if err != nil {
		key, err = base64.StdEncoding.DecodeString(secret)
		if err != nil {
			return "", fmt.Errorf("decode api secret: %w", err)
		}
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(strconv.FormatInt(timestamp, 10) + method + path + body))
	return base64.URLEncoding.EncodeToString(mac.Sum(nil)), nil
}

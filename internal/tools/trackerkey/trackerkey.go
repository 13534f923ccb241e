// Package trackerkey generates identity keys and signs local sign-in tokens
// accepted by the tracker verifier.
package trackerkey

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/louisbranch/maze-tracker/internal/services/tracker/identity"
)

// EnvPrivateKey names the signing key consumed by Mint.
const EnvPrivateKey = "TRACKER_IDENTITY_PRIVATE_KEY"

// Run generates an identity key pair and writes shell exports.
func Run(out io.Writer, reader io.Reader) error {
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}
	publicKey, privateKey, err := ed25519.GenerateKey(reader)
	if err != nil {
		return fmt.Errorf("generate identity key: %w", err)
	}
	if _, err := fmt.Fprintf(out, "export %s=%s\n", EnvPrivateKey, base64.RawStdEncoding.EncodeToString(privateKey)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "export %s=%s\n", identity.EnvPublicKey, base64.RawStdEncoding.EncodeToString(publicKey)); err != nil {
		return err
	}
	return nil
}

// TokenInput describes a sign-in token to mint.
type TokenInput struct {
	PrivateKey string
	Subject    string
	Issuer     string
	Audience   string
	TTL        time.Duration
	Now        time.Time
}

// Mint signs an EdDSA token for input.Subject.
func Mint(input TokenInput) (string, error) {
	key, err := decodePrivateKey(input.PrivateKey)
	if err != nil {
		return "", err
	}
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return "", errors.New("subject is required")
	}
	if input.TTL <= 0 {
		return "", errors.New("ttl must be positive")
	}
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    strings.TrimSpace(input.Issuer),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(input.TTL)),
	}
	if audience := strings.TrimSpace(input.Audience); audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func decodePrivateKey(value string) (ed25519.PrivateKey, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("%s is required", EnvPrivateKey)
	}
	raw, err := base64.RawStdEncoding.DecodeString(value)
	if err != nil {
		raw, err = base64.StdEncoding.DecodeString(value)
	}
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("private key must be %d bytes", ed25519.PrivateKeySize)
	}
	return ed25519.PrivateKey(raw), nil
}

// Package identity verifies bearer tokens issued by the external identity
// provider. The tracker server never issues tokens itself.
package identity

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/louisbranch/maze-tracker/internal/platform/config"
	apperrors "github.com/louisbranch/maze-tracker/internal/platform/errors"
)

const (
	EnvPublicKey = "TRACKER_IDENTITY_PUBLIC_KEY"
	EnvIssuer    = "TRACKER_IDENTITY_ISSUER"
	EnvAudience  = "TRACKER_IDENTITY_AUDIENCE"
	EnvLoginURL  = "TRACKER_IDENTITY_LOGIN_URL"
)

// identityEnv holds raw env values before post-parse validation.
type identityEnv struct {
	PublicKey string `env:"TRACKER_IDENTITY_PUBLIC_KEY"`
	Issuer    string `env:"TRACKER_IDENTITY_ISSUER"`
	Audience  string `env:"TRACKER_IDENTITY_AUDIENCE"`
	LoginURL  string `env:"TRACKER_IDENTITY_LOGIN_URL" envDefault:"/login"`
}

// Config defines how tokens are verified. A nil Key disables verification.
type Config struct {
	Key      ed25519.PublicKey
	Issuer   string
	Audience string
	LoginURL string
	Now      func() time.Time
}

// Claims are the verified token claims the tracker relies on.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// LoadConfigFromEnv reads verifier configuration. An empty public key yields
// a disabled verifier.
func LoadConfigFromEnv(now func() time.Time) (Config, error) {
	var raw identityEnv
	if err := config.ParseEnv(&raw); err != nil {
		return Config{}, fmt.Errorf("parse identity env: %w", err)
	}
	cfg := Config{
		Issuer:   strings.TrimSpace(raw.Issuer),
		Audience: strings.TrimSpace(raw.Audience),
		LoginURL: strings.TrimSpace(raw.LoginURL),
		Now:      now,
	}
	publicKey := strings.TrimSpace(raw.PublicKey)
	if publicKey == "" {
		return cfg, nil
	}
	key, err := DecodePublicKey(publicKey)
	if err != nil {
		return Config{}, err
	}
	cfg.Key = key
	return cfg, nil
}

// DecodePublicKey parses a base64 ed25519 public key.
func DecodePublicKey(value string) (ed25519.PublicKey, error) {
	keyBytes, err := decodeBase64(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("decode identity public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("identity public key must be %d bytes", ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(keyBytes), nil
}

// Verifier checks EdDSA-signed JWTs.
type Verifier struct {
	cfg Config
}

// NewVerifier builds a verifier from cfg.
func NewVerifier(cfg Config) *Verifier {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.LoginURL == "" {
		cfg.LoginURL = "/login"
	}
	return &Verifier{cfg: cfg}
}

// Enabled reports whether tokens are checked at all.
func (v *Verifier) Enabled() bool {
	return v != nil && len(v.cfg.Key) == ed25519.PublicKeySize
}

// RedirectTarget is where unauthenticated callers are sent to sign in.
func (v *Verifier) RedirectTarget() string {
	if v == nil {
		return ""
	}
	return v.cfg.LoginURL
}

// SignedIn reports whether token identifies a signed-in user. Every caller
// is signed in when verification is disabled.
func (v *Verifier) SignedIn(token string) bool {
	if !v.Enabled() {
		return true
	}
	_, err := v.Verify(token)
	return err == nil
}

// Verify validates token and returns its claims.
func (v *Verifier) Verify(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, apperrors.New(apperrors.CodeUnauthenticated, "token is required")
	}
	if !v.Enabled() {
		return Claims{}, errors.New("identity verifier is not configured")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithTimeFunc(v.cfg.Now),
		jwt.WithExpirationRequired(),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}

	var parsed jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return v.cfg.Key, nil
	}, opts...)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}
	if strings.TrimSpace(parsed.Subject) == "" {
		return Claims{}, apperrors.New(apperrors.CodeUnauthenticated, "token subject is required")
	}
	return Claims{Subject: parsed.Subject, ExpiresAt: parsed.ExpiresAt.Time.UTC()}, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "token is expired", err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrEd25519Verification):
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "token signature is invalid", err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "token alg is invalid", err)
	}
	return apperrors.Wrap(apperrors.CodeUnauthenticated, "token is invalid", err)
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}

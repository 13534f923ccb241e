package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/maze-tracker/internal/platform/errors"
)

var testNow = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

func generateKey(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return pub, priv
}

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub": "user-1",
		"iss": "identity",
		"aud": "tracker",
		"exp": testNow.Add(time.Hour).Unix(),
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv(EnvPublicKey, "")
	t.Setenv(EnvLoginURL, "")

	cfg, err := LoadConfigFromEnv(nil)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if NewVerifier(cfg).Enabled() {
		t.Fatal("expected disabled verifier without a key")
	}

	pub, _ := generateKey(t)
	t.Setenv(EnvPublicKey, base64.RawStdEncoding.EncodeToString(pub))
	t.Setenv(EnvIssuer, "identity")
	t.Setenv(EnvLoginURL, "https://id.example/login")
	cfg, err = LoadConfigFromEnv(nil)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.Key) != ed25519.PublicKeySize || cfg.Issuer != "identity" {
		t.Fatalf("config = %+v", cfg)
	}
	if got := NewVerifier(cfg).RedirectTarget(); got != "https://id.example/login" {
		t.Fatalf("redirect = %q", got)
	}

	t.Setenv(EnvPublicKey, base64.StdEncoding.EncodeToString([]byte("short")))
	if _, err := LoadConfigFromEnv(nil); err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestDisabledVerifierSignsEveryoneIn(t *testing.T) {
	v := NewVerifier(Config{})
	if !v.SignedIn("") {
		t.Fatal("expected disabled verifier to accept any caller")
	}
	if v.RedirectTarget() != "/login" {
		t.Fatalf("redirect = %q", v.RedirectTarget())
	}
}

func TestVerify(t *testing.T) {
	pub, priv := generateKey(t)
	_, otherPriv := generateKey(t)
	v := NewVerifier(Config{Key: pub, Issuer: "identity", Audience: "tracker", Now: func() time.Time { return testNow }})

	expired := validClaims()
	expired["exp"] = testNow.Add(-time.Minute).Unix()
	wrongIssuer := validClaims()
	wrongIssuer["iss"] = "other"
	noSubject := validClaims()
	delete(noSubject, "sub")
	noExpiry := validClaims()
	delete(noExpiry, "exp")

	tests := []struct {
		name  string
		token string
		ok    bool
	}{
		{name: "valid", token: signToken(t, jwt.SigningMethodEdDSA, priv, validClaims()), ok: true},
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.token"},
		{name: "expired", token: signToken(t, jwt.SigningMethodEdDSA, priv, expired)},
		{name: "wrong key", token: signToken(t, jwt.SigningMethodEdDSA, otherPriv, validClaims())},
		{name: "wrong issuer", token: signToken(t, jwt.SigningMethodEdDSA, priv, wrongIssuer)},
		{name: "no subject", token: signToken(t, jwt.SigningMethodEdDSA, priv, noSubject)},
		{name: "no expiry", token: signToken(t, jwt.SigningMethodEdDSA, priv, noExpiry)},
		{name: "hmac", token: signToken(t, jwt.SigningMethodHS256, []byte("secret"), validClaims())},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := v.Verify(tc.token)
			if tc.ok {
				if err != nil {
					t.Fatalf("verify: %v", err)
				}
				if claims.Subject != "user-1" || !claims.ExpiresAt.Equal(testNow.Add(time.Hour)) {
					t.Fatalf("claims = %+v", claims)
				}
			} else if !apperrors.IsCode(err, apperrors.CodeUnauthenticated) {
				t.Fatalf("expected unauthenticated, got %v", err)
			}
			if got := v.SignedIn(tc.token); got != tc.ok {
				t.Fatalf("SignedIn = %v, want %v", got, tc.ok)
			}
		})
	}
}

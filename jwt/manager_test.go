package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

func TestNewManagerDefaultsToHS512(t *testing.T) {
	m, err := NewManager(Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token, err := m.Issue("sid-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	parsed, _, err := gjwt.NewParser().ParseUnverified(token, &Claims{})
	if err != nil {
		t.Fatalf("parse unverified: %v", err)
	}
	if alg := parsed.Method.Alg(); alg != "HS512" {
		t.Fatalf("expected HS512, got %s", alg)
	}
}

func TestNewManagerRejectsShortSecret(t *testing.T) {
	if _, err := NewManager(Config{SigningMethod: MethodHS256, Secret: []byte("short")}); err == nil {
		t.Fatal("expected short secret to be rejected")
	}
	if _, err := NewManager(Config{SigningMethod: "rs256", Secret: testSecret}); err == nil {
		t.Fatal("expected unsupported method to be rejected")
	}
}

func TestIssueAndSessionIDRoundTrip(t *testing.T) {
	m, err := NewManager(Config{Secret: testSecret, Issuer: "adminauth"})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token, err := m.Issue("abc123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	sid, err := m.SessionID(token)
	if err != nil {
		t.Fatalf("session id: %v", err)
	}
	if sid != "abc123" {
		t.Fatalf("expected abc123, got %q", sid)
	}
}

func TestSessionIDRejectsTamperedToken(t *testing.T) {
	m, err := NewManager(Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	token, err := m.Issue("abc123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(token, ".")
	parts[2] = strings.Repeat("A", len(parts[2]))
	if _, err := m.SessionID(strings.Join(parts, ".")); err == nil {
		t.Fatal("expected tampered signature to be rejected")
	}

	other, err := NewManager(Config{Secret: []byte("ffffffffffffffffffffffffffffffff")})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := other.SessionID(token); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}

func TestParseRejectsWrongAlgorithm(t *testing.T) {
	pub, priv := newEdKeys(t)
	m, err := NewManager(Config{SigningMethod: MethodEd25519, PrivateKey: priv, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	tok := gjwt.NewWithClaims(gjwt.SigningMethodHS256, Claims{LoginUserKey: "s1"})
	token, err := tok.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected wrong algorithm to be rejected")
	}
}

func TestEd25519DerivesPublicKey(t *testing.T) {
	_, priv := newEdKeys(t)
	m, err := NewManager(Config{SigningMethod: MethodEd25519, PrivateKey: priv})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	token, err := m.Issue("ed-session")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if sid, err := m.SessionID(token); err != nil || sid != "ed-session" {
		t.Fatalf("unexpected session id %q err=%v", sid, err)
	}
}

func TestSessionIDRequiresClaim(t *testing.T) {
	m, err := NewManager(Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS512, Claims{}).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := m.SessionID(token); !errors.Is(err, ErrMissingSessionClaim) {
		t.Fatalf("expected ErrMissingSessionClaim, got %v", err)
	}
}

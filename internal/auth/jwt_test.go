package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestIssuer_SignVerifyRoundTrip(t *testing.T) {
	iss := NewIssuer("secret-1", time.Hour)

	tok, err := iss.Sign("user-1", "u@example.com")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if strings.Count(tok, ".") != 2 {
		t.Fatalf("token not in three segments: %q", tok)
	}

	claims, err := iss.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Sub != "user-1" || claims.Email != "u@example.com" {
		t.Fatalf("claims = %+v", claims)
	}
	if claims.Exp-claims.Iat != int64(time.Hour/time.Second) {
		t.Fatalf("ttl = %d seconds, want 3600", claims.Exp-claims.Iat)
	}
}

func TestIssuer_RejectsWrongSecret(t *testing.T) {
	tok, err := NewIssuer("secret-a", time.Hour).Sign("u1", "")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := NewIssuer("secret-b", time.Hour).Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
}

func TestIssuer_RejectsTampered(t *testing.T) {
	iss := NewIssuer("s", time.Hour)
	tok, err := iss.Sign("u1", "")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	for _, bad := range []string{
		"not-a-token",
		"a.b",
		tok + "x",
		"eyJ." + strings.SplitN(tok, ".", 2)[1],
	} {
		if _, err := iss.Verify(bad); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Verify(%q): got %v, want ErrInvalidToken", bad, err)
		}
	}
}

func TestIssuer_RejectsExpired(t *testing.T) {
	iss := NewIssuer("s", time.Minute)

	past := time.Now().Add(-2 * time.Minute)
	iss.now = func() time.Time { return past }
	tok, err := iss.Sign("u1", "")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	iss.now = time.Now
	if _, err := iss.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
}

func TestIssuer_EmptySubject(t *testing.T) {
	iss := NewIssuer("s", time.Hour)
	if _, err := iss.Sign("", ""); err == nil {
		t.Fatalf("Sign accepted empty subject")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "hunter22" {
		t.Fatalf("hash equals plaintext")
	}
	if !CheckPassword(hash, "hunter22") {
		t.Fatalf("correct password rejected")
	}
	if CheckPassword(hash, "hunter23") {
		t.Fatalf("wrong password accepted")
	}
}

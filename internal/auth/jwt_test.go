package auth

import (
	"testing"
	"time"
)

func TestIssueAndParse_RoundTrip(t *testing.T) {
	pair, err := Issue("user-1", "OFFICER", "CES", "communityhub", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := Parse(pair.AccessToken, "secret", "communityhub")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("expected subject user-1, got %q", claims.Subject)
	}
	if claims.Role != "OFFICER" || claims.OfficerOrg != "CES" {
		t.Fatalf("unexpected role claims: %q / %q", claims.Role, claims.OfficerOrg)
	}
}

func TestParse_RejectsWrongKey(t *testing.T) {
	pair, err := Issue("user-1", "MEMBER", "", "communityhub", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Parse(pair.AccessToken, "other-secret", "communityhub"); err == nil {
		t.Fatal("expected error for wrong signing key")
	}
}

func TestParse_RejectsIssuerMismatch(t *testing.T) {
	pair, err := Issue("user-1", "MEMBER", "", "someone-else", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Parse(pair.AccessToken, "secret", "communityhub"); err == nil {
		t.Fatal("expected error for issuer mismatch")
	}
}

func TestParse_RejectsExpiredToken(t *testing.T) {
	pair, err := Issue("user-1", "MEMBER", "", "communityhub", "secret", -time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Parse(pair.AccessToken, "secret", "communityhub"); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "correct horse battery") {
		t.Fatal("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong password") {
		t.Fatal("expected wrong password to fail")
	}
}

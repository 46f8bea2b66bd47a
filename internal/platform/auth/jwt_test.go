package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestIssueAndValidate(t *testing.T) {
	mgr := NewTokenManager(testSecret, time.Hour)
	uid := uuid.New()

	token, expiresAt, err := mgr.Issue(uid, "parent@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Error("expiry should be in the future")
	}

	claims, err := mgr.Validate(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != uid {
		t.Errorf("user id = %v, want %v", claims.UserID, uid)
	}
	if claims.Email != "parent@example.com" {
		t.Errorf("email = %q", claims.Email)
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	mgr := NewTokenManager(testSecret, time.Hour)
	token, _, _ := mgr.Issue(uuid.New(), "a@b.c")

	other := NewTokenManager([]byte("ffffffffffffffffffffffffffffffff"), time.Hour)
	if _, err := other.Validate(token); err == nil {
		t.Fatal("expected error for token signed with another secret")
	}
}

func TestValidate_Expired(t *testing.T) {
	mgr := NewTokenManager(testSecret, -time.Minute)
	token, _, _ := mgr.Issue(uuid.New(), "a@b.c")
	if _, err := mgr.Validate(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestValidate_Garbage(t *testing.T) {
	mgr := NewTokenManager(testSecret, time.Hour)
	if _, err := mgr.Validate("not.a.token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

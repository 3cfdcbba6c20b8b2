package utils

import (
	"testing"
	"time"

	"github.com/hichoni/challenge-service/internal/models"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	user := &models.User{ID: 42, Username: "s40101", Role: models.RoleStudent}

	token, err := manager.GenerateToken(user)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("expected user id 42, got %d", claims.UserID)
	}
	if claims.Username != "s40101" {
		t.Errorf("expected username s40101, got %s", claims.Username)
	}
	if claims.Role != models.RoleStudent {
		t.Errorf("expected role student, got %s", claims.Role)
	}
}

func TestJWTManager_WrongSecret(t *testing.T) {
	issuer := NewJWTManager("secret-a", time.Hour)
	verifier := NewJWTManager("secret-b", time.Hour)
	user := &models.User{ID: 1, Username: "teacher1", Role: models.RoleTeacher}

	token, err := issuer.GenerateToken(user)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if _, err := verifier.ValidateToken(token); err == nil {
		t.Error("token signed with a different secret must not validate")
	}
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	manager := NewJWTManager("test-secret", -time.Minute)
	user := &models.User{ID: 1, Username: "s40101", Role: models.RoleStudent}

	token, err := manager.GenerateToken(user)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if _, err := manager.ValidateToken(token); err == nil {
		t.Error("expired token must not validate")
	}
}

func TestJWTManager_Garbage(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	if _, err := manager.ValidateToken("not.a.token"); err == nil {
		t.Error("garbage input must not validate")
	}
}

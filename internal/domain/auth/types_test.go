package auth

import (
	"testing"
	"time"
)

func TestSession_IsAdmin(t *testing.T) {
	s := Session{Role: RoleAdmin}
	if !s.IsAdmin() {
		t.Fatalf("expected admin")
	}
	if (Session{Role: RoleUser}).IsAdmin() {
		t.Fatalf("did not expect admin")
	}
}

func TestRole_Valid(t *testing.T) {
	if !RoleAdmin.Valid() || !RoleUser.Valid() {
		t.Fatalf("expected admin and user to be valid roles")
	}
	if Role("superuser").Valid() {
		t.Fatalf("did not expect superuser to be valid")
	}
}

func TestIdentity_SimpleFields(t *testing.T) {
	id := Identity{UserID: "u", Email: "e", ExpiresAt: time.Now().Add(time.Hour)}
	if id.UserID != "u" || id.Email != "e" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

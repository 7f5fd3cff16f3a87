package security_test

import (
	"strings"
	"testing"

	"github.com/angelmondragon/roastery-backend/pkg/config"
	"github.com/angelmondragon/roastery-backend/pkg/security"
)

var testParams = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := security.HashPassword("tostado-medio-2024", testParams)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected hash format %q", hash)
	}

	ok, err := security.VerifyPassword("tostado-medio-2024", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyPassword failed for the correct password")
	}

	ok, err = security.VerifyPassword("tostado-oscuro", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("VerifyPassword returned true for incorrect password")
	}
}

func TestHashesAreSalted(t *testing.T) {
	a, _ := security.HashPassword("same-password", testParams)
	b, _ := security.HashPassword("same-password", testParams)
	if a == b {
		t.Fatal("expected different salts to produce different hashes")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	for _, encoded := range []string{
		"not-a-hash",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1$c2FsdA$",
		"$bcrypt$v=19$m=8192,t=1,p=1$c2FsdA$a2V5",
	} {
		if _, err := security.VerifyPassword("irrelevant", encoded); err == nil {
			t.Fatalf("expected error for malformed hash %q", encoded)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := security.ValidatePassword("short"); err == nil {
		t.Fatal("expected short password to be rejected")
	}
	if err := security.ValidatePassword("   spaced   "); err == nil {
		t.Fatal("surrounding spaces should not count")
	}
	if err := security.ValidatePassword("long-enough"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

package security

import (
	"errors"
	"strings"
	"testing"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("hash format = %q", hash)
	}

	ok, err := VerifyPassword("Sup3rSecret", hash)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if !ok {
		t.Fatal("correct password did not verify")
	}

	ok, err = VerifyPassword("wrong-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if ok {
		t.Fatal("wrong password verified")
	}
}

func TestHashIsSalted(t *testing.T) {
	h1, err := HashPassword("Sup3rSecret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	h2, err := HashPassword("Sup3rSecret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if h1 == h2 {
		t.Fatal("two hashes of the same password are identical")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	for _, hash := range []string{"", "not-a-hash", "$argon2i$v=19$m=65536,t=3,p=2$AAAA$BBBB"} {
		if _, err := VerifyPassword("anything", hash); !errors.Is(err, ErrInvalidHash) {
			t.Fatalf("hash %q: err = %v, want ErrInvalidHash", hash, err)
		}
	}
}

func TestCheckPasswordStrength(t *testing.T) {
	valid := []string{"Passw0rd", "aB3defgh", "Xy9Xy9Xy9"}
	for _, p := range valid {
		if err := CheckPasswordStrength(p); err != nil {
			t.Fatalf("password %q rejected: %v", p, err)
		}
	}

	weak := []string{
		"Ab1",          // too short
		"alllower123",  // no uppercase
		"ALLUPPER123",  // no lowercase
		"NoNumbersHere",
	}
	for _, p := range weak {
		if err := CheckPasswordStrength(p); !errors.Is(err, ErrWeakPassword) {
			t.Fatalf("password %q: err = %v, want ErrWeakPassword", p, err)
		}
	}
}
